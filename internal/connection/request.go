package connection

import "encoding/json"

// jsonRpcRequest covers methods the rpc package has no builder for.
type jsonRpcRequest struct {
	ID      int           `json:"id"`
	JsonRpc string        `json:"jsonrpc"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

// Method builds a request for method with positional params.
func Method(method string, params ...interface{}) RequestBuilder {
	if params == nil {
		params = []interface{}{}
	}
	return func(id int) []byte {
		b, _ := json.Marshal(jsonRpcRequest{ID: id, JsonRpc: "2.0", Method: method, Params: params})
		return b
	}
}
