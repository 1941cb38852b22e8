package connection

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/itering/substrate-api-rpc/rpc"
)

const (
	defaultNumSockets  = 2
	subscriptionBuffer = 64
	maxOrphans         = 16
)

type (
	// RequestBuilder renders a JSON-RPC request with the given id.
	RequestBuilder func(id int) []byte

	// Caller sends one request and waits for its response.
	Caller interface {
		Call(ctx context.Context, build RequestBuilder) (*rpc.JsonRpcResult, error)
	}

	// Subscriber opens a subscription. Notifications stop and the channel
	// closes when the subscription is cancelled or the connection drops.
	Subscriber interface {
		Subscribe(ctx context.Context, build RequestBuilder, unsubscribeMethod string) (*Subscription, error)
	}

	// RPCError is an error object returned by the node. It is not transient.
	RPCError struct {
		Code    int
		Message string
	}

	RuntimeVersion struct {
		SpecName           string `json:"specName"`
		ImplName           string `json:"implName"`
		SpecVersion        int    `json:"specVersion"`
		TransactionVersion int    `json:"transactionVersion"`
	}

	Header struct {
		ParentHash     string `json:"parentHash"`
		Number         string `json:"number"`
		StateRoot      string `json:"stateRoot"`
		ExtrinsicsRoot string `json:"extrinsicsRoot"`
	}

	SignedBlock struct {
		Block struct {
			Header     Header   `json:"header"`
			Extrinsics []string `json:"extrinsics"`
		} `json:"block"`
	}

	// response is a node answer, or err when the socket dropped first.
	response struct {
		result *rpc.JsonRpcResult
		err    error
		socket int
	}

	subscriptionEntry struct {
		ch     chan json.RawMessage
		socket int
	}
)

var (
	WS_CONNECTING            = "Connecting %d websocket(s) to %s"
	WS_FAILED_TO_CONNECT     = "Failed to connect websocket to %s"
	WS_DISCONNECTED          = "Websocket %d disconnected, trying to reconnect"
	WS_RECONNECTED           = "Websocket %d reconnected"
	WS_FAILED_TO_RECONNECT   = "Websocket %d could not reconnect"
	WS_UNKNOWN_RESPONSE      = "Dropping response with unknown id %d"
	WS_SUBSCRIPTION_OVERFLOW = "Subscription %s is not draining notifications, dropping one"
	WS_FAILED_TO_UNSUBSCRIBE = "Failed to unsubscribe %s"
	HTTP_FAILED_REQUEST      = "Http request to %s failed"
)

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

func (e *RPCError) ErrorCode() int {
	return e.Code
}
