package connection

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"go-multisig/internal/errs"
	"go-multisig/internal/messages"

	"github.com/go-faster/errors"
	"github.com/itering/substrate-api-rpc/rpc"
	"go.uber.org/zap"
)

// HttpClient sends one-shot JSON-RPC requests over HTTP POST. It cannot
// subscribe, so it serves reads only.
type HttpClient struct {
	endpoint string
	client   *http.Client
	nextID   int64
	logger   *zap.Logger
}

func NewHttpClient(endpoint string, timeout time.Duration, logger *zap.Logger) *HttpClient {
	return &HttpClient{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
		logger:   logger,
	}
}

func (c *HttpClient) Call(ctx context.Context, build RequestBuilder) (*rpc.JsonRpcResult, error) {
	id := int(atomic.AddInt64(&c.nextID, 1))
	reqBody := bytes.NewBuffer(build(id))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, reqBody)
	if err != nil {
		return nil, errors.Wrap(err, "build http request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		messages.NewMultisigMessage(messages.LOG_LEVEL_ERROR, messages.GetComponent(NewHttpClient), err, HTTP_FAILED_REQUEST, c.endpoint).Log(c.logger)
		return nil, errs.NewConnectionError("http post", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, errs.NewConnectionError("http post", errors.Errorf("status %s", resp.Status))
	}

	v := &rpc.JsonRpcResult{}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return nil, errs.NewDecodeError("json-rpc response", err)
	}
	if v.Error != nil {
		return nil, &RPCError{Code: v.Error.Code, Message: v.Error.Message}
	}
	return v, nil
}
