package connection

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"go-multisig/internal/errs"

	"github.com/ChainSafe/gossamer/lib/common"
	"github.com/go-faster/errors"
	"github.com/itering/substrate-api-rpc/rpc"
)

const (
	methodGetStorage       = "state_getStorage"
	methodGetBlock         = "chain_getBlock"
	methodGetMetadata      = "state_getMetadata"
	methodGetHeader        = "chain_getHeader"
	methodFinalizedHead    = "chain_getFinalizedHead"
	methodRuntimeVersion   = "chain_getRuntimeVersion"
	methodAccountNextIndex = "system_accountNextIndex"
	methodSubmitAndWatch   = "author_submitAndWatchExtrinsic"
	methodUnwatch          = "author_unwatchExtrinsic"
)

// ChainClient exposes the node RPC methods the multisig client needs.
type ChainClient struct {
	caller     Caller
	subscriber Subscriber
}

// NewChainClient wraps caller. Submission needs a caller that also
// implements Subscriber, such as WsClient.
func NewChainClient(caller Caller) *ChainClient {
	c := &ChainClient{caller: caller}
	if subscriber, ok := caller.(Subscriber); ok {
		c.subscriber = subscriber
	}
	return c
}

func (c *ChainClient) GetBlockHash(ctx context.Context, blockHeight int) (string, error) {
	res, err := c.caller.Call(ctx, func(id int) []byte { return rpc.ChainGetBlockHash(id, blockHeight) })
	if err != nil {
		return "", err
	}
	hash, err := res.ToString()
	if err != nil || hash == "" {
		return "", errs.NewDecodeError("block hash", errors.Errorf("no hash for block %d", blockHeight))
	}
	return hash, nil
}

func (c *ChainClient) GetGenesisHash(ctx context.Context) (string, error) {
	return c.GetBlockHash(ctx, 0)
}

func (c *ChainClient) GetFinalizedHead(ctx context.Context) (string, error) {
	res, err := c.caller.Call(ctx, Method(methodFinalizedHead))
	if err != nil {
		return "", err
	}
	return res.ToString()
}

// GetHeader returns the header of blockHash, or of the best block if empty.
func (c *ChainClient) GetHeader(ctx context.Context, blockHash string) (*Header, error) {
	var build RequestBuilder
	if blockHash == "" {
		build = Method(methodGetHeader)
	} else {
		build = Method(methodGetHeader, blockHash)
	}
	res, err := c.caller.Call(ctx, build)
	if err != nil {
		return nil, err
	}
	header := &Header{}
	if err := decodeResult(res, "header", header); err != nil {
		return nil, err
	}
	return header, nil
}

// BlockNumber parses the hex block number of a header.
func (h *Header) BlockNumber() (uint32, error) {
	n, err := strconv.ParseUint(strings.TrimPrefix(h.Number, "0x"), 16, 32)
	if err != nil {
		return 0, errs.NewDecodeError("block number", err)
	}
	return uint32(n), nil
}

// GetStorage returns the raw value at key, nil when the key is absent.
func (c *ChainClient) GetStorage(ctx context.Context, key []byte, blockHash string) ([]byte, error) {
	params := []interface{}{common.BytesToHex(key)}
	if blockHash != "" {
		params = append(params, blockHash)
	}
	res, err := c.caller.Call(ctx, Method(methodGetStorage, params...))
	if err != nil {
		return nil, err
	}
	if res.Result == nil {
		return nil, nil
	}
	value, ok := res.Result.(string)
	if !ok {
		return nil, errs.NewDecodeError("storage value", errors.Errorf("unexpected result %T", res.Result))
	}
	raw, err := common.HexToBytes(value)
	if err != nil {
		return nil, errs.NewDecodeError("storage value", err)
	}
	return raw, nil
}

func (c *ChainClient) GetRuntimeVersion(ctx context.Context, blockHash string) (*RuntimeVersion, error) {
	var build RequestBuilder
	if blockHash == "" {
		build = Method(methodRuntimeVersion)
	} else {
		build = func(id int) []byte { return rpc.ChainGetRuntimeVersion(id, blockHash) }
	}
	res, err := c.caller.Call(ctx, build)
	if err != nil {
		return nil, err
	}
	version := &RuntimeVersion{}
	if err := decodeResult(res, "runtime version", version); err != nil {
		return nil, err
	}
	return version, nil
}

// GetMetadata returns the hex encoded runtime metadata at blockHash.
func (c *ChainClient) GetMetadata(ctx context.Context, blockHash string) (string, error) {
	build := Method(methodGetMetadata)
	if blockHash != "" {
		build = func(id int) []byte { return rpc.StateGetMetadata(id, blockHash) }
	}
	res, err := c.caller.Call(ctx, build)
	if err != nil {
		return "", err
	}
	meta, err := res.ToString()
	if err != nil || meta == "" {
		return "", errs.NewDecodeError("metadata", errors.New("empty metadata result"))
	}
	return meta, nil
}

func (c *ChainClient) GetBlock(ctx context.Context, blockHash string) (*SignedBlock, error) {
	res, err := c.caller.Call(ctx, Method(methodGetBlock, blockHash))
	if err != nil {
		return nil, err
	}
	block := &SignedBlock{}
	if err := decodeResult(res, "block", block); err != nil {
		return nil, err
	}
	return block, nil
}

// AccountNextIndex returns the next nonce of account, pool included.
func (c *ChainClient) AccountNextIndex(ctx context.Context, account string) (uint64, error) {
	res, err := c.caller.Call(ctx, Method(methodAccountNextIndex, account))
	if err != nil {
		return 0, err
	}
	var nonce uint64
	if err := decodeResult(res, "account nonce", &nonce); err != nil {
		return 0, err
	}
	return nonce, nil
}

// SubmitAndWatch submits a hex encoded extrinsic and subscribes to its status.
func (c *ChainClient) SubmitAndWatch(ctx context.Context, extrinsicHex string) (*Subscription, error) {
	if c.subscriber == nil {
		return nil, errors.New("submission needs a websocket connection")
	}
	return c.subscriber.Subscribe(ctx, Method(methodSubmitAndWatch, extrinsicHex), methodUnwatch)
}

func decodeResult(res *rpc.JsonRpcResult, what string, dst interface{}) error {
	if res.Result == nil {
		return errs.NewDecodeError(what, errors.New("empty result"))
	}
	raw, err := json.Marshal(res.Result)
	if err != nil {
		return errs.NewDecodeError(what, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return errs.NewDecodeError(what, err)
	}
	return nil
}
