package connection

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"go-multisig/internal/errs"
	"go-multisig/internal/messages"

	"github.com/go-faster/errors"
	"github.com/gorilla/websocket"
	"github.com/itering/substrate-api-rpc/rpc"
	"github.com/puzpuzpuz/xsync/v2"
	"go.uber.org/zap"
)

// WsClient is a JSON-RPC client over a small pool of websockets. Requests are
// spread over the pool by one writer per socket and matched to responses by
// id. Subscription notifications are routed by subscription id.
type WsClient struct {
	sync.Mutex
	endpoint string
	wsPool   []*websocket.Conn
	outgoing chan *outgoingMessage
	nextID   int64
	// requestTimeout bounds the wait for one response, 0 for none.
	requestTimeout time.Duration

	pending       *xsync.MapOf[string, *pendingCall]
	subscriptions *xsync.MapOf[string, *subscriptionEntry]

	// subMu orders notification delivery with subscription registration and
	// channel close. Notifications that arrive before the subscribe response
	// was handed to the caller wait in orphans.
	subMu   sync.Mutex
	orphans map[string][]json.RawMessage

	closed    chan struct{}
	closeOnce sync.Once
	logger    *zap.Logger
}

type outgoingMessage struct {
	payload []byte
	call    *pendingCall
	sent    chan error
}

// pendingCall awaits the response to one request. socket is the worker that
// wrote the request, -1 until written.
type pendingCall struct {
	ch     chan *response
	socket atomic.Int32
}

// InitWSClient dials numSockets websockets to endpoint. Each request waits at
// most requestTimeout for its response.
func InitWSClient(ctx context.Context, endpoint string, numSockets int, requestTimeout time.Duration, logger *zap.Logger) (*WsClient, error) {
	if numSockets <= 0 {
		numSockets = defaultNumSockets
	}
	c := &WsClient{
		endpoint:       endpoint,
		outgoing:       make(chan *outgoingMessage),
		requestTimeout: requestTimeout,
		pending:        xsync.NewMapOf[*pendingCall](),
		subscriptions:  xsync.NewMapOf[*subscriptionEntry](),
		orphans:        map[string][]json.RawMessage{},
		closed:         make(chan struct{}),
		logger:         logger,
	}

	messages.NewMultisigMessage(messages.LOG_LEVEL_INFO, "", nil, WS_CONNECTING, numSockets, endpoint).Log(logger)
	if err := c.connectPool(ctx, numSockets); err != nil {
		c.Close()
		messages.NewMultisigMessage(messages.LOG_LEVEL_ERROR, messages.GetComponent(InitWSClient), err, WS_FAILED_TO_CONNECT, endpoint).Log(logger)
		return nil, errs.NewConnectionError("dial "+endpoint, err)
	}
	return c, nil
}

// connect the ws pool to the endpoint
func (c *WsClient) connectPool(ctx context.Context, numSockets int) error {
	for i := 0; i < numSockets; i++ {
		conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.endpoint, nil)
		if err != nil {
			return err
		}
		c.Lock()
		c.wsPool = append(c.wsPool, conn)
		workerID := len(c.wsPool) - 1
		c.Unlock()

		go c.workerSendMessage(workerID)
		go c.readWSMessages(workerID)
	}
	return nil
}

func (c *WsClient) conn(workerID int) *websocket.Conn {
	c.Lock()
	defer c.Unlock()
	return c.wsPool[workerID]
}

func (c *WsClient) workerSendMessage(workerID int) {
	for {
		select {
		case <-c.closed:
			return
		case msg := <-c.outgoing:
			msg.call.socket.Store(int32(workerID))
			msg.sent <- c.conn(workerID).WriteMessage(websocket.TextMessage, msg.payload)
		}
	}
}

func (c *WsClient) readWSMessages(workerID int) {
	for {
		v := &rpc.JsonRpcResult{}
		if err := c.conn(workerID).ReadJSON(v); err != nil {
			if c.isClosed() {
				return
			}
			messages.NewMultisigMessage(messages.LOG_LEVEL_WARNING, messages.GetComponent(InitWSClient), err, WS_DISCONNECTED, workerID).Log(c.logger)
			if !c.reconnect(workerID) {
				return
			}
			continue
		}
		c.dispatch(workerID, v)
	}
}

// reconnect replaces a dropped socket. Subscriptions and requests of the
// dropped socket fail, their responses cannot be recovered.
func (c *WsClient) reconnect(workerID int) bool {
	c.conn(workerID).Close()
	c.closeSubscriptions(func(entry *subscriptionEntry) bool { return entry.socket == workerID })
	c.failPending(workerID)

	conn, _, err := websocket.DefaultDialer.Dial(c.endpoint, nil)
	if err != nil {
		messages.NewMultisigMessage(messages.LOG_LEVEL_ERROR, messages.GetComponent(InitWSClient), err, WS_FAILED_TO_RECONNECT, workerID).Log(c.logger)
		return false
	}
	c.Lock()
	c.wsPool[workerID] = conn
	c.Unlock()
	messages.NewMultisigMessage(messages.LOG_LEVEL_INFO, "", nil, WS_RECONNECTED, workerID).Log(c.logger)
	return true
}

func (c *WsClient) dispatch(workerID int, v *rpc.JsonRpcResult) {
	if v.Params != nil && v.Params.Subscription != "" {
		raw, err := json.Marshal(v.Params.Result)
		if err != nil {
			return
		}
		c.notify(v.Params.Subscription, raw)
		return
	}

	call, ok := c.pending.Load(strconv.Itoa(v.Id))
	if !ok {
		messages.NewMultisigMessage(messages.LOG_LEVEL_DEBUG, "", nil, WS_UNKNOWN_RESPONSE, v.Id).Log(c.logger)
		return
	}
	select {
	case call.ch <- &response{result: v, socket: workerID}:
	default:
	}
}

// failPending fails the requests written to a dropped socket.
func (c *WsClient) failPending(workerID int) {
	dropped := errs.NewConnectionError("await response", errors.Errorf("websocket %d dropped", workerID))
	c.pending.Range(func(id string, call *pendingCall) bool {
		if call.socket.Load() == int32(workerID) {
			select {
			case call.ch <- &response{err: dropped, socket: workerID}:
			default:
			}
		}
		return true
	})
}

func (c *WsClient) notify(subscriptionID string, raw json.RawMessage) {
	c.subMu.Lock()
	defer c.subMu.Unlock()

	entry, ok := c.subscriptions.Load(subscriptionID)
	if !ok {
		if len(c.orphans[subscriptionID]) < maxOrphans {
			c.orphans[subscriptionID] = append(c.orphans[subscriptionID], raw)
		}
		return
	}
	select {
	case entry.ch <- raw:
	default:
		messages.NewMultisigMessage(messages.LOG_LEVEL_WARNING, "", nil, WS_SUBSCRIPTION_OVERFLOW, subscriptionID).Log(c.logger)
	}
}

func (c *WsClient) send(ctx context.Context, msg *outgoingMessage) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c.closed:
		return errors.New("client closed")
	case c.outgoing <- msg:
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-msg.sent:
		return err
	}
}

func (c *WsClient) call(ctx context.Context, build RequestBuilder) (*response, error) {
	if c.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.requestTimeout)
		defer cancel()
	}

	id := int(atomic.AddInt64(&c.nextID, 1))
	key := strconv.Itoa(id)
	call := &pendingCall{ch: make(chan *response, 1)}
	call.socket.Store(-1)
	c.pending.Store(key, call)
	defer c.pending.Delete(key)

	msg := &outgoingMessage{payload: build(id), call: call, sent: make(chan error, 1)}
	if err := c.send(ctx, msg); err != nil {
		return nil, errs.NewConnectionError("send request", err)
	}

	select {
	case <-ctx.Done():
		return nil, errs.NewConnectionError("await response", ctx.Err())
	case <-c.closed:
		return nil, errs.NewConnectionError("await response", errors.New("client closed"))
	case resp := <-call.ch:
		if resp.err != nil {
			return nil, resp.err
		}
		if resp.result.Error != nil {
			return nil, &RPCError{Code: resp.result.Error.Code, Message: resp.result.Error.Message}
		}
		return resp, nil
	}
}

// Call sends a request and waits for its response.
func (c *WsClient) Call(ctx context.Context, build RequestBuilder) (*rpc.JsonRpcResult, error) {
	resp, err := c.call(ctx, build)
	if err != nil {
		return nil, err
	}
	return resp.result, nil
}

// Subscribe sends a subscribing request and routes its notifications to the
// returned subscription.
func (c *WsClient) Subscribe(ctx context.Context, build RequestBuilder, unsubscribeMethod string) (*Subscription, error) {
	resp, err := c.call(ctx, build)
	if err != nil {
		return nil, err
	}
	subscriptionID, err := resp.result.ToString()
	if err != nil || subscriptionID == "" {
		return nil, errs.NewDecodeError("subscription id", errors.Errorf("unexpected result %v", resp.result.Result))
	}

	entry := &subscriptionEntry{ch: make(chan json.RawMessage, subscriptionBuffer), socket: resp.socket}
	c.subMu.Lock()
	c.subscriptions.Store(subscriptionID, entry)
	for _, raw := range c.orphans[subscriptionID] {
		entry.ch <- raw
	}
	delete(c.orphans, subscriptionID)
	c.subMu.Unlock()

	unsubscribe := func(ctx context.Context) error {
		c.dropSubscription(subscriptionID)
		if unsubscribeMethod == "" {
			return nil
		}
		_, err := c.Call(ctx, Method(unsubscribeMethod, subscriptionID))
		if err != nil {
			messages.NewMultisigMessage(messages.LOG_LEVEL_DEBUG, "", err, WS_FAILED_TO_UNSUBSCRIBE, subscriptionID).Log(c.logger)
		}
		return err
	}
	return NewSubscription(subscriptionID, entry.ch, unsubscribe), nil
}

func (c *WsClient) dropSubscription(subscriptionID string) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	if entry, ok := c.subscriptions.LoadAndDelete(subscriptionID); ok {
		close(entry.ch)
	}
}

func (c *WsClient) closeSubscriptions(match func(*subscriptionEntry) bool) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	c.subscriptions.Range(func(id string, entry *subscriptionEntry) bool {
		if match(entry) {
			c.subscriptions.Delete(id)
			close(entry.ch)
		}
		return true
	})
}

func (c *WsClient) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

// Close closes every socket and subscription.
func (c *WsClient) Close() {
	c.closeOnce.Do(func() {
		close(c.closed)
		c.Lock()
		for _, conn := range c.wsPool {
			conn.Close()
		}
		c.Unlock()
		c.closeSubscriptions(func(*subscriptionEntry) bool { return true })
	})
}
