package xrpl

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Client is a websocket connection to a rippled node. Requests are correlated
// to responses by id; transaction stream messages from account subscriptions
// are dispatched to the registered handler.
//
// A client that loses its connection does not reconnect: Done is closed and
// the owner is expected to treat the loss as fatal (crash-only, the process
// supervisor restarts the agent).
type Client struct {
	endpoint  string
	networkID uint32
	log       *zap.Logger

	writeMu sync.Mutex
	conn    *websocket.Conn

	pendingMu sync.Mutex
	pending   map[uint64]chan rpcEnvelope
	nextID    atomic.Uint64

	handlerMu     sync.RWMutex
	onTransaction func(*TransactionEvent)

	connected atomic.Bool
	done      chan struct{}
	failOnce  sync.Once
	err       error
}

// Option configures a Client.
type Option func(*Client)

// WithNetworkID tags every submitted transaction with the given network id.
func WithNetworkID(id uint32) Option {
	return func(c *Client) { c.networkID = id }
}

// WithLogger sets the client logger.
func WithLogger(log *zap.Logger) Option {
	return func(c *Client) { c.log = log }
}

// NewClient builds a client for the given websocket endpoint. Connect must be
// called before use.
func NewClient(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint: endpoint,
		log:      zap.NewNop(),
		pending:  make(map[uint64]chan rpcEnvelope),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// rpcEnvelope is the websocket response wrapper rippled puts around every
// method result.
type rpcEnvelope struct {
	ID           uint64          `json:"id"`
	Type         string          `json:"type"`
	Status       string          `json:"status"`
	Result       json.RawMessage `json:"result"`
	Error        string          `json:"error"`
	ErrorCode    int             `json:"error_code"`
	ErrorMessage string          `json:"error_message"`
}

// Connect dials the endpoint and starts the read pump. A failed dial is
// retried once immediately; a second failure is returned to the caller, which
// treats it as fatal.
func (c *Client) Connect(ctx context.Context) error {
	if c.IsConnected() {
		return nil
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.endpoint, nil)
	if err != nil {
		c.log.Warn("dial failed, retrying once", zap.String("endpoint", c.endpoint), zap.Error(err))
		conn, _, err = websocket.DefaultDialer.DialContext(ctx, c.endpoint, nil)
		if err != nil {
			return fmt.Errorf("connect %s: %w", c.endpoint, err)
		}
	}

	c.writeMu.Lock()
	c.conn = conn
	c.writeMu.Unlock()
	c.connected.Store(true)

	go c.readLoop(conn)

	c.log.Info("connected", zap.String("endpoint", c.endpoint))
	return nil
}

// IsConnected reports whether the websocket is up.
func (c *Client) IsConnected() bool {
	return c.connected.Load()
}

// Done is closed when the connection terminates for any reason.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Err reports why the connection terminated. Valid after Done is closed.
func (c *Client) Err() error {
	<-c.done
	return c.err
}

// Close tears the connection down.
func (c *Client) Close() error {
	c.fail(nil)
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// OnTransaction registers the handler invoked for each transaction stream
// message. Each event is dispatched on its own goroutine so a slow handler
// cannot stall the read pump.
func (c *Client) OnTransaction(handler func(*TransactionEvent)) {
	c.handlerMu.Lock()
	c.onTransaction = handler
	c.handlerMu.Unlock()
}

// SubscribeAccounts subscribes to the transaction streams of the given
// accounts.
func (c *Client) SubscribeAccounts(ctx context.Context, accounts ...string) error {
	_, err := c.do(ctx, map[string]any{
		"command":  "subscribe",
		"accounts": accounts,
	})
	if err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	return nil
}

// AccountLines fetches the trust lines of an account.
func (c *Client) AccountLines(ctx context.Context, account string, limit int) (*AccountLinesResult, error) {
	raw, err := c.do(ctx, map[string]any{
		"command": "account_lines",
		"account": account,
		"limit":   limit,
	})
	if err != nil {
		return nil, fmt.Errorf("account_lines: %w", err)
	}
	var result AccountLinesResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("account_lines: malformed result: %w", err)
	}
	return &result, nil
}

// AccountOffers fetches the resting offers of an account.
func (c *Client) AccountOffers(ctx context.Context, account string, limit int) (*AccountOffersResult, error) {
	raw, err := c.do(ctx, map[string]any{
		"command": "account_offers",
		"account": account,
		"limit":   limit,
	})
	if err != nil {
		return nil, fmt.Errorf("account_offers: %w", err)
	}
	var result AccountOffersResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("account_offers: malformed result: %w", err)
	}
	return &result, nil
}

// AccountInfo fetches basic account data.
func (c *Client) AccountInfo(ctx context.Context, account string) (*AccountInfoResult, error) {
	raw, err := c.do(ctx, map[string]any{
		"command": "account_info",
		"account": account,
	})
	if err != nil {
		return nil, fmt.Errorf("account_info: %w", err)
	}
	var result AccountInfoResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("account_info: malformed result: %w", err)
	}
	return &result, nil
}

// Submit sends a transaction in sign-and-submit mode: the node autofills
// sequence and fee, signs with the supplied secret, and applies the result
// provisionally. The agent itself never holds signing code. When the client
// is configured with a network id it is stamped onto the tx_json.
func (c *Client) Submit(ctx context.Context, tx any, secret string) (*SubmitResult, error) {
	txJSON, err := toTxJSON(tx)
	if err != nil {
		return nil, fmt.Errorf("submit: %w", err)
	}
	if c.networkID != 0 {
		txJSON["NetworkID"] = c.networkID
	}

	raw, err := c.do(ctx, map[string]any{
		"command": "submit",
		"tx_json": txJSON,
		"secret":  secret,
	})
	if err != nil {
		return nil, fmt.Errorf("submit: %w", err)
	}
	var result SubmitResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("submit: malformed result: %w", err)
	}
	return &result, nil
}

// toTxJSON flattens a transaction struct into the mutable map submit needs.
func toTxJSON(tx any) (map[string]any, error) {
	data, err := json.Marshal(tx)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// do sends one request and waits for its correlated response. A terminated
// connection is reported as an error, never re-dialed: the caller is already
// on its way out through Done.
func (c *Client) do(ctx context.Context, request map[string]any) (json.RawMessage, error) {
	if !c.IsConnected() {
		return nil, c.connErr()
	}

	id := c.nextID.Add(1)
	request["id"] = id

	ch := make(chan rpcEnvelope, 1)
	c.pendingMu.Lock()
	c.pending[id] = ch
	c.pendingMu.Unlock()
	defer func() {
		c.pendingMu.Lock()
		delete(c.pending, id)
		c.pendingMu.Unlock()
	}()

	c.writeMu.Lock()
	conn := c.conn
	var err error
	if conn == nil {
		err = fmt.Errorf("not connected")
	} else {
		err = conn.WriteJSON(request)
	}
	c.writeMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("write %q: %w", request["command"], err)
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.done:
		return nil, c.connErr()
	case envelope := <-ch:
		if envelope.Status != "success" {
			return nil, fmt.Errorf("%q failed: %s (%s)",
				request["command"], envelope.Error, envelope.ErrorMessage)
		}
		return envelope.Result, nil
	}
}

// readLoop pumps inbound messages, routing responses to waiting requests and
// stream messages to the transaction handler.
func (c *Client) readLoop(conn *websocket.Conn) {
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			c.fail(fmt.Errorf("read: %w", err))
			return
		}

		var probe struct {
			ID   uint64 `json:"id"`
			Type string `json:"type"`
		}
		if err := json.Unmarshal(message, &probe); err != nil {
			c.log.Warn("discarding unparseable message", zap.Error(err))
			continue
		}

		if probe.Type == "transaction" {
			var event TransactionEvent
			if err := json.Unmarshal(message, &event); err != nil {
				c.log.Warn("discarding malformed transaction event", zap.Error(err))
				continue
			}
			c.handlerMu.RLock()
			handler := c.onTransaction
			c.handlerMu.RUnlock()
			if handler != nil {
				go handler(&event)
			}
			continue
		}

		var envelope rpcEnvelope
		if err := json.Unmarshal(message, &envelope); err != nil {
			c.log.Warn("discarding malformed response", zap.Error(err))
			continue
		}
		c.pendingMu.Lock()
		ch, waiting := c.pending[envelope.ID]
		c.pendingMu.Unlock()
		if waiting {
			ch <- envelope
		}
	}
}

// connErr describes why requests cannot proceed. Reading c.err is safe once
// done is closed.
func (c *Client) connErr() error {
	select {
	case <-c.done:
		if c.err != nil {
			return fmt.Errorf("connection lost: %w", c.err)
		}
		return fmt.Errorf("connection closed")
	default:
		return fmt.Errorf("not connected")
	}
}

// fail marks the connection as terminated and wakes every waiter.
func (c *Client) fail(err error) {
	c.failOnce.Do(func() {
		c.connected.Store(false)
		c.err = err
		close(c.done)
		if err != nil {
			c.log.Error("connection terminated", zap.String("endpoint", c.endpoint), zap.Error(err))
		}
	})
}
