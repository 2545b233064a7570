// Package quotefeed maintains a live price cache fed by a WebSocket stream.
// The feed pushes quote messages as ["quotes", {"symbol": ..., "price": ...}];
// the client keeps the latest price per symbol and reconnects with backoff
// when the stream drops.
package quotefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"nhooyr.io/websocket"

	"github.com/quantfolio/advisor/internal/events"
)

const (
	writeWait   = 10 * time.Second
	dialTimeout = 30 * time.Second

	baseReconnectDelay = 5 * time.Second
	maxReconnectDelay  = 5 * time.Minute

	cacheStaleThreshold = 5 * time.Minute
)

// Quote is the latest observed price for one symbol
type Quote struct {
	Symbol string    `json:"symbol"`
	Price  float64   `json:"price"`
	Time   time.Time `json:"time"`
}

// Client streams live quotes over WebSocket and caches the latest per symbol
type Client struct {
	url        string
	conn       *websocket.Conn
	connCtx    context.Context
	cancelFunc context.CancelFunc
	mu         sync.RWMutex

	bus *events.Bus
	log zerolog.Logger

	connected    bool
	reconnecting bool
	stopChan     chan struct{}
	stopped      bool

	quotes     map[string]Quote
	lastUpdate time.Time
	cacheMu    sync.RWMutex
}

// New creates a quote feed client. The client is idle until Start is called.
func New(url string, bus *events.Bus, log zerolog.Logger) *Client {
	return &Client{
		url:      url,
		bus:      bus,
		log:      log.With().Str("component", "quote_feed").Logger(),
		quotes:   make(map[string]Quote),
		stopChan: make(chan struct{}),
	}
}

// Start establishes the connection and begins the read loop. A failed initial
// dial is not fatal: the reconnect loop keeps trying in the background.
// An empty URL disables the feed entirely: no dial, no reconnect loop.
func (c *Client) Start() error {
	if c.url == "" {
		c.log.Info().Msg("No feed URL configured, quote feed disabled")
		return nil
	}

	c.log.Info().Str("url", c.url).Msg("Starting quote feed client")

	if err := c.connect(); err != nil {
		c.log.Warn().Err(err).Msg("Initial feed connection failed, will retry in background")
		go c.reconnectLoop()
		return err
	}

	c.mu.RLock()
	ctx := c.connCtx
	c.mu.RUnlock()
	go c.readMessages(ctx)

	return nil
}

// Stop gracefully shuts down the feed connection
func (c *Client) Stop() error {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return nil
	}
	c.stopped = true
	c.mu.Unlock()

	c.log.Info().Msg("Stopping quote feed client")
	close(c.stopChan)
	return c.disconnect()
}

func (c *Client) connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	dialCtx, dialCancel := context.WithTimeout(context.Background(), dialTimeout)
	defer dialCancel()

	conn, _, err := websocket.Dial(dialCtx, c.url, nil)
	if err != nil {
		return fmt.Errorf("failed to dial quote feed: %w", err)
	}

	connCtx, connCancel := context.WithCancel(context.Background())
	c.conn = conn
	c.connCtx = connCtx
	c.cancelFunc = connCancel
	c.connected = true

	if err := c.subscribe(connCtx); err != nil {
		connCancel()
		conn.Close(websocket.StatusNormalClosure, "subscribe failed")
		c.conn = nil
		c.connCtx = nil
		c.cancelFunc = nil
		c.connected = false
		return fmt.Errorf("failed to subscribe to quotes: %w", err)
	}

	c.log.Info().Msg("Connected to quote feed")
	if c.bus != nil {
		c.bus.Publish(events.FeedConnected, &events.FeedStateData{URL: c.url, Connected: true})
	}
	return nil
}

func (c *Client) disconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil
	}

	if c.cancelFunc != nil {
		c.cancelFunc()
		c.cancelFunc = nil
	}

	err := c.conn.Close(websocket.StatusNormalClosure, "")
	c.conn = nil
	c.connCtx = nil
	c.connected = false

	if err != nil {
		return fmt.Errorf("error closing quote feed connection: %w", err)
	}
	return nil
}

func (c *Client) subscribe(ctx context.Context) error {
	msg := []string{"quotes"}
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal subscription message: %w", err)
	}

	writeCtx, cancel := context.WithTimeout(ctx, writeWait)
	defer cancel()

	if err := c.conn.Write(writeCtx, websocket.MessageText, data); err != nil {
		return fmt.Errorf("failed to send subscription message: %w", err)
	}
	return nil
}

func (c *Client) readMessages(ctx context.Context) {
	defer func() {
		c.mu.RLock()
		stopped := c.stopped
		c.mu.RUnlock()

		if c.bus != nil {
			c.bus.Publish(events.FeedDisconnected, &events.FeedStateData{URL: c.url, Connected: false})
		}
		if !stopped {
			go c.reconnectLoop()
		}
	}()

	for {
		select {
		case <-c.stopChan:
			return
		case <-ctx.Done():
			return
		default:
		}

		c.mu.RLock()
		conn := c.conn
		c.mu.RUnlock()
		if conn == nil {
			return
		}

		msgType, message, err := conn.Read(ctx)
		if err != nil {
			closeStatus := websocket.CloseStatus(err)
			if closeStatus == websocket.StatusNormalClosure || closeStatus == websocket.StatusGoingAway {
				c.log.Info().Int("status", int(closeStatus)).Msg("Quote feed closed normally")
			} else if ctx.Err() == nil {
				c.log.Error().Err(err).Msg("Unexpected quote feed read error")
			}
			return
		}

		if msgType != websocket.MessageText {
			continue
		}

		if err := c.handleMessage(message); err != nil {
			c.log.Error().Err(err).Msg("Failed to handle quote message")
			// Keep reading despite parse errors
		}
	}
}

// handleMessage parses a feed frame: ["quotes", {"symbol": ..., "price": ...}]
func (c *Client) handleMessage(message []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(message, &raw); err != nil {
		return fmt.Errorf("failed to parse message array: %w", err)
	}
	if len(raw) < 2 {
		return fmt.Errorf("message array too short: expected 2 elements, got %d", len(raw))
	}

	var channel string
	if err := json.Unmarshal(raw[0], &channel); err != nil {
		return fmt.Errorf("failed to parse channel: %w", err)
	}
	if channel != "quotes" {
		return nil
	}

	var quote Quote
	if err := json.Unmarshal(raw[1], &quote); err != nil {
		return fmt.Errorf("failed to parse quote: %w", err)
	}
	return c.handleQuote(quote)
}

func (c *Client) handleQuote(q Quote) error {
	if q.Symbol == "" || q.Price <= 0 {
		c.log.Warn().Str("symbol", q.Symbol).Float64("price", q.Price).Msg("Dropping malformed quote")
		return nil
	}
	if q.Time.IsZero() {
		q.Time = time.Now()
	}

	c.cacheMu.Lock()
	c.quotes[q.Symbol] = q
	c.lastUpdate = time.Now()
	c.cacheMu.Unlock()

	if c.bus != nil {
		c.bus.Publish(events.QuoteReceived, &events.QuoteReceivedData{Symbol: q.Symbol, Price: q.Price})
	}
	return nil
}

func (c *Client) reconnectLoop() {
	c.mu.Lock()
	if c.reconnecting || c.stopped {
		c.mu.Unlock()
		return
	}
	c.reconnecting = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.reconnecting = false
		c.mu.Unlock()
	}()

	attempt := 0
	for {
		select {
		case <-c.stopChan:
			return
		default:
		}

		c.mu.RLock()
		stopped := c.stopped
		c.mu.RUnlock()
		if stopped {
			return
		}

		attempt++
		delay := backoff(attempt)
		c.log.Info().Int("attempt", attempt).Dur("delay", delay).Msg("Reconnecting to quote feed")

		select {
		case <-time.After(delay):
		case <-c.stopChan:
			return
		}

		if err := c.connect(); err != nil {
			c.log.Error().Err(err).Int("attempt", attempt).Msg("Reconnection failed")
			continue
		}

		c.mu.RLock()
		ctx := c.connCtx
		c.mu.RUnlock()
		go c.readMessages(ctx)
		return
	}
}

func backoff(attempt int) time.Duration {
	delay := float64(baseReconnectDelay) * math.Pow(2, float64(attempt-1))
	if delay > float64(maxReconnectDelay) {
		delay = float64(maxReconnectDelay)
	}
	return time.Duration(delay)
}

// Snapshot returns the latest price per symbol (thread-safe copy)
func (c *Client) Snapshot() map[string]float64 {
	c.cacheMu.RLock()
	defer c.cacheMu.RUnlock()

	out := make(map[string]float64, len(c.quotes))
	for symbol, q := range c.quotes {
		out[symbol] = q.Price
	}
	return out
}

// Latest returns the cached quote for a symbol
func (c *Client) Latest(symbol string) (Quote, bool) {
	c.cacheMu.RLock()
	defer c.cacheMu.RUnlock()
	q, ok := c.quotes[symbol]
	return q, ok
}

// IsCacheStale reports whether no quote has arrived recently
func (c *Client) IsCacheStale() bool {
	c.cacheMu.RLock()
	defer c.cacheMu.RUnlock()
	if c.lastUpdate.IsZero() {
		return true
	}
	return time.Since(c.lastUpdate) > cacheStaleThreshold
}

// IsConnected returns current connection status
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}
