package channel

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"udctl/internal/config"
	"udctl/internal/jobs"
	"udctl/internal/logging"
	"udctl/internal/metrics"
)

// Channel maintains the push connection to the backend. It dials, reads
// frames, folds them into the store, and redials forever until the context is
// cancelled. The delay between attempts is fixed; there is no backoff, so the
// UI recovers within one delay of the backend coming back.
type Channel struct {
	cfg     *config.Config
	store   *jobs.Store
	log     *logging.Logger
	metrics *metrics.Manager
	dialer  *websocket.Dialer

	mu     sync.Mutex
	conn   *websocket.Conn
	settle *time.Timer
	closed bool
}

func New(cfg *config.Config, store *jobs.Store, log *logging.Logger, m *metrics.Manager) *Channel {
	return &Channel{cfg: cfg, store: store, log: log, metrics: m, dialer: websocket.DefaultDialer}
}

// Run blocks until ctx is cancelled, reconnecting after every drop. A dial
// failure is logged once per outage, not once per attempt.
func (c *Channel) Run(ctx context.Context) error {
	failStreak := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		conn, resp, err := c.dialer.DialContext(ctx, c.cfg.ChannelURL(), nil)
		if resp != nil && resp.Body != nil {
			resp.Body.Close()
		}
		if err != nil {
			if failStreak == 0 {
				c.log.Warnf("status channel dial failed: %v", err)
			}
			failStreak++
			c.metrics.IncReconnects()
			if !c.wait(ctx) {
				return ctx.Err()
			}
			continue
		}
		if failStreak > 0 {
			c.log.Infof("status channel reconnected after %d attempts", failStreak)
			failStreak = 0
		}
		if !c.setConn(conn) {
			conn.Close()
			return nil
		}

		// ReadMessage does not honor ctx, so a watcher closes the
		// socket to unblock it on cancellation.
		done := make(chan struct{})
		go func() {
			select {
			case <-ctx.Done():
				conn.Close()
			case <-done:
			}
		}()
		c.readLoop(conn)
		close(done)
		conn.Close()
		c.setConn(nil)

		if err := ctx.Err(); err != nil {
			return err
		}
		c.metrics.IncReconnects()
		if !c.wait(ctx) {
			return ctx.Err()
		}
	}
}

func (c *Channel) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.log.Debugf("status channel dropped: %v", err)
			return
		}
		c.handle(data)
	}
}

// handle decodes one message and routes it to the owning slice. Malformed
// payloads are dropped; a bad frame never takes the connection down.
func (c *Channel) handle(data []byte) {
	f, err := jobs.ParseFrame(data)
	if err != nil {
		c.metrics.IncMalformed()
		c.log.Warnf("dropping malformed frame: %v", err)
		return
	}
	c.metrics.IncFrames()
	if f.ForCompressor() {
		c.store.ApplyCompressionFrame(f)
		return
	}
	if c.store.ApplyDownloadFrame(f) {
		c.scheduleSettle()
	}
}

// scheduleSettle arms the completion timer for a finishing download. A later
// finishing frame re-arms it; Complete is a no-op if a terminal frame lands
// first.
func (c *Channel) scheduleSettle() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	if c.settle != nil {
		c.settle.Stop()
	}
	c.settle = time.AfterFunc(c.cfg.SettleDelay(), func() {
		c.store.Complete(jobs.Download)
	})
}

// Close tears down the current connection and stops any pending settle timer.
// Run exits on its next loop iteration once its context is cancelled.
func (c *Channel) Close() {
	c.mu.Lock()
	c.closed = true
	if c.settle != nil {
		c.settle.Stop()
		c.settle = nil
	}
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()
	if conn != nil {
		conn.Close()
	}
}

// setConn records the live connection; returns false after Close.
func (c *Channel) setConn(conn *websocket.Conn) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	c.conn = conn
	return true
}

func (c *Channel) wait(ctx context.Context) bool {
	t := time.NewTimer(c.cfg.ReconnectDelay())
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
