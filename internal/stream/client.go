package stream

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/skypro1111/voice-translate-service/internal/audio"
	"github.com/skypro1111/voice-translate-service/internal/protocol"
	"github.com/skypro1111/voice-translate-service/internal/session"
)

const (
	textMessage   = websocket.TextMessage
	binaryMessage = websocket.BinaryMessage
)

// client binds a Session to its connection and background goroutines.
type client struct {
	id          string
	registry    *Registry
	sess        *session.Session
	reassembler *audio.Reassembler

	conn    Conn
	writeMu sync.Mutex // guards conn and serializes writes

	queue  chan *Utterance
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	task   *SynthesisTask
	taskMu sync.Mutex

	activity atomic.Int64
	stopOnce sync.Once
	stopping bool
	spawnMu  sync.Mutex
}

func newClient(r *Registry, id string, conn Conn) *client {
	ctx, cancel := context.WithCancel(r.ctx)
	c := &client{
		id:          id,
		registry:    r,
		sess:        session.New(id),
		reassembler: newReassembler(r.cfg),
		conn:        conn,
		queue:       make(chan *Utterance, r.cfg.UtteranceQueue),
		ctx:         ctx,
		cancel:      cancel,
	}
	c.touch()
	return c
}

func (c *client) start() {
	c.wg.Add(2)
	go func() {
		defer c.wg.Done()
		c.heartbeatLoop()
	}()
	go func() {
		defer c.wg.Done()
		c.workerLoop()
	}()
}

// stop cancels the background goroutines and any playing task and waits for
// them to return.
func (c *client) stop() {
	c.stopOnce.Do(func() {
		c.spawnMu.Lock()
		c.stopping = true
		c.spawnMu.Unlock()

		if t := c.activeTask(); t != nil {
			t.Stop()
		}
		c.cancel()
		c.wg.Wait()
		if t := c.activeTask(); t != nil {
			<-t.Done()
		}
		c.reassembler.Reset()
	})
}

// spawn runs fn on a goroutine tracked by stop. It reports false once the
// client is stopping.
func (c *client) spawn(fn func()) bool {
	c.spawnMu.Lock()
	defer c.spawnMu.Unlock()

	if c.stopping {
		return false
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		fn()
	}()
	return true
}

func (c *client) touch() {
	c.activity.Store(time.Now().UnixNano())
}

func (c *client) lastActivity() time.Time {
	return time.Unix(0, c.activity.Load())
}

func (c *client) currentConn() Conn {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn
}

func (c *client) swapConn(conn Conn) Conn {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	old := c.conn
	c.conn = conn
	c.touch()
	return old
}

func (c *client) write(messageType int, data []byte, timeout time.Duration) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(timeout)); err != nil {
		return err
	}
	return c.conn.WriteMessage(messageType, data)
}

func (c *client) activeTask() *SynthesisTask {
	c.taskMu.Lock()
	defer c.taskMu.Unlock()
	return c.task
}

// heartbeatLoop pushes a heartbeat event every HeartbeatInterval.
func (c *client) heartbeatLoop() {
	ticker := time.NewTicker(c.registry.cfg.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			err := c.registry.Send(c.id, protocol.EventHeartbeat, protocol.Heartbeat{
				Timestamp:     protocol.Timestamp(),
				SessionActive: true,
			})
			if err != nil {
				c.registry.logger.Debug("Heartbeat delivery failed",
					slog.String("session_id", c.id),
					slog.String("error", err.Error()),
				)
				return
			}
		}
	}
}

// workerLoop runs queued utterances through the pipeline in isFinal order.
func (c *client) workerLoop() {
	for {
		select {
		case <-c.ctx.Done():
			return
		case u := <-c.queue:
			c.registry.metrics.SetUtteranceQueue(c.registry.QueueLength())

			c.registry.mu.RLock()
			handler := c.registry.handler
			c.registry.mu.RUnlock()

			if handler == nil {
				c.registry.logger.Warn("No pipeline configured, dropping utterance",
					slog.String("session_id", c.id),
					slog.String("utterance_id", u.ID),
				)
				continue
			}
			handler.HandleUtterance(c.ctx, u)
		}
	}
}

func (c *client) info() SessionInfo {
	snap := c.sess.Snapshot()
	info := SessionInfo{
		SessionID:        c.id,
		DetectedLanguage: snap.DetectedLanguage,
		TargetLanguage:   snap.TargetLanguage,
		Languages:        snap.Languages,
		Turns:            len(snap.Conversation),
		CreatedAt:        snap.CreatedAt,
		LastActivity:     c.lastActivity(),
		Duration:         time.Since(snap.CreatedAt).Round(time.Second).String(),
		PendingFragments: c.reassembler.Pending(),
		QueuedUtterances: len(c.queue),
	}
	if t := c.activeTask(); t != nil {
		info.SynthesisTask = t.ID()
		info.SynthesisState = t.State().String()
	}
	return info
}
