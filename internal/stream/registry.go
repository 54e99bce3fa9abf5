package stream

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/skypro1111/voice-translate-service/internal/audio"
	"github.com/skypro1111/voice-translate-service/internal/language"
	"github.com/skypro1111/voice-translate-service/internal/metrics"
	"github.com/skypro1111/voice-translate-service/internal/protocol"
	"github.com/skypro1111/voice-translate-service/internal/session"
)

// Conn is the write side of a client connection. *websocket.Conn satisfies it.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// Utterance is one finalized, still encoded, utterance queued for the pipeline.
type Utterance struct {
	ID         string
	SessionID  string
	Session    *session.Session
	Payload    []byte // reassembled base64 text
	Format     string
	SampleRate int
	ReceivedAt time.Time
}

// UtteranceHandler runs the pipeline for one utterance. It is called from the
// session worker, one utterance at a time per session.
type UtteranceHandler interface {
	HandleUtterance(ctx context.Context, u *Utterance)
}

// SummaryGenerator produces the generate_summary reply for a session.
type SummaryGenerator interface {
	Generate(ctx context.Context, snap session.Snapshot) (*protocol.SummaryGenerated, error)
}

// HistoryStore persists a conversation when its session ends.
type HistoryStore interface {
	Persist(ctx context.Context, snap session.Snapshot) error
}

// Config holds registry configuration
type Config struct {
	HeartbeatInterval time.Duration
	IdleTimeout       time.Duration // 0 disables idle cleanup
	WriteTimeout      time.Duration
	SendRetries       int
	SendRetryDelay    time.Duration
	MaxFragments      int
	MaxUtteranceBytes int
	UtteranceQueue    int
	PersistTimeout    time.Duration
	SummaryTimeout    time.Duration
}

func (c *Config) applyDefaults() {
	if c.HeartbeatInterval <= 0 {
		c.HeartbeatInterval = 30 * time.Second
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 10 * time.Second
	}
	if c.SendRetries < 0 {
		c.SendRetries = 0
	}
	if c.UtteranceQueue <= 0 {
		c.UtteranceQueue = 8
	}
	if c.PersistTimeout <= 0 {
		c.PersistTimeout = 5 * time.Second
	}
	if c.SummaryTimeout <= 0 {
		c.SummaryTimeout = 60 * time.Second
	}
}

// Registry owns every live session and its connection, heartbeat, worker and
// synthesis task.
type Registry struct {
	cfg     Config
	logger  *slog.Logger
	history HistoryStore
	metrics *metrics.Metrics

	handler   UtteranceHandler
	summaries SummaryGenerator

	clients map[string]*client
	closed  bool
	mu      sync.RWMutex

	totalConnected    uint64
	totalDisconnected uint64
	statsMu           sync.Mutex

	// Cleanup management
	ctx     context.Context
	cancel  context.CancelFunc
	cleanup chan struct{}
	started bool
}

// SessionInfo represents session information for monitoring and APIs
type SessionInfo struct {
	SessionID        string    `json:"session_id"`
	DetectedLanguage string    `json:"detected_language"`
	TargetLanguage   string    `json:"target_language"`
	Languages        []string  `json:"languages"`
	Turns            int       `json:"turns"`
	CreatedAt        time.Time `json:"created_at"`
	LastActivity     time.Time `json:"last_activity"`
	Duration         string    `json:"duration"`
	PendingFragments int       `json:"pending_fragments"`
	QueuedUtterances int       `json:"queued_utterances"`
	SynthesisTask    string    `json:"synthesis_task,omitempty"`
	SynthesisState   string    `json:"synthesis_state,omitempty"`
}

// RegistryStats represents registry statistics
type RegistryStats struct {
	ActiveSessions    int    `json:"active_sessions"`
	TotalConnected    uint64 `json:"total_connected"`
	TotalDisconnected uint64 `json:"total_disconnected"`
	QueueLength       int    `json:"queue_length"`
	PlayingTasks      int    `json:"playing_tasks"`
}

// NewRegistry creates a registry. history may be nil, in which case
// conversations are discarded on disconnect.
func NewRegistry(cfg Config, logger *slog.Logger, history HistoryStore, m *metrics.Metrics) *Registry {
	cfg.applyDefaults()
	ctx, cancel := context.WithCancel(context.Background())

	return &Registry{
		cfg:     cfg,
		logger:  logger,
		history: history,
		metrics: m,
		clients: make(map[string]*client),
		ctx:     ctx,
		cancel:  cancel,
		cleanup: make(chan struct{}),
	}
}

// Start wires the pipeline and summary collaborators and starts the idle
// cleanup routine. It must be called once before Connect.
func (r *Registry) Start(handler UtteranceHandler, summaries SummaryGenerator) {
	r.mu.Lock()
	r.handler = handler
	r.summaries = summaries
	r.started = true
	r.mu.Unlock()

	go r.startCleanupRoutine()
}

// Connect registers a connection. An empty or unknown sessionID creates a new
// session; the ID of a live session moves that session onto conn and closes
// the previous connection without persisting anything. The connected event is
// sent before Connect returns.
func (r *Registry) Connect(conn Conn, sessionID string) (string, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return "", ErrRegistryClosed
	}

	if existing, ok := r.clients[sessionID]; ok && sessionID != "" {
		old := existing.swapConn(conn)
		r.mu.Unlock()

		if old != nil {
			_ = old.Close()
		}
		r.logger.Info("Session reattached to new connection",
			slog.String("session_id", sessionID),
		)
		return sessionID, r.sendConnected(existing)
	}

	if sessionID == "" {
		sessionID = newID("session_")
	}
	c := newClient(r, sessionID, conn)
	r.clients[sessionID] = c
	r.mu.Unlock()

	r.statsMu.Lock()
	r.totalConnected++
	r.statsMu.Unlock()
	r.metrics.RecordSessionOpened()

	c.start()

	r.logger.Info("Session connected",
		slog.String("session_id", sessionID),
	)

	if err := r.sendConnected(c); err != nil {
		r.disconnect(sessionID, "accept_failed")
		return "", fmt.Errorf("failed to accept session %s: %w", sessionID, err)
	}

	return sessionID, nil
}

func (r *Registry) sendConnected(c *client) error {
	data, err := protocol.Encode(protocol.EventConnected, protocol.Connected{
		SessionID:          c.id,
		ServerTime:         protocol.Timestamp(),
		SupportedLanguages: language.Supported(),
	})
	if err != nil {
		return err
	}
	return r.deliver(c, textMessage, data)
}

// Disconnect tears a session down: it stops the heartbeat, worker and any
// synthesis task, persists the conversation and closes the connection. It is
// idempotent.
func (r *Registry) Disconnect(sessionID string) bool {
	return r.disconnect(sessionID, "client")
}

// Detach disconnects the session only if conn is still its connection. The
// server calls it when a read loop ends, so a connection replaced by a
// reconnect does not tear down the session.
func (r *Registry) Detach(sessionID string, conn Conn) bool {
	r.mu.RLock()
	c, ok := r.clients[sessionID]
	r.mu.RUnlock()
	if !ok || c.currentConn() != conn {
		return false
	}
	return r.disconnect(sessionID, "client")
}

func (r *Registry) disconnect(sessionID, reason string) bool {
	r.mu.Lock()
	c, ok := r.clients[sessionID]
	if ok {
		delete(r.clients, sessionID)
	}
	r.mu.Unlock()

	if !ok {
		return false
	}

	c.stop()

	turns := c.sess.TurnCount()
	if r.history != nil && turns > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), r.cfg.PersistTimeout)
		if err := r.history.Persist(ctx, c.sess.Snapshot()); err != nil {
			r.logger.Error("Failed to persist conversation history",
				slog.String("session_id", sessionID),
				slog.Int("turns", turns),
				slog.String("error", err.Error()),
			)
		}
		cancel()
	}

	if conn := c.currentConn(); conn != nil {
		_ = conn.Close()
	}

	r.statsMu.Lock()
	r.totalDisconnected++
	r.statsMu.Unlock()
	r.metrics.RecordSessionClosed(reason, time.Since(c.sess.CreatedAt()).Seconds())
	r.metrics.SetUtteranceQueue(r.QueueLength())

	r.logger.Info("Session disconnected",
		slog.String("session_id", sessionID),
		slog.String("reason", reason),
		slog.Int("turns", turns),
		slog.Duration("duration", time.Since(c.sess.CreatedAt())),
	)

	return true
}

// Session returns the conversational state of a live session
func (r *Registry) Session(sessionID string) (*session.Session, error) {
	c, err := r.client(sessionID)
	if err != nil {
		return nil, err
	}
	return c.sess, nil
}

// SessionInfo returns monitoring information for one session
func (r *Registry) SessionInfo(sessionID string) (SessionInfo, error) {
	c, err := r.client(sessionID)
	if err != nil {
		return SessionInfo{}, err
	}
	return c.info(), nil
}

// Sessions returns monitoring information for all sessions
func (r *Registry) Sessions() []SessionInfo {
	r.mu.RLock()
	clients := make([]*client, 0, len(r.clients))
	for _, c := range r.clients {
		clients = append(clients, c)
	}
	r.mu.RUnlock()

	infos := make([]SessionInfo, 0, len(clients))
	for _, c := range clients {
		infos = append(infos, c.info())
	}
	return infos
}

// ActiveSessionCount returns the number of connected sessions
func (r *Registry) ActiveSessionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

// QueueLength returns the number of utterances waiting across all sessions.
func (r *Registry) QueueLength() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, c := range r.clients {
		n += len(c.queue)
	}
	return n
}

// GetStats returns current registry statistics
func (r *Registry) GetStats() RegistryStats {
	r.mu.RLock()
	active := len(r.clients)
	queued, playing := 0, 0
	for _, c := range r.clients {
		queued += len(c.queue)
		if t := c.activeTask(); t != nil && t.State() == TaskPlaying {
			playing++
		}
	}
	r.mu.RUnlock()

	r.statsMu.Lock()
	defer r.statsMu.Unlock()

	return RegistryStats{
		ActiveSessions:    active,
		TotalConnected:    r.totalConnected,
		TotalDisconnected: r.totalDisconnected,
		QueueLength:       queued,
		PlayingTasks:      playing,
	}
}

// Shutdown disconnects every session (persisting their history) and stops the
// cleanup routine. Connect fails afterwards.
func (r *Registry) Shutdown(ctx context.Context) error {
	r.logger.Info("Stopping session registry...")

	r.mu.Lock()
	r.closed = true
	ids := make([]string, 0, len(r.clients))
	for id := range r.clients {
		ids = append(ids, id)
	}
	started := r.started
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		var wg sync.WaitGroup
		for _, id := range ids {
			wg.Add(1)
			go func(id string) {
				defer wg.Done()
				r.disconnect(id, "shutdown")
			}(id)
		}
		wg.Wait()
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return fmt.Errorf("registry shutdown: %w", ctx.Err())
	}

	r.cancel()
	if started {
		<-r.cleanup
	}

	r.logger.Info("Session registry stopped",
		slog.Int("sessions_closed", len(ids)),
	)
	return nil
}

func (r *Registry) client(sessionID string) (*client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.clients[sessionID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	return c, nil
}

// startCleanupRoutine disconnects sessions idle for longer than IdleTimeout
func (r *Registry) startCleanupRoutine() {
	defer close(r.cleanup)

	if r.cfg.IdleTimeout <= 0 {
		<-r.ctx.Done()
		return
	}

	interval := r.cfg.IdleTimeout / 2
	if interval > 30*time.Second {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	r.logger.Info("Session cleanup routine started",
		slog.Duration("timeout", r.cfg.IdleTimeout),
		slog.Duration("check_interval", interval),
	)

	for {
		select {
		case <-r.ctx.Done():
			r.logger.Info("Session cleanup routine stopping")
			return
		case <-ticker.C:
			r.cleanupIdleSessions()
		}
	}
}

func (r *Registry) cleanupIdleSessions() {
	now := time.Now()
	expired := make([]string, 0)

	r.mu.RLock()
	for id, c := range r.clients {
		if now.Sub(c.lastActivity()) > r.cfg.IdleTimeout {
			expired = append(expired, id)
		}
	}
	r.mu.RUnlock()

	if len(expired) > 0 {
		r.logger.Info("Cleaning up idle sessions",
			slog.Int("expired_count", len(expired)),
		)
		for _, id := range expired {
			r.disconnect(id, "idle")
		}
	}
}

// newID returns prefix followed by 8 random hex characters.
func newID(prefix string) string {
	return prefix + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

func newReassembler(cfg Config) *audio.Reassembler {
	return audio.NewReassembler(cfg.MaxFragments, cfg.MaxUtteranceBytes)
}
