package stream

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"
)

// TaskState is the lifecycle state of a SynthesisTask.
type TaskState int32

const (
	TaskPlaying TaskState = iota
	TaskStopped
	TaskCompleted
	TaskFailed
)

func (s TaskState) String() string {
	switch s {
	case TaskPlaying:
		return "playing"
	case TaskStopped:
		return "stopped"
	case TaskCompleted:
		return "completed"
	case TaskFailed:
		return "error"
	default:
		return "unknown"
	}
}

// Producer generates the audio of a synthesis task. It must call emit once per
// audio frame and return promptly once ctx is done.
type Producer func(ctx context.Context, emit func(frame []byte) error) error

// SynthesisTask is one playback of synthesized speech for a session. At most
// one task per session is playing at any time.
type SynthesisTask struct {
	id        string
	sessionID string
	startedAt time.Time

	state  atomic.Int32
	frames atomic.Int64

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

func newSynthesisTask(parent context.Context, id, sessionID string) *SynthesisTask {
	ctx, cancel := context.WithCancel(parent)
	t := &SynthesisTask{
		id:        id,
		sessionID: sessionID,
		startedAt: time.Now(),
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
	t.state.Store(int32(TaskPlaying))
	return t
}

// ID returns the task identifier (tts_<hex>)
func (t *SynthesisTask) ID() string { return t.id }

// SessionID returns the owning session
func (t *SynthesisTask) SessionID() string { return t.sessionID }

// State returns the current state
func (t *SynthesisTask) State() TaskState { return TaskState(t.state.Load()) }

// Frames returns the number of frames delivered so far
func (t *SynthesisTask) Frames() int64 { return t.frames.Load() }

// Done is closed once the producer has returned.
func (t *SynthesisTask) Done() <-chan struct{} { return t.done }

// Err returns the producer error of a failed task. Valid after Done is closed.
func (t *SynthesisTask) Err() error {
	<-t.done
	return t.err
}

// Wait blocks until the task finishes or ctx is done and returns the final state.
func (t *SynthesisTask) Wait(ctx context.Context) TaskState {
	select {
	case <-t.done:
	case <-ctx.Done():
	}
	return t.State()
}

// Stop moves a playing task to stopped and cancels its producer. It reports
// whether this call performed the transition.
func (t *SynthesisTask) Stop() bool {
	if !t.state.CompareAndSwap(int32(TaskPlaying), int32(TaskStopped)) {
		return false
	}
	t.cancel()
	return true
}

func (t *SynthesisTask) finished() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

// finish records the producer outcome. A stopped task stays stopped.
func (t *SynthesisTask) finish(err error) {
	switch {
	case err == nil:
		t.state.CompareAndSwap(int32(TaskPlaying), int32(TaskCompleted))
	case t.ctx.Err() != nil:
		// Cancelled from outside (disconnect or shutdown).
		t.state.CompareAndSwap(int32(TaskPlaying), int32(TaskStopped))
	default:
		if t.state.CompareAndSwap(int32(TaskPlaying), int32(TaskFailed)) {
			t.err = err
		}
	}
	t.cancel()
	close(t.done)
}

// StartSynthesis registers a new playing task for the session and runs produce
// on its own goroutine. A task that is still playing is stopped first, and the
// new one starts only after it has returned. Frames passed to emit are
// delivered as binary messages until the task is stopped.
func (r *Registry) StartSynthesis(sessionID string, produce Producer) (*SynthesisTask, error) {
	c, err := r.client(sessionID)
	if err != nil {
		return nil, err
	}

	t := newSynthesisTask(c.ctx, newID("tts_"), sessionID)

	// t is published only once no other task is playing.
	for {
		c.taskMu.Lock()
		prev := c.task
		if prev == nil || prev.finished() {
			c.task = t
			c.taskMu.Unlock()
			break
		}
		c.taskMu.Unlock()

		if prev.Stop() {
			r.logger.Debug("Previous synthesis stopped by new task",
				slog.String("session_id", sessionID),
				slog.String("audio_id", prev.ID()),
			)
		}
		<-prev.Done()
	}

	emit := func(frame []byte) error {
		if err := t.ctx.Err(); err != nil {
			return err
		}
		if err := r.SendAudio(sessionID, frame); err != nil {
			return err
		}
		t.frames.Add(1)
		return nil
	}

	spawned := c.spawn(func() {
		err := produce(t.ctx, emit)
		t.finish(err)

		c.taskMu.Lock()
		if c.task == t {
			c.task = nil
		}
		c.taskMu.Unlock()

		state := t.State()
		r.metrics.RecordSynthesisTask(state.String())

		attrs := []any{
			slog.String("session_id", sessionID),
			slog.String("audio_id", t.ID()),
			slog.String("state", state.String()),
			slog.Int64("frames", t.Frames()),
			slog.Duration("duration", time.Since(t.startedAt)),
		}
		if state == TaskFailed {
			r.logger.Error("Synthesis failed", append(attrs, slog.String("error", t.err.Error()))...)
		} else {
			r.logger.Debug("Synthesis finished", attrs...)
		}
	})
	if !spawned {
		t.Stop()
		t.finish(context.Canceled)
		c.taskMu.Lock()
		if c.task == t {
			c.task = nil
		}
		c.taskMu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}

	return t, nil
}

// StopSynthesis stops the session's playing task and returns how many tasks
// were stopped (0 or 1).
func (r *Registry) StopSynthesis(sessionID string) (int, error) {
	c, err := r.client(sessionID)
	if err != nil {
		return 0, err
	}

	if t := c.activeTask(); t != nil && t.Stop() {
		return 1, nil
	}
	return 0, nil
}

// StopSynthesisByID stops the task with the given audio id if it is the
// session's playing task.
func (r *Registry) StopSynthesisByID(sessionID, audioID string) (bool, error) {
	c, err := r.client(sessionID)
	if err != nil {
		return false, err
	}

	t := c.activeTask()
	if t == nil || t.ID() != audioID {
		return false, nil
	}
	return t.Stop(), nil
}

// ActiveSynthesis returns the session's current task, or nil.
func (r *Registry) ActiveSynthesis(sessionID string) *SynthesisTask {
	c, err := r.client(sessionID)
	if err != nil {
		return nil
	}
	return c.activeTask()
}
