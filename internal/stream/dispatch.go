package stream

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/skypro1111/voice-translate-service/internal/audio"
	"github.com/skypro1111/voice-translate-service/internal/language"
	"github.com/skypro1111/voice-translate-service/internal/protocol"
)

// Dispatch routes one inbound text frame. It runs on the connection's read
// loop, so fragments and control messages of a session are handled in arrival
// order. Problems with the message itself are reported to the client as error
// events and also returned; only ErrSessionNotFound means nothing was sent.
func (r *Registry) Dispatch(ctx context.Context, sessionID string, frame []byte) error {
	c, err := r.client(sessionID)
	if err != nil {
		return err
	}
	c.touch()

	env, err := protocol.Parse(frame)
	if err != nil {
		r.metrics.RecordMessage("invalid")
		_ = r.SendError(sessionID, protocol.CodeInvalidJSON, err.Error())
		return err
	}
	r.metrics.RecordMessage(env.Type)

	switch env.Type {
	case protocol.TypeAudioStream:
		return r.handleAudioStream(c, env)
	case protocol.TypeStopTTS:
		return r.handleStopTTS(c, env)
	case protocol.TypeChangeTargetLanguage:
		return r.handleChangeTargetLanguage(c, env)
	case protocol.TypePing:
		return r.Send(sessionID, protocol.EventPong, protocol.Pong{
			Timestamp:  protocol.Timestamp(),
			ServerLoad: "normal",
		})
	case protocol.TypeGetSystemStatus:
		return r.Send(sessionID, protocol.EventSystemStatus, protocol.SystemStatus{
			ASRStatus:         "online",
			TranslationStatus: "online",
			TTSStatus:         "online",
			QueueLength:       r.QueueLength(),
		})
	case protocol.TypeGenerateSummary:
		return r.handleGenerateSummary(c)
	default:
		r.logger.Warn("Unknown message type",
			slog.String("session_id", sessionID),
			slog.String("type", env.Type),
		)
		_ = r.SendError(sessionID, protocol.CodeInvalidMessageType, env.Type)
		return fmt.Errorf("%w: %q", ErrInvalidMessageType, env.Type)
	}
}

func (r *Registry) handleAudioStream(c *client, env *protocol.Envelope) error {
	// Barge-in: any incoming audio cancels playback, valid or not.
	if t := c.activeTask(); t != nil && t.Stop() {
		r.logger.Info("Synthesis interrupted by incoming audio",
			slog.String("session_id", c.id),
			slog.String("audio_id", t.ID()),
		)
	}

	var msg protocol.AudioStream
	err := env.Decode(&msg)
	if err == nil {
		err = msg.Validate()
	}
	if err != nil {
		// A rejected final fragment still ends the utterance.
		if msg.IsFinal {
			c.reassembler.Reset()
		}
		_ = r.SendError(c.id, protocol.CodeAudioProcessing, err.Error())
		return err
	}

	if err := c.reassembler.Accept(string(msg.ChunkID), msg.AudioChunk); err != nil {
		if errors.Is(err, audio.ErrFragmentLimit) {
			r.logger.Warn("Pending utterance exceeded limits, discarding",
				slog.String("session_id", c.id),
				slog.String("error", err.Error()),
			)
		}
		_ = r.SendError(c.id, protocol.CodeAudioProcessing, err.Error())
		return err
	}

	if !msg.IsFinal {
		return nil
	}

	payload := c.reassembler.Finalize()
	if len(payload) == 0 {
		r.logger.Debug("Empty utterance, skipping pipeline",
			slog.String("session_id", c.id),
		)
		return nil
	}

	u := &Utterance{
		ID:         newID("utt_"),
		SessionID:  c.id,
		Session:    c.sess,
		Payload:    payload,
		Format:     msg.Format,
		SampleRate: msg.SampleRate,
		ReceivedAt: time.Now(),
	}
	r.metrics.RecordUtteranceSize(len(payload))

	select {
	case c.queue <- u:
		r.metrics.SetUtteranceQueue(r.QueueLength())
		r.logger.Debug("Utterance queued",
			slog.String("session_id", c.id),
			slog.String("utterance_id", u.ID),
			slog.Int("bytes", len(payload)),
		)
		return nil
	default:
		r.metrics.RecordUtterance("dropped")
		_ = r.SendError(c.id, protocol.CodeAudioProcessing, "utterance queue is full")
		return fmt.Errorf("utterance queue full for session %s", c.id)
	}
}

func (r *Registry) handleStopTTS(c *client, env *protocol.Envelope) error {
	var msg protocol.StopTTS
	if err := env.Decode(&msg); err != nil {
		_ = r.SendError(c.id, protocol.CodeTTSStop, err.Error())
		return err
	}

	if msg.AudioID != "" {
		stopped, err := r.StopSynthesisByID(c.id, msg.AudioID)
		if err != nil {
			_ = r.SendError(c.id, protocol.CodeTTSStop, err.Error())
			return err
		}
		if !stopped {
			return nil
		}
		return r.Send(c.id, protocol.EventTTSStopped, protocol.TTSStopped{
			AudioID:   msg.AudioID,
			StoppedAt: protocol.Timestamp(),
		})
	}

	count, err := r.StopSynthesis(c.id)
	if err != nil {
		_ = r.SendError(c.id, protocol.CodeTTSStop, err.Error())
		return err
	}
	if count == 0 {
		return nil
	}
	return r.Send(c.id, protocol.EventTTSStopped, protocol.TTSStopped{
		StoppedCount: count,
		StoppedAt:    protocol.Timestamp(),
	})
}

func (r *Registry) handleChangeTargetLanguage(c *client, env *protocol.Envelope) error {
	var msg protocol.ChangeTargetLanguage
	if err := env.Decode(&msg); err != nil {
		_ = r.SendError(c.id, protocol.CodeInvalidMessage, err.Error())
		return err
	}

	tag := language.Normalize(msg.CurrentLanguage)
	if tag == "" {
		_ = r.SendError(c.id, protocol.CodeLanguageRequired, "current_language is required")
		return fmt.Errorf("%w: current_language is required", protocol.ErrInvalidPayload)
	}

	previous := c.sess.UpdateTargetLanguage(tag)

	r.logger.Info("Target language changed",
		slog.String("session_id", c.id),
		slog.String("previous_language", previous),
		slog.String("current_language", tag),
	)

	return r.Send(c.id, protocol.EventTargetLanguageChanged, protocol.TargetLanguageChanged{
		PreviousLanguage: previous,
		CurrentLanguage:  tag,
		ChangedBy:        "voice_command",
	})
}

// handleGenerateSummary runs the summary off the read loop; the reply is sent
// when the generator returns.
func (r *Registry) handleGenerateSummary(c *client) error {
	r.mu.RLock()
	summaries := r.summaries
	r.mu.RUnlock()

	if summaries == nil {
		_ = r.SendError(c.id, protocol.CodeSummaryGeneration, "summary generation is not configured")
		return errors.New("summary generation is not configured")
	}

	spawned := c.spawn(func() {
		ctx, cancel := context.WithTimeout(c.ctx, r.cfg.SummaryTimeout)
		defer cancel()

		result, err := summaries.Generate(ctx, c.sess.Snapshot())
		if err != nil {
			r.logger.Error("Summary generation failed",
				slog.String("session_id", c.id),
				slog.String("error", err.Error()),
			)
			_ = r.SendError(c.id, protocol.CodeSummaryGeneration, err.Error())
			return
		}
		_ = r.Send(c.id, protocol.EventSummaryGenerated, result)
	})
	if !spawned {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, c.id)
	}

	return nil
}
