package stream

import (
	"errors"
	"log/slog"
	"time"

	"github.com/skypro1111/voice-translate-service/internal/protocol"
)

// Send delivers an event to a session. When delivery still fails after the
// configured retries the session is disconnected in the background and a
// *DeliveryError is returned.
func (r *Registry) Send(sessionID, eventType string, data any) error {
	c, err := r.client(sessionID)
	if err != nil {
		return err
	}

	frame, err := protocol.Encode(eventType, data)
	if err != nil {
		return err
	}

	return r.sendFrame(c, textMessage, frame)
}

// SendError delivers an error event with a machine-readable code and an
// optional detail message.
func (r *Registry) SendError(sessionID, code, message string) error {
	return r.Send(sessionID, protocol.EventError, protocol.NewError(code, message))
}

// SendAudio delivers one binary audio frame.
func (r *Registry) SendAudio(sessionID string, frame []byte) error {
	c, err := r.client(sessionID)
	if err != nil {
		return err
	}
	if err := r.sendFrame(c, binaryMessage, frame); err != nil {
		return err
	}
	r.metrics.RecordSynthesisFrame()
	return nil
}

func (r *Registry) sendFrame(c *client, messageType int, frame []byte) error {
	err := r.deliver(c, messageType, frame)
	if err == nil {
		return nil
	}

	var de *DeliveryError
	if errors.As(err, &de) {
		r.metrics.RecordDeliveryFailure()
		r.logger.Warn("Delivery failed, disconnecting session",
			slog.String("session_id", c.id),
			slog.Int("attempts", de.Attempts),
			slog.String("error", de.Err.Error()),
		)
		go r.disconnect(c.id, "delivery_failed")
	}
	return err
}

// deliver writes a frame, retrying up to SendRetries times.
func (r *Registry) deliver(c *client, messageType int, frame []byte) error {
	attempts := r.cfg.SendRetries + 1

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = c.write(messageType, frame, r.cfg.WriteTimeout); err == nil {
			return nil
		}

		if attempt < attempts {
			r.logger.Debug("Delivery attempt failed, retrying",
				slog.String("session_id", c.id),
				slog.Int("attempt", attempt),
				slog.String("error", err.Error()),
			)
			select {
			case <-time.After(r.cfg.SendRetryDelay):
			case <-c.ctx.Done():
				return &DeliveryError{SessionID: c.id, Attempts: attempt, Err: err}
			}
		}
	}

	return &DeliveryError{SessionID: c.id, Attempts: attempts, Err: err}
}
