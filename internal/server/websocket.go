package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/skypro1111/voice-translate-service/internal/protocol"
	"github.com/skypro1111/voice-translate-service/internal/stream"
)

func (s *Server) checkOrigin(r *http.Request) bool {
	if len(s.config.Server.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range s.config.Server.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

// handleWebSocket upgrades the request and runs the connection's read loop.
// ?session_id= resumes a live session on the new connection.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	requested := r.URL.Query().Get("session_id")

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied with an HTTP error.
		s.logger.Warn("Websocket upgrade failed",
			slog.String("remote_addr", r.RemoteAddr),
			slog.String("error", err.Error()),
		)
		return
	}
	conn.SetReadLimit(s.config.Server.MaxMessageBytes)

	sessionID, err := s.deps.Registry.Connect(conn, requested)
	if err != nil {
		s.logger.Error("Failed to register connection",
			slog.String("remote_addr", r.RemoteAddr),
			slog.String("error", err.Error()),
		)
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "service unavailable"))
		_ = conn.Close()
		return
	}
	defer s.deps.Registry.Detach(sessionID, conn)

	s.logger.Info("Websocket connected",
		slog.String("session_id", sessionID),
		slog.String("remote_addr", r.RemoteAddr),
		slog.Bool("resumed", requested != "" && requested == sessionID),
	)

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Warn("Websocket read failed",
					slog.String("session_id", sessionID),
					slog.String("error", err.Error()),
				)
			}
			return
		}

		if messageType != websocket.TextMessage {
			_ = s.deps.Registry.SendError(sessionID, protocol.CodeInvalidMessage, "only text frames are accepted")
			continue
		}

		if err := s.deps.Registry.Dispatch(r.Context(), sessionID, data); err != nil {
			if errors.Is(err, stream.ErrSessionNotFound) {
				return
			}
			s.logger.Debug("Message rejected",
				slog.String("session_id", sessionID),
				slog.String("error", err.Error()),
			)
		}
	}
}
