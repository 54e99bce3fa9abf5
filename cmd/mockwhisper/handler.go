package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/skypro1111/voice-translate-service/internal/audio"
	"github.com/skypro1111/voice-translate-service/internal/transcription"
)

type handlerOptions struct {
	Text     string
	Language string
	Delay    time.Duration
}

func newHandler(opts handlerOptions, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(10 << 20); err != nil {
			http.Error(w, "Error parsing form", http.StatusBadRequest)
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			http.Error(w, "Error getting audio file", http.StatusBadRequest)
			return
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			http.Error(w, "Error reading audio file", http.StatusInternalServerError)
			return
		}

		info, err := audio.GetWAVInfo(data)
		if err != nil {
			http.Error(w, "Audio file is not a valid WAV", http.StatusBadRequest)
			return
		}

		language := opts.Language
		if hint := r.FormValue("language"); hint != "" {
			language = hint
		}

		logger.Info("Transcription request received",
			slog.String("filename", header.Filename),
			slog.Int("audio_bytes", len(data)),
			slog.Float64("duration", info.Duration),
			slog.String("model", r.FormValue("model")),
			slog.String("response_format", r.FormValue("response_format")),
			slog.String("language", language),
		)

		if opts.Delay > 0 {
			select {
			case <-time.After(opts.Delay):
			case <-r.Context().Done():
				return
			}
		}

		resp := transcription.VerboseResponse{
			Text:     opts.Text,
			Language: language,
			Duration: info.Duration,
			Segments: []transcription.Segment{{
				ID:         0,
				Start:      0,
				End:        info.Duration,
				Text:       opts.Text,
				AvgLogprob: -0.1,
			}},
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}
