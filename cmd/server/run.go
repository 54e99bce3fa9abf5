package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/skypro1111/voice-translate-service/internal/config"
	"github.com/skypro1111/voice-translate-service/internal/llm"
	"github.com/skypro1111/voice-translate-service/internal/metrics"
	"github.com/skypro1111/voice-translate-service/internal/pipeline"
	"github.com/skypro1111/voice-translate-service/internal/server"
	"github.com/skypro1111/voice-translate-service/internal/storage"
	"github.com/skypro1111/voice-translate-service/internal/stream"
	"github.com/skypro1111/voice-translate-service/internal/summary"
	"github.com/skypro1111/voice-translate-service/internal/transcription"
	"github.com/skypro1111/voice-translate-service/internal/tts"
	"github.com/skypro1111/voice-translate-service/internal/vad"
)

func run(parent context.Context, cfg *config.Config, path string) error {
	if parent == nil {
		parent = context.Background()
	}

	logger, closeLog := initLogger(cfg.Logging)
	defer closeLog()

	logger.Info("Service starting",
		slog.String("service", serviceName),
		slog.String("version", serviceVersion),
		slog.String("config_path", path),
	)
	logger.Info("Configuration loaded",
		slog.String("address", cfg.Server.Address),
		slog.Int("port", cfg.Server.Port),
		slog.String("storage_backend", cfg.Storage.Backend),
		slog.String("recognizer_endpoint", cfg.Recognizer.Endpoint),
		slog.String("llm_model", cfg.LLM.Model),
		slog.String("tts_model", cfg.TTS.Model),
		slog.String("tts_format", cfg.Audio.TTSFormat),
		slog.Bool("vad_enabled", cfg.VAD.Enabled),
		slog.Bool("intent_enabled", cfg.Pipeline.IntentEnabled),
		slog.String("log_level", cfg.Logging.Level),
	)

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	appMetrics := metrics.NewMetrics(promRegistry)

	store, err := openStore(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer store.Close()
	logger.Info("Storage initialized", slog.String("backend", cfg.Storage.Backend))

	recognizer, err := transcription.NewClient(transcription.Config{
		Endpoint:      cfg.Recognizer.Endpoint,
		APIKey:        cfg.Recognizer.APIKey,
		Model:         cfg.Recognizer.Model,
		Language:      cfg.Recognizer.Language,
		Prompt:        cfg.Recognizer.Prompt,
		Timeout:       cfg.Recognizer.GetTimeoutDuration(),
		MaxRetries:    cfg.Recognizer.MaxRetries,
		MaxConcurrent: cfg.Recognizer.MaxConcurrent,
		Backoff:       cfg.Recognizer.GetRetryBackoff(),
	}, logger.With(slog.String("component", "recognizer")), appMetrics)
	if err != nil {
		return fmt.Errorf("failed to create recognizer: %w", err)
	}
	defer recognizer.Close()

	llmClient, err := llm.NewClient(llm.Config{
		APIKey:               cfg.LLM.APIKey,
		BaseURL:              cfg.LLM.BaseURL,
		Model:                cfg.LLM.Model,
		Timeout:              cfg.LLM.GetTimeoutDuration(),
		MaxRetries:           cfg.LLM.MaxRetries,
		IntentTemperature:    cfg.LLM.IntentTemperature,
		TranslateTemperature: cfg.LLM.TranslateTemperature,
		SummaryTemperature:   cfg.LLM.SummaryTemperature,
		SummaryMaxTokens:     cfg.LLM.SummaryMaxTokens,
	}, logger.With(slog.String("component", "llm")))
	if err != nil {
		return fmt.Errorf("failed to create llm client: %w", err)
	}

	synthesizer, err := tts.NewSynthesizer(tts.Config{
		APIKey:     cfg.TTS.APIKey,
		BaseURL:    cfg.TTS.BaseURL,
		Model:      cfg.TTS.Model,
		Voices:     cfg.TTS.Voices,
		Timeout:    cfg.TTS.GetTimeoutDuration(),
		MaxRetries: cfg.TTS.MaxRetries,
	}, logger.With(slog.String("component", "tts")))
	if err != nil {
		return fmt.Errorf("failed to create synthesizer: %w", err)
	}

	var gate *vad.Gate
	if cfg.VAD.Enabled {
		gate, err = vad.NewGate(cfg.VAD.Threshold, cfg.VAD.WindowSize, cfg.VAD.MinVoiceRatio)
		if err != nil {
			return fmt.Errorf("failed to create voice gate: %w", err)
		}
	}

	registry := stream.NewRegistry(stream.Config{
		HeartbeatInterval: cfg.Session.GetHeartbeatInterval(),
		IdleTimeout:       cfg.Session.GetIdleTimeout(),
		WriteTimeout:      cfg.Server.GetWriteTimeout(),
		SendRetries:       cfg.Session.SendRetries,
		SendRetryDelay:    cfg.Session.GetSendRetryDelay(),
		MaxFragments:      cfg.Session.MaxFragments,
		MaxUtteranceBytes: cfg.Session.MaxUtteranceBytes,
		UtteranceQueue:    cfg.Session.UtteranceQueue,
		PersistTimeout:    cfg.Session.GetPersistTimeout(),
		SummaryTimeout:    cfg.Session.GetSummaryTimeout(),
	}, logger.With(slog.String("component", "registry")), store, appMetrics)

	var classifier pipeline.IntentClassifier
	if cfg.Pipeline.IntentEnabled {
		classifier = llmClient
	}

	orchestrator, err := pipeline.New(pipeline.Config{
		MaxConcurrent:    cfg.Pipeline.MaxConcurrent,
		RecognizeTimeout: cfg.Pipeline.GetRecognizeTimeout(),
		IntentTimeout:    cfg.Pipeline.GetIntentTimeout(),
		TranslateTimeout: cfg.Pipeline.GetTranslateTimeout(),
		SynthesisTimeout: cfg.Pipeline.GetSynthesisTimeout(),
		HistoryTurns:     cfg.Pipeline.HistoryTurns,
		TTSFormat:        cfg.Audio.TTSFormat,
		TTSSampleRate:    cfg.Audio.TTSSampleRate,
		ADPCMChunkSize:   cfg.Audio.ADPCMChunkSize,
		FrameInterval:    cfg.Audio.GetTTSFrameInterval(),
	}, pipeline.Dependencies{
		Recognizer:  recognizer,
		Classifier:  classifier,
		Translator:  llmClient,
		Synthesizer: synthesizer,
		Languages:   store,
		Delivery:    registry,
		Gate:        gate,
	}, logger.With(slog.String("component", "pipeline")), appMetrics)
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}

	var summaries stream.SummaryGenerator
	if cfg.Summary.Enabled {
		gen, err := summary.NewGenerator(summary.Config{
			Language:       cfg.Summary.Language,
			ExportDir:      cfg.Summary.ExportDir,
			MaxExportFiles: cfg.Summary.MaxExportFiles,
		}, llmClient, store, logger.With(slog.String("component", "summary")))
		if err != nil {
			return fmt.Errorf("failed to create summary generator: %w", err)
		}
		summaries = gen
	}

	registry.Start(orchestrator, summaries)

	httpServer, err := server.New(cfg, server.Dependencies{
		Registry:   registry,
		Pipeline:   orchestrator,
		Recognizer: recognizer,
		Store:      store,
		Metrics:    appMetrics,
		Gatherer:   promRegistry,
	}, logger.With(slog.String("component", "http")))
	if err != nil {
		return fmt.Errorf("failed to create http server: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(httpServer.ListenAndServe)
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Starting graceful shutdown...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GetShutdownTimeout())
		defer cancel()

		// Stop accepting connections first, then drain sessions so their
		// conversations are persisted.
		var errs []error
		if err := httpServer.Stop(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("http shutdown: %w", err))
		}
		if err := registry.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("registry shutdown: %w", err))
		}
		return errors.Join(errs...)
	})

	logger.Info("Service started",
		slog.String("address", fmt.Sprintf("%s:%d", cfg.Server.Address, cfg.Server.Port)),
	)

	err = g.Wait()

	rs := registry.GetStats()
	ps := orchestrator.GetStats()
	logger.Info("Final statistics",
		slog.Uint64("sessions_connected", rs.TotalConnected),
		slog.Uint64("utterances_processed", ps.Processed),
		slog.Uint64("utterances_delivered", ps.Delivered),
		slog.Uint64("utterances_failed", ps.Failed),
	)

	if err != nil {
		logger.Error("Service stopped with error", slog.String("error", err.Error()))
		return err
	}
	logger.Info("Service stopped")
	return nil
}

func openStore(ctx context.Context, cfg config.StorageConfig) (storage.Store, error) {
	if cfg.Backend != "redis" {
		return storage.NewMemoryStore(), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	store := storage.NewRedisStore(client,
		storage.WithPrefix(cfg.Redis.KeyPrefix),
		storage.WithTTL(cfg.Redis.GetHistoryTTL()),
	)
	if err := store.Ping(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Redis.Addr, err)
	}
	return store, nil
}
