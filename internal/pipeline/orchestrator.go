package pipeline

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/skypro1111/voice-translate-service/internal/audio"
	"github.com/skypro1111/voice-translate-service/internal/language"
	"github.com/skypro1111/voice-translate-service/internal/metrics"
	"github.com/skypro1111/voice-translate-service/internal/protocol"
	"github.com/skypro1111/voice-translate-service/internal/session"
	"github.com/skypro1111/voice-translate-service/internal/stream"
	"github.com/skypro1111/voice-translate-service/internal/vad"
)

// Synthesis delivery formats
const (
	FormatMP3   = "mp3"
	FormatADPCM = "adpcm"
)

// Config holds orchestrator configuration
type Config struct {
	MaxConcurrent    int
	RecognizeTimeout time.Duration
	IntentTimeout    time.Duration
	TranslateTimeout time.Duration
	SynthesisTimeout time.Duration
	HistoryTurns     int

	TTSFormat      string
	TTSSampleRate  int
	ADPCMChunkSize int
	FrameInterval  time.Duration
}

func (c *Config) applyDefaults() {
	if c.MaxConcurrent <= 0 {
		c.MaxConcurrent = 10
	}
	if c.RecognizeTimeout <= 0 {
		c.RecognizeTimeout = 30 * time.Second
	}
	if c.IntentTimeout <= 0 {
		c.IntentTimeout = 15 * time.Second
	}
	if c.TranslateTimeout <= 0 {
		c.TranslateTimeout = 30 * time.Second
	}
	if c.SynthesisTimeout <= 0 {
		c.SynthesisTimeout = 30 * time.Second
	}
	if c.HistoryTurns <= 0 {
		c.HistoryTurns = 5
	}
	if c.TTSFormat == "" {
		c.TTSFormat = FormatMP3
	}
	if c.TTSSampleRate <= 0 {
		c.TTSSampleRate = protocol.DefaultSampleRate
	}
	if c.ADPCMChunkSize <= 0 {
		c.ADPCMChunkSize = audio.DefaultADPCMChunkSize
	}
}

// Dependencies are the collaborators of the orchestrator. Classifier, Languages
// and Gate are optional.
type Dependencies struct {
	Recognizer  Recognizer
	Classifier  IntentClassifier
	Translator  Translator
	Synthesizer Synthesizer
	Languages   LanguageUsage
	Delivery    Delivery
	Gate        *vad.Gate
}

// Outcome is the result of processing one utterance
type Outcome struct {
	State      State
	Reason     string // why an aborted utterance stopped
	Err        error  // *StageError when a stage failed
	Transcript *Transcript
	Target     string
	Translated string
	AudioID    string
}

// Stats represents orchestrator statistics
type Stats struct {
	Processed   uint64 `json:"processed"`
	Delivered   uint64 `json:"delivered"`
	Aborted     uint64 `json:"aborted"`
	Failed      uint64 `json:"failed"`
	Interrupted uint64 `json:"interrupted"`
	InFlight    int64  `json:"in_flight"`
}

// Orchestrator is the per-utterance state machine. It implements
// stream.UtteranceHandler.
type Orchestrator struct {
	cfg     Config
	deps    Dependencies
	logger  *slog.Logger
	metrics *metrics.Metrics
	sem     *semaphore.Weighted

	decodeMP3 func(data []byte, targetRate int) ([]int16, error)

	processed   atomic.Uint64
	delivered   atomic.Uint64
	aborted     atomic.Uint64
	failed      atomic.Uint64
	interrupted atomic.Uint64
	inFlight    atomic.Int64
}

// New creates an orchestrator
func New(cfg Config, deps Dependencies, logger *slog.Logger, m *metrics.Metrics) (*Orchestrator, error) {
	cfg.applyDefaults()

	if deps.Recognizer == nil || deps.Translator == nil || deps.Synthesizer == nil {
		return nil, errors.New("recognizer, translator and synthesizer are required")
	}
	if deps.Delivery == nil {
		return nil, errors.New("delivery is required")
	}
	if cfg.TTSFormat != FormatMP3 && cfg.TTSFormat != FormatADPCM {
		return nil, fmt.Errorf("unsupported tts format: %s", cfg.TTSFormat)
	}
	if cfg.ADPCMChunkSize > audio.MaxADPCMBlockSamples {
		return nil, fmt.Errorf("adpcm chunk size must be at most %d, got %d", audio.MaxADPCMBlockSamples, cfg.ADPCMChunkSize)
	}

	return &Orchestrator{
		cfg:       cfg,
		deps:      deps,
		logger:    logger,
		metrics:   m,
		sem:       semaphore.NewWeighted(int64(cfg.MaxConcurrent)),
		decodeMP3: audio.MP3ToPCM,
	}, nil
}

// HandleUtterance processes u and records the outcome. Called by the session
// worker.
func (o *Orchestrator) HandleUtterance(ctx context.Context, u *stream.Utterance) {
	out := o.Process(ctx, u)

	attrs := []any{
		slog.String("session_id", u.SessionID),
		slog.String("utterance_id", u.ID),
		slog.String("state", out.State.String()),
		slog.Duration("latency", time.Since(u.ReceivedAt)),
	}
	switch {
	case out.Err != nil:
		o.logger.Warn("Utterance failed", append(attrs, slog.String("error", out.Err.Error()))...)
	case out.State == StateAborted:
		o.logger.Debug("Utterance aborted", append(attrs, slog.String("reason", out.Reason))...)
	default:
		o.logger.Info("Utterance delivered", append(attrs, slog.String("audio_id", out.AudioID))...)
	}
}

// Process runs the pipeline for one utterance. Stage failures are sent to the
// client as error events and returned in the outcome; they never end the
// session.
func (o *Orchestrator) Process(ctx context.Context, u *stream.Utterance) *Outcome {
	if err := o.sem.Acquire(ctx, 1); err != nil {
		o.metrics.RecordUtterance("cancelled")
		o.aborted.Add(1)
		return &Outcome{State: StateAborted, Reason: "cancelled"}
	}
	defer o.sem.Release(1)

	o.inFlight.Add(1)
	defer o.inFlight.Add(-1)
	o.processed.Add(1)

	r := &run{
		o:      o,
		u:      u,
		out:    &Outcome{State: StateBuffering},
		logger: o.logger.With(slog.String("session_id", u.SessionID), slog.String("utterance_id", u.ID)),
	}
	r.execute(ctx)

	switch {
	case r.out.Err != nil:
		o.failed.Add(1)
		o.metrics.RecordUtterance("failed")
	case r.out.State == StateDelivered:
		o.delivered.Add(1)
		o.metrics.RecordUtterance("delivered")
	case r.out.Reason == "interrupted":
		o.interrupted.Add(1)
		o.metrics.RecordUtterance("interrupted")
	default:
		o.aborted.Add(1)
		o.metrics.RecordUtterance(r.out.Reason)
	}

	return r.out
}

// GetStats returns current orchestrator statistics
func (o *Orchestrator) GetStats() Stats {
	return Stats{
		Processed:   o.processed.Load(),
		Delivered:   o.delivered.Load(),
		Aborted:     o.aborted.Load(),
		Failed:      o.failed.Load(),
		Interrupted: o.interrupted.Load(),
		InFlight:    o.inFlight.Load(),
	}
}

// run carries one utterance through the state machine.
type run struct {
	o      *Orchestrator
	u      *stream.Utterance
	out    *Outcome
	logger *slog.Logger
}

func (r *run) transition(s State) {
	r.logger.Debug("Pipeline transition",
		slog.String("from", r.out.State.String()),
		slog.String("to", s.String()),
	)
	r.out.State = s
}

func (r *run) abort(reason string) {
	r.transition(StateAborted)
	r.out.Reason = reason
}

// fail reports a stage error to the client and aborts the utterance.
func (r *run) fail(stage string, err error) {
	se := stageError(stage, err)
	r.out.Err = se
	r.abort(stage + "_error")

	r.logger.Error("Pipeline stage failed",
		slog.String("stage", stage),
		slog.String("error", err.Error()),
	)
	if sendErr := r.o.deps.Delivery.SendError(r.u.SessionID, se.Code, se.Error()); sendErr != nil {
		r.logger.Debug("Could not report stage failure",
			slog.String("stage", stage),
			slog.String("error", sendErr.Error()),
		)
	}
}

// timed runs fn under a stage timeout and records its latency.
func (r *run) timed(ctx context.Context, stage string, timeout time.Duration, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	err := fn(ctx)
	r.o.metrics.RecordStage(stage, time.Since(start).Seconds(), err != nil)
	return err
}

func (r *run) execute(ctx context.Context) {
	r.transition(StateReassembled)

	wav, samples, err := r.decode()
	if err != nil {
		r.fail(StageDecode, err)
		return
	}
	if len(samples) == 0 {
		r.abort("empty")
		return
	}

	if gate := r.o.deps.Gate; gate != nil {
		if res := gate.Analyze(samples); !res.HasVoice {
			r.o.metrics.RecordVoiceGateRejected()
			r.logger.Debug("Voice gate rejected utterance",
				slog.Float64("voice_ratio", res.VoiceRatio),
				slog.Int("windows", res.Windows),
			)
			r.abort("silence")
			return
		}
	}

	if !r.recognize(ctx, wav) {
		return
	}

	sourceText, explicitTarget, ok := r.classify(ctx)
	if !ok {
		return
	}

	if !r.translate(ctx, sourceText, explicitTarget) {
		return
	}

	if r.out.Translated == "" {
		r.transition(StateDelivered)
		return
	}

	r.synthesize(ctx)
}

// decode turns the reassembled payload into a WAV for the recognizer plus the
// PCM samples for the voice gate.
func (r *run) decode() ([]byte, []int16, error) {
	start := time.Now()
	raw, err := base64.StdEncoding.DecodeString(string(r.u.Payload))
	if err != nil {
		r.o.metrics.RecordStage(StageDecode, time.Since(start).Seconds(), true)
		return nil, nil, fmt.Errorf("invalid base64 payload: %w", err)
	}

	var wav []byte
	var samples []int16
	switch r.u.Format {
	case protocol.FormatWAV:
		samples, _, err = audio.DecodeWAV(raw)
		if err != nil {
			r.o.metrics.RecordStage(StageDecode, time.Since(start).Seconds(), true)
			return nil, nil, err
		}
		wav = raw
	default:
		samples = audio.DecodeADPCM(raw)
		if len(samples) > 0 {
			wav = audio.PCMToWAV(samples, r.u.SampleRate)
		}
	}

	r.o.metrics.RecordStage(StageDecode, time.Since(start).Seconds(), false)
	r.logger.Debug("Utterance decoded",
		slog.String("format", r.u.Format),
		slog.Int("raw_bytes", len(raw)),
		slog.Int("samples", len(samples)),
	)
	return wav, samples, nil
}

func (r *run) recognize(ctx context.Context, wav []byte) bool {
	r.transition(StateRecognizing)

	var transcript *Transcript
	err := r.timed(ctx, StageRecognition, r.o.cfg.RecognizeTimeout, func(ctx context.Context) error {
		t, err := r.o.deps.Recognizer.Transcribe(ctx, wav, r.u.Format)
		if err != nil {
			return err
		}
		if t == nil || t.Text == "" {
			return errors.New("no speech recognized")
		}
		transcript = t
		return nil
	})
	if err != nil {
		r.fail(StageRecognition, err)
		return false
	}

	sess := r.u.Session
	tag := language.Normalize(transcript.Language)
	if tag == "" {
		tag = sess.DetectedLanguage()
	}
	if tag == "" {
		tag = language.Default
	}
	transcript.Language = tag
	r.out.Transcript = transcript

	sess.UpdateDetectedLanguage(tag)
	if usage := r.o.deps.Languages; usage != nil {
		if err := usage.RecordUsage(ctx, tag); err != nil {
			r.logger.Warn("Failed to record language usage",
				slog.String("language", tag),
				slog.String("error", err.Error()),
			)
		}
	}

	err = r.o.deps.Delivery.Send(r.u.SessionID, protocol.EventTranscriptResult, protocol.TranscriptResult{
		Text:       transcript.Text,
		Language:   tag,
		Confidence: transcript.Confidence,
		IsFinal:    true,
		Timestamp:  protocol.Timestamp(),
	})
	if err != nil {
		r.abort("undeliverable")
		return false
	}
	return true
}

// classify returns the text to translate and the explicitly requested target
// language, if any.
func (r *run) classify(ctx context.Context) (string, string, bool) {
	text := r.out.Transcript.Text
	classifier := r.o.deps.Classifier
	if classifier == nil {
		return text, "", true
	}

	r.transition(StateIntentClassifying)

	var result *IntentResult
	err := r.timed(ctx, StageIntent, r.o.cfg.IntentTimeout, func(ctx context.Context) error {
		res, err := classifier.Classify(ctx, r.u.Session.RecentTurns(r.o.cfg.HistoryTurns), text)
		if err != nil {
			return err
		}
		if res == nil {
			return errors.New("empty classifier result")
		}
		result = res
		return nil
	})
	if err != nil {
		r.fail(StageIntent, err)
		return "", "", false
	}

	if result.Intent == IntentDoNotTranslate {
		r.abort("not_translated")
		return "", "", false
	}

	if result.SourceText != "" {
		text = result.SourceText
	}
	return text, language.Normalize(result.TargetLanguage), true
}

func (r *run) translate(ctx context.Context, text, explicitTarget string) bool {
	r.transition(StateTranslating)

	sess := r.u.Session
	source := r.out.Transcript.Language

	target := explicitTarget
	if target == "" || target == source {
		var err error
		target, err = sess.ResolveTargetLanguage(ctx, r.o.deps.Languages)
		if err != nil {
			r.fail(StageTranslation, err)
			return false
		}
	}
	r.out.Target = target

	var translation *Translation
	err := r.timed(ctx, StageTranslation, r.o.cfg.TranslateTimeout, func(ctx context.Context) error {
		t, err := r.o.deps.Translator.Translate(ctx, sess.Conversation(), text, source, target)
		if err != nil {
			return err
		}
		if t == nil {
			return errors.New("empty translator result")
		}
		translation = t
		return nil
	})
	if err != nil {
		r.fail(StageTranslation, err)
		return false
	}
	r.out.Translated = translation.Text

	sess.AppendTurn(session.Turn{
		SourceText:     text,
		TargetText:     translation.Text,
		SourceLanguage: source,
		TargetLanguage: target,
	})

	err = r.o.deps.Delivery.Send(r.u.SessionID, protocol.EventTranslationResult, protocol.TranslationResult{
		SourceText:     text,
		TargetText:     translation.Text,
		SourceLanguage: source,
		TargetLanguage: target,
		Confidence:     translation.Confidence,
	})
	if err != nil {
		r.abort("undeliverable")
		return false
	}
	return true
}

func (r *run) synthesize(ctx context.Context) {
	r.transition(StateSynthesizing)

	start := time.Now()
	task, err := r.o.deps.Delivery.StartSynthesis(r.u.SessionID, r.producer())
	if err != nil {
		r.abort("undeliverable")
		return
	}
	r.out.AudioID = task.ID()

	state := task.Wait(ctx)
	switch state {
	case stream.TaskCompleted:
		r.o.metrics.RecordStage(StageSynthesis, time.Since(start).Seconds(), false)
		r.transition(StateDelivered)
	case stream.TaskFailed:
		r.o.metrics.RecordStage(StageSynthesis, time.Since(start).Seconds(), true)
		r.fail(StageSynthesis, task.Err())
	default:
		// Stopped by barge-in, stop_tts or disconnect.
		r.abort("interrupted")
	}
}

// producer fetches the speech for the translated text and emits it either as
// one MP3 frame or as paced ADPCM blocks. The stop flag is checked before
// every block.
func (r *run) producer() stream.Producer {
	text, target := r.out.Translated, r.out.Target
	cfg := r.o.cfg

	return func(ctx context.Context, emit func([]byte) error) error {
		synthCtx, cancel := context.WithTimeout(ctx, cfg.SynthesisTimeout)
		mp3, err := r.o.deps.Synthesizer.Synthesize(synthCtx, text, target)
		cancel()
		if err != nil {
			return err
		}
		if len(mp3) == 0 {
			return errors.New("synthesizer returned no audio")
		}

		if cfg.TTSFormat == FormatMP3 {
			return emit(mp3)
		}

		pcm, err := r.o.decodeMP3(mp3, cfg.TTSSampleRate)
		if err != nil {
			return fmt.Errorf("failed to decode synthesized audio: %w", err)
		}
		blocks, err := audio.PCMToADPCM(pcm, cfg.ADPCMChunkSize)
		if err != nil {
			return err
		}

		for i, block := range blocks {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := emit(block); err != nil {
				return err
			}
			if cfg.FrameInterval > 0 && i < len(blocks)-1 {
				select {
				case <-time.After(cfg.FrameInterval):
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
		return nil
	}
}
