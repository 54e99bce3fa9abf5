package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the voice translation service
type Metrics struct {
	// Session metrics
	ActiveSessions   prometheus.Gauge
	SessionsCreated  prometheus.Counter
	SessionsClosed   *prometheus.CounterVec
	SessionDuration  prometheus.Histogram
	MessagesReceived *prometheus.CounterVec
	DeliveryFailures prometheus.Counter

	// Utterance metrics
	UtteranceQueue    prometheus.Gauge
	Utterances        *prometheus.CounterVec
	UtteranceSize     prometheus.Histogram
	StageDuration     *prometheus.HistogramVec
	StageErrors       *prometheus.CounterVec
	SynthesisTasks    *prometheus.CounterVec
	SynthesisFrames   prometheus.Counter
	VoiceGateRejected prometheus.Counter

	// Transcription metrics
	TranscriptionRequests  prometheus.Counter
	TranscriptionSuccesses prometheus.Counter
	TranscriptionFailures  prometheus.Counter
	TranscriptionDuration  prometheus.Histogram
	TranscriptionRetries   prometheus.Counter

	// HTTP API metrics
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPErrors          *prometheus.CounterVec
}

// NewMetrics creates all metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		ActiveSessions: f.NewGauge(prometheus.GaugeOpts{
			Name: "vts_active_sessions",
			Help: "Current number of connected sessions",
		}),
		SessionsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "vts_sessions_created_total",
			Help: "Total number of sessions created",
		}),
		SessionsClosed: f.NewCounterVec(prometheus.CounterOpts{
			Name: "vts_sessions_closed_total",
			Help: "Total number of sessions closed, by reason",
		}, []string{"reason"}),
		SessionDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "vts_session_duration_seconds",
			Help:    "Lifetime of sessions in seconds",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12), // 1s to ~1 hour
		}),
		MessagesReceived: f.NewCounterVec(prometheus.CounterOpts{
			Name: "vts_messages_received_total",
			Help: "Inbound websocket messages by type",
		}, []string{"type"}),
		DeliveryFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "vts_delivery_failures_total",
			Help: "Outbound deliveries that failed after all retries",
		}),

		UtteranceQueue: f.NewGauge(prometheus.GaugeOpts{
			Name: "vts_utterance_queue_length",
			Help: "Utterances waiting for a pipeline across all sessions",
		}),
		Utterances: f.NewCounterVec(prometheus.CounterOpts{
			Name: "vts_utterances_total",
			Help: "Processed utterances by outcome",
		}, []string{"outcome"}),
		UtteranceSize: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "vts_utterance_size_bytes",
			Help:    "Size of reassembled utterances before decoding",
			Buckets: prometheus.ExponentialBuckets(1024, 2, 12), // 1KB to ~4MB
		}),
		StageDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vts_stage_duration_seconds",
			Help:    "Duration of pipeline stages",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~40s
		}, []string{"stage"}),
		StageErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "vts_stage_errors_total",
			Help: "Pipeline stage failures by stage",
		}, []string{"stage"}),
		SynthesisTasks: f.NewCounterVec(prometheus.CounterOpts{
			Name: "vts_synthesis_tasks_total",
			Help: "Finished synthesis tasks by final state",
		}, []string{"state"}),
		SynthesisFrames: f.NewCounter(prometheus.CounterOpts{
			Name: "vts_synthesis_frames_sent_total",
			Help: "Binary audio frames delivered to clients",
		}),
		VoiceGateRejected: f.NewCounter(prometheus.CounterOpts{
			Name: "vts_voice_gate_rejected_total",
			Help: "Utterances dropped by the voice gate",
		}),

		TranscriptionRequests: f.NewCounter(prometheus.CounterOpts{
			Name: "vts_transcription_requests_total",
			Help: "Total number of transcription requests sent",
		}),
		TranscriptionSuccesses: f.NewCounter(prometheus.CounterOpts{
			Name: "vts_transcription_successes_total",
			Help: "Total number of successful transcription requests",
		}),
		TranscriptionFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "vts_transcription_failures_total",
			Help: "Total number of failed transcription requests",
		}),
		TranscriptionDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "vts_transcription_duration_seconds",
			Help:    "Duration of transcription requests",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~2 minutes
		}),
		TranscriptionRetries: f.NewCounter(prometheus.CounterOpts{
			Name: "vts_transcription_retries_total",
			Help: "Total number of transcription request retries",
		}),

		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "vts_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "endpoint", "status_code"}),
		HTTPRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vts_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "endpoint"}),
		HTTPErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "vts_http_errors_total",
			Help: "Total number of HTTP errors",
		}, []string{"method", "endpoint", "error_type"}),
	}
}

// RecordSessionOpened records a newly connected session
func (m *Metrics) RecordSessionOpened() {
	m.SessionsCreated.Inc()
	m.ActiveSessions.Inc()
}

// RecordSessionClosed records a closed session and its lifetime
func (m *Metrics) RecordSessionClosed(reason string, durationSeconds float64) {
	m.SessionsClosed.WithLabelValues(reason).Inc()
	m.ActiveSessions.Dec()
	m.SessionDuration.Observe(durationSeconds)
}

// RecordMessage increments the inbound message counter for a type
func (m *Metrics) RecordMessage(messageType string) {
	m.MessagesReceived.WithLabelValues(messageType).Inc()
}

// RecordDeliveryFailure increments the delivery failure counter
func (m *Metrics) RecordDeliveryFailure() {
	m.DeliveryFailures.Inc()
}

// SetUtteranceQueue sets the number of queued utterances
func (m *Metrics) SetUtteranceQueue(n int) {
	m.UtteranceQueue.Set(float64(n))
}

// RecordUtterance records a finished utterance by outcome
func (m *Metrics) RecordUtterance(outcome string) {
	m.Utterances.WithLabelValues(outcome).Inc()
}

// RecordUtteranceSize observes the reassembled payload size
func (m *Metrics) RecordUtteranceSize(sizeBytes int) {
	m.UtteranceSize.Observe(float64(sizeBytes))
}

// RecordStage observes a stage duration and counts failures
func (m *Metrics) RecordStage(stage string, durationSeconds float64, failed bool) {
	m.StageDuration.WithLabelValues(stage).Observe(durationSeconds)
	if failed {
		m.StageErrors.WithLabelValues(stage).Inc()
	}
}

// RecordSynthesisTask records a finished synthesis task
func (m *Metrics) RecordSynthesisTask(state string) {
	m.SynthesisTasks.WithLabelValues(state).Inc()
}

// RecordSynthesisFrame increments the delivered audio frame counter
func (m *Metrics) RecordSynthesisFrame() {
	m.SynthesisFrames.Inc()
}

// RecordVoiceGateRejected increments the voice gate rejection counter
func (m *Metrics) RecordVoiceGateRejected() {
	m.VoiceGateRejected.Inc()
}

// RecordTranscriptionRequest increments transcription requests counter
func (m *Metrics) RecordTranscriptionRequest() {
	m.TranscriptionRequests.Inc()
}

// RecordTranscriptionSuccess records a successful transcription
func (m *Metrics) RecordTranscriptionSuccess(durationSeconds float64) {
	m.TranscriptionSuccesses.Inc()
	m.TranscriptionDuration.Observe(durationSeconds)
}

// RecordTranscriptionFailure records a failed transcription
func (m *Metrics) RecordTranscriptionFailure(durationSeconds float64) {
	m.TranscriptionFailures.Inc()
	m.TranscriptionDuration.Observe(durationSeconds)
}

// RecordTranscriptionRetry increments the retry counter
func (m *Metrics) RecordTranscriptionRetry() {
	m.TranscriptionRetries.Inc()
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, durationSeconds float64) {
	m.HTTPRequests.WithLabelValues(method, endpoint, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(durationSeconds)
}

// RecordHTTPError records an HTTP error
func (m *Metrics) RecordHTTPError(method, endpoint, errorType string) {
	m.HTTPErrors.WithLabelValues(method, endpoint, errorType).Inc()
}
