// Package transcription implements the speech recognizer as an HTTP client for
// a Whisper-compatible transcription API. It uploads WAV audio as multipart
// form data, retries transient failures with exponential backoff and limits
// the number of concurrent requests.
package transcription
