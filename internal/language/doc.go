// Package language normalizes language tags reported by recognizers, language models
// and clients into the xx-YY form used throughout the service.
package language
