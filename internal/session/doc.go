// Package session holds the per-connection conversational state: languages,
// the language preference list and the conversation log.
package session
