// Package server exposes the translation service over HTTP: the /ws websocket
// endpoint that feeds the session registry, plus monitoring and history API
// endpoints.
package server
