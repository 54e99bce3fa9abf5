// Package protocol defines the websocket wire contract: inbound {type, data}
// envelopes with their typed payloads, outbound events and error codes.
package protocol
