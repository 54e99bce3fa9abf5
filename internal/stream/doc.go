// Package stream owns the live websocket sessions. The Registry accepts
// connections, dispatches inbound messages, reassembles utterances and hands
// them to a per-session worker, tracks synthesis tasks and delivers outbound
// events with bounded retry.
package stream
