// Package storage persists finished conversations and the process-wide language
// usage ranking. A Redis backend serves deployments; the in-memory backend serves
// single-process runs and tests.
package storage
