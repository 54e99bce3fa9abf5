// Package summary answers generate_summary: it asks the language model for a
// Markdown recap of the live conversation, exports it to disk and attaches it to
// the session's history record.
package summary
