// Package llm implements intent classification, translation and conversation
// summaries on top of the OpenAI chat completions API.
package llm
