// Package pipeline runs finalized utterances through recognition, intent
// classification, translation and speech synthesis, reporting each stage's
// result to the client as soon as it is available.
package pipeline
