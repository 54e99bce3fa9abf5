// Package vad provides an energy-based voice gate for decoded utterances.
package vad
