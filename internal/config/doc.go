// Package config loads the service's YAML configuration. Every section is an
// explicit struct validated field by field; unknown keys are rejected.
package config
