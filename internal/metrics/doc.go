// Package metrics defines the Prometheus metrics of the service.
package metrics
