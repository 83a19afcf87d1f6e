// Package metrics defines the Prometheus metrics exported by the server.
// All metrics are registered on the default registry via promauto.
package metrics
