// Package metrics exposes Prometheus instrumentation for the server's
// session lifecycle, cryptographic operations, command dispatch, and
// storage mutations, registered against a package-local registry so the
// metrics listener never shares state with the SQL TCP listener.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "hexdb"

// Registry is the package-local Prometheus registry every metric in this
// package registers against.
var Registry = prometheus.NewRegistry()
