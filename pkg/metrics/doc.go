// Package metrics exposes the streaming hub's instrumentation callbacks as
// Prometheus metrics under the "streaming" namespace.
//
//	m := metrics.New()
//	hub, _ := stream.New(rels, stream.WithMetrics(m))
//	router.Handle("/metrics", m.Handler())
package metrics
