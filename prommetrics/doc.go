// Package prommetrics provides a Prometheus-backed implementation of the
// ferry MetricsCollector interface.
//
// Inject it with ferry.WithMetrics and expose the registry with the standard
// promhttp handler:
//
//	collector := prommetrics.NewCollector(nil, "")
//	mgr, err := ferry.NewManager(&cfg, meta, factory, ferry.WithMetrics(collector))
package prommetrics
