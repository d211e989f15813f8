// Package metrics provides the observability hooks for attachment telemetry.
//
// # Design Philosophy
//
// This package implements the Null Object pattern so registries can record
// metrics without nil checks. By default every component uses NoopRecorder;
// the serve command swaps in a PrometheusRecorder when monitoring is enabled.
//
// # Usage Pattern
//
// Components receive a Recorder through their options:
//
//	counter := usage.NewCounter(attach.KindPose, metrics.NoopRecorder{})
//
// When Prometheus is configured:
//
//	reg := prom.NewRegistry()
//	recorder := metrics.NewPrometheusRecorder(reg)
//	http.Handle("/metrics", metrics.HTTPHandler(reg))
package metrics
