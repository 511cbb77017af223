/*
Package monitoring provides metrics collection for the desktop service.

# Overview

Metrics are Prometheus collectors registered on a registry owned by the
Metrics value, so several collectors can live side by side (one per test,
one per server). A small snapshot of current values backs the JSON API.

# Features

- HTTP request metrics (latency, throughput, size)
- Service call metrics via Timer
- Window and running-app gauges
- Launch outcomes per app
- Lifecycle event counts per type
- Location sync and restoration failure counts
- Preference snapshot writes
- WebSocket connection metrics

# Usage

	metrics := monitoring.NewMetrics(nil)
	defer metrics.Close()

	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	timer := monitoring.NewTimer(metrics, "launcher", "launch")
	// ... perform operation ...
	timer.Stop("success")
*/
package monitoring
