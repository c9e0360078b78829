/*
Package monitoring collects Prometheus metrics for the inspector.

# Overview

Metrics live on a private registry so that several collectors can coexist,
one per server or test. The collector tracks HTTP requests, inspections,
frame fetches, composed tooltips and overlay stream connections.

# Usage

	metrics := monitoring.NewMetrics()

	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	// the inspection service reports through the Observer methods
	svc := inspection.NewService(client, cfg, logger, metrics)
*/
package monitoring
