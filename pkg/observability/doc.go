/*
Package observability turns engine lifecycle hooks into Prometheus metrics, event
recordings and OpenTelemetry traces.

	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)
	engine := runtime.NewEngine(g, runtime.WithLifecycleHooks(metrics.Hooks()))
*/
package observability
