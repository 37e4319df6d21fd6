/*
Package observability turns machine lifecycle hooks into Prometheus metrics.

	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)
	m, _ := rewind.New(cfg, rewind.WithLifecycleHooks(metrics.Hooks()))

Hooks from several sinks are combined with domain.ChainHooks.
*/
package observability
