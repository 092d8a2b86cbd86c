/*
Package monitoring provides Prometheus metrics for the client.

It tracks the reconciliation loop (tick counts, durations, drops, failures),
controller lifecycle (created, destroyed, live), focus changes, and transport
calls.

All helper methods are nil-safe: components accept a *Metrics and tests may
simply pass nil.

Expose the collectors via the standard Prometheus endpoint:

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
*/
package monitoring
