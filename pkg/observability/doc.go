/*
Package observability turns engine lifecycle events into Prometheus metrics
and structured log lines.

Metrics and the logging hooks are plain domain.LifecycleHooks values, so they
can be merged and handed to courier.WithLifecycleHooks.
*/
package observability
