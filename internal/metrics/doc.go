// Package metrics provides scalar summaries of a coupled run. Each metric
// observes every completed step through coupling.Metric and is reset at the
// start of a run.
package metrics
