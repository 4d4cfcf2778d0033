// Package metrics exposes Prometheus series for the notification pipeline.
//
// Collector implements the metric hooks of eventbus, registry and session, so
// one value is passed to all three:
//
//	collector := metrics.New()
//	bus := eventbus.New(eventbus.WithMetrics(collector))
//	reg := registry.New(registry.WithMetrics(collector))
//	srv := session.NewServer(reg, bus, auth, session.WithMetrics(collector))
//
//	h, err := metrics.Handler(collector)
//	if err != nil {
//		return err
//	}
//	router.Method(http.MethodGet, "/metrics", h)
//
// Series, all prefixed with notifystream_:
//
//	connections                        gauge
//	active_users                       gauge
//	connection_rejections_total        counter{reason}
//	write_failures_total               counter
//	events_published_total             counter{kind}
//	listener_failures_total            counter{kind}
//	session_duration_seconds           histogram{reason}
//
// Handler serves a private registry with the Go runtime and process
// collectors next to these series.
package metrics
