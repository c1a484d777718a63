package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	LoginSuccess       prometheus.Counter
	LoginFailure       prometheus.Counter
	RemoteSaves        prometheus.Counter
	LocalFallbackSaves prometheus.Counter
	GenerationRequests prometheus.Counter
	GenerationFailures prometheus.Counter
}

var (
	once   sync.Once
	global *Metrics
)

func Global() *Metrics {
	once.Do(func() {
		global = &Metrics{
			LoginSuccess: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "soulcare",
				Name:      "login_success_total",
				Help:      "Total successful credential verifications",
			}),
			LoginFailure: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "soulcare",
				Name:      "login_failure_total",
				Help:      "Total failed credential verifications",
			}),
			RemoteSaves: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "soulcare",
				Name:      "conversation_remote_saves_total",
				Help:      "Total conversation saves accepted by the remote store",
			}),
			LocalFallbackSaves: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "soulcare",
				Name:      "conversation_local_fallback_saves_total",
				Help:      "Total conversation saves that fell back to the local store",
			}),
			GenerationRequests: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "soulcare",
				Name:      "generation_requests_total",
				Help:      "Total generation endpoint calls issued",
			}),
			GenerationFailures: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "soulcare",
				Name:      "generation_failures_total",
				Help:      "Total generation endpoint calls that ended in the apology path",
			}),
		}
		prometheus.MustRegister(
			global.LoginSuccess,
			global.LoginFailure,
			global.RemoteSaves,
			global.LocalFallbackSaves,
			global.GenerationRequests,
			global.GenerationFailures,
		)
	})
	return global
}
