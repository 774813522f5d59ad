package mid

import (
	"context"
	"net/http"

	"github.com/ardanlabs/ledger/foundation/web"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ledger",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Number of requests handled, by method.",
	}, []string{"method"})

	errorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ledger",
		Subsystem: "http",
		Name:      "errors_total",
		Help:      "Number of requests that returned an error.",
	})

	panicsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ledger",
		Subsystem: "http",
		Name:      "panics_total",
		Help:      "Number of handler panics recovered.",
	})
)

// Metrics updates program counters.
func Metrics() web.Middleware {

	// This is the actual middleware function to be executed.
	m := func(handler web.Handler) web.Handler {

		// Create the handler that will be attached in the middleware chain.
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

			// Call the next handler.
			err := handler(ctx, w, r)

			// Increment the request and errors counters.
			requestsTotal.WithLabelValues(r.Method).Inc()
			if err != nil {
				errorsTotal.Inc()
			}

			// Return the error so it can be handled further up the chain.
			return err
		}

		return h
	}

	return m
}
