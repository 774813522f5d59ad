package mid

import (
	"context"
	"errors"
	"net/http"

	"github.com/ardanlabs/ledger/business/web/errs"
	"github.com/ardanlabs/ledger/foundation/web"
	"golang.org/x/time/rate"
)

// ErrRateLimited is returned when a request exceeds the configured rate.
var ErrRateLimited = errors.New("too many requests")

// RateLimit rejects requests once the service has exceeded perSecond
// requests, allowing bursts of up to burst requests. A perSecond of zero
// disables the limiter.
func RateLimit(perSecond float64, burst int) web.Middleware {
	if perSecond <= 0 {
		return nil
	}

	limiter := rate.NewLimiter(rate.Limit(perSecond), burst)

	// This is the actual middleware function to be executed.
	m := func(handler web.Handler) web.Handler {

		// Create the handler that will be attached in the middleware chain.
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			if !limiter.Allow() {
				return errs.NewTrusted(ErrRateLimited, http.StatusTooManyRequests)
			}

			return handler(ctx, w, r)
		}

		return h
	}

	return m
}
