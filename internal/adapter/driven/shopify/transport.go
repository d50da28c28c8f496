package shopify

import (
	"net/http"

	"golang.org/x/time/rate"
)

// throttledTransport blocks each outgoing request on a token bucket so the
// client never exceeds the store's REST call allowance (2 req/s by default).
// The request's own context governs how long a call may wait for a token.
type throttledTransport struct {
	limiter *rate.Limiter
	next    http.RoundTripper
}

func newThrottledTransport(qps float64, next http.RoundTripper) *throttledTransport {
	if qps <= 0 {
		qps = defaultRateLimit
	}
	return &throttledTransport{
		limiter: rate.NewLimiter(rate.Limit(qps), 1),
		next:    next,
	}
}

func (t *throttledTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return t.next.RoundTrip(req)
}

// authTransport sets the Admin API access token header on every request.
type authTransport struct {
	token string
	next  http.RoundTripper
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// Clone before mutating; RoundTrippers must not modify the caller's request.
	cloned := req.Clone(req.Context())
	cloned.Header.Set("X-Shopify-Access-Token", t.token)
	cloned.Header.Set("Accept", "application/json")
	return t.next.RoundTrip(cloned)
}
