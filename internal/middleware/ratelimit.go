package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	stdlibmw "github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	redisstore "github.com/ulule/limiter/v3/drivers/store/redis"
)

// DefaultRateLimit allows 10 requests per second per client. The
// estimate endpoint is called on every debounced keystroke, so the
// limit has to leave room for normal typing.
const DefaultRateLimit = "10-S"

// ClientIP extracts the client IP for rate limiting, preferring proxy
// headers over RemoteAddr.
func ClientIP(r *http.Request) string {
	xff := r.Header.Get("X-Forwarded-For")
	if xff != "" {
		// The first entry is the original client.
		ips := strings.Split(xff, ",")
		if len(ips) > 0 {
			return strings.TrimSpace(ips[0])
		}
	}

	xri := r.Header.Get("X-Real-IP")
	if xri != "" {
		return strings.TrimSpace(xri)
	}

	return r.RemoteAddr
}

// RateLimit returns middleware that uses ulule/limiter backed by Redis.
// rate is in limiter's formatted notation ("10-S", "100-M").
func RateLimit(redisClient *redis.Client, rate string) (func(http.Handler) http.Handler, error) {
	if rate == "" {
		rate = DefaultRateLimit
	}

	parsed, err := limiter.NewRateFromFormatted(rate)
	if err != nil {
		return nil, fmt.Errorf("invalid rate limit %q: %w", rate, err)
	}

	store, err := redisstore.NewStore(redisClient)
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit store: %w", err)
	}

	instance := limiter.New(store, parsed)
	mw := stdlibmw.NewMiddleware(instance, stdlibmw.WithKeyGetter(ClientIP))
	return mw.Handler, nil
}
