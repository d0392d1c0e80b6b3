// middleware/rate_limiter.go
package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type endpointLimit struct {
	limit rate.Limit
	burst int
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type RateLimiter struct {
	ips            map[string]*visitor
	blockedIPs     map[string]time.Time
	mu             sync.Mutex
	defaultLimit   rate.Limit
	defaultBurst   int
	blockDuration  time.Duration
	idleTimeout    time.Duration
	endpointLimits map[string]endpointLimit
	now            func() time.Time
}

func NewRateLimiter() *RateLimiter {
	limiter := &RateLimiter{
		ips:            make(map[string]*visitor),
		blockedIPs:     make(map[string]time.Time),
		defaultLimit:   rate.Every(100 * time.Millisecond), // 10 requests per second
		defaultBurst:   20,
		blockDuration:  5 * time.Minute,
		idleTimeout:    10 * time.Minute,
		endpointLimits: make(map[string]endpointLimit),
		now:            time.Now,
	}

	// Login and OTP endpoints are brute-force targets
	limiter.SetEndpointLimit("/api/admin/login", rate.Every(2*time.Second), 5)
	limiter.SetEndpointLimit("/api/admin/verify-otp", rate.Every(2*time.Second), 5)
	limiter.SetEndpointLimit("/api/contact-us", rate.Every(10*time.Second), 3)
	limiter.SetEndpointLimit("/api/wallet/transfer", rate.Every(time.Second), 3)

	return limiter
}

// SetEndpointLimit overrides the default limit for a route path
func (r *RateLimiter) SetEndpointLimit(path string, limit rate.Limit, burst int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.endpointLimits[path] = endpointLimit{limit: limit, burst: burst}
}

// RunCleanup drops expired blocks and idle limiters every interval until stop is closed
func (r *RateLimiter) RunCleanup(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			r.cleanup()
		}
	}
}

func (r *RateLimiter) cleanup() {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	for key, blockUntil := range r.blockedIPs {
		if now.After(blockUntil) {
			delete(r.blockedIPs, key)
			delete(r.ips, key)
		}
	}
	for key, v := range r.ips {
		if _, blocked := r.blockedIPs[key]; blocked {
			continue
		}
		if now.Sub(v.lastSeen) > r.idleTimeout {
			delete(r.ips, key)
		}
	}
}

func (r *RateLimiter) RateLimit() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()
			path := c.Path()

			r.mu.Lock()
			limit, burst := r.defaultLimit, r.defaultBurst
			key := ip
			if endpoint, exists := r.endpointLimits[path]; exists {
				limit, burst = endpoint.limit, endpoint.burst
				key = ip + "|" + path
			}

			if blockUntil, blocked := r.blockedIPs[key]; blocked {
				if r.now().Before(blockUntil) {
					r.mu.Unlock()
					return c.JSON(http.StatusTooManyRequests, map[string]string{
						"message":    "IP address blocked due to too many requests",
						"retryAfter": blockUntil.Format(time.RFC3339),
					})
				}
				delete(r.blockedIPs, key)
				delete(r.ips, key)
			}

			v, exists := r.ips[key]
			if !exists {
				v = &visitor{limiter: rate.NewLimiter(limit, burst)}
				r.ips[key] = v
			}
			v.lastSeen = r.now()

			if !v.limiter.AllowN(r.now(), 1) {
				blockUntil := r.now().Add(r.blockDuration)
				r.blockedIPs[key] = blockUntil
				r.mu.Unlock()

				zap.L().Warn("rate limit exceeded", zap.String("ip", ip), zap.String("path", path))
				return c.JSON(http.StatusTooManyRequests, map[string]string{
					"message":    "Too many requests",
					"retryAfter": blockUntil.Format(time.RFC3339),
				})
			}
			r.mu.Unlock()

			return next(c)
		}
	}
}
