package ratelimit

import (
	"net/http"
	"strconv"
	"sync"

	"github.com/expensetracker/expenses/internal/config"
	"github.com/expensetracker/expenses/internal/rest"
	"github.com/expensetracker/expenses/pkg/user"
	lru "github.com/hashicorp/golang-lru/v2"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// maxTrackedKeys bounds the number of limiters kept in memory. The least recently seen key is
// dropped first.
const maxTrackedKeys = 10000

// RateLimiter is a token bucket per user, or per remote address for anonymous requests.
type RateLimiter struct {
	mu       sync.Mutex
	limiters *lru.Cache[string, *rate.Limiter]
	rate     rate.Limit
	burst    int
}

func NewRateLimiter(cfg config.RateLimit) *RateLimiter {
	limiters, err := lru.New[string, *rate.Limiter](maxTrackedKeys)
	if err != nil {
		// only fails for a non-positive size
		panic(err)
	}
	return &RateLimiter{
		limiters: limiters,
		rate:     rate.Limit(cfg.RPS),
		burst:    cfg.Burst,
	}
}

func (rl *RateLimiter) getLimiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	limiter, ok := rl.limiters.Get(key)
	if !ok {
		limiter = rate.NewLimiter(rl.rate, rl.burst)
		rl.limiters.Add(key, limiter)
	}
	return limiter
}

// Handler rejects requests over the limit with 429 Too Many Requests.
func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.RemoteAddr
		if userId, err := user.CurrentId(r.Context()); err == nil {
			key = "user:" + strconv.Itoa(userId)
		}

		if !rl.getLimiter(key).Allow() {
			log.WithFields(log.Fields{
				"key":    key,
				"path":   r.URL.Path,
				"method": r.Method,
			}).Warn("rate limit exceeded")
			w.Header().Set("Retry-After", "1")
			rest.WriteError(w, http.StatusTooManyRequests, "Too many requests", "Please wait a moment before trying again")
			return
		}

		next.ServeHTTP(w, r)
	})
}
