package middleware

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appLogger "github.com/BloodCharry/PolicyMesh/internal/infra/logger"
)

// LoginAttemptStore is the slice of port.LoginAttemptStore the throttle needs.
type LoginAttemptStore interface {
	RecordAttempt(ctx context.Context, clientKey string, at time.Time) error
	WindowState(ctx context.Context, clientKey string, window time.Duration, now time.Time) (count int, oldest time.Time, err error)
}

// LoginThrottle caps login attempts per client IP over a sliding window.
// Denied requests are not recorded, so a throttled client recovers as soon
// as its oldest attempt ages out. The throttle fails open when the store is
// unreachable: losing rate limiting is preferable to losing login.
type LoginThrottle struct {
	store  LoginAttemptStore
	limit  int
	window time.Duration
	logger *zap.Logger
	now    func() time.Time
}

// NewLoginThrottle builds a throttle allowing limit attempts per window.
func NewLoginThrottle(store LoginAttemptStore, limit int, window time.Duration, logger *zap.Logger) *LoginThrottle {
	if logger == nil {
		logger = zap.NewNop()
	}
	if window <= 0 {
		window = time.Minute
	}

	return &LoginThrottle{
		store:  store,
		limit:  limit,
		window: window,
		logger: logger,
		now:    time.Now,
	}
}

// WithClock injects a custom clock for tests.
func (t *LoginThrottle) WithClock(now func() time.Time) *LoginThrottle {
	if now != nil {
		t.now = now
	}
	return t
}

// Handler returns the gin middleware enforcing the throttle.
func (t *LoginThrottle) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if t.store == nil || t.limit <= 0 {
			c.Next()
			return
		}

		ip := c.ClientIP()
		if ip == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		now := t.now()

		count, oldest, err := t.store.WindowState(ctx, ip, t.window, now)
		if err != nil {
			t.logger.Warn("login throttle unavailable, letting request through",
				zap.String("ip", appLogger.MaskIP(ip)), zap.Error(err))
			c.Next()
			return
		}

		if count >= t.limit {
			retryAfter := ceilSeconds(oldest.Add(t.window).Sub(now))
			t.writeHeaders(c, 0, oldest.Add(t.window))
			c.Header("Retry-After", strconv.Itoa(retryAfter))

			resp := newErrorResponse(c, "too many login attempts, slow down")
			resp.Reason = "rate-limited"
			c.AbortWithStatusJSON(http.StatusTooManyRequests, resp)
			return
		}

		if err := t.store.RecordAttempt(ctx, ip, now); err != nil {
			t.logger.Warn("failed to record login attempt",
				zap.String("ip", appLogger.MaskIP(ip)), zap.Error(err))
		}

		reset := now.Add(t.window)
		if !oldest.IsZero() {
			reset = oldest.Add(t.window)
		}
		t.writeHeaders(c, t.limit-count-1, reset)

		c.Next()
	}
}

func (t *LoginThrottle) writeHeaders(c *gin.Context, remaining int, reset time.Time) {
	if remaining < 0 {
		remaining = 0
	}
	headers := c.Writer.Header()
	headers.Set("X-RateLimit-Limit", strconv.Itoa(t.limit))
	headers.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
	headers.Set("X-RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))
}

func ceilSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Seconds()))
}
