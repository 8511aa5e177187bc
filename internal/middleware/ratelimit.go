package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// Limit is a fixed-window quota on one endpoint.
type Limit struct {
	Name   string
	Max    int
	Window time.Duration
	// ByIP keys the counter by client address even for signed-in users.
	ByIP bool
}

// Write endpoints with their own quotas.
var (
	LimitRegister   = Limit{Name: "register", Max: 3, Window: 10 * time.Minute, ByIP: true}
	LimitToken      = Limit{Name: "token", Max: 10, Window: 5 * time.Minute, ByIP: true}
	LimitFormImage  = Limit{Name: "form_image", Max: 20, Window: time.Minute}
	LimitSubscribe  = Limit{Name: "subscribe", Max: 30, Window: time.Minute}
	LimitCreatePost = Limit{Name: "create_post", Max: 5, Window: 5 * time.Minute}
)

func (l Limit) key(id string) string {
	return fmt.Sprintf("rl:%s:%s", l.Name, id)
}

// Limiter enforces Limits with counters in Redis. A disabled Limiter or
// one without Redis lets every request through.
type Limiter struct {
	rdb     *redis.Client
	enabled bool
}

// NewLimiter returns a Limiter. enabled is false outside deployed environments.
func NewLimiter(rdb *redis.Client, enabled bool) *Limiter {
	return &Limiter{rdb: rdb, enabled: enabled}
}

var errNoRedis = errors.New("redis client is nil")

// Allow counts one hit for id and reports whether it is within the quota,
// together with the hits left and the time until the window resets.
func (l *Limiter) Allow(ctx context.Context, limit Limit, id string) (bool, int, time.Duration, error) {
	if !l.enabled {
		return true, limit.Max, 0, nil
	}
	if l.rdb == nil {
		return true, limit.Max, 0, errNoRedis
	}

	key := limit.key(id)
	hits, err := l.rdb.Incr(ctx, key).Result()
	if err != nil {
		return true, limit.Max, 0, err
	}
	// the first hit opens the window
	if hits == 1 {
		l.rdb.Expire(ctx, key, limit.Window)
	}
	reset, err := l.rdb.TTL(ctx, key).Result()
	if err != nil || reset < 0 {
		reset = limit.Window
	}

	left := limit.Max - int(hits)
	if left < 0 {
		return false, 0, reset, nil
	}
	return true, left, reset, nil
}

// Handler returns middleware enforcing limit. Redis failures are logged
// and the request proceeds.
func (l *Limiter) Handler(limit Limit) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := "ip:" + c.IP()
		if uid, ok := c.Locals("userID").(uint); ok && !limit.ByIP {
			id = fmt.Sprintf("user:%d", uid)
		}

		allowed, left, reset, err := l.Allow(c.UserContext(), limit, id)
		if err != nil {
			Logger.WarnContext(c.UserContext(), "rate limit unavailable",
				slog.String("limit", limit.Name),
				slog.String("error", err.Error()),
			)
			return c.Next()
		}
		if !l.enabled {
			return c.Next()
		}

		c.Set("X-RateLimit-Limit", strconv.Itoa(limit.Max))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(left))
		if !allowed {
			RateLimitRejections.WithLabelValues(limit.Name).Inc()
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(reset.Round(time.Second)/time.Second)))
			return tooManyRequests(c)
		}
		return c.Next()
	}
}

func tooManyRequests(c *fiber.Ctx) error {
	return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
		"error": "rate limit exceeded",
	})
}
