package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	redisclient "github.com/joy095/spaces/config/redis"
	"github.com/joy095/spaces/logger"
	"github.com/ulule/limiter/v3"
	ginmiddleware "github.com/ulule/limiter/v3/drivers/middleware/gin"
	redisstore "github.com/ulule/limiter/v3/drivers/store/redis"
)

// Usage:
//
//	r.POST("/payments/verify", middleware.NewRateLimiter("10-1m", "verify_payment"), handler)
//	r.POST("/bookings/quote", middleware.CombinedRateLimiter("quote", "5-10s", "60-10m"), handler)

// rateKey identifies the caller: the authenticated user when the auth
// middleware ran first, otherwise the client IP.
func rateKey(c *gin.Context) string {
	if userID := c.GetString("user_id"); userID != "" {
		return "user:" + userID
	}
	return "ip:" + c.ClientIP()
}

// createRedisStore creates a Redis-backed limiter store with a route-specific
// prefix. Redis being unavailable is returned as an error.
func createRedisStore(routeID string, period time.Duration) (limiter.Store, error) {
	rdb, err := redisclient.GetRedisClient(context.Background())
	if err != nil {
		return nil, err
	}

	store, err := redisstore.NewStoreWithOptions(rdb, limiter.StoreOptions{
		Prefix:          fmt.Sprintf("rate_limiter:%s", routeID),
		MaxRetry:        3,
		CleanUpInterval: period,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create redis store for route %s: %w", routeID, err)
	}
	return store, nil
}

// ParseCustomRate allows formats like "10-2m", "30-20m", "5-1h", "20-10s", etc.
func ParseCustomRate(rateStr string) (limiter.Rate, error) {
	parts := strings.Split(rateStr, "-")
	if len(parts) != 2 {
		return limiter.Rate{}, fmt.Errorf("invalid rate format: %s", rateStr)
	}

	limit, err := strconv.Atoi(parts[0])
	if err != nil || limit <= 0 {
		return limiter.Rate{}, fmt.Errorf("invalid limit: %s", parts[0])
	}

	durationStr := parts[1]
	if len(durationStr) < 2 {
		return limiter.Rate{}, fmt.Errorf("unsupported period: %s", durationStr)
	}

	var unit time.Duration
	switch durationStr[len(durationStr)-1] {
	case 's':
		unit = time.Second
	case 'm':
		unit = time.Minute
	case 'h':
		unit = time.Hour
	default:
		return limiter.Rate{}, fmt.Errorf("unsupported period: %s", durationStr)
	}

	n, err := strconv.Atoi(durationStr[:len(durationStr)-1])
	if err != nil || n <= 0 {
		return limiter.Rate{}, fmt.Errorf("invalid duration: %s", durationStr)
	}

	return limiter.Rate{
		Period: time.Duration(n) * unit,
		Limit:  int64(limit),
	}, nil
}

func passThrough(c *gin.Context) {
	c.Next()
}

func newLimiter(rateStr, routeID string) (*limiter.Limiter, bool) {
	rate, err := ParseCustomRate(rateStr)
	if err != nil {
		logger.ErrorLogger.Errorf("Error parsing rate for route %s: %v", routeID, err)
		return nil, false
	}
	store, err := createRedisStore(routeID, rate.Period)
	if err != nil {
		logger.WarnLogger.Warnf("Rate limiting disabled for route %s: %v", routeID, err)
		return nil, false
	}
	return limiter.New(store, rate), true
}

// NewRateLimiter creates middleware with custom periods like "10-2m" for a
// specific route. Without Redis the middleware passes every request through.
func NewRateLimiter(rateStr, routeID string) gin.HandlerFunc {
	lim, ok := newLimiter(rateStr, routeID)
	if !ok {
		return passThrough
	}
	return ginmiddleware.NewMiddleware(lim, ginmiddleware.WithKeyGetter(rateKey))
}

// CombinedRateLimiter enforces several windows on one route; the request is
// rejected when any window is exhausted.
func CombinedRateLimiter(routeID string, rateStrings ...string) gin.HandlerFunc {
	var limiters []*limiter.Limiter
	for i, rateStr := range rateStrings {
		if lim, ok := newLimiter(rateStr, fmt.Sprintf("%s_%d", routeID, i)); ok {
			limiters = append(limiters, lim)
		}
	}
	if len(limiters) == 0 {
		return passThrough
	}

	return func(c *gin.Context) {
		key := rateKey(c)
		for _, lim := range limiters {
			res, err := lim.Get(c.Request.Context(), key)
			if err != nil {
				logger.WarnLogger.Warnf("Rate limiter lookup failed for %s: %v", routeID, err)
				continue
			}
			if res.Reached {
				c.Header("X-RateLimit-Limit", strconv.FormatInt(res.Limit, 10))
				c.Header("X-RateLimit-Remaining", "0")
				c.Header("X-RateLimit-Reset", strconv.FormatInt(res.Reset, 10))
				c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests, please try again later."})
				return
			}
		}
		c.Next()
	}
}
