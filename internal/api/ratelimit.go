package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/article-threads-api/internal/auth"
	"github.com/article-threads-api/internal/config"
	"github.com/article-threads-api/internal/metrics"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// checkRateLimit counts a hit in a fixed window and reports whether the
// caller is still under limit, along with the hits used so far. A counter
// left without a TTL (a failed EXPIRE on an earlier hit) gets one now.
func checkRateLimit(ctx context.Context, rdb *redis.Client, id string, limit int, window time.Duration) (bool, int64, error) {
	key := fmt.Sprintf("rl:global:%s", id)

	var incr *redis.IntCmd
	var ttl *redis.DurationCmd
	if _, err := rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		ttl = pipe.TTL(ctx, key)
		return nil
	}); err != nil {
		return true, 0, err
	}

	cnt := incr.Val()
	if ttl.Val() < 0 {
		if err := rdb.Expire(ctx, key, window).Err(); err != nil {
			return true, cnt, err
		}
	}
	return cnt <= int64(limit), cnt, nil
}

// rateLimitMiddleware limits every client (principal or IP) to cfg.Max
// requests per cfg.Window. It fails open when Redis is missing or erroring.
func rateLimitMiddleware(rdb *redis.Client, cfg config.RateLimitConfig, log zerolog.Logger) gin.HandlerFunc {
	log = log.With().Str("component", "ratelimit").Logger()

	return func(c *gin.Context) {
		if rdb == nil || cfg.Max <= 0 || cfg.Window <= 0 {
			c.Next()
			return
		}

		id := "ip:" + c.ClientIP()
		if p := auth.PrincipalFrom(c); p != nil {
			id = "user:" + p.ID
		}

		ok, used, err := checkRateLimit(c.Request.Context(), rdb, id, cfg.Max, cfg.Window)
		if err != nil {
			metrics.RedisErrors.WithLabelValues("ratelimit").Inc()
			log.Warn().Err(err).Msg("Rate limit check failed, allowing request")
			c.Next()
			return
		}

		remaining := int64(cfg.Max) - used
		if remaining < 0 {
			remaining = 0
		}
		c.Header("RateLimit-Limit", strconv.Itoa(cfg.Max))
		c.Header("RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if !ok {
			metrics.RateLimited.Inc()
			c.Header("Retry-After", strconv.Itoa(int(cfg.Window.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Too many requests, please try again later.",
			})
			return
		}

		c.Next()
	}
}
