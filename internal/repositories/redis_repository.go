package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aaravmahajanofficial/ekommerce-marketplace/internal/api/middleware"
	"github.com/aaravmahajanofficial/ekommerce-marketplace/internal/config"
	"github.com/redis/go-redis/v9"
)

type RateLimitRepository interface {
	// CheckLoginRateLimit records one attempt for key and reports whether it
	// is allowed, the attempts left in the window and the seconds to wait.
	CheckLoginRateLimit(ctx context.Context, key string) (bool, int, int, error)
}

type redisRepository struct {
	client *redis.Client
	rate   config.RateConfig
}

func NewRedisClient(cfg *config.Config) (*redis.Client, error) {
	slog.Info("Connecting to Redis", slog.String("host", cfg.RedisConnect.Host), slog.String("port", cfg.RedisConnect.Port))

	opt, err := redis.ParseURL(cfg.RedisConnect.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	opt.DB = cfg.RedisConnect.DB

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	slog.Info("Successfully connected to Redis")

	return client, nil
}

func NewRateLimitRepo(client *redis.Client, cfg *config.Config) RateLimitRepository {
	return &redisRepository{client: client, rate: cfg.RateConfig}
}

// Attempts live in a sorted set scored by unix time; entries older than the
// window are trimmed before counting.
func (r *redisRepository) CheckLoginRateLimit(ctx context.Context, key string) (bool, int, int, error) {
	logger := middleware.LoggerFromContext(ctx)

	redisKey := "login_attempts:" + key
	window := int64(r.rate.WindowSize.Seconds())
	now := time.Now().Unix()

	pipe := r.client.Pipeline()
	pipe.ZRemRangeByScore(ctx, redisKey, "0", fmt.Sprintf("%d", now-window))
	pipe.ZAdd(ctx, redisKey, redis.Z{Score: float64(now), Member: now})
	count := pipe.ZCard(ctx, redisKey)
	pipe.Expire(ctx, redisKey, r.rate.WindowSize)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, 0, fmt.Errorf("redis pipeline error for rate limit check: %w", err)
	}

	attempts := count.Val()

	if attempts < r.rate.MaxAttempts {
		return true, int(r.rate.MaxAttempts - attempts), 0, nil
	}

	scores, err := r.client.ZRangeArgsWithScores(ctx, redis.ZRangeArgs{Key: redisKey, Start: 0, Stop: 0}).Result()
	if err != nil || len(scores) == 0 {
		return false, 0, int(window), fmt.Errorf("failed to get oldest attempt time: %w", err)
	}

	retryAfter := max(int64(scores[0].Score)+window-now, 0)

	logger.Warn("Login rate limit exceeded", slog.String("key", key), slog.Int64("attempts", attempts))

	return false, 0, int(retryAfter), nil
}
