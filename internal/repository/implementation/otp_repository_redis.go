package implementation

import (
	"context"
	"errors"
	"time"

	"metrocare-be/internal/repository/contract"

	"github.com/redis/go-redis/v9"
)

const otpKeyPrefix = "otp:"

type RedisOtpRepository struct {
	rdb *redis.Client
}

func NewRedisOtpRepository(rdb *redis.Client) contract.OtpRepository {
	return &RedisOtpRepository{rdb: rdb}
}

func (r *RedisOtpRepository) Save(ctx context.Context, phone, codeHash string, ttl time.Duration) error {
	return r.rdb.Set(ctx, otpKeyPrefix+phone, codeHash, ttl).Err()
}

func (r *RedisOtpRepository) Get(ctx context.Context, phone string) (string, error) {
	val, err := r.rdb.Get(ctx, otpKeyPrefix+phone).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return val, err
}

func (r *RedisOtpRepository) Delete(ctx context.Context, phone string) error {
	return r.rdb.Del(ctx, otpKeyPrefix+phone).Err()
}
