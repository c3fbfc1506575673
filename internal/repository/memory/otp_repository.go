package memory

import (
	"context"
	"time"

	"metrocare-be/internal/repository/contract"

	"github.com/patrickmn/go-cache"
)

// OtpRepository is the in-process fallback used when redis is unavailable.
type OtpRepository struct {
	cache *cache.Cache
}

func NewOtpRepository(ttl time.Duration) contract.OtpRepository {
	// purge expired codes every minute
	c := cache.New(ttl, time.Minute)
	return &OtpRepository{
		cache: c,
	}
}

func (r *OtpRepository) Save(_ context.Context, phone, codeHash string, ttl time.Duration) error {
	r.cache.Set(phone, codeHash, ttl)
	return nil
}

func (r *OtpRepository) Get(_ context.Context, phone string) (string, error) {
	if x, found := r.cache.Get(phone); found {
		return x.(string), nil
	}
	return "", nil
}

func (r *OtpRepository) Delete(_ context.Context, phone string) error {
	r.cache.Delete(phone)
	return nil
}
