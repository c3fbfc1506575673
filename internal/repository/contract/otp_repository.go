package contract

import (
	"context"
	"time"
)

// OtpRepository keeps one pending verification code hash per phone number.
type OtpRepository interface {
	Save(ctx context.Context, phone, codeHash string, ttl time.Duration) error
	// Get returns "" without error when no live code exists.
	Get(ctx context.Context, phone string) (string, error)
	Delete(ctx context.Context, phone string) error
}
