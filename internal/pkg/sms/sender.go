package sms

import (
	"context"
	"fmt"

	"metrocare-be/internal/pkg/logger"
)

// Sender delivers one-time codes to a phone number.
type Sender interface {
	SendOTP(ctx context.Context, phone, code string) error
}

// LogSender writes the message to the system log instead of an SMS gateway.
// The code itself is only logged when exposeCode is set (development).
type LogSender struct {
	logger     logger.ILogger
	exposeCode bool
}

func NewLogSender(log logger.ILogger, exposeCode bool) *LogSender {
	return &LogSender{logger: log, exposeCode: exposeCode}
}

func (s *LogSender) SendOTP(ctx context.Context, phone, code string) error {
	details := map[string]interface{}{"phone": MaskPhone(phone)}
	if s.exposeCode {
		details["otp"] = code
		details["message"] = fmt.Sprintf("Your MetroCare verification code is %s. Valid for 10 minutes.", code)
	}
	s.logger.Info("SMS", "Verification code dispatched", details)
	return nil
}

// MaskPhone keeps the last four digits.
func MaskPhone(phone string) string {
	if len(phone) <= 4 {
		return phone
	}
	masked := make([]byte, len(phone))
	for i := range phone {
		if i < len(phone)-4 {
			masked[i] = '*'
		} else {
			masked[i] = phone[i]
		}
	}
	return string(masked)
}
