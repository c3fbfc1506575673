package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"net/http"
	"regexp"
	"time"

	"metrocare-be/internal/config"
	"metrocare-be/internal/dto"
	"metrocare-be/internal/entity"
	"metrocare-be/internal/mapper"
	"metrocare-be/internal/pkg/apperror"
	"metrocare-be/internal/pkg/identity"
	"metrocare-be/internal/pkg/logger"
	"metrocare-be/internal/pkg/sms"
	"metrocare-be/internal/repository/contract"
	"metrocare-be/internal/repository/specification"
	"metrocare-be/internal/repository/unitofwork"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const authModule = "AuthService"

var phonePattern = regexp.MustCompile(`^\d{10,15}$`)

type IAuthService interface {
	SendOTP(ctx context.Context, req *dto.SendOtpRequest) (*dto.SendOtpResponse, error)
	VerifyOTP(ctx context.Context, req *dto.VerifyOtpRequest) (*dto.VerifyOtpResponse, error)
	Me(ctx context.Context) (*dto.UserResponse, error)
}

type authService struct {
	uowFactory unitofwork.RepositoryFactory
	otpStore   contract.OtpRepository
	smsSender  sms.Sender
	cfg        config.AuthConfig
	logger     logger.ILogger
}

func NewAuthService(
	uowFactory unitofwork.RepositoryFactory,
	otpStore contract.OtpRepository,
	smsSender sms.Sender,
	cfg config.AuthConfig,
	logger logger.ILogger,
) IAuthService {
	if cfg.OtpTTL <= 0 {
		cfg.OtpTTL = 10 * time.Minute
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 30 * 24 * time.Hour
	}
	return &authService{
		uowFactory: uowFactory,
		otpStore:   otpStore,
		smsSender:  smsSender,
		cfg:        cfg,
		logger:     logger,
	}
}

func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n), nil
}

func (s *authService) SendOTP(ctx context.Context, req *dto.SendOtpRequest) (*dto.SendOtpResponse, error) {
	if !phonePattern.MatchString(req.Phone) {
		return nil, apperror.BadRequest("invalid phone number format")
	}

	code, err := generateOTP()
	if err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	if err := s.otpStore.Save(ctx, req.Phone, string(hash), s.cfg.OtpTTL); err != nil {
		return nil, fmt.Errorf("store otp: %w", err)
	}

	if err := s.smsSender.SendOTP(ctx, req.Phone, code); err != nil {
		s.logger.Error(authModule, "Failed to send OTP", map[string]interface{}{
			"phone": sms.MaskPhone(req.Phone),
			"error": err.Error(),
		})
		return nil, apperror.Wrap(http.StatusBadGateway, "failed to send OTP", err)
	}

	return &dto.SendOtpResponse{ExpiresIn: int(s.cfg.OtpTTL.Seconds())}, nil
}

func (s *authService) VerifyOTP(ctx context.Context, req *dto.VerifyOtpRequest) (*dto.VerifyOtpResponse, error) {
	hash, err := s.otpStore.Get(ctx, req.Phone)
	if err != nil {
		return nil, err
	}
	if hash == "" {
		return nil, apperror.BadRequest("invalid or expired OTP")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Otp)); err != nil {
		return nil, apperror.BadRequest("invalid or expired OTP")
	}

	// Consumed on first successful use.
	if err := s.otpStore.Delete(ctx, req.Phone); err != nil {
		s.logger.Warn(authModule, "Failed to delete used OTP", map[string]interface{}{"error": err.Error()})
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	user, err := uow.UserRepository().FindOne(ctx, specification.ByPhone{Phone: req.Phone})
	if err != nil {
		return nil, err
	}

	if user == nil {
		user = &entity.User{
			Id:         uuid.New(),
			Phone:      req.Phone,
			Role:       entity.UserRoleCitizen,
			IsVerified: true,
			CreatedAt:  time.Now(),
			UpdatedAt:  time.Now(),
		}
		if err := uow.UserRepository().Create(ctx, user); err != nil {
			return nil, err
		}
		s.logger.Info(authModule, "User registered", map[string]interface{}{"user_id": user.Id.String()})
	} else if !user.IsVerified {
		user.IsVerified = true
		if err := uow.UserRepository().Update(ctx, user); err != nil {
			return nil, err
		}
	}

	expiresAt := time.Now().Add(s.cfg.TokenTTL)
	token, err := identity.IssueToken(s.cfg.JwtSecret, identity.Caller{
		UserId: user.Id,
		Phone:  user.Phone,
		Role:   identity.Role(user.Role),
	}, s.cfg.TokenTTL)
	if err != nil {
		return nil, err
	}

	return &dto.VerifyOtpResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      mapper.UserToResponse(user),
	}, nil
}

func (s *authService) Me(ctx context.Context) (*dto.UserResponse, error) {
	caller, err := identity.MustCaller(ctx)
	if err != nil {
		return nil, err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: caller.UserId})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperror.NotFound("user not found")
	}

	res := mapper.UserToResponse(user)
	return &res, nil
}
