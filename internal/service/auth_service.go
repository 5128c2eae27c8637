package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/noah-isme/campus-gate-api/internal/dto"
	"github.com/noah-isme/campus-gate-api/internal/models"
	"github.com/noah-isme/campus-gate-api/internal/observability"
	"github.com/noah-isme/campus-gate-api/internal/repository"
)

var (
	// ErrUnknownAccount indicates no active account uses the email.
	ErrUnknownAccount = errors.New("no active account found for this email")
	// ErrOTPCooldown indicates a code was requested too recently.
	ErrOTPCooldown = errors.New("a login code was sent recently, please wait before retrying")
	// ErrOTPInvalid indicates a missing, expired, exhausted or wrong code.
	ErrOTPInvalid = errors.New("invalid or expired login code")
	// ErrOTPDelivery indicates the code could not be mailed.
	ErrOTPDelivery = errors.New("failed to deliver login code")
)

// OTPMismatchError reports a wrong code together with the attempts left.
type OTPMismatchError struct {
	Remaining int
}

func (e *OTPMismatchError) Error() string {
	return fmt.Sprintf("invalid login code, %d attempts remaining", e.Remaining)
}

// Is lets callers match mismatches with ErrOTPInvalid.
func (e *OTPMismatchError) Is(target error) bool {
	return target == ErrOTPInvalid
}

// AuthOptions configures the authentication service.
type AuthOptions struct {
	SessionSecret  string
	SessionTTL     time.Duration
	OTPTTL         time.Duration
	OTPLength      int
	OTPMaxAttempts int
	OTPCooldown    time.Duration
	HashCost       int
	Now            func() time.Time
}

// AuthService implements passwordless email login.
type AuthService interface {
	SendOTP(ctx context.Context, req dto.OTPSendRequest) (dto.OTPSendResponse, error)
	VerifyOTP(ctx context.Context, req dto.OTPVerifyRequest) (dto.AuthResponse, error)
	Me(ctx context.Context, role models.Role, id uint) (dto.IdentityProfile, error)
	PurgeStaleCodes(ctx context.Context) (int64, error)
}

type authService struct {
	identities repository.IdentityRepository
	otps       repository.OTPRepository
	cache      *redis.Client
	mailer     OTPMailer
	validator  *validator.Validate
	logger     zerolog.Logger
	tracer     trace.Tracer
	opts       AuthOptions
}

// NewAuthService constructs the OTP authentication service. The Redis client is optional.
func NewAuthService(identities repository.IdentityRepository, otps repository.OTPRepository, cache *redis.Client, mailer OTPMailer, validate *validator.Validate, logger zerolog.Logger, opts AuthOptions) AuthService {
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 24 * time.Hour
	}
	if opts.OTPTTL <= 0 {
		opts.OTPTTL = 10 * time.Minute
	}
	if opts.OTPLength <= 0 {
		opts.OTPLength = 6
	}
	if opts.OTPMaxAttempts <= 0 {
		opts.OTPMaxAttempts = 3
	}
	if opts.HashCost == 0 {
		opts.HashCost = bcrypt.DefaultCost
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &authService{
		identities: identities,
		otps:       otps,
		cache:      cache,
		mailer:     mailer,
		validator:  validate,
		logger:     logger.With().Str("component", "auth_service").Logger(),
		tracer:     otel.Tracer("github.com/noah-isme/campus-gate-api/internal/service/auth"),
		opts:       opts,
	}
}

func (s *authService) SendOTP(ctx context.Context, req dto.OTPSendRequest) (dto.OTPSendResponse, error) {
	ctx, span := s.tracer.Start(ctx, "auth.send_otp")
	defer span.End()

	if err := s.validator.Struct(req); err != nil {
		return dto.OTPSendResponse{}, err
	}
	email := normalizeEmail(req.Email)

	identity, err := s.identities.FindActiveByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.OTPRequests().WithLabelValues("send", "unknown").Inc()
			return dto.OTPSendResponse{}, ErrUnknownAccount
		}
		span.RecordError(err)
		return dto.OTPSendResponse{}, err
	}
	span.SetAttributes(attribute.String("identity.role", string(identity.Role)))

	cooldownKey := otpCooldownKey(email)
	if s.cache != nil && s.opts.OTPCooldown > 0 {
		ok, err := s.cache.SetNX(ctx, cooldownKey, 1, s.opts.OTPCooldown).Result()
		if err != nil {
			span.RecordError(err)
			return dto.OTPSendResponse{}, err
		}
		if !ok {
			observability.OTPRequests().WithLabelValues("send", "cooldown").Inc()
			return dto.OTPSendResponse{}, ErrOTPCooldown
		}
	}

	code, err := generateNumericCode(s.opts.OTPLength)
	if err != nil {
		return dto.OTPSendResponse{}, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), s.opts.HashCost)
	if err != nil {
		return dto.OTPSendResponse{}, fmt.Errorf("hash login code: %w", err)
	}

	record := models.OTPCode{
		Email:     email,
		CodeHash:  string(hash),
		ExpiresAt: s.opts.Now().UTC().Add(s.opts.OTPTTL),
	}
	if err := s.otps.Replace(ctx, &record); err != nil {
		span.RecordError(err)
		return dto.OTPSendResponse{}, err
	}

	if err := s.mailer.SendOTP(ctx, email, identity.Name(), code, s.opts.OTPTTL); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "delivery failed")
		observability.OTPRequests().WithLabelValues("send", "delivery_failed").Inc()
		s.logger.Error().Err(err).Str("role", string(identity.Role)).Msg("failed to deliver login code")
		if delErr := s.otps.Delete(ctx, record.ID); delErr != nil {
			s.logger.Warn().Err(delErr).Msg("failed to discard undelivered login code")
		}
		if s.cache != nil {
			s.cache.Del(ctx, cooldownKey)
		}
		return dto.OTPSendResponse{}, fmt.Errorf("%w: %v", ErrOTPDelivery, err)
	}

	observability.OTPRequests().WithLabelValues("send", "sent").Inc()
	s.logger.Info().
		Str("role", string(identity.Role)).
		Uint("account_id", identity.ID()).
		Str("email", maskEmailAddress(email)).
		Msg("login code sent")

	return dto.OTPSendResponse{
		Email:     email,
		Role:      string(identity.Role),
		ExpiresAt: record.ExpiresAt,
	}, nil
}

func (s *authService) VerifyOTP(ctx context.Context, req dto.OTPVerifyRequest) (dto.AuthResponse, error) {
	ctx, span := s.tracer.Start(ctx, "auth.verify_otp")
	defer span.End()

	if err := s.validator.Struct(req); err != nil {
		return dto.AuthResponse{}, err
	}
	email := normalizeEmail(req.Email)

	record, err := s.otps.FindActive(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.OTPRequests().WithLabelValues("verify", "missing").Inc()
			return dto.AuthResponse{}, ErrOTPInvalid
		}
		return dto.AuthResponse{}, err
	}

	now := s.opts.Now().UTC()
	if record.IsExpiredAt(now) {
		observability.OTPRequests().WithLabelValues("verify", "expired").Inc()
		if err := s.otps.Delete(ctx, record.ID); err != nil {
			return dto.AuthResponse{}, err
		}
		return dto.AuthResponse{}, ErrOTPInvalid
	}

	// The attempt is counted before comparing so concurrent guesses cannot exceed the budget.
	attempts, reserved, err := s.otps.ReserveAttempt(ctx, record.ID, s.opts.OTPMaxAttempts)
	if err != nil {
		return dto.AuthResponse{}, err
	}
	if !reserved {
		observability.OTPRequests().WithLabelValues("verify", "exhausted").Inc()
		if err := s.otps.Delete(ctx, record.ID); err != nil {
			return dto.AuthResponse{}, err
		}
		return dto.AuthResponse{}, ErrOTPInvalid
	}

	if err := bcrypt.CompareHashAndPassword([]byte(record.CodeHash), []byte(strings.TrimSpace(req.OTP))); err != nil {
		observability.OTPRequests().WithLabelValues("verify", "mismatch").Inc()
		remaining := s.opts.OTPMaxAttempts - attempts
		if remaining <= 0 {
			if err := s.otps.Delete(ctx, record.ID); err != nil {
				return dto.AuthResponse{}, err
			}
			remaining = 0
		}
		return dto.AuthResponse{}, &OTPMismatchError{Remaining: remaining}
	}

	used, err := s.otps.MarkUsed(ctx, record.ID, s.opts.OTPMaxAttempts)
	if err != nil {
		return dto.AuthResponse{}, err
	}
	if !used {
		return dto.AuthResponse{}, ErrOTPInvalid
	}

	identity, err := s.identities.FindActiveByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AuthResponse{}, ErrUnknownAccount
		}
		return dto.AuthResponse{}, err
	}

	expiresAt := now.Add(s.opts.SessionTTL)
	token, err := s.signSession(identity, now, expiresAt)
	if err != nil {
		span.RecordError(err)
		return dto.AuthResponse{}, fmt.Errorf("sign session: %w", err)
	}

	observability.OTPRequests().WithLabelValues("verify", "success").Inc()
	s.logger.Info().Str("role", string(identity.Role)).Uint("account_id", identity.ID()).Msg("login succeeded")

	return dto.AuthResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		Role:      string(identity.Role),
		User:      dto.NewIdentityProfile(identity),
	}, nil
}

func (s *authService) Me(ctx context.Context, role models.Role, id uint) (dto.IdentityProfile, error) {
	identity, err := s.identities.FindActiveByID(ctx, role, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.IdentityProfile{}, ErrUnknownAccount
		}
		return dto.IdentityProfile{}, err
	}
	return dto.NewIdentityProfile(identity), nil
}

// PurgeStaleCodes deletes used and expired login codes.
func (s *authService) PurgeStaleCodes(ctx context.Context) (int64, error) {
	return s.otps.DeleteStale(ctx, s.opts.Now().UTC())
}

func (s *authService) signSession(identity models.Identity, issuedAt, expiresAt time.Time) (string, error) {
	claims := jwt.MapClaims{
		"sub":   strconv.FormatUint(uint64(identity.ID()), 10),
		"role":  string(identity.Role),
		"email": identity.Email(),
		"name":  identity.Name(),
		"iat":   issuedAt.Unix(),
		"exp":   expiresAt.Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.opts.SessionSecret))
}

func otpCooldownKey(email string) string {
	return "otp:cooldown:" + email
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// generateNumericCode draws each digit from crypto/rand so codes are uniform.
func generateNumericCode(length int) (string, error) {
	var b strings.Builder
	b.Grow(length)
	ten := big.NewInt(10)
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", fmt.Errorf("generate login code: %w", err)
		}
		b.WriteByte(byte('0' + n.Int64()))
	}
	return b.String(), nil
}
