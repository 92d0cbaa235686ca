package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/Codingpowerx/ShopIT-Ecommerce-website/internal/event"
	"github.com/Codingpowerx/ShopIT-Ecommerce-website/internal/mailer"
	"github.com/Codingpowerx/ShopIT-Ecommerce-website/internal/repository"
	apperrors "github.com/Codingpowerx/ShopIT-Ecommerce-website/pkg/errors"
)

// resetTokenBytes is the entropy of a reset token before hex encoding.
const resetTokenBytes = 20

// PasswordResetService issues and redeems single-use password reset tokens.
// Only the SHA-256 digest of a token is ever stored; the plaintext goes out
// once, in the reset email, and is never recoverable afterwards.
type PasswordResetService struct {
	users       repository.UserRepository
	mail        mailer.Mailer
	producer    *event.Producer
	logger      *slog.Logger
	ttl         time.Duration
	frontendURL string
	now         func() time.Time
}

// NewPasswordResetService creates a new password reset service. now is
// injectable for tests; pass nil for the wall clock.
func NewPasswordResetService(
	users repository.UserRepository,
	mail mailer.Mailer,
	producer *event.Producer,
	logger *slog.Logger,
	ttl time.Duration,
	frontendURL string,
	now func() time.Time,
) *PasswordResetService {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if now == nil {
		now = time.Now
	}
	return &PasswordResetService{
		users:       users,
		mail:        mail,
		producer:    producer,
		logger:      logger,
		ttl:         ttl,
		frontendURL: frontendURL,
		now:         now,
	}
}

// RequestReset generates a fresh token for the account behind the email,
// stores its digest with an expiry, and mails the plaintext link. A mailer
// failure clears the stored digest so no orphaned token can ever be redeemed.
func (s *PasswordResetService) RequestReset(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.NotFound("user with email", email)
		}
		return fmt.Errorf("get user for reset request: %w", err)
	}

	token, digest, err := generateResetToken()
	if err != nil {
		return fmt.Errorf("generate reset token: %w", err)
	}

	expiresAt := s.now().UTC().Add(s.ttl)
	if err := s.users.SetResetToken(ctx, user.ID, digest, expiresAt); err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}

	msg := &mailer.Message{
		To:      user.Email,
		Subject: "ShopIT password recovery",
		Body: fmt.Sprintf(
			"Your password reset link is:\n\n%s/password/reset/%s\n\nThe link expires in %s. If you did not request this, ignore this email.",
			s.frontendURL, token, s.ttl,
		),
	}

	if err := s.mail.Send(ctx, msg); err != nil {
		// The token must not stay redeemable if the user never received it.
		if clearErr := s.users.ClearResetToken(ctx, user.ID); clearErr != nil {
			s.logger.ErrorContext(ctx, "failed to clear reset token after mailer failure",
				slog.String("user_id", user.ID),
				slog.String("error", clearErr.Error()),
			)
		}
		return apperrors.ServiceUnavailable("could not send password reset email", err)
	}

	if err := s.producer.PublishPasswordResetRequested(ctx, user.ID, user.Email); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish password reset event",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "password reset requested",
		slog.String("user_id", user.ID),
	)

	return nil
}

// ResetPassword redeems a token. The token is matched by digest, must not be
// expired at redemption time, and both reset fields are cleared in the same
// write that stores the new password hash.
func (s *PasswordResetService) ResetPassword(ctx context.Context, token, password, confirmPassword string) error {
	if password != confirmPassword {
		return apperrors.InvalidInput("password and confirmation do not match")
	}
	if err := validatePassword(password); err != nil {
		return err
	}

	digest := hashResetToken(token)
	user, err := s.users.GetByResetTokenHash(ctx, digest)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.InvalidOrExpiredToken()
		}
		return fmt.Errorf("get user by reset token: %w", err)
	}

	if user.ResetPasswordExpiresAt == nil || !user.ResetPasswordExpiresAt.After(s.now().UTC()) {
		return apperrors.InvalidOrExpiredToken()
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.users.ResetPassword(ctx, user.ID, string(hash)); err != nil {
		return fmt.Errorf("reset password: %w", err)
	}

	s.logger.InfoContext(ctx, "password reset completed",
		slog.String("user_id", user.ID),
	)

	return nil
}

// generateResetToken returns a fresh token and its storable digest.
func generateResetToken() (token, digest string, err error) {
	buf := make([]byte, resetTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("read random bytes: %w", err)
	}
	token = hex.EncodeToString(buf)
	return token, hashResetToken(token), nil
}

// hashResetToken derives the stored digest from a plaintext token.
func hashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
