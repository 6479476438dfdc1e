package service

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"slices"
	"strings"
	"sync"

	"github.com/Skotchmaster/contacts_api/internal/apperr"
	"github.com/Skotchmaster/contacts_api/internal/cache"
	"github.com/Skotchmaster/contacts_api/internal/hash"
	"github.com/Skotchmaster/contacts_api/internal/logging"
	"github.com/Skotchmaster/contacts_api/internal/mailer"
	"github.com/Skotchmaster/contacts_api/internal/metrics"
	"github.com/Skotchmaster/contacts_api/internal/models"
	"github.com/Skotchmaster/contacts_api/internal/repo"
	"github.com/Skotchmaster/contacts_api/internal/tokens"
)

const (
	MsgEmailConfirmed        = "Email is confirmed"
	MsgEmailAlreadyConfirmed = "Email is already confirmed"
	MsgCheckYourEmail        = "Check your email"
	MsgPasswordUpdated       = "Password updated successfully"
)

type AuthService struct {
	Users   UserStore
	Tokens  *tokens.Service
	Mail    Dispatcher
	Metrics *metrics.Metrics

	// Cache is only touched when InvalidateOnWrite is set.
	Cache             cache.UserCache
	InvalidateOnWrite bool

	AdminEmails []string
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
}

type LoginResult struct {
	AccessToken string
	TokenType   string
}

var (
	dummyOnce sync.Once
	dummyPw   string
)

// dummyHash is compared against when the login email is unknown.
func dummyHash() string {
	dummyOnce.Do(func() {
		h, err := hash.HashPassword("no-such-user-placeholder")
		if err == nil {
			dummyPw = h
		}
	})
	return dummyPw
}

func gravatarURL(email string) string {
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(email))))
	return "https://www.gravatar.com/avatar/" + hex.EncodeToString(sum[:])
}

func (s *AuthService) roleFor(email string) models.Role {
	if slices.Contains(s.AdminEmails, strings.ToLower(email)) {
		return models.RoleAdmin
	}
	return models.RoleUser
}

func (s *AuthService) sendEmail(ctx context.Context, user *models.User, baseURL string, flavor mailer.Flavor) error {
	token, err := s.Tokens.IssueEmailToken(user.Email)
	if err != nil {
		return err
	}
	s.Mail.Dispatch(ctx, mailer.Message{
		ToEmail:    user.Email,
		ToUsername: user.Username,
		BaseURL:    baseURL,
		Flavor:     flavor,
		Token:      token,
	})
	return nil
}

func (s *AuthService) evict(ctx context.Context, username string) {
	if !s.InvalidateOnWrite || s.Cache == nil {
		return
	}
	if err := s.Cache.Delete(ctx, username); err != nil {
		logging.FromContext(ctx).Warn("cache_evict_failed", "username", username, "error", err)
	}
}

// duplicateCause tells which unique key a failed insert collided with.
// Email wins when both collide, matching the pre-insert checks.
func (s *AuthService) duplicateCause(ctx context.Context, in RegisterInput) *apperr.Error {
	if u, err := s.Users.FindByEmail(ctx, in.Email); err == nil && u != nil {
		return apperr.ErrEmailExists
	}
	if u, err := s.Users.FindByUsername(ctx, in.Username); err == nil && u != nil {
		return apperr.ErrUsernameExists
	}
	return apperr.ErrEmailExists
}

// Register creates an unconfirmed account and queues the verify email.
func (s *AuthService) Register(ctx context.Context, in RegisterInput, baseURL string) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register", "username", in.Username)

	existing, err := s.Users.FindByEmail(ctx, in.Email)
	if err != nil {
		l.Error("register_error", "status", 500, "error", err)
		return nil, apperr.ErrInternal
	}
	if existing != nil {
		l.Warn("register_error", "status", 409, "reason", "email exists")
		return nil, apperr.ErrEmailExists
	}

	existing, err = s.Users.FindByUsername(ctx, in.Username)
	if err != nil {
		l.Error("register_error", "status", 500, "error", err)
		return nil, apperr.ErrInternal
	}
	if existing != nil {
		l.Warn("register_error", "status", 409, "reason", "username exists")
		return nil, apperr.ErrUsernameExists
	}

	pwHash, err := hash.HashPassword(in.Password)
	if err != nil {
		l.Error("register_error", "status", 500, "reason", "cannot hash the password", "error", err)
		return nil, apperr.ErrInternal
	}

	avatar := gravatarURL(in.Email)
	user, err := s.Users.InsertUser(ctx, &models.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: pwHash,
		Role:         s.roleFor(in.Email),
		Confirmed:    false,
		Avatar:       &avatar,
	})
	if err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			// lost a race with a concurrent registration
			conflict := s.duplicateCause(ctx, in)
			l.Warn("register_error", "status", 409, "reason", "duplicate on insert", "conflict", conflict.Reason)
			return nil, conflict
		}
		l.Error("register_error", "status", 500, "error", err)
		return nil, apperr.ErrInternal
	}

	if err := s.sendEmail(ctx, user, baseURL, mailer.FlavorVerify); err != nil {
		l.Error("verify_email_not_queued", "error", err)
	}
	l.Info("user_registered", "user_id", user.ID, "role", string(user.Role))
	return user, nil
}

// Login checks confirmation before the password, then issues a session token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")

	user, err := s.Users.FindByEmail(ctx, email)
	if err != nil {
		l.Error("login_failed", "status", 500, "error", err)
		return nil, apperr.ErrInternal
	}
	if user != nil && !user.Confirmed {
		s.Metrics.AuthFailure(apperr.ErrNotConfirmed.Reason)
		l.Warn("login_failed", "status", 401, "reason", "email not confirmed", "user_id", user.ID)
		return nil, apperr.ErrNotConfirmed
	}
	if user == nil {
		// burn the same bcrypt time as a real check so misses are not faster
		hash.CheckPassword(dummyHash(), password)
	}
	if user == nil || !hash.CheckPassword(user.PasswordHash, password) {
		s.Metrics.AuthFailure(apperr.ErrLoginFailed.Reason)
		l.Warn("login_failed", "status", 401, "reason", "invalid email or password")
		return nil, apperr.ErrLoginFailed
	}

	token, err := s.Tokens.IssueSessionToken(user.Username, 0)
	if err != nil {
		l.Error("login_failed", "status", 500, "error", err)
		return nil, apperr.ErrInternal
	}
	l.Info("login_ok", "user_id", user.ID)
	return &LoginResult{AccessToken: token, TokenType: "bearer"}, nil
}

// RequestEmail re-sends the verify email unless the account is already confirmed.
func (s *AuthService) RequestEmail(ctx context.Context, email, baseURL string) (string, error) {
	l := logging.FromContext(ctx).With("svc", "auth.request_email")

	user, err := s.Users.FindByEmail(ctx, email)
	if err != nil {
		l.Error("request_email_failed", "status", 500, "error", err)
		return "", apperr.ErrInternal
	}
	if user == nil {
		l.Warn("request_email_failed", "status", 400, "reason", "user not found")
		return "", apperr.ErrUserNotFound
	}
	if user.Confirmed {
		return MsgEmailAlreadyConfirmed, nil
	}
	if err := s.sendEmail(ctx, user, baseURL, mailer.FlavorVerify); err != nil {
		l.Error("request_email_failed", "status", 500, "error", err)
		return "", apperr.ErrInternal
	}
	return MsgCheckYourEmail, nil
}

func (s *AuthService) emailFromToken(token string) (string, error) {
	email, err := s.Tokens.DecodeEmailToken(token)
	if err != nil {
		return "", apperr.ErrInvalidEmailToken
	}
	return email, nil
}

// ConfirmEmail redeems a verify token. Confirming twice is not an error.
func (s *AuthService) ConfirmEmail(ctx context.Context, token string) (string, error) {
	l := logging.FromContext(ctx).With("svc", "auth.confirm_email")

	email, err := s.emailFromToken(token)
	if err != nil {
		l.Warn("confirm_failed", "status", 422, "reason", "invalid email token")
		return "", err
	}

	user, err := s.Users.FindByEmail(ctx, email)
	if err != nil {
		l.Error("confirm_failed", "status", 500, "error", err)
		return "", apperr.ErrInternal
	}
	if user == nil {
		l.Warn("confirm_failed", "status", 400, "reason", "user not found")
		return "", apperr.ErrVerification
	}
	if user.Confirmed {
		return MsgEmailAlreadyConfirmed, nil
	}

	updated, err := s.Users.UpdateConfirmed(ctx, email)
	if err != nil {
		l.Error("confirm_failed", "status", 500, "error", err)
		return "", apperr.ErrInternal
	}
	if updated == nil {
		return "", apperr.ErrVerification
	}
	s.evict(ctx, updated.Username)
	l.Info("email_confirmed", "user_id", updated.ID)
	return MsgEmailConfirmed, nil
}

// RequestPasswordReset queues a reset email for a known address.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email, baseURL string) (string, error) {
	l := logging.FromContext(ctx).With("svc", "auth.reset_password")

	user, err := s.Users.FindByEmail(ctx, email)
	if err != nil {
		l.Error("reset_failed", "status", 500, "error", err)
		return "", apperr.ErrInternal
	}
	if user == nil {
		l.Warn("reset_failed", "status", 400, "reason", "user not found")
		return "", apperr.ErrUserNotFound
	}
	if err := s.sendEmail(ctx, user, baseURL, mailer.FlavorReset); err != nil {
		l.Error("reset_failed", "status", 500, "error", err)
		return "", apperr.ErrInternal
	}
	return MsgCheckYourEmail, nil
}

// UpdatePassword redeems a reset token. Nothing is written if hashing fails.
func (s *AuthService) UpdatePassword(ctx context.Context, token, newPassword string) (string, error) {
	l := logging.FromContext(ctx).With("svc", "auth.update_password")

	email, err := s.emailFromToken(token)
	if err != nil {
		l.Warn("update_password_failed", "status", 422, "reason", "invalid email token")
		return "", err
	}

	user, err := s.Users.FindByEmail(ctx, email)
	if err != nil {
		l.Error("update_password_failed", "status", 500, "error", err)
		return "", apperr.ErrInternal
	}
	if user == nil {
		l.Warn("update_password_failed", "status", 400, "reason", "user not found")
		return "", apperr.ErrVerification
	}

	pwHash, err := hash.HashPassword(newPassword)
	if err != nil {
		l.Error("update_password_failed", "status", 500, "reason", "cannot hash the password", "error", err)
		return "", apperr.ErrInternal
	}
	updated, err := s.Users.UpdatePasswordHash(ctx, email, pwHash)
	if err != nil {
		l.Error("update_password_failed", "status", 500, "error", err)
		return "", apperr.ErrInternal
	}
	if updated == nil {
		return "", apperr.ErrVerification
	}
	s.evict(ctx, updated.Username)
	l.Info("password_updated", "user_id", updated.ID)
	return MsgPasswordUpdated, nil
}
