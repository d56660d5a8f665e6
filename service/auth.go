package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/ncobase/taskflow/config"
	"github.com/ncobase/taskflow/data"
	"github.com/ncobase/taskflow/data/repository"
	"github.com/ncobase/taskflow/pkg/email"
	"github.com/ncobase/taskflow/pkg/jwt"
	"github.com/ncobase/taskflow/pkg/logger"
	"github.com/ncobase/taskflow/pkg/nanoid"
	"github.com/ncobase/taskflow/pkg/util"
	"github.com/ncobase/taskflow/storage"
	"github.com/ncobase/taskflow/structs"
)

const (
	verificationTokenTTL = 24 * time.Hour
	resetTokenTTL        = 10 * time.Minute
)

// AuthService handles accounts, sessions and profiles.
type AuthService struct {
	cfg    *config.Config
	users  repository.UserRepository
	store  *storage.Store
	sender email.Sender
	jtm    *jwt.TokenManager
	logger *logger.Logger
}

// NewAuthService creates a new auth service instance.
func NewAuthService(cfg *config.Config, d *data.Data, store *storage.Store, sender email.Sender, log *logger.Logger) *AuthService {
	return &AuthService{
		cfg:    cfg,
		users:  d.UserRepo,
		store:  store,
		sender: sender,
		jtm:    jwt.NewTokenManager(cfg.Auth.JWT.Secret),
		logger: log,
	}
}

// TokenManager exposes the token manager for middleware.
func (s *AuthService) TokenManager() *jwt.TokenManager {
	return s.jtm
}

func (s *AuthService) issueToken(user *structs.User) (string, error) {
	payload := map[string]any{
		"user_id": user.ID.Hex(),
		"email":   user.Email,
	}
	expire := jwt.DefaultAccessTokenExpire
	if s.cfg.Auth.JWT.Expire > 0 {
		expire = time.Duration(s.cfg.Auth.JWT.Expire) * time.Hour
	}
	return s.jtm.GenerateAccessTokenWithExpiry(nanoid.String(), payload, expire)
}

func (s *AuthService) frontendURL(path, token string) string {
	return fmt.Sprintf("%s://%s/%s?token=%s", s.cfg.Protocol, s.cfg.Domain, path, token)
}

func (s *AuthService) sendVerificationEmail(ctx context.Context, user *structs.User, token string) {
	if s.sender == nil {
		return
	}
	_, err := s.sender.SendTemplateEmail(user.Email, email.Template{
		Subject:  "Verify your email address",
		Template: "email-verification",
		Keyword:  "Verify Email",
		URL:      s.frontendURL("verify-email", token),
		Data:     map[string]any{"name": user.Name},
	})
	if err != nil {
		s.logger.Warn(ctx, "failed to send verification email", "email", user.Email, "error", err)
	}
}

// Register creates a new account and sends the verification email.
func (s *AuthService) Register(ctx context.Context, body *structs.RegisterBody) (*structs.AuthResponse, error) {
	now := time.Now()
	exp := now.Add(verificationTokenTTL)
	verification := nanoid.Token()
	user := &structs.User{
		Name:                   body.Name,
		Email:                  body.Email,
		Password:               util.EncryptPassword(body.Password),
		IsActive:               true,
		EmailVerificationToken: util.HashToken(verification),
		EmailVerificationExp:   &exp,
	}

	created, err := s.users.Create(ctx, user)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, conflictf("email %s is already registered", body.Email)
		}
		return nil, err
	}

	s.sendVerificationEmail(ctx, created, verification)

	token, err := s.issueToken(created)
	if err != nil {
		return nil, err
	}
	return &structs.AuthResponse{User: created, Token: token}, nil
}

// Login verifies credentials and returns a fresh token.
func (s *AuthService) Login(ctx context.Context, body *structs.LoginBody) (*structs.AuthResponse, error) {
	user, err := s.users.FindByEmail(ctx, body.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, unauthorizedf("invalid email or password")
		}
		return nil, err
	}
	if !util.ComparePassword(user.Password, body.Password) {
		return nil, unauthorizedf("invalid email or password")
	}
	if !user.IsActive {
		return nil, forbiddenf("account is deactivated")
	}

	user, err = s.users.Update(ctx, user.ID, bson.M{"last_login": time.Now()})
	if err != nil {
		return nil, err
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, err
	}
	return &structs.AuthResponse{User: user, Token: token}, nil
}

// VerifyEmail consumes a verification token. Tokens are stored hashed, so
// the lookup digests the presented value first.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) (*structs.User, error) {
	user, err := s.users.FindByVerificationToken(ctx, util.HashToken(token))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, invalidf("verification token is invalid or expired")
		}
		return nil, err
	}

	return s.users.Update(ctx, user.ID,
		bson.M{"is_email_verified": true},
		bson.M{"email_verification_token": "", "email_verification_exp": ""},
	)
}

// ResendVerification issues a new verification token for an unverified
// account looked up by email.
func (s *AuthService) ResendVerification(ctx context.Context, emailAddr string) error {
	user, err := s.users.FindByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFoundf("no account with email %s", emailAddr)
		}
		return err
	}
	if user.IsEmailVerified {
		return conflictf("email is already verified")
	}

	exp := time.Now().Add(verificationTokenTTL)
	token := nanoid.Token()
	if _, err := s.users.Update(ctx, user.ID, bson.M{
		"email_verification_token": util.HashToken(token),
		"email_verification_exp":   exp,
	}); err != nil {
		return err
	}

	s.sendVerificationEmail(ctx, user, token)
	return nil
}

// ForgotPassword issues a short-lived reset token. It does not reveal
// whether the email exists.
func (s *AuthService) ForgotPassword(ctx context.Context, emailAddr string) error {
	user, err := s.users.FindByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return err
	}

	exp := time.Now().Add(resetTokenTTL)
	token := nanoid.Token()
	if _, err := s.users.Update(ctx, user.ID, bson.M{
		"reset_password_token": util.HashToken(token),
		"reset_password_exp":   exp,
	}); err != nil {
		return err
	}

	if s.sender != nil {
		_, err := s.sender.SendTemplateEmail(user.Email, email.Template{
			Subject:  "Reset your password",
			Template: "password-reset",
			Keyword:  "Reset Password",
			URL:      s.frontendURL("reset-password", token),
			Data:     map[string]any{"name": user.Name},
		})
		if err != nil {
			s.logger.Warn(ctx, "failed to send password reset email", "email", user.Email, "error", err)
		}
	}
	return nil
}

// ResetPassword consumes a reset token and sets the new password.
func (s *AuthService) ResetPassword(ctx context.Context, token, password string) error {
	user, err := s.users.FindByResetToken(ctx, util.HashToken(token))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return invalidf("reset token is invalid or expired")
		}
		return err
	}

	_, err = s.users.Update(ctx, user.ID,
		bson.M{"password": util.EncryptPassword(password)},
		bson.M{"reset_password_token": "", "reset_password_exp": ""},
	)
	return err
}

// Me returns the authenticated user's account.
func (s *AuthService) Me(ctx context.Context, userID string) (*structs.User, error) {
	return s.currentUser(ctx, userID)
}

// UpdateProfile updates the authenticated user's profile fields.
func (s *AuthService) UpdateProfile(ctx context.Context, userID string, body *structs.UpdateProfileBody) (*structs.User, error) {
	user, err := s.currentUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	set := bson.M{}
	if body.Name != "" {
		set["name"] = body.Name
	}
	if body.Avatar != nil {
		set["avatar"] = *body.Avatar
	}
	if body.Profile != nil {
		set["profile"] = *body.Profile
	}
	if len(set) == 0 {
		return user, nil
	}
	return s.users.Update(ctx, user.ID, set)
}

// ChangePassword changes the password after checking the current one.
func (s *AuthService) ChangePassword(ctx context.Context, userID string, body *structs.ChangePasswordBody) error {
	user, err := s.currentUser(ctx, userID)
	if err != nil {
		return err
	}
	if !util.ComparePassword(user.Password, body.CurrentPassword) {
		return unauthorizedf("current password is incorrect")
	}
	_, err = s.users.Update(ctx, user.ID, bson.M{"password": util.EncryptPassword(body.NewPassword)})
	return err
}

// Deactivate marks the account inactive. The user can no longer log in
// until reactivated.
func (s *AuthService) Deactivate(ctx context.Context, userID string) error {
	user, err := s.currentUser(ctx, userID)
	if err != nil {
		return err
	}
	_, err = s.users.Update(ctx, user.ID, bson.M{"is_active": false})
	return err
}

// Reactivate marks an account active again after a credential check.
func (s *AuthService) Reactivate(ctx context.Context, body *structs.LoginBody) (*structs.AuthResponse, error) {
	user, err := s.users.FindByEmail(ctx, body.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, unauthorizedf("invalid email or password")
		}
		return nil, err
	}
	if !util.ComparePassword(user.Password, body.Password) {
		return nil, unauthorizedf("invalid email or password")
	}

	user, err = s.users.Update(ctx, user.ID, bson.M{"is_active": true, "last_login": time.Now()})
	if err != nil {
		return nil, err
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, err
	}
	return &structs.AuthResponse{User: user, Token: token}, nil
}

// UploadAvatar stores an avatar image and records its URL on the profile.
func (s *AuthService) UploadAvatar(ctx context.Context, userID, originalName string, size int64, r io.Reader) (*structs.User, error) {
	user, err := s.currentUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	_, url, err := s.store.SaveUpload(originalName, size, r)
	if err != nil {
		return nil, invalidf("failed to store avatar: %s", err)
	}
	return s.users.Update(ctx, user.ID, bson.M{"avatar": url})
}

func (s *AuthService) currentUser(ctx context.Context, userID string) (*structs.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) || errors.Is(err, repository.ErrInvalidID) {
			return nil, unauthorizedf("account no longer exists")
		}
		return nil, err
	}
	return user, nil
}
