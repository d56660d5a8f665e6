package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ncobase/taskflow/pkg/jwt"
	"github.com/ncobase/taskflow/pkg/logger"
	"github.com/ncobase/taskflow/pkg/util"
	"github.com/ncobase/taskflow/structs"
)

func newTestAuthService(users *fakeUserRepo, sender *fakeSender) *AuthService {
	cfg := testConfig()
	return &AuthService{
		cfg:    cfg,
		users:  users,
		sender: sender,
		jtm:    jwt.NewTokenManager(cfg.Auth.JWT.Secret),
		logger: logger.StdLogger(),
	}
}

func TestRegisterAndVerifyEmail(t *testing.T) {
	ctx := context.Background()
	users := newFakeUserRepo()
	sender := &fakeSender{}
	svc := newTestAuthService(users, sender)

	resp, err := svc.Register(ctx, &structs.RegisterBody{
		Name:     "Ada",
		Email:    "ada@example.com",
		Password: "correct-horse",
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Token)

	raw := tokenFromURL(sender.lastURL())
	require.NotEmpty(t, raw)

	// only the digest is persisted
	stored := users.users[resp.User.ID]
	assert.Equal(t, util.HashToken(raw), stored.EmailVerificationToken)
	assert.NotEqual(t, raw, stored.EmailVerificationToken)

	verified, err := svc.VerifyEmail(ctx, raw)
	require.NoError(t, err)
	assert.True(t, verified.IsEmailVerified)
	assert.Empty(t, verified.EmailVerificationToken)

	_, err = svc.VerifyEmail(ctx, raw)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalid), "a consumed token cannot be replayed")

	_, err = svc.Register(ctx, &structs.RegisterBody{
		Name:     "Ada Again",
		Email:    "ada@example.com",
		Password: "correct-horse",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConflict))
}

func TestPasswordResetFlow(t *testing.T) {
	ctx := context.Background()
	users := newFakeUserRepo()
	sender := &fakeSender{}
	svc := newTestAuthService(users, sender)

	resp, err := svc.Register(ctx, &structs.RegisterBody{
		Name:     "Grace",
		Email:    "grace@example.com",
		Password: "old-password",
	})
	require.NoError(t, err)

	require.NoError(t, svc.ForgotPassword(ctx, "grace@example.com"))
	raw := tokenFromURL(sender.lastURL())
	require.NotEmpty(t, raw)

	stored := users.users[resp.User.ID]
	assert.Equal(t, util.HashToken(raw), stored.ResetPasswordToken)

	require.NoError(t, svc.ResetPassword(ctx, raw, "new-password-42"))
	assert.Empty(t, stored.ResetPasswordToken)

	_, err = svc.Login(ctx, &structs.LoginBody{Email: "grace@example.com", Password: "old-password"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnauthorized))

	logged, err := svc.Login(ctx, &structs.LoginBody{Email: "grace@example.com", Password: "new-password-42"})
	require.NoError(t, err)
	assert.NotEmpty(t, logged.Token)

	err = svc.ResetPassword(ctx, raw, "yet-another-pass")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalid), "a consumed token cannot be replayed")

	// unknown emails do not leak through the error or an outgoing email
	sent := len(sender.emails)
	require.NoError(t, svc.ForgotPassword(ctx, "ghost@example.com"))
	assert.Len(t, sender.emails, sent)
}

func TestResendVerification(t *testing.T) {
	ctx := context.Background()
	users := newFakeUserRepo()
	sender := &fakeSender{}
	svc := newTestAuthService(users, sender)

	resp, err := svc.Register(ctx, &structs.RegisterBody{
		Name:     "Linus",
		Email:    "linus@example.com",
		Password: "password123",
	})
	require.NoError(t, err)
	first := tokenFromURL(sender.lastURL())

	err = svc.ResendVerification(ctx, "nobody@example.com")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))

	require.NoError(t, svc.ResendVerification(ctx, "linus@example.com"))
	second := tokenFromURL(sender.lastURL())
	require.NotEmpty(t, second)
	assert.NotEqual(t, first, second, "resending rotates the token")

	stored := users.users[resp.User.ID]
	assert.Equal(t, util.HashToken(second), stored.EmailVerificationToken)

	_, err = svc.VerifyEmail(ctx, second)
	require.NoError(t, err)

	err = svc.ResendVerification(ctx, "linus@example.com")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConflict))
}
