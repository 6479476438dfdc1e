package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Skotchmaster/contacts_api/internal/apperr"
	"github.com/Skotchmaster/contacts_api/internal/hash"
	"github.com/Skotchmaster/contacts_api/internal/mailer"
	"github.com/Skotchmaster/contacts_api/internal/models"
)

func TestRegister_CreatesUnconfirmedUserAndQueuesVerify(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	u, err := env.auth.Register(ctx, RegisterInput{Username: "alice", Email: "alice@example.com", Password: "Secret123"}, "http://test/")
	require.NoError(t, err)
	assert.False(t, u.Confirmed)
	assert.Equal(t, models.RoleUser, u.Role)
	require.NotNil(t, u.Avatar)
	assert.Equal(t, "https://www.gravatar.com/avatar/c160f8cc69a4f0bf2b0362752353d060", *u.Avatar)

	stored, err := env.store.FindByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, "Secret123", stored.PasswordHash)
	assert.True(t, hash.CheckPassword(stored.PasswordHash, "Secret123"))

	msg := env.mail.last(t)
	assert.Equal(t, mailer.FlavorVerify, msg.Flavor)
	assert.Equal(t, "alice@example.com", msg.ToEmail)
	assert.Equal(t, "alice", msg.ToUsername)
	assert.Equal(t, "http://test/", msg.BaseURL)

	email, err := env.tokens.DecodeEmailToken(msg.Token)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", email)
}

func TestRegister_Conflicts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.auth.Register(ctx, RegisterInput{Username: "alice", Email: "alice@example.com", Password: "pw123456"}, "http://test/")
	require.NoError(t, err)

	_, err = env.auth.Register(ctx, RegisterInput{Username: "someone", Email: "alice@example.com", Password: "pw123456"}, "http://test/")
	assert.ErrorIs(t, err, apperr.ErrEmailExists)

	// email is checked first even when both collide
	_, err = env.auth.Register(ctx, RegisterInput{Username: "alice", Email: "alice@example.com", Password: "pw123456"}, "http://test/")
	assert.ErrorIs(t, err, apperr.ErrEmailExists)

	_, err = env.auth.Register(ctx, RegisterInput{Username: "alice", Email: "other@example.com", Password: "pw123456"}, "http://test/")
	assert.ErrorIs(t, err, apperr.ErrUsernameExists)

	assert.Equal(t, 1, env.mail.count())
}

func TestRegister_AdminEmailGetsAdminRole(t *testing.T) {
	env := newTestEnv(t)

	u, err := env.auth.Register(context.Background(), RegisterInput{Username: "root", Email: "Root@Example.com", Password: "pw123456"}, "http://test/")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, u.Role)
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.registerConfirmed(t, "alice", "Secret123")

	res, err := env.auth.Login(ctx, "alice@example.com", "Secret123")
	require.NoError(t, err)
	assert.Equal(t, "bearer", res.TokenType)

	username, err := env.tokens.DecodeSessionToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "alice", username)
}

func TestLogin_UnconfirmedGateComesFirst(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.auth.Register(ctx, RegisterInput{Username: "bob", Email: "bob@example.com", Password: "Secret123"}, "http://test/")
	require.NoError(t, err)

	_, errRight := env.auth.Login(ctx, "bob@example.com", "Secret123")
	_, errWrong := env.auth.Login(ctx, "bob@example.com", "nope")
	assert.ErrorIs(t, errRight, apperr.ErrNotConfirmed)
	assert.ErrorIs(t, errWrong, apperr.ErrNotConfirmed)
}

func TestLogin_UnknownAndWrongPasswordAreIndistinguishable(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.registerConfirmed(t, "carol", "Secret123")

	_, errUnknown := env.auth.Login(ctx, "nobody@example.com", "Secret123")
	_, errWrong := env.auth.Login(ctx, "carol@example.com", "wrong")

	require.Error(t, errUnknown)
	assert.Equal(t, errUnknown, errWrong)
	assert.Equal(t, apperr.Message(errUnknown), apperr.Message(errWrong))
	assert.ErrorIs(t, errWrong, apperr.ErrLoginFailed)
}

func TestConfirmEmail_Idempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.auth.Register(ctx, RegisterInput{Username: "dave", Email: "dave@example.com", Password: "pw123456"}, "http://test/")
	require.NoError(t, err)
	token := env.mail.last(t).Token

	msg, err := env.auth.ConfirmEmail(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, MsgEmailConfirmed, msg)
	assert.Equal(t, int32(1), env.store.updates.Load())

	msg, err = env.auth.ConfirmEmail(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, MsgEmailAlreadyConfirmed, msg)
	assert.Equal(t, int32(1), env.store.updates.Load())
}

func TestConfirmEmail_Failures(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.auth.ConfirmEmail(ctx, "not-a-token")
	assert.ErrorIs(t, err, apperr.ErrInvalidEmailToken)

	orphan, err := env.tokens.IssueEmailToken("missing@example.com")
	require.NoError(t, err)
	_, err = env.auth.ConfirmEmail(ctx, orphan)
	assert.ErrorIs(t, err, apperr.ErrVerification)

	session, err := env.tokens.IssueSessionToken("someone", 0)
	require.NoError(t, err)
	_, err = env.auth.ConfirmEmail(ctx, session)
	assert.ErrorIs(t, err, apperr.ErrVerification)
}

func TestRequestEmail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.auth.Register(ctx, RegisterInput{Username: "erin", Email: "erin@example.com", Password: "pw123456"}, "http://test/")
	require.NoError(t, err)

	msg, err := env.auth.RequestEmail(ctx, "erin@example.com", "http://test/")
	require.NoError(t, err)
	assert.Equal(t, MsgCheckYourEmail, msg)
	assert.Equal(t, 2, env.mail.count())

	_, err = env.auth.ConfirmEmail(ctx, env.mail.last(t).Token)
	require.NoError(t, err)

	msg, err = env.auth.RequestEmail(ctx, "erin@example.com", "http://test/")
	require.NoError(t, err)
	assert.Equal(t, MsgEmailAlreadyConfirmed, msg)
	assert.Equal(t, 2, env.mail.count())

	_, err = env.auth.RequestEmail(ctx, "ghost@example.com", "http://test/")
	assert.ErrorIs(t, err, apperr.ErrUserNotFound)
}

func TestPasswordResetFlow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.registerConfirmed(t, "frank", "OldPass1")

	_, err := env.auth.RequestPasswordReset(ctx, "ghost@example.com", "http://test/")
	assert.ErrorIs(t, err, apperr.ErrUserNotFound)

	msg, err := env.auth.RequestPasswordReset(ctx, "frank@example.com", "http://test/")
	require.NoError(t, err)
	assert.Equal(t, MsgCheckYourEmail, msg)

	reset := env.mail.last(t)
	assert.Equal(t, mailer.FlavorReset, reset.Flavor)

	msg, err = env.auth.UpdatePassword(ctx, reset.Token, "NewPass2")
	require.NoError(t, err)
	assert.Equal(t, MsgPasswordUpdated, msg)

	stored, err := env.store.FindByEmail(ctx, "frank@example.com")
	require.NoError(t, err)
	assert.False(t, hash.CheckPassword(stored.PasswordHash, "OldPass1"))
	assert.True(t, hash.CheckPassword(stored.PasswordHash, "NewPass2"))

	_, err = env.auth.Login(ctx, "frank@example.com", "OldPass1")
	assert.ErrorIs(t, err, apperr.ErrLoginFailed)
	_, err = env.auth.Login(ctx, "frank@example.com", "NewPass2")
	assert.NoError(t, err)
}

func TestUpdatePassword_Failures(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.auth.UpdatePassword(ctx, "bad-token", "x")
	assert.ErrorIs(t, err, apperr.ErrInvalidEmailToken)

	orphan, err := env.tokens.IssueEmailToken("missing@example.com")
	require.NoError(t, err)
	_, err = env.auth.UpdatePassword(ctx, orphan, "NewPass2")
	assert.ErrorIs(t, err, apperr.ErrVerification)
	assert.Equal(t, int32(0), env.store.updates.Load())
}

func TestUpdatePassword_HashFailureWritesNothing(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.registerConfirmed(t, "gina", "OldPass1")
	before := env.store.updates.Load()

	token, err := env.tokens.IssueEmailToken("gina@example.com")
	require.NoError(t, err)

	tooLong := string(make([]byte, 100))
	_, err = env.auth.UpdatePassword(ctx, token, tooLong)
	assert.ErrorIs(t, err, apperr.ErrInternal)
	assert.Equal(t, before, env.store.updates.Load())

	stored, err := env.store.FindByEmail(ctx, "gina@example.com")
	require.NoError(t, err)
	assert.True(t, hash.CheckPassword(stored.PasswordHash, "OldPass1"))
}

func TestInvalidateOnWrite(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.registerConfirmed(t, "hank", "OldPass1")

	token, err := env.tokens.IssueSessionToken("hank", 0)
	require.NoError(t, err)
	_, err = env.resolver.ResolveCurrentUser(ctx, token)
	require.NoError(t, err)

	reset, err := env.tokens.IssueEmailToken("hank@example.com")
	require.NoError(t, err)

	_, err = env.auth.UpdatePassword(ctx, reset, "NewPass2")
	require.NoError(t, err)
	cached, _ := env.cache.Get(ctx, "hank")
	assert.NotNil(t, cached, "TTL-only policy keeps the entry")

	env.auth.InvalidateOnWrite = true
	_, err = env.auth.UpdatePassword(ctx, reset, "NewPass3")
	require.NoError(t, err)
	cached, _ = env.cache.Get(ctx, "hank")
	assert.Nil(t, cached)
}

func TestUpdatePassword_RejectsSessionToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.registerConfirmed(t, "victim", "VictimPw1")

	// the attacker's username is the victim's email address
	_, err := env.auth.Register(ctx, RegisterInput{Username: "victim@example.com", Email: "attacker@evil.test", Password: "Attack123"}, "http://test/")
	require.NoError(t, err)
	_, err = env.auth.ConfirmEmail(ctx, env.mail.last(t).Token)
	require.NoError(t, err)

	login, err := env.auth.Login(ctx, "attacker@evil.test", "Attack123")
	require.NoError(t, err)

	_, err = env.auth.UpdatePassword(ctx, login.AccessToken, "Owned12345")
	assert.ErrorIs(t, err, apperr.ErrInvalidEmailToken)

	_, err = env.auth.ConfirmEmail(ctx, login.AccessToken)
	assert.ErrorIs(t, err, apperr.ErrInvalidEmailToken)

	stored, err := env.store.FindByEmail(ctx, "victim@example.com")
	require.NoError(t, err)
	assert.True(t, hash.CheckPassword(stored.PasswordHash, "VictimPw1"))
	assert.False(t, hash.CheckPassword(stored.PasswordHash, "Owned12345"))
}

func TestLogin_UnknownEmailStillHashes(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.auth.Login(context.Background(), "nobody@example.com", "Secret123")
	assert.ErrorIs(t, err, apperr.ErrLoginFailed)

	h := dummyHash()
	require.NotEmpty(t, h)
	cost, err := bcrypt.Cost([]byte(h))
	require.NoError(t, err)
	assert.Equal(t, hash.Cost, cost)
}

// racingStore hides the first username lookup, as if another registration
// committed between the pre-check and the insert.
type racingStore struct {
	*countingStore
	hidden bool
}

func (r *racingStore) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	if !r.hidden {
		r.hidden = true
		return nil, nil
	}
	return r.countingStore.FindByUsername(ctx, username)
}

func TestRegister_DuplicateOnInsertReportsUsername(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.auth.Register(ctx, RegisterInput{Username: "alice", Email: "alice@example.com", Password: "pw123456"}, "http://test/")
	require.NoError(t, err)

	env.auth.Users = &racingStore{countingStore: env.store}
	_, err = env.auth.Register(ctx, RegisterInput{Username: "alice", Email: "fresh@example.com", Password: "pw123456"}, "http://test/")
	assert.ErrorIs(t, err, apperr.ErrUsernameExists)
}
