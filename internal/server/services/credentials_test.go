package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophmarket/internal/common"
	"github.com/dmitrijs2005/gophmarket/internal/server/auth"
	"github.com/dmitrijs2005/gophmarket/internal/server/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingHasher struct{ plainHasher }

func (failingHasher) Hash(string) (string, error) { return "", errors.New("entropy exhausted") }

func newCredentials(t *testing.T) (*CredentialService, *fakeRepoManager, recLogger) {
	t.Helper()
	a, m, mock, log := newAdapter(t)
	mock.MatchExpectationsInOrder(false)
	cfg := &config.Config{SecretKey: "test-secret", AccessTokenValidityDuration: time.Hour}
	return NewCredentialService(a, plainHasher{}, cfg, log), m, log
}

func TestCredentialService_Login(t *testing.T) {
	s, m, _ := newCredentials(t)
	m.u.put(kim())
	m.u.hashes[uid1] = "h:secret"

	before := time.Now()
	res, err := s.Login(context.Background(), "kim@example.com", "secret")
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, uid1, res.User.ID)
	assert.WithinDuration(t, before.Add(time.Hour), res.ExpiresAt, 5*time.Second)

	claims, err := auth.ParseToken(res.AccessToken, []byte("test-secret"))
	require.NoError(t, err)
	assert.Equal(t, uid1, claims.UserID)
	assert.Equal(t, common.DefaultRole, claims.Role)
}

func TestCredentialService_Login_Rejected(t *testing.T) {
	s, m, log := newCredentials(t)
	m.u.put(kim())
	m.u.hashes[uid1] = "h:secret"

	res, err := s.Login(context.Background(), "kim@example.com", "wrong")
	assert.Nil(t, res)
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
	assert.True(t, log.has("info", "login rejected"))
}

func TestCredentialService_Register(t *testing.T) {
	db, mock := newSQLMockDB(t)
	m := newFakeRepoManager()
	m.u.createID = uid1
	log := newRecLogger()
	a := NewAuthAdapter(db, m, plainHasher{}, log)
	s := NewCredentialService(a, plainHasher{}, &config.Config{SecretKey: "k", AccessTokenValidityDuration: time.Hour}, log)

	mock.ExpectBegin()
	mock.ExpectCommit()

	u, err := s.Register(context.Background(), NewAccount{Name: "Kim", Email: "kim@example.com", Password: "secret"})
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "h:secret", m.u.hashes[uid1])
	assert.NoError(t, mock.ExpectationsWereMet())

	_, err = s.Register(context.Background(), NewAccount{Email: "kim@example.com"})
	assert.ErrorIs(t, err, common.ErrorValidation)
	_, err = s.Register(context.Background(), NewAccount{Password: "x"})
	assert.ErrorIs(t, err, common.ErrorValidation)
}

func TestCredentialService_Register_HashFailure(t *testing.T) {
	a, _, _, log := newAdapter(t)
	s := NewCredentialService(a, failingHasher{}, &config.Config{SecretKey: "k"}, log)

	_, err := s.Register(context.Background(), NewAccount{Email: "kim@example.com", Password: "secret"})
	assert.ErrorIs(t, err, common.ErrorInternal)
	assert.True(t, log.has("error", "password hashing failed"))
}

func TestCredentialService_CurrentUser(t *testing.T) {
	s, m, _ := newCredentials(t)
	m.u.put(kim())
	ctx := context.Background()

	good, err := auth.GenerateToken(uid1, "User", []byte("test-secret"), time.Hour)
	require.NoError(t, err)
	u, err := s.CurrentUser(ctx, good)
	require.NoError(t, err)
	assert.Equal(t, uid1, u.ID)

	expired, err := auth.GenerateToken(uid1, "User", []byte("test-secret"), -time.Minute)
	require.NoError(t, err)
	foreign, err := auth.GenerateToken(uid1, "User", []byte("other-secret"), time.Hour)
	require.NoError(t, err)
	deleted, err := auth.GenerateToken(uid2, "User", []byte("test-secret"), time.Hour)
	require.NoError(t, err)

	for name, tok := range map[string]string{
		"empty":        "",
		"garbage":      "not.a.jwt",
		"expired":      expired,
		"wrong secret": foreign,
		"deleted user": deleted,
	} {
		t.Run(name, func(t *testing.T) {
			u, err := s.CurrentUser(ctx, tok)
			assert.Nil(t, u)
			assert.ErrorIs(t, err, common.ErrorUnauthorized)
		})
	}
}
