package usecase

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"clinic-management-api/config"
	"clinic-management-api/internal/delivery/dto"
	"clinic-management-api/internal/domain/entity"
	"clinic-management-api/internal/service"
	"clinic-management-api/pkg/jwt"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memTokenStore struct {
	mu   sync.Mutex
	keys map[string]time.Duration
}

func newMemTokenStore() *memTokenStore {
	return &memTokenStore{keys: map[string]time.Duration{}}
}

func (s *memTokenStore) Save(ctx context.Context, tokenType jwt.TokenType, userID uuid.UUID, tokenID string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[service.TokenKey(tokenType, userID, tokenID)] = ttl
	return nil
}

func (s *memTokenStore) Exists(ctx context.Context, tokenType jwt.TokenType, userID uuid.UUID, tokenID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.keys[service.TokenKey(tokenType, userID, tokenID)]
	return ok, nil
}

func (s *memTokenStore) Delete(ctx context.Context, tokenType jwt.TokenType, userID uuid.UUID, tokenID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.keys, service.TokenKey(tokenType, userID, tokenID))
	return nil
}

func (s *memTokenStore) RevokeAll(ctx context.Context, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.keys {
		for _, tokenType := range []jwt.TokenType{jwt.AccessToken, jwt.RefreshToken} {
			if strings.HasPrefix(key, service.TokenKey(tokenType, userID, "")) {
				delete(s.keys, key)
			}
		}
	}
	return nil
}

type authFixture struct {
	*fixture
	tokens *memTokenStore
	jwt    *jwt.JWTService
	uc     AuthUsecase
}

func newAuthFixture(t *testing.T) *authFixture {
	f := newFixture(t)
	tokens := newMemTokenStore()
	jwtService := jwt.NewJWTService(config.JWTConfig{
		Secret:        "test-secret",
		AccessExpiry:  15 * time.Minute,
		RefreshExpiry: 24 * time.Hour,
	})
	uc := NewAuthUsecase(f.log, f.transactor, f.users, f.doctors, f.patients, f.patientUsecase(), f.audit, jwtService, tokens)
	return &authFixture{fixture: f, tokens: tokens, jwt: jwtService, uc: uc}
}

func (f *authFixture) register(email string) *dto.PatientResponse {
	res, err := f.uc.RegisterPatient(context.Background(), &dto.RegisterPatientRequest{
		Email:    email,
		Password: "secret123",
		FullName: "Patient " + email,
	})
	require.NoError(f.t, err)
	return res
}

func TestLoginAndAuthenticate(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	patient := f.register("login@example.com")

	_, err := f.uc.Login(ctx, &dto.LoginRequest{Email: "login@example.com", Password: "wrong-password"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = f.uc.Login(ctx, &dto.LoginRequest{Email: "nobody@example.com", Password: "secret123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	tokens, err := f.uc.Login(ctx, &dto.LoginRequest{Email: "login@example.com", Password: "secret123"})
	require.NoError(t, err)
	assert.EqualValues(t, 900, tokens.ExpiresIn)
	assert.Len(t, f.tokens.keys, 2)

	principal, err := f.uc.Authenticate(ctx, tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, entity.PatientActor(patient.ID), principal.Actor)
	assert.Equal(t, "login@example.com", principal.Email)

	// A refresh token is not an access token.
	_, err = f.uc.Authenticate(ctx, tokens.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = f.uc.Authenticate(ctx, "not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)

	assert.Contains(t, f.store.actions(), entity.AuditActionUserLogin)
}

func TestLoginRejectsInactiveAccount(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	patient := f.register("inactive@example.com")

	user, err := f.users.FindByID(ctx, nil, patient.ID)
	require.NoError(t, err)
	inactive := false
	user.IsActive = &inactive
	require.NoError(t, f.users.Update(ctx, nil, user))

	_, err = f.uc.Login(ctx, &dto.LoginRequest{Email: "inactive@example.com", Password: "secret123"})
	assert.ErrorIs(t, err, ErrAccountInactive)
	assert.Empty(t, f.tokens.keys)
}

func TestLogoutRevokesTokens(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	f.register("logout@example.com")

	tokens, err := f.uc.Login(ctx, &dto.LoginRequest{Email: "logout@example.com", Password: "secret123"})
	require.NoError(t, err)
	principal, err := f.uc.Authenticate(ctx, tokens.AccessToken)
	require.NoError(t, err)

	require.NoError(t, f.uc.Logout(ctx, *principal, &dto.LogoutRequest{RefreshToken: tokens.RefreshToken}))
	assert.Empty(t, f.tokens.keys)

	_, err = f.uc.Authenticate(ctx, tokens.AccessToken)
	assert.ErrorIs(t, err, ErrTokenRevoked)
	_, err = f.uc.RefreshToken(ctx, &dto.RefreshTokenRequest{RefreshToken: tokens.RefreshToken})
	assert.ErrorIs(t, err, ErrTokenRevoked)
}

func TestLogoutEverywhere(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	f.register("everywhere@example.com")

	phone, err := f.uc.Login(ctx, &dto.LoginRequest{Email: "everywhere@example.com", Password: "secret123"})
	require.NoError(t, err)
	laptop, err := f.uc.Login(ctx, &dto.LoginRequest{Email: "everywhere@example.com", Password: "secret123"})
	require.NoError(t, err)
	assert.Len(t, f.tokens.keys, 4)

	principal, err := f.uc.Authenticate(ctx, phone.AccessToken)
	require.NoError(t, err)
	require.NoError(t, f.uc.Logout(ctx, *principal, &dto.LogoutRequest{All: true}))

	assert.Empty(t, f.tokens.keys)
	_, err = f.uc.Authenticate(ctx, laptop.AccessToken)
	assert.ErrorIs(t, err, ErrTokenRevoked)
}

func TestRefreshTokenRotates(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	f.register("refresh@example.com")

	first, err := f.uc.Login(ctx, &dto.LoginRequest{Email: "refresh@example.com", Password: "secret123"})
	require.NoError(t, err)

	second, err := f.uc.RefreshToken(ctx, &dto.RefreshTokenRequest{RefreshToken: first.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, first.AccessToken, second.AccessToken)

	// The old refresh token is single use.
	_, err = f.uc.RefreshToken(ctx, &dto.RefreshTokenRequest{RefreshToken: first.RefreshToken})
	assert.ErrorIs(t, err, ErrTokenRevoked)

	_, err = f.uc.RefreshToken(ctx, &dto.RefreshTokenRequest{RefreshToken: second.AccessToken})
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = f.uc.Authenticate(ctx, second.AccessToken)
	assert.NoError(t, err)
}

func TestMeIncludesProfile(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	doctor := f.addDoctor()
	me, err := f.uc.Me(ctx, entity.DoctorActor(doctor.UserID))
	require.NoError(t, err)
	assert.Equal(t, entity.RoleDoctor, me.Role)
	require.NotNil(t, me.Doctor)
	assert.Equal(t, doctor.LicenseNumber, me.Doctor.LicenseNumber)
	assert.Nil(t, me.Patient)

	patient := f.register("me@example.com")
	me, err = f.uc.Me(ctx, entity.PatientActor(patient.ID))
	require.NoError(t, err)
	require.NotNil(t, me.Patient)
	assert.Equal(t, patient.ID, me.Patient.ID)

	_, err = f.uc.Me(ctx, entity.AdminActor(uuid.New()))
	assert.ErrorIs(t, err, ErrUserNotFound)
}
