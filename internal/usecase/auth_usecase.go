package usecase

import (
	"context"
	"strings"

	"clinic-management-api/internal/converter"
	"clinic-management-api/internal/delivery/dto"
	"clinic-management-api/internal/domain/entity"
	"clinic-management-api/internal/domain/repository"
	"clinic-management-api/internal/service"
	"clinic-management-api/pkg/jwt"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// Principal is an authenticated access token resolved to its actor.
type Principal struct {
	Actor   entity.Actor
	Email   string
	TokenID string
}

type AuthUsecase interface {
	RegisterPatient(ctx context.Context, req *dto.RegisterPatientRequest) (*dto.PatientResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error)
	Logout(ctx context.Context, principal Principal, req *dto.LogoutRequest) error
	RefreshToken(ctx context.Context, req *dto.RefreshTokenRequest) (*dto.TokenResponse, error)
	Me(ctx context.Context, actor entity.Actor) (*dto.MeResponse, error)
	Authenticate(ctx context.Context, accessToken string) (*Principal, error)
}

type authUsecase struct {
	log                *logrus.Logger
	transactor         repository.Transactor
	userRepo           repository.UserRepository
	doctorProfileRepo  repository.DoctorProfileRepository
	patientProfileRepo repository.PatientProfileRepository
	patientUsecase     PatientProfileUsecase
	auditService       service.AuditService
	jwtService         *jwt.JWTService
	tokens             service.TokenStore
}

func NewAuthUsecase(
	log *logrus.Logger,
	transactor repository.Transactor,
	userRepo repository.UserRepository,
	doctorProfileRepo repository.DoctorProfileRepository,
	patientProfileRepo repository.PatientProfileRepository,
	patientUsecase PatientProfileUsecase,
	auditService service.AuditService,
	jwtService *jwt.JWTService,
	tokens service.TokenStore,
) AuthUsecase {
	return &authUsecase{
		log:                log,
		transactor:         transactor,
		userRepo:           userRepo,
		doctorProfileRepo:  doctorProfileRepo,
		patientProfileRepo: patientProfileRepo,
		patientUsecase:     patientUsecase,
		auditService:       auditService,
		jwtService:         jwtService,
		tokens:             tokens,
	}
}

// RegisterPatient is the public sign-up; it always creates a new patient user.
func (u *authUsecase) RegisterPatient(ctx context.Context, req *dto.RegisterPatientRequest) (*dto.PatientResponse, error) {
	return u.patientUsecase.RegisterPatient(ctx, req)
}

func (u *authUsecase) Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error) {
	db := u.transactor.Conn(ctx)

	user, err := u.userRepo.FindByEmail(ctx, db, strings.TrimSpace(req.Email))
	if err != nil {
		u.log.Warnf("Failed to find user by email: %+v", err)
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.Active() {
		return nil, ErrAccountInactive
	}

	actor, ok := entity.ActorFromRole(user.RoleID, user.ID)
	if !ok {
		u.log.Warnf("User %s has unknown role id %d", user.ID, user.RoleID)
		return nil, ErrInvalidCredentials
	}

	tokens, err := u.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}

	if err := u.auditService.Record(ctx, db, service.AuditEntry{
		Actor:      actor,
		Action:     entity.AuditActionUserLogin,
		EntityType: "user",
		EntityID:   user.ID.String(),
	}); err != nil {
		u.log.Warnf("Failed to record login: %+v", err)
	}

	return tokens, nil
}

func (u *authUsecase) issueTokens(ctx context.Context, user *entity.User) (*dto.TokenResponse, error) {
	sub := jwt.Subject{UserID: user.ID, Email: user.Email, RoleID: user.RoleID}

	accessToken, accessTokenID, err := u.jwtService.GenerateAccessToken(sub)
	if err != nil {
		u.log.Warnf("Failed to generate access token: %+v", err)
		return nil, err
	}
	refreshToken, refreshTokenID, err := u.jwtService.GenerateRefreshToken(sub)
	if err != nil {
		u.log.Warnf("Failed to generate refresh token: %+v", err)
		return nil, err
	}

	if err := u.tokens.Save(ctx, jwt.AccessToken, user.ID, accessTokenID, u.jwtService.GetAccessExpiry()); err != nil {
		return nil, err
	}
	if err := u.tokens.Save(ctx, jwt.RefreshToken, user.ID, refreshTokenID, u.jwtService.GetRefreshExpiry()); err != nil {
		return nil, err
	}

	return &dto.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(u.jwtService.GetAccessExpiry().Seconds()),
	}, nil
}

// Logout revokes the access token in use and, when given, the caller's refresh token.
// With All set every session of the user ends.
func (u *authUsecase) Logout(ctx context.Context, principal Principal, req *dto.LogoutRequest) error {
	if req != nil && req.All {
		if err := u.tokens.RevokeAll(ctx, principal.Actor.ID); err != nil {
			return err
		}
	} else if err := u.tokens.Delete(ctx, jwt.AccessToken, principal.Actor.ID, principal.TokenID); err != nil {
		return err
	}

	if req != nil && !req.All && req.RefreshToken != "" {
		claims, err := u.jwtService.ValidateToken(req.RefreshToken)
		if err == nil && claims.TokenType == jwt.RefreshToken && claims.UserID == principal.Actor.ID {
			if err := u.tokens.Delete(ctx, jwt.RefreshToken, claims.UserID, claims.TokenID); err != nil {
				return err
			}
		}
	}

	if err := u.auditService.Record(ctx, u.transactor.Conn(ctx), service.AuditEntry{
		Actor:      principal.Actor,
		Action:     entity.AuditActionUserLogout,
		EntityType: "user",
		EntityID:   principal.Actor.ID.String(),
	}); err != nil {
		u.log.Warnf("Failed to record logout: %+v", err)
	}
	return nil
}

// RefreshToken rotates the pair. The old refresh token is single use and the user
// is reloaded so a role change or deactivation takes effect.
func (u *authUsecase) RefreshToken(ctx context.Context, req *dto.RefreshTokenRequest) (*dto.TokenResponse, error) {
	claims, err := u.jwtService.ValidateToken(req.RefreshToken)
	if err != nil || claims.TokenType != jwt.RefreshToken {
		return nil, ErrInvalidToken
	}

	exists, err := u.tokens.Exists(ctx, jwt.RefreshToken, claims.UserID, claims.TokenID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrTokenRevoked
	}
	if err := u.tokens.Delete(ctx, jwt.RefreshToken, claims.UserID, claims.TokenID); err != nil {
		return nil, err
	}

	user, err := u.userRepo.FindByID(ctx, u.transactor.Conn(ctx), claims.UserID)
	if err != nil {
		u.log.Warnf("Failed to find user by ID: %+v", err)
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidToken
	}
	if !user.Active() {
		return nil, ErrAccountInactive
	}

	return u.issueTokens(ctx, user)
}

func (u *authUsecase) Me(ctx context.Context, actor entity.Actor) (*dto.MeResponse, error) {
	db := u.transactor.Conn(ctx)

	user, err := u.userRepo.FindByID(ctx, db, actor.ID)
	if err != nil {
		u.log.Warnf("Failed to find user by ID: %+v", err)
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	me := &dto.MeResponse{UserResponse: *converter.UserToResponse(user)}
	switch {
	case actor.IsDoctor():
		profile, err := u.doctorProfileRepo.FindByID(ctx, db, actor.ID)
		if err != nil {
			u.log.Warnf("Failed to find doctor profile: %+v", err)
			return nil, err
		}
		me.Doctor = converter.DoctorProfileToResponse(profile)
	case actor.IsPatient():
		profile, err := u.patientProfileRepo.FindByID(ctx, db, actor.ID)
		if err != nil {
			u.log.Warnf("Failed to find patient profile: %+v", err)
			return nil, err
		}
		me.Patient = converter.PatientProfileToResponse(profile)
	}
	return me, nil
}

// Authenticate validates an access token against its signature and the token store
// and resolves the role to an actor.
func (u *authUsecase) Authenticate(ctx context.Context, accessToken string) (*Principal, error) {
	claims, err := u.jwtService.ValidateToken(accessToken)
	if err != nil || claims.TokenType != jwt.AccessToken {
		return nil, ErrInvalidToken
	}

	exists, err := u.tokens.Exists(ctx, jwt.AccessToken, claims.UserID, claims.TokenID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrTokenRevoked
	}

	actor, ok := entity.ActorFromRole(claims.RoleID, claims.UserID)
	if !ok {
		return nil, ErrInvalidToken
	}

	return &Principal{
		Actor:   actor,
		Email:   claims.Email,
		TokenID: claims.TokenID,
	}, nil
}
