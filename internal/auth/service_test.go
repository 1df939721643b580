package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgAuth "github.com/cobaltcommerce/cobalt-backend/pkg/auth"
	"github.com/cobaltcommerce/cobalt-backend/pkg/auth/session"
	"github.com/cobaltcommerce/cobalt-backend/pkg/config"
	"github.com/cobaltcommerce/cobalt-backend/pkg/db/models"
	"github.com/cobaltcommerce/cobalt-backend/pkg/enums"
	pkgerrors "github.com/cobaltcommerce/cobalt-backend/pkg/errors"
	"github.com/cobaltcommerce/cobalt-backend/pkg/security"
)

type stubUserRepository struct {
	data      map[string]*models.User
	lastLogin map[uuid.UUID]time.Time
}

func newStubUserRepository() *stubUserRepository {
	return &stubUserRepository{
		data:      map[string]*models.User{},
		lastLogin: map[uuid.UUID]time.Time{},
	}
}

func (s *stubUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if user, ok := s.data[email]; ok {
		return user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUserRepository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	s.lastLogin[id] = at
	return nil
}

type stubSessionManager struct {
	generated map[string]string
	rotateErr error
	revoked   []string
}

func newStubSessionManager() *stubSessionManager {
	return &stubSessionManager{generated: map[string]string{}}
}

func (s *stubSessionManager) Generate(ctx context.Context, accessID string) (string, error) {
	token := "refresh-" + accessID
	s.generated[accessID] = token
	return token, nil
}

func (s *stubSessionManager) Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error) {
	if s.rotateErr != nil {
		return "", "", s.rotateErr
	}
	stored, ok := s.generated[oldAccessID]
	if !ok || stored != provided {
		return "", "", session.ErrInvalidRefreshToken
	}
	delete(s.generated, oldAccessID)
	newID := session.NewAccessID()
	s.generated[newID] = "refresh-" + newID
	return newID, s.generated[newID], nil
}

func (s *stubSessionManager) Revoke(ctx context.Context, accessID string) error {
	s.revoked = append(s.revoked, accessID)
	delete(s.generated, accessID)
	return nil
}

type stubRateLimiter struct {
	allow  bool
	scopes []string
}

func (s *stubRateLimiter) FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error) {
	s.scopes = append(s.scopes, scope)
	return s.allow, 1, nil
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "test-secret",
		Issuer:            "cobalt-test",
		ExpirationMinutes: 15,
	}
}

func seedUser(t *testing.T, repo *stubUserRepository, email, password string, role enums.UserRole, agencyID *uuid.UUID) *models.User {
	t.Helper()
	hash, err := security.HashPassword(password, config.PasswordConfig{})
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := &models.User{
		ID:           uuid.New(),
		Email:        email,
		Name:         "Test User",
		PasswordHash: hash,
		Role:         role,
		AgencyID:     agencyID,
		IsActive:     true,
	}
	repo.data[email] = user
	return user
}

func newLoginService(t *testing.T, repo *stubUserRepository, sessions *stubSessionManager, limiter rateLimiter) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		UserRepo:       repo,
		SessionManager: sessions,
		RateLimiter:    limiter,
		JWTConfig:      testJWTConfig(),
		RateLimitCfg: config.AuthRateLimitConfig{
			LoginWindow:     time.Minute,
			LoginEmailLimit: 5,
			LoginIPLimit:    20,
		},
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestLoginSuccess(t *testing.T) {
	repo := newStubUserRepository()
	sessions := newStubSessionManager()
	agencyID := uuid.New()
	user := seedUser(t, repo, "owner@acme.test", "Secret123!", enums.UserRoleAgencyAdmin, &agencyID)
	svc := newLoginService(t, repo, sessions, nil)

	resp, err := svc.Login(context.Background(), LoginRequest{Email: "Owner@Acme.test", Password: "Secret123!"})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Fatal("expected token pair")
	}
	if resp.User == nil || resp.User.ID != user.ID {
		t.Fatal("expected user payload")
	}
	if _, ok := repo.lastLogin[user.ID]; !ok {
		t.Fatal("expected last login to be recorded")
	}

	claims, err := pkgAuth.ParseAccessToken(testJWTConfig(), resp.AccessToken)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.UserID != user.ID || claims.Role != enums.UserRoleAgencyAdmin {
		t.Fatalf("unexpected claims %+v", claims)
	}
	if claims.AgencyID == nil || *claims.AgencyID != agencyID {
		t.Fatal("expected agency id claim")
	}
	if _, ok := sessions.generated[claims.ID]; !ok {
		t.Fatal("expected refresh token stored under jti")
	}
}

func TestLoginWrongPassword(t *testing.T) {
	repo := newStubUserRepository()
	sessions := newStubSessionManager()
	seedUser(t, repo, "owner@acme.test", "Secret123!", enums.UserRoleSuperAdmin, nil)
	svc := newLoginService(t, repo, sessions, nil)

	_, err := svc.Login(context.Background(), LoginRequest{Email: "owner@acme.test", Password: "wrong"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if typed.Message() != invalidCredentialsMessage {
		t.Fatalf("expected uniform message, got %q", typed.Message())
	}
}

func TestLoginUnknownEmail(t *testing.T) {
	svc := newLoginService(t, newStubUserRepository(), newStubSessionManager(), nil)

	_, err := svc.Login(context.Background(), LoginRequest{Email: "ghost@acme.test", Password: "whatever"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if typed.Message() != invalidCredentialsMessage {
		t.Fatalf("expected uniform message, got %q", typed.Message())
	}
}

func TestLoginInactiveUser(t *testing.T) {
	repo := newStubUserRepository()
	user := seedUser(t, repo, "owner@acme.test", "Secret123!", enums.UserRoleSuperAdmin, nil)
	user.IsActive = false
	svc := newLoginService(t, repo, newStubSessionManager(), nil)

	_, err := svc.Login(context.Background(), LoginRequest{Email: "owner@acme.test", Password: "Secret123!"})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestLoginRateLimited(t *testing.T) {
	repo := newStubUserRepository()
	seedUser(t, repo, "owner@acme.test", "Secret123!", enums.UserRoleSuperAdmin, nil)
	limiter := &stubRateLimiter{allow: false}
	svc := newLoginService(t, repo, newStubSessionManager(), limiter)

	_, err := svc.Login(context.Background(), LoginRequest{Email: "owner@acme.test", Password: "Secret123!", IP: "10.0.0.1"})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeRateLimit {
		t.Fatalf("expected rate limit, got %v", err)
	}
	if len(limiter.scopes) == 0 || limiter.scopes[0] != "login:email:owner@acme.test" {
		t.Fatalf("expected email scope first, got %v", limiter.scopes)
	}
}

func TestRefreshRotatesSession(t *testing.T) {
	repo := newStubUserRepository()
	sessions := newStubSessionManager()
	user := seedUser(t, repo, "owner@acme.test", "Secret123!", enums.UserRoleSuperAdmin, nil)
	svc := newLoginService(t, repo, sessions, nil)

	login, err := svc.Login(context.Background(), LoginRequest{Email: "owner@acme.test", Password: "Secret123!"})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	resp, err := svc.Refresh(context.Background(), RefreshRequest{
		AccessToken:  login.AccessToken,
		RefreshToken: login.RefreshToken,
	})
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if resp.AccessToken == login.AccessToken {
		t.Fatal("expected new access token")
	}
	if resp.RefreshToken == login.RefreshToken {
		t.Fatal("expected new refresh token")
	}

	claims, err := pkgAuth.ParseAccessToken(testJWTConfig(), resp.AccessToken)
	if err != nil {
		t.Fatalf("parse rotated token: %v", err)
	}
	if claims.UserID != user.ID {
		t.Fatal("expected rotated token to carry the same user")
	}

	// The old pair is invalidated by rotation.
	_, err = svc.Refresh(context.Background(), RefreshRequest{
		AccessToken:  login.AccessToken,
		RefreshToken: login.RefreshToken,
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized replay, got %v", err)
	}
}

func TestRefreshInvalidToken(t *testing.T) {
	svc := newLoginService(t, newStubUserRepository(), newStubSessionManager(), nil)

	_, err := svc.Refresh(context.Background(), RefreshRequest{AccessToken: "garbage", RefreshToken: "nope"})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	sessions := newStubSessionManager()
	svc := newLoginService(t, newStubUserRepository(), sessions, nil)

	if err := svc.Logout(context.Background(), "access-id"); err != nil {
		t.Fatalf("logout failed: %v", err)
	}
	if len(sessions.revoked) != 1 || sessions.revoked[0] != "access-id" {
		t.Fatalf("expected revoke call, got %v", sessions.revoked)
	}

	if err := svc.Logout(context.Background(), " "); err == nil {
		t.Fatal("expected error for blank access id")
	}
}
