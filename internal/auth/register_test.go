package auth

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/cobaltcommerce/cobalt-backend/internal/agencies"
	"github.com/cobaltcommerce/cobalt-backend/internal/users"
	pkgAuth "github.com/cobaltcommerce/cobalt-backend/pkg/auth"
	"github.com/cobaltcommerce/cobalt-backend/pkg/config"
	"github.com/cobaltcommerce/cobalt-backend/pkg/db/models"
	"github.com/cobaltcommerce/cobalt-backend/pkg/enums"
	pkgerrors "github.com/cobaltcommerce/cobalt-backend/pkg/errors"
)

type stubTxRunner struct{}

func (s stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubRegisterAgencyRepo struct {
	byName    map[string]*models.Agency
	byEmail   map[string]*models.Agency
	bySlug    map[string]*models.Agency
	createErr error
	created   *models.Agency
}

func newStubRegisterAgencyRepo() *stubRegisterAgencyRepo {
	return &stubRegisterAgencyRepo{
		byName:  map[string]*models.Agency{},
		byEmail: map[string]*models.Agency{},
		bySlug:  map[string]*models.Agency{},
	}
}

func (s *stubRegisterAgencyRepo) FindByName(ctx context.Context, name string) (*models.Agency, error) {
	if agency, ok := s.byName[name]; ok {
		return agency, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubRegisterAgencyRepo) FindByEmail(ctx context.Context, email string) (*models.Agency, error) {
	if agency, ok := s.byEmail[email]; ok {
		return agency, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubRegisterAgencyRepo) FindBySlug(ctx context.Context, slug string) (*models.Agency, error) {
	if agency, ok := s.bySlug[slug]; ok {
		return agency, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubRegisterAgencyRepo) Create(ctx context.Context, dto agencies.CreateAgencyDTO) (*models.Agency, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	agency := dto.ToModel()
	agency.ID = uuid.New()
	s.byName[agency.Name] = agency
	s.byEmail[agency.Email] = agency
	s.bySlug[agency.Slug] = agency
	s.created = agency
	return agency, nil
}

type stubRegisterUserRepo struct {
	data    map[string]*models.User
	created *models.User
}

func newStubRegisterUserRepo() *stubRegisterUserRepo {
	return &stubRegisterUserRepo{data: map[string]*models.User{}}
}

func (s *stubRegisterUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if user, ok := s.data[email]; ok {
		return user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubRegisterUserRepo) Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error) {
	user := dto.ToModel()
	user.ID = uuid.New()
	s.data[user.Email] = user
	s.created = user
	return user, nil
}

type registerTestSetup struct {
	service    RegisterService
	agencyRepo *stubRegisterAgencyRepo
	userRepo   *stubRegisterUserRepo
	sessions   *stubSessionManager
}

func newRegisterTestSetup(t *testing.T) *registerTestSetup {
	t.Helper()
	agencyRepo := newStubRegisterAgencyRepo()
	userRepo := newStubRegisterUserRepo()
	sessions := newStubSessionManager()
	svc, err := NewRegisterService(RegisterServiceParams{
		TxRunner: stubTxRunner{},
		AgencyRepoFactory: func(tx *gorm.DB) registerAgencyRepository {
			return agencyRepo
		},
		UserRepoFactory: func(tx *gorm.DB) registerUserRepository {
			return userRepo
		},
		SessionManager: sessions,
		JWTConfig:      testJWTConfig(),
		PasswordConfig: config.PasswordConfig{},
	})
	if err != nil {
		t.Fatalf("new register service: %v", err)
	}
	return &registerTestSetup{
		service:    svc,
		agencyRepo: agencyRepo,
		userRepo:   userRepo,
		sessions:   sessions,
	}
}

func sampleRegisterRequest(agencyName, email string) RegisterAgencyRequest {
	return RegisterAgencyRequest{
		AgencyName: agencyName,
		Email:      email,
		Password:   "Secret123!",
		OwnerName:  "Jamie Rivera",
	}
}

func TestRegisterAgencyCreatesTenantAndAdmin(t *testing.T) {
	setup := newRegisterTestSetup(t)
	req := sampleRegisterRequest("Acme Digital", "Owner@Acme.test")

	resp, err := setup.service.RegisterAgency(context.Background(), req)
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	agency := setup.agencyRepo.created
	if agency == nil {
		t.Fatal("expected agency to be created")
	}
	if agency.Slug != "acme-digital" {
		t.Fatalf("unexpected agency slug %q", agency.Slug)
	}

	user := setup.userRepo.created
	if user == nil {
		t.Fatal("expected user to be created")
	}
	if user.Role != enums.UserRoleAgencyAdmin {
		t.Fatalf("expected agency admin role, got %s", user.Role)
	}
	if user.AgencyID == nil || *user.AgencyID != agency.ID {
		t.Fatal("expected user bound to created agency")
	}
	if user.Email != "owner@acme.test" {
		t.Fatalf("expected normalized email, got %q", user.Email)
	}

	if resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Fatal("expected token pair")
	}
	claims, err := pkgAuth.ParseAccessToken(testJWTConfig(), resp.AccessToken)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.UserID != user.ID {
		t.Fatal("expected token minted for created user")
	}
	if _, ok := setup.sessions.generated[claims.ID]; !ok {
		t.Fatal("expected session stored under jti")
	}
}

func TestRegisterAgencyConflictOnAgencyName(t *testing.T) {
	setup := newRegisterTestSetup(t)
	setup.agencyRepo.byName["Acme Digital"] = &models.Agency{ID: uuid.New(), Name: "Acme Digital"}

	_, err := setup.service.RegisterAgency(context.Background(), sampleRegisterRequest("Acme Digital", "new@acme.test"))
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestRegisterAgencyConflictOnCollidingSlug(t *testing.T) {
	setup := newRegisterTestSetup(t)
	// "Acme Inc" and "Acme, Inc." are distinct names with the same subdomain.
	setup.agencyRepo.bySlug["acme-inc"] = &models.Agency{ID: uuid.New(), Name: "Acme Inc", Slug: "acme-inc"}

	_, err := setup.service.RegisterAgency(context.Background(), sampleRegisterRequest("Acme, Inc.", "new@acme.test"))
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict for colliding slug, got %v", err)
	}
}

func TestRegisterAgencyMapsUniqueViolationToConflict(t *testing.T) {
	setup := newRegisterTestSetup(t)
	setup.agencyRepo.createErr = &pgconn.PgError{Code: "23505", ConstraintName: "agencies_slug_key"}

	_, err := setup.service.RegisterAgency(context.Background(), sampleRegisterRequest("Acme Digital", "owner@acme.test"))
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict for duplicate key insert, got %v", err)
	}
}

func TestRegisterAgencyConflictOnUserEmail(t *testing.T) {
	setup := newRegisterTestSetup(t)
	setup.userRepo.data["owner@acme.test"] = &models.User{ID: uuid.New(), Email: "owner@acme.test"}

	_, err := setup.service.RegisterAgency(context.Background(), sampleRegisterRequest("Acme Digital", "owner@acme.test"))
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestRegisterAgencyValidation(t *testing.T) {
	setup := newRegisterTestSetup(t)

	cases := []struct {
		name string
		req  RegisterAgencyRequest
	}{
		{"missing agency name", sampleRegisterRequest("", "owner@acme.test")},
		{"bad email", sampleRegisterRequest("Acme Digital", "not-an-email")},
		{"short password", func() RegisterAgencyRequest {
			req := sampleRegisterRequest("Acme Digital", "owner@acme.test")
			req.Password = "short"
			return req
		}()},
		{"missing owner name", func() RegisterAgencyRequest {
			req := sampleRegisterRequest("Acme Digital", "owner@acme.test")
			req.OwnerName = ""
			return req
		}()},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := setup.service.RegisterAgency(context.Background(), tc.req)
			if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestRegisterAgencyRateLimited(t *testing.T) {
	setup := newRegisterTestSetup(t)
	limiter := &stubRateLimiter{allow: false}
	svc, err := NewRegisterService(RegisterServiceParams{
		TxRunner: stubTxRunner{},
		AgencyRepoFactory: func(tx *gorm.DB) registerAgencyRepository {
			return setup.agencyRepo
		},
		UserRepoFactory: func(tx *gorm.DB) registerUserRepository {
			return setup.userRepo
		},
		SessionManager: setup.sessions,
		RateLimiter:    limiter,
		JWTConfig:      testJWTConfig(),
		PasswordConfig: config.PasswordConfig{},
	})
	if err != nil {
		t.Fatalf("new register service: %v", err)
	}

	_, err = svc.RegisterAgency(context.Background(), sampleRegisterRequest("Acme Digital", "owner@acme.test"))
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeRateLimit {
		t.Fatalf("expected rate limit, got %v", err)
	}
}
