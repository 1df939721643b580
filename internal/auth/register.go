package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cobaltcommerce/cobalt-backend/internal/agencies"
	"github.com/cobaltcommerce/cobalt-backend/internal/users"
	pkgAuth "github.com/cobaltcommerce/cobalt-backend/pkg/auth"
	"github.com/cobaltcommerce/cobalt-backend/pkg/auth/session"
	"github.com/cobaltcommerce/cobalt-backend/pkg/config"
	"github.com/cobaltcommerce/cobalt-backend/pkg/db"
	"github.com/cobaltcommerce/cobalt-backend/pkg/db/models"
	"github.com/cobaltcommerce/cobalt-backend/pkg/enums"
	pkgerrors "github.com/cobaltcommerce/cobalt-backend/pkg/errors"
	"github.com/cobaltcommerce/cobalt-backend/pkg/security"
	"github.com/cobaltcommerce/cobalt-backend/pkg/slug"
)

const minPasswordLength = 8

// RegisterService handles the agency onboarding transaction.
type RegisterService interface {
	RegisterAgency(ctx context.Context, req RegisterAgencyRequest) (*RegisterAgencyResponse, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type registerAgencyRepository interface {
	FindByName(ctx context.Context, name string) (*models.Agency, error)
	FindByEmail(ctx context.Context, email string) (*models.Agency, error)
	FindBySlug(ctx context.Context, s string) (*models.Agency, error)
	Create(ctx context.Context, dto agencies.CreateAgencyDTO) (*models.Agency, error)
}

type registerUserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error)
}

// RegisterServiceParams packages the dependencies for the registration flow.
// The repo factories default to the GORM-backed repositories when nil.
type RegisterServiceParams struct {
	DB                *db.Client
	TxRunner          txRunner
	AgencyRepoFactory func(tx *gorm.DB) registerAgencyRepository
	UserRepoFactory   func(tx *gorm.DB) registerUserRepository
	SessionManager    sessionManager
	RateLimiter       rateLimiter
	JWTConfig         config.JWTConfig
	PasswordConfig    config.PasswordConfig
	RateLimitCfg      config.AuthRateLimitConfig
}

type registerService struct {
	tx          txRunner
	agencyRepo  func(tx *gorm.DB) registerAgencyRepository
	userRepo    func(tx *gorm.DB) registerUserRepository
	session     sessionManager
	limiter     rateLimiter
	jwtCfg      config.JWTConfig
	passwordCfg config.PasswordConfig
	rateCfg     config.AuthRateLimitConfig
}

// NewRegisterService builds a registration service with the provided dependencies.
func NewRegisterService(params RegisterServiceParams) (RegisterService, error) {
	runner := params.TxRunner
	if runner == nil {
		if params.DB == nil {
			return nil, fmt.Errorf("database client required")
		}
		runner = params.DB
	}
	if params.SessionManager == nil {
		return nil, fmt.Errorf("session manager is required")
	}

	agencyFactory := params.AgencyRepoFactory
	if agencyFactory == nil {
		agencyFactory = func(tx *gorm.DB) registerAgencyRepository {
			return agencies.NewRepository(tx)
		}
	}
	userFactory := params.UserRepoFactory
	if userFactory == nil {
		userFactory = func(tx *gorm.DB) registerUserRepository {
			return users.NewRepository(tx)
		}
	}

	return &registerService{
		tx:          runner,
		agencyRepo:  agencyFactory,
		userRepo:    userFactory,
		session:     params.SessionManager,
		limiter:     params.RateLimiter,
		jwtCfg:      params.JWTConfig,
		passwordCfg: params.PasswordConfig,
		rateCfg:     params.RateLimitCfg,
	}, nil
}

func (s *registerService) RegisterAgency(ctx context.Context, req RegisterAgencyRequest) (*RegisterAgencyResponse, error) {
	agencyName := strings.TrimSpace(req.AgencyName)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	ownerName := strings.TrimSpace(req.OwnerName)

	if agencyName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "agency name is required")
	}
	if !strings.Contains(email, "@") {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid email")
	}
	if ownerName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "owner name is required")
	}
	if len(req.Password) < minPasswordLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	if err := s.throttleRegister(ctx, email, req.IP); err != nil {
		return nil, err
	}

	passwordHash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	var (
		agency *models.Agency
		user   *models.User
	)
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		agencyRepo := s.agencyRepo(tx)
		userRepo := s.userRepo(tx)

		if _, err := agencyRepo.FindByName(ctx, agencyName); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "agency name already registered")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check agency name")
		}
		// The routing subdomain is the slug derived from the name; distinct
		// names can collapse onto the same slug.
		if _, err := agencyRepo.FindBySlug(ctx, slug.Make(agencyName)); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "agency subdomain already taken")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check agency slug")
		}
		if _, err := agencyRepo.FindByEmail(ctx, email); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "agency email already registered")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check agency email")
		}
		if _, err := userRepo.FindByEmail(ctx, email); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check user email")
		}

		agency, err = agencyRepo.Create(ctx, agencies.CreateAgencyDTO{
			Name:  agencyName,
			Email: email,
			Phone: req.Phone,
		})
		if err != nil {
			if db.IsUniqueViolation(err) {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "agency already registered")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create agency")
		}

		user, err = userRepo.Create(ctx, users.CreateUserDTO{
			Email:        email,
			PasswordHash: passwordHash,
			Name:         ownerName,
			Role:         enums.UserRoleAgencyAdmin,
			AgencyID:     &agency.ID,
		})
		if err != nil {
			if db.IsUniqueViolation(err) {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "email already registered")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	accessID := session.NewAccessID()
	accessToken, err := pkgAuth.MintAccessToken(s.jwtCfg, time.Now().UTC(), pkgAuth.AccessTokenPayload{
		UserID:   user.ID,
		Email:    user.Email,
		Role:     user.Role,
		AgencyID: agencyIDRef(agency.ID),
		JTI:      accessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	refreshToken, err := s.session.Generate(ctx, accessID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store refresh token")
	}

	return &RegisterAgencyResponse{
		Agency:       agencies.FromModel(agency),
		User:         users.FromModel(user),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

func (s *registerService) throttleRegister(ctx context.Context, email, ip string) error {
	if s.limiter == nil {
		return nil
	}

	allowed, _, err := s.limiter.FixedWindowAllow(ctx, "register:email:"+email, int64(s.rateCfg.RegisterEmailLimit), s.rateCfg.RegisterWindow)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "rate limit register")
	}
	if !allowed {
		return pkgerrors.New(pkgerrors.CodeRateLimit, "too many registration attempts")
	}

	if ip := strings.TrimSpace(ip); ip != "" {
		allowed, _, err := s.limiter.FixedWindowAllow(ctx, "register:ip:"+ip, int64(s.rateCfg.RegisterIPLimit), s.rateCfg.RegisterWindow)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "rate limit register")
		}
		if !allowed {
			return pkgerrors.New(pkgerrors.CodeRateLimit, "too many registration attempts")
		}
	}
	return nil
}

func agencyIDRef(id uuid.UUID) *uuid.UUID {
	return &id
}
