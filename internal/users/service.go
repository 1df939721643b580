package users

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/cobaltcommerce/cobalt-backend/internal/authz"
	"github.com/cobaltcommerce/cobalt-backend/pkg/db/models"
	pkgerrors "github.com/cobaltcommerce/cobalt-backend/pkg/errors"
	"github.com/cobaltcommerce/cobalt-backend/pkg/pagination"
	"github.com/cobaltcommerce/cobalt-backend/pkg/types"
)

type userListRepository interface {
	List(ctx context.Context, agencyID *uuid.UUID, offset, limit int) ([]models.User, int64, error)
}

// Service exposes platform-level user listing. Super admin only.
type Service interface {
	List(ctx context.Context, principal authz.Principal, agencyID *uuid.UUID, params pagination.Params) ([]UserDTO, types.Pagination, error)
}

type service struct {
	repo userListRepository
}

// NewService builds a user listing service with the provided repository.
func NewService(repo userListRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("user repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context, principal authz.Principal, agencyID *uuid.UUID, params pagination.Params) ([]UserDTO, types.Pagination, error) {
	if err := authz.Decide(principal, authz.ActionPlatform, authz.Resource{}); err != nil {
		return nil, types.Pagination{}, err
	}

	normalized := params.Normalize()
	rows, total, err := s.repo.List(ctx, agencyID, params.Offset(), normalized.Limit)
	if err != nil {
		return nil, types.Pagination{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list users")
	}

	out := make([]UserDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out, params.Meta(total), nil
}
