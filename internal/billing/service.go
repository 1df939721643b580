package billing

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cobaltcommerce/cobalt-backend/internal/authz"
	"github.com/cobaltcommerce/cobalt-backend/pkg/db/models"
	pkgerrors "github.com/cobaltcommerce/cobalt-backend/pkg/errors"
	"github.com/cobaltcommerce/cobalt-backend/pkg/pagination"
	"github.com/cobaltcommerce/cobalt-backend/pkg/types"
)

type subscriptionRepository interface {
	FindByAgencyID(ctx context.Context, agencyID uuid.UUID) (*models.Subscription, error)
}

type paymentRepository interface {
	ListByAgency(ctx context.Context, agencyID uuid.UUID, offset, limit int) ([]models.Payment, int64, error)
}

// Service exposes the read side of agency billing. Writes happen only through
// the Stripe webhook flow.
type Service interface {
	GetSubscription(ctx context.Context, principal authz.Principal, agencyID uuid.UUID) (*SubscriptionDTO, error)
	ListPayments(ctx context.Context, principal authz.Principal, agencyID uuid.UUID, params pagination.Params) ([]PaymentDTO, types.Pagination, error)
}

type service struct {
	subscriptions subscriptionRepository
	payments      paymentRepository
}

// NewService constructs a billing service with the provided repositories.
func NewService(subscriptions subscriptionRepository, payments paymentRepository) (Service, error) {
	if subscriptions == nil {
		return nil, fmt.Errorf("subscription repository required")
	}
	if payments == nil {
		return nil, fmt.Errorf("payment repository required")
	}
	return &service{subscriptions: subscriptions, payments: payments}, nil
}

func (s *service) GetSubscription(ctx context.Context, principal authz.Principal, agencyID uuid.UUID) (*SubscriptionDTO, error) {
	if err := authz.Decide(principal, authz.ActionRead, authz.Resource{AgencyID: agencyID}); err != nil {
		return nil, err
	}

	sub, err := s.subscriptions.FindByAgencyID(ctx, agencyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no subscription on file")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find subscription")
	}

	dto := SubscriptionFromModel(sub)
	return &dto, nil
}

func (s *service) ListPayments(ctx context.Context, principal authz.Principal, agencyID uuid.UUID, params pagination.Params) ([]PaymentDTO, types.Pagination, error) {
	if err := authz.Decide(principal, authz.ActionRead, authz.Resource{AgencyID: agencyID}); err != nil {
		return nil, types.Pagination{}, err
	}

	normalized := params.Normalize()
	rows, total, err := s.payments.ListByAgency(ctx, agencyID, normalized.Offset(), normalized.Limit)
	if err != nil {
		return nil, types.Pagination{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payments")
	}

	out := make([]PaymentDTO, 0, len(rows))
	for i := range rows {
		out = append(out, PaymentFromModel(&rows[i]))
	}
	return out, normalized.Meta(total), nil
}
