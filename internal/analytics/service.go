package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cobaltcommerce/cobalt-backend/internal/authz"
	"github.com/cobaltcommerce/cobalt-backend/internal/orders"
	"github.com/cobaltcommerce/cobalt-backend/internal/tenancy"
	"github.com/cobaltcommerce/cobalt-backend/pkg/db/models"
	"github.com/cobaltcommerce/cobalt-backend/pkg/enums"
	pkgerrors "github.com/cobaltcommerce/cobalt-backend/pkg/errors"
)

// Period bounds an overview query.
type Period string

const (
	PeriodDay   Period = "day"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
)

// ParsePeriod converts raw input into a Period, defaulting to month.
func ParsePeriod(value string) (Period, error) {
	switch Period(value) {
	case PeriodDay, PeriodWeek, PeriodMonth, PeriodYear:
		return Period(value), nil
	case "":
		return PeriodMonth, nil
	}
	return "", fmt.Errorf("invalid period %q", value)
}

func (p Period) cutoff(now time.Time) time.Time {
	switch p {
	case PeriodDay:
		return now.AddDate(0, 0, -1)
	case PeriodWeek:
		return now.AddDate(0, 0, -7)
	case PeriodYear:
		return now.AddDate(-1, 0, 0)
	default:
		return now.AddDate(0, -1, 0)
	}
}

type rollupRepository interface {
	SumSince(ctx context.Context, storeID uuid.UUID, since time.Time) (*Totals, error)
	ListSince(ctx context.Context, storeID uuid.UUID, since time.Time) ([]models.AnalyticsEvent, error)
	IncrementPageViews(ctx context.Context, storeID uuid.UUID, at time.Time) error
}

type orderStats interface {
	CountByStatusSince(ctx context.Context, storeID uuid.UUID, since time.Time) ([]orders.StatusCount, error)
	RevenueSince(ctx context.Context, storeID uuid.UUID, since time.Time) (decimal.Decimal, error)
}

type storeCounter interface {
	CountByStore(ctx context.Context, storeID uuid.UUID) (int64, error)
}

// OverviewDTO is the dashboard rollup for one store and period.
type OverviewDTO struct {
	Period         Period                      `json:"period"`
	Revenue        decimal.Decimal             `json:"revenue"`
	Sales          int64                       `json:"sales"`
	PageViews      int64                       `json:"page_views"`
	OrdersByStatus map[enums.OrderStatus]int64 `json:"orders_by_status"`
	ProductCount   int64                       `json:"product_count"`
	CustomerCount  int64                       `json:"customer_count"`
	Daily          []DailyPointDTO             `json:"daily"`
}

// DailyPointDTO is one day of the overview time series.
type DailyPointDTO struct {
	Date      time.Time       `json:"date"`
	PageViews int             `json:"page_views"`
	Sales     int             `json:"sales"`
	Revenue   decimal.Decimal `json:"revenue"`
}

// Service exposes the analytics surface for one resolved store.
type Service interface {
	Overview(ctx context.Context, principal authz.Principal, scope tenancy.StoreContext, period Period) (*OverviewDTO, error)
	RecordPageView(ctx context.Context, scope tenancy.StoreContext) error
}

// ServiceParams bundles the dependencies required to build the service.
type ServiceParams struct {
	Rollups   rollupRepository
	Orders    orderStats
	Products  storeCounter
	Customers storeCounter
}

type service struct {
	rollups   rollupRepository
	orders    orderStats
	products  storeCounter
	customers storeCounter
}

// NewService constructs an analytics service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Rollups == nil {
		return nil, fmt.Errorf("rollup repository required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("order stats required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("product counter required")
	}
	if params.Customers == nil {
		return nil, fmt.Errorf("customer counter required")
	}
	return &service{
		rollups:   params.Rollups,
		orders:    params.Orders,
		products:  params.Products,
		customers: params.Customers,
	}, nil
}

func (s *service) Overview(ctx context.Context, principal authz.Principal, scope tenancy.StoreContext, period Period) (*OverviewDTO, error) {
	storeID := scope.StoreID
	if err := authz.Decide(principal, authz.ActionRead, authz.Resource{AgencyID: scope.AgencyID, StoreID: &storeID}); err != nil {
		return nil, err
	}

	since := period.cutoff(time.Now().UTC())

	totals, err := s.rollups.SumSince(ctx, storeID, since)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum rollups")
	}
	statusCounts, err := s.orders.CountByStatusSince(ctx, storeID, since)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count orders")
	}
	revenue, err := s.orders.RevenueSince(ctx, storeID, since)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum revenue")
	}
	productCount, err := s.products.CountByStore(ctx, storeID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count products")
	}
	customerCount, err := s.customers.CountByStore(ctx, storeID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count customers")
	}
	days, err := s.rollups.ListSince(ctx, storeID, since)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list rollups")
	}

	byStatus := make(map[enums.OrderStatus]int64, len(enums.OrderStatuses()))
	for _, status := range enums.OrderStatuses() {
		byStatus[status] = 0
	}
	for _, row := range statusCounts {
		byStatus[row.Status] = row.Count
	}

	daily := make([]DailyPointDTO, 0, len(days))
	for _, day := range days {
		daily = append(daily, DailyPointDTO{
			Date:      day.Date,
			PageViews: day.PageViews,
			Sales:     day.Sales,
			Revenue:   day.Revenue,
		})
	}

	return &OverviewDTO{
		Period:         period,
		Revenue:        revenue,
		Sales:          totals.Sales,
		PageViews:      totals.PageViews,
		OrdersByStatus: byStatus,
		ProductCount:   productCount,
		CustomerCount:  customerCount,
		Daily:          daily,
	}, nil
}

// RecordPageView bumps today's page view counter for the store. Reached from
// the public storefront, so there is no principal to check.
func (s *service) RecordPageView(ctx context.Context, scope tenancy.StoreContext) error {
	if err := s.rollups.IncrementPageViews(ctx, scope.StoreID, time.Now().UTC()); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record page view")
	}
	return nil
}
