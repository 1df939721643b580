package analytics

import (
	"context"
	"errors"
	"testing"
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

type stubRollupRepo struct {
	totals    Totals
	days      []models.AnalyticsEvent
	pageViews int
	sumErr    error
}

func (s *stubRollupRepo) SumSince(_ context.Context, _ uuid.UUID, _ time.Time) (*Totals, error) {
	if s.sumErr != nil {
		return nil, s.sumErr
	}
	totals := s.totals
	return &totals, nil
}

func (s *stubRollupRepo) ListSince(_ context.Context, _ uuid.UUID, _ time.Time) ([]models.AnalyticsEvent, error) {
	return s.days, nil
}

func (s *stubRollupRepo) IncrementPageViews(_ context.Context, _ uuid.UUID, _ time.Time) error {
	s.pageViews++
	return nil
}

type stubOrderStats struct {
	counts  []orders.StatusCount
	revenue decimal.Decimal
}

func (s *stubOrderStats) CountByStatusSince(_ context.Context, _ uuid.UUID, _ time.Time) ([]orders.StatusCount, error) {
	return s.counts, nil
}

func (s *stubOrderStats) RevenueSince(_ context.Context, _ uuid.UUID, _ time.Time) (decimal.Decimal, error) {
	return s.revenue, nil
}

type stubCounter struct {
	count int64
}

func (s *stubCounter) CountByStore(_ context.Context, _ uuid.UUID) (int64, error) {
	return s.count, nil
}

func newOverviewSetup(t *testing.T, rollups *stubRollupRepo, stats *stubOrderStats) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Rollups:   rollups,
		Orders:    stats,
		Products:  &stubCounter{count: 12},
		Customers: &stubCounter{count: 7},
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func adminOf(agencyID uuid.UUID) authz.Principal {
	return authz.Principal{
		UserID:   uuid.New(),
		Role:     enums.UserRoleAgencyAdmin,
		AgencyID: &agencyID,
	}
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	if _, err := NewService(ServiceParams{}); err == nil {
		t.Fatal("expected error for missing dependencies")
	}
	if _, err := NewService(ServiceParams{Rollups: &stubRollupRepo{}}); err == nil {
		t.Fatal("expected error for missing order stats")
	}
}

func TestOverviewAggregates(t *testing.T) {
	agencyID := uuid.New()
	storeID := uuid.New()
	scope := tenancy.StoreContext{StoreID: storeID, AgencyID: agencyID}

	day := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	rollups := &stubRollupRepo{
		totals: Totals{PageViews: 340, Sales: 9},
		days: []models.AnalyticsEvent{
			{StoreID: storeID, Date: day, PageViews: 340, Sales: 9, Revenue: decimal.RequireFromString("412.50")},
		},
	}
	stats := &stubOrderStats{
		counts: []orders.StatusCount{
			{Status: enums.OrderStatusPending, Count: 2},
			{Status: enums.OrderStatusCompleted, Count: 7},
		},
		revenue: decimal.RequireFromString("412.50"),
	}
	svc := newOverviewSetup(t, rollups, stats)

	overview, err := svc.Overview(context.Background(), adminOf(agencyID), scope, PeriodWeek)
	if err != nil {
		t.Fatalf("Overview: %v", err)
	}
	if overview.Period != PeriodWeek {
		t.Fatalf("expected period week, got %s", overview.Period)
	}
	if overview.PageViews != 340 || overview.Sales != 9 {
		t.Fatalf("unexpected totals: %d views, %d sales", overview.PageViews, overview.Sales)
	}
	if !overview.Revenue.Equal(decimal.RequireFromString("412.50")) {
		t.Fatalf("unexpected revenue %s", overview.Revenue)
	}
	if overview.ProductCount != 12 || overview.CustomerCount != 7 {
		t.Fatalf("unexpected counts: %d products, %d customers", overview.ProductCount, overview.CustomerCount)
	}
	if overview.OrdersByStatus[enums.OrderStatusCompleted] != 7 {
		t.Fatalf("expected 7 completed orders, got %d", overview.OrdersByStatus[enums.OrderStatusCompleted])
	}
	if count, ok := overview.OrdersByStatus[enums.OrderStatusRefunded]; !ok || count != 0 {
		t.Fatal("expected zero entry for statuses with no orders")
	}
	if len(overview.Daily) != 1 || !overview.Daily[0].Date.Equal(day) {
		t.Fatalf("unexpected daily series: %+v", overview.Daily)
	}
}

func TestOverviewCrossTenantNotFound(t *testing.T) {
	scope := tenancy.StoreContext{StoreID: uuid.New(), AgencyID: uuid.New()}
	svc := newOverviewSetup(t, &stubRollupRepo{}, &stubOrderStats{})

	_, err := svc.Overview(context.Background(), adminOf(uuid.New()), scope, PeriodMonth)
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestOverviewUnassignedStoreNotFound(t *testing.T) {
	agencyID := uuid.New()
	scope := tenancy.StoreContext{StoreID: uuid.New(), AgencyID: agencyID}
	svc := newOverviewSetup(t, &stubRollupRepo{}, &stubOrderStats{})

	principal := authz.Principal{
		UserID:   uuid.New(),
		Role:     enums.UserRoleAgencyUser,
		AgencyID: &agencyID,
		StoreIDs: []uuid.UUID{uuid.New()},
	}
	_, err := svc.Overview(context.Background(), principal, scope, PeriodDay)
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestOverviewDependencyError(t *testing.T) {
	agencyID := uuid.New()
	scope := tenancy.StoreContext{StoreID: uuid.New(), AgencyID: agencyID}
	svc := newOverviewSetup(t, &stubRollupRepo{sumErr: errors.New("connection refused")}, &stubOrderStats{})

	_, err := svc.Overview(context.Background(), adminOf(agencyID), scope, PeriodYear)
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestRecordPageViewSkipsAuth(t *testing.T) {
	rollups := &stubRollupRepo{}
	svc := newOverviewSetup(t, rollups, &stubOrderStats{})

	scope := tenancy.StoreContext{StoreID: uuid.New(), AgencyID: uuid.New()}
	if err := svc.RecordPageView(context.Background(), scope); err != nil {
		t.Fatalf("RecordPageView: %v", err)
	}
	if rollups.pageViews != 1 {
		t.Fatalf("expected one page view, got %d", rollups.pageViews)
	}
}

func TestParsePeriod(t *testing.T) {
	if period, err := ParsePeriod(""); err != nil || period != PeriodMonth {
		t.Fatalf("expected month default, got %s (%v)", period, err)
	}
	if period, err := ParsePeriod("week"); err != nil || period != PeriodWeek {
		t.Fatalf("expected week, got %s (%v)", period, err)
	}
	if _, err := ParsePeriod("quarter"); err == nil {
		t.Fatal("expected error for unknown period")
	}
}
