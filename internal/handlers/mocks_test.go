package handlers_test

import (
	"context"
	"time"

	"github.com/poslink/loyalty-relay/internal/core/domain"
	portssvc "github.com/poslink/loyalty-relay/internal/core/ports/services"
	"github.com/poslink/loyalty-relay/internal/handlers"
	"github.com/poslink/loyalty-relay/internal/platform/config"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// --- Mock QueueSvcFacade ---
type MockQueueService struct {
	mock.Mock
}

func (m *MockQueueService) EnqueueTransaction(ctx context.Context, txn domain.Transaction) (string, error) {
	args := m.Called(ctx, txn)
	return args.String(0), args.Error(1)
}

func (m *MockQueueService) EnqueueVoid(ctx context.Context, txn domain.Transaction) (string, error) {
	args := m.Called(ctx, txn)
	return args.String(0), args.Error(1)
}

func (m *MockQueueService) EnqueueHistoricalSync(ctx context.Context, start, end time.Time) (string, error) {
	args := m.Called(ctx, start, end)
	return args.String(0), args.Error(1)
}

func (m *MockQueueService) JobStatus(ctx context.Context, jobID string) (*domain.Job, error) {
	args := m.Called(ctx, jobID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Job), args.Error(1)
}

func (m *MockQueueService) Stats(ctx context.Context) (*domain.QueueStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.QueueStats), args.Error(1)
}

func (m *MockQueueService) Start(ctx context.Context) {
	m.Called(ctx)
}

func (m *MockQueueService) Shutdown(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// --- Mock POSSvcFacade ---
type MockPOSService struct {
	mock.Mock
}

func (m *MockPOSService) GetTransaction(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockPOSService) GetTransactionsByDateRange(ctx context.Context, start, end time.Time) ([]domain.Transaction, error) {
	args := m.Called(ctx, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Transaction), args.Error(1)
}

func (m *MockPOSService) GetCustomer(ctx context.Context, customerID string) (*domain.Customer, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Customer), args.Error(1)
}

func (m *MockPOSService) UpdateCustomerLoyaltyNumber(ctx context.Context, customerID, loyaltyNumber string) error {
	args := m.Called(ctx, customerID, loyaltyNumber)
	return args.Error(0)
}

// --- Mock LoyaltySvcFacade ---
type MockLoyaltyService struct {
	mock.Mock
}

func (m *MockLoyaltyService) LookupMemberByPhone(ctx context.Context, phone string) (*domain.MemberLookupResult, error) {
	args := m.Called(ctx, phone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MemberLookupResult), args.Error(1)
}

func (m *MockLoyaltyService) LookupMemberByEmail(ctx context.Context, email string) (*domain.MemberLookupResult, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MemberLookupResult), args.Error(1)
}

func (m *MockLoyaltyService) LookupMemberByNumber(ctx context.Context, membershipNumber string) (*domain.MemberLookupResult, error) {
	args := m.Called(ctx, membershipNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MemberLookupResult), args.Error(1)
}

func (m *MockLoyaltyService) GetMemberPointsBalance(ctx context.Context, memberID string) (int64, error) {
	args := m.Called(ctx, memberID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockLoyaltyService) AwardPoints(ctx context.Context, memberID string, points int64, amount decimal.Decimal, externalRef string) (*domain.PostResult, error) {
	args := m.Called(ctx, memberID, points, amount, externalRef)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PostResult), args.Error(1)
}

func (m *MockLoyaltyService) RedeemPoints(ctx context.Context, memberID string, points int64, externalRef string) (*domain.PostResult, error) {
	args := m.Called(ctx, memberID, points, externalRef)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PostResult), args.Error(1)
}

func (m *MockLoyaltyService) ListAvailableVouchers(ctx context.Context, memberID string) ([]domain.Voucher, error) {
	args := m.Called(ctx, memberID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Voucher), args.Error(1)
}

func (m *MockLoyaltyService) RedeemVoucher(ctx context.Context, voucherID string) error {
	args := m.Called(ctx, voucherID)
	return args.Error(0)
}

// --- Mock MemberResolverSvc ---
type MockResolverService struct {
	mock.Mock
}

func (m *MockResolverService) Resolve(ctx context.Context, identifier string, kind domain.IdentifierKind) (*domain.MemberLookupResult, error) {
	args := m.Called(ctx, identifier, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MemberLookupResult), args.Error(1)
}

// --- Mock ProcessorSvcFacade ---
type MockProcessorService struct {
	mock.Mock
}

func (m *MockProcessorService) CalculatePoints(amount decimal.Decimal) domain.PointsCalculation {
	args := m.Called(amount)
	return args.Get(0).(domain.PointsCalculation)
}

func (m *MockProcessorService) ProcessTransaction(ctx context.Context, txn domain.Transaction) (*domain.ProcessResult, error) {
	args := m.Called(ctx, txn)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ProcessResult), args.Error(1)
}

func (m *MockProcessorService) ProcessVoid(ctx context.Context, txn domain.Transaction) (*domain.VoidResult, error) {
	args := m.Called(ctx, txn)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.VoidResult), args.Error(1)
}

func (m *MockProcessorService) SyncHistorical(ctx context.Context, start, end time.Time) (*domain.SyncResult, error) {
	args := m.Called(ctx, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SyncResult), args.Error(1)
}

// --- router setup ---

type testMocks struct {
	queue     *MockQueueService
	pos       *MockPOSService
	loyalty   *MockLoyaltyService
	resolver  *MockResolverService
	processor *MockProcessorService
}

func newTestRouter() (*gin.Engine, *testMocks) {
	gin.SetMode(gin.TestMode)

	mocks := &testMocks{
		queue:     new(MockQueueService),
		pos:       new(MockPOSService),
		loyalty:   new(MockLoyaltyService),
		resolver:  new(MockResolverService),
		processor: new(MockProcessorService),
	}

	container := &portssvc.ServiceContainer{
		Loyalty:   mocks.loyalty,
		POS:       mocks.pos,
		Resolver:  mocks.resolver,
		Processor: mocks.processor,
		Queue:     mocks.queue,
	}

	cfg := &config.Config{
		AdminAPIKey:      "test-admin-key",
		WebhookRateLimit: "1000-S",
	}

	r := gin.New()
	handlers.RegisterRoutes(r, cfg, container)
	return r, mocks
}
