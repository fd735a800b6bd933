package services

import (
	"log/slog"

	"github.com/poslink/loyalty-relay/internal/adapters/loyalty"
	"github.com/poslink/loyalty-relay/internal/adapters/pos"
	portsrepo "github.com/poslink/loyalty-relay/internal/core/ports/repositories"
	portssvc "github.com/poslink/loyalty-relay/internal/core/ports/services"
	"github.com/poslink/loyalty-relay/internal/platform/config"
)

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(cfg *config.Config, jobRepo portsrepo.JobRepositoryFacade, logger *slog.Logger) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	// Backend adapters first; everything downstream depends on them.
	container.Loyalty = loyalty.NewClient(cfg.LoyaltyAPIBaseURL, cfg.LoyaltyAPIKey, cfg.LoyaltyProgramID)
	container.POS = pos.NewClient(cfg.POSAPIBaseURL, cfg.POSAPIKey, cfg.POSStoreID)

	container.Resolver = NewMemberResolverService(container.Loyalty)

	calculator := NewPointsCalculator(cfg.PointsPerDollar)
	container.Processor = NewProcessorService(
		container.Loyalty,
		container.POS,
		container.Resolver,
		calculator,
		cfg.MinimumTransactionForPoints,
		cfg.HistoricalSyncPace,
	)

	container.Queue = NewQueueService(
		jobRepo,
		container.Processor,
		RetryPolicy{
			MaxAttempts: cfg.RetryMaxAttempts,
			BaseDelay:   cfg.RetryBaseDelay,
			Multiplier:  cfg.RetryMultiplier,
		},
		cfg.WorkerCount,
		cfg.PollInterval,
		cfg.JobTimeout,
		cfg.SyncJobTimeout,
		logger,
	)

	return container
}

// Helper to check interface implementations at compile time
var (
	_ portssvc.ProcessorSvcFacade = (*processorSvc)(nil)
	_ portssvc.QueueSvcFacade     = (*queueSvc)(nil)
	_ portssvc.MemberResolverSvc  = (*memberResolverSvc)(nil)
)
