package checkin

import (
	"github.com/google/wire"
	"gorm.io/gorm"

	"github.com/tair/checkin-ledger/internal/checkin/cache"
	"github.com/tair/checkin-ledger/internal/checkin/delivery/http"
	"github.com/tair/checkin-ledger/internal/checkin/domain"
	"github.com/tair/checkin-ledger/internal/checkin/repository"
	"github.com/tair/checkin-ledger/internal/checkin/usecase/command"
	"github.com/tair/checkin-ledger/internal/checkin/usecase/query"
)

// Service is what main needs from the assembled graph
type Service struct {
	Handler *http.CheckInHandler
	// CheckIn is shared with the kiosk consumer
	CheckIn *command.CheckInHandler
}

// ProvideLedgerStore provides the transactional store wrapped with tracing
func ProvideLedgerStore(db *gorm.DB, retry repository.RetryConfig) domain.LedgerStore {
	return repository.NewLedgerStoreWithTracing(repository.NewGormLedgerStore(db, retry))
}

// ProvideAnalyticsRepository provides the analytics repository wrapped with tracing
func ProvideAnalyticsRepository(db *gorm.DB) domain.AnalyticsRepository {
	return repository.NewAnalyticsRepositoryWithTracing(repository.NewGormAnalyticsRepository(db))
}

// ProvideActivityRepository provides the activity repository wrapped with tracing
func ProvideActivityRepository(db *gorm.DB) domain.ActivityRepository {
	return repository.NewActivityRepositoryWithTracing(repository.NewGormActivityRepository(db))
}

// ProvideInventoryRepository provides the read-only inventory repository
func ProvideInventoryRepository(db *gorm.DB) domain.InventoryRepository {
	return repository.NewGormInventoryRepository(db)
}

// ProvideLedger invalidates cached snapshots ahead of every change signal
func ProvideLedger(store domain.LedgerStore, notifier domain.Notifier, snapshots domain.SnapshotCache, publisher domain.ActivityPublisher) *command.Ledger {
	return command.NewLedger(store, cache.NewInvalidatingNotifier(notifier, snapshots), publisher)
}

// Wire sets
var RepositorySet = wire.NewSet(
	ProvideLedgerStore,
	ProvideAnalyticsRepository,
	ProvideActivityRepository,
	ProvideInventoryRepository,
)

var CommandSet = wire.NewSet(
	ProvideLedger,
	command.NewCheckInHandler,
	command.NewUndoCheckInHandler,
	command.NewClearCheckInHandler,
	command.NewChangeGiftsHandler,
	command.NewRecordNoteHandler,
	command.NewAdjustInventoryHandler,
	command.NewReconcileInventoryHandler,
	command.NewProvisionInventoryHandler,
	wire.Struct(new(http.Commands), "*"),
)

var QuerySet = wire.NewSet(
	query.NewGetAnalyticsHandler,
	query.NewListActivityHandler,
	query.NewGetItemHandler,
	query.NewListItemsHandler,
	query.NewGetGuestStateHandler,
	wire.Struct(new(http.Queries), "*"),
)
