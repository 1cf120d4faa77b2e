//go:build wireinject
// +build wireinject

package checkin

import (
	"github.com/google/wire"
	"gorm.io/gorm"

	"github.com/tair/checkin-ledger/internal/checkin/delivery/http"
	"github.com/tair/checkin-ledger/internal/checkin/domain"
	"github.com/tair/checkin-ledger/internal/checkin/repository"
)

// InitializeService builds the check-in service. notifier, snapshots and
// publisher come from main so the backend can be chosen from config; nil
// snapshots or publisher disable that feature.
func InitializeService(
	db *gorm.DB,
	retry repository.RetryConfig,
	notifier domain.Notifier,
	snapshots domain.SnapshotCache,
	publisher domain.ActivityPublisher,
	origins http.StreamOrigins,
) (*Service, error) {
	wire.Build(
		RepositorySet,
		CommandSet,
		QuerySet,
		http.NewCheckInHandler,
		wire.Struct(new(Service), "*"),
	)
	return nil, nil
}
