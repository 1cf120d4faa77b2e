package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tair/checkin-ledger/internal/checkin/domain"
	"github.com/tair/checkin-ledger/pkg/logger"
	"github.com/tair/checkin-ledger/pkg/metrics"
)

// errStaleVersion marks a version-guarded write that matched no row
var errStaleVersion = errors.New("stale row version")

// Postgres SQLSTATEs that are safe to retry
const (
	sqlStateSerializationFailure = "40001"
	sqlStateDeadlockDetected     = "40P01"
)

// Models lists every table the ledger owns, in migration order
func Models() []interface{} {
	return []interface{}{
		&domain.Event{},
		&domain.Guest{},
		&domain.GuestEvent{},
		&domain.InventoryItem{},
		&domain.GiftAssignment{},
		&domain.CheckInRecord{},
		&domain.ActivityLogEntry{},
	}
}

// RetryConfig bounds transaction retries
type RetryConfig struct {
	MaxRetries  int
	BaseBackoff time.Duration
}

// GormLedgerStore runs ledger transactions on gorm
type GormLedgerStore struct {
	db    *gorm.DB
	retry RetryConfig
}

// NewGormLedgerStore creates a ledger store
func NewGormLedgerStore(db *gorm.DB, retry RetryConfig) *GormLedgerStore {
	if retry.MaxRetries < 0 {
		retry.MaxRetries = 0
	}
	if retry.BaseBackoff <= 0 {
		retry.BaseBackoff = 10 * time.Millisecond
	}
	return &GormLedgerStore{db: db, retry: retry}
}

// AutoMigrate creates or updates the ledger tables
func (s *GormLedgerStore) AutoMigrate() error {
	return s.db.AutoMigrate(Models()...)
}

// WithinTx runs fn in one transaction and retries it on serialization
// failures, deadlocks, stale versions and unique-key races.
func (s *GormLedgerStore) WithinTx(ctx context.Context, fn func(tx domain.LedgerTx) error) error {
	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return fn(&gormLedgerTx{db: tx})
		})
		if err == nil {
			return nil
		}

		reason, retryable := classify(err)
		if !retryable {
			return backoff.Permanent(err)
		}
		metrics.LedgerRetriesTotal.WithLabelValues(reason).Inc()
		logger.Debug(ctx).
			Err(err).
			Int("attempt", attempt).
			Str("reason", reason).
			Msg("Ledger transaction conflict")
		return err
	}, backoff.WithContext(backoff.WithMaxRetries(s.backoffPolicy(), uint64(s.retry.MaxRetries)), ctx))

	if _, retryable := classify(err); retryable {
		return fmt.Errorf("%w: %v", domain.ErrConcurrencyConflict, err)
	}
	return err
}

func (s *GormLedgerStore) backoffPolicy() *backoff.ExponentialBackOff {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = s.retry.BaseBackoff
	policy.MaxInterval = 32 * s.retry.BaseBackoff
	policy.MaxElapsedTime = 0
	return policy
}

func classify(err error) (string, bool) {
	if errors.Is(err, errStaleVersion) {
		return "version", true
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return "duplicate", true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case sqlStateSerializationFailure:
			return "serialization", true
		case sqlStateDeadlockDetected:
			return "deadlock", true
		}
	}
	return "", false
}

type gormLedgerTx struct {
	db *gorm.DB
}

func (t *gormLedgerTx) GetEvent(eventID uint) (*domain.Event, error) {
	var event domain.Event
	if err := t.db.First(&event, eventID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %d", domain.ErrEventNotFound, eventID)
		}
		return nil, err
	}
	return &event, nil
}

func (t *gormLedgerTx) GetGuest(guestID uint) (*domain.Guest, error) {
	var guest domain.Guest
	if err := t.db.First(&guest, guestID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %d", domain.ErrGuestNotFound, guestID)
		}
		return nil, err
	}
	return &guest, nil
}

func (t *gormLedgerTx) IsEligible(eventID, guestID uint) (bool, error) {
	var count int64
	err := t.db.Model(&domain.Guest{}).
		Where("id = ? AND event_id = ?", guestID, eventID).
		Count(&count).Error
	if err != nil || count > 0 {
		return count > 0, err
	}

	err = t.db.Model(&domain.GuestEvent{}).
		Where("guest_id = ? AND event_id = ?", guestID, eventID).
		Count(&count).Error
	return count > 0, err
}

func (t *gormLedgerTx) LockCheckIn(eventID, guestID uint) (*domain.CheckInRecord, error) {
	seed := domain.CheckInRecord{EventID: eventID, GuestID: guestID}
	err := t.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "event_id"}, {Name: "guest_id"}},
		DoNothing: true,
	}).Create(&seed).Error
	if err != nil {
		return nil, err
	}

	var record domain.CheckInRecord
	err = t.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("event_id = ? AND guest_id = ?", eventID, guestID).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (t *gormLedgerTx) SaveCheckIn(record *domain.CheckInRecord) error {
	res := t.db.Model(&domain.CheckInRecord{}).
		Where("id = ? AND version = ?", record.ID, record.Version).
		Updates(map[string]interface{}{
			"checked_in":    record.CheckedIn,
			"checked_in_at": record.CheckedInAt,
			"checked_in_by": record.CheckedInBy,
			"notes":         record.Notes,
			"version":       record.Version + 1,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("check-in record %d: %w", record.ID, errStaleVersion)
	}
	record.Version++
	return nil
}

func (t *gormLedgerTx) LockItems(ids []uint) (map[uint]*domain.InventoryItem, error) {
	items := make(map[uint]*domain.InventoryItem, len(ids))
	if len(ids) == 0 {
		return items, nil
	}

	sorted := append([]uint(nil), ids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var rows []domain.InventoryItem
	err := t.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", sorted).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	for i := range rows {
		items[rows[i].ID] = &rows[i]
	}
	return items, nil
}

func (t *gormLedgerTx) SaveItem(item *domain.InventoryItem) error {
	res := t.db.Model(&domain.InventoryItem{}).
		Where("id = ? AND version = ?", item.ID, item.Version).
		Updates(map[string]interface{}{
			"quantity_on_hand":     item.QuantityOnHand,
			"quantity_distributed": item.QuantityDistributed,
			"post_event_count":     item.PostEventCount,
			"max_per_guest":        item.MaxPerGuest,
			"version":              item.Version + 1,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("inventory item %d: %w", item.ID, errStaleVersion)
	}
	item.Version++
	return nil
}

func (t *gormLedgerTx) CreateItem(item *domain.InventoryItem) error {
	if err := t.db.Create(item).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: %s", domain.ErrDuplicateItem, item.Label())
		}
		return err
	}
	return nil
}

func (t *gormLedgerTx) ActiveAssignments(eventID, guestID uint) ([]domain.GiftAssignment, error) {
	var assignments []domain.GiftAssignment
	err := t.db.
		Where("event_id = ? AND guest_id = ? AND state = ?", eventID, guestID, domain.AssignmentActive).
		Order("id ASC").
		Find(&assignments).Error
	return assignments, err
}

func (t *gormLedgerTx) CreateAssignments(assignments []domain.GiftAssignment) error {
	if len(assignments) == 0 {
		return nil
	}
	return t.db.Create(&assignments).Error
}

func (t *gormLedgerTx) RevokeAssignments(ids []uint, actor string) error {
	if len(ids) == 0 {
		return nil
	}
	res := t.db.Model(&domain.GiftAssignment{}).
		Where("id IN ? AND state = ?", ids, domain.AssignmentActive).
		Updates(map[string]interface{}{
			"state":      domain.AssignmentRevoked,
			"revoked_at": time.Now().UTC(),
			"revoked_by": actor,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != int64(len(ids)) {
		return fmt.Errorf("revoking %d assignments: %w", len(ids), errStaleVersion)
	}
	return nil
}

// AppendActivity inserts the entry in a nested transaction, which gorm runs
// as a SAVEPOINT, so a failed insert does not poison the outer transaction.
func (t *gormLedgerTx) AppendActivity(entry *domain.ActivityLogEntry) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	return t.db.Transaction(func(sp *gorm.DB) error {
		return sp.Create(entry).Error
	})
}
