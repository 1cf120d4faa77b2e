package command

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/tair/checkin-ledger/internal/checkin/domain"
	"github.com/tair/checkin-ledger/pkg/logger"
	"github.com/tair/checkin-ledger/pkg/metrics"
	"github.com/tair/checkin-ledger/pkg/validation"
)

// SignalRetryConfig bounds how hard a committed change signal is retried
// when the notifier backend rejects it.
type SignalRetryConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	// Timeout caps the whole publish, retries included
	Timeout time.Duration
}

// DefaultSignalRetry is used by NewLedger
func DefaultSignalRetry() SignalRetryConfig {
	return SignalRetryConfig{
		MaxRetries:      5,
		InitialInterval: 50 * time.Millisecond,
		MaxInterval:     time.Second,
		Timeout:         5 * time.Second,
	}
}

// Ledger carries the collaborators shared by every ledger command
type Ledger struct {
	store       domain.LedgerStore
	notifier    domain.Notifier
	publisher   domain.ActivityPublisher
	signalRetry SignalRetryConfig
	now         func() time.Time
}

// NewLedger creates the shared ledger dependencies. publisher may be nil.
func NewLedger(store domain.LedgerStore, notifier domain.Notifier, publisher domain.ActivityPublisher) *Ledger {
	return &Ledger{
		store:       store,
		notifier:    notifier,
		publisher:   publisher,
		signalRetry: DefaultSignalRetry(),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// txRun holds what one transaction attempt produced. It is reset on retry.
type txRun struct {
	event     *domain.Event
	entries   []domain.ActivityLogEntry
	allocated int
	returned  int
}

// execute runs fn inside a ledger transaction, then records metrics and
// fires the post-commit side effects.
func (l *Ledger) execute(ctx context.Context, operation string, mutation domain.MutationType, fn func(tx domain.LedgerTx, run *txRun) error) error {
	start := time.Now()
	var run *txRun

	err := l.store.WithinTx(ctx, func(tx domain.LedgerTx) error {
		run = &txRun{}
		return fn(tx, run)
	})
	metrics.RecordLedgerOperation(operation, outcomeOf(err), time.Since(start))
	if err != nil {
		return err
	}

	metrics.UnitsAllocatedTotal.Add(float64(run.allocated))
	metrics.UnitsReturnedTotal.Add(float64(run.returned))
	l.afterCommit(ctx, run, mutation)
	return nil
}

// appendActivity writes an audit row. A failure is logged and counted but
// does not fail the ledger change.
func (l *Ledger) appendActivity(ctx context.Context, tx domain.LedgerTx, run *txRun, entry domain.ActivityLogEntry) {
	entry.Timestamp = l.now()
	if err := tx.AppendActivity(&entry); err != nil {
		metrics.ActivityAppendFailuresTotal.Inc()
		logger.Warn(ctx).
			Err(err).
			Str("activity_type", string(entry.Type)).
			Str("actor", entry.PerformedBy).
			Msg("Activity log append failed, committing ledger change without audit entry")
		return
	}
	run.entries = append(run.entries, entry)
}

func (l *Ledger) afterCommit(ctx context.Context, run *txRun, mutation domain.MutationType) {
	if run.event != nil && l.notifier != nil {
		targets := []uint{run.event.ID}
		if run.event.IsSecondary() {
			targets = append(targets, *run.event.ParentEventID)
		}
		for _, eventID := range targets {
			signal := domain.ChangeSignal{EventID: eventID, Mutation: mutation, PublishedAt: l.now()}
			if err := l.publishSignal(ctx, signal); err != nil {
				logger.Error(ctx).
					Err(err).
					Uint("event_id", eventID).
					Str("mutation", string(mutation)).
					Msg("Change signal lost after retries")
			}
		}
	}

	if l.publisher == nil {
		return
	}
	for _, entry := range run.entries {
		if err := l.publisher.PublishActivity(ctx, entry); err != nil {
			metrics.ActivityPublishFailuresTotal.Inc()
			logger.Warn(ctx).Err(err).Uint("activity_id", entry.ID).Msg("Failed to publish activity entry")
		}
	}
}

// publishSignal retries Publish with exponential backoff. The change is
// already committed, so the caller's cancellation does not abort delivery;
// only the retry budget and Timeout do.
func (l *Ledger) publishSignal(ctx context.Context, signal domain.ChangeSignal) error {
	cfg := l.signalRetry
	publishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Timeout)
	defer cancel()

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = cfg.InitialInterval
	policy.MaxInterval = cfg.MaxInterval
	policy.MaxElapsedTime = 0

	attempt := 0
	return backoff.RetryNotify(
		func() error {
			attempt++
			return l.notifier.Publish(publishCtx, signal)
		},
		backoff.WithContext(backoff.WithMaxRetries(policy, uint64(cfg.MaxRetries)), publishCtx),
		func(err error, wait time.Duration) {
			logger.Warn(ctx).
				Err(err).
				Uint("event_id", signal.EventID).
				Int("attempt", attempt).
				Dur("retry_in", wait).
				Msg("Failed to publish change signal, retrying")
		},
	)
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.Is(err, domain.ErrConcurrencyConflict):
		return metrics.OutcomeError
	case errors.Is(err, domain.ErrInsufficientInventory),
		errors.Is(err, domain.ErrAlreadyCheckedIn),
		errors.Is(err, domain.ErrNotCheckedIn),
		errors.Is(err, domain.ErrMaxPerGuestExceeded),
		errors.Is(err, domain.ErrItemNotFound),
		errors.Is(err, domain.ErrGuestNotFound),
		errors.Is(err, domain.ErrEventNotFound),
		errors.Is(err, domain.ErrDuplicateItem),
		errors.Is(err, domain.ErrInvalidArgument):
		return metrics.OutcomeRejected
	}
	return metrics.OutcomeError
}

func validate(cmd interface{}) error {
	if err := validation.Struct(cmd); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInvalidArgument, err)
	}
	return nil
}

// loadGuestForEvent checks that the event and guest exist and that the guest
// is on the event roster.
func loadGuestForEvent(tx domain.LedgerTx, eventID, guestID uint) (*domain.Event, *domain.Guest, error) {
	event, err := tx.GetEvent(eventID)
	if err != nil {
		return nil, nil, err
	}
	guest, err := tx.GetGuest(guestID)
	if err != nil {
		return nil, nil, err
	}
	eligible, err := tx.IsEligible(eventID, guestID)
	if err != nil {
		return nil, nil, err
	}
	if !eligible {
		return nil, nil, fmt.Errorf("%w: guest %d, event %d", domain.ErrGuestNotEligible, guestID, eventID)
	}
	return event, guest, nil
}

// lockItemsFor locks every item referenced by the assignments and selections
// in a single ascending pass.
func lockItemsFor(tx domain.LedgerTx, assignments []domain.GiftAssignment, selections []domain.GiftSelection) (map[uint]*domain.InventoryItem, error) {
	seen := make(map[uint]struct{}, len(assignments)+len(selections))
	ids := make([]uint, 0, len(assignments)+len(selections))
	add := func(id uint) {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	for _, a := range assignments {
		add(a.InventoryItemID)
	}
	for _, s := range selections {
		add(s.ItemID)
	}
	return tx.LockItems(ids)
}

// reverse returns the units of every assignment to stock and revokes them
func reverse(tx domain.LedgerTx, run *txRun, items map[uint]*domain.InventoryItem, assignments []domain.GiftAssignment, actor string, touched map[uint]struct{}) error {
	if len(assignments) == 0 {
		return nil
	}
	ids := make([]uint, 0, len(assignments))
	for _, a := range assignments {
		item, ok := items[a.InventoryItemID]
		if !ok {
			return fmt.Errorf("%w: %d", domain.ErrItemNotFound, a.InventoryItemID)
		}
		if item.QuantityDistributed < a.Quantity {
			return fmt.Errorf("inventory item %d distributes %d but assignment %d holds %d",
				item.ID, item.QuantityDistributed, a.ID, a.Quantity)
		}
		item.QuantityOnHand += a.Quantity
		item.QuantityDistributed -= a.Quantity
		touched[item.ID] = struct{}{}
		run.returned += a.Quantity
		ids = append(ids, a.ID)
	}
	return tx.RevokeAssignments(ids, actor)
}

// allocate validates selections against the locked items and moves units to
// the guest. Either every selection is applied or none is.
func allocate(run *txRun, items map[uint]*domain.InventoryItem, eventID, guestID uint, selections []domain.GiftSelection, touched map[uint]struct{}) ([]domain.GiftAssignment, error) {
	var shortages []domain.Shortage
	for _, s := range selections {
		item, ok := items[s.ItemID]
		if !ok || item.EventID != eventID {
			return nil, fmt.Errorf("%w: %d for event %d", domain.ErrItemNotFound, s.ItemID, eventID)
		}
		limit := item.MaxPerGuest
		if limit < 1 {
			limit = 1
		}
		if s.Quantity > limit {
			return nil, &domain.MaxPerGuestError{ItemID: item.ID, Requested: s.Quantity, Max: limit}
		}
		if item.QuantityOnHand < s.Quantity {
			shortages = append(shortages, domain.Shortage{
				ItemID:    item.ID,
				Requested: s.Quantity,
				Available: item.QuantityOnHand,
			})
		}
	}
	if len(shortages) > 0 {
		return nil, &domain.InsufficientInventoryError{Shortages: shortages}
	}

	assignments := make([]domain.GiftAssignment, 0, len(selections))
	for _, s := range selections {
		item := items[s.ItemID]
		item.QuantityOnHand -= s.Quantity
		item.QuantityDistributed += s.Quantity
		touched[item.ID] = struct{}{}
		run.allocated += s.Quantity
		assignments = append(assignments, domain.GiftAssignment{
			EventID:         eventID,
			GuestID:         guestID,
			InventoryItemID: item.ID,
			Quantity:        s.Quantity,
			IsDefault:       s.IsDefault,
			State:           domain.AssignmentActive,
		})
	}
	return assignments, nil
}

// saveTouched writes every changed item once, in ascending id order
func saveTouched(tx domain.LedgerTx, items map[uint]*domain.InventoryItem, touched map[uint]struct{}) ([]domain.ShortfallAlert, error) {
	ids := make([]uint, 0, len(touched))
	for id := range touched {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var depleted []domain.ShortfallAlert
	for _, id := range ids {
		item := items[id]
		if err := tx.SaveItem(item); err != nil {
			return nil, err
		}
		if item.QuantityOnHand == 0 {
			depleted = append(depleted, domain.ShortfallAlert{ItemID: item.ID, Label: item.Label()})
		}
	}
	return depleted, nil
}

func giftDetails(items map[uint]*domain.InventoryItem, assignments []domain.GiftAssignment) []map[string]interface{} {
	gifts := make([]map[string]interface{}, 0, len(assignments))
	for _, a := range assignments {
		gift := map[string]interface{}{
			"item_id":  a.InventoryItemID,
			"quantity": a.Quantity,
		}
		if item, ok := items[a.InventoryItemID]; ok {
			gift["label"] = item.Label()
		}
		gifts = append(gifts, gift)
	}
	return gifts
}

func guestState(record *domain.CheckInRecord, guest *domain.Guest, assignments []domain.GiftAssignment) domain.GuestState {
	if assignments == nil {
		assignments = []domain.GiftAssignment{}
	}
	return domain.GuestState{
		EventID:     record.EventID,
		GuestID:     record.GuestID,
		GuestName:   guest.FullName(),
		CheckedIn:   record.CheckedIn,
		CheckedInAt: record.CheckedInAt,
		CheckedInBy: record.CheckedInBy,
		Notes:       record.Notes,
		Assignments: assignments,
	}
}
