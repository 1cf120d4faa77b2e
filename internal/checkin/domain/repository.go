package domain

import "context"

// LedgerStore runs ledger mutations as one transactional unit. fn may be
// invoked more than once when the transaction is retried after a conflict.
type LedgerStore interface {
	WithinTx(ctx context.Context, fn func(tx LedgerTx) error) error
}

// LedgerTx is the set of reads and writes available inside a ledger transaction
type LedgerTx interface {
	GetEvent(eventID uint) (*Event, error)
	GetGuest(guestID uint) (*Guest, error)
	IsEligible(eventID, guestID uint) (bool, error)

	// LockCheckIn locks the record of (eventID, guestID), creating it unchecked if missing
	LockCheckIn(eventID, guestID uint) (*CheckInRecord, error)
	SaveCheckIn(record *CheckInRecord) error

	// LockItems locks the items in ascending id order. Missing ids are absent from the result.
	LockItems(ids []uint) (map[uint]*InventoryItem, error)
	SaveItem(item *InventoryItem) error
	CreateItem(item *InventoryItem) error

	ActiveAssignments(eventID, guestID uint) ([]GiftAssignment, error)
	CreateAssignments(assignments []GiftAssignment) error
	RevokeAssignments(ids []uint, actor string) error

	// AppendActivity writes an entry in a nested savepoint. A failure leaves the
	// surrounding transaction usable.
	AppendActivity(entry *ActivityLogEntry) error
}

// ActivityRepository reads the audit log
type ActivityRepository interface {
	List(ctx context.Context, filter ActivityFilter) ([]ActivityLogEntry, error)
}

// InventoryRepository serves read-only inventory and guest state queries
type InventoryRepository interface {
	FindItem(ctx context.Context, itemID uint) (*InventoryItem, error)
	ListItems(ctx context.Context, eventID uint) ([]InventoryItem, error)
	GuestState(ctx context.Context, eventID, guestID uint) (*GuestState, error)
}

// ActivityPublisher forwards committed activity to an external stream
type ActivityPublisher interface {
	PublishActivity(ctx context.Context, entry ActivityLogEntry) error
}
