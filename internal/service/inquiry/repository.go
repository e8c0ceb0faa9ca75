package inquiry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"dealer-support-chat/internal/database"
	"dealer-support-chat/internal/env"
	"dealer-support-chat/internal/model"
)

var ErrNotFound = errors.New("inquiry repository: not found")

// InquiryStore holds one row per conversation thread.
type InquiryStore interface {
	// CreateInquiry stores inquiry together with its seed message.
	CreateInquiry(ctx context.Context, inquiry model.InquiryItem, seed model.MessageItem) error
	GetInquiry(ctx context.Context, id string) (model.InquiryItem, error)
	FindLatestByCustomerKey(ctx context.Context, customerKey string) (model.InquiryItem, error)
	FindLatestBySession(ctx context.Context, sessionToken, customerKey string) (model.InquiryItem, error)
	ListInquiries(ctx context.Context) ([]model.InquiryItem, error)
	ListInquiriesByCustomerKey(ctx context.Context, customerKey string) ([]model.InquiryItem, error)
	// UpdateContact writes only the non-empty fields of contact.
	UpdateContact(ctx context.Context, id string, contact model.Contact, updatedAt time.Time) error
	UpdateStatus(ctx context.Context, id string, status model.InquiryStatus, updatedAt time.Time) error
	UpdateAssignment(ctx context.Context, id string, agent *string, updatedAt time.Time) error
	// DeleteInquiry removes the inquiry and every message it owns.
	DeleteInquiry(ctx context.Context, id string) error
}

// MessageLedger is the append-only per-inquiry message history.
type MessageLedger interface {
	// AppendMessage stores msg and bumps the owning inquiry's activity
	// counters. It fails with ErrNotFound when the inquiry is gone.
	AppendMessage(ctx context.Context, msg model.MessageItem) error
	GetMessage(ctx context.Context, id string) (model.MessageItem, error)
	// ListMessages returns messages ordered by creation time, then id.
	ListMessages(ctx context.Context, inquiryID string) ([]model.MessageItem, error)
	DeleteMessage(ctx context.Context, id string) error
}

type Repository interface {
	InquiryStore
	MessageLedger
}

// Closer is implemented by repositories that hold a connection.
type Closer interface {
	Close() error
}

// NewRepositoryFromConfig builds the repository selected by STORE_DRIVER.
func NewRepositoryFromConfig(ctx context.Context, cfg env.Config) (Repository, error) {
	switch cfg.StoreDriver {
	case env.DriverMemory:
		return NewMemoryRepository(), nil
	case env.DriverSQLite, env.DriverPostgres:
		db, err := database.OpenSQL(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return NewSQLRepository(db), nil
	case env.DriverDynamoDB:
		db, err := database.NewDatabase(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return NewDynamoRepository(db), nil
	}
	return nil, fmt.Errorf("inquiry repository: unsupported driver %q", cfg.StoreDriver)
}

func sortMessages(messages []model.MessageItem) {
	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].Before(messages[j])
	})
}

// sortByActivity orders inquiries most recently active first.
func sortByActivity(inquiries []model.InquiryItem) {
	sort.SliceStable(inquiries, func(i, j int) bool {
		ai, aj := inquiries[i].ActivityAt(), inquiries[j].ActivityAt()
		if !ai.Equal(aj) {
			return ai.After(aj)
		}
		return inquiries[i].ID > inquiries[j].ID
	})
}

// latestCreated returns the most recently created inquiry in items.
func latestCreated(items []model.InquiryItem) (model.InquiryItem, bool) {
	if len(items) == 0 {
		return model.InquiryItem{}, false
	}
	latest := items[0]
	for _, item := range items[1:] {
		if item.CreatedAt.After(latest.CreatedAt) ||
			(item.CreatedAt.Equal(latest.CreatedAt) && item.ID > latest.ID) {
			latest = item
		}
	}
	return latest, true
}
