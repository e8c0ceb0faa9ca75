package inquiry

import (
	"context"
	"sync"
	"time"

	"dealer-support-chat/internal/model"
)

// MemoryRepository keeps everything in process memory. It backs the memory
// store driver and the package tests.
type MemoryRepository struct {
	mu        sync.Mutex
	inquiries map[string]model.InquiryItem
	messages  map[string]model.MessageItem
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		inquiries: make(map[string]model.InquiryItem),
		messages:  make(map[string]model.MessageItem),
	}
}

func (m *MemoryRepository) CreateInquiry(ctx context.Context, inquiry model.InquiryItem, seed model.MessageItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	last := seed.CreatedAt
	inquiry.MessageCount = 1
	inquiry.LastMessageAt = &last
	m.inquiries[inquiry.ID] = inquiry
	m.messages[seed.ID] = seed
	return nil
}

func (m *MemoryRepository) GetInquiry(ctx context.Context, id string) (model.InquiryItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inquiry, ok := m.inquiries[id]
	if !ok {
		return model.InquiryItem{}, ErrNotFound
	}
	return inquiry, nil
}

func (m *MemoryRepository) FindLatestByCustomerKey(ctx context.Context, customerKey string) (model.InquiryItem, error) {
	items, _ := m.ListInquiriesByCustomerKey(ctx, customerKey)
	latest, ok := latestCreated(items)
	if !ok {
		return model.InquiryItem{}, ErrNotFound
	}
	return latest, nil
}

func (m *MemoryRepository) FindLatestBySession(ctx context.Context, sessionToken, customerKey string) (model.InquiryItem, error) {
	items, _ := m.ListInquiriesByCustomerKey(ctx, customerKey)
	matching := items[:0]
	for _, item := range items {
		if item.SessionToken == sessionToken {
			matching = append(matching, item)
		}
	}
	latest, ok := latestCreated(matching)
	if !ok {
		return model.InquiryItem{}, ErrNotFound
	}
	return latest, nil
}

func (m *MemoryRepository) ListInquiries(ctx context.Context) ([]model.InquiryItem, error) {
	m.mu.Lock()
	items := make([]model.InquiryItem, 0, len(m.inquiries))
	for _, inquiry := range m.inquiries {
		items = append(items, inquiry)
	}
	m.mu.Unlock()

	sortByActivity(items)
	return items, nil
}

func (m *MemoryRepository) ListInquiriesByCustomerKey(ctx context.Context, customerKey string) ([]model.InquiryItem, error) {
	m.mu.Lock()
	items := make([]model.InquiryItem, 0)
	for _, inquiry := range m.inquiries {
		if inquiry.CustomerKey == customerKey {
			items = append(items, inquiry)
		}
	}
	m.mu.Unlock()

	sortByActivity(items)
	return items, nil
}

func (m *MemoryRepository) UpdateContact(ctx context.Context, id string, contact model.Contact, updatedAt time.Time) error {
	return m.update(id, func(inquiry *model.InquiryItem) {
		inquiry.ApplyContact(contact)
		inquiry.UpdatedAt = updatedAt
	})
}

func (m *MemoryRepository) UpdateStatus(ctx context.Context, id string, status model.InquiryStatus, updatedAt time.Time) error {
	return m.update(id, func(inquiry *model.InquiryItem) {
		inquiry.Status = status
		inquiry.UpdatedAt = updatedAt
	})
}

func (m *MemoryRepository) UpdateAssignment(ctx context.Context, id string, agent *string, updatedAt time.Time) error {
	return m.update(id, func(inquiry *model.InquiryItem) {
		if agent == nil {
			inquiry.AssignedTo = nil
		} else {
			a := *agent
			inquiry.AssignedTo = &a
		}
		inquiry.UpdatedAt = updatedAt
	})
}

func (m *MemoryRepository) DeleteInquiry(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.inquiries[id]; !ok {
		return ErrNotFound
	}
	delete(m.inquiries, id)
	for msgID, msg := range m.messages {
		if msg.InquiryID == id {
			delete(m.messages, msgID)
		}
	}
	return nil
}

func (m *MemoryRepository) AppendMessage(ctx context.Context, msg model.MessageItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	inquiry, ok := m.inquiries[msg.InquiryID]
	if !ok {
		return ErrNotFound
	}
	last := msg.CreatedAt
	inquiry.MessageCount++
	inquiry.LastMessageAt = &last
	inquiry.UpdatedAt = msg.CreatedAt
	m.inquiries[inquiry.ID] = inquiry
	m.messages[msg.ID] = msg
	return nil
}

func (m *MemoryRepository) GetMessage(ctx context.Context, id string) (model.MessageItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg, ok := m.messages[id]
	if !ok {
		return model.MessageItem{}, ErrNotFound
	}
	return msg, nil
}

func (m *MemoryRepository) ListMessages(ctx context.Context, inquiryID string) ([]model.MessageItem, error) {
	m.mu.Lock()
	items := make([]model.MessageItem, 0)
	for _, msg := range m.messages {
		if msg.InquiryID == inquiryID {
			items = append(items, msg)
		}
	}
	m.mu.Unlock()

	sortMessages(items)
	return items, nil
}

func (m *MemoryRepository) DeleteMessage(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg, ok := m.messages[id]
	if !ok {
		return ErrNotFound
	}
	delete(m.messages, id)

	inquiry, ok := m.inquiries[msg.InquiryID]
	if !ok {
		return nil
	}
	inquiry.MessageCount = 0
	inquiry.LastMessageAt = nil
	for _, other := range m.messages {
		if other.InquiryID != inquiry.ID {
			continue
		}
		inquiry.MessageCount++
		if inquiry.LastMessageAt == nil || other.CreatedAt.After(*inquiry.LastMessageAt) {
			at := other.CreatedAt
			inquiry.LastMessageAt = &at
		}
	}
	m.inquiries[inquiry.ID] = inquiry
	return nil
}

func (m *MemoryRepository) update(id string, fn func(*model.InquiryItem)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	inquiry, ok := m.inquiries[id]
	if !ok {
		return ErrNotFound
	}
	fn(&inquiry)
	m.inquiries[id] = inquiry
	return nil
}
