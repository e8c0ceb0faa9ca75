package model

import (
	"strings"
	"time"
)

type InquiryStatus string

const (
	InquiryStatusPending    InquiryStatus = "pending"
	InquiryStatusAIHandled  InquiryStatus = "ai_handled"
	InquiryStatusResponded  InquiryStatus = "responded"
	InquiryStatusAfterHours InquiryStatus = "after_hours"
	InquiryStatusClosed     InquiryStatus = "closed"
)

func (s InquiryStatus) Valid() bool {
	switch s {
	case InquiryStatusPending, InquiryStatusAIHandled, InquiryStatusResponded, InquiryStatusAfterHours, InquiryStatusClosed:
		return true
	}
	return false
}

// AdminSettable reports whether staff may move an inquiry into s directly.
// after_hours is only ever assigned at creation.
func (s InquiryStatus) AdminSettable() bool {
	switch s {
	case InquiryStatusPending, InquiryStatusAIHandled, InquiryStatusResponded, InquiryStatusClosed:
		return true
	}
	return false
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
)

type Sender string

const (
	SenderUser  Sender = "user"
	SenderAI    Sender = "ai"
	SenderAgent Sender = "agent"
)

func (s Sender) Valid() bool {
	return s == SenderUser || s == SenderAI || s == SenderAgent
}

type InquiryItem struct {
	ID              string        `dynamodbav:"inquiryId" db:"id"`
	CustomerKey     string        `dynamodbav:"customerKey" db:"customer_key"`
	SessionToken    string        `dynamodbav:"sessionToken" db:"session_token"`
	CustomerName    string        `dynamodbav:"customerName,omitempty" db:"customer_name"`
	CustomerEmail   string        `dynamodbav:"customerEmail,omitempty" db:"customer_email"`
	CustomerPhone   string        `dynamodbav:"customerPhone,omitempty" db:"customer_phone"`
	Status          InquiryStatus `dynamodbav:"status" db:"status"`
	AssignedTo      *string       `dynamodbav:"assignedTo,omitempty" db:"assigned_to"`
	Priority        Priority      `dynamodbav:"priority" db:"priority"`
	CustomerMessage string        `dynamodbav:"customerMessage" db:"customer_message"`
	MessageCount    int           `dynamodbav:"messageCount" db:"message_count"`
	LastMessageAt   *time.Time    `dynamodbav:"lastMessageAt,omitempty" db:"last_message_at"`
	CreatedAt       time.Time     `dynamodbav:"createdAt" db:"created_at"`
	UpdatedAt       time.Time     `dynamodbav:"updatedAt" db:"updated_at"`
}

// Contact returns the customer details currently held on the inquiry.
func (i InquiryItem) Contact() Contact {
	return Contact{Name: i.CustomerName, Email: i.CustomerEmail, Phone: i.CustomerPhone}
}

// ApplyContact overwrites only the fields c carries.
func (i *InquiryItem) ApplyContact(c Contact) {
	merged := i.Contact().Merge(c)
	i.CustomerName = merged.Name
	i.CustomerEmail = merged.Email
	i.CustomerPhone = merged.Phone
}

// ActivityAt is the time used to order inquiry listings.
func (i InquiryItem) ActivityAt() time.Time {
	if i.LastMessageAt != nil && i.LastMessageAt.After(i.UpdatedAt) {
		return *i.LastMessageAt
	}
	return i.UpdatedAt
}

type MessageItem struct {
	ID        string    `dynamodbav:"messageId" db:"id"`
	InquiryID string    `dynamodbav:"inquiryId" db:"inquiry_id"`
	Sender    Sender    `dynamodbav:"sender" db:"sender"`
	Body      string    `dynamodbav:"body" db:"body"`
	CreatedAt time.Time `dynamodbav:"createdAt" db:"created_at"`
}

// Before orders messages by creation time, then id.
func (m MessageItem) Before(other MessageItem) bool {
	if !m.CreatedAt.Equal(other.CreatedAt) {
		return m.CreatedAt.Before(other.CreatedAt)
	}
	return m.ID < other.ID
}

type Contact struct {
	Name  string
	Email string
	Phone string
}

func NewContact(name, email, phone string) Contact {
	return Contact{
		Name:  strings.TrimSpace(name),
		Email: strings.ToLower(strings.TrimSpace(email)),
		Phone: strings.TrimSpace(phone),
	}
}

func (c Contact) Empty() bool {
	return c.Name == "" && c.Email == "" && c.Phone == ""
}

// Merge keeps every field of c and replaces it with the value from update
// when that value is non-empty. Existing details are never blanked.
func (c Contact) Merge(update Contact) Contact {
	if update.Name != "" {
		c.Name = update.Name
	}
	if update.Email != "" {
		c.Email = update.Email
	}
	if update.Phone != "" {
		c.Phone = update.Phone
	}
	return c
}
