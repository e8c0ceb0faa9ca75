package inquiry

import (
	"context"
	"time"

	"dealer-support-chat/internal/model"
)

const (
	EventCustomerMessage = "customer_message"
	EventAgentReply      = "agent_reply"
	EventInquiryUpdated  = "inquiry_updated"
)

// GlobalRoom is observed by every agent dashboard.
const GlobalRoom = "support:global"

// Notifier pushes an event to everyone currently subscribed to room.
type Notifier interface {
	Publish(ctx context.Context, room, event string, payload interface{}) error
}

type noopNotifier struct{}

func (noopNotifier) Publish(context.Context, string, string, interface{}) error { return nil }

type CustomerMessagePayload struct {
	InquiryID       string    `json:"inquiryId"`
	MessageID       string    `json:"messageId"`
	Message         string    `json:"message"`
	Sender          string    `json:"sender"`
	AIResponse      string    `json:"aiResponse,omitempty"`
	NeedsHumanAgent bool      `json:"needsHumanAgent"`
	Timestamp       time.Time `json:"timestamp"`
}

type AgentReplyPayload struct {
	InquiryID string    `json:"inquiryId"`
	SessionID string    `json:"sessionId,omitempty"`
	MessageID string    `json:"messageId"`
	Message   string    `json:"message"`
	Sender    string    `json:"sender"`
	AgentID   string    `json:"agentId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type InquiryUpdatedPayload struct {
	InquiryID  string              `json:"inquiryId"`
	Status     model.InquiryStatus `json:"status,omitempty"`
	AssignedTo *string             `json:"assignedTo"`
	Deleted    bool                `json:"deleted,omitempty"`
	Timestamp  time.Time           `json:"timestamp"`
}
