package inquiry

import "dealer-support-chat/internal/model"

// Event is anything that can move an inquiry between statuses.
type Event interface {
	isEvent()
}

type (
	Registered          struct{}
	AfterHoursSubmitted struct{}
	UserMessage         struct{ NeedsHuman bool }
	NonUserMessage      struct{}
	AgentReply          struct{}
	AdminSet            struct{ Target model.InquiryStatus }
)

func (Registered) isEvent()          {}
func (AfterHoursSubmitted) isEvent() {}
func (UserMessage) isEvent()         {}
func (NonUserMessage) isEvent()      {}
func (AgentReply) isEvent()          {}
func (AdminSet) isEvent()            {}

// Transition is the single source of truth for inquiry status changes.
// Closed inquiries only leave that state through staff action.
func Transition(current model.InquiryStatus, ev Event) model.InquiryStatus {
	switch e := ev.(type) {
	case Registered:
		return model.InquiryStatusPending
	case AfterHoursSubmitted:
		return model.InquiryStatusAfterHours
	case UserMessage:
		if current == model.InquiryStatusClosed {
			return current
		}
		if e.NeedsHuman {
			return model.InquiryStatusPending
		}
		return model.InquiryStatusAIHandled
	case NonUserMessage, AgentReply:
		return model.InquiryStatusResponded
	case AdminSet:
		return e.Target
	}
	return current
}
