package inquiry

import (
	"context"
	"errors"
	"html"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"dealer-support-chat/internal/identity"
	"dealer-support-chat/internal/model"
	"dealer-support-chat/internal/responder"
)

const (
	welcomeMessage        = "Hi! Thanks for reaching out. Ask us anything about our vehicles, financing or service."
	welcomeBackMessage    = "Welcome back"
	sessionCreatedMessage = "Chat session created"
	sessionStartedMessage = "Chat session started"
	afterHoursPrefix      = "[After Hours] "
	afterHoursReceived    = "Thanks, we received your message and will reply on the next business day."

	originChat       = "chat"
	originAfterHours = "after_hours"

	defaultStoreTimeout = 5 * time.Second
)

type Service struct {
	repo       Repository
	notifier   Notifier
	now        func() time.Time
	log        zerolog.Logger
	locks      *keyedMutex
	policy     *bluemonday.Policy
	timeout    time.Duration
	newSession func() (string, error)
}

type Option func(*Service)

func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		if n != nil {
			s.notifier = n
		}
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) { s.log = l }
}

// WithStoreTimeout bounds every repository call.
func WithStoreTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

func New(repo Repository, opts ...Option) *Service {
	return NewWithRepository(repo, time.Now, opts...)
}

func NewWithRepository(repo Repository, now func() time.Time, opts ...Option) *Service {
	if now == nil {
		now = time.Now
	}
	s := &Service{
		repo:       repo,
		notifier:   noopNotifier{},
		now:        now,
		log:        zerolog.Nop(),
		locks:      newKeyedMutex(),
		policy:     bluemonday.StrictPolicy(),
		timeout:    defaultStoreTimeout,
		newSession: identity.NewSession,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type RegisterParams struct {
	SessionID string
	Contact   model.Contact
}

type RegisterResult struct {
	SessionID   string
	CustomerKey string
	InquiryID   string
	Message     string
	Returning   bool
}

// Register resolves the caller's session to its latest inquiry, opening a
// new pending inquiry with a seed message when there is none.
func (s *Service) Register(ctx context.Context, params RegisterParams) (RegisterResult, error) {
	session := strings.TrimSpace(params.SessionID)
	if session != "" && !identity.ValidSession(session) {
		s.log.Debug().Msg("ignoring malformed session id on register")
		session = ""
	}
	if session == "" {
		minted, err := s.newSession()
		if err != nil {
			return RegisterResult{}, newError(ErrorCodeDatabase, "failed to create session", err)
		}
		session = minted
	}
	customerKey := identity.DeriveCustomerKey(session)

	unlock := s.locks.Lock("customer:" + customerKey)
	defer unlock()

	storeCtx, cancel := s.storeContext(ctx)
	defer cancel()

	existing, err := s.repo.FindLatestByCustomerKey(storeCtx, customerKey)
	if err == nil {
		return RegisterResult{
			SessionID:   existing.SessionToken,
			CustomerKey: customerKey,
			InquiryID:   existing.ID,
			Message:     welcomeBackMessage,
			Returning:   true,
		}, nil
	}
	if !isNotFoundErr(err) {
		return RegisterResult{}, newError(ErrorCodeDatabase, "failed to look up customer", err)
	}

	now := s.timestamp()
	inquiry := model.InquiryItem{
		ID:              uuid.NewString(),
		CustomerKey:     customerKey,
		SessionToken:    session,
		CustomerName:    params.Contact.Name,
		CustomerEmail:   params.Contact.Email,
		CustomerPhone:   params.Contact.Phone,
		Status:          Transition("", Registered{}),
		Priority:        model.PriorityNormal,
		CustomerMessage: sessionStartedMessage,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	seed := s.newMessage(inquiry.ID, model.SenderAI, welcomeMessage, now)

	if err := s.repo.CreateInquiry(storeCtx, inquiry, seed); err != nil {
		return RegisterResult{}, newError(ErrorCodeDatabase, "failed to create inquiry", err)
	}
	countInquiry(originChat)
	countMessage(seed.Sender)

	s.log.Info().
		Str("inquiry_id", inquiry.ID).
		Str("customer_key", customerKey).
		Msg("inquiry opened")

	return RegisterResult{
		SessionID:   session,
		CustomerKey: customerKey,
		InquiryID:   inquiry.ID,
		Message:     sessionCreatedMessage,
	}, nil
}

type PostMessageParams struct {
	SessionID   string
	CustomerKey string
	Body        string
	Sender      model.Sender
	Contact     model.Contact
}

type PostMessageResult struct {
	MessageID       string
	InquiryID       string
	AIResponse      string
	NeedsHumanAgent bool
	Status          model.InquiryStatus
}

// PostMessage appends a message to the session's inquiry. Customer messages
// get an automated reply appended right after them.
func (s *Service) PostMessage(ctx context.Context, params PostMessageParams) (PostMessageResult, error) {
	session := strings.TrimSpace(params.SessionID)
	if session == "" {
		return PostMessageResult{}, newError(ErrorCodeValidation, "sessionId is required", nil)
	}
	body, err := s.plainText(params.Body, "message")
	if err != nil {
		return PostMessageResult{}, err
	}

	sender := params.Sender
	if sender == "" {
		sender = model.SenderUser
	}
	if !sender.Valid() {
		return PostMessageResult{}, newError(ErrorCodeValidation, "sender must be one of user, ai, agent", nil)
	}


	customerKey := strings.TrimSpace(params.CustomerKey)
	if customerKey == "" {
		customerKey = identity.DeriveCustomerKey(session)
	}

	storeCtx, cancel := s.storeContext(ctx)
	defer cancel()

	found, err := s.repo.FindLatestBySession(storeCtx, session, customerKey)
	if err != nil {
		return PostMessageResult{}, storeError(err, "no inquiry for this session, register first", "failed to load inquiry")
	}

	unlock := s.locks.Lock(found.ID)
	inquiry, err := s.repo.GetInquiry(storeCtx, found.ID)
	if err != nil {
		unlock()
		return PostMessageResult{}, storeError(err, "no inquiry for this session, register first", "failed to load inquiry")
	}

	result, err := s.exchange(storeCtx, inquiry, sender, body, params.Contact)
	unlock()
	if err != nil {
		return PostMessageResult{}, err
	}

	if sender == model.SenderUser {
		s.notify(ctx, inquiry.SessionToken, EventCustomerMessage, CustomerMessagePayload{
			InquiryID:       inquiry.ID,
			MessageID:       result.MessageID,
			Message:         body,
			Sender:          string(sender),
			AIResponse:      result.AIResponse,
			NeedsHumanAgent: result.NeedsHumanAgent,
			Timestamp:       s.timestamp(),
		})
	}

	return result, nil
}

// exchange runs with the inquiry lock held.
func (s *Service) exchange(ctx context.Context, inquiry model.InquiryItem, sender model.Sender, body string, contact model.Contact) (PostMessageResult, error) {
	now := s.timestamp()

	if sender == model.SenderUser && !contact.Empty() {
		if err := s.repo.UpdateContact(ctx, inquiry.ID, contact, now); err != nil {
			return PostMessageResult{}, storeError(err, "inquiry not found", "failed to update contact details")
		}
	}

	msg := s.newMessage(inquiry.ID, sender, body, now)
	if err := s.repo.AppendMessage(ctx, msg); err != nil {
		return PostMessageResult{}, storeError(err, "inquiry not found", "failed to store message")
	}
	countMessage(sender)

	result := PostMessageResult{MessageID: msg.ID, InquiryID: inquiry.ID}

	var next model.InquiryStatus
	if sender == model.SenderUser {
		reply := responder.Respond(body)
		aiMsg := s.newMessage(inquiry.ID, model.SenderAI, reply.Text, s.timestamp())
		if err := s.repo.AppendMessage(ctx, aiMsg); err != nil {
			return PostMessageResult{}, storeError(err, "inquiry not found", "failed to store automated reply")
		}
		countMessage(model.SenderAI)

		result.AIResponse = reply.Text
		result.NeedsHumanAgent = reply.NeedsHuman
		if reply.NeedsHuman {
			countHandoff()
		}
		next = Transition(inquiry.Status, UserMessage{NeedsHuman: reply.NeedsHuman})
	} else {
		next = Transition(inquiry.Status, NonUserMessage{})
	}

	if err := s.repo.UpdateStatus(ctx, inquiry.ID, next, s.timestamp()); err != nil {
		return PostMessageResult{}, storeError(err, "inquiry not found", "failed to update inquiry status")
	}
	result.Status = next

	s.log.Debug().
		Str("inquiry_id", inquiry.ID).
		Str("sender", string(sender)).
		Str("status", string(next)).
		Bool("needs_human", result.NeedsHumanAgent).
		Msg("message exchanged")

	return result, nil
}

type ReplyParams struct {
	InquiryID string
	SessionID string
	Text      string
	AgentID   string
}

type ReplyResult struct {
	MessageID string
	InquiryID string
	Status    model.InquiryStatus
}

// Reply stores an agent message and pushes it to the customer's room and the
// global room. An empty session only skips the customer push.
func (s *Service) Reply(ctx context.Context, params ReplyParams) (ReplyResult, error) {
	id := strings.TrimSpace(params.InquiryID)
	if id == "" {
		return ReplyResult{}, newError(ErrorCodeValidation, "id is required", nil)
	}
	text, err := s.plainText(params.Text, "replyText")
	if err != nil {
		return ReplyResult{}, err
	}
	agentID := strings.TrimSpace(params.AgentID)

	storeCtx, cancel := s.storeContext(ctx)
	defer cancel()

	unlock := s.locks.Lock(id)
	inquiry, err := s.repo.GetInquiry(storeCtx, id)
	if err != nil {
		unlock()
		return ReplyResult{}, storeError(err, "inquiry not found", "failed to load inquiry")
	}

	now := s.timestamp()
	msg := s.newMessage(id, model.SenderAgent, text, now)
	if err := s.repo.AppendMessage(storeCtx, msg); err != nil {
		unlock()
		return ReplyResult{}, storeError(err, "inquiry not found", "failed to store reply")
	}
	countMessage(model.SenderAgent)

	next := Transition(inquiry.Status, AgentReply{})
	if err := s.repo.UpdateStatus(storeCtx, id, next, now); err != nil {
		unlock()
		return ReplyResult{}, storeError(err, "inquiry not found", "failed to update inquiry status")
	}

	if agentID != "" && inquiry.AssignedTo == nil {
		if err := s.repo.UpdateAssignment(storeCtx, id, &agentID, now); err != nil {
			s.log.Warn().Err(err).Str("inquiry_id", id).Msg("failed to auto-assign replying agent")
		}
	}
	unlock()

	payload := AgentReplyPayload{
		InquiryID: id,
		SessionID: strings.TrimSpace(params.SessionID),
		MessageID: msg.ID,
		Message:   text,
		Sender:    string(model.SenderAgent),
		AgentID:   agentID,
		Timestamp: now,
	}
	if payload.SessionID == "" {
		s.log.Warn().Str("inquiry_id", id).Msg("reply stored without session id, customer push skipped")
	} else {
		s.notify(ctx, payload.SessionID, EventAgentReply, payload)
	}
	s.notify(ctx, GlobalRoom, EventAgentReply, payload)

	return ReplyResult{MessageID: msg.ID, InquiryID: id, Status: next}, nil
}

func (s *Service) Assign(ctx context.Context, id, agent string) (model.InquiryItem, error) {
	id = strings.TrimSpace(id)
	agent = strings.TrimSpace(agent)
	if id == "" {
		return model.InquiryItem{}, newError(ErrorCodeValidation, "id is required", nil)
	}
	if agent == "" {
		return model.InquiryItem{}, newError(ErrorCodeValidation, "agent is required", nil)
	}
	return s.updateAssignment(ctx, id, &agent)
}

func (s *Service) Unassign(ctx context.Context, id string) (model.InquiryItem, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return model.InquiryItem{}, newError(ErrorCodeValidation, "id is required", nil)
	}
	return s.updateAssignment(ctx, id, nil)
}

func (s *Service) updateAssignment(ctx context.Context, id string, agent *string) (model.InquiryItem, error) {
	storeCtx, cancel := s.storeContext(ctx)
	defer cancel()

	if err := s.repo.UpdateAssignment(storeCtx, id, agent, s.timestamp()); err != nil {
		return model.InquiryItem{}, storeError(err, "inquiry not found", "failed to update assignment")
	}

	inquiry, err := s.repo.GetInquiry(storeCtx, id)
	if err != nil {
		return model.InquiryItem{}, storeError(err, "inquiry not found", "failed to load inquiry")
	}
	s.announce(ctx, inquiry, false)
	return inquiry, nil
}

// SetStatus moves an inquiry to one of the staff-settable statuses. Setting
// the current status again is a no-op that still succeeds.
func (s *Service) SetStatus(ctx context.Context, id string, status model.InquiryStatus) (model.InquiryItem, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return model.InquiryItem{}, newError(ErrorCodeValidation, "id is required", nil)
	}
	if !status.AdminSettable() {
		return model.InquiryItem{}, newError(ErrorCodeValidation, "status must be one of pending, ai_handled, responded, closed", nil)
	}

	storeCtx, cancel := s.storeContext(ctx)
	defer cancel()

	inquiry, err := s.repo.GetInquiry(storeCtx, id)
	if err != nil {
		return model.InquiryItem{}, storeError(err, "inquiry not found", "failed to load inquiry")
	}

	next := Transition(inquiry.Status, AdminSet{Target: status})
	now := s.timestamp()
	if err := s.repo.UpdateStatus(storeCtx, id, next, now); err != nil {
		return model.InquiryItem{}, storeError(err, "inquiry not found", "failed to update inquiry status")
	}
	inquiry.Status = next
	inquiry.UpdatedAt = now

	s.announce(ctx, inquiry, false)
	return inquiry, nil
}

func (s *Service) DeleteMessage(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return newError(ErrorCodeValidation, "message id is required", nil)
	}

	storeCtx, cancel := s.storeContext(ctx)
	defer cancel()

	if err := s.repo.DeleteMessage(storeCtx, id); err != nil {
		return storeError(err, "message not found", "failed to delete message")
	}
	return nil
}

// DeleteInquiry removes the inquiry and all of its messages.
func (s *Service) DeleteInquiry(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return newError(ErrorCodeValidation, "inquiry id is required", nil)
	}

	storeCtx, cancel := s.storeContext(ctx)
	defer cancel()

	unlock := s.locks.Lock(id)
	err := s.repo.DeleteInquiry(storeCtx, id)
	unlock()
	if err != nil {
		return storeError(err, "inquiry not found", "failed to delete inquiry")
	}

	s.announce(ctx, model.InquiryItem{ID: id}, true)
	return nil
}

func (s *Service) ListInquiries(ctx context.Context) ([]model.InquiryItem, error) {
	storeCtx, cancel := s.storeContext(ctx)
	defer cancel()

	items, err := s.repo.ListInquiries(storeCtx)
	if err != nil {
		return nil, newError(ErrorCodeDatabase, "failed to list inquiries", err)
	}
	return items, nil
}

func (s *Service) ListCustomerInquiries(ctx context.Context, customerKey string) ([]model.InquiryItem, error) {
	customerKey = strings.TrimSpace(customerKey)
	if customerKey == "" {
		return nil, newError(ErrorCodeValidation, "customerKey is required", nil)
	}

	storeCtx, cancel := s.storeContext(ctx)
	defer cancel()

	items, err := s.repo.ListInquiriesByCustomerKey(storeCtx, customerKey)
	if err != nil {
		return nil, newError(ErrorCodeDatabase, "failed to list inquiries", err)
	}
	return items, nil
}

func (s *Service) ListMessages(ctx context.Context, inquiryID string) ([]model.MessageItem, error) {
	inquiryID = strings.TrimSpace(inquiryID)
	if inquiryID == "" {
		return nil, newError(ErrorCodeValidation, "inquiry id is required", nil)
	}

	storeCtx, cancel := s.storeContext(ctx)
	defer cancel()

	if _, err := s.repo.GetInquiry(storeCtx, inquiryID); err != nil {
		return nil, storeError(err, "inquiry not found", "failed to load inquiry")
	}
	messages, err := s.repo.ListMessages(storeCtx, inquiryID)
	if err != nil {
		return nil, newError(ErrorCodeDatabase, "failed to list messages", err)
	}
	return messages, nil
}

type AfterHoursParams struct {
	Contact model.Contact
	Message string
}

type AfterHoursResult struct {
	InquiryID   string
	SessionID   string
	CustomerKey string
	Message     string
}

// SubmitAfterHours records a contact-form inquiry left outside business hours.
func (s *Service) SubmitAfterHours(ctx context.Context, params AfterHoursParams) (AfterHoursResult, error) {
	if strings.TrimSpace(params.Contact.Name) == "" {
		return AfterHoursResult{}, newError(ErrorCodeValidation, "customerName is required", nil)
	}
	body, err := s.plainText(params.Message, "message")
	if err != nil {
		return AfterHoursResult{}, err
	}

	session, err := s.newSession()
	if err != nil {
		return AfterHoursResult{}, newError(ErrorCodeDatabase, "failed to create session", err)
	}
	customerKey := identity.DeriveCustomerKey(session)

	now := s.timestamp()
	inquiry := model.InquiryItem{
		ID:              uuid.NewString(),
		CustomerKey:     customerKey,
		SessionToken:    session,
		CustomerName:    params.Contact.Name,
		CustomerEmail:   params.Contact.Email,
		CustomerPhone:   params.Contact.Phone,
		Status:          Transition("", AfterHoursSubmitted{}),
		Priority:        model.PriorityLow,
		CustomerMessage: afterHoursPrefix + body,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	seed := s.newMessage(inquiry.ID, model.SenderUser, body, now)

	storeCtx, cancel := s.storeContext(ctx)
	defer cancel()

	if err := s.repo.CreateInquiry(storeCtx, inquiry, seed); err != nil {
		return AfterHoursResult{}, newError(ErrorCodeDatabase, "failed to store inquiry", err)
	}
	countInquiry(originAfterHours)
	countMessage(seed.Sender)

	s.announce(ctx, inquiry, false)

	return AfterHoursResult{
		InquiryID:   inquiry.ID,
		SessionID:   session,
		CustomerKey: customerKey,
		Message:     afterHoursReceived,
	}, nil
}

func (s *Service) announce(ctx context.Context, inquiry model.InquiryItem, deleted bool) {
	s.notify(ctx, GlobalRoom, EventInquiryUpdated, InquiryUpdatedPayload{
		InquiryID:  inquiry.ID,
		Status:     inquiry.Status,
		AssignedTo: inquiry.AssignedTo,
		Deleted:    deleted,
		Timestamp:  s.timestamp(),
	})
}

// notify never fails the caller; delivery problems are only logged.
func (s *Service) notify(ctx context.Context, room, event string, payload interface{}) {
	if err := s.notifier.Publish(ctx, room, event, payload); err != nil {
		s.log.Warn().
			Err(err).
			Str("room", room).
			Str("event", event).
			Msg("real-time publish failed")
	}
}

func (s *Service) newMessage(inquiryID string, sender model.Sender, body string, at time.Time) model.MessageItem {
	return model.MessageItem{
		ID:        ulid.Make().String(),
		InquiryID: inquiryID,
		Sender:    sender,
		Body:      body,
		CreatedAt: at,
	}
}

// plainText trims text and rejects it when the HTML sanitiser would change
// it. Accepted text is stored exactly as written.
func (s *Service) plainText(text, field string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", newError(ErrorCodeValidation, field+" is required", nil)
	}
	if html.UnescapeString(s.policy.Sanitize(text)) != html.UnescapeString(text) {
		return "", newError(ErrorCodeValidation, field+" must not contain HTML markup", nil)
	}
	return text, nil
}

func (s *Service) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

func (s *Service) storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

func isNotFoundErr(err error) bool {
	return errors.Is(err, ErrNotFound)
}
