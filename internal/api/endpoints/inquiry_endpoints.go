package endpoints

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"dealer-support-chat/internal/api/middleware"
	"dealer-support-chat/internal/dto"
	"dealer-support-chat/internal/model"
	"dealer-support-chat/internal/service/inquiry"
	"dealer-support-chat/utils"
)

type InquiryEndpoints interface {
	Register(http.ResponseWriter, *http.Request) error
	Message(http.ResponseWriter, *http.Request) error
	Inquiries(http.ResponseWriter, *http.Request) error
	Inquiry(http.ResponseWriter, *http.Request) error
	MyInquiries(http.ResponseWriter, *http.Request) error
	Messages(http.ResponseWriter, *http.Request) error
	Reply(http.ResponseWriter, *http.Request) error
	Assign(http.ResponseWriter, *http.Request) error
	Unassign(http.ResponseWriter, *http.Request) error
	Status(http.ResponseWriter, *http.Request) error
	AfterHours(http.ResponseWriter, *http.Request) error
}

type InquiryPaths struct {
	InquiryPrefix  string
	MessagesPrefix string
}

type inquiryEndpoints struct {
	service *inquiry.Service
	paths   InquiryPaths
}

func NewInquiryEndpoints(service *inquiry.Service, prefix string) InquiryEndpoints {
	base := strings.TrimRight(prefix, "/")
	return NewInquiryEndpointsWithPaths(service, InquiryPaths{
		InquiryPrefix:  base + "/inquiries/",
		MessagesPrefix: base + "/messages/",
	})
}

func NewInquiryEndpointsWithPaths(service *inquiry.Service, paths InquiryPaths) InquiryEndpoints {
	return &inquiryEndpoints{service: service, paths: paths}
}

func (h *inquiryEndpoints) Register(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodPost: h.handleRegister,
	})
}

func (h *inquiryEndpoints) Message(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodPost: h.handlePostMessage,
	})
}

func (h *inquiryEndpoints) Inquiries(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodGet: h.handleListInquiries,
	})
}

func (h *inquiryEndpoints) Inquiry(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodDelete: h.handleDeleteInquiry,
	})
}

func (h *inquiryEndpoints) MyInquiries(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodGet: h.handleListCustomerInquiries,
	})
}

// Messages serves GET by inquiry id and DELETE by message id.
func (h *inquiryEndpoints) Messages(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodGet:    h.handleListMessages,
		http.MethodDelete: h.handleDeleteMessage,
	})
}

func (h *inquiryEndpoints) Reply(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodPost: h.handleReply,
	})
}

func (h *inquiryEndpoints) Assign(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodPut: h.handleAssign,
	})
}

func (h *inquiryEndpoints) Unassign(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodPut: h.handleUnassign,
	})
}

func (h *inquiryEndpoints) Status(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodPut: h.handleStatus,
	})
}

func (h *inquiryEndpoints) AfterHours(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodPost: h.handleAfterHours,
	})
}

func (h *inquiryEndpoints) handleRegister(w http.ResponseWriter, r *http.Request) error {
	var req dto.RegisterRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			return err
		}
	}

	result, err := h.service.Register(r.Context(), inquiry.RegisterParams{
		SessionID: req.SessionID,
		Contact:   model.NewContact(req.CustomerName, req.CustomerEmail, req.CustomerPhone),
	})
	if err != nil {
		return h.serviceError(err)
	}

	return WriteJSON(w, http.StatusOK, dto.RegisterResponse{
		Success:     true,
		SessionID:   result.SessionID,
		CustomerKey: result.CustomerKey,
		InquiryID:   result.InquiryID,
		Message:     result.Message,
		Returning:   result.Returning,
	})
}

func (h *inquiryEndpoints) handlePostMessage(w http.ResponseWriter, r *http.Request) error {
	var req dto.PostMessageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}

	result, err := h.service.PostMessage(r.Context(), inquiry.PostMessageParams{
		SessionID:   req.SessionID,
		CustomerKey: req.CustomerKey,
		Body:        req.Message,
		Sender:      model.Sender(strings.TrimSpace(req.Sender)),
		Contact:     model.NewContact(req.CustomerName, req.CustomerEmail, req.CustomerPhone),
	})
	if err != nil {
		return h.serviceError(err)
	}

	return WriteJSON(w, http.StatusOK, dto.PostMessageResponse{
		Success:         true,
		MessageID:       result.MessageID,
		InquiryID:       result.InquiryID,
		AIResponse:      result.AIResponse,
		NeedsHumanAgent: result.NeedsHumanAgent,
		Status:          string(result.Status),
	})
}

func (h *inquiryEndpoints) handleListInquiries(w http.ResponseWriter, r *http.Request) error {
	items, err := h.service.ListInquiries(r.Context())
	if err != nil {
		return h.serviceError(err)
	}
	return WriteJSON(w, http.StatusOK, toInquiryResponses(items))
}

func (h *inquiryEndpoints) handleListCustomerInquiries(w http.ResponseWriter, r *http.Request) error {
	items, err := h.service.ListCustomerInquiries(r.Context(), r.URL.Query().Get("customerKey"))
	if err != nil {
		return h.serviceError(err)
	}
	return WriteJSON(w, http.StatusOK, toInquiryResponses(items))
}

func (h *inquiryEndpoints) handleListMessages(w http.ResponseWriter, r *http.Request) error {
	inquiryID, err := pathID(r.URL.Path, h.paths.MessagesPrefix, "Inquiry")
	if err != nil {
		return err
	}

	messages, err := h.service.ListMessages(r.Context(), inquiryID)
	if err != nil {
		return h.serviceError(err)
	}

	resp := make([]dto.MessageResponse, 0, len(messages))
	for _, m := range messages {
		resp = append(resp, toMessageResponse(m))
	}
	return WriteJSON(w, http.StatusOK, resp)
}

func (h *inquiryEndpoints) handleDeleteMessage(w http.ResponseWriter, r *http.Request) error {
	messageID, err := pathID(r.URL.Path, h.paths.MessagesPrefix, "Message")
	if err != nil {
		return err
	}
	if err := h.service.DeleteMessage(r.Context(), messageID); err != nil {
		return h.serviceError(err)
	}
	return WriteJSON(w, http.StatusOK, dto.SuccessResponse{Success: true})
}

func (h *inquiryEndpoints) handleDeleteInquiry(w http.ResponseWriter, r *http.Request) error {
	inquiryID, err := pathID(r.URL.Path, h.paths.InquiryPrefix, "Inquiry")
	if err != nil {
		return err
	}
	if err := h.service.DeleteInquiry(r.Context(), inquiryID); err != nil {
		return h.serviceError(err)
	}
	return WriteJSON(w, http.StatusOK, dto.SuccessResponse{Success: true})
}

func (h *inquiryEndpoints) handleReply(w http.ResponseWriter, r *http.Request) error {
	var req dto.ReplyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}

	var tokenAgentID string
	if agent, ok := middleware.AgentFromContext(r.Context()); ok {
		tokenAgentID = agent.ID
	}

	result, err := h.service.Reply(r.Context(), inquiry.ReplyParams{
		InquiryID: req.ID,
		SessionID: req.SessionID,
		Text:      req.ReplyText,
		AgentID:   utils.FirstNonEmpty(tokenAgentID, req.Agent),
	})
	if err != nil {
		return h.serviceError(err)
	}

	return WriteJSON(w, http.StatusOK, dto.ReplyResponse{
		Success:   true,
		MessageID: result.MessageID,
		Status:    string(result.Status),
	})
}

func (h *inquiryEndpoints) handleAssign(w http.ResponseWriter, r *http.Request) error {
	var req dto.AssignRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}

	item, err := h.service.Assign(r.Context(), req.ID, req.Agent)
	if err != nil {
		return h.serviceError(err)
	}
	return WriteJSON(w, http.StatusOK, dto.InquiryUpdateResponse{Success: true, Inquiry: toInquiryResponse(item)})
}

func (h *inquiryEndpoints) handleUnassign(w http.ResponseWriter, r *http.Request) error {
	var req dto.UnassignRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}

	item, err := h.service.Unassign(r.Context(), req.ID)
	if err != nil {
		return h.serviceError(err)
	}
	return WriteJSON(w, http.StatusOK, dto.InquiryUpdateResponse{Success: true, Inquiry: toInquiryResponse(item)})
}

func (h *inquiryEndpoints) handleStatus(w http.ResponseWriter, r *http.Request) error {
	var req dto.StatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}

	item, err := h.service.SetStatus(r.Context(), req.ID, model.InquiryStatus(strings.TrimSpace(req.Status)))
	if err != nil {
		return h.serviceError(err)
	}
	return WriteJSON(w, http.StatusOK, dto.InquiryUpdateResponse{Success: true, Inquiry: toInquiryResponse(item)})
}

func (h *inquiryEndpoints) handleAfterHours(w http.ResponseWriter, r *http.Request) error {
	var req dto.AfterHoursRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}

	result, err := h.service.SubmitAfterHours(r.Context(), inquiry.AfterHoursParams{
		Contact: model.NewContact(req.CustomerName, req.CustomerEmail, req.CustomerPhone),
		Message: req.Message,
	})
	if err != nil {
		return h.serviceError(err)
	}

	return WriteJSON(w, http.StatusOK, dto.AfterHoursResponse{
		Success:     true,
		InquiryID:   result.InquiryID,
		SessionID:   result.SessionID,
		CustomerKey: result.CustomerKey,
		Message:     result.Message,
	})
}

func (h *inquiryEndpoints) serviceError(err error) error {
	if err == nil {
		return nil
	}

	var svcErr *inquiry.Error
	if !errors.As(err, &svcErr) {
		return &HTTPError{
			StatusCode: http.StatusInternalServerError,
			Message:    "Internal server error",
			ErrorLog:   fmt.Errorf("inquiry service: %w", err),
		}
	}

	var errorLog error
	if svcErr.Err != nil {
		errorLog = fmt.Errorf("%s: %w", svcErr.Message, svcErr.Err)
	} else {
		errorLog = svcErr
	}

	switch svcErr.Code {
	case inquiry.ErrorCodeValidation:
		return &HTTPError{StatusCode: http.StatusBadRequest, Message: svcErr.Message, ErrorLog: errorLog}
	case inquiry.ErrorCodeNotFound:
		return &HTTPError{StatusCode: http.StatusNotFound, Message: svcErr.Message, ErrorLog: errorLog}
	default:
		return &HTTPError{StatusCode: http.StatusInternalServerError, Message: "Internal server error", ErrorLog: errorLog}
	}
}

func toInquiryResponses(items []model.InquiryItem) []dto.InquiryResponse {
	resp := make([]dto.InquiryResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, toInquiryResponse(item))
	}
	return resp
}

func toInquiryResponse(item model.InquiryItem) dto.InquiryResponse {
	resp := dto.InquiryResponse{
		ID:              item.ID,
		Status:          string(item.Status),
		CustomerName:    item.CustomerName,
		CustomerEmail:   item.CustomerEmail,
		CustomerPhone:   item.CustomerPhone,
		CustomerMessage: item.CustomerMessage,
		CreatedAt:       formatTime(item.CreatedAt),
		UpdatedAt:       formatTime(item.UpdatedAt),
		AssignedTo:      item.AssignedTo,
		Priority:        string(item.Priority),
		MessageCount:    item.MessageCount,
		SessionID:       item.SessionToken,
		CustomerKey:     item.CustomerKey,
	}
	if item.LastMessageAt != nil {
		resp.LastMessageTime = formatTime(*item.LastMessageAt)
	}
	return resp
}

func toMessageResponse(m model.MessageItem) dto.MessageResponse {
	return dto.MessageResponse{
		ID:        m.ID,
		Sender:    string(m.Sender),
		Message:   m.Body,
		CreatedAt: formatTime(m.CreatedAt),
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}
