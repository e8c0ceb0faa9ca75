package endpoints

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dealer-support-chat/internal/api"
	"dealer-support-chat/internal/dto"
	"dealer-support-chat/internal/hours"
	"dealer-support-chat/internal/model"
	"dealer-support-chat/internal/queue"
	"dealer-support-chat/internal/service/inquiry"
)

const testPrefix = "/api/chat"

var wednesdayMorning = time.Date(2024, 3, 6, 11, 0, 0, 0, time.UTC)

type failingRepository struct {
	*inquiry.MemoryRepository
}

func (failingRepository) ListInquiries(ctx context.Context) ([]model.InquiryItem, error) {
	return nil, errors.New("connection refused")
}

func newTestServer(t *testing.T, repo inquiry.Repository, now time.Time) *httptest.Server {
	t.Helper()

	clock := func() time.Time { return now }
	rqm := queue.NewRequestQueueManager(16, 4, zerolog.Nop())
	t.Cleanup(rqm.Shutdown)

	svc := inquiry.NewWithRepository(repo, clock)
	server := api.NewAPIServer(":0", rqm, api.Dependencies{
		Inquiries:   svc,
		Calendar:    hours.NewCalendar(time.UTC),
		Logger:      zerolog.Nop(),
		CORSOrigins: []string{"http://dealer.example"},
		Registerer:  prometheus.NewRegistry(),
		Now:         clock,
	}, func(mux *http.ServeMux, s *api.APIServer) {
		e := NewInquiryEndpoints(s.Inquiries(), testPrefix)
		mux.HandleFunc(testPrefix+"/register", s.MakeHTTPHandleFunc(e.Register))
		mux.HandleFunc(testPrefix+"/message", s.MakeHTTPHandleFunc(e.Message))
		mux.HandleFunc(testPrefix+"/my-inquiries", s.MakeHTTPHandleFunc(e.MyInquiries))
		mux.HandleFunc(testPrefix+"/after-hours-inquiry", s.MakeHTTPHandleFunc(e.AfterHours))
		mux.HandleFunc(testPrefix+"/messages/", s.MakeHTTPHandleFunc(e.Messages))
		mux.HandleFunc(testPrefix+"/inquiries", s.MakeHTTPHandleFunc(e.Inquiries))
		mux.HandleFunc(testPrefix+"/inquiries/", s.MakeHTTPHandleFunc(e.Inquiry))
		mux.HandleFunc(testPrefix+"/reply", s.MakeHTTPHandleFunc(e.Reply))
		mux.HandleFunc(testPrefix+"/assign", s.MakeHTTPHandleFunc(e.Assign))
		mux.HandleFunc(testPrefix+"/unassign", s.MakeHTTPHandleFunc(e.Unassign))
		mux.HandleFunc(testPrefix+"/status", s.MakeHTTPHandleFunc(e.Status))

		h := NewHoursEndpoints(s.Calendar(), s.Now)
		mux.HandleFunc(testPrefix+"/business-hours", s.MakeHTTPHandleFunc(h.BusinessHours))

		u := NewUtilsEndpoints(nil)
		mux.HandleFunc(testPrefix+"/health", s.MakeHTTPHandleFunc(u.Health))
	})

	ts := httptest.NewServer(server.Routes())
	t.Cleanup(ts.Close)
	return ts
}

func doJSON(t *testing.T, method, url string, body any, out any) int {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func register(t *testing.T, ts *httptest.Server) dto.RegisterResponse {
	t.Helper()
	var reg dto.RegisterResponse
	status := doJSON(t, http.MethodPost, ts.URL+testPrefix+"/register", dto.RegisterRequest{CustomerName: "Dana"}, &reg)
	require.Equal(t, http.StatusOK, status)
	require.True(t, reg.Success)
	return reg
}

func TestRegisterAndMessageFlow(t *testing.T) {
	ts := newTestServer(t, inquiry.NewMemoryRepository(), wednesdayMorning)

	reg := register(t, ts)
	assert.NotEmpty(t, reg.SessionID)
	assert.NotEmpty(t, reg.CustomerKey)
	assert.NotEmpty(t, reg.InquiryID)
	assert.False(t, reg.Returning)

	var again dto.RegisterResponse
	status := doJSON(t, http.MethodPost, ts.URL+testPrefix+"/register", dto.RegisterRequest{SessionID: reg.SessionID}, &again)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, again.Returning)
	assert.Equal(t, reg.InquiryID, again.InquiryID)

	var msg dto.PostMessageResponse
	status = doJSON(t, http.MethodPost, ts.URL+testPrefix+"/message", dto.PostMessageRequest{
		SessionID:   reg.SessionID,
		CustomerKey: reg.CustomerKey,
		Message:     "Hello",
	}, &msg)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, reg.InquiryID, msg.InquiryID)
	assert.NotEmpty(t, msg.AIResponse)
	assert.False(t, msg.NeedsHumanAgent)
	assert.Equal(t, string(model.InquiryStatusAIHandled), msg.Status)

	var messages []dto.MessageResponse
	status = doJSON(t, http.MethodGet, ts.URL+testPrefix+"/messages/"+reg.InquiryID, nil, &messages)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, messages, 3)
	assert.Equal(t, "ai", messages[0].Sender)
	assert.Equal(t, "user", messages[1].Sender)
	assert.Equal(t, "Hello", messages[1].Message)
	assert.Equal(t, "ai", messages[2].Sender)

	var mine []dto.InquiryResponse
	status = doJSON(t, http.MethodGet, ts.URL+testPrefix+"/my-inquiries?customerKey="+reg.CustomerKey, nil, &mine)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, mine, 1)
	assert.Equal(t, reg.InquiryID, mine[0].ID)
	assert.Equal(t, 3, mine[0].MessageCount)
}

func TestRegisterWithoutBody(t *testing.T) {
	ts := newTestServer(t, inquiry.NewMemoryRepository(), wednesdayMorning)

	var reg dto.RegisterResponse
	status := doJSON(t, http.MethodPost, ts.URL+testPrefix+"/register", nil, &reg)
	require.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, reg.SessionID)
}

func TestErrorMapping(t *testing.T) {
	ts := newTestServer(t, inquiry.NewMemoryRepository(), wednesdayMorning)

	tests := []struct {
		name    string
		method  string
		path    string
		body    any
		status  int
		message string
	}{
		{"missing message", http.MethodPost, "/message", dto.PostMessageRequest{SessionID: "abc"}, http.StatusBadRequest, "message is required"},
		{"unknown session", http.MethodPost, "/message", dto.PostMessageRequest{SessionID: strings.Repeat("a", 64), Message: "hi"}, http.StatusNotFound, ""},
		{"missing customer key", http.MethodGet, "/my-inquiries", nil, http.StatusBadRequest, "customerKey is required"},
		{"unknown inquiry messages", http.MethodGet, "/messages/nope", nil, http.StatusNotFound, "inquiry not found"},
		{"delete unknown message", http.MethodDelete, "/messages/nope", nil, http.StatusNotFound, "message not found"},
		{"delete unknown inquiry", http.MethodDelete, "/inquiries/nope", nil, http.StatusNotFound, "inquiry not found"},
		{"nested inquiry path", http.MethodDelete, "/inquiries/a/b", nil, http.StatusNotFound, "Inquiry not found"},
		{"invalid status", http.MethodPut, "/status", dto.StatusRequest{ID: "x", Status: "after_hours"}, http.StatusBadRequest, ""},
		{"method not allowed", http.MethodGet, "/reply", nil, http.StatusMethodNotAllowed, "Method not allowed."},
		{"after hours without name", http.MethodPost, "/after-hours-inquiry", dto.AfterHoursRequest{Message: "call me"}, http.StatusBadRequest, "customerName is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var apiErr api.ApiError
			status := doJSON(t, tt.method, ts.URL+testPrefix+tt.path, tt.body, &apiErr)
			assert.Equal(t, tt.status, status)
			assert.False(t, apiErr.Success)
			if tt.message != "" {
				assert.Equal(t, tt.message, apiErr.Error)
			} else {
				assert.NotEmpty(t, apiErr.Error)
			}
		})
	}
}

func TestMalformedBody(t *testing.T) {
	ts := newTestServer(t, inquiry.NewMemoryRepository(), wednesdayMorning)

	resp, err := http.Post(ts.URL+testPrefix+"/message", "application/json", strings.NewReader("{not json"))
	require.NoError(t, err)
	defer resp.Body.Close()

	var apiErr api.ApiError
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&apiErr))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Invalid request payload", apiErr.Error)
}

func TestStoreFailureIsReportedGenerically(t *testing.T) {
	ts := newTestServer(t, failingRepository{inquiry.NewMemoryRepository()}, wednesdayMorning)

	var apiErr api.ApiError
	status := doJSON(t, http.MethodGet, ts.URL+testPrefix+"/inquiries", nil, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "Internal server error", apiErr.Error)
	assert.NotContains(t, apiErr.Error, "connection refused")
}

func TestAgentWorkflow(t *testing.T) {
	ts := newTestServer(t, inquiry.NewMemoryRepository(), wednesdayMorning)
	reg := register(t, ts)

	var reply dto.ReplyResponse
	status := doJSON(t, http.MethodPost, ts.URL+testPrefix+"/reply", dto.ReplyRequest{
		ID:        reg.InquiryID,
		SessionID: reg.SessionID,
		ReplyText: "The Civic is in stock.",
		Agent:     "agent-7",
	}, &reply)
	require.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, reply.MessageID)
	assert.Equal(t, string(model.InquiryStatusResponded), reply.Status)

	var list []dto.InquiryResponse
	status = doJSON(t, http.MethodGet, ts.URL+testPrefix+"/inquiries", nil, &list)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, list, 1)
	require.NotNil(t, list[0].AssignedTo)
	assert.Equal(t, "agent-7", *list[0].AssignedTo)

	var updated dto.InquiryUpdateResponse
	status = doJSON(t, http.MethodPut, ts.URL+testPrefix+"/unassign", dto.UnassignRequest{ID: reg.InquiryID}, &updated)
	require.Equal(t, http.StatusOK, status)
	assert.Nil(t, updated.Inquiry.AssignedTo)

	status = doJSON(t, http.MethodPut, ts.URL+testPrefix+"/assign", dto.AssignRequest{ID: reg.InquiryID, Agent: "agent-9"}, &updated)
	require.Equal(t, http.StatusOK, status)
	require.NotNil(t, updated.Inquiry.AssignedTo)
	assert.Equal(t, "agent-9", *updated.Inquiry.AssignedTo)

	status = doJSON(t, http.MethodPut, ts.URL+testPrefix+"/status", dto.StatusRequest{ID: reg.InquiryID, Status: "closed"}, &updated)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, string(model.InquiryStatusClosed), updated.Inquiry.Status)

	var messages []dto.MessageResponse
	doJSON(t, http.MethodGet, ts.URL+testPrefix+"/messages/"+reg.InquiryID, nil, &messages)
	require.Len(t, messages, 2)

	var ok dto.SuccessResponse
	status = doJSON(t, http.MethodDelete, ts.URL+testPrefix+"/messages/"+messages[1].ID, nil, &ok)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, ok.Success)

	status = doJSON(t, http.MethodDelete, ts.URL+testPrefix+"/inquiries/"+reg.InquiryID, nil, &ok)
	require.Equal(t, http.StatusOK, status)

	var apiErr api.ApiError
	status = doJSON(t, http.MethodGet, ts.URL+testPrefix+"/messages/"+reg.InquiryID, nil, &apiErr)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestAfterHoursInquiry(t *testing.T) {
	saturday := time.Date(2024, 3, 9, 10, 0, 0, 0, time.UTC)
	ts := newTestServer(t, inquiry.NewMemoryRepository(), saturday)

	var bh dto.BusinessHoursResponse
	status := doJSON(t, http.MethodGet, ts.URL+testPrefix+"/business-hours", nil, &bh)
	require.Equal(t, http.StatusOK, status)
	assert.False(t, bh.IsBusinessHours)
	assert.Equal(t, "2024-03-09T10:00:00Z", bh.CurrentTime)

	var resp dto.AfterHoursResponse
	status = doJSON(t, http.MethodPost, ts.URL+testPrefix+"/after-hours-inquiry", dto.AfterHoursRequest{
		CustomerName:  "Sam",
		CustomerEmail: "sam@example.com",
		Message:       "Please call me about the truck",
	}, &resp)
	require.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, resp.InquiryID)

	var list []dto.InquiryResponse
	doJSON(t, http.MethodGet, ts.URL+testPrefix+"/inquiries", nil, &list)
	require.Len(t, list, 1)
	assert.Equal(t, string(model.InquiryStatusAfterHours), list[0].Status)
	assert.Equal(t, "[After Hours] Please call me about the truck", list[0].CustomerMessage)
}

func TestBusinessHoursOpen(t *testing.T) {
	ts := newTestServer(t, inquiry.NewMemoryRepository(), wednesdayMorning)

	var bh dto.BusinessHoursResponse
	status := doJSON(t, http.MethodGet, ts.URL+testPrefix+"/business-hours", nil, &bh)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, bh.IsBusinessHours)
	assert.NotEmpty(t, bh.Message)
}

func TestHealthAndPreflight(t *testing.T) {
	ts := newTestServer(t, inquiry.NewMemoryRepository(), wednesdayMorning)

	var health dto.HealthResponse
	status := doJSON(t, http.MethodGet, ts.URL+testPrefix+"/health", nil, &health)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", health.Status)

	req, err := http.NewRequest(http.MethodOptions, ts.URL+testPrefix+"/message", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://dealer.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "http://dealer.example", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestPathID(t *testing.T) {
	id, err := pathID("/api/chat/messages/abc", "/api/chat/messages/", "Message")
	require.NoError(t, err)
	assert.Equal(t, "abc", id)

	for _, p := range []string{"/api/chat/messages/", "/api/chat/messages/a/b", "/other/abc"} {
		_, err := pathID(p, "/api/chat/messages/", "Message")
		var httpErr *HTTPError
		require.ErrorAs(t, err, &httpErr, p)
		assert.Equal(t, http.StatusNotFound, httpErr.StatusCode)
	}
}
