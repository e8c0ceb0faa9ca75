package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gorillaws "github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dealer-support-chat/internal/api"
	"dealer-support-chat/internal/api/middleware"
	"dealer-support-chat/internal/dto"
	"dealer-support-chat/internal/hours"
	internaljwt "dealer-support-chat/internal/jwt"
	"dealer-support-chat/internal/queue"
	"dealer-support-chat/internal/service/inquiry"
	"dealer-support-chat/internal/websocket"
)

const (
	prefix = "/api/chat"
	secret = "router-test-secret"
)

func newServer(t *testing.T) (*httptest.Server, *websocket.Hub) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := websocket.NewHub(zerolog.Nop())
	go hub.Run(ctx)

	rqm := queue.NewRequestQueueManager(16, 4, zerolog.Nop())
	t.Cleanup(rqm.Shutdown)

	svc := inquiry.New(inquiry.NewMemoryRepository(), inquiry.WithNotifier(hub))
	server := api.NewAPIServer(":0", rqm, api.Dependencies{
		Inquiries:  svc,
		Calendar:   hours.NewCalendar(time.UTC),
		Websocket:  websocket.NewHandler(hub, zerolog.Nop(), []string{"*"}),
		Hub:        hub,
		Logger:     zerolog.Nop(),
		AgentAuth:  middleware.ValidateAgentJWT(secret),
		Registerer: prometheus.NewRegistry(),
	},
		UtilsRoutes(prefix),
		InquiryRoutes(prefix),
		HoursRoutes(prefix),
		WebsocketRoutes(prefix),
	)

	ts := httptest.NewServer(server.Routes())
	t.Cleanup(ts.Close)
	return ts, hub
}

func agentToken(t *testing.T) string {
	t.Helper()
	tok, err := internaljwt.CreateToken(secret, internaljwt.Agent{ID: "agent-7", Name: "Robin"}, time.Hour, time.Now())
	require.NoError(t, err)
	return tok.AccessToken
}

func do(t *testing.T, method, url, token, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestStaffRoutesRequireAgentToken(t *testing.T) {
	ts, _ := newServer(t)

	staff := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/inquiries"},
		{http.MethodDelete, "/inquiries/abc"},
		{http.MethodDelete, "/messages/abc"},
		{http.MethodPost, "/reply"},
		{http.MethodPut, "/assign"},
		{http.MethodPut, "/unassign"},
		{http.MethodPut, "/status"},
	}
	for _, r := range staff {
		resp := do(t, r.method, ts.URL+prefix+r.path, "", "{}")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "%s %s", r.method, r.path)
	}

	resp := do(t, http.MethodGet, ts.URL+prefix+"/inquiries", agentToken(t), "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCustomerRoutesArePublic(t *testing.T) {
	ts, _ := newServer(t)

	resp := do(t, http.MethodPost, ts.URL+prefix+"/register", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var reg dto.RegisterResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&reg))

	resp = do(t, http.MethodGet, ts.URL+prefix+"/messages/"+reg.InquiryID, "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, http.MethodGet, ts.URL+prefix+"/business-hours", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, http.MethodGet, ts.URL+prefix+"/health", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestReplyUsesTokenAgent(t *testing.T) {
	ts, hub := newServer(t)

	resp := do(t, http.MethodPost, ts.URL+prefix+"/register", "", "")
	var reg dto.RegisterResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&reg))

	sub := websocket.NewSubscriber("test", 8)
	require.NoError(t, hub.Join(context.Background(), sub, reg.SessionID))

	body := `{"id":"` + reg.InquiryID + `","sessionId":"` + reg.SessionID + `","replyText":"On my way","agent":"spoofed"}`
	resp = do(t, http.MethodPost, ts.URL+prefix+"/reply", agentToken(t), body)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	select {
	case ev := <-sub.Events():
		assert.Equal(t, inquiry.EventAgentReply, ev.Name)
		var payload inquiry.AgentReplyPayload
		require.NoError(t, json.Unmarshal(ev.Payload, &payload))
		assert.Equal(t, "agent-7", payload.AgentID)
	case <-time.After(2 * time.Second):
		t.Fatal("no agent reply delivered")
	}
}

func TestWebsocketRoute(t *testing.T) {
	ts, hub := newServer(t)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + prefix + "/ws?room=" + inquiry.GlobalRoom
	conn, _, err := gorillaws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool {
		return hub.RoomSize(context.Background(), inquiry.GlobalRoom) == 1
	}, 2*time.Second, 10*time.Millisecond)
}
