package controllers

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/HSouheill/ladli_lakshmi_backend/middleware"
	"github.com/HSouheill/ladli_lakshmi_backend/models"
	"github.com/HSouheill/ladli_lakshmi_backend/websocket"
)

type testValidator struct {
	v *validator.Validate
}

func (tv *testValidator) Validate(i interface{}) error {
	return tv.v.Struct(i)
}

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = &testValidator{v: validator.New()}
	return e
}

// newContext builds a request context. A non-empty userID authenticates it
// as if the JWT middleware had run.
func newContext(e *echo.Echo, method, target, body, userID, userType string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if userID != "" {
		c.Set("user", &jwt.Token{
			Raw: "raw-token-" + userID,
			Claims: &middleware.JwtCustomClaims{
				UserID:   userID,
				UserType: userType,
			},
			Valid: true,
		})
	}
	return c, rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) models.Response {
	t.Helper()
	var resp models.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

type recordingHub struct {
	mu     sync.Mutex
	sent   []websocket.Notification
	to     []string
	direct map[string][]websocket.Notification
}

func (h *recordingHub) SendToUser(userID string, n websocket.Notification) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.direct == nil {
		h.direct = map[string][]websocket.Notification{}
	}
	h.direct[userID] = append(h.direct[userID], n)
}

func (h *recordingHub) sentTo(userID string) []websocket.Notification {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]websocket.Notification(nil), h.direct[userID]...)
}

func (h *recordingHub) BroadcastToType(userType string, n websocket.Notification) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.to = append(h.to, userType)
	h.sent = append(h.sent, n)
}

func (h *recordingHub) notifications() []websocket.Notification {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]websocket.Notification(nil), h.sent...)
}
