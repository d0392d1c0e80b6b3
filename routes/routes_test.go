package routes

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HSouheill/ladli_lakshmi_backend/controllers"
	"github.com/HSouheill/ladli_lakshmi_backend/middleware"
	"github.com/HSouheill/ladli_lakshmi_backend/websocket"
)

const testSecret = "routes-secret"

type structValidator struct{ v *validator.Validate }

func (s *structValidator) Validate(i interface{}) error { return s.v.Struct(i) }

func newServer(t *testing.T) (*echo.Echo, *middleware.TokenBlacklist) {
	t.Helper()
	e := echo.New()
	e.Validator = &structValidator{v: validator.New()}
	blacklist := middleware.NewTokenBlacklist()

	SetupRoutes(e, Handlers{
		AdminAuth: controllers.NewAdminAuthController(nil, controllers.AdminCredentials{Email: "admin@ladlilakshmi.org"}, testSecret, time.Hour, blacklist),
		Contact:   controllers.NewContactController(nil, nil, nil, ""),
		Team:      controllers.NewTeamController(nil, ""),
		Wallet:    controllers.NewWalletController(nil, nil, nil),
		Donation:  controllers.NewDonationController(nil, nil, nil, "", ""),
		Hub:       websocket.NewHub(),
	}, testSecret, blacklist)
	return e, blacklist
}

func token(t *testing.T, userType string) string {
	t.Helper()
	tok, _, err := middleware.GenerateJWT(testSecret, time.Hour, "u1", "u1@ladlilakshmi.org", userType)
	require.NoError(t, err)
	return tok
}

func serve(e *echo.Echo, method, target, body, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if bearer != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestPublicRoutes(t *testing.T) {
	e, _ := newServer(t)

	assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/health", "", "").Code)
	assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/metrics", "", "").Code)

	rec := serve(e, http.MethodPost, "/api/contact-us", `{"email":"bad"}`, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":false`)

	assert.Equal(t, http.StatusBadRequest, serve(e, http.MethodPost, "/api/admin/login", `{}`, "").Code)
	assert.Equal(t, http.StatusBadRequest, serve(e, http.MethodGet, "/api/whish/donation/callback/success", "", "").Code)
}

func TestContactFormSkipsJSONGuard(t *testing.T) {
	e, _ := newServer(t)
	e.Use(middleware.RequireJSON(ContactUsPath))

	post := func(target string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(`{"email":"a@b.co"}`))
		req.Header.Set(echo.HeaderContentType, "text/plain;charset=UTF-8")
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}

	rec := post(ContactUsPath)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":false`)

	assert.Equal(t, http.StatusUnsupportedMediaType, post("/api/admin/login").Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	e, _ := newServer(t)

	for _, target := range []string{"/api/team/matrix", "/api/team/matrix/count", "/api/team/referral-qrcode", "/api/admin/contact-messages"} {
		assert.Equal(t, http.StatusUnauthorized, serve(e, http.MethodGet, target, "", "").Code, target)
	}
	assert.Equal(t, http.StatusUnauthorized, serve(e, http.MethodPost, "/api/wallet/transfer", `{"amount":1}`, "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(e, http.MethodPost, "/api/donations", `{"amount":1}`, "").Code)
}

func TestAdminRoutesRejectMembers(t *testing.T) {
	e, _ := newServer(t)
	member := token(t, middleware.UserTypeMember)

	for _, target := range []string{"/api/admin/contact-messages", "/api/admin/donations/balance", "/api/admin/team/m1/matrix", "/api/admin/ws"} {
		assert.Equal(t, http.StatusForbidden, serve(e, http.MethodGet, target, "", member).Code, target)
	}
}

func TestLogoutInvalidatesToken(t *testing.T) {
	e, blacklist := newServer(t)
	member := token(t, middleware.UserTypeMember)

	rec := serve(e, http.MethodPost, "/api/auth/logout", "", member)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, blacklist.Contains(member))

	assert.Equal(t, http.StatusUnauthorized, serve(e, http.MethodGet, "/api/team/matrix", "", member).Code)
}
