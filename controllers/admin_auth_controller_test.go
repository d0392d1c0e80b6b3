package controllers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/HSouheill/ladli_lakshmi_backend/middleware"
	"github.com/HSouheill/ladli_lakshmi_backend/services"
)

const (
	testAdminEmail    = "admin@ladlilakshmi.org"
	testAdminPassword = "s3cret-pass"
	testJWTSecret     = "controller-test-secret"
)

type fakeOTP struct {
	issued    []string
	issueErr  error
	verifyErr error
}

func (f *fakeOTP) Issue(ctx context.Context, email string) error {
	if f.issueErr != nil {
		return f.issueErr
	}
	f.issued = append(f.issued, email)
	return nil
}

func (f *fakeOTP) Verify(ctx context.Context, email, code string) error {
	return f.verifyErr
}

func (f *fakeOTP) Expiry() time.Duration { return 5 * time.Minute }

func newAdminAuth(t *testing.T, otp *fakeOTP, blacklist *middleware.TokenBlacklist) *AdminAuthController {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testAdminPassword), bcrypt.MinCost)
	require.NoError(t, err)
	return NewAdminAuthController(otp, AdminCredentials{
		Email:        " Admin@LadliLakshmi.org ",
		PasswordHash: string(hash),
	}, testJWTSecret, time.Hour, blacklist)
}

func TestAdminLogin(t *testing.T) {
	e := newTestEcho()
	otp := &fakeOTP{}
	ac := newAdminAuth(t, otp, nil)

	body := fmt.Sprintf(`{"email":"%s","password":"%s"}`, "ADMIN@ladlilakshmi.org", testAdminPassword)
	c, rec := newContext(e, http.MethodPost, "/api/admin/login", body, "", "")
	require.NoError(t, ac.Login(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{testAdminEmail}, otp.issued)
	resp := decodeResponse(t, rec)
	assert.Equal(t, float64(300), resp.Data.(map[string]interface{})["expiresIn"])
}

func TestAdminLoginRejections(t *testing.T) {
	cases := []struct {
		name string
		body string
		code int
	}{
		{"missing password", `{"email":"admin@ladlilakshmi.org"}`, http.StatusBadRequest},
		{"malformed", `{`, http.StatusBadRequest},
		{"wrong password", `{"email":"admin@ladlilakshmi.org","password":"nope"}`, http.StatusUnauthorized},
		{"wrong email", fmt.Sprintf(`{"email":"x@ladlilakshmi.org","password":"%s"}`, testAdminPassword), http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := newTestEcho()
			otp := &fakeOTP{}
			ac := newAdminAuth(t, otp, nil)

			c, rec := newContext(e, http.MethodPost, "/api/admin/login", tc.body, "", "")
			require.NoError(t, ac.Login(c))
			assert.Equal(t, tc.code, rec.Code)
			assert.Empty(t, otp.issued)
		})
	}
}

func TestAdminLoginOTPDeliveryFailure(t *testing.T) {
	e := newTestEcho()
	ac := newAdminAuth(t, &fakeOTP{issueErr: fmt.Errorf("%w: dial tcp", services.ErrOTPDelivery)}, nil)

	body := fmt.Sprintf(`{"email":"%s","password":"%s"}`, testAdminEmail, testAdminPassword)
	c, rec := newContext(e, http.MethodPost, "/api/admin/login", body, "", "")
	require.NoError(t, ac.Login(c))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "Failed to send OTP email", decodeResponse(t, rec).Message)

	ac = newAdminAuth(t, &fakeOTP{issueErr: errors.New("redis down")}, nil)
	c, rec = newContext(e, http.MethodPost, "/api/admin/login", body, "", "")
	require.NoError(t, ac.Login(c))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestAdminVerifyOTP(t *testing.T) {
	e := newTestEcho()
	ac := newAdminAuth(t, &fakeOTP{}, nil)

	body := fmt.Sprintf(`{"email":"%s","otp":"123456"}`, testAdminEmail)
	c, rec := newContext(e, http.MethodPost, "/api/admin/verify-otp", body, "", "")
	require.NoError(t, ac.VerifyOTP(c))
	require.Equal(t, http.StatusOK, rec.Code)

	data := decodeResponse(t, rec).Data.(map[string]interface{})
	assert.Equal(t, middleware.UserTypeAdmin, data["userType"])

	claims := &middleware.JwtCustomClaims{}
	token, err := jwt.ParseWithClaims(data["token"].(string), claims, func(*jwt.Token) (interface{}, error) {
		return []byte(testJWTSecret), nil
	})
	require.NoError(t, err)
	assert.True(t, token.Valid)
	assert.Equal(t, middleware.UserTypeAdmin, claims.UserType)
	assert.Equal(t, testAdminEmail, claims.Email)
}

func TestAdminVerifyOTPFailures(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"expired", services.ErrOTPExpired, http.StatusUnauthorized},
		{"invalid", services.ErrOTPInvalid, http.StatusUnauthorized},
		{"too many", services.ErrTooManyAttempts, http.StatusTooManyRequests},
		{"store failure", errors.New("redis down"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := newTestEcho()
			ac := newAdminAuth(t, &fakeOTP{verifyErr: tc.err}, nil)

			body := fmt.Sprintf(`{"email":"%s","otp":"123456"}`, testAdminEmail)
			c, rec := newContext(e, http.MethodPost, "/api/admin/verify-otp", body, "", "")
			require.NoError(t, ac.VerifyOTP(c))
			assert.Equal(t, tc.code, rec.Code)
		})
	}

	e := newTestEcho()
	ac := newAdminAuth(t, &fakeOTP{}, nil)
	c, rec := newContext(e, http.MethodPost, "/api/admin/verify-otp", `{"email":"admin@ladlilakshmi.org","otp":"12ab"}`, "", "")
	require.NoError(t, ac.VerifyOTP(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminLogout(t *testing.T) {
	e := newTestEcho()
	blacklist := middleware.NewTokenBlacklist()
	ac := newAdminAuth(t, &fakeOTP{}, blacklist)

	c, rec := newContext(e, http.MethodPost, "/api/auth/logout", "", "m1", middleware.UserTypeMember)
	c.Get("user").(*jwt.Token).Claims.(*middleware.JwtCustomClaims).ExpiresAt = time.Now().Add(time.Hour).Unix()
	require.NoError(t, ac.Logout(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, blacklist.Contains("raw-token-m1"))

	c, rec = newContext(e, http.MethodPost, "/api/auth/logout", "", "", "")
	require.NoError(t, ac.Logout(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
