package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HSouheill/ladli_lakshmi_backend/models"
	"github.com/HSouheill/ladli_lakshmi_backend/websocket"
)

type sentMail struct {
	to, replyTo, subject, body string
}

type fakeMailer struct {
	sent    []sentMail
	failFor map[string]error
}

func (m *fakeMailer) Send(to, subject, body string) (*models.DeliveryReceipt, error) {
	return m.SendWithReplyTo(to, "", subject, body)
}

func (m *fakeMailer) SendWithReplyTo(to, replyTo, subject, body string) (*models.DeliveryReceipt, error) {
	if err := m.failFor[to]; err != nil {
		return nil, err
	}
	m.sent = append(m.sent, sentMail{to: to, replyTo: replyTo, subject: subject, body: body})
	return &models.DeliveryReceipt{MessageID: "id", Recipient: to, SentAt: time.Now()}, nil
}

type fakeContactStore struct {
	saved  []*models.ContactMessage
	recent []models.ContactMessage
	err    error
}

func (s *fakeContactStore) Save(ctx context.Context, m *models.ContactMessage) error {
	if s.err != nil {
		return s.err
	}
	s.saved = append(s.saved, m)
	return nil
}

func (s *fakeContactStore) Recent(ctx context.Context, limit int64) ([]models.ContactMessage, error) {
	return s.recent, s.err
}

func decodeContact(t *testing.T, body []byte) models.ContactResponse {
	t.Helper()
	var resp models.ContactResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	return resp
}

const validContactBody = `{"email":"Asha@Example.com","fullname":"Asha <b>K</b>","message":"Hello there","phoneNo":"+961 3 123 456"}`

func TestContactSubmitSuccess(t *testing.T) {
	e := newTestEcho()
	mailer := &fakeMailer{}
	store := &fakeContactStore{}
	hub := &recordingHub{}
	cc := NewContactController(mailer, store, hub, "inbox@ladlilakshmi.org")

	c, rec := newContext(e, http.MethodPost, "/api/contact-us", validContactBody, "", "")
	require.NoError(t, cc.Submit(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeContact(t, rec.Body.Bytes())
	assert.True(t, resp.Success)
	assert.Equal(t, contactSuccessMessage, resp.Message)

	require.Len(t, mailer.sent, 2)
	assert.Equal(t, "asha@example.com", mailer.sent[0].to)
	assert.Contains(t, mailer.sent[0].body, "Asha &lt;b&gt;K&lt;/b&gt;")
	assert.Equal(t, "inbox@ladlilakshmi.org", mailer.sent[1].to)
	assert.Equal(t, "asha@example.com", mailer.sent[1].replyTo)
	assert.Contains(t, mailer.sent[1].body, "+9613123456")

	require.Len(t, store.saved, 1)
	assert.True(t, store.saved[0].Acknowledged)

	notes := hub.notifications()
	require.Len(t, notes, 1)
	assert.Equal(t, websocket.NotificationTypeContactSubmitted, notes[0].Type)
	assert.Equal(t, []string{"admin"}, hub.to)
}

func TestContactSubmitInvalidInput(t *testing.T) {
	bodies := []string{
		`{"email":"nope","fullname":"Asha","message":"Hi"}`,
		`{"email":"asha@example.com","fullname":"  ","message":"Hi"}`,
		`{"email":"asha@example.com","fullname":"Asha","message":""}`,
		`{not json`,
	}
	for _, body := range bodies {
		e := newTestEcho()
		mailer := &fakeMailer{}
		cc := NewContactController(mailer, &fakeContactStore{}, &recordingHub{}, "")

		c, rec := newContext(e, http.MethodPost, "/api/contact-us", body, "", "")
		require.NoError(t, cc.Submit(c))

		assert.Equal(t, http.StatusOK, rec.Code, body)
		resp := decodeContact(t, rec.Body.Bytes())
		assert.False(t, resp.Success, body)
		assert.Equal(t, contactInvalidMessage, resp.Message, body)
		assert.Empty(t, mailer.sent, body)
	}
}

func TestContactSubmitDeliveryFailure(t *testing.T) {
	e := newTestEcho()
	mailer := &fakeMailer{failFor: map[string]error{"asha@example.com": errors.New("smtp down")}}
	store := &fakeContactStore{}
	cc := NewContactController(mailer, store, nil, "")

	c, rec := newContext(e, http.MethodPost, "/api/contact-us", validContactBody, "", "")
	require.NoError(t, cc.Submit(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeContact(t, rec.Body.Bytes())
	assert.False(t, resp.Success)
	assert.Equal(t, contactFailureMessage, resp.Message)
	assert.NotContains(t, rec.Body.String(), "smtp down")

	// the submission is still kept for follow up
	require.Len(t, store.saved, 1)
	assert.False(t, store.saved[0].Acknowledged)
}

func TestContactSubmitIgnoresInvalidPhoneAndStoreFailure(t *testing.T) {
	e := newTestEcho()
	mailer := &fakeMailer{}
	cc := NewContactController(mailer, &fakeContactStore{err: errors.New("mongo down")}, nil, "")

	body := `{"email":"asha@example.com","fullname":"Asha","message":"Hi","phoneNo":"12"}`
	c, rec := newContext(e, http.MethodPost, "/api/contact-us", body, "", "")
	require.NoError(t, cc.Submit(c))

	assert.True(t, decodeContact(t, rec.Body.Bytes()).Success)
	require.Len(t, mailer.sent, 1)
}

func TestContactRecentMessages(t *testing.T) {
	e := newTestEcho()
	store := &fakeContactStore{recent: []models.ContactMessage{{ID: "c1", FullName: "Asha"}}}
	cc := NewContactController(&fakeMailer{}, store, nil, "")

	c, rec := newContext(e, http.MethodGet, "/api/admin/contact-messages", "", "admin", "admin")
	require.NoError(t, cc.RecentMessages(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"c1"`)

	store.err = errors.New("boom")
	c, rec = newContext(e, http.MethodGet, "/api/admin/contact-messages", "", "admin", "admin")
	require.NoError(t, cc.RecentMessages(c))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
