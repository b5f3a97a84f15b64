package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/athanhub/athan-notify/internal/config"
	"github.com/athanhub/athan-notify/internal/store"
	"github.com/athanhub/athan-notify/internal/telegram"
)

type nopRegistrar struct {
	registered []int64
	removed    []int64
}

func (r *nopRegistrar) Register(ctx context.Context, chatID int64, lat, lon float64) error {
	r.registered = append(r.registered, chatID)
	return nil
}

func (r *nopRegistrar) Unregister(ctx context.Context, chatID int64) error {
	r.removed = append(r.removed, chatID)
	return nil
}

func (r *nopRegistrar) Status(ctx context.Context, chatID int64) (*store.Subscriber, error) {
	return nil, store.ErrNotFound
}

type nopMessenger struct {
	sent []string
}

func (m *nopMessenger) Send(ctx context.Context, chatID int64, text string) error {
	m.sent = append(m.sent, text)
	return nil
}

func (m *nopMessenger) SendWithKeyboard(ctx context.Context, chatID int64, text string, kb telegram.ReplyKeyboard) error {
	m.sent = append(m.sent, text)
	return nil
}

func newWebhookHandler(secret string) (*Handler, *nopRegistrar, *nopMessenger) {
	reg := &nopRegistrar{}
	msg := &nopMessenger{}
	router := telegram.NewRouter(reg, msg, nil)
	cfg := &config.Config{WebhookSecret: secret}
	return New(nil, nil, router, cfg, nil), reg, msg
}

func TestWebhookRejectsBadSecret(t *testing.T) {
	h, _, _ := newWebhookHandler("s3cret")

	req := httptest.NewRequest(http.MethodPost, "/webhook/telegram", strings.NewReader(`{}`))
	req.Header.Set("X-Telegram-Bot-Api-Secret-Token", "wrong")
	rec := httptest.NewRecorder()

	h.Webhook(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestWebhookRejectsUndecodableBody(t *testing.T) {
	h, _, _ := newWebhookHandler("")

	req := httptest.NewRequest(http.MethodPost, "/webhook/telegram", strings.NewReader(`{not json`))
	rec := httptest.NewRecorder()

	h.Webhook(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhookRoutesLocationUpdate(t *testing.T) {
	h, reg, msg := newWebhookHandler("s3cret")

	body := `{"update_id":1,"message":{"chat":{"id":42},"location":{"latitude":30.05,"longitude":31.24}}}`
	req := httptest.NewRequest(http.MethodPost, "/webhook/telegram", strings.NewReader(body))
	req.Header.Set("X-Telegram-Bot-Api-Secret-Token", "s3cret")
	rec := httptest.NewRecorder()

	h.Webhook(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []int64{42}, reg.registered)
	require.Len(t, msg.sent, 1)
}

func TestHealthCheck(t *testing.T) {
	h, _, _ := newWebhookHandler("")

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	h.HealthCheck(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok"`)
}
