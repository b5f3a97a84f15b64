package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/athanhub/athan-notify/internal/prayer"
	"github.com/athanhub/athan-notify/internal/store"
)

// --------------------------------------------------------------------------
// Sender
// --------------------------------------------------------------------------

func TestSenderSend(t *testing.T) {
	var gotPath string
	var gotForm map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, r.ParseForm())
		gotForm = r.PostForm
		fmt.Fprint(w, `{"ok":true}`)
	}))
	defer srv.Close()

	s := NewSender("123:abc", srv.URL, nil)
	require.NoError(t, s.Send(context.Background(), 42, "hello"))

	assert.Equal(t, "/bot123:abc/sendMessage", gotPath)
	assert.Equal(t, []string{"42"}, gotForm["chat_id"])
	assert.Equal(t, []string{"hello"}, gotForm["text"])
}

func TestSenderWithKeyboard(t *testing.T) {
	var markup string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		markup = r.PostFormValue("reply_markup")
		fmt.Fprint(w, `{"ok":true}`)
	}))
	defer srv.Close()

	s := NewSender("123:abc", srv.URL, nil)
	kb := ReplyKeyboard{
		Keyboard:       [][]KeyboardButton{{{Text: "share", RequestLocation: true}}},
		ResizeKeyboard: true,
	}
	require.NoError(t, s.SendWithKeyboard(context.Background(), 42, "hi", kb))

	var decoded ReplyKeyboard
	require.NoError(t, json.Unmarshal([]byte(markup), &decoded))
	assert.True(t, decoded.Keyboard[0][0].RequestLocation)
}

func TestSenderAPIFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"ok":false,"description":"chat not found"}`)
	}))
	defer srv.Close()

	s := NewSender("123:abc", srv.URL, nil)
	err := s.Send(context.Background(), 42, "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat not found")
}

func TestSenderRegisterWebhook(t *testing.T) {
	var gotPath, gotURL, gotSecret string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, r.ParseForm())
		gotURL = r.PostFormValue("url")
		gotSecret = r.PostFormValue("secret_token")
		fmt.Fprint(w, `{"ok":true}`)
	}))
	defer srv.Close()

	s := NewSender("123:abc", srv.URL, nil)
	require.NoError(t, s.RegisterWebhook(context.Background(), "https://example.org/webhook", "s3cret"))

	assert.Equal(t, "/bot123:abc/setWebhook", gotPath)
	assert.Equal(t, "https://example.org/webhook", gotURL)
	assert.Equal(t, "s3cret", gotSecret)
}

// --------------------------------------------------------------------------
// Router
// --------------------------------------------------------------------------

type fakeRegistrar struct {
	registered   []int64
	unregistered []int64
	lat, lon     float64
	sub          *store.Subscriber
}

func (f *fakeRegistrar) Register(ctx context.Context, chatID int64, lat, lon float64) error {
	f.registered = append(f.registered, chatID)
	f.lat, f.lon = lat, lon
	return nil
}

func (f *fakeRegistrar) Unregister(ctx context.Context, chatID int64) error {
	f.unregistered = append(f.unregistered, chatID)
	return nil
}

func (f *fakeRegistrar) Status(ctx context.Context, chatID int64) (*store.Subscriber, error) {
	if f.sub == nil || f.sub.ChatID != chatID {
		return nil, store.ErrNotFound
	}
	return f.sub, nil
}

type fakeMessenger struct {
	texts     []string
	keyboards []ReplyKeyboard
}

func (f *fakeMessenger) Send(ctx context.Context, chatID int64, text string) error {
	f.texts = append(f.texts, text)
	return nil
}

func (f *fakeMessenger) SendWithKeyboard(ctx context.Context, chatID int64, text string, kb ReplyKeyboard) error {
	f.texts = append(f.texts, text)
	f.keyboards = append(f.keyboards, kb)
	return nil
}

func TestRouterStart(t *testing.T) {
	reg := &fakeRegistrar{}
	msgr := &fakeMessenger{}
	r := NewRouter(reg, msgr, nil)

	r.HandleUpdate(context.Background(), &Update{Message: &Message{Chat: Chat{ID: 42}, Text: "/start"}})

	require.Len(t, msgr.texts, 1)
	assert.Equal(t, prayer.Welcome, msgr.texts[0])
	require.Len(t, msgr.keyboards, 1)
	assert.True(t, msgr.keyboards[0].Keyboard[0][0].RequestLocation)
	assert.Empty(t, reg.registered)
}

func TestRouterLocation(t *testing.T) {
	reg := &fakeRegistrar{}
	msgr := &fakeMessenger{}
	r := NewRouter(reg, msgr, nil)

	r.HandleUpdate(context.Background(), &Update{Message: &Message{
		Chat:     Chat{ID: 42},
		Location: &Location{Latitude: 51.5, Longitude: -0.12},
	}})

	require.Equal(t, []int64{42}, reg.registered)
	assert.Equal(t, 51.5, reg.lat)
	assert.Equal(t, -0.12, reg.lon)
	require.Len(t, msgr.texts, 1)
	assert.Equal(t, prayer.LocationSaved, msgr.texts[0])
}

func TestRouterStop(t *testing.T) {
	reg := &fakeRegistrar{}
	msgr := &fakeMessenger{}
	r := NewRouter(reg, msgr, nil)

	r.HandleUpdate(context.Background(), &Update{Message: &Message{Chat: Chat{ID: 42}, Text: "/stop"}})

	assert.Equal(t, []int64{42}, reg.unregistered)
	require.Len(t, msgr.texts, 1)
	assert.Equal(t, prayer.Stopped, msgr.texts[0])
}

func TestRouterStatusActive(t *testing.T) {
	reg := &fakeRegistrar{sub: &store.Subscriber{ChatID: 42, Timezone: "Africa/Cairo"}}
	msgr := &fakeMessenger{}
	r := NewRouter(reg, msgr, nil)

	r.HandleUpdate(context.Background(), &Update{Message: &Message{Chat: Chat{ID: 42}, Text: "/status"}})

	require.Len(t, msgr.texts, 1)
	assert.Contains(t, msgr.texts[0], "Africa/Cairo")
}

func TestRouterStatusInactive(t *testing.T) {
	reg := &fakeRegistrar{}
	msgr := &fakeMessenger{}
	r := NewRouter(reg, msgr, nil)

	r.HandleUpdate(context.Background(), &Update{Message: &Message{Chat: Chat{ID: 42}, Text: "/status"}})

	require.Len(t, msgr.texts, 1)
	assert.Equal(t, prayer.StatusInactive, msgr.texts[0])
}

func TestRouterFallbackAndEmpty(t *testing.T) {
	reg := &fakeRegistrar{}
	msgr := &fakeMessenger{}
	r := NewRouter(reg, msgr, nil)

	r.HandleUpdate(context.Background(), &Update{Message: &Message{Chat: Chat{ID: 42}, Text: "hello?"}})
	require.Len(t, msgr.texts, 1)
	assert.Equal(t, prayer.Help, msgr.texts[0])

	// Updates without a message are ignored.
	r.HandleUpdate(context.Background(), &Update{})
	r.HandleUpdate(context.Background(), nil)
	assert.Len(t, msgr.texts, 1)
}
