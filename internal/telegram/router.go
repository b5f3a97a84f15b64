package telegram

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/athanhub/athan-notify/internal/prayer"
	"github.com/athanhub/athan-notify/internal/store"
)

// Registrar is the subscription surface the router drives — implemented
// by the engine.
type Registrar interface {
	Register(ctx context.Context, chatID int64, lat, lon float64) error
	Unregister(ctx context.Context, chatID int64) error
	Status(ctx context.Context, chatID int64) (*store.Subscriber, error)
}

// Messenger is the outbound surface the router replies through —
// implemented by Sender.
type Messenger interface {
	Send(ctx context.Context, chatID int64, text string) error
	SendWithKeyboard(ctx context.Context, chatID int64, text string, kb ReplyKeyboard) error
}

// Router turns incoming updates into subscription changes and replies.
type Router struct {
	registrar Registrar
	messenger Messenger
	logger    *slog.Logger
}

// NewRouter creates a Router.
func NewRouter(registrar Registrar, messenger Messenger, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{registrar: registrar, messenger: messenger, logger: logger}
}

// HandleUpdate processes one webhook update. Reply failures are logged,
// not returned: the webhook must always be acknowledged or Telegram
// redelivers the update.
func (r *Router) HandleUpdate(ctx context.Context, upd *Update) {
	if upd == nil || upd.Message == nil {
		return
	}
	msg := upd.Message
	chatID := msg.Chat.ID

	switch {
	case msg.Location != nil:
		if err := r.registrar.Register(ctx, chatID, msg.Location.Latitude, msg.Location.Longitude); err != nil {
			r.logger.Error("registration failed", "chat_id", chatID, "error", err)
			return
		}
		r.logger.Info("subscriber registered", "chat_id", chatID)
		r.reply(ctx, chatID, prayer.LocationSaved)

	case strings.HasPrefix(msg.Text, "/start"):
		kb := ReplyKeyboard{
			Keyboard: [][]KeyboardButton{
				{{Text: prayer.ShareLocationButton, RequestLocation: true}},
			},
			ResizeKeyboard: true,
		}
		if err := r.messenger.SendWithKeyboard(ctx, chatID, prayer.Welcome, kb); err != nil {
			r.logger.Warn("welcome reply failed", "chat_id", chatID, "error", err)
		}

	case strings.HasPrefix(msg.Text, "/stop"):
		if err := r.registrar.Unregister(ctx, chatID); err != nil {
			r.logger.Error("unregister failed", "chat_id", chatID, "error", err)
			return
		}
		r.logger.Info("subscriber removed", "chat_id", chatID)
		r.reply(ctx, chatID, prayer.Stopped)

	case strings.HasPrefix(msg.Text, "/status"):
		sub, err := r.registrar.Status(ctx, chatID)
		switch {
		case errors.Is(err, store.ErrNotFound):
			r.reply(ctx, chatID, prayer.StatusInactive)
		case err != nil:
			r.logger.Error("status lookup failed", "chat_id", chatID, "error", err)
		default:
			r.reply(ctx, chatID, prayer.StatusMessage(sub.Timezone))
		}

	case msg.Text != "":
		r.reply(ctx, chatID, prayer.Help)
	}
}

func (r *Router) reply(ctx context.Context, chatID int64, text string) {
	if err := r.messenger.Send(ctx, chatID, text); err != nil {
		r.logger.Warn("reply failed", "chat_id", chatID, "error", err)
	}
}
