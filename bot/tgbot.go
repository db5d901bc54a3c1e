// Package bot implements the Telegram bot admins use to create invite links
// and download their statistics.
//
// Files:
//   - tgbot.go: TgBot lifecycle and the Core interface
//   - commands.go: /start, /menu, /total, /sync, /cancel, /help
//   - dialog.go: reply keyboard buttons and the creation dialog
//   - sessions.go: per-user dialog state
//   - callbacks.go: inline keyboards and gen: callbacks
//   - menus.go: per-role command menus
//   - messaging.go, digest.go: log forwarding to super admins
//   - helpers.go: Sanitize, plainResponse, reportError
//
// Creation flow:
//
//	"Create links" button, inline strategy menu, gen:<mode> callback opens a session,
//	text replies advance the session, Core.CreateLinks, links listed back to the user
//
// Handlers run on dispatcher goroutines, sessions are guarded by their own mutex.
package bot

import (
	"context"
	"fmt"
	"invitebot/entity"
	"invitebot/internal/export"
	"invitebot/lib/sl"
	"log/slog"
	"time"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"
	"github.com/PaulSonOfLars/gotgbot/v2/ext/handlers"
	"github.com/PaulSonOfLars/gotgbot/v2/ext/handlers/filters/callbackquery"
	"github.com/PaulSonOfLars/gotgbot/v2/ext/handlers/filters/message"
)

// BotConfig holds Telegram-specific configuration loaded from the YAML config file.
type BotConfig struct {
	LogToAdmins       bool
	DigestIntervalMin int
	SuperIds          []int64
}

// Core is the application layer the bot talks to. Implemented by impl/core.
type Core interface {
	Roles(id int64) entity.Roles
	RegisterUser(ctx context.Context, user *entity.User) error
	CreateLinks(ctx context.Context, ownerId int64, req *entity.CreateRequest) ([]entity.InviteLink, error)
	Stats(ctx context.Context, ownerId int64) (*export.File, error)
	TotalStats(ctx context.Context) (*export.File, error)
	SyncNow(ctx context.Context) error
}

type TgBot struct {
	log         *slog.Logger
	api         *tgbotapi.Bot
	core        Core
	ctx         context.Context
	sessions    *Sessions
	minLogLevel slog.Level
	updater     *ext.Updater
	digest      *DigestBuffer
	config      BotConfig
}

func NewTgBot(apiKey string, log *slog.Logger, cfg BotConfig) (*TgBot, error) {
	if cfg.DigestIntervalMin == 0 {
		cfg.DigestIntervalMin = 30
	}

	tgBot := &TgBot{
		log:         log.With(sl.Module("tgbot")),
		ctx:         context.Background(),
		sessions:    NewSessions(),
		minLogLevel: slog.LevelWarn,
		config:      cfg,
	}

	api, err := tgbotapi.NewBot(apiKey, nil)
	if err != nil {
		return nil, fmt.Errorf("creating api instance: %v", err)
	}
	tgBot.api = api

	return tgBot, nil
}

// SetCore must be called before Start.
func (t *TgBot) SetCore(core Core) {
	t.core = core
}

// Start registers handlers and polls for updates until Stop is called.
// ctx is passed to every core call made by the handlers.
func (t *TgBot) Start(ctx context.Context) error {
	t.ctx = ctx

	interval := time.Duration(t.config.DigestIntervalMin) * time.Minute
	t.digest = NewDigestBuffer(t, interval)
	t.digest.StartTicker()

	dispatcher := ext.NewDispatcher(&ext.DispatcherOpts{
		Error: func(b *tgbotapi.Bot, ctx *ext.Context, err error) ext.DispatcherAction {
			t.log.Error("handling update:", sl.Err(err))
			return ext.DispatcherActionNoop
		},
		MaxRoutines: ext.DefaultMaxRoutines,
	})
	t.updater = ext.NewUpdater(dispatcher, nil)

	// Commands
	dispatcher.AddHandler(handlers.NewCommand("start", t.start))
	dispatcher.AddHandler(handlers.NewCommand("menu", t.menu))
	dispatcher.AddHandler(handlers.NewCommand("cancel", t.cancel))
	dispatcher.AddHandler(handlers.NewCommand("help", t.help))
	dispatcher.AddHandler(handlers.NewCommand("total", t.total))
	dispatcher.AddHandler(handlers.NewCommand("sync", t.syncCmd))

	// Menu buttons and dialog replies
	dispatcher.AddHandler(handlers.NewMessage(message.Text, t.onText))

	// Callback query handlers
	dispatcher.AddHandler(handlers.NewCallback(callbackquery.Prefix(cbGenerate), t.onGenerateCallback))

	t.setDefaultCommands()
	t.syncAdminMenus()

	err := t.updater.StartPolling(t.api, &ext.PollingOpts{
		DropPendingUpdates: true,
		GetUpdatesOpts: &tgbotapi.GetUpdatesOpts{
			Timeout: 9,
			RequestOpts: &tgbotapi.RequestOpts{
				Timeout: time.Second * 10,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to start polling: %w", err)
	}
	t.log.With(slog.String("username", t.api.Username)).Info("bot started")

	t.updater.Idle()
	return nil
}

func (t *TgBot) Stop() {
	if t.updater != nil {
		t.log.Info("stopping telegram bot")
		t.updater.Stop()
	}
	if t.digest != nil {
		t.digest.Stop()
	}
}

func (t *TgBot) roles(id int64) entity.Roles {
	if t.core == nil {
		return entity.Roles{}
	}
	return t.core.Roles(id)
}

func (t *TgBot) canCreate(id int64) bool {
	return t.roles(id).HasAny(entity.RoleSuper, entity.RoleBuyer)
}

func (t *TgBot) isSuper(id int64) bool {
	return t.roles(id).HasAny(entity.RoleSuper)
}

func isPrivate(ctx *ext.Context) bool {
	return ctx.EffectiveChat != nil && ctx.EffectiveChat.Type == "private"
}
