package main

import (
	"context"
	"flag"
	"invitebot/bot"
	"invitebot/impl/auth"
	"invitebot/impl/core"
	"invitebot/internal/config"
	"invitebot/internal/database"
	"invitebot/internal/http-server/api"
	"invitebot/internal/links"
	"invitebot/internal/mtproto"
	"invitebot/internal/ratelimit"
	"invitebot/internal/scheduler"
	"invitebot/lib/logger"
	"invitebot/lib/sl"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	configPath := flag.String("conf", "config.yml", "path to config file")
	logPath := flag.String("log", "", "path to log file, overrides log_path from config")
	flag.Parse()

	conf := config.MustLoad(*configPath)
	if *logPath != "" {
		conf.LogPath = *logPath
	}
	log := logger.SetupLogger(conf.Env, conf.LogPath)
	log.With(
		slog.String("config", *configPath),
		slog.String("env", conf.Env),
	).Info("starting invitebot")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := database.New(ctx, conf, log)
	if err != nil {
		log.Error("store", sl.Err(err))
		os.Exit(1)
	}

	authService := auth.New(conf.Admins, conf.Listen.Token)

	tgBot, err := bot.NewTgBot(conf.Telegram.BotToken, log, bot.BotConfig{
		LogToAdmins:       conf.Telegram.LogToAdmins,
		DigestIntervalMin: conf.Telegram.DigestIntervalMin,
		SuperIds:          authService.SuperIds(),
	})
	if err != nil {
		log.Error("telegram bot", sl.Err(err))
		os.Exit(1)
	}
	// from here on warnings and errors also reach the super admins
	log = slog.New(logger.NewTelegramHandler(log.Handler(), tgBot, slog.LevelWarn))

	userClient := mtproto.New(conf, log)
	if err = userClient.Start(ctx); err != nil {
		log.Error("user account", sl.Err(err))
		os.Exit(1)
	}

	caller := ratelimit.New(log)
	caller.MaxRetries = conf.Limits.MaxRetries
	caller.FloodExtra = time.Duration(conf.Limits.FloodExtraSec) * time.Second

	chatId := conf.Telegram.TargetChatId
	creator := links.NewCreator(userClient, caller, chatId, ratelimit.Pacer{
		Base:   time.Duration(conf.Limits.CreateDelayMs) * time.Millisecond,
		Jitter: time.Duration(conf.Limits.CreateJitter) * time.Millisecond,
	}, log)
	lister := links.NewLister(userClient, caller, chatId, ratelimit.Pacer{
		Base:   time.Duration(conf.Sync.PageDelayMs) * time.Millisecond,
		Jitter: time.Duration(conf.Sync.PageJitterMs) * time.Millisecond,
	}, log)
	lister.PageLimit = conf.Sync.PageLimit

	sync := scheduler.New(lister, store, scheduler.Config{
		ChatId:         chatId,
		Interval:       time.Duration(conf.Sync.IntervalSec) * time.Second,
		IncludeRevoked: conf.Sync.IncludeRevoked,
	}, log)

	handler := core.New(creator, store, chatId, log)
	handler.SetAuthService(authService)
	handler.SetSyncer(sync)
	tgBot.SetCore(handler)

	go func() {
		if err := tgBot.Start(ctx); err != nil {
			log.Error("telegram bot", sl.Err(err))
		}
	}()

	if conf.Sync.Enabled {
		sync.Start(ctx)
	}

	var server *api.Server
	if conf.Listen.Enabled {
		server = api.New(conf, log, handler)
		go func() {
			if err := server.Start(); err != nil {
				log.Error("api server", sl.Err(err))
			}
		}()
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	sig := <-stop
	log.With(slog.String("signal", sig.String())).Info("shutting down")

	cancel()
	sync.Stop()
	tgBot.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if server != nil {
		if err = server.Shutdown(shutdownCtx); err != nil {
			log.Error("api shutdown", sl.Err(err))
		}
	}
	if err = store.Close(shutdownCtx); err != nil {
		log.Error("store close", sl.Err(err))
	}
	userClient.Stop()
	log.Info("stopped")
}
