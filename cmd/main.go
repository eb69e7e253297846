package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/Rubl1313-cmyk/nutrybudy-bot/config"
	"github.com/Rubl1313-cmyk/nutrybudy-bot/handlers"
	"github.com/Rubl1313-cmyk/nutrybudy-bot/routes"
	"github.com/Rubl1313-cmyk/nutrybudy-bot/scheduler"
	"github.com/Rubl1313-cmyk/nutrybudy-bot/services"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("configuration error")
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}

	config.InitDB(cfg.DatabaseURL)
	db := config.DB

	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		log.WithError(err).Fatal("telegram auth failed")
	}
	log.WithField("bot", api.Self.UserName).Info("authorized on telegram")

	transport := handlers.NewTelegramTransport(api)

	var labelAPI services.LabelAPI
	if cfg.AWSRegion != "" {
		rek, err := services.NewRekognitionService(context.Background(), cfg.AWSRegion)
		if err != nil {
			log.WithError(err).Warn("rekognition unavailable, photo fallback disabled")
		} else {
			labelAPI = rek
		}
	}

	ai := services.NewCloudflareAIService(cfg.CloudflareAccountID, cfg.CloudflareAPIToken)
	userService := services.NewUserService(db)

	bot := handlers.NewBot(handlers.Deps{
		Transport: transport,
		Log:       log,
		Users:     userService,
		Meals:     services.NewMealService(db),
		Water:     services.NewWaterService(db),
		Activity:  services.NewActivityService(db),
		Shopping:  services.NewShoppingService(db),
		Reminders: services.NewReminderService(db),
		Food:      services.NewOpenFoodFactsService(),
		Weather:   services.NewOpenMeteoService(log),
		Vision:    ai,
		Speech:    ai,
		Text:      ai,
		Labels:    labelAPI,
	})

	dispatcher := scheduler.New(
		services.NewReminderService(db),
		userService,
		func(chatID int64, text string) error { return transport.Send(chatID, text, nil) },
		log,
	)
	if err := dispatcher.Start(); err != nil {
		log.WithError(err).Fatal("start reminder dispatcher")
	}

	if err := registerWebhook(api, cfg, log); err != nil {
		log.WithError(err).Fatal("register webhook")
	}
	registerCommands(api, log)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	routes.Setup(router, bot, api, cfg.WebhookPath, log)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: router,
	}
	go func() {
		log.WithField("addr", srv.Addr).Info("listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("http server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	dispatcher.Stop()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("http shutdown")
	}
	log.Info("bye")
}

// registerWebhook points Telegram at this instance, skipping the API call
// when the registered URL already matches.
func registerWebhook(api *tgbotapi.BotAPI, cfg *config.Config, log *logrus.Logger) error {
	if cfg.WebhookURL == "" {
		log.Warn("WEBHOOK_URL not set, webhook left as is")
		return nil
	}
	target := cfg.WebhookURL + cfg.WebhookPath

	info, err := api.GetWebhookInfo()
	if err != nil {
		return err
	}
	if info.URL == target {
		log.WithField("url", target).Info("webhook already registered")
		return nil
	}

	wh, err := tgbotapi.NewWebhook(target)
	if err != nil {
		return err
	}
	if _, err := api.Request(wh); err != nil {
		return err
	}
	log.WithField("url", target).Info("webhook registered")
	return nil
}

func registerCommands(api *tgbotapi.BotAPI, log *logrus.Logger) {
	commands := tgbotapi.NewSetMyCommands(
		tgbotapi.BotCommand{Command: "start", Description: "Start the bot"},
		tgbotapi.BotCommand{Command: "food", Description: "Log a meal"},
		tgbotapi.BotCommand{Command: "water", Description: "Log water"},
		tgbotapi.BotCommand{Command: "weight", Description: "Log weight"},
		tgbotapi.BotCommand{Command: "activity", Description: "Log a workout"},
		tgbotapi.BotCommand{Command: "progress", Description: "Today's progress"},
		tgbotapi.BotCommand{Command: "shopping", Description: "Shopping lists"},
		tgbotapi.BotCommand{Command: "reminders", Description: "Reminders"},
		tgbotapi.BotCommand{Command: "recipes", Description: "Recipe ideas"},
		tgbotapi.BotCommand{Command: "cancel", Description: "Cancel the current dialogue"},
		tgbotapi.BotCommand{Command: "help", Description: "Help"},
	)
	if _, err := api.Request(commands); err != nil {
		log.WithError(err).Warn("set bot commands")
	}
}
