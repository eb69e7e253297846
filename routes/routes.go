package routes

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/Rubl1313-cmyk/nutrybudy-bot/handlers"
)

// Setup registers the webhook endpoint and the probes. Updates are handed
// off to the dialogue engine asynchronously so Telegram always gets a fast
// 200 back.
func Setup(r *gin.Engine, bot *handlers.Bot, api *tgbotapi.BotAPI, webhookPath string, log *logrus.Logger) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/webhook_info", func(c *gin.Context) {
		info, err := api.GetWebhookInfo()
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"url":             info.URL,
			"pending_updates": info.PendingUpdateCount,
			"last_error":      info.LastErrorMessage,
		})
	})

	r.POST(webhookPath, func(c *gin.Context) {
		var update tgbotapi.Update
		if err := c.ShouldBindJSON(&update); err != nil {
			log.WithError(err).Warn("malformed webhook payload")
			c.Status(http.StatusBadRequest)
			return
		}
		if ev, ok := handlers.FromUpdate(update); ok {
			// One goroutine per update trades strict arrival order for
			// webhook latency: two rapid messages from the same user may
			// swap, but the per-session lock keeps each update atomic and
			// a swapped invalid input just re-prompts.
			go bot.HandleUpdate(context.Background(), ev)
		}
		c.Status(http.StatusOK)
	})
}
