package scheduler

import (
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/Rubl1313-cmyk/nutrybudy-bot/models"
	"github.com/Rubl1313-cmyk/nutrybudy-bot/services"
)

// Notifier delivers one reminder message to a chat.
type Notifier func(chatID int64, text string) error

// Dispatcher fires user reminders on a once-a-minute cron tick.
type Dispatcher struct {
	cron      *cron.Cron
	reminders *services.ReminderService
	users     *services.UserService
	notify    Notifier
	log       *logrus.Logger
}

func New(reminders *services.ReminderService, users *services.UserService, notify Notifier, log *logrus.Logger) *Dispatcher {
	return &Dispatcher{
		cron:      cron.New(),
		reminders: reminders,
		users:     users,
		notify:    notify,
		log:       log,
	}
}

func (d *Dispatcher) Start() error {
	if _, err := d.cron.AddFunc("* * * * *", func() { d.Tick(time.Now()) }); err != nil {
		return err
	}
	d.cron.Start()
	return nil
}

// Stop waits for a running tick to finish.
func (d *Dispatcher) Stop() {
	<-d.cron.Stop().Done()
}

// Tick sends every reminder due at the given minute. A delivery failure for
// one reminder never blocks the others.
func (d *Dispatcher) Tick(now time.Time) {
	reminders, err := d.reminders.AllEnabled()
	if err != nil {
		d.log.WithError(err).Error("load reminders for tick")
		return
	}

	for _, r := range Due(reminders, now) {
		user, err := d.users.ByID(r.UserID)
		if err != nil {
			d.log.WithError(err).WithField("reminder_id", r.ID).Error("resolve reminder user")
			continue
		}
		if user == nil || !user.ReminderEnabled {
			continue
		}
		if err := d.notify(user.TelegramID, "⏰ "+r.Title); err != nil {
			d.log.WithError(err).WithFields(logrus.Fields{
				"reminder_id": r.ID,
				"user_id":     r.UserID,
			}).Error("deliver reminder")
		}
	}
}

// Due filters reminders matching the given wall-clock minute and weekday.
func Due(reminders []models.Reminder, now time.Time) []models.Reminder {
	clock := now.Format("15:04")
	day := strings.ToLower(now.Format("Mon"))

	var due []models.Reminder
	for _, r := range reminders {
		if r.Time != clock {
			continue
		}
		if !dayMatches(r.Days, day) {
			continue
		}
		due = append(due, r)
	}
	return due
}

func dayMatches(days, day string) bool {
	if days == "" || days == "daily" {
		return true
	}
	for _, d := range strings.Split(days, ",") {
		if strings.TrimSpace(d) == day {
			return true
		}
	}
	return false
}
