package handlers

import (
	"fmt"
	"io"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Event is a transport-neutral incoming update: one text message, one
// button press, one photo, one voice note or one document.
type Event struct {
	UserID       int64
	ChatID       int64
	MessageID    int
	Username     string
	FirstName    string
	Command      string
	Text         string
	Action       string
	CallbackID   string
	PhotoID      string
	VoiceID      string
	DocumentID   string
	DocumentName string
}

// Button is an inline button: Label is shown, Action goes back in the
// callback. Handlers dispatch on Action, never on Label.
type Button struct {
	Label  string
	Action string
}

// Keyboard carries either inline buttons or a persistent reply keyboard.
type Keyboard struct {
	Inline [][]Button
	Reply  [][]string
}

func InlineRow(buttons ...Button) [][]Button {
	return [][]Button{buttons}
}

// Transport is the chat backend the dialogue engine talks through.
type Transport interface {
	Send(chatID int64, text string, kb *Keyboard) error
	Edit(chatID int64, messageID int, text string, kb *Keyboard) error
	AnswerCallback(callbackID, text string) error
	Download(fileID string) ([]byte, error)
}

// TelegramTransport implements Transport on the Bot API.
type TelegramTransport struct {
	api    *tgbotapi.BotAPI
	client *http.Client
}

func NewTelegramTransport(api *tgbotapi.BotAPI) *TelegramTransport {
	return &TelegramTransport{
		api:    api,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

func (t *TelegramTransport) Send(chatID int64, text string, kb *Keyboard) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if markup := toMarkup(kb); markup != nil {
		msg.ReplyMarkup = markup
	}
	_, err := t.api.Send(msg)
	return err
}

func (t *TelegramTransport) Edit(chatID int64, messageID int, text string, kb *Keyboard) error {
	msg := tgbotapi.NewEditMessageText(chatID, messageID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if kb != nil && len(kb.Inline) > 0 {
		markup := inlineMarkup(kb.Inline)
		msg.ReplyMarkup = &markup
	}
	_, err := t.api.Request(msg)
	return err
}

func (t *TelegramTransport) AnswerCallback(callbackID, text string) error {
	_, err := t.api.Request(tgbotapi.NewCallback(callbackID, text))
	return err
}

func (t *TelegramTransport) Download(fileID string) ([]byte, error) {
	file, err := t.api.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("get file %s: %w", fileID, err)
	}
	resp, err := t.client.Get(file.Link(t.api.Token))
	if err != nil {
		return nil, fmt.Errorf("download file %s: %w", fileID, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download file %s: status %d", fileID, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func toMarkup(kb *Keyboard) any {
	if kb == nil {
		return nil
	}
	if len(kb.Inline) > 0 {
		return inlineMarkup(kb.Inline)
	}
	if len(kb.Reply) > 0 {
		var rows [][]tgbotapi.KeyboardButton
		for _, row := range kb.Reply {
			var cells []tgbotapi.KeyboardButton
			for _, label := range row {
				cells = append(cells, tgbotapi.NewKeyboardButton(label))
			}
			rows = append(rows, cells)
		}
		markup := tgbotapi.NewReplyKeyboard(rows...)
		markup.ResizeKeyboard = true
		return markup
	}
	return nil
}

func inlineMarkup(rows [][]Button) tgbotapi.InlineKeyboardMarkup {
	var out [][]tgbotapi.InlineKeyboardButton
	for _, row := range rows {
		var cells []tgbotapi.InlineKeyboardButton
		for _, b := range row {
			cells = append(cells, tgbotapi.NewInlineKeyboardButtonData(b.Label, b.Action))
		}
		out = append(out, cells)
	}
	return tgbotapi.NewInlineKeyboardMarkup(out...)
}

// FromUpdate normalizes a Bot API update into an Event. Returns false for
// update kinds the engine does not handle.
func FromUpdate(u tgbotapi.Update) (Event, bool) {
	if cb := u.CallbackQuery; cb != nil && cb.Message != nil {
		return Event{
			UserID:     cb.From.ID,
			ChatID:     cb.Message.Chat.ID,
			MessageID:  cb.Message.MessageID,
			Username:   cb.From.UserName,
			FirstName:  cb.From.FirstName,
			Action:     cb.Data,
			CallbackID: cb.ID,
		}, true
	}
	msg := u.Message
	if msg == nil || msg.From == nil {
		return Event{}, false
	}
	ev := Event{
		UserID:    msg.From.ID,
		ChatID:    msg.Chat.ID,
		MessageID: msg.MessageID,
		Username:  msg.From.UserName,
		FirstName: msg.From.FirstName,
		Text:      msg.Text,
	}
	if msg.IsCommand() {
		ev.Command = msg.Command()
	}
	if len(msg.Photo) > 0 {
		ev.PhotoID = msg.Photo[len(msg.Photo)-1].FileID
	}
	if msg.Voice != nil {
		ev.VoiceID = msg.Voice.FileID
	}
	if msg.Document != nil {
		ev.DocumentID = msg.Document.FileID
		ev.DocumentName = msg.Document.FileName
	}
	return ev, true
}
