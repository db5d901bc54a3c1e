package bot

import (
	"invitebot/entity"
	"invitebot/lib/sl"
	"log/slog"
	"strings"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"
)

// Callback data of the link creation menu.
// Telegram limits callback data to 64 bytes, so prefixes are kept short.
const (
	cbGenerate = "gen:"
	cbNoTitle  = cbGenerate + "no_title"
	cbTitles   = cbGenerate + "titles"
	cbMask     = cbGenerate + "mask"
	cbCancel   = cbGenerate + "cancel"
	cbBack     = cbGenerate + "back"
)

// --- Keyboard builders ---

func buildCreateKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.InlineKeyboardMarkup{
		InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{
			{{Text: "Without title", CallbackData: cbNoTitle}},
			{{Text: "From a list of titles", CallbackData: cbTitles}},
			{{Text: "By title mask", CallbackData: cbMask}},
			{{Text: "Cancel", CallbackData: cbCancel}},
		},
	}
}

func buildBackKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.InlineKeyboardMarkup{
		InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{
			{{Text: "« Back", CallbackData: cbBack}},
		},
	}
}

// --- Callback handlers ---

// onGenerateCallback drives the inline creation menu. Choosing a mode turns the
// menu message into the first prompt and opens a session; back and cancel close it.
func (t *TgBot) onGenerateCallback(_ *tgbotapi.Bot, ctx *ext.Context) error {
	cq := ctx.CallbackQuery
	chatId := cq.From.Id

	im, ok := cq.Message.(tgbotapi.Message)
	if !ok || im.Chat.Type != "private" {
		_, _ = cq.Answer(t.api, &tgbotapi.AnswerCallbackQueryOpts{})
		return nil
	}

	switch cq.Data {
	case cbCancel:
		t.sessions.Delete(chatId)
		t.editText(chatId, im.MessageId, textMainMenu, nil)

	case cbBack:
		t.sessions.Delete(chatId)
		keyboard := buildCreateKeyboard()
		t.editText(chatId, im.MessageId, textCreateLink, &keyboard)

	default:
		if !t.canCreate(chatId) {
			_, _ = cq.Answer(t.api, &tgbotapi.AnswerCallbackQueryOpts{Text: "Not authorized", ShowAlert: true})
			return nil
		}
		mode := entity.CreateMode(strings.TrimPrefix(cq.Data, cbGenerate))
		switch mode {
		case entity.ModeNoTitle, entity.ModeTitles, entity.ModeMask:
		default:
			_, _ = cq.Answer(t.api, &tgbotapi.AnswerCallbackQueryOpts{Text: "Unknown action"})
			return nil
		}
		st, prompt := newSession(mode)
		st.promptId = im.MessageId
		t.sessions.Set(chatId, st)
		keyboard := buildBackKeyboard()
		t.editText(chatId, im.MessageId, prompt, &keyboard)
	}

	_, _ = cq.Answer(t.api, &tgbotapi.AnswerCallbackQueryOpts{})
	return nil
}

func (t *TgBot) editText(chatId, messageId int64, text string, keyboard *tgbotapi.InlineKeyboardMarkup) {
	opts := &tgbotapi.EditMessageTextOpts{
		ChatId:    chatId,
		MessageId: messageId,
		ParseMode: "MarkdownV2",
	}
	if keyboard != nil {
		opts.ReplyMarkup = *keyboard
	}
	if _, _, err := t.api.EditMessageText(text, opts); err != nil {
		t.log.With(slog.Int64("id", chatId)).Debug("editing message", sl.Err(err))
	}
}
