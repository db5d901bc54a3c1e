package bot

import (
	"errors"
	"invitebot/entity"
	"invitebot/impl/core"
	"invitebot/lib/sl"
	"log/slog"
	"strings"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"
)

// onText handles the reply keyboard buttons and answers to an open creation dialog.
func (t *TgBot) onText(_ *tgbotapi.Bot, ctx *ext.Context) error {
	if !isPrivate(ctx) {
		return nil
	}
	chatId := ctx.EffectiveUser.Id
	text := strings.TrimSpace(ctx.EffectiveMessage.Text)
	if strings.HasPrefix(text, "/") {
		return nil
	}
	if !t.canCreate(chatId) {
		t.plainResponse(chatId, textNoAccess)
		return nil
	}

	switch text {
	case btnCreateLinks:
		t.sendWithKeyboard(chatId, textCreateLink, buildCreateKeyboard())
		return nil
	case btnStatistics:
		t.sendStats(chatId)
		return nil
	}

	st, ok := t.sessions.Get(chatId)
	if !ok {
		return nil
	}
	result := st.advance(text)
	switch {
	case result.retry != "":
		t.plainResponse(chatId, result.retry)
	case result.next != nil:
		msg, err := t.api.SendMessage(chatId, result.prompt, &tgbotapi.SendMessageOpts{
			ParseMode:   "MarkdownV2",
			ReplyMarkup: buildBackKeyboard(),
		})
		if err != nil {
			t.reportError(chatId, "dialog prompt", err)
			t.sessions.Delete(chatId)
			return nil
		}
		t.deleteMessage(chatId, st.promptId)
		next := *result.next
		next.promptId = msg.MessageId
		t.sessions.Set(chatId, next)
	case result.request != nil:
		t.sessions.Delete(chatId)
		t.deleteMessage(chatId, st.promptId)
		t.createLinks(chatId, result.request)
	}
	return nil
}

// createLinks runs a batch with a status message that ends as "ready" or as the error.
func (t *TgBot) createLinks(chatId int64, req *entity.CreateRequest) {
	status, err := t.api.SendMessage(chatId, textCreating, &tgbotapi.SendMessageOpts{ParseMode: "MarkdownV2"})
	if err != nil {
		t.log.With(slog.Int64("id", chatId)).Warn("sending status", sl.Err(err))
	}

	links, err := t.core.CreateLinks(t.ctx, chatId, req)
	if err != nil {
		t.log.With(
			slog.Int64("user_id", chatId),
			slog.String("mode", string(req.Mode)),
		).Error("create links", sl.Err(err))
		if status != nil {
			t.editText(chatId, status.MessageId, textCreateFailed+Sanitize(err.Error()), nil)
		} else {
			t.plainResponse(chatId, textCreateFailed+Sanitize(err.Error()))
		}
		return
	}

	for _, part := range splitMessage(formatLinks(links), maxTelegramMessageLen) {
		t.sendWithKeyboard(chatId, part, mainMenu())
	}
	if status != nil {
		t.editText(chatId, status.MessageId, textReady, nil)
	}
}

func (t *TgBot) sendStats(chatId int64) {
	file, err := t.core.Stats(t.ctx, chatId)
	if errors.Is(err, core.ErrNoLinks) {
		t.plainResponse(chatId, textNoStats)
		return
	}
	if err != nil {
		t.reportError(chatId, "statistics", err)
		return
	}
	t.sendFile(chatId, file, textYourStats)
}

// formatLinks lists links as copyable code spans followed by their titles.
func formatLinks(links []entity.InviteLink) string {
	var sb strings.Builder
	for _, l := range links {
		sb.WriteString("`" + escapeCode(l.Link) + "`")
		if l.Title != "" {
			sb.WriteString(" " + Sanitize(l.Title))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func escapeCode(s string) string {
	return strings.NewReplacer("\\", "\\\\", "`", "\\`").Replace(s)
}
