package bot

import (
	"errors"
	"invitebot/entity"
	"invitebot/impl/core"
	"strings"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"
)

func (t *TgBot) start(_ *tgbotapi.Bot, ctx *ext.Context) error {
	if !isPrivate(ctx) {
		return nil
	}
	sender := ctx.EffectiveUser
	err := t.core.RegisterUser(t.ctx, &entity.User{
		TelegramId: sender.Id,
		Username:   sender.Username,
		FirstName:  sender.FirstName,
	})
	if err != nil {
		t.reportError(sender.Id, "/start", err)
		return nil
	}
	t.setUserCommands(sender.Id)
	t.sendWithKeyboard(sender.Id, textStart, mainMenu())
	return nil
}

func (t *TgBot) menu(_ *tgbotapi.Bot, ctx *ext.Context) error {
	if !isPrivate(ctx) {
		return nil
	}
	t.sendWithKeyboard(ctx.EffectiveUser.Id, textMainMenu, mainMenu())
	return nil
}

func (t *TgBot) cancel(_ *tgbotapi.Bot, ctx *ext.Context) error {
	if !isPrivate(ctx) {
		return nil
	}
	chatId := ctx.EffectiveUser.Id
	if st, ok := t.sessions.Delete(chatId); ok {
		t.deleteMessage(chatId, st.promptId)
	}
	t.sendWithKeyboard(chatId, textCanceled, mainMenu())
	return nil
}

func (t *TgBot) total(_ *tgbotapi.Bot, ctx *ext.Context) error {
	if !isPrivate(ctx) {
		return nil
	}
	chatId := ctx.EffectiveUser.Id
	if !t.isSuper(chatId) {
		t.plainResponse(chatId, textNoAccess)
		return nil
	}
	file, err := t.core.TotalStats(t.ctx)
	if errors.Is(err, core.ErrNoLinks) {
		t.plainResponse(chatId, textNoStats)
		return nil
	}
	if err != nil {
		t.reportError(chatId, "/total", err)
		return nil
	}
	t.sendFile(chatId, file, textTotalStats)
	return nil
}

func (t *TgBot) syncCmd(_ *tgbotapi.Bot, ctx *ext.Context) error {
	if !isPrivate(ctx) {
		return nil
	}
	chatId := ctx.EffectiveUser.Id
	if !t.isSuper(chatId) {
		t.plainResponse(chatId, textNoAccess)
		return nil
	}
	if err := t.core.SyncNow(t.ctx); err != nil {
		t.plainResponse(chatId, textSyncFailed+Sanitize(err.Error()))
		return nil
	}
	t.plainResponse(chatId, textSyncDone)
	return nil
}

func (t *TgBot) help(_ *tgbotapi.Bot, ctx *ext.Context) error {
	chatId := ctx.EffectiveUser.Id
	var sb strings.Builder
	sb.WriteString("*Available commands*\n\n")
	for _, cmd := range commandsFor(t.roles(chatId)) {
		sb.WriteString("/" + Sanitize(cmd.Command) + " \\- " + Sanitize(cmd.Description) + "\n")
	}
	if t.canCreate(chatId) {
		sb.WriteString("\nUse the *" + btnCreateLinks + "* and *" + btnStatistics + "* buttons below the input field\\.")
	}
	t.plainResponse(chatId, sb.String())
	return nil
}
