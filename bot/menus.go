package bot

import (
	"invitebot/entity"
	"invitebot/lib/sl"
	"log/slog"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
)

// Reply keyboard buttons arrive as plain text messages.
const (
	btnCreateLinks = "Create links"
	btnStatistics  = "Statistics"
)

// Texts are sent with MarkdownV2, reserved characters are escaped.
const (
	textStart        = "Hi\\! Choose an action from the menu:"
	textMainMenu     = "Menu:"
	textCanceled     = "Ok, canceled\\."
	textCreateLink   = "Choose how to name the links:"
	textAskCount     = "How many links \\(1\\-50\\)?"
	textAskTitles    = "Send the titles one per line, every line is a separate link \\(up to 50\\):"
	textAskMask      = "Send a title mask\\. `{n}` is replaced with the link number, without it the number is appended\\."
	textCreating     = "⏳ Creating links\\.\\.\\. this may take a few seconds"
	textReady        = "✅ Your links are ready"
	textCreateFailed = "⚠️ Failed to create links: "
	textYourStats    = "Statistics of your links"
	textTotalStats   = "Statistics of all links"
	textNoStats      = "You have no links yet\\!"
	textNoAccess     = "⛔ You have no access to this command\\."
	textSyncDone     = "Sync finished"
	textSyncFailed   = "Sync failed: "
)

var commandsAnonymous = []tgbotapi.BotCommand{
	{Command: "start", Description: "Show the main menu"},
	{Command: "help", Description: "Show available commands"},
}

var commandsBuyer = []tgbotapi.BotCommand{
	{Command: "start", Description: "Show the main menu"},
	{Command: "menu", Description: "Show the main menu"},
	{Command: "cancel", Description: "Cancel link creation"},
	{Command: "help", Description: "Show available commands"},
}

var commandsSuper = []tgbotapi.BotCommand{
	{Command: "start", Description: "Show the main menu"},
	{Command: "menu", Description: "Show the main menu"},
	{Command: "cancel", Description: "Cancel link creation"},
	{Command: "total", Description: "Statistics of all links"},
	{Command: "sync", Description: "Sync link statistics now"},
	{Command: "help", Description: "Show available commands"},
}

func mainMenu() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.ReplyKeyboardMarkup{
		Keyboard: [][]tgbotapi.KeyboardButton{
			{{Text: btnCreateLinks}, {Text: btnStatistics}},
		},
		ResizeKeyboard: true,
	}
}

func commandsFor(roles entity.Roles) []tgbotapi.BotCommand {
	switch {
	case roles.HasAny(entity.RoleSuper):
		return commandsSuper
	case roles.HasAny(entity.RoleBuyer):
		return commandsBuyer
	default:
		return commandsAnonymous
	}
}

// setDefaultCommands sets the default bot menu for unknown users.
func (t *TgBot) setDefaultCommands() {
	_, err := t.api.SetMyCommands(commandsAnonymous, &tgbotapi.SetMyCommandsOpts{
		Scope: tgbotapi.BotCommandScopeDefault{},
	})
	if err != nil {
		t.log.Warn("setting default commands", sl.Err(err))
	}
}

// setUserCommands sets the command menu for a specific user based on their roles.
func (t *TgBot) setUserCommands(chatId int64) {
	_, err := t.api.SetMyCommands(commandsFor(t.roles(chatId)), &tgbotapi.SetMyCommandsOpts{
		Scope: tgbotapi.BotCommandScopeChat{ChatId: chatId},
	})
	if err != nil {
		t.log.With(slog.Int64("chat_id", chatId)).Warn("setting user commands", sl.Err(err))
	}
}

// syncAdminMenus pushes command menus to super admins on startup;
// everyone else gets theirs on /start.
func (t *TgBot) syncAdminMenus() {
	for _, id := range t.config.SuperIds {
		t.setUserCommands(id)
	}
}
