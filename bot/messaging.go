package bot

import (
	"log/slog"
)

func (t *TgBot) SendMessage(msg string) {
	t.SendMessageWithLevel(msg, t.minLogLevel)
}

// SendMessageWithLevel forwards a log message to super admins.
// Errors are sent at once, lower levels are collected into the digest.
func (t *TgBot) SendMessageWithLevel(msg string, level slog.Level) {
	if !t.config.LogToAdmins || level < t.minLogLevel {
		return
	}
	for _, id := range t.config.SuperIds {
		if level >= slog.LevelError || t.digest == nil {
			t.plainResponse(id, msg)
			continue
		}
		t.digest.Add(id, msg, level)
	}
}
