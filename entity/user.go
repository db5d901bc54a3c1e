package entity

import "strconv"

// User is a cached Telegram profile of someone who talked to the bot.
// Profile fields are overwritten on every observed interaction.
type User struct {
	TelegramId int64  `json:"tg_id" bson:"tg_id"`
	Username   string `json:"username" bson:"username"`
	FirstName  string `json:"first_name" bson:"first_name"`
}

// DisplayName returns @username when known, otherwise the first name or the numeric id.
func (u *User) DisplayName() string {
	if u.Username != "" {
		return "@" + u.Username
	}
	if u.FirstName != "" {
		return u.FirstName
	}
	return strconv.FormatInt(u.TelegramId, 10)
}
