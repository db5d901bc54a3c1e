// Package entity defines domain types shared across the application.
package entity

import (
	"time"
	"unicode/utf8"
)

// MaxTitleLength is the Telegram limit for an invite link title.
const MaxTitleLength = 32

// InviteLink is a single invite link of the target chat as it is stored locally.
// The Link string is the identity. Counters never decrease on merge, see Merge.
type InviteLink struct {
	Link                 string     `json:"link" bson:"link"`
	ChatId               string     `json:"chat_id" bson:"chat_id"`
	OwnerId              *int64     `json:"owner_id,omitempty" bson:"owner_id"`
	Title                string     `json:"title,omitempty" bson:"title,omitempty"`
	CreatedAt            time.Time  `json:"created_at" bson:"created_at"`
	ExpireAt             *time.Time `json:"expire_at,omitempty" bson:"expire_at,omitempty"`
	UsageLimit           *int       `json:"usage_limit,omitempty" bson:"usage_limit,omitempty"`
	RequiresApproval     bool       `json:"requires_approval" bson:"requires_approval"`
	UsageCount           int        `json:"usage" bson:"usage"`
	ApprovedRequestCount int        `json:"approved_request_count" bson:"approved_request_count"`
	Revoked              bool       `json:"revoked" bson:"revoked"`
	LastSyncedAt         time.Time  `json:"last_synced_at" bson:"last_synced_at"`

	// owner profile, filled by store reads only
	OwnerUsername  string `json:"owner_username,omitempty" bson:"owner_username,omitempty"`
	OwnerFirstName string `json:"owner_first_name,omitempty" bson:"owner_first_name,omitempty"`
}

// VisitsTotal is the number of joins through the link, direct and approved.
func (l *InviteLink) VisitsTotal() int {
	return l.UsageCount + l.ApprovedRequestCount
}

// Merge applies an incoming observation of the same link to the stored record.
//
//   - title, expiry and usage limit are replaced only when the observation carries them;
//   - approval flag and revoked flag always follow the observation;
//   - counters take the maximum of both values;
//   - creation time, chat and owner are kept from the first write;
//   - last sync time is set to now.
func (l *InviteLink) Merge(in *InviteLink, now time.Time) {
	if in.Title != "" {
		l.Title = in.Title
	}
	if in.ExpireAt != nil {
		l.ExpireAt = in.ExpireAt
	}
	if in.UsageLimit != nil {
		l.UsageLimit = in.UsageLimit
	}
	l.RequiresApproval = in.RequiresApproval
	l.Revoked = in.Revoked
	l.UsageCount = max(l.UsageCount, in.UsageCount)
	l.ApprovedRequestCount = max(l.ApprovedRequestCount, in.ApprovedRequestCount)
	l.LastSyncedAt = now
}

// TruncateTitle cuts a title to MaxTitleLength characters.
func TruncateTitle(title string) string {
	if utf8.RuneCountInString(title) <= MaxTitleLength {
		return title
	}
	runes := []rune(title)
	return string(runes[:MaxTitleLength])
}
