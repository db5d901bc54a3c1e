// Package links creates and lists invite links of the target chat.
//
// Every remote call goes through a ratelimit.Caller; successive calls within a
// batch or a listing pass are spaced by a ratelimit.Pacer.
package links

import (
	"context"
	"invitebot/entity"
	"time"
)

// ExportParams are the options of a single invite link export.
type ExportParams struct {
	Title            string
	ExpireAt         *time.Time
	UsageLimit       *int
	RequiresApproval bool
}

// PageQuery selects one page of exported links. The zero cursor starts from the newest link.
type PageQuery struct {
	Revoked    bool
	OffsetDate time.Time
	OffsetLink string
	Limit      int
}

// Page is one listing response. Fetched counts every item the platform
// returned, including ones that are not exported links, and decides whether
// the listing has more pages.
type Page struct {
	Links   []entity.InviteLink
	Fetched int
}

// Provider is the remote platform. Implementations report flood waits and
// transient failures with ratelimit.FloodWaitError and ratelimit.TransientError.
type Provider interface {
	ExportInvite(ctx context.Context, chatId int64, params ExportParams) (*entity.InviteLink, error)
	ListInvites(ctx context.Context, chatId int64, query PageQuery) (Page, error)
}
