package links

import (
	"context"
	"fmt"
	"invitebot/entity"
	"invitebot/internal/ratelimit"
	"invitebot/lib/sl"
	"log/slog"
)

const DefaultPageLimit = 100

type Lister struct {
	provider  Provider
	caller    *ratelimit.Caller
	chatId    int64
	pacer     ratelimit.Pacer
	PageLimit int
	log       *slog.Logger
}

func NewLister(provider Provider, caller *ratelimit.Caller, chatId int64, pacer ratelimit.Pacer, log *slog.Logger) *Lister {
	return &Lister{
		provider:  provider,
		caller:    caller,
		chatId:    chatId,
		pacer:     pacer,
		PageLimit: DefaultPageLimit,
		log:       log.With(sl.Module("links.lister")),
	}
}

// GetAllLinks reads every active link, then every revoked one when includeRevoked is set.
func (l *Lister) GetAllLinks(ctx context.Context, includeRevoked bool) ([]entity.InviteLink, error) {
	all, err := l.collect(ctx, false, nil)
	if err != nil {
		return nil, err
	}
	if includeRevoked {
		all, err = l.collect(ctx, true, all)
		if err != nil {
			return nil, err
		}
	}
	return all, nil
}

// collect walks one pass with the (date, link) cursor of the last item of each page.
func (l *Lister) collect(ctx context.Context, revoked bool, out []entity.InviteLink) ([]entity.InviteLink, error) {
	limit := l.PageLimit
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	query := PageQuery{Revoked: revoked, Limit: limit}
	pages := 0
	for {
		page, err := ratelimit.Do(ctx, l.caller, func(ctx context.Context) (Page, error) {
			return l.provider.ListInvites(ctx, l.chatId, query)
		})
		if err != nil {
			return nil, fmt.Errorf("list invites (revoked=%v, page %d): %w", revoked, pages+1, err)
		}
		pages++
		out = append(out, page.Links...)
		if page.Fetched < limit || len(page.Links) == 0 {
			break
		}

		last := page.Links[len(page.Links)-1]
		if last.CreatedAt.IsZero() || last.Link == "" {
			break
		}
		query.OffsetDate = last.CreatedAt
		query.OffsetLink = last.Link
		if err = l.pacer.Pace(ctx); err != nil {
			return nil, err
		}
	}
	l.log.With(
		slog.Bool("revoked", revoked),
		slog.Int("pages", pages),
		slog.Int("total", len(out)),
	).Debug("pass finished")
	return out, nil
}
