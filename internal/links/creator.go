package links

import (
	"context"
	"fmt"
	"invitebot/entity"
	"invitebot/internal/ratelimit"
	"invitebot/lib/clock"
	"invitebot/lib/sl"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

const (
	maxBatch = 100
	maskVar  = "{n}"
)

// CreateParams describes one link to create. ExpireIn is used only when ExpireAt is nil.
type CreateParams struct {
	Title            string
	ExpireAt         *time.Time
	ExpireIn         time.Duration
	UsageLimit       int
	RequiresApproval bool
}

type Creator struct {
	provider Provider
	caller   *ratelimit.Caller
	chatId   int64
	pacer    ratelimit.Pacer
	now      func() time.Time
	log      *slog.Logger
}

func NewCreator(provider Provider, caller *ratelimit.Caller, chatId int64, pacer ratelimit.Pacer, log *slog.Logger) *Creator {
	return &Creator{
		provider: provider,
		caller:   caller,
		chatId:   chatId,
		pacer:    pacer,
		now:      time.Now,
		log:      log.With(sl.Module("links.creator")),
	}
}

// CreateOne exports a single link, retrying flood waits and transient failures.
func (c *Creator) CreateOne(ctx context.Context, p CreateParams) (*entity.InviteLink, error) {
	params := ExportParams{
		Title:            entity.TruncateTitle(strings.TrimSpace(p.Title)),
		RequiresApproval: p.RequiresApproval,
	}
	switch {
	case p.ExpireAt != nil:
		at := p.ExpireAt.UTC()
		params.ExpireAt = &at
	case p.ExpireIn > 0:
		at := c.now().UTC().Add(p.ExpireIn)
		params.ExpireAt = &at
	}
	if p.UsageLimit > 0 {
		limit := p.UsageLimit
		params.UsageLimit = &limit
	}

	link, err := ratelimit.Do(ctx, c.caller, func(ctx context.Context) (*entity.InviteLink, error) {
		return c.provider.ExportInvite(ctx, c.chatId, params)
	})
	if err != nil {
		return nil, fmt.Errorf("export invite: %w", err)
	}
	c.log.With(sl.Link(link.Link), slog.String("title", link.Title)).Debug("link created")
	return link, nil
}

// CreateNoTitle creates count links titled "Link {stamp}-{i}".
func (c *Creator) CreateNoTitle(ctx context.Context, count int) ([]entity.InviteLink, error) {
	return c.batch(ctx, NoTitleTitles(clock.Stamp(c.now()), count))
}

// CreateWithTitles creates one link per title, in order.
func (c *Creator) CreateWithTitles(ctx context.Context, titles []string) ([]entity.InviteLink, error) {
	return c.batch(ctx, titles)
}

// CreateWithMask creates count links with titles derived from the mask, see MaskTitles.
func (c *Creator) CreateWithMask(ctx context.Context, mask string, count int) ([]entity.InviteLink, error) {
	return c.batch(ctx, MaskTitles(mask, count))
}

// batch creates links one by one. Links created before a failure are not
// returned; the next sync pass picks them up without an owner.
func (c *Creator) batch(ctx context.Context, titles []string) ([]entity.InviteLink, error) {
	log := c.log.With(slog.Int("count", len(titles)))
	started := c.now()
	out := make([]entity.InviteLink, 0, len(titles))
	for i, title := range titles {
		link, err := c.CreateOne(ctx, CreateParams{Title: title})
		if err != nil {
			log.With(
				slog.Int("created", i),
				sl.Err(err),
			).Error("batch interrupted")
			return nil, err
		}
		out = append(out, *link)
		if err = c.pacer.Pace(ctx); err != nil {
			return nil, err
		}
	}
	log.With(
		slog.Duration("took", c.now().Sub(started)),
	).Info("batch created")
	return out, nil
}

func clampCount(count int) int {
	return max(1, min(maxBatch, count))
}

// NoTitleTitles generates "Link {stamp}-{i}" titles for a batch sharing one stamp.
func NoTitleTitles(stamp string, count int) []string {
	count = clampCount(count)
	titles := make([]string, 0, count)
	for i := 1; i <= count; i++ {
		titles = append(titles, fmt.Sprintf("Link %s-%d", stamp, i))
	}
	return titles
}

// MaskTitles substitutes the 1-based index for every {n} in the mask, or
// appends " {index}" when the mask has no {n}. Titles are cut to the platform limit.
func MaskTitles(mask string, count int) []string {
	count = clampCount(count)
	mask = strings.TrimSpace(mask)
	titles := make([]string, 0, count)
	for i := 1; i <= count; i++ {
		n := strconv.Itoa(i)
		var title string
		if strings.Contains(mask, maskVar) {
			title = strings.ReplaceAll(mask, maskVar, n)
		} else {
			title = strings.TrimSpace(mask + " " + n)
		}
		titles = append(titles, entity.TruncateTitle(title))
	}
	return titles
}
