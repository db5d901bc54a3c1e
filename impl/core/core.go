package core

import (
	"context"
	"errors"
	"fmt"
	"invitebot/entity"
	"invitebot/internal/export"
	"invitebot/lib/sl"
	"log/slog"
	"strconv"
	"strings"
)

var (
	ErrNoLinks        = errors.New("no links yet")
	ErrInvalidRequest = errors.New("invalid request")
)

type LinkCreator interface {
	CreateNoTitle(ctx context.Context, count int) ([]entity.InviteLink, error)
	CreateWithTitles(ctx context.Context, titles []string) ([]entity.InviteLink, error)
	CreateWithMask(ctx context.Context, mask string, count int) ([]entity.InviteLink, error)
}

type Repository interface {
	UpsertMany(ctx context.Context, links []entity.InviteLink, chatId string, ownerId *int64) error
	GetByOwner(ctx context.Context, ownerId int64) ([]entity.InviteLink, error)
	GetAll(ctx context.Context) ([]entity.InviteLink, error)
	UpsertUser(ctx context.Context, user *entity.User) error
}

type AuthService interface {
	Roles(id int64) entity.Roles
	CheckToken(token string) error
}

type Syncer interface {
	SyncNow(ctx context.Context) error
	Status() string
}

type Core struct {
	creator LinkCreator
	repo    Repository
	chatId  string
	auth    AuthService
	syncer  Syncer
	log     *slog.Logger
}

func New(creator LinkCreator, repo Repository, chatId int64, log *slog.Logger) *Core {
	if creator == nil || repo == nil {
		panic("core: creator and repository are required")
	}
	return &Core{
		creator: creator,
		repo:    repo,
		chatId:  strconv.FormatInt(chatId, 10),
		log:     log.With(sl.Module("core")),
	}
}

func (c *Core) SetAuthService(auth AuthService) {
	c.auth = auth
}

func (c *Core) SetSyncer(syncer Syncer) {
	c.syncer = syncer
}

func (c *Core) Roles(id int64) entity.Roles {
	if c.auth == nil {
		return entity.Roles{}
	}
	return c.auth.Roles(id)
}

func (c *Core) AuthenticateByToken(token string) error {
	if c.auth == nil {
		return fmt.Errorf("auth service not connected")
	}
	return c.auth.CheckToken(token)
}

// CreateLinks runs the requested strategy and saves the batch under ownerId.
// Nothing is saved when the batch fails; created links reach the store with the next sync.
func (c *Core) CreateLinks(ctx context.Context, ownerId int64, req *entity.CreateRequest) ([]entity.InviteLink, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	var links []entity.InviteLink
	var err error
	switch req.Mode {
	case entity.ModeNoTitle:
		links, err = c.creator.CreateNoTitle(ctx, req.Count)
	case entity.ModeTitles:
		links, err = c.creator.CreateWithTitles(ctx, cleanTitles(req.Titles))
	case entity.ModeMask:
		links, err = c.creator.CreateWithMask(ctx, req.Mask, req.Count)
	default:
		return nil, fmt.Errorf("%w: unknown mode %s", ErrInvalidRequest, req.Mode)
	}
	if err != nil {
		return nil, err
	}

	if err = c.repo.UpsertMany(ctx, links, c.chatId, &ownerId); err != nil {
		return nil, fmt.Errorf("save links: %w", err)
	}
	c.log.With(
		slog.Int64("owner_id", ownerId),
		slog.String("mode", string(req.Mode)),
		slog.Int("count", len(links)),
	).Info("links created")
	return links, nil
}

func (c *Core) LinksByOwner(ctx context.Context, ownerId int64) ([]entity.InviteLink, error) {
	return c.repo.GetByOwner(ctx, ownerId)
}

func (c *Core) Links(ctx context.Context) ([]entity.InviteLink, error) {
	return c.repo.GetAll(ctx)
}

// Stats renders the owner's links without owner columns.
func (c *Core) Stats(ctx context.Context, ownerId int64) (*export.File, error) {
	links, err := c.repo.GetByOwner(ctx, ownerId)
	if err != nil {
		return nil, fmt.Errorf("get links: %w", err)
	}
	if len(links) == 0 {
		return nil, ErrNoLinks
	}
	return export.Build(links, false)
}

// TotalStats renders every stored link grouped by owner.
func (c *Core) TotalStats(ctx context.Context) (*export.File, error) {
	links, err := c.repo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("get links: %w", err)
	}
	if len(links) == 0 {
		return nil, ErrNoLinks
	}
	return export.Build(links, true)
}

func (c *Core) RegisterUser(ctx context.Context, user *entity.User) error {
	if user == nil || user.TelegramId == 0 {
		return fmt.Errorf("empty user")
	}
	return c.repo.UpsertUser(ctx, user)
}

func (c *Core) SyncNow(ctx context.Context) error {
	if c.syncer == nil {
		return fmt.Errorf("sync is disabled")
	}
	return c.syncer.SyncNow(ctx)
}

func (c *Core) SyncState() string {
	if c.syncer == nil {
		return "disabled"
	}
	return c.syncer.Status()
}

func cleanTitles(lines []string) []string {
	titles := make([]string, 0, len(lines))
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			titles = append(titles, line)
		}
	}
	return titles
}
