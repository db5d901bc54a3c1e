// Package database persists invite links and user profiles.
//
// All implementations follow the same merge policy (see entity.InviteLink.Merge)
// and serialise every read and write through a single mutex, so interactive
// creations and background sync passes never interleave on the store.
package database

import (
	"context"
	"errors"
	"fmt"
	"invitebot/entity"
	"invitebot/internal/config"
	"log/slog"
	"time"
)

const (
	driverMongo  = "mongo"
	driverMySql  = "mysql"
	driverMemory = "memory"
)

var errClosed = errors.New("store is closed")

// Store is the persistence contract shared by the bot, the API and the scheduler.
type Store interface {
	// UpsertMany merges a batch of observed links; ownerId is nil for links found by sync.
	UpsertMany(ctx context.Context, links []entity.InviteLink, chatId string, ownerId *int64) error
	GetByOwner(ctx context.Context, ownerId int64) ([]entity.InviteLink, error)
	GetAll(ctx context.Context) ([]entity.InviteLink, error)
	GetLink(ctx context.Context, link string) (*entity.InviteLink, error)
	DeleteLink(ctx context.Context, link string) error
	UpsertUser(ctx context.Context, user *entity.User) error
	GetUser(ctx context.Context, id int64) (*entity.User, error)
	ListUsers(ctx context.Context, limit, offset int) ([]*entity.User, error)
	Close(ctx context.Context) error
}

// New opens the store selected in the configuration.
func New(ctx context.Context, conf *config.Config, log *slog.Logger) (Store, error) {
	switch conf.Store.Driver {
	case driverMongo:
		return NewMongoClient(ctx, conf, log)
	case driverMySql:
		return NewSQLClient(ctx, conf, log)
	case driverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown store driver: %s", conf.Store.Driver)
	}
}

// prepareBatch drops links without identity and fills the insert-only fields.
func prepareBatch(links []entity.InviteLink, chatId string, ownerId *int64, now time.Time) []entity.InviteLink {
	out := make([]entity.InviteLink, 0, len(links))
	for _, l := range links {
		if l.Link == "" {
			continue
		}
		l.ChatId = chatId
		l.OwnerId = ownerId
		if l.CreatedAt.IsZero() {
			l.CreatedAt = now
		}
		l.LastSyncedAt = now
		l.OwnerUsername = ""
		l.OwnerFirstName = ""
		out = append(out, l)
	}
	return out
}

func nowUTC() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[max(offset, 0):]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
