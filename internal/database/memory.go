package database

import (
	"context"
	"invitebot/entity"
	"sort"
	"sync"
	"time"
)

// Memory keeps links in process memory. It is used for local runs and tests.
type Memory struct {
	mu     sync.Mutex
	links  map[string]*memoryRow
	users  map[int64]entity.User
	seq    int64
	now    func() time.Time
	closed bool
}

type memoryRow struct {
	seq  int64
	link entity.InviteLink
}

func NewMemory() *Memory {
	return &Memory{
		links: make(map[string]*memoryRow),
		users: make(map[int64]entity.User),
		now:   nowUTC,
	}
}

func (m *Memory) UpsertMany(ctx context.Context, links []entity.InviteLink, chatId string, ownerId *int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return errClosed
	}

	now := m.now()
	for _, in := range prepareBatch(links, chatId, ownerId, now) {
		row, ok := m.links[in.Link]
		if !ok {
			m.seq++
			m.links[in.Link] = &memoryRow{seq: m.seq, link: in}
			continue
		}
		row.link.Merge(&in, now)
	}
	return nil
}

func (m *Memory) GetByOwner(_ context.Context, ownerId int64) ([]entity.InviteLink, error) {
	return m.query(func(l *entity.InviteLink) bool {
		return l.OwnerId != nil && *l.OwnerId == ownerId
	})
}

func (m *Memory) GetAll(_ context.Context) ([]entity.InviteLink, error) {
	return m.query(func(*entity.InviteLink) bool { return true })
}

// query returns matching links, newest first, joined with owner profiles
func (m *Memory) query(match func(l *entity.InviteLink) bool) ([]entity.InviteLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, errClosed
	}

	rows := make([]*memoryRow, 0, len(m.links))
	for _, row := range m.links {
		if match(&row.link) {
			rows = append(rows, row)
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if !a.link.CreatedAt.Equal(b.link.CreatedAt) {
			return a.link.CreatedAt.After(b.link.CreatedAt)
		}
		return a.seq < b.seq
	})

	out := make([]entity.InviteLink, 0, len(rows))
	for _, row := range rows {
		l := row.link
		if l.OwnerId != nil {
			if u, ok := m.users[*l.OwnerId]; ok {
				l.OwnerUsername = u.Username
				l.OwnerFirstName = u.FirstName
			}
		}
		out = append(out, l)
	}
	return out, nil
}

func (m *Memory) GetLink(_ context.Context, link string) (*entity.InviteLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.links[link]
	if !ok {
		return nil, nil
	}
	l := row.link
	return &l, nil
}

func (m *Memory) DeleteLink(_ context.Context, link string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.links, link)
	return nil
}

func (m *Memory) UpsertUser(_ context.Context, user *entity.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return errClosed
	}
	m.users[user.TelegramId] = *user
	return nil
}

func (m *Memory) GetUser(_ context.Context, id int64) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (m *Memory) ListUsers(_ context.Context, limit, offset int) ([]*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	users := make([]*entity.User, 0, len(m.users))
	for _, u := range m.users {
		u := u // per-iteration copy; module builds with go 1.21 loop semantics
		users = append(users, &u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].TelegramId < users[j].TelegramId })
	return page(users, limit, offset), nil
}

func (m *Memory) Close(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
