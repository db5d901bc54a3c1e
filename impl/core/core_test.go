package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"invitebot/entity"
	"invitebot/internal/database"
	"invitebot/internal/export"
)

type fakeCreator struct {
	err    error
	titles []string
}

func (f *fakeCreator) make(titles []string) ([]entity.InviteLink, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.titles = titles
	links := make([]entity.InviteLink, 0, len(titles))
	for i, title := range titles {
		links = append(links, entity.InviteLink{Link: fmt.Sprintf("https://t.me/+%s%d", title, i), Title: title})
	}
	return links, nil
}

func (f *fakeCreator) CreateNoTitle(_ context.Context, count int) ([]entity.InviteLink, error) {
	titles := make([]string, count)
	for i := range titles {
		titles[i] = "n"
	}
	return f.make(titles)
}

func (f *fakeCreator) CreateWithTitles(_ context.Context, titles []string) ([]entity.InviteLink, error) {
	return f.make(titles)
}

func (f *fakeCreator) CreateWithMask(_ context.Context, mask string, count int) ([]entity.InviteLink, error) {
	titles := make([]string, count)
	for i := range titles {
		titles[i] = mask
	}
	return f.make(titles)
}

func newCore(creator LinkCreator) (*Core, *database.Memory) {
	store := database.NewMemory()
	return New(creator, store, -1001, slog.New(slog.NewTextHandler(io.Discard, nil))), store
}

func TestCreateLinksSavesWithOwner(t *testing.T) {
	ctx := context.Background()
	creator := &fakeCreator{}
	c, store := newCore(creator)

	tests := []struct {
		name string
		req  entity.CreateRequest
		want int
	}{
		{"no title", entity.CreateRequest{Mode: entity.ModeNoTitle, Count: 3}, 3},
		{"titles", entity.CreateRequest{Mode: entity.ModeTitles, Titles: []string{"a", "  ", " b "}}, 2},
		{"mask", entity.CreateRequest{Mode: entity.ModeMask, Mask: "m", Count: 2}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			links, err := c.CreateLinks(ctx, 42, &tt.req)
			if err != nil {
				t.Fatal(err)
			}
			if len(links) != tt.want {
				t.Errorf("links = %d, want %d", len(links), tt.want)
			}
		})
	}
	if creator.titles[0] != "m" {
		t.Errorf("last titles = %v", creator.titles)
	}

	owned, _ := store.GetByOwner(ctx, 42)
	if len(owned) != 7 {
		t.Errorf("owned = %d, want 7", len(owned))
	}
	for _, l := range owned {
		if l.ChatId != "-1001" {
			t.Errorf("chat = %q", l.ChatId)
		}
	}
}

func TestCreateLinksRejectsInvalid(t *testing.T) {
	c, store := newCore(&fakeCreator{})
	bad := []entity.CreateRequest{
		{Mode: entity.ModeNoTitle, Count: 0},
		{Mode: entity.ModeNoTitle, Count: 51},
		{Mode: entity.ModeMask, Count: 2},
		{Mode: "other", Count: 1},
		{Mode: entity.ModeTitles, Titles: []string{"  "}},
	}
	for _, req := range bad {
		if _, err := c.CreateLinks(context.Background(), 1, &req); !errors.Is(err, ErrInvalidRequest) {
			t.Errorf("%+v: error = %v, want ErrInvalidRequest", req, err)
		}
	}
	if all, _ := store.GetAll(context.Background()); len(all) != 0 {
		t.Errorf("stored %d links from invalid requests", len(all))
	}
}

func TestCreateLinksFailureSavesNothing(t *testing.T) {
	c, store := newCore(&fakeCreator{err: errors.New("transient: rpc failed")})
	_, err := c.CreateLinks(context.Background(), 1, &entity.CreateRequest{Mode: entity.ModeNoTitle, Count: 2})
	if err == nil {
		t.Fatal("expected error")
	}
	if all, _ := store.GetAll(context.Background()); len(all) != 0 {
		t.Errorf("stored %d links after failure", len(all))
	}
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	c, store := newCore(&fakeCreator{})

	if _, err := c.Stats(ctx, 1); !errors.Is(err, ErrNoLinks) {
		t.Errorf("empty stats err = %v", err)
	}
	if _, err := c.TotalStats(ctx); !errors.Is(err, ErrNoLinks) {
		t.Errorf("empty total err = %v", err)
	}

	owner := int64(1)
	_ = store.UpsertMany(ctx, []entity.InviteLink{{Link: "a"}}, "-1001", &owner)
	_ = store.UpsertMany(ctx, []entity.InviteLink{{Link: "b"}}, "-1001", nil)

	own, err := c.Stats(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if own.Name != export.OwnFile || len(own.Data) == 0 {
		t.Errorf("own file = %s, %d bytes", own.Name, len(own.Data))
	}
	total, err := c.TotalStats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if total.Name != export.TotalFile {
		t.Errorf("total file = %s", total.Name)
	}
}

func TestRegisterUserAndSync(t *testing.T) {
	ctx := context.Background()
	c, store := newCore(&fakeCreator{})

	if err := c.RegisterUser(ctx, &entity.User{TelegramId: 9, Username: "x"}); err != nil {
		t.Fatal(err)
	}
	if u, _ := store.GetUser(ctx, 9); u == nil || u.Username != "x" {
		t.Errorf("user = %+v", u)
	}
	if err := c.RegisterUser(ctx, &entity.User{}); err == nil {
		t.Error("empty user accepted")
	}
	if err := c.SyncNow(ctx); err == nil {
		t.Error("sync without scheduler must fail")
	}
	if err := c.AuthenticateByToken("x"); err == nil {
		t.Error("token accepted without auth service")
	}
	if len(c.Roles(1)) != 0 {
		t.Error("roles without auth service must be empty")
	}
}
