package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"invitebot/entity"
	"invitebot/impl/core"
	"invitebot/internal/export"
)

type fakeHandler struct {
	links     []entity.InviteLink
	created   *entity.CreateRequest
	owner     int64
	synced    bool
	createErr error
}

func (f *fakeHandler) AuthenticateByToken(token string) error {
	if token != "good" {
		return errors.New("invalid token")
	}
	return nil
}

func (f *fakeHandler) Links(_ context.Context) ([]entity.InviteLink, error) {
	return f.links, nil
}

func (f *fakeHandler) LinksByOwner(_ context.Context, ownerId int64) ([]entity.InviteLink, error) {
	f.owner = ownerId
	return nil, nil
}

func (f *fakeHandler) CreateLinks(_ context.Context, ownerId int64, req *entity.CreateRequest) ([]entity.InviteLink, error) {
	f.owner = ownerId
	f.created = req
	if f.createErr != nil {
		return nil, f.createErr
	}
	return []entity.InviteLink{{Link: "https://t.me/+new"}}, nil
}

func (f *fakeHandler) Stats(_ context.Context, _ int64) (*export.File, error) {
	return nil, core.ErrNoLinks
}

func (f *fakeHandler) TotalStats(_ context.Context) (*export.File, error) {
	return &export.File{Name: export.TotalFile, Data: []byte("xlsx")}, nil
}

func (f *fakeHandler) SyncNow(_ context.Context) error {
	f.synced = true
	return nil
}

func (f *fakeHandler) SyncState() string { return "sleeping" }

func serve(t *testing.T, h Handler, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	router := NewRouter(slog.New(slog.NewTextHandler(io.Discard, nil)), h)
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestAuthentication(t *testing.T) {
	h := &fakeHandler{}
	tests := []struct {
		name  string
		token string
		want  int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"invalid", "bad", http.StatusUnauthorized},
		{"valid", "good", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := serve(t, h, http.MethodGet, "/v1/links", tt.token, ""); rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestListLinks(t *testing.T) {
	h := &fakeHandler{links: []entity.InviteLink{{Link: "a"}, {Link: "b"}}}
	rec := serve(t, h, http.MethodGet, "/v1/links", "good", "")
	var body struct {
		Data    []entity.InviteLink `json:"data"`
		Count   int                 `json:"count"`
		Success bool                `json:"success"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if !body.Success || body.Count != 2 || len(body.Data) != 2 {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestCreateLinks(t *testing.T) {
	h := &fakeHandler{}
	rec := serve(t, h, http.MethodPost, "/v1/links/owner/77", "good", `{"mode":"mask","mask":"Promo {n}","count":3}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if h.owner != 77 || h.created == nil || h.created.Mask != "Promo {n}" || h.created.Count != 3 {
		t.Errorf("owner = %d, request = %+v", h.owner, h.created)
	}

	rec = serve(t, h, http.MethodPost, "/v1/links/owner/77", "good", `{"mode":"no_title","count":0}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid request status = %d", rec.Code)
	}
	rec = serve(t, h, http.MethodPost, "/v1/links/owner/abc", "good", `{"mode":"no_title","count":1}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid owner status = %d", rec.Code)
	}
	rec = serve(t, h, http.MethodPost, "/v1/links/owner/77", "good", `{"mode":"titles","titles":["  "]}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("blank titles status = %d", rec.Code)
	}
}

func TestCreateLinksErrorStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"rejected by core", fmt.Errorf("%w: unknown mode", core.ErrInvalidRequest), http.StatusBadRequest},
		{"platform failure", errors.New("CHAT_ADMIN_REQUIRED"), http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &fakeHandler{createErr: tt.err}
			rec := serve(t, h, http.MethodPost, "/v1/links/owner/1", "good", `{"mode":"no_title","count":1}`)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestExport(t *testing.T) {
	h := &fakeHandler{}
	rec := serve(t, h, http.MethodGet, "/v1/links/export", "good", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != export.MimeType {
		t.Errorf("content type = %q", ct)
	}
	if !strings.Contains(rec.Header().Get("Content-Disposition"), export.TotalFile) {
		t.Errorf("disposition = %q", rec.Header().Get("Content-Disposition"))
	}
	if rec.Body.String() != "xlsx" {
		t.Errorf("body = %q", rec.Body.String())
	}

	rec = serve(t, h, http.MethodGet, "/v1/links/export?owner=5", "good", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("no links status = %d", rec.Code)
	}
}

func TestSyncAndHealth(t *testing.T) {
	h := &fakeHandler{}
	if rec := serve(t, h, http.MethodPost, "/v1/sync", "good", ""); rec.Code != http.StatusOK || !h.synced {
		t.Errorf("sync status = %d, synced = %v", rec.Code, h.synced)
	}
	rec := serve(t, h, http.MethodGet, "/healthz", "", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "sleeping") {
		t.Errorf("health = %d %s", rec.Code, rec.Body.String())
	}
	if rec = serve(t, h, http.MethodGet, "/nowhere", "", ""); rec.Code != http.StatusNotFound {
		t.Errorf("unknown path status = %d", rec.Code)
	}
}
