package auth

import (
	"testing"

	"invitebot/entity"
	"invitebot/internal/config"
)

func TestRoles(t *testing.T) {
	a := New(config.Admins{
		Super: []int64{1},
		Buyer: []int64{1, 2},
		Other: []int64{3},
	}, "")

	tests := []struct {
		id      int64
		create  bool
		isSuper bool
	}{
		{1, true, true},
		{2, true, false},
		{3, false, false},
		{4, false, false},
	}
	for _, tt := range tests {
		roles := a.Roles(tt.id)
		if got := roles.HasAny(entity.RoleSuper, entity.RoleBuyer); got != tt.create {
			t.Errorf("%d: create = %v, want %v", tt.id, got, tt.create)
		}
		if got := roles.HasAny(entity.RoleSuper); got != tt.isSuper {
			t.Errorf("%d: super = %v, want %v", tt.id, got, tt.isSuper)
		}
	}
	if ids := a.SuperIds(); len(ids) != 1 || ids[0] != 1 {
		t.Errorf("super ids = %v", ids)
	}
}

func TestCheckToken(t *testing.T) {
	if err := New(config.Admins{}, "").CheckToken(""); err == nil {
		t.Error("empty configured token must reject everything")
	}
	a := New(config.Admins{}, "s3cret")
	if err := a.CheckToken("s3cret"); err != nil {
		t.Errorf("valid token rejected: %v", err)
	}
	if err := a.CheckToken("other"); err == nil {
		t.Error("invalid token accepted")
	}
}
