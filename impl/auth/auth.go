package auth

import (
	"crypto/subtle"
	"fmt"
	"invitebot/entity"
	"invitebot/internal/config"
)

// Auth resolves bot roles from the admin lists of the config and checks API tokens.
type Auth struct {
	roles    map[int64]entity.Roles
	superIds []int64
	token    string
}

func New(admins config.Admins, apiToken string) *Auth {
	a := &Auth{
		roles:    make(map[int64]entity.Roles),
		superIds: append([]int64{}, admins.Super...),
		token:    apiToken,
	}
	a.grant(entity.RoleSuper, admins.Super)
	a.grant(entity.RoleBuyer, admins.Buyer)
	a.grant(entity.RoleOther, admins.Other)
	return a
}

func (a *Auth) grant(role entity.Role, ids []int64) {
	for _, id := range ids {
		if a.roles[id] == nil {
			a.roles[id] = make(entity.Roles)
		}
		a.roles[id][role] = true
	}
}

// Roles returns the roles of a telegram user, empty for strangers.
func (a *Auth) Roles(id int64) entity.Roles {
	roles, ok := a.roles[id]
	if !ok {
		return entity.Roles{}
	}
	return roles
}

func (a *Auth) SuperIds() []int64 {
	return a.superIds
}

func (a *Auth) CheckToken(token string) error {
	if a.token == "" {
		return fmt.Errorf("api token not configured")
	}
	if subtle.ConstantTimeCompare([]byte(a.token), []byte(token)) != 1 {
		return fmt.Errorf("invalid token")
	}
	return nil
}
