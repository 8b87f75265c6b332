package session

import (
	"sort"

	"github.com/tidegate/worldctl/internal/gql"
)

// User is the authenticated admin identity. Immutable once constructed
// from a Me response.
type User struct {
	ID       string
	Email    string
	FullName string
	Roles    []string
	Enabled  bool
}

// userResponse mirrors the Me query JSON response. Unexported — callers
// use User via toUser() normalization.
type userResponse struct {
	ID       string   `json:"_id"`
	Email    string   `json:"email"`
	Roles    []string `json:"roles"`
	FullName string   `json:"fullName"`
	// Pointer so a missing field is distinguishable from false. An absent
	// isEnabled means enabled — never assume disabled on missing data.
	IsEnabled *bool `json:"isEnabled"`
}

// toUser normalizes a Me response into our User type. Requires both an ID
// and an email; roles are deduplicated, sorted, and stripped of empty
// strings; fullName defaults to ""; isEnabled defaults to true.
func (u *userResponse) toUser() (*User, error) {
	if u.ID == "" || u.Email == "" {
		return nil, gql.Errorf(gql.KindUserNotFound, "user response missing id or email")
	}

	seen := make(map[string]struct{}, len(u.Roles))
	roles := make([]string, 0, len(u.Roles))

	for _, r := range u.Roles {
		if r == "" {
			continue
		}

		if _, dup := seen[r]; dup {
			continue
		}

		seen[r] = struct{}{}
		roles = append(roles, r)
	}

	sort.Strings(roles)

	enabled := true
	if u.IsEnabled != nil {
		enabled = *u.IsEnabled
	}

	return &User{
		ID:       u.ID,
		Email:    u.Email,
		FullName: u.FullName,
		Roles:    roles,
		Enabled:  enabled,
	}, nil
}

// HasRole reports whether the user carries the given role.
func (u *User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}

	return false
}
