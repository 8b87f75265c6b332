package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidegate/worldctl/internal/gql"
)

func boolPtr(b bool) *bool {
	return &b
}

func TestToUser(t *testing.T) {
	tests := []struct {
		name string
		resp userResponse
		want *User
	}{
		{
			name: "full response",
			resp: userResponse{
				ID:        "u1",
				Email:     "admin@example.com",
				Roles:     []string{"ops", "admin"},
				FullName:  "Admin User",
				IsEnabled: boolPtr(true),
			},
			want: &User{
				ID:       "u1",
				Email:    "admin@example.com",
				FullName: "Admin User",
				Roles:    []string{"admin", "ops"},
				Enabled:  true,
			},
		},
		{
			name: "defaults applied",
			resp: userResponse{ID: "u2", Email: "a@b.c"},
			want: &User{ID: "u2", Email: "a@b.c", Roles: []string{}, Enabled: true},
		},
		{
			name: "explicitly disabled",
			resp: userResponse{ID: "u3", Email: "a@b.c", IsEnabled: boolPtr(false)},
			want: &User{ID: "u3", Email: "a@b.c", Roles: []string{}, Enabled: false},
		},
		{
			name: "roles deduplicated and empties dropped",
			resp: userResponse{ID: "u4", Email: "a@b.c", Roles: []string{"admin", "", "admin", "ops", ""}},
			want: &User{ID: "u4", Email: "a@b.c", Roles: []string{"admin", "ops"}, Enabled: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.resp.toUser()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToUser_MissingIDOrEmail(t *testing.T) {
	tests := []struct {
		name string
		resp userResponse
	}{
		{"missing id", userResponse{Email: "a@b.c"}},
		{"missing email", userResponse{ID: "u1"}},
		{"missing both", userResponse{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.resp.toUser()
			require.Error(t, err)
			assert.True(t, gql.HasKind(err, gql.KindUserNotFound))
		})
	}
}

func TestHasRole(t *testing.T) {
	u := &User{Roles: []string{"admin", "ops"}}

	assert.True(t, u.HasRole("admin"))
	assert.False(t, u.HasRole("viewer"))
}
