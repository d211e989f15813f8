package permission

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"git.home.luguber.info/inful/gsit/internal/sim"
	"git.home.luguber.info/inful/gsit/internal/world"
)

func TestMatches(t *testing.T) {
	tests := []struct {
		granted, requested string
		want               bool
	}{
		{"Kick.Pose", "kick.pose", true},
		{"kick.*", "Kick.Pose", true},
		{"kick.*", "Kick.*", true},
		{"*", "Kick.Pose", true},
		{"Kick.Pose", "Kick.*", false},
		{"Kick", "Kick.Pose", false},
		{"Kick.Pose.Extra", "Kick.Pose", false},
		{"Kick.Crawl", "Kick.Pose", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Matches(tt.granted, tt.requested), "%s vs %s", tt.granted, tt.requested)
	}
}

func TestGrants_Has(t *testing.T) {
	admin := sim.NewPlayer("Admin", world.Location{})
	guest := sim.NewPlayer("guest", world.Location{})

	g := NewGrants(map[string][]string{"admin": {"Kick.*"}})
	assert.True(t, g.Has(admin, "Kick.Pose"))
	assert.False(t, g.Has(guest, "Kick.Pose", "Kick.*"))
	assert.False(t, g.Has(nil, "Kick.Pose"))

	g.Replace(map[string][]string{"GUEST": {"kick.pose"}})
	assert.False(t, g.Has(admin, "Kick.Pose"))
	assert.True(t, g.Has(guest, "Kick.Pose", "Kick.*"))
}
