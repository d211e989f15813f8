// Package permission resolves permission nodes from configured grants.
package permission

import (
	"strings"
	"sync"

	"git.home.luguber.info/inful/gsit/internal/world"
)

// Grants checks players against node lists keyed by player name. Nodes are
// dot-separated and compared case-insensitively; a granted "*" segment
// matches any remaining suffix, so "Kick.*" grants "Kick.Pose" and "*"
// grants everything.
type Grants struct {
	mu     sync.RWMutex
	grants map[string][]string
}

func NewGrants(byPlayer map[string][]string) *Grants {
	g := &Grants{}
	g.Replace(byPlayer)
	return g
}

// Replace swaps the whole grant table, e.g. after a config reload.
func (g *Grants) Replace(byPlayer map[string][]string) {
	next := make(map[string][]string, len(byPlayer))
	for name, nodes := range byPlayer {
		key := strings.ToLower(name)
		for _, n := range nodes {
			next[key] = append(next[key], strings.ToLower(strings.TrimSpace(n)))
		}
	}
	g.mu.Lock()
	g.grants = next
	g.mu.Unlock()
}

// Has reports whether player holds any of nodes.
func (g *Grants) Has(player world.Player, nodes ...string) bool {
	if player == nil {
		return false
	}
	g.mu.RLock()
	granted := g.grants[strings.ToLower(player.Name())]
	g.mu.RUnlock()

	for _, want := range nodes {
		want = strings.ToLower(want)
		for _, have := range granted {
			if Matches(have, want) {
				return true
			}
		}
	}
	return false
}

// Matches reports whether the granted node covers the requested one. A "*"
// on the requested side only matches a granted "*" in the same position.
func Matches(granted, requested string) bool {
	g := strings.Split(strings.ToLower(granted), ".")
	r := strings.Split(strings.ToLower(requested), ".")
	for i, seg := range g {
		if seg == "*" {
			return true
		}
		if i >= len(r) || seg != r[i] {
			return false
		}
	}
	return len(g) == len(r)
}
