// Package eventstore journals session transitions and keeps a per-player
// read model rebuilt from the journal.
package eventstore

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"git.home.luguber.info/inful/gsit/internal/attach"
	"git.home.luguber.info/inful/gsit/internal/events"
	"git.home.luguber.info/inful/gsit/internal/logfields"
)

// PlayerSummary is a read model of one player's journal.
type PlayerSummary struct {
	PlayerID   string        `json:"player_id"`
	PlayerName string        `json:"player_name"`
	Crawls     int           `json:"crawls"`
	Poses      int           `json:"poses"`
	CrawlTime  time.Duration `json:"crawl_time"`
	PoseTime   time.Duration `json:"pose_time"`
	LastType   string        `json:"last_type"`
	LastReason string        `json:"last_reason,omitempty"`
	LastSeen   time.Time     `json:"last_seen"`
}

// SessionProjection maintains an in-memory view of the journal per player.
type SessionProjection struct {
	mu      sync.RWMutex
	store   Store
	players map[string]*PlayerSummary
}

// NewSessionProjection creates a projection backed by the given store.
func NewSessionProjection(store Store) *SessionProjection {
	return &SessionProjection{
		store:   store,
		players: make(map[string]*PlayerSummary),
	}
}

// Rebuild reconstructs the projection from every event in the store.
func (p *SessionProjection) Rebuild(ctx context.Context) error {
	evts, err := p.store.GetRange(ctx, time.Unix(0, 0), time.Now().Add(time.Hour))
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.players = make(map[string]*PlayerSummary)
	for _, e := range evts {
		p.applyLocked(e)
	}
	return nil
}

// Apply folds a single event into the projection.
func (p *SessionProjection) Apply(e Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.applyLocked(e)
}

func (p *SessionProjection) applyLocked(e Event) {
	payload, err := DecodeSessionPayload(e)
	if err != nil {
		slog.Warn("Skipping undecodable journal entry", logfields.Error(err))
		return
	}

	s, ok := p.players[e.PlayerID()]
	if !ok {
		s = &PlayerSummary{PlayerID: e.PlayerID()}
		p.players[e.PlayerID()] = s
	}
	s.PlayerName = payload.PlayerName
	s.LastType = e.Type()
	s.LastReason = string(payload.Reason)
	s.LastSeen = e.Timestamp()

	lifetime := time.Duration(payload.DurationMS) * time.Millisecond
	switch {
	case payload.Kind == attach.KindCrawl && payload.Action == events.ActionStart:
		s.Crawls++
	case payload.Kind == attach.KindCrawl:
		s.CrawlTime += lifetime
	case payload.Kind == attach.KindPose && payload.Action == events.ActionStart:
		s.Poses++
	case payload.Kind == attach.KindPose:
		s.PoseTime += lifetime
	}
}

// Get returns a copy of the summary for a player id.
func (p *SessionProjection) Get(playerID string) (PlayerSummary, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	s, ok := p.players[playerID]
	if !ok {
		return PlayerSummary{}, false
	}
	return *s, true
}

// All returns every summary ordered by player name.
func (p *SessionProjection) All() []PlayerSummary {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]PlayerSummary, 0, len(p.players))
	for _, s := range p.players {
		out = append(out, *s)
	}
	slices.SortFunc(out, func(a, b PlayerSummary) int { return strings.Compare(a.PlayerName, b.PlayerName) })
	return out
}
