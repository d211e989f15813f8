package attach

import (
	"time"

	"git.home.luguber.info/inful/gsit/internal/world"
)

// Kind names an attachment family.
type Kind string

const (
	KindCrawl Kind = "crawl"
	KindPose  Kind = "pose"
)

// MarkerRef is an opaque handle to a spatial marker created by a Factory.
type MarkerRef uint64

// Crawl is an active crawl state. It is owned by the crawl registry and
// never mutated after creation.
type Crawl struct {
	player  world.Player
	marker  MarkerRef
	started time.Time
}

func NewCrawl(player world.Player, marker MarkerRef, started time.Time) *Crawl {
	return &Crawl{player: player, marker: marker, started: started}
}

func (c *Crawl) Player() world.Player { return c.player }
func (c *Crawl) Marker() MarkerRef    { return c.marker }
func (c *Crawl) Started() time.Time   { return c.started }

// Lifetime is the time elapsed between creation and now.
func (c *Crawl) Lifetime(now time.Time) time.Duration { return now.Sub(c.started) }

// Seat binds a pose to the world: the anchor cell, the computed attach point,
// the occupying player, the marker standing at the attach point, and the
// location the player occupied before posing.
type Seat struct {
	Cell   world.Cell
	Point  world.Location
	Player world.Player
	Marker MarkerRef
	Return world.Location
}

// Pose is an active pose state.
type Pose struct {
	seat    Seat
	variant Variant
	started time.Time
}

func NewPose(seat Seat, variant Variant, started time.Time) *Pose {
	return &Pose{seat: seat, variant: variant, started: started}
}

func (p *Pose) Player() world.Player { return p.seat.Player }
func (p *Pose) Seat() Seat           { return p.seat }
func (p *Pose) Cell() world.Cell     { return p.seat.Cell }
func (p *Pose) Variant() Variant     { return p.variant }
func (p *Pose) Started() time.Time   { return p.started }

func (p *Pose) Lifetime(now time.Time) time.Duration { return now.Sub(p.started) }
