package sim

import (
	"math"
	"slices"
	"strings"

	"git.home.luguber.info/inful/gsit/internal/attach"
	ferrors "git.home.luguber.info/inful/gsit/internal/foundation/errors"
	"git.home.luguber.info/inful/gsit/internal/world"
)

// Build limits of the simulated world.
const (
	MinY = -64
	MaxY = 320
)

// DefaultWorld is the world name used when none is given.
const DefaultWorld = "world"

// Marker is a materialized attachment.
type Marker struct {
	Ref    attach.MarkerRef
	Point  world.Location
	Player world.PlayerID
	Bound  bool
	Crawl  bool
}

// Move records a session move requested through the factory.
type Move struct {
	Player world.PlayerID
	To     world.Location
}

// World implements attach.Factory, attach.SeatLocator and attach.Terrain.
type World struct {
	name       string
	blocks     map[world.Cell]world.Block
	players    map[world.PlayerID]*Player
	markers    map[attach.MarkerRef]Marker
	nextMarker attach.MarkerRef
	moves      []Move
}

func NewWorld(name string) *World {
	if name == "" {
		name = DefaultWorld
	}
	return &World{
		name:    name,
		blocks:  make(map[world.Cell]world.Block),
		players: make(map[world.PlayerID]*Player),
		markers: make(map[attach.MarkerRef]Marker),
	}
}

func (w *World) Name() string { return w.name }

// Cell returns the cell at the given coordinates in this world.
func (w *World) Cell(x, y, z int) world.Cell { return world.Cell{World: w.name, X: x, Y: y, Z: z} }

// SetBlock places material at cell; the shape is inferred from the material name.
func (w *World) SetBlock(cell world.Cell, material world.Material) {
	material = world.Material(strings.ToUpper(string(material)))
	if material == world.Air || material == "" {
		delete(w.blocks, cell)
		return
	}
	w.blocks[cell] = world.Block{Material: material, Shape: world.ShapeOf(material)}
}

// BlockAt returns the block at cell, or air.
func (w *World) BlockAt(cell world.Cell) world.Block {
	if b, ok := w.blocks[cell]; ok {
		return b
	}
	return world.Block{Material: world.Air, Shape: world.ShapeEmpty}
}

// Join connects a player standing at the given coordinates. Joining with the
// name of a connected player returns the existing session.
func (w *World) Join(name string, x, y, z float64) *Player {
	id := world.OfflinePlayerID(name)
	if p, ok := w.players[id]; ok && p.IsValid() {
		return p
	}
	p := NewPlayer(name, world.Location{World: w.name, X: x, Y: y, Z: z})
	w.players[id] = p
	return p
}

// Leave disconnects the named player and forgets the session.
func (w *World) Leave(name string) (*Player, error) {
	p, err := w.PlayerByName(name)
	if err != nil {
		return nil, err
	}
	p.Disconnect()
	delete(w.players, p.ID())
	return p, nil
}

// PlayerByName finds a connected player.
func (w *World) PlayerByName(name string) (*Player, error) {
	if p, ok := w.players[world.OfflinePlayerID(name)]; ok {
		return p, nil
	}
	return nil, ferrors.NotFoundError("player is not connected").
		WithContext("player", name).
		Build()
}

// Players lists connected players sorted by name.
func (w *World) Players() []*Player {
	out := make([]*Player, 0, len(w.players))
	for _, p := range w.players {
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b *Player) int { return strings.Compare(a.name, b.name) })
	return out
}

// SeatLocation places the seat on top of the cell's block. Without centering
// the player's horizontal position is kept, clamped into the cell.
func (w *World) SeatLocation(cell world.Cell, from world.Location, xOffset, yOffset, zOffset float64, center bool) world.Location {
	loc := cell.Center()
	if !center {
		loc.X = clampToCell(from.X, cell.X)
		loc.Z = clampToCell(from.Z, cell.Z)
	}
	loc.Y += w.BlockAt(cell).Shape.Height()
	loc.Yaw, loc.Pitch = from.Yaw, from.Pitch
	return loc.Add(xOffset, yOffset, zOffset)
}

// clampToCell keeps v inside [c, c+1). The far edge belongs to the next cell.
func clampToCell(v float64, c int) float64 {
	lo := float64(c)
	hi := math.Nextafter(float64(c+1), lo)
	return math.Max(lo, math.Min(v, hi))
}

// ValidateLocation rejects points outside the build limits, in another world,
// or whose head room is blocked by a full block.
func (w *World) ValidateLocation(point world.Location) bool {
	if point.World != w.name || point.Y < MinY || point.Y >= MaxY {
		return false
	}
	head := point.Add(0, 1, 0).Cell()
	return w.BlockAt(head).Shape != world.ShapeFull
}

// MaterializeMarker creates a marker at point carrying player.
func (w *World) MaterializeMarker(point world.Location, player world.Player, bound bool) (attach.MarkerRef, error) {
	if !player.IsValid() {
		return 0, ferrors.HostError("cannot attach an invalid session").
			WithContext("player", player.Name()).
			Build()
	}
	return w.addMarker(Marker{Point: point, Player: player.ID(), Bound: bound}), nil
}

// MaterializeCrawl creates the crawl marker at the player's location.
func (w *World) MaterializeCrawl(player world.Player) (attach.MarkerRef, error) {
	if !player.IsValid() {
		return 0, ferrors.HostError("cannot crawl with an invalid session").
			WithContext("player", player.Name()).
			Build()
	}
	return w.addMarker(Marker{Point: player.Location(), Player: player.ID(), Bound: true, Crawl: true}), nil
}

func (w *World) addMarker(m Marker) attach.MarkerRef {
	w.nextMarker++
	m.Ref = w.nextMarker
	w.markers[m.Ref] = m
	if p, ok := w.players[m.Player]; ok && !m.Crawl {
		p.Teleport(m.Point)
	}
	return m.Ref
}

// DestroyMarker removes a marker; unknown references are ignored.
func (w *World) DestroyMarker(ref attach.MarkerRef) { delete(w.markers, ref) }

// MoveSession teleports player and records the move.
func (w *World) MoveSession(player world.Player, to world.Location) {
	w.moves = append(w.moves, Move{Player: player.ID(), To: to})
	if p, ok := w.players[player.ID()]; ok {
		p.Teleport(to)
	}
}

// Marker returns the marker for ref.
func (w *World) Marker(ref attach.MarkerRef) (Marker, bool) {
	m, ok := w.markers[ref]
	return m, ok
}

// MarkerCount is the number of live markers.
func (w *World) MarkerCount() int { return len(w.markers) }

// Moves returns the session moves recorded so far.
func (w *World) Moves() []Move { return slices.Clone(w.moves) }
