package sim

import "git.home.luguber.info/inful/gsit/internal/world"

// Player is a simulated session.
type Player struct {
	id       world.PlayerID
	name     string
	location world.Location
	valid    bool
}

// NewPlayer returns a connected player with a deterministic id derived from name.
func NewPlayer(name string, at world.Location) *Player {
	return &Player{id: world.OfflinePlayerID(name), name: name, location: at, valid: true}
}

func (p *Player) ID() world.PlayerID       { return p.id }
func (p *Player) Name() string             { return p.name }
func (p *Player) Location() world.Location { return p.location }
func (p *Player) IsValid() bool            { return p.valid }

// Teleport sets the player's location without any attachment bookkeeping.
func (p *Player) Teleport(to world.Location) { p.location = to }

// Look changes the look direction only.
func (p *Player) Look(yaw, pitch float32) { p.location = p.location.WithRotation(yaw, pitch) }

// Disconnect invalidates the session.
func (p *Player) Disconnect() { p.valid = false }
