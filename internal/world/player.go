package world

import "github.com/google/uuid"

// PlayerID identifies a player session.
type PlayerID = uuid.UUID

// offlineNamespace seeds deterministic ids for players that join by name only.
var offlineNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("gsit:offline-player"))

// NewPlayerID returns a random player id.
func NewPlayerID() PlayerID { return uuid.New() }

// OfflinePlayerID derives a stable id from a player name.
func OfflinePlayerID(name string) PlayerID {
	return uuid.NewSHA1(offlineNamespace, []byte(name))
}

// ParsePlayerID parses the canonical textual form of a player id.
func ParsePlayerID(s string) (PlayerID, error) { return uuid.Parse(s) }

// Player is the host's view of a connected player session.
type Player interface {
	ID() PlayerID
	Name() string
	// Location is the player's current position and look direction.
	Location() Location
	// IsValid reports whether the session is still live (not disconnected or removed).
	IsValid() bool
}
