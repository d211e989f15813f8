package attach

import "git.home.luguber.info/inful/gsit/internal/world"

// Factory creates and destroys the world-side representation of attachments.
type Factory interface {
	// ValidateLocation reports whether point is free of collisions and within bounds.
	ValidateLocation(point world.Location) bool
	// MaterializeMarker spawns a marker at point carrying player; bound keeps
	// the player attached until the marker is destroyed.
	MaterializeMarker(point world.Location, player world.Player, bound bool) (MarkerRef, error)
	// MaterializeCrawl puts player into the crawl representation.
	MaterializeCrawl(player world.Player) (MarkerRef, error)
	DestroyMarker(ref MarkerRef)
	MoveSession(player world.Player, to world.Location)
}

// SeatLocator computes where a seated player is attached for a cell.
type SeatLocator interface {
	SeatLocation(cell world.Cell, from world.Location, xOffset, yOffset, zOffset float64, center bool) world.Location
}

// Terrain exposes the current content of cells.
type Terrain interface {
	BlockAt(cell world.Cell) world.Block
}

// Capabilities answers host feature questions. Registries ask once at construction.
type Capabilities interface {
	Supports(minMajor, minMinor int) bool
}

// Permissions checks permission nodes; any matching node grants access.
type Permissions interface {
	Has(player world.Player, nodes ...string) bool
}

// Messenger sends short-lived informational messages to a player.
type Messenger interface {
	SendTransient(player world.Player, key string)
}

// Scheduler runs task after the given number of host ticks on the host loop.
// A task bound to a player that is no longer valid is dropped.
type Scheduler interface {
	RunAfter(ticks uint64, task func(), bound world.Player)
}

// Settings are the read-only configuration values consulted per operation.
type Settings struct {
	CustomMessage         bool
	EnhancedCompatibility bool
	CenterBlock           bool
	GetUpReturn           bool
	BaseOffset            float64
	SeatMaterials         map[world.Material]float64
}

// SettingsFunc returns the settings currently in effect.
type SettingsFunc func() Settings

// StaticSettings returns a SettingsFunc that always yields s.
func StaticSettings(s Settings) SettingsFunc {
	return func() Settings { return s }
}

// Message keys used by the registries.
const (
	MessageCrawlInfo = "Messages.action-crawl-info"
	MessagePoseInfo  = "Messages.action-pose-info"
)

// MinimumVersion is the host version both registries require.
const (
	MinimumMajor = 18
	MinimumMinor = 0
)
