// Package pose tracks players posing on world cells. Poses are indexed by
// player and by anchor cell; the first pose at a cell records the cell's
// material, which is forgotten again when the last pose leaves.
package pose

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/jonboulle/clockwork"

	"git.home.luguber.info/inful/gsit/internal/attach"
	"git.home.luguber.info/inful/gsit/internal/events"
	"git.home.luguber.info/inful/gsit/internal/logfields"
	"git.home.luguber.info/inful/gsit/internal/metrics"
	"git.home.luguber.info/inful/gsit/internal/usage"
	"git.home.luguber.info/inful/gsit/internal/world"
)

const kind = string(attach.KindPose)

// StairYOffset lifts the fallback return location when the seat is a stair.
const StairYOffset = 0.5

// CompatMessageDelay is the number of ticks before the repeated info message.
const CompatMessageDelay = 2

// kickPermissions are the nodes that allow kicking every pose at a cell.
var kickPermissions = []string{"Kick.Pose", "Kick.*"}

// Offsets shift the attach point relative to the computed seat location.
type Offsets struct {
	X, Y, Z float64
}

// Options wires the registry to its collaborators.
type Options struct {
	Bus          *events.Bus
	Factory      attach.Factory
	Locator      attach.SeatLocator
	Terrain      attach.Terrain
	Capabilities attach.Capabilities
	Permissions  attach.Permissions
	Messenger    attach.Messenger
	Scheduler    attach.Scheduler
	Settings     attach.SettingsFunc
	Clock        clockwork.Clock
	Recorder     metrics.Recorder
	Logger       *slog.Logger
}

// Registry owns every active pose. It must only be used from the host loop.
type Registry struct {
	bus         *events.Bus
	factory     attach.Factory
	locator     attach.SeatLocator
	terrain     attach.Terrain
	permissions attach.Permissions
	messenger   attach.Messenger
	scheduler   attach.Scheduler
	settings    attach.SettingsFunc
	clock       clockwork.Clock
	recorder    metrics.Recorder
	logger      *slog.Logger

	available bool
	byPlayer  map[world.PlayerID]*attach.Pose
	byCell    map[world.Cell][]*attach.Pose
	materials map[world.Cell]world.Material
	usage     *usage.Counter
}

func NewRegistry(opts Options) *Registry {
	r := &Registry{
		bus:         opts.Bus,
		factory:     opts.Factory,
		locator:     opts.Locator,
		terrain:     opts.Terrain,
		permissions: opts.Permissions,
		messenger:   opts.Messenger,
		scheduler:   opts.Scheduler,
		settings:    opts.Settings,
		clock:       opts.Clock,
		recorder:    opts.Recorder,
		logger:      opts.Logger,
		byPlayer:    make(map[world.PlayerID]*attach.Pose),
		byCell:      make(map[world.Cell][]*attach.Pose),
		materials:   make(map[world.Cell]world.Material),
	}
	if r.settings == nil {
		r.settings = attach.StaticSettings(attach.Settings{})
	}
	if r.clock == nil {
		r.clock = clockwork.NewRealClock()
	}
	if r.recorder == nil {
		r.recorder = metrics.NoopRecorder{}
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	r.logger = r.logger.With(logfields.Kind(kind))
	r.usage = usage.NewCounter(attach.KindPose, r.recorder)
	r.available = opts.Capabilities != nil && opts.Capabilities.Supports(attach.MinimumMajor, attach.MinimumMinor)
	return r
}

func (r *Registry) IsAvailable() bool { return r.available }

// ListAll returns a snapshot of the active poses ordered by start time, then
// player name.
func (r *Registry) ListAll() []*attach.Pose {
	out := make([]*attach.Pose, 0, len(r.byPlayer))
	for _, p := range r.byPlayer {
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b *attach.Pose) int {
		return cmp.Or(a.Started().Compare(b.Started()), strings.Compare(a.Player().Name(), b.Player().Name()))
	})
	return out
}

func (r *Registry) IsActive(id world.PlayerID) bool {
	_, ok := r.byPlayer[id]
	return ok
}

// Get returns the player's pose, or nil.
func (r *Registry) Get(id world.PlayerID) *attach.Pose { return r.byPlayer[id] }

// Occupants returns a snapshot of the poses anchored at cell.
func (r *Registry) Occupants(cell world.Cell) []*attach.Pose { return slices.Clone(r.byCell[cell]) }

func (r *Registry) IsOccupied(cell world.Cell) bool { return len(r.byCell[cell]) > 0 }

// OriginalMaterial returns the material recorded when the first pose at cell was created.
func (r *Registry) OriginalMaterial(cell world.Cell) (world.Material, bool) {
	m, ok := r.materials[cell]
	return m, ok
}

// CreateDefault creates a pose without offsets, facing the player's current
// yaw and centered according to settings.
func (r *Registry) CreateDefault(ctx context.Context, cell world.Cell, player world.Player, variant attach.Variant) (*attach.Pose, error) {
	return r.Create(ctx, cell, player, variant, Offsets{}, player.Location().Yaw, r.settings().CenterBlock)
}

// Create seats player at cell in the given variant. Expected refusals are
// returned as attach sentinel errors and leave no partial state.
func (r *Registry) Create(ctx context.Context, cell world.Cell, player world.Player, variant attach.Variant, off Offsets, rotation float32, center bool) (*attach.Pose, error) {
	log := r.logger.With(
		logfields.Player(player.ID().String()),
		logfields.PlayerName(player.Name()),
		logfields.Cell(cell.String()),
		logfields.Variant(variant.String()),
	)

	if r.IsActive(player.ID()) {
		return nil, attach.ErrAlreadyActive.WithContext("player", player.Name())
	}

	returnTo := player.Location()
	point := r.locator.SeatLocation(cell, returnTo, off.X, off.Y, off.Z, center)
	if !r.factory.ValidateLocation(point) {
		log.Debug("Seat location rejected", logfields.Subject(point.String()))
		r.recorder.IncRejection(kind, metrics.CauseInvalidLocation)
		return nil, attach.ErrInvalidLocation.WithContext("cell", cell.String())
	}

	pre := &events.PrePose{Subject: player, Cell: cell}
	if err := r.bus.Publish(ctx, pre); err != nil {
		return nil, fmt.Errorf("publish pre-pose: %w", err)
	}
	if pre.Cancelled() {
		log.Debug("Pose vetoed")
		r.recorder.IncRejection(kind, metrics.CauseVetoed)
		return nil, attach.ErrVetoed.WithContext("player", player.Name())
	}

	point = point.WithRotation(rotation, point.Pitch)
	marker, err := r.factory.MaterializeMarker(point, player, true)
	if err != nil {
		log.Warn("Pose marker could not be materialized", logfields.Error(err))
		r.recorder.IncRejection(kind, metrics.CauseMaterializeFailed)
		return nil, fmt.Errorf("%w: %w", attach.ErrMaterializeFailed, err)
	}

	r.sendInfo(player)

	p := attach.NewPose(attach.Seat{
		Cell:   cell,
		Point:  point,
		Player: player,
		Marker: marker,
		Return: returnTo,
	}, variant, r.clock.Now())

	r.byPlayer[player.ID()] = p
	if len(r.byCell[cell]) == 0 {
		r.materials[cell] = r.terrain.BlockAt(cell).Material
	}
	r.byCell[cell] = append(r.byCell[cell], p)

	r.usage.Activated()
	r.recorder.SetActive(kind, len(r.byPlayer))

	if err := r.bus.Publish(ctx, &events.PoseStarted{Pose: p}); err != nil {
		log.Warn("Failed to publish pose notification", logfields.Error(err))
	}
	log.Info("Pose created")
	return p, nil
}

func (r *Registry) sendInfo(player world.Player) {
	s := r.settings()
	if !s.CustomMessage || r.messenger == nil {
		return
	}
	r.messenger.SendTransient(player, attach.MessagePoseInfo)
	if s.EnhancedCompatibility && r.scheduler != nil {
		r.scheduler.RunAfter(CompatMessageDelay, func() {
			r.messenger.SendTransient(player, attach.MessagePoseInfo)
		}, player)
	}
}

// Remove ends the player's pose and returns them to where they got up from.
func (r *Registry) Remove(ctx context.Context, id world.PlayerID, reason attach.StopReason) bool {
	return r.RemoveWithOptions(ctx, id, reason, true)
}

// RemoveWithOptions ends the player's pose. It returns true when the pose was
// removed or none was active, and false when a cancellable reason was vetoed.
// The player is only moved when restore is set and the session is still valid.
func (r *Registry) RemoveWithOptions(ctx context.Context, id world.PlayerID, reason attach.StopReason, restore bool) bool {
	p := r.byPlayer[id]
	if p == nil {
		return true
	}
	player := p.Player()
	log := r.logger.With(
		logfields.Player(id.String()),
		logfields.Cell(p.Cell().String()),
		logfields.Reason(reason.String()),
	)

	pre := &events.PreStopPose{Pose: p, Reason: reason}
	if err := r.bus.Publish(ctx, pre); err != nil {
		log.Warn("Failed to publish pre-stop notification", logfields.Error(err))
	}
	if pre.Cancelled() {
		if reason.Cancellable() {
			log.Debug("Pose removal vetoed")
			r.recorder.IncStop(kind, reason.String(), true)
			return false
		}
		log.Debug("Ignoring veto for forced removal")
	}

	if restore {
		if player.IsValid() {
			current := player.Location()
			r.factory.MoveSession(player, r.ReturnLocation(p).WithRotation(current.Yaw, current.Pitch))
		} else {
			log.Warn("Skipping return move for invalid session")
		}
	}

	r.unindex(p)
	r.factory.DestroyMarker(p.Seat().Marker)
	r.recorder.SetActive(kind, len(r.byPlayer))

	if err := r.bus.Publish(ctx, &events.PoseStopped{Pose: p, Reason: reason}); err != nil {
		log.Warn("Failed to publish stop notification", logfields.Error(err))
	}

	lifetime := p.Lifetime(r.clock.Now())
	r.usage.Completed(lifetime)
	r.recorder.IncStop(kind, reason.String(), false)
	log.Info("Pose removed", logfields.Duration(lifetime))
	return true
}

// ReturnLocation is where a player is placed when the pose ends, before the
// player's current look direction is applied.
func (r *Registry) ReturnLocation(p *attach.Pose) world.Location {
	s := r.settings()
	seat := p.Seat()
	if s.GetUpReturn {
		return seat.Return
	}
	block := r.terrain.BlockAt(seat.Cell)
	dy := s.BaseOffset - s.SeatMaterials[block.Material]
	if block.IsStairs() {
		dy += StairYOffset
	}
	return seat.Point.Add(0, dy, 0)
}

func (r *Registry) unindex(p *attach.Pose) {
	cell := p.Cell()
	remaining := slices.DeleteFunc(r.byCell[cell], func(other *attach.Pose) bool { return other == p })
	if len(remaining) == 0 {
		delete(r.byCell, cell)
		delete(r.materials, cell)
	} else {
		r.byCell[cell] = remaining
	}
	delete(r.byPlayer, p.Player().ID())
}

// KickAllAt removes every pose at cell on behalf of kicker. It fails without
// side effects when kicker lacks a kick permission, and stops at the first
// veto; poses removed before that stay removed.
func (r *Registry) KickAllAt(ctx context.Context, cell world.Cell, kicker world.Player) bool {
	occupants := r.Occupants(cell)
	if len(occupants) == 0 {
		return true
	}
	if r.permissions == nil || !r.permissions.Has(kicker, kickPermissions...) {
		r.logger.Debug("Kick denied",
			logfields.PlayerName(kicker.Name()),
			logfields.Cell(cell.String()))
		r.recorder.IncRejection(kind, metrics.CausePermissionDenied)
		return false
	}
	for _, p := range occupants {
		if !r.Remove(ctx, p.Player().ID(), attach.ReasonKicked) {
			return false
		}
	}
	return true
}

// RemoveAll removes every pose one at a time; a veto for one player does not
// prevent the others from being removed.
func (r *Registry) RemoveAll(ctx context.Context, reason attach.StopReason) {
	for _, p := range r.ListAll() {
		r.Remove(ctx, p.Player().ID(), reason)
	}
}

func (r *Registry) UsageCount() int       { return r.usage.Count() }
func (r *Registry) UsageSeconds() int64   { return r.usage.Seconds() }
func (r *Registry) UsageNanos() int64     { return r.usage.ActiveNanos() }
func (r *Registry) Usage() usage.Snapshot { return r.usage.Snapshot() }
func (r *Registry) ResetUsageStats()      { r.usage.Reset() }
