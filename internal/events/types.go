package events

import (
	"git.home.luguber.info/inful/gsit/internal/attach"
	"git.home.luguber.info/inful/gsit/internal/world"
)

// Cancellable is implemented by every pre-event. Subscribers veto a change
// by calling SetCancelled(true); the publisher inspects Cancelled afterwards.
type Cancellable interface {
	Cancelled() bool
	SetCancelled(cancelled bool)
}

// Cancellation is embedded by pre-events to provide Cancellable.
type Cancellation struct {
	cancelled bool
}

func (c *Cancellation) Cancelled() bool             { return c.cancelled }
func (c *Cancellation) SetCancelled(cancelled bool) { c.cancelled = cancelled }

// Notification is implemented by every post-event; it is what outbound
// mirrors (journal, NATS) subscribe to.
type Notification interface {
	Kind() attach.Kind
	Action() Action
	Player() world.Player
	StopReason() attach.StopReason
}

// Action distinguishes start from stop notifications.
type Action string

const (
	ActionStart Action = "start"
	ActionStop  Action = "stop"
)

// PreCrawl is published before a crawl starts.
type PreCrawl struct {
	Cancellation
	Subject world.Player
}

// CrawlStarted is published after a crawl has been registered.
type CrawlStarted struct {
	Crawl *attach.Crawl
}

// PreStopCrawl is published before a crawl stops.
type PreStopCrawl struct {
	Cancellation
	Crawl  *attach.Crawl
	Reason attach.StopReason
}

// CrawlStopped is published after a crawl has been removed.
type CrawlStopped struct {
	Crawl  *attach.Crawl
	Reason attach.StopReason
}

// PrePose is published before a pose is created at Cell.
type PrePose struct {
	Cancellation
	Subject world.Player
	Cell    world.Cell
}

// PoseStarted is published after a pose has been indexed.
type PoseStarted struct {
	Pose *attach.Pose
}

// PreStopPose is published before a pose is removed. A veto is only honored
// when Reason is cancellable.
type PreStopPose struct {
	Cancellation
	Pose   *attach.Pose
	Reason attach.StopReason
}

// PoseStopped is published after a pose has been removed from every index.
type PoseStopped struct {
	Pose   *attach.Pose
	Reason attach.StopReason
}

func (*CrawlStarted) Kind() attach.Kind               { return attach.KindCrawl }
func (*CrawlStarted) Action() Action                  { return ActionStart }
func (e *CrawlStarted) Player() world.Player          { return e.Crawl.Player() }
func (*CrawlStarted) StopReason() attach.StopReason   { return "" }
func (*CrawlStopped) Kind() attach.Kind               { return attach.KindCrawl }
func (*CrawlStopped) Action() Action                  { return ActionStop }
func (e *CrawlStopped) Player() world.Player          { return e.Crawl.Player() }
func (e *CrawlStopped) StopReason() attach.StopReason { return e.Reason }
func (*PoseStarted) Kind() attach.Kind                { return attach.KindPose }
func (*PoseStarted) Action() Action                   { return ActionStart }
func (e *PoseStarted) Player() world.Player           { return e.Pose.Player() }
func (*PoseStarted) StopReason() attach.StopReason    { return "" }
func (*PoseStopped) Kind() attach.Kind                { return attach.KindPose }
func (*PoseStopped) Action() Action                   { return ActionStop }
func (e *PoseStopped) Player() world.Player           { return e.Pose.Player() }
func (e *PoseStopped) StopReason() attach.StopReason  { return e.Reason }
