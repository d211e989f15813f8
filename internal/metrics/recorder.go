package metrics

import "time"

// RejectCause enumerates why a start/create request was refused.
type RejectCause string

const (
	CauseVetoed            RejectCause = "vetoed"
	CauseInvalidLocation   RejectCause = "invalid_location"
	CauseMaterializeFailed RejectCause = "materialize_failed"
	CausePermissionDenied  RejectCause = "permission_denied"
)

// Recorder defines observability hooks for attachment lifecycles. kind is
// "crawl" or "pose".
type Recorder interface {
	IncActivation(kind string)
	IncRejection(kind string, cause RejectCause)
	IncStop(kind, reason string, vetoed bool)
	ObserveLifetime(kind string, d time.Duration)
	SetActive(kind string, n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) IncActivation(string)                  {}
func (NoopRecorder) IncRejection(string, RejectCause)      {}
func (NoopRecorder) IncStop(string, string, bool)          {}
func (NoopRecorder) ObserveLifetime(string, time.Duration) {}
func (NoopRecorder) SetActive(string, int)                 {}
