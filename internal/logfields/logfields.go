package logfields

import (
	"log/slog"
	"time"
)

// Canonical log field name constants to avoid drift across packages.
const (
	KeyPlayer     = "player"
	KeyPlayerName = "player_name"
	KeyCell       = "cell"
	KeyKind       = "kind"
	KeyVariant    = "variant"
	KeyReason     = "reason"
	KeyCause      = "cause"
	KeyTick       = "tick"
	KeySkipped    = "skipped_ticks"
	KeyDurationMS = "duration_ms"
	KeySubject    = "subject"
	KeyPath       = "path"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Player(id string) slog.Attr    { return slog.String(KeyPlayer, id) }
func PlayerName(n string) slog.Attr { return slog.String(KeyPlayerName, n) }
func Cell(c string) slog.Attr       { return slog.String(KeyCell, c) }
func Kind(k string) slog.Attr       { return slog.String(KeyKind, k) }
func Variant(v string) slog.Attr    { return slog.String(KeyVariant, v) }
func Reason(r string) slog.Attr     { return slog.String(KeyReason, r) }
func Cause(c string) slog.Attr      { return slog.String(KeyCause, c) }
func Tick(t uint64) slog.Attr       { return slog.Uint64(KeyTick, t) }
func Skipped(n uint64) slog.Attr    { return slog.Uint64(KeySkipped, n) }
func Subject(s string) slog.Attr    { return slog.String(KeySubject, s) }
func Path(p string) slog.Attr       { return slog.String(KeyPath, p) }
func Duration(d time.Duration) slog.Attr {
	return slog.Float64(KeyDurationMS, float64(d)/float64(time.Millisecond))
}
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
