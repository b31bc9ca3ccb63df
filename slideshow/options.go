package slideshow

import (
	"time"

	"github.com/s0up4200/immichshow/immich"
)

// Direction is the traversal order of the asset sequence. Index 0 in
// server order is always the newest asset.
type Direction string

// Traversal directions.
const (
	OldestFirst Direction = "oldest-first"
	NewestFirst Direction = "newest-first"
)

// EndPolicy decides what happens at the end of the sequence.
type EndPolicy string

// End-of-sequence policies.
const (
	StopAndNotify EndPolicy = "stop-and-notify"
	Restart       EndPolicy = "restart"
)

// Options configures a slideshow session.
type Options struct {
	// Interval is how long each image is shown during autoplay.
	Interval time.Duration

	// Direction selects the autoplay traversal order.
	Direction Direction

	// AtEnd selects boundary behavior for navigation past either end.
	AtEnd EndPolicy

	// StartAssetID resumes at a specific asset when it is present in the
	// album, overriding the direction-derived default start.
	StartAssetID string

	// AssetFilter keeps only matching assets; nil keeps everything.
	AssetFilter func(immich.Asset) bool

	// ForegroundAttempts bounds retries for the currently shown image.
	ForegroundAttempts int

	// PrefetchAttempts bounds retries for look-ahead fetches. Lower than
	// the foreground count: a failed prefetch costs nothing visible.
	PrefetchAttempts int

	// VideoStartTimeout is how long to wait before checking that video
	// playback actually began. This is a heuristic, not a protocol
	// guarantee; playback that starts later than this gets skipped.
	VideoStartTimeout time.Duration

	// ProgressTick drives the display-only progress fraction.
	ProgressTick time.Duration

	// ThumbnailSize is the size query sent for image fetches.
	ThumbnailSize string

	// CacheCount and CacheBytes bound the media cache. Zero disables the
	// respective bound.
	CacheCount int
	CacheBytes int

	// OverlayTTL is how long the pause overlay stays up before hiding.
	OverlayTTL time.Duration

	// ErrorTTL is how long transient error banners stay up.
	ErrorTTL time.Duration

	// OnState, when set, observes every state change. It runs inside the
	// controller's critical section and must not call back into the
	// controller synchronously.
	OnState func(State)
}

// withDefaults fills in the zero-valued fields.
func (o Options) withDefaults() Options {
	if o.Interval <= 0 {
		o.Interval = 5 * time.Second
	}
	if o.Direction == "" {
		o.Direction = OldestFirst
	}
	if o.AtEnd == "" {
		o.AtEnd = StopAndNotify
	}
	if o.ForegroundAttempts <= 0 {
		o.ForegroundAttempts = 3
	}
	if o.PrefetchAttempts <= 0 {
		o.PrefetchAttempts = 2
	}
	if o.VideoStartTimeout <= 0 {
		o.VideoStartTimeout = 5 * time.Second
	}
	if o.ProgressTick <= 0 {
		o.ProgressTick = 50 * time.Millisecond
	}
	if o.ThumbnailSize == "" {
		o.ThumbnailSize = immich.SizeFullsize
	}
	if o.CacheCount == 0 && o.CacheBytes == 0 {
		o.CacheCount = 10
	}
	if o.OverlayTTL <= 0 {
		o.OverlayTTL = 10 * time.Second
	}
	if o.ErrorTTL <= 0 {
		o.ErrorTTL = 15 * time.Second
	}
	return o
}
