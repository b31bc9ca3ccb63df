package slideshow

import (
	"context"
	"net/url"

	"github.com/s0up4200/immichshow/immich"
)

// Library is the slice of the Immich API the controller needs. Implemented
// by *immich.Client; small fakes implement it in tests.
type Library interface {
	// Album fetches one album with its nested assets.
	Album(ctx context.Context, id string) (*immich.Album, error)

	// Thumbnail fetches decoded image bytes for an asset with retries.
	Thumbnail(ctx context.Context, assetID, size string, attempts int) ([]byte, error)

	// VideoPlaybackURL resolves a query-authenticated playback URL.
	VideoPlaybackURL(ctx context.Context, assetID string) (*url.URL, error)
}

// Player is the external video player the controller hands videos to. The
// controller never renders video itself; it only starts, pauses, and stops
// playback and reacts to completion.
type Player interface {
	// Play starts playback of the given URL. It returns once playback has
	// been requested, not once it has begun; Playing reports the latter.
	Play(ctx context.Context, u *url.URL) error

	// Playing reports whether playback actually started.
	Playing() bool

	Pause()
	Resume()

	// Stop tears playback down. Idempotent.
	Stop()

	// Done is closed when the current playback reaches end of stream.
	Done() <-chan struct{}
}
