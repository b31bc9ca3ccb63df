package slideshow

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s0up4200/immichshow/immich"
)

type fakeLibrary struct {
	mu         sync.Mutex
	album      *immich.Album
	albumErr   error
	thumbErr   map[string]error
	thumbCalls map[string]int
}

func newFakeLibrary(assets ...immich.Asset) *fakeLibrary {
	return &fakeLibrary{
		album:      &immich.Album{ID: "album-1", Assets: assets},
		thumbErr:   make(map[string]error),
		thumbCalls: make(map[string]int),
	}
}

func (f *fakeLibrary) Album(ctx context.Context, id string) (*immich.Album, error) {
	if f.albumErr != nil {
		return nil, f.albumErr
	}
	return f.album, nil
}

func (f *fakeLibrary) Thumbnail(ctx context.Context, assetID, size string, attempts int) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.thumbCalls[assetID]++
	if err := f.thumbErr[assetID]; err != nil {
		return nil, err
	}
	return []byte("data-" + assetID), nil
}

func (f *fakeLibrary) VideoPlaybackURL(ctx context.Context, assetID string) (*url.URL, error) {
	return url.Parse("http://immich.local/api/assets/" + assetID + "/video/playback")
}

func (f *fakeLibrary) calls(assetID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.thumbCalls[assetID]
}

type fakePlayer struct {
	mu      sync.Mutex
	started bool
	paused  bool
	stops   int
	done    chan struct{}
}

func (p *fakePlayer) Play(ctx context.Context, u *url.URL) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done = make(chan struct{})
	return nil
}

func (p *fakePlayer) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.started
}

func (p *fakePlayer) Pause()  { p.mu.Lock(); p.paused = true; p.mu.Unlock() }
func (p *fakePlayer) Resume() { p.mu.Lock(); p.paused = false; p.mu.Unlock() }

func (p *fakePlayer) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stops++
	p.started = false
}

func (p *fakePlayer) Done() <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done == nil {
		closed := make(chan struct{})
		close(closed)
		return closed
	}
	return p.done
}

func (p *fakePlayer) start()  { p.mu.Lock(); p.started = true; p.mu.Unlock() }
func (p *fakePlayer) finish() { p.mu.Lock(); close(p.done); p.mu.Unlock() }

func imageAssets(n int) []immich.Asset {
	assets := make([]immich.Asset, n)
	for i := range assets {
		assets[i] = immich.Asset{ID: fmt.Sprintf("a%d", i), Type: "IMAGE"}
	}
	return assets
}

// manualOptions keeps every timer far away so only explicit commands move
// the slideshow.
func manualOptions() Options {
	return Options{
		Interval:  time.Hour,
		Direction: OldestFirst,
		AtEnd:     StopAndNotify,
	}
}

func TestOldestFirstWalkToBoundary(t *testing.T) {
	lib := newFakeLibrary(imageAssets(5)...)
	c := New(lib, nil, zerolog.Nop(), manualOptions())

	require.NoError(t, c.Start(context.Background(), "album-1"))
	defer c.Exit()

	// Oldest-first starts at the last index.
	assert.Equal(t, 4, c.State().Position)

	for _, want := range []int{3, 2, 1, 0} {
		c.Later()
		state := c.State()
		assert.Equal(t, want, state.Position)
		assert.False(t, state.AtLast)
		assert.Equal(t, PhaseShowingImage, state.Phase)
	}

	// Past the newest asset there is no later neighbor.
	c.Later()
	state := c.State()
	assert.Equal(t, 0, state.Position)
	assert.True(t, state.AtLast)

	// Further "go later" is a no-op while the flag is up.
	c.Later()
	state = c.State()
	assert.Equal(t, 0, state.Position)
	assert.True(t, state.AtLast)

	// Navigating away clears the boundary flag.
	c.Earlier()
	state = c.State()
	assert.Equal(t, 1, state.Position)
	assert.False(t, state.AtLast)
	assert.False(t, state.AtFirst)
}

func TestNewestFirstStartsAtZero(t *testing.T) {
	lib := newFakeLibrary(imageAssets(3)...)
	opts := manualOptions()
	opts.Direction = NewestFirst

	c := New(lib, nil, zerolog.Nop(), opts)
	require.NoError(t, c.Start(context.Background(), "album-1"))
	defer c.Exit()

	assert.Equal(t, 0, c.State().Position)

	// Earlier moves toward older assets; under newest-first the oldest
	// asset is the last stop in traversal order.
	c.Earlier()
	c.Earlier()
	assert.Equal(t, 2, c.State().Position)

	c.Earlier()
	state := c.State()
	assert.True(t, state.AtLast)
	assert.False(t, state.AtFirst)
}

func TestRestartPolicyWraps(t *testing.T) {
	lib := newFakeLibrary(imageAssets(3)...)
	opts := manualOptions()
	opts.Direction = NewestFirst
	opts.AtEnd = Restart

	c := New(lib, nil, zerolog.Nop(), opts)
	require.NoError(t, c.Start(context.Background(), "album-1"))
	defer c.Exit()

	require.Equal(t, 0, c.State().Position)

	c.Later()
	state := c.State()
	assert.Equal(t, 2, state.Position, "later from the newest wraps to the oldest")
	assert.False(t, state.AtFirst)
	assert.False(t, state.AtLast)
}

func TestResumeFromReportedAsset(t *testing.T) {
	lib := newFakeLibrary(imageAssets(5)...)
	c := New(lib, nil, zerolog.Nop(), manualOptions())
	require.NoError(t, c.Start(context.Background(), "album-1"))

	c.Later()
	c.Later()
	require.Equal(t, 2, c.State().Position)

	resumeID := c.Exit()
	assert.Equal(t, "a2", resumeID)

	// A new session with the reported asset resumes there, not at the
	// configured default start.
	opts := manualOptions()
	opts.StartAssetID = resumeID
	resumed := New(newFakeLibrary(imageAssets(5)...), nil, zerolog.Nop(), opts)
	require.NoError(t, resumed.Start(context.Background(), "album-1"))
	defer resumed.Exit()

	assert.Equal(t, 2, resumed.State().Position)
}

func TestUnknownStartAssetFallsBackToDefault(t *testing.T) {
	lib := newFakeLibrary(imageAssets(3)...)
	opts := manualOptions()
	opts.StartAssetID = "deleted-since"

	c := New(lib, nil, zerolog.Nop(), opts)
	require.NoError(t, c.Start(context.Background(), "album-1"))
	defer c.Exit()

	assert.Equal(t, 2, c.State().Position)
}

func TestBrokenAssetAutoAdvances(t *testing.T) {
	lib := newFakeLibrary(imageAssets(3)...)
	lib.thumbErr["a1"] = fmt.Errorf("decode failed")

	c := New(lib, nil, zerolog.Nop(), manualOptions())
	require.NoError(t, c.Start(context.Background(), "album-1"))
	defer c.Exit()

	require.Equal(t, 2, c.State().Position)

	// a1 is broken; the slideshow must not stall on it.
	c.Later()
	state := c.State()
	assert.Equal(t, 0, state.Position)
	assert.Equal(t, PhaseShowingImage, state.Phase)
	assert.Contains(t, state.Errors, "loading image failed: id=a1")
}

func TestAllBrokenAssetsHaltUnderRestart(t *testing.T) {
	lib := newFakeLibrary(imageAssets(2)...)
	lib.thumbErr["a0"] = fmt.Errorf("decode failed")
	lib.thumbErr["a1"] = fmt.Errorf("decode failed")

	opts := manualOptions()
	opts.AtEnd = Restart

	c := New(lib, nil, zerolog.Nop(), opts)
	// Wrapping never terminates at a boundary, so the skip loop itself must
	// bound the walk and Start must still return.
	require.NoError(t, c.Start(context.Background(), "album-1"))
	defer c.Exit()

	state := c.State()
	assert.Equal(t, PhaseIdle, state.Phase)
	assert.Contains(t, state.Errors, "no assets could be loaded")

	// Every position was tried exactly once.
	assert.Equal(t, 1, lib.calls("a0"))
	assert.Equal(t, 1, lib.calls("a1"))
}

func TestAllBrokenAssetsHaltAtBoundary(t *testing.T) {
	lib := newFakeLibrary(imageAssets(2)...)
	lib.thumbErr["a0"] = fmt.Errorf("decode failed")
	lib.thumbErr["a1"] = fmt.Errorf("decode failed")

	c := New(lib, nil, zerolog.Nop(), manualOptions())
	require.NoError(t, c.Start(context.Background(), "album-1"))
	defer c.Exit()

	state := c.State()
	assert.True(t, state.AtLast)
	assert.NotEmpty(t, state.Errors)
}

func TestErrorBannerAutoClears(t *testing.T) {
	lib := newFakeLibrary(imageAssets(3)...)
	lib.thumbErr["a1"] = fmt.Errorf("decode failed")

	opts := manualOptions()
	opts.ErrorTTL = 20 * time.Millisecond

	c := New(lib, nil, zerolog.Nop(), opts)
	require.NoError(t, c.Start(context.Background(), "album-1"))
	defer c.Exit()

	c.Later()
	require.NotEmpty(t, c.State().Errors)

	assert.Eventually(t, func() bool {
		return len(c.State().Errors) == 0
	}, time.Second, 5*time.Millisecond)
}

func TestEmptyAlbumFailsStart(t *testing.T) {
	lib := newFakeLibrary()
	c := New(lib, nil, zerolog.Nop(), manualOptions())
	require.Error(t, c.Start(context.Background(), "album-1"))
}

func TestAssetFilterApplies(t *testing.T) {
	assets := imageAssets(2)
	assets = append(assets, immich.Asset{ID: "v0", Type: "VIDEO"})
	lib := newFakeLibrary(assets...)

	opts := manualOptions()
	opts.AssetFilter = func(a immich.Asset) bool { return a.IsImage() }

	c := New(lib, nil, zerolog.Nop(), opts)
	require.NoError(t, c.Start(context.Background(), "album-1"))
	defer c.Exit()

	state := c.State()
	assert.Equal(t, 2, state.Overlay.Total, "video filtered out")
}

func TestPauseSurfacesOverlay(t *testing.T) {
	captured := "2024-05-17T18:30:00.000Z"
	city, region, country := "Oslo", "Oslo", "Norway"

	assets := imageAssets(3)
	assets[2].ExifInfo = &immich.ExifInfo{
		DateTimeOriginal: &captured,
		City:             &city,
		State:            &region,
		Country:          &country,
	}
	lib := newFakeLibrary(assets...)

	c := New(lib, nil, zerolog.Nop(), manualOptions())
	require.NoError(t, c.Start(context.Background(), "album-1"))
	defer c.Exit()

	c.TogglePause()
	state := c.State()
	assert.False(t, state.Running)
	assert.True(t, state.ShowOverlay)
	assert.Equal(t, 1, state.Overlay.Ordinal, "oldest-first shows traversal-order ordinal")
	assert.Equal(t, 3, state.Overlay.Total)
	assert.Equal(t, "17/05/2024 18:30", state.Overlay.DateTime)
	assert.Equal(t, "Oslo, Oslo, Norway", state.Overlay.Location)

	c.TogglePause()
	state = c.State()
	assert.True(t, state.Running)
	assert.False(t, state.ShowOverlay)
}

func TestOverlayAutoHides(t *testing.T) {
	lib := newFakeLibrary(imageAssets(2)...)
	opts := manualOptions()
	opts.OverlayTTL = 20 * time.Millisecond

	c := New(lib, nil, zerolog.Nop(), opts)
	require.NoError(t, c.Start(context.Background(), "album-1"))
	defer c.Exit()

	c.TogglePause()
	require.True(t, c.State().ShowOverlay)

	assert.Eventually(t, func() bool {
		return !c.State().ShowOverlay
	}, time.Second, 5*time.Millisecond)
	assert.False(t, c.State().Running, "hiding the overlay does not resume playback")
}

func TestAutoplayAdvancesAndHaltsAtBoundary(t *testing.T) {
	lib := newFakeLibrary(imageAssets(2)...)
	opts := manualOptions()
	opts.Interval = 20 * time.Millisecond

	c := New(lib, nil, zerolog.Nop(), opts)
	require.NoError(t, c.Start(context.Background(), "album-1"))
	defer c.Exit()

	assert.Eventually(t, func() bool {
		state := c.State()
		return state.Position == 0 && state.AtLast
	}, time.Second, 5*time.Millisecond, "autoplay should walk to the end and raise the boundary flag")
}

func TestProgressAdvancesDuringAutoplay(t *testing.T) {
	lib := newFakeLibrary(imageAssets(1)...)
	opts := manualOptions()
	opts.Interval = 500 * time.Millisecond
	opts.ProgressTick = 5 * time.Millisecond

	c := New(lib, nil, zerolog.Nop(), opts)
	require.NoError(t, c.Start(context.Background(), "album-1"))
	defer c.Exit()

	assert.Eventually(t, func() bool {
		return c.State().Progress > 0
	}, time.Second, 5*time.Millisecond)
}

func TestPrefetchPopulatesCache(t *testing.T) {
	lib := newFakeLibrary(imageAssets(3)...)
	c := New(lib, nil, zerolog.Nop(), manualOptions())
	require.NoError(t, c.Start(context.Background(), "album-1"))
	defer c.Exit()

	// Starting at a2, the later neighbor a1 gets prefetched.
	require.Eventually(t, func() bool {
		return lib.calls("a1") == 1
	}, time.Second, 5*time.Millisecond)

	c.Later()
	assert.Equal(t, 1, lib.calls("a1"), "navigation hit the cache, not the network")
}

func TestVideoWatchdogSkipsStalledPlayback(t *testing.T) {
	assets := []immich.Asset{
		{ID: "a0", Type: "IMAGE"},
		{ID: "v1", Type: "VIDEO", Duration: "00:00:10.000"},
	}
	lib := newFakeLibrary(assets...)
	// The player never reports playback as started.
	playback := &fakePlayer{}

	opts := manualOptions()
	opts.VideoStartTimeout = 20 * time.Millisecond

	c := New(lib, playback, zerolog.Nop(), opts)
	require.NoError(t, c.Start(context.Background(), "album-1"))
	defer c.Exit()

	require.Equal(t, PhaseShowingVideo, c.State().Phase)

	assert.Eventually(t, func() bool {
		state := c.State()
		return state.Position == 0 && state.Phase == PhaseShowingImage
	}, time.Second, 5*time.Millisecond, "stalled video should be skipped")
	assert.Contains(t, c.State().Errors, "video did not start playing")
}

func TestVideoCompletionAdvances(t *testing.T) {
	assets := []immich.Asset{
		{ID: "a0", Type: "IMAGE"},
		{ID: "v1", Type: "VIDEO", Duration: "00:00:10.000"},
	}
	lib := newFakeLibrary(assets...)
	playback := &fakePlayer{}

	c := New(lib, playback, zerolog.Nop(), manualOptions())
	require.NoError(t, c.Start(context.Background(), "album-1"))
	defer c.Exit()

	playback.start()
	require.Equal(t, PhaseShowingVideo, c.State().Phase)

	// End of stream triggers the same advance as the autoplay timer.
	playback.finish()

	assert.Eventually(t, func() bool {
		state := c.State()
		return state.Position == 0 && state.Phase == PhaseShowingImage
	}, time.Second, 5*time.Millisecond)
}

func TestVideoWithoutPlayerIsSkipped(t *testing.T) {
	assets := []immich.Asset{
		{ID: "a0", Type: "IMAGE"},
		{ID: "v1", Type: "VIDEO"},
	}
	lib := newFakeLibrary(assets...)

	c := New(lib, nil, zerolog.Nop(), manualOptions())
	require.NoError(t, c.Start(context.Background(), "album-1"))
	defer c.Exit()

	state := c.State()
	assert.Equal(t, 0, state.Position)
	assert.Equal(t, PhaseShowingImage, state.Phase)
	assert.NotEmpty(t, state.Errors)
}

func TestExitStopsPlayerAndReportsAsset(t *testing.T) {
	assets := []immich.Asset{{ID: "v0", Type: "VIDEO"}}
	lib := newFakeLibrary(assets...)
	playback := &fakePlayer{}

	c := New(lib, playback, zerolog.Nop(), manualOptions())
	require.NoError(t, c.Start(context.Background(), "album-1"))
	playback.start()

	id := c.Exit()
	assert.Equal(t, "v0", id)
	assert.False(t, playback.Playing())

	// Exit is terminal; further commands and exits are no-ops.
	c.Later()
	assert.Equal(t, "", c.Exit())
}
