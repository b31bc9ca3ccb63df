package slideshow

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/s0up4200/immichshow/immich"
)

// Phase is the coarse display state of the slideshow.
type Phase int

// Slideshow phases.
const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseShowingImage
	PhaseShowingVideo
)

// Overlay is the descriptive data surfaced while an image is paused.
type Overlay struct {
	// Ordinal is the 1-based position in traversal order.
	Ordinal int
	Total   int

	// DateTime is the formatted capture timestamp, empty when unknown.
	DateTime string

	// Location is "city, state, country", empty unless all three exist.
	Location string
}

// State is a snapshot of the slideshow. Rendering is a pure projection of
// this value; the controller mutates it only through its transitions.
type State struct {
	Phase    Phase
	Position int
	Asset    immich.Asset

	// Image holds the raw bytes of the currently shown image.
	Image []byte

	// Progress runs 0..1 across the autoplay interval. Display only; it
	// carries no control authority.
	Progress float64

	// Running reports whether image autoplay is active (not paused).
	Running bool

	ShowOverlay bool
	Overlay     Overlay

	// AtFirst and AtLast are the sticky boundary flags under the
	// stop-and-notify end policy.
	AtFirst bool
	AtLast  bool

	// Errors are the transient banner messages, newest last.
	Errors []string
}

// Controller drives one slideshow session over an album. All transitions
// are serialized through its mutex: a timer firing and a manual command
// arriving together resolve to at most one transition, and the foreground
// load of the current asset completes before the next command is accepted.
type Controller struct {
	mu sync.Mutex

	lib    Library
	player Player
	cache  *Cache
	opts   Options
	logger zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	assets []immich.Asset
	pos    int

	// epoch identifies the current asset's generation. Every timer,
	// watchdog, and completion watcher captures it and no-ops when it has
	// moved on, so callbacks never fire into a later asset.
	epoch int

	phase       Phase
	image       []byte
	progress    float64
	running     bool
	videoPaused bool
	showOverlay bool
	atFirst     bool
	atLast      bool
	errors      []string

	advanceTimer *time.Timer
	overlayTimer *time.Timer
	errorTimer   *time.Timer

	exited bool
}

// New creates a controller. player may be nil when the album is known to
// contain no videos; video assets then fail over to auto-advance.
func New(lib Library, player Player, logger zerolog.Logger, opts Options) *Controller {
	opts = opts.withDefaults()
	return &Controller{
		lib:     lib,
		player:  player,
		cache:   NewCache(opts.CacheCount, opts.CacheBytes),
		opts:    opts,
		logger:  logger,
		running: true,
		phase:   PhaseIdle,
	}
}

// Start fetches the album, computes the starting position, and loads the
// first asset. It returns once the first foreground load has settled.
func (c *Controller) Start(ctx context.Context, albumID string) error {
	album, err := c.lib.Album(ctx, albumID)
	if err != nil {
		return fmt.Errorf("failed to load album: %w", err)
	}

	assets := album.Assets
	if c.opts.AssetFilter != nil {
		kept := make([]immich.Asset, 0, len(assets))
		for _, asset := range assets {
			if c.opts.AssetFilter(asset) {
				kept = append(kept, asset)
			}
		}
		assets = kept
	}
	if len(assets) == 0 {
		return fmt.Errorf("album %s has no assets to show", albumID)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.ctx, c.cancel = context.WithCancel(ctx)
	c.assets = assets
	c.pos = c.startPosition()

	c.logger.Info().
		Str("album", albumID).
		Int("assets", len(assets)).
		Str("direction", string(c.opts.Direction)).
		Msg("Starting slideshow")

	c.loadCurrentLocked()
	return nil
}

// startPosition derives the initial cursor: oldest-first starts at the last
// index, newest-first at index 0, and a requested start asset overrides
// both when present.
func (c *Controller) startPosition() int {
	pos := 0
	if c.opts.Direction == OldestFirst {
		pos = len(c.assets) - 1
	}

	if c.opts.StartAssetID != "" {
		for i, asset := range c.assets {
			if asset.ID == c.opts.StartAssetID {
				return i
			}
		}
	}
	return pos
}

// Later moves toward newer assets (index 0 is newest).
func (c *Controller) Later() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.exited || c.assets == nil {
		return
	}

	// Cancel the competing autoplay trigger before acting.
	c.stopTimersLocked()
	c.goLaterLocked()
}

// Earlier moves toward older assets.
func (c *Controller) Earlier() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.exited || c.assets == nil {
		return
	}

	c.stopTimersLocked()
	c.goEarlierLocked()
}

// TogglePause pauses or resumes the current asset. For images this halts
// or restarts the autoplay timers and surfaces the overlay; for videos it
// delegates to the player.
func (c *Controller) TogglePause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.exited {
		return
	}

	switch c.phase {
	case PhaseShowingVideo:
		if c.player == nil {
			return
		}
		if c.videoPaused {
			c.player.Resume()
			c.videoPaused = false
		} else {
			c.player.Pause()
			c.videoPaused = true
		}

	case PhaseShowingImage:
		c.running = !c.running
		if c.running {
			c.hideOverlayLocked()
			c.startImageTimersLocked(c.epoch)
		} else {
			c.stopTimersLocked()
			c.showOverlayLocked()
		}
	}

	c.notifyLocked()
}

// Exit tears the session down: cancels outstanding fetches and timers,
// stops the player, releases the cache, and reports the asset ID of the
// exited position so a later session can resume there.
func (c *Controller) Exit() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.exited {
		return ""
	}

	c.exited = true
	c.epoch++
	c.stopTimersLocked()
	if c.overlayTimer != nil {
		c.overlayTimer.Stop()
	}
	if c.errorTimer != nil {
		c.errorTimer.Stop()
	}
	if c.player != nil {
		c.player.Stop()
	}
	c.cache.Clear()
	if c.cancel != nil {
		c.cancel()
	}

	if c.assets == nil {
		return ""
	}
	id := c.assets[c.pos].ID
	c.logger.Info().Str("asset", id).Msg("Slideshow exited")
	return id
}

// State returns a snapshot of the current slideshow state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// EstimatedDuration reports the aggregate runtime estimate for the loaded
// asset sequence.
func (c *Controller) EstimatedDuration() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return EstimateDuration(c.assets, c.opts.Interval)
}

// loadCurrentLocked makes the asset at c.pos current: it invalidates all
// per-asset callbacks, releases the previous media handle, performs the
// foreground load, and kicks off look-ahead prefetch. A broken asset is
// recorded and skipped in the active direction. Skipping is a bounded loop
// over the sequence, never a recursive transition: each position is visited
// at most once, so an album where nothing loads (server gone mid-session)
// halts with the error banner up instead of looping under the restart
// policy.
func (c *Controller) loadCurrentLocked() {
	for tried := 0; tried < len(c.assets); tried++ {
		epoch := c.beginAssetLocked()

		if c.showAssetLocked(c.assets[c.pos], epoch) {
			if c.epoch == epoch {
				c.prefetchLocked(epoch)
			}
			return
		}

		next, ok := c.skipIndex()
		if !ok {
			// Skipping runs in the active direction, so the boundary it
			// can hit is always the traversal-order end.
			c.haltAtBoundaryLocked(true)
			return
		}
		c.pos = next
	}

	c.recordErrorLocked("no assets could be loaded")
	c.phase = PhaseIdle
	c.progress = 0
	c.notifyLocked()
}

// beginAssetLocked opens a new asset generation: callbacks keyed to earlier
// epochs become no-ops, playback and timers stop, and the phase drops back
// to loading.
func (c *Controller) beginAssetLocked() int {
	c.epoch++
	c.stopTimersLocked()
	if c.player != nil {
		c.player.Stop()
	}
	c.videoPaused = false
	c.image = nil
	c.progress = 0
	c.hideOverlayLocked()
	c.phase = PhaseLoading
	c.notifyLocked()
	return c.epoch
}

// showAssetLocked performs the foreground load of asset. A false return
// means the asset cannot be shown and should be skipped.
func (c *Controller) showAssetLocked(asset immich.Asset, epoch int) bool {
	switch {
	case asset.IsImage():
		return c.showImageLocked(asset, epoch)
	case asset.IsVideo():
		return c.showVideoLocked(asset, epoch)
	default:
		c.recordErrorLocked(fmt.Sprintf("unsupported asset type %q: id=%s", asset.Type, asset.ID))
		return false
	}
}

func (c *Controller) showImageLocked(asset immich.Asset, epoch int) bool {
	data, ok := c.cache.Get(c.pos)
	if !ok {
		var err error
		data, err = c.lib.Thumbnail(c.ctx, asset.ID, c.opts.ThumbnailSize, c.opts.ForegroundAttempts)
		if err != nil {
			c.logger.Warn().Err(err).Str("asset", asset.ID).Msg("Failed to load image")
			c.recordErrorLocked(fmt.Sprintf("loading image failed: id=%s", asset.ID))
			return false
		}
	}

	c.image = data
	c.phase = PhaseShowingImage
	if c.running {
		c.startImageTimersLocked(epoch)
	}
	c.notifyLocked()
	return true
}

func (c *Controller) showVideoLocked(asset immich.Asset, epoch int) bool {
	if c.player == nil {
		c.recordErrorLocked(fmt.Sprintf("no video player available: id=%s", asset.ID))
		return false
	}

	u, err := c.lib.VideoPlaybackURL(c.ctx, asset.ID)
	if err != nil {
		c.logger.Warn().Err(err).Str("asset", asset.ID).Msg("Failed to resolve playback URL")
		c.recordErrorLocked("loading video failed: failed to construct playback URL")
		c.notifyLocked()
		// Stay on the asset; the banner explains the missing playback.
		return true
	}

	if err := c.player.Play(c.ctx, u); err != nil {
		c.logger.Warn().Err(err).Str("asset", asset.ID).Msg("Failed to start video")
		c.recordErrorLocked(fmt.Sprintf("video failed to start: id=%s", asset.ID))
		return false
	}

	c.phase = PhaseShowingVideo
	c.notifyLocked()

	// Watchdog: check that playback actually began. The bound is a
	// heuristic; a player that starts later than this gets skipped.
	time.AfterFunc(c.opts.VideoStartTimeout, func() {
		c.videoWatchdog(epoch)
	})

	done := c.player.Done()
	ctx := c.ctx
	go func() {
		select {
		case <-done:
			c.advanceFrom(epoch)
		case <-ctx.Done():
		}
	}()
	return true
}

// skipIndex is the next position in the active direction, used when the
// current asset cannot be shown.
func (c *Controller) skipIndex() (int, bool) {
	if c.opts.Direction == OldestFirst {
		return c.laterIndex()
	}
	return c.earlierIndex()
}

// videoWatchdog skips the current video if it never started playing.
func (c *Controller) videoWatchdog(epoch int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.exited || epoch != c.epoch {
		return
	}
	if c.player.Playing() || c.videoPaused {
		return
	}

	c.recordErrorLocked("video did not start playing")
	c.advanceLocked()
}

// advanceFrom is the end-of-video transition, reached from the completion
// watcher. It shares the advance path with the autoplay timer.
func (c *Controller) advanceFrom(epoch int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.exited || epoch != c.epoch {
		return
	}
	c.advanceLocked()
}

// advanceLocked moves one step in the active direction.
func (c *Controller) advanceLocked() {
	if c.opts.Direction == OldestFirst {
		c.goLaterLocked()
	} else {
		c.goEarlierLocked()
	}
}

func (c *Controller) goLaterLocked() {
	c.atFirst = false
	c.atLast = false

	next, ok := c.laterIndex()
	if !ok {
		c.haltAtBoundaryLocked(c.opts.Direction == OldestFirst)
		return
	}

	c.pos = next
	c.loadCurrentLocked()
}

func (c *Controller) goEarlierLocked() {
	c.atFirst = false
	c.atLast = false

	next, ok := c.earlierIndex()
	if !ok {
		c.haltAtBoundaryLocked(c.opts.Direction != OldestFirst)
		return
	}

	c.pos = next
	c.loadCurrentLocked()
}

// haltAtBoundaryLocked stops autoplay and raises the sticky boundary flag.
// Reaching a boundary is not an error; the next manual navigation away
// clears the flag.
func (c *Controller) haltAtBoundaryLocked(last bool) {
	c.stopTimersLocked()
	if c.player != nil && c.phase == PhaseShowingVideo {
		c.player.Pause()
		c.videoPaused = true
	}
	c.progress = 0

	if last {
		c.atLast = true
	} else {
		c.atFirst = true
	}
	c.notifyLocked()
}

// laterIndex returns the next position toward index 0 (newest), honoring
// the end policy at the boundary.
func (c *Controller) laterIndex() (int, bool) {
	if c.pos > 0 {
		return c.pos - 1, true
	}
	if c.opts.AtEnd == Restart {
		return len(c.assets) - 1, true
	}
	return 0, false
}

// earlierIndex returns the next position toward the oldest asset.
func (c *Controller) earlierIndex() (int, bool) {
	if c.pos < len(c.assets)-1 {
		return c.pos + 1, true
	}
	if c.opts.AtEnd == Restart {
		return 0, true
	}
	return 0, false
}

// startImageTimersLocked arms the one-shot advance timer and the periodic
// progress tick for the current image. Both are keyed to epoch and die
// silently when the asset changes.
func (c *Controller) startImageTimersLocked(epoch int) {
	c.stopTimersLocked()
	c.progress = 0

	c.advanceTimer = time.AfterFunc(c.opts.Interval, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.exited || epoch != c.epoch {
			return
		}
		c.advanceLocked()
	})

	go c.runProgress(epoch, time.Now())
}

func (c *Controller) stopTimersLocked() {
	if c.advanceTimer != nil {
		c.advanceTimer.Stop()
		c.advanceTimer = nil
	}
}

// runProgress drives the display-only progress fraction from 0 to 1 over
// the autoplay interval.
func (c *Controller) runProgress(epoch int, started time.Time) {
	ticker := time.NewTicker(c.opts.ProgressTick)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
		}

		c.mu.Lock()
		if c.exited || epoch != c.epoch || !c.running {
			c.mu.Unlock()
			return
		}

		fraction := float64(time.Since(started)) / float64(c.opts.Interval)
		if fraction > 1 {
			fraction = 1
		}
		c.progress = fraction
		c.notifyLocked()
		done := fraction >= 1
		c.mu.Unlock()

		if done {
			return
		}
	}
}

// prefetchLocked eagerly fetches the neighboring image assets into the
// cache so navigation in either direction is instant. Videos are skipped:
// look-ahead for them proved unreliable and is deliberately omitted.
func (c *Controller) prefetchLocked(epoch int) {
	type target struct {
		pos   int
		asset immich.Asset
	}
	var targets []target

	if next, ok := c.laterIndex(); ok && next != c.pos {
		targets = append(targets, target{next, c.assets[next]})
	}
	if prev, ok := c.earlierIndex(); ok && prev != c.pos {
		targets = append(targets, target{prev, c.assets[prev]})
	}

	g, ctx := errgroup.WithContext(c.ctx)
	for _, t := range targets {
		if !t.asset.IsImage() {
			continue
		}
		if _, ok := c.cache.Get(t.pos); ok {
			continue
		}

		g.Go(func() error {
			data, err := c.lib.Thumbnail(ctx, t.asset.ID, c.opts.ThumbnailSize, c.opts.PrefetchAttempts)
			if err != nil {
				c.mu.Lock()
				if !c.exited && epoch == c.epoch {
					c.logger.Debug().Err(err).Str("asset", t.asset.ID).Msg("Prefetch failed")
					c.recordErrorLocked(fmt.Sprintf("preloading image failed: %v", err))
					c.notifyLocked()
				}
				c.mu.Unlock()
				return nil
			}
			c.cache.Set(t.pos, data)
			return nil
		})
	}

	go g.Wait() //nolint:errcheck // prefetch failures are already recorded
}

// showOverlayLocked surfaces the pause overlay and arms its auto-hide.
func (c *Controller) showOverlayLocked() {
	c.showOverlay = true

	if c.overlayTimer != nil {
		c.overlayTimer.Stop()
	}
	epoch := c.epoch
	c.overlayTimer = time.AfterFunc(c.opts.OverlayTTL, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.exited || epoch != c.epoch {
			return
		}
		c.showOverlay = false
		c.notifyLocked()
	})
}

func (c *Controller) hideOverlayLocked() {
	c.showOverlay = false
	if c.overlayTimer != nil {
		c.overlayTimer.Stop()
		c.overlayTimer = nil
	}
}

// overlayLocked builds the pause overlay for the current asset.
func (c *Controller) overlayLocked() Overlay {
	asset := c.assets[c.pos]

	ordinal := c.pos + 1
	if c.opts.Direction == OldestFirst {
		ordinal = len(c.assets) - c.pos
	}

	return Overlay{
		Ordinal:  ordinal,
		Total:    len(c.assets),
		DateTime: formatCaptureTime(asset),
		Location: asset.ExifInfo.Location(),
	}
}

// formatCaptureTime renders the original capture timestamp as
// "dd/mm/yyyy hh:mm", or empty when absent or unparseable.
func formatCaptureTime(asset immich.Asset) string {
	if asset.ExifInfo == nil || asset.ExifInfo.DateTimeOriginal == nil {
		return ""
	}

	captured, err := time.Parse(time.RFC3339, *asset.ExifInfo.DateTimeOriginal)
	if err != nil {
		return ""
	}
	return captured.Format("02/01/2006 15:04")
}

// recordErrorLocked appends a transient banner message and re-arms the
// banner clear timer.
func (c *Controller) recordErrorLocked(message string) {
	c.errors = append(c.errors, message)

	if c.errorTimer != nil {
		c.errorTimer.Stop()
	}
	c.errorTimer = time.AfterFunc(c.opts.ErrorTTL, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.exited {
			return
		}
		c.errors = nil
		c.notifyLocked()
	})
}

func (c *Controller) snapshotLocked() State {
	state := State{
		Phase:       c.phase,
		Position:    c.pos,
		Image:       c.image,
		Progress:    c.progress,
		Running:     c.running,
		ShowOverlay: c.showOverlay,
		AtFirst:     c.atFirst,
		AtLast:      c.atLast,
		Errors:      append([]string(nil), c.errors...),
	}
	if c.assets != nil {
		state.Asset = c.assets[c.pos]
		state.Overlay = c.overlayLocked()
	}
	return state
}

func (c *Controller) notifyLocked() {
	if c.opts.OnState != nil {
		c.opts.OnState(c.snapshotLocked())
	}
}
