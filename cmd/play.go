package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/s0up4200/immichshow/filter"
	"github.com/s0up4200/immichshow/immich"
	"github.com/s0up4200/immichshow/player"
	"github.com/s0up4200/immichshow/slideshow"
)

var (
	startAsset  string
	filterExpr  string
	intervalSec int
	direction   string
	onEnd       string
	muteVideos  bool
)

// playCmd represents the play command
var playCmd = &cobra.Command{
	Use:   "play <album-id>",
	Short: "Play an album as a slideshow",
	Long: `Play an album as an unattended slideshow.

Images advance on a timer; videos are handed to the configured external
player. Commands on stdin (press enter after each):

  n    go to a later (newer) asset
  p    go to an earlier (older) asset
  space  pause / resume
  q    exit (prints the asset ID to resume from)`,
	Args: cobra.ExactArgs(1),
	RunE: runPlay,
}

func init() {
	playCmd.Flags().StringVar(&startAsset, "start-asset", "", "asset ID to resume from")
	playCmd.Flags().StringVar(&filterExpr, "filter", "", "asset filter expression, e.g. 'IsImage'")
	playCmd.Flags().IntVar(&intervalSec, "interval", 0, "seconds per image (overrides config)")
	playCmd.Flags().StringVar(&direction, "direction", "", "oldest-first or newest-first (overrides config)")
	playCmd.Flags().StringVar(&onEnd, "on-end", "", "stop-and-notify or restart (overrides config)")
	playCmd.Flags().BoolVar(&muteVideos, "mute-videos", false, "start video playback muted")
}

func runPlay(cmd *cobra.Command, args []string) error {
	albumID := args[0]
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	opts, err := slideshowOptions()
	if err != nil {
		return err
	}
	opts.StartAssetID = startAsset
	opts.OnState = newStatePrinter()

	var playerArgs []string
	if muteVideos {
		// mpv-style flag; other players need a compatible equivalent in
		// slideshow.video_player.
		playerArgs = append(playerArgs, "--mute=yes")
	}
	videoPlayer := player.NewExec(cfg.Slideshow.VideoPlayer, playerArgs, logger)
	controller := slideshow.New(client, videoPlayer, logger, opts)

	if err := controller.Start(ctx, albumID); err != nil {
		if errors.Is(err, immich.ErrMissingConfig) {
			fmt.Println("No server configured yet. Run `immichshow login` first.")
			return nil
		}
		return err
	}

	if estimate := controller.EstimatedDuration(); estimate > 0 {
		logger.Info().Str("estimate", estimate.String()).Msg("Estimated slideshow duration")
	}

	resumeID := runCommandLoop(controller)
	fmt.Printf("\nExited. Resume with: immichshow play %s --start-asset %s\n", albumID, resumeID)
	return nil
}

// slideshowOptions merges config values and flag overrides.
func slideshowOptions() (slideshow.Options, error) {
	interval := cfg.Slideshow.IntervalSeconds
	if intervalSec > 0 {
		interval = intervalSec
	}
	dir := cfg.Slideshow.Direction
	if direction != "" {
		dir = direction
	}
	end := cfg.Slideshow.OnEnd
	if onEnd != "" {
		end = onEnd
	}

	opts := slideshow.Options{
		Interval:          time.Duration(interval) * time.Second,
		Direction:         slideshow.Direction(dir),
		AtEnd:             slideshow.EndPolicy(end),
		ThumbnailSize:     cfg.Slideshow.ThumbnailSize,
		CacheCount:        cfg.Slideshow.CacheCount,
		CacheBytes:        cfg.Slideshow.CacheMegabytes * 1024 * 1024,
		VideoStartTimeout: time.Duration(cfg.Slideshow.VideoStartTimeoutSeconds) * time.Second,
	}

	if filterExpr != "" {
		f, err := filter.Compile(filterExpr)
		if err != nil {
			return slideshow.Options{}, err
		}
		opts.AssetFilter = func(asset immich.Asset) bool {
			keep, err := f.Keep(asset)
			if err != nil {
				logger.Warn().Err(err).Str("asset", asset.ID).Msg("Filter evaluation failed, dropping asset")
				return false
			}
			return keep
		}
	}

	return opts, nil
}

// runCommandLoop reads navigation commands from stdin until exit.
func runCommandLoop(controller *slideshow.Controller) string {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		switch strings.TrimSpace(scanner.Text()) {
		case "n":
			controller.Later()
		case "p":
			controller.Earlier()
		case "", " ":
			controller.TogglePause()
		case "q":
			return controller.Exit()
		}
	}
	return controller.Exit()
}

// newStatePrinter returns a projection of slideshow state onto the
// terminal. Progress updates are elided; only transitions print.
func newStatePrinter() func(slideshow.State) {
	var last string

	return func(state slideshow.State) {
		line := describeState(state)
		if line == last {
			return
		}
		last = line
		fmt.Println(line)
	}
}

func describeState(state slideshow.State) string {
	var b strings.Builder

	switch state.Phase {
	case slideshow.PhaseLoading:
		fmt.Fprintf(&b, "loading %s", state.Asset.ID)
	case slideshow.PhaseShowingImage:
		fmt.Fprintf(&b, "image %s (%d/%d)", state.Asset.ID, state.Overlay.Ordinal, state.Overlay.Total)
	case slideshow.PhaseShowingVideo:
		fmt.Fprintf(&b, "video %s (%d/%d)", state.Asset.ID, state.Overlay.Ordinal, state.Overlay.Total)
	default:
		b.WriteString("idle")
	}

	if !state.Running {
		b.WriteString(" [paused]")
	}
	if state.ShowOverlay {
		if state.Overlay.DateTime != "" {
			fmt.Fprintf(&b, " | %s", state.Overlay.DateTime)
		}
		if state.Overlay.Location != "" {
			fmt.Fprintf(&b, " | %s", state.Overlay.Location)
		}
	}
	if state.AtLast {
		b.WriteString(" [the end!]")
	}
	if state.AtFirst {
		b.WriteString(" [first image]")
	}
	for _, msg := range state.Errors {
		fmt.Fprintf(&b, " !%s", msg)
	}

	return b.String()
}
