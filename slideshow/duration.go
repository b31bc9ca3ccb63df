package slideshow

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/s0up4200/immichshow/immich"
)

// ParseAssetDuration parses the "hh:mm:ss.sss" duration strings Immich
// attaches to video assets.
func ParseAssetDuration(raw string) (time.Duration, error) {
	parts := strings.Split(raw, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("invalid duration %q", raw)
	}

	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	seconds, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", raw, err)
	}

	return time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds*float64(time.Second)), nil
}

// EstimateDuration estimates the total runtime of a slideshow: one interval
// per image plus the duration of each video, rounded up to whole minutes.
// Unparseable video durations count as zero.
func EstimateDuration(assets []immich.Asset, interval time.Duration) time.Duration {
	var total time.Duration

	for _, asset := range assets {
		switch {
		case asset.IsImage():
			total += interval
		case asset.IsVideo():
			d, err := ParseAssetDuration(asset.Duration)
			if err == nil {
				total += d
			}
		}
	}

	if total == 0 {
		return 0
	}

	minutes := (total + time.Minute - 1) / time.Minute
	return minutes * time.Minute
}
