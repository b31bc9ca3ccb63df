package immich

import (
	"context"
	"fmt"
	"net/url"
	"sort"
)

// Thumbnail size query values accepted by the Immich API.
const (
	SizePreview  = "preview"
	SizeFullsize = "fullsize"
)

// Albums returns the merged list of owned and shared albums. The two lists
// are de-duplicated by ID (first occurrence wins, owned before shared) and
// sorted by start date, newest first.
func (c *Client) Albums(ctx context.Context) ([]Album, error) {
	var own []Album
	if err := c.FetchObject(ctx, "/api/albums", nil, &own); err != nil {
		return nil, fmt.Errorf("failed to list albums: %w", err)
	}

	var shared []Album
	query := url.Values{"shared": {"true"}}
	if err := c.FetchObject(ctx, "/api/albums", query, &shared); err != nil {
		return nil, fmt.Errorf("failed to list shared albums: %w", err)
	}

	return mergeAlbums(own, shared), nil
}

// mergeAlbums concatenates the lists, keeps the first occurrence of each
// ID, and orders the result by startDate descending.
func mergeAlbums(lists ...[]Album) []Album {
	seen := make(map[string]struct{})
	var merged []Album

	for _, list := range lists {
		for _, album := range list {
			if _, ok := seen[album.ID]; ok {
				continue
			}
			seen[album.ID] = struct{}{}
			merged = append(merged, album)
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].StartDate > merged[j].StartDate
	})

	return merged
}

// Album fetches one album with its nested assets.
func (c *Client) Album(ctx context.Context, id string) (*Album, error) {
	var album Album
	path := "/api/albums/" + url.PathEscape(id)
	if err := c.FetchObject(ctx, path, nil, &album); err != nil {
		return nil, err
	}
	return &album, nil
}

// Thumbnail fetches the decoded thumbnail bytes for an asset, retrying up
// to attempts times. Size is SizePreview or SizeFullsize.
func (c *Client) Thumbnail(ctx context.Context, assetID, size string, attempts int) ([]byte, error) {
	path := "/api/assets/" + url.PathEscape(assetID) + "/thumbnail"
	query := url.Values{"size": {size}}
	return c.FetchMediaWithRetries(ctx, path, query, attempts)
}

// VideoPlaybackURL resolves the playback URL for a video asset, with auth
// embedded as query parameters for the external player.
func (c *Client) VideoPlaybackURL(ctx context.Context, assetID string) (*url.URL, error) {
	path := "/api/assets/" + url.PathEscape(assetID) + "/video/playback"
	return c.PlaybackURL(ctx, path)
}

// ThumbnailURL resolves a direct, query-authenticated thumbnail URL for
// consumers that load images themselves (launchers, shortcut tiles).
func (c *Client) ThumbnailURL(ctx context.Context, assetID, size string) (*url.URL, error) {
	u, err := c.PlaybackURL(ctx, "/api/assets/"+url.PathEscape(assetID)+"/thumbnail")
	if err != nil {
		return nil, err
	}
	query := u.Query()
	query.Set("size", size)
	u.RawQuery = query.Encode()
	return u, nil
}

// Ping verifies connectivity and credentials by listing albums.
func (c *Client) Ping(ctx context.Context) error {
	var albums []Album
	if err := c.FetchObject(ctx, "/api/albums", nil, &albums); err != nil {
		return err
	}
	c.logger.Debug().Int("albums", len(albums)).Msg("Connection test succeeded")
	return nil
}
