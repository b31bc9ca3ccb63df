package immich

import "strings"

// Asset media kinds as reported by the Immich API.
const (
	AssetTypeImage = "IMAGE"
	AssetTypeVideo = "VIDEO"
)

// Album represents a named group of assets.
type Album struct {
	ID                         string  `json:"id"`
	AlbumName                  string  `json:"albumName"`
	AlbumThumbnailAssetID      string  `json:"albumThumbnailAssetId"`
	CreatedAt                  string  `json:"createdAt"`
	UpdatedAt                  string  `json:"updatedAt"`
	StartDate                  string  `json:"startDate"`
	LastModifiedAssetTimestamp string  `json:"lastModifiedAssetTimestamp"`
	Assets                     []Asset `json:"assets"`
}

// Equal compares albums by identity, not structure.
func (a Album) Equal(other Album) bool {
	return a.ID == other.ID
}

// Asset represents a single photo or video in an album.
type Asset struct {
	ID           string    `json:"id"`
	Type         string    `json:"type"`
	OriginalPath string    `json:"originalPath"`
	Duration     string    `json:"duration"`
	ExifInfo     *ExifInfo `json:"exifInfo"`
}

// IsImage reports whether the asset is a still image. Immich reports types
// in upper case but the comparison stays case-insensitive.
func (a Asset) IsImage() bool {
	return strings.EqualFold(a.Type, AssetTypeImage)
}

// IsVideo reports whether the asset is a video.
func (a Asset) IsVideo() bool {
	return strings.EqualFold(a.Type, AssetTypeVideo)
}

// ExifInfo carries the capture metadata playback cares about.
type ExifInfo struct {
	DateTimeOriginal *string `json:"dateTimeOriginal"`
	City             *string `json:"city"`
	State            *string `json:"state"`
	Country          *string `json:"country"`
}

// Location returns "city, state, country" when all three are present,
// otherwise the empty string. Partial locations are not rendered.
func (e *ExifInfo) Location() string {
	if e == nil || e.City == nil || e.State == nil || e.Country == nil {
		return ""
	}
	return *e.City + ", " + *e.State + ", " + *e.Country
}
