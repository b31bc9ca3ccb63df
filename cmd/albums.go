package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/s0up4200/immichshow/immich"
)

// albumsCmd represents the albums command
var albumsCmd = &cobra.Command{
	Use:   "albums",
	Short: "List albums available on the server",
	Long:  `List owned and shared albums, merged and sorted by start date (newest first).`,
	RunE:  runAlbums,
}

func runAlbums(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	albums, err := client.Albums(ctx)
	if err != nil {
		if errors.Is(err, immich.ErrMissingConfig) {
			fmt.Println("No server configured yet. Run `immichshow login` first.")
			return nil
		}
		return err
	}

	if len(albums) == 0 {
		fmt.Println("No albums found.")
		return nil
	}

	fmt.Println(strings.Repeat("━", 100))
	fmt.Printf("%-38s %-34s %-12s %s\n", "ID", "NAME", "START", "ASSETS")
	fmt.Println(strings.Repeat("━", 100))

	for _, album := range albums {
		name := album.AlbumName
		if len(name) > 32 {
			name = name[:29] + "..."
		}

		start := album.StartDate
		if len(start) > 10 {
			start = start[:10]
		}

		fmt.Printf("%-38s %-34s %-12s %d\n", album.ID, name, start, len(album.Assets))
	}

	return nil
}
