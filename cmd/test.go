package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/s0up4200/immichshow/immich"
)

// testCmd represents the test command
var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Test the connection to the configured server",
	RunE:  runTest,
}

func runTest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	err := client.Ping(ctx)
	switch {
	case err == nil:
		fmt.Println("✓ Connection and credentials OK")
		return nil

	case errors.Is(err, immich.ErrMissingConfig):
		fmt.Println("No server configured yet. Run `immichshow login` first.")
		return nil

	case errors.Is(err, immich.ErrUnauthorized):
		return fmt.Errorf("credentials rejected by the server: %w", err)

	default:
		return fmt.Errorf("connection test failed: %w", err)
	}
}
