package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tessro/cassette/internal/core"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List active playback devices",
	Long:  `Lists the Spotify devices cassette can restore playback to.`,
	Args:  cobra.NoArgs,
	RunE:  runDevices,
}

func init() {
	rootCmd.AddCommand(devicesCmd)
}

func runDevices(cmd *cobra.Command, args []string) error {
	return withSession(cmd.Context(), func(ctx context.Context, s *apiSession) error {
		raw, err := s.FetchActiveDevices(ctx)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if JSONOutput() {
			return printJSON(out, raw)
		}

		devices, err := core.DecodeDevices(raw)
		if err != nil {
			return fmt.Errorf("failed to decode devices: %w", err)
		}
		renderDevices(out, devices)
		return nil
	})
}

// fetchDevices returns the decoded active-device list.
func fetchDevices(ctx context.Context, s *apiSession) ([]core.Device, error) {
	raw, err := s.FetchActiveDevices(ctx)
	if err != nil {
		return nil, err
	}
	devices, err := core.DecodeDevices(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode devices: %w", err)
	}
	return devices, nil
}
