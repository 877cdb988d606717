package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/tessro/cassette/internal/tui"
	"github.com/tessro/cassette/internal/wizard"
)

var tuiCmd = &cobra.Command{
	Use:     "ui",
	Aliases: []string{"tui"},
	Short:   "Launch the interactive dashboard",
	Long: `Opens a full-screen dashboard listing saved slots and active devices.
Save, update, delete and restore slots from the keyboard. Press ? for help.`,
	Args: cobra.NoArgs,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, args []string) error {
	if !wizard.IsTerminal() {
		return fmt.Errorf("the dashboard needs a terminal")
	}

	refresh := time.Duration(cfg.Tail.Interval) * time.Millisecond
	return withSession(cmd.Context(), func(ctx context.Context, s *apiSession) error {
		return tui.Run(s.Client, refresh, cfg.Defaults.Device)
	})
}
