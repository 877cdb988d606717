package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/tessro/cassette/internal/browser"
	"github.com/tessro/cassette/internal/core"
	cerrors "github.com/tessro/cassette/internal/errors"
)

var (
	youExportOutput string
	youExportOpen   bool
	youDeleteYes    bool
)

var youCmd = &cobra.Command{
	Use:     "you",
	Aliases: []string{"whoami"},
	Short:   "Show what cassette stores about you",
	Args:    cobra.NoArgs,
	RunE:    runYou,
}

var youExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Download your data",
	Long: `Writes everything cassette stores about you to a file (or stdout).

With --open the download link is opened in your browser instead, which
uses the browser's own session.`,
	Args: cobra.NoArgs,
	RunE: runYouExport,
}

var youDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete all your data from cassette",
	Long:  `Deletes every saved player state and your account data. This cannot be undone.`,
	Args:  cobra.NoArgs,
	RunE:  runYouDelete,
}

func init() {
	youExportCmd.Flags().StringVarP(&youExportOutput, "output", "o", "", "write to file instead of stdout")
	youExportCmd.Flags().BoolVar(&youExportOpen, "open", false, "open the download link in a browser")
	youDeleteCmd.Flags().BoolVarP(&youDeleteYes, "yes", "y", false, "skip confirmation")

	youCmd.AddCommand(youExportCmd)
	youCmd.AddCommand(youDeleteCmd)
	rootCmd.AddCommand(youCmd)
}

func runYou(cmd *cobra.Command, args []string) error {
	return withSession(cmd.Context(), func(ctx context.Context, s *apiSession) error {
		raw, err := s.FetchIdentity(ctx)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if JSONOutput() {
			return printJSON(out, raw)
		}

		id, err := core.DecodeIdentity(raw)
		if err != nil {
			return fmt.Errorf("failed to decode identity: %w", err)
		}

		_, _ = fmt.Fprintln(out, headingStyle.Render("Your cassette data"))
		for _, key := range id.Keys() {
			value := id.String(key)
			if value == "" {
				value = TruncateString(strings.TrimSpace(string(id[key])), 60)
			}
			_, _ = fmt.Fprintf(out, "  %s %s\n", mutedStyle.Render(key+":"), value)
		}
		_, _ = fmt.Fprintf(out, "\n%s %s\n", mutedStyle.Render("Download:"), s.DataURL())
		return nil
	})
}

func runYouExport(cmd *cobra.Command, args []string) error {
	return withSession(cmd.Context(), func(ctx context.Context, s *apiSession) error {
		if youExportOpen {
			if err := browser.Open(s.DataURL()); err != nil {
				return fmt.Errorf("failed to open browser: %w", err)
			}
			return printSuccess(cmd.OutOrStdout(), "Opened "+s.DataURL(), map[string]any{"url": s.DataURL()})
		}

		raw, err := s.FetchIdentity(ctx)
		if err != nil {
			return err
		}

		if youExportOutput == "" {
			return printJSON(cmd.OutOrStdout(), raw)
		}

		if err := os.WriteFile(youExportOutput, raw, 0600); err != nil {
			return fmt.Errorf("failed to write export: %w", err)
		}
		size := uint64(len(raw))
		return printSuccess(cmd.OutOrStdout(),
			fmt.Sprintf("Exported %s to %s", humanize.Bytes(size), youExportOutput),
			map[string]any{"path": youExportOutput, "bytes": size})
	})
}

func runYouDelete(cmd *cobra.Command, args []string) error {
	if !youDeleteYes {
		if JSONOutput() {
			return fmt.Errorf("refusing to delete without --yes in JSON mode")
		}
		confirmed := false
		err := huh.NewConfirm().
			Title("Delete all your cassette data?").
			Description("Every saved player state will be lost. This cannot be undone.").
			Affirmative("Delete").
			Negative("Cancel").
			Value(&confirmed).
			Run()
		if err != nil {
			return fmt.Errorf("confirmation cancelled: %w", err)
		}
		if !confirmed {
			return cerrors.ErrAborted
		}
	}

	return withSession(cmd.Context(), func(ctx context.Context, s *apiSession) error {
		if err := s.handshake(ctx); err != nil {
			return err
		}
		if _, err := s.DeleteYourData(ctx); err != nil {
			return err
		}
		return printSuccess(cmd.OutOrStdout(), "Deleted all your data", nil)
	})
}
