package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tessro/cassette/internal/cassette/client"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Fetch a CSRF token",
	Long: `Performs the CSRF handshake and prints the token the server issued.

The token is never stored; every mutating command fetches its own.`,
	Args: cobra.NoArgs,
	RunE: runToken,
}

func init() {
	rootCmd.AddCommand(tokenCmd)
}

func runToken(cmd *cobra.Command, args []string) error {
	return withSession(cmd.Context(), func(ctx context.Context, s *apiSession) error {
		token, err := s.FetchCSRFToken(ctx)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if JSONOutput() {
			return printJSON(out, map[string]string{
				"header": client.CSRFHeaderName,
				"token":  token,
			})
		}
		if token == "" {
			_, _ = fmt.Fprintln(out, mutedStyle.Render("Server sent no token"))
			return nil
		}
		_, err = fmt.Fprintln(out, token)
		return err
	})
}
