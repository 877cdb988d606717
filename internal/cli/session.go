package cli

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/tessro/cassette/internal/session"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage the stored cassette session",
	Long: `The CLI keeps the server's cookies between runs, so a session started
in the browser can be reused here. The CSRF token is never stored.`,
}

var sessionShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the stored session",
	Args:  cobra.NoArgs,
	RunE:  runSessionShow,
}

var sessionImportCmd = &cobra.Command{
	Use:   "import <name=value>...",
	Short: "Import cookies from a browser session",
	Long: `Stores cookies for the configured server. Copy them from the browser's
developer tools, either one name=value pair per argument or a whole
Cookie header.`,
	Example: `  cassette session import session=MTcz...
  cassette session import "session=MTcz...; _gorilla_csrf=MTc0..."`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSessionImport,
}

var sessionClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Forget the stored session",
	Args:  cobra.NoArgs,
	RunE:  runSessionClear,
}

func init() {
	sessionCmd.AddCommand(sessionShowCmd)
	sessionCmd.AddCommand(sessionImportCmd)
	sessionCmd.AddCommand(sessionClearCmd)
	rootCmd.AddCommand(sessionCmd)
}

func runSessionShow(cmd *cobra.Command, args []string) error {
	storage, err := session.NewStorage(cfg.Session.File)
	if err != nil {
		return err
	}
	s, err := storage.Load()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if JSONOutput() {
		names := []string{}
		if s != nil {
			for _, c := range s.HTTPCookies() {
				names = append(names, c.Name)
			}
		}
		info := map[string]any{"path": storage.Path(), "stored": s != nil, "cookies": names}
		if s != nil {
			info["url"] = s.URL
			info["updated_at"] = s.UpdatedAt
		}
		return printJSON(out, info)
	}

	_, _ = fmt.Fprintf(out, "%s %s\n", mutedStyle.Render("Path:"), storage.Path())
	if s == nil {
		_, _ = fmt.Fprintln(out, mutedStyle.Render("No session stored. Run 'cassette session import'."))
		return nil
	}

	_, _ = fmt.Fprintf(out, "%s %s\n", mutedStyle.Render("Server:"), s.URL)
	if !s.UpdatedAt.IsZero() {
		_, _ = fmt.Fprintf(out, "%s %s\n", mutedStyle.Render("Updated:"), humanize.Time(s.UpdatedAt))
	}
	if s.URL != cfg.Server.URL {
		_, _ = fmt.Fprintf(out, "%s\n", mutedStyle.Render("(not used: configured server is "+cfg.Server.URL+")"))
	}
	for _, c := range s.HTTPCookies() {
		_, _ = fmt.Fprintf(out, "  %s %s\n", StatusIcon(true), c.Name)
	}
	return nil
}

func runSessionImport(cmd *cobra.Command, args []string) error {
	cookies, err := parseCookieArgs(args)
	if err != nil {
		return err
	}

	storage, err := session.NewStorage(cfg.Session.File)
	if err != nil {
		return err
	}
	url := session.NormalizeURL(cfg.Server.URL)
	s, err := storage.LoadFor(url)
	if err != nil {
		return err
	}
	merged := session.FromCookies(url, append(s.HTTPCookies(), cookies...))
	if err := storage.Save(merged); err != nil {
		return err
	}

	names := make([]string, len(cookies))
	for i, c := range cookies {
		names[i] = c.Name
	}
	return printSuccess(cmd.OutOrStdout(),
		fmt.Sprintf("Imported %s for %s", joinWords(names), url),
		map[string]any{"cookies": names, "path": storage.Path()})
}

func runSessionClear(cmd *cobra.Command, args []string) error {
	storage, err := session.NewStorage(cfg.Session.File)
	if err != nil {
		return err
	}
	if err := storage.Delete(); err != nil {
		return err
	}
	return printSuccess(cmd.OutOrStdout(), "Session cleared", nil)
}

// parseCookieArgs accepts name=value pairs and whole Cookie header values.
func parseCookieArgs(args []string) ([]*http.Cookie, error) {
	var cookies []*http.Cookie
	for _, arg := range args {
		line := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(arg), "Cookie:"))
		if !strings.Contains(line, "=") {
			return nil, fmt.Errorf("invalid cookie %q: expected name=value", arg)
		}
		parsed, err := http.ParseCookie(line)
		if err != nil {
			return nil, fmt.Errorf("invalid cookie %q: %w", arg, err)
		}
		cookies = append(cookies, parsed...)
	}
	return cookies, nil
}
