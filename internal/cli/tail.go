package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/tessro/cassette/internal/tail"
)

var (
	tailNoEmoji   bool
	tailTimestamp bool
	tailFormat    string
	tailInterval  int
)

var tailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Follow changes to saved player states",
	Long: `Polls the saved player states and prints changes as they happen.

Events tracked:
  - Slots saved (from this or any other client)
  - Slots updated with a new position
  - Slots deleted

Template fields: .Type .Emoji .Time .Slot .Count .Track .Artist .Album
.Progress .Error`,
	Example: `  cassette tail
  cassette tail --interval 2000 --timestamp
  cassette tail --template '{{.Time}} {{.Type}} {{.Slot}} {{.Track}}'`,
	Args: cobra.NoArgs,
	RunE: runTail,
}

func init() {
	tailCmd.Flags().BoolVar(&tailNoEmoji, "no-emoji", false, "disable emoji output")
	tailCmd.Flags().BoolVarP(&tailTimestamp, "timestamp", "t", false, "show timestamps")
	tailCmd.Flags().StringVarP(&tailFormat, "template", "f", "", "custom format template (default: tail.template)")
	tailCmd.Flags().IntVarP(&tailInterval, "interval", "i", 0, "poll interval in milliseconds (default: tail.interval)")

	rootCmd.AddCommand(tailCmd)
}

func runTail(cmd *cobra.Command, args []string) error {
	interval := tailInterval
	if interval <= 0 {
		interval = cfg.Tail.Interval
	}
	format := tailFormat
	if format == "" {
		format = cfg.Tail.Template
	}

	formatter := tail.NewFormatter(
		tail.WithEmoji(!tailNoEmoji),
		tail.WithTimestamp(tailTimestamp),
		tail.WithTemplate(format),
	)

	// Handle Ctrl+C gracefully
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return withSession(ctx, func(ctx context.Context, s *apiSession) error {
		watcher := tail.NewWatcher(s, time.Duration(interval)*time.Millisecond)
		logger.Debug("tail started", "interval_ms", interval)

		errCh := make(chan error, 1)
		go func() {
			errCh <- watcher.Start(ctx)
		}()

		out := cmd.OutOrStdout()
		for event := range watcher.Events() {
			if JSONOutput() {
				if err := printJSON(out, eventJSON(event)); err != nil {
					watcher.Stop()
				}
				continue
			}
			_, _ = fmt.Fprintln(out, formatter.Format(event))
		}

		if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
}

type tailEvent struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Slot      int       `json:"slot"`
	Count     int       `json:"count"`
	Track     string    `json:"track,omitempty"`
	Artist    string    `json:"artist,omitempty"`
	Progress  int       `json:"progress_ms,omitempty"`
	Error     string    `json:"error,omitempty"`
}

func eventJSON(e tail.Event) tailEvent {
	out := tailEvent{
		Type:      e.Type.String(),
		Timestamp: e.Timestamp,
		Slot:      e.Slot,
		Count:     e.Count,
	}
	snap := e.Current
	if snap == nil {
		snap = e.Previous
	}
	if snap != nil {
		out.Track = snap.TrackName
		out.Artist = snap.ArtistName
		out.Progress = snap.ProgressMS
	}
	if e.Err != nil {
		out.Error = e.Err.Error()
	}
	return out
}
