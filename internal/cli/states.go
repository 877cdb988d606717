package cli

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tessro/cassette/internal/core"
	cerrors "github.com/tessro/cassette/internal/errors"
	"github.com/tessro/cassette/internal/wizard"
)

var (
	restoreDevice string
	restorePick   bool
)

var statesCmd = &cobra.Command{
	Use:     "states",
	Aliases: []string{"slots"},
	Short:   "Manage saved player states",
	Long: `Saved player states ("slots") remember what was playing and how far in.
Slots are numbered from 0 in the order the server returns them.`,
	Args: cobra.NoArgs,
	RunE: runStatesList,
}

var statesListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List saved player states",
	Args:    cobra.NoArgs,
	RunE:    runStatesList,
}

var statesSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Save the current playback to a new slot",
	Args:  cobra.NoArgs,
	RunE:  runStatesSave,
}

var statesUpdateCmd = &cobra.Command{
	Use:   "update <slot>",
	Short: "Overwrite a slot with the current playback",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatesUpdate,
}

var statesDeleteCmd = &cobra.Command{
	Use:     "delete <slot>...",
	Aliases: []string{"rm"},
	Short:   "Delete one or more slots",
	Long: `Deletes the given slots. Later slots shift down after a delete, so
multiple slots are removed from the highest number down.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runStatesDelete,
}

var statesRestoreCmd = &cobra.Command{
	Use:   "restore [slot]",
	Short: "Resume playback from a slot",
	Long: `Resumes playback from a saved slot.

The device is taken from --device, from the picker with --pick, or from
defaults.device in the config. Without any of these the server chooses.
Without a slot argument a slot picker is shown.`,
	Example: `  cassette states restore 0
  cassette states restore 2 --device "Kitchen"
  cassette states restore --pick`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStatesRestore,
}

func init() {
	statesRestoreCmd.Flags().StringVarP(&restoreDevice, "device", "d", "", "device name or ID to play on")
	statesRestoreCmd.Flags().BoolVarP(&restorePick, "pick", "p", false, "choose the device interactively")

	statesCmd.AddCommand(statesListCmd)
	statesCmd.AddCommand(statesSaveCmd)
	statesCmd.AddCommand(statesUpdateCmd)
	statesCmd.AddCommand(statesDeleteCmd)
	statesCmd.AddCommand(statesRestoreCmd)
	rootCmd.AddCommand(statesCmd)
}

func runStatesList(cmd *cobra.Command, args []string) error {
	return withSession(cmd.Context(), func(ctx context.Context, s *apiSession) error {
		raw, err := s.FetchPlayerStates(ctx)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if JSONOutput() {
			return printJSON(out, raw)
		}

		snapshots, err := core.DecodeSnapshots(raw)
		if err != nil {
			return fmt.Errorf("failed to decode player states: %w", err)
		}
		renderSnapshots(out, snapshots)
		return nil
	})
}

func runStatesSave(cmd *cobra.Command, args []string) error {
	return withSession(cmd.Context(), func(ctx context.Context, s *apiSession) error {
		if err := s.handshake(ctx); err != nil {
			return err
		}
		if _, err := s.StorePlayerState(ctx); err != nil {
			return err
		}
		return printSuccess(cmd.OutOrStdout(), "Saved current playback", nil)
	})
}

func runStatesUpdate(cmd *cobra.Command, args []string) error {
	slot, err := parseSlot(args[0])
	if err != nil {
		return err
	}

	return withSession(cmd.Context(), func(ctx context.Context, s *apiSession) error {
		if err := s.handshake(ctx); err != nil {
			return err
		}
		if _, err := s.UpdatePlayerState(ctx, slot); err != nil {
			return fmt.Errorf("slot %d: %w", slot, err)
		}
		return printSuccess(cmd.OutOrStdout(), fmt.Sprintf("Updated slot %d", slot), map[string]any{"slot": slot})
	})
}

func runStatesDelete(cmd *cobra.Command, args []string) error {
	slots, err := parseSlots(args)
	if err != nil {
		return err
	}

	return withSession(cmd.Context(), func(ctx context.Context, s *apiSession) error {
		if err := s.handshake(ctx); err != nil {
			return err
		}

		result := &cerrors.PartialResult[[]int]{}
		for _, slot := range slots {
			if _, err := s.DeletePlayerState(ctx, slot); err != nil {
				result.AddError(fmt.Errorf("slot %d: %w", slot, err))
				continue
			}
			result.Data = append(result.Data, slot)
		}

		if len(result.Data) > 0 {
			msg := fmt.Sprintf("Deleted %s", describeSlots(result.Data))
			if err := printSuccess(cmd.OutOrStdout(), msg, map[string]any{"deleted": result.Data}); err != nil {
				return err
			}
		}
		return result.Err()
	})
}

func runStatesRestore(cmd *cobra.Command, args []string) error {
	interactive := wizard.NewInteractive()
	interactive.SetEnabled(!JSONOutput())

	return withSession(cmd.Context(), func(ctx context.Context, s *apiSession) error {
		var slot int
		if len(args) == 1 {
			var err error
			if slot, err = parseSlot(args[0]); err != nil {
				return err
			}
		} else {
			picked, err := pickSlot(ctx, s, interactive)
			if err != nil {
				return err
			}
			slot = picked
		}

		deviceID, err := resolveDevice(ctx, s, interactive)
		if err != nil {
			return err
		}

		if err := s.handshake(ctx); err != nil {
			return err
		}
		if _, err := s.RestoreFromPlayerState(ctx, slot, deviceID); err != nil {
			return fmt.Errorf("slot %d: %w", slot, err)
		}

		msg := fmt.Sprintf("Restored slot %d", slot)
		if deviceID != "" {
			msg += " on " + deviceID
		}
		return printSuccess(cmd.OutOrStdout(), msg, map[string]any{"slot": slot, "device_id": deviceID})
	})
}

func pickSlot(ctx context.Context, s *apiSession, interactive *wizard.Interactive) (int, error) {
	if !interactive.CanInteract() {
		return 0, fmt.Errorf("a slot is required when not running in a terminal")
	}

	raw, err := s.FetchPlayerStates(ctx)
	if err != nil {
		return 0, err
	}
	snapshots, err := core.DecodeSnapshots(raw)
	if err != nil {
		return 0, fmt.Errorf("failed to decode player states: %w", err)
	}
	if len(snapshots) == 0 {
		return 0, cerrors.ErrSlotNotFound
	}

	picked, err := interactive.PromptSlot(snapshots)
	if err != nil {
		return 0, err
	}
	if picked == nil {
		return 0, cerrors.ErrAborted
	}
	return picked.Slot, nil
}

// resolveDevice returns the device ID to restore on, or "" to let the
// server choose. Names are resolved against the active-device list; an
// unmatched --device value is passed through as an ID.
func resolveDevice(ctx context.Context, s *apiSession, interactive *wizard.Interactive) (string, error) {
	if restorePick {
		if !interactive.CanInteract() {
			return "", fmt.Errorf("--pick needs a terminal")
		}
		devices, err := fetchDevices(ctx, s)
		if err != nil {
			return "", err
		}
		if len(devices) == 0 {
			return "", cerrors.ErrNoActiveDevice
		}
		d, err := interactive.PromptDevice(devices)
		if err != nil {
			return "", err
		}
		if d == nil {
			return "", cerrors.ErrAborted
		}
		return d.ID, nil
	}

	preferred := restoreDevice
	if preferred == "" {
		preferred = cfg.Defaults.Device
	}
	if preferred == "" {
		return "", nil
	}

	devices, err := fetchDevices(ctx, s)
	if err != nil {
		return "", err
	}
	if d := core.FindDevice(devices, preferred); d != nil {
		return d.ID, nil
	}

	if restoreDevice != "" {
		return restoreDevice, nil
	}
	logger.Warn("default device not active, letting the server choose", "device", preferred)
	return "", nil
}

// parseSlot parses a slot argument.
func parseSlot(arg string) (int, error) {
	slot, err := strconv.Atoi(arg)
	if err != nil || slot < 0 {
		return 0, fmt.Errorf("invalid slot %q: must be a non-negative integer", arg)
	}
	return slot, nil
}

// parseSlots parses slot arguments and orders them highest first without
// duplicates, so each delete leaves the lower slots' numbers unchanged.
func parseSlots(args []string) ([]int, error) {
	slots := make([]int, 0, len(args))
	for _, arg := range args {
		slot, err := parseSlot(arg)
		if err != nil {
			return nil, err
		}
		slots = append(slots, slot)
	}
	slices.Sort(slots)
	slots = slices.Compact(slots)
	slices.Reverse(slots)
	return slots, nil
}

func describeSlots(slots []int) string {
	if len(slots) == 1 {
		return fmt.Sprintf("slot %d", slots[0])
	}
	parts := make([]string, len(slots))
	for i, s := range slots {
		parts[i] = strconv.Itoa(s)
	}
	return "slots " + joinWords(parts)
}

func joinWords(words []string) string {
	if len(words) < 2 {
		return strings.Join(words, "")
	}
	return strings.Join(words[:len(words)-1], ", ") + " and " + words[len(words)-1]
}
