package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"paircode/internal/model"
	"paircode/internal/phase"

	"github.com/spf13/cobra"
)

var roomsCmd = &cobra.Command{
	Use:   "rooms",
	Short: "List active rooms and their phase timers",
	RunE:  runRooms,
}

func init() {
	rootCmd.AddCommand(roomsCmd)
}

func runRooms(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, cfg, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	rooms, err := a.RoomRepo.ListActiveInPhases(ctx, []model.Phase{
		model.PhaseWaiting, model.PhaseTone, model.PhaseCoding, model.PhaseReflection,
	})
	if err != nil {
		return err
	}
	if len(rooms) == 0 {
		fmt.Println("No active rooms.")
		return nil
	}

	durations := cfg.Durations()
	now := time.Now()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTASK\tPHASE\tREMAINING\tPARTICIPANTS")
	for _, r := range rooms {
		remaining := "-"
		if durations.Timed(r.Phase) {
			timer := phase.Remaining(durations, r.Phase, r.PhaseStartedAt, now)
			remaining = phase.FormatTime(timer.Remaining)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n", r.ID, r.TaskID, r.Phase, remaining, len(r.Participants))
	}
	return w.Flush()
}
