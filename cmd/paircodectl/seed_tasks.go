package main

import (
	"fmt"

	"paircode/internal/service"

	"github.com/spf13/cobra"
)

var seedCreator string

var seedTasksCmd = &cobra.Command{
	Use:   "seed-tasks",
	Short: "Insert the bundled sample tasks",
	RunE:  runSeedTasks,
}

func init() {
	seedTasksCmd.Flags().StringVar(&seedCreator, "creator", "", "creator id stamped on new tasks (defaults to the configured interviewer)")
	rootCmd.AddCommand(seedTasksCmd)
}

func runSeedTasks(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, cfg, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	creator := seedCreator
	if creator == "" {
		creator = service.InterviewerID(cfg.HostUsername)
	}

	ids, err := a.TaskService.SeedSampleTasks(ctx, creator)
	for _, id := range ids {
		fmt.Println(id)
	}
	return err
}
