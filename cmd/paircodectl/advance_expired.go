package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var advanceExpiredCmd = &cobra.Command{
	Use:   "advance-expired",
	Short: "Advance every room whose phase timer has run out",
	RunE:  runAdvanceExpired,
}

func init() {
	rootCmd.AddCommand(advanceExpiredCmd)
}

func runAdvanceExpired(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, _, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	n, err := a.RoomService.AdvanceExpired(ctx)
	fmt.Printf("Advanced %d room(s).\n", n)
	return err
}
