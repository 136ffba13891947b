package main

import (
	"context"
	"strconv"

	"github.com/spf13/cobra"
)

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show site-wide statistics",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			stats, err := apiClient.Stats.Get(context.Background(), nil)
			if err != nil {
				fatal("get stats", err)
			}
			output(stats, strconv.Itoa(stats.Total()))
		},
	}
}
