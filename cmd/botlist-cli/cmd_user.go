package main

import (
	"context"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/botlistspace/go-botlist/client"
)

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Query site users",
	}
	cmd.AddCommand(userGetCmd())
	cmd.AddCommand(userBotsCmd())
	return cmd
}

func userGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show a user by ID",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			user, err := apiClient.Users.Get(context.Background(), args[0], nil)
			if err != nil {
				fatal("get user", err)
			}
			output(user, user.ID)
		},
	}
}

func userBotsCmd() *cobra.Command {
	var page int
	cmd := &cobra.Command{
		Use:   "bots <id>",
		Short: "List the bots owned by a user",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			bots, err := apiClient.Users.Bots(context.Background(), args[0], &client.ListOptions{Page: page})
			if err != nil {
				fatal("list user bots", err)
			}
			output(bots, strconv.Itoa(len(bots)))
		},
	}
	cmd.Flags().IntVar(&page, "page", 0, "Result page")
	return cmd
}
