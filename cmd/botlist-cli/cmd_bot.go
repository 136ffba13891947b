package main

import (
	"context"
	"errors"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/botlistspace/go-botlist/client"
)

func newBotCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bot [id]",
		Short: "Show a listed bot (defaults to the configured bot)",
		Args:  cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			id := ""
			if len(args) > 0 {
				id = args[0]
			}
			bot, err := apiClient.Bots.Get(context.Background(), id, nil)
			if err != nil {
				fatal("get bot", err)
			}
			output(bot, bot.ID)
		},
	}
}

func newBotsCmd() *cobra.Command {
	var page int
	cmd := &cobra.Command{
		Use:   "bots",
		Short: "List bots on the site",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			bots, err := apiClient.Bots.List(context.Background(), &client.ListOptions{Page: page})
			if err != nil {
				fatal("list bots", err)
			}
			if flagFmt == "table" {
				rows := make([][]string, 0, len(bots))
				for _, b := range bots {
					rows = append(rows, []string{b.ID, b.Tag(), strconv.Itoa(b.ServerCount), b.Library})
				}
				formatTable([]string{"ID", "TAG", "SERVERS", "LIBRARY"}, rows)
				return
			}
			output(bots, strconv.Itoa(len(bots)))
		},
	}
	cmd.Flags().IntVar(&page, "page", 0, "Result page")
	return cmd
}

func newUpvotesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upvotes [bot-id]",
		Short: "List upvotes for a bot (requires a token)",
		Args:  cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			id := ""
			if len(args) > 0 {
				id = args[0]
			}
			upvotes, err := apiClient.Bots.Upvotes(context.Background(), id, nil)
			if err != nil {
				fatal("list upvotes", err)
			}
			if flagFmt == "table" {
				rows := make([][]string, 0, len(upvotes))
				for _, uv := range upvotes {
					rows = append(rows, []string{uv.User.ID, uv.User.Tag(), strconv.FormatInt(uv.Timestamp, 10)})
				}
				formatTable([]string{"USER", "TAG", "TIMESTAMP"}, rows)
				return
			}
			output(upvotes, strconv.Itoa(len(upvotes)))
		},
	}
}

func newPostCountCmd() *cobra.Command {
	var shards []int
	cmd := &cobra.Command{
		Use:   "post-count [count]",
		Short: "Publish a server count for the configured bot",
		Args:  cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()
			switch {
			case len(shards) > 0:
				if err := apiClient.Bots.PostShardCounts(ctx, "", shards, nil); err != nil {
					fatal("post shard counts", err)
				}
			case len(args) == 1:
				count, err := strconv.Atoi(args[0])
				if err != nil {
					fatal("parse count", err)
				}
				if err := apiClient.Bots.PostServerCount(ctx, "", count, nil); err != nil {
					fatal("post server count", err)
				}
			default:
				fatal("post count", errors.New("provide a count argument or --shards"))
			}
			output(map[string]bool{"posted": true}, "posted")
		},
	}
	cmd.Flags().IntSliceVar(&shards, "shards", nil, "Per-shard server counts")
	return cmd
}
