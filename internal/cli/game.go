package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newGameCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "game",
		Short: "Game commands",
	}

	cmd.AddCommand(newGameCreateCmd())
	cmd.AddCommand(newGameListCmd())
	cmd.AddCommand(newGameGetCmd())
	cmd.AddCommand(newGameJoinCmd())
	cmd.AddCommand(newGameMoveCmd())
	cmd.AddCommand(newGameHistoryCmd())
	cmd.AddCommand(newGameWatchCmd())

	return cmd
}

func newGameCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create",
		Short: "Create a new game, waiting for an opponent",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Game

			if err := client.Post("/api/v1/games", nil, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newGameListCmd() *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List games, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/api/v1/games"
			if status != "" {
				path += "?status=" + status
			}

			var result GameList
			if err := client.Get(path, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Filter by status: waiting, in_progress, finished")

	return cmd
}

func newGameGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <game-id>",
		Short: "Show a game",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Game

			if err := client.Get("/api/v1/games/"+args[0], &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newGameJoinCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "join <game-id>",
		Short: "Join a waiting game as O",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Game

			if err := client.Post("/api/v1/games/"+args[0]+"/join", nil, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newGameMoveCmd() *cobra.Command {
	var position int

	cmd := &cobra.Command{
		Use:   "move <game-id>",
		Short: "Play a move at a position (0-8, row-major)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]int{"position": position}
			var result MoveResult

			if err := client.Post("/api/v1/games/"+args[0]+"/moves", req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().IntVar(&position, "position", -1, "Board position 0-8 (required)")
	_ = cmd.MarkFlagRequired("position")

	return cmd
}

func newGameHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history <game-id>",
		Short: "Show the finished game record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result HistoryRecord

			if err := client.Get("/api/v1/games/"+args[0]+"/history", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newGameWatchCmd() *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "watch <game-id>",
		Short: "Poll a game and print it whenever it changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := NewOutput(cfg.Output)
			path := "/api/v1/games/" + args[0]

			var last string
			for {
				var result Game
				if err := client.Get(path, &result); err != nil {
					return err
				}

				state := fmt.Sprintf("%s|%v|%s", result.Status, result.Board, result.Winner)
				if state != last {
					last = state
					out.Print(result)
					fmt.Println()
				}

				if result.Status == "finished" {
					return nil
				}

				time.Sleep(interval)
			}
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", 2*time.Second, "Polling interval")

	return cmd
}
