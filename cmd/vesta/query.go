package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

type queryFlags struct {
	player          string
	player2         string
	season          int
	statType        string
	includePlayoffs bool
}

func newQueryCommand() *cobra.Command {
	var f queryFlags
	cmd := &cobra.Command{
		Use:   "query TOOL",
		Short: "Run one tool and print its JSON result",
		Example: `  vesta query get_player_totals --player "LeBron James" --season 2016
  vesta query compare_players --player "LeBron James" --player2 "Kevin Durant"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if f.player == "" {
				return errors.New("--player is required")
			}
			a, err := newApp(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer a.Close()

			msg, err := toolCall(args[0], f.arguments(args[0], cmd.Flags().Changed("include-playoffs")))
			if err != nil {
				return err
			}
			text, err := callText(a.mcp.MCPServer().HandleMessage(cmd.Context(), msg))
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), text)
			return err
		},
	}
	cmd.Flags().StringVar(&f.player, "player", "", "player name")
	cmd.Flags().StringVar(&f.player2, "player2", "", "second player for compare_players")
	cmd.Flags().IntVar(&f.season, "season", 0, "season end year, e.g. 2023")
	cmd.Flags().StringVar(&f.statType, "stat-type", "", "PER_GAME, TOTALS, PER_MINUTE, PER_POSS or ADVANCED")
	cmd.Flags().BoolVar(&f.includePlayoffs, "include-playoffs", true, "include playoff stats where supported")
	return cmd
}

func (f queryFlags) arguments(tool string, playoffsSet bool) map[string]any {
	args := map[string]any{}
	if tool == "compare_players" {
		args["player1_name"] = f.player
		args["player2_name"] = f.player2
	} else {
		args["player_name"] = f.player
	}
	if f.season > 0 {
		args["season"] = f.season
	}
	if f.statType != "" {
		args["stat_type"] = f.statType
	}
	if playoffsSet {
		args["include_playoffs"] = f.includePlayoffs
	}
	return args
}

func toolCall(tool string, args map[string]any) (json.RawMessage, error) {
	return json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "tools/call",
		"params":  map[string]any{"name": tool, "arguments": args},
	})
}

// callText extracts the text content of a tools/call response.
func callText(resp any) (string, error) {
	raw, err := json.Marshal(resp)
	if err != nil {
		return "", err
	}
	var body struct {
		Result *struct {
			Content []struct {
				Text string `json:"text"`
			} `json:"content"`
		} `json:"result"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return "", err
	}
	if body.Error != nil {
		return "", errors.New(body.Error.Message)
	}
	if body.Result == nil || len(body.Result.Content) == 0 {
		return "", errors.New("empty tool result")
	}
	return body.Result.Content[0].Text, nil
}
