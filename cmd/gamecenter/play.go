package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"gamecenter/internal/catalog"
	"gamecenter/internal/game"
	"gamecenter/internal/game/numberguess"
	"gamecenter/internal/game/rps"
	"gamecenter/internal/session"
)

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats <gameId>",
		Short: "Print aggregate stats for a game",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			g, err := lookupGame(newRegistry(cfg), args[0])
			if err != nil {
				return err
			}
			st, err := openStores(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer st.close()
			return printStats(cmd.OutOrStdout(), g.Info(), g.LoadStats(cmd.Context(), st.stats))
		},
	}
}

func newPlayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "play <gameId>",
		Short: "Play a game in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			g, err := lookupGame(newRegistry(cfg), args[0])
			if err != nil {
				return err
			}
			st, err := openStores(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer st.close()
			return runPlay(cmd.Context(), g, game.MatchConfig{Stats: st.stats},
				cmd.InOrStdin(), cmd.OutOrStdout(), time.Sleep)
		},
	}
}

// lookupGame resolves a catalog id to a playable engine, the same way the
// server mounts sessions.
func lookupGame(registry *game.Registry, id string) (game.Game, error) {
	return session.Resolve(catalog.Default(), registry, id)
}

func printStats(w io.Writer, info game.Info, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(w, titleStyle.Render(info.Title))
	fmt.Fprintln(w, string(data))
	return nil
}

// runPlay drives one match from line-oriented input. wait is called with
// the delay owed before a deferred follow-up action.
func runPlay(ctx context.Context, g game.Game, config game.MatchConfig, in io.Reader, out io.Writer, wait func(time.Duration)) error {
	m := g.NewMatch(ctx, config)
	translate := translators[g.Info().ID]
	if translate == nil {
		translate = rawAction
	}

	fmt.Fprintln(out, titleStyle.Render(g.Info().Title))
	fmt.Fprintln(out, mutedStyle.Render("type 'new' to restart, 'stats' for totals, 'quit' to leave"))
	if err := apply(ctx, m, game.Action{Type: "start"}, out, wait); err != nil {
		return err
	}
	render(out, m)

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(line) {
		case "quit", "exit", "q":
			return nil
		case "stats":
			if err := printStats(out, g.Info(), m.Stats()); err != nil {
				return err
			}
			continue
		}
		for _, a := range translate(m, line) {
			if err := apply(ctx, m, a, out, wait); err != nil {
				return err
			}
		}
		render(out, m)
	}
	return scanner.Err()
}

// apply dispatches an action and any deferred follow-up. Player mistakes
// are printed; only context cancellation ends the loop.
func apply(ctx context.Context, m game.Match, a game.Action, out io.Writer, wait func(time.Duration)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := m.ApplyAction(ctx, a)
	switch {
	case err == nil:
	case errors.Is(err, game.ErrNotAcceptingInput):
		fmt.Fprintln(out, mutedStyle.Render("not accepting input right now"))
		return nil
	default:
		fmt.Fprintln(out, errorStyle.Render(err.Error()))
		return nil
	}

	d, ok := m.(game.Deferred)
	if !ok {
		return nil
	}
	next, delay, ok := d.Pending()
	if !ok {
		return nil
	}
	render(out, m)
	wait(delay)
	return apply(ctx, m, next, out, wait)
}

type translator func(m game.Match, line string) []game.Action

var translators = map[string]translator{
	numberguess.ID: guessActions,
	rps.ID:         rpsActions,
}

func payload(v any) json.RawMessage {
	data, _ := json.Marshal(v)
	return data
}

// rawAction treats the line as an action type.
func rawAction(_ game.Match, line string) []game.Action {
	return []game.Action{{Type: line}}
}

func guessActions(_ game.Match, line string) []game.Action {
	if strings.EqualFold(line, "new") {
		return []game.Action{{Type: "start"}}
	}
	return []game.Action{{Type: "guess", Payload: payload(map[string]string{"input": line})}}
}

var handShortcuts = map[string]rps.Hand{"r": rps.Rock, "p": rps.Paper, "s": rps.Scissors}

func rpsActions(m game.Match, line string) []game.Action {
	lower := strings.ToLower(line)
	if lower == "new" {
		return []game.Action{{Type: "start"}}
	}
	if lower == "" || lower == "next" {
		return []game.Action{{Type: "continue"}}
	}
	if h, ok := handShortcuts[lower]; ok {
		lower = string(h)
	}
	choose := game.Action{Type: "choose", Payload: payload(map[string]string{"hand": lower})}
	if m.Phase() == string(rps.PhaseResult) {
		return []game.Action{{Type: "continue"}, choose}
	}
	return []game.Action{choose}
}

func render(out io.Writer, m game.Match) {
	switch v := m.State().(type) {
	case numberguess.View:
		renderGuess(out, v)
	case rps.View:
		renderRPS(out, v)
	default:
		data, _ := json.Marshal(v)
		fmt.Fprintln(out, string(data))
	}
}

func renderGuess(out io.Writer, v numberguess.View) {
	switch v.Status {
	case numberguess.StatusWaiting:
		fmt.Fprintln(out, mutedStyle.Render("type 'new' to start"))
	case numberguess.StatusPlaying:
		if v.Attempts == 0 {
			fmt.Fprintf(out, "pick a number between %d and %d\n", v.Range.Min, v.Range.Max)
			return
		}
		msg := fmt.Sprintf("attempt %d: %s", v.Attempts, v.LastOutcome)
		if v.Hint != numberguess.HintNone {
			msg += " (" + string(v.Hint) + ")"
		}
		fmt.Fprintln(out, msg)
	case numberguess.StatusWon:
		target := 0
		if v.Target != nil {
			target = *v.Target
		}
		fmt.Fprintln(out, availableStyle.Render(fmt.Sprintf("correct! %d in %d attempts", target, v.Attempts)))
		if v.BestScore != nil {
			fmt.Fprintln(out, mutedStyle.Render(fmt.Sprintf("best score: %d", *v.BestScore)))
		}
		fmt.Fprintln(out, mutedStyle.Render("type 'new' to play again"))
	}
}

func renderRPS(out io.Writer, v rps.View) {
	switch v.Phase {
	case rps.PhaseWaiting:
		fmt.Fprintln(out, mutedStyle.Render("type 'new' to start"))
	case rps.PhaseSelecting:
		fmt.Fprintln(out, "choose rock, paper or scissors (r/p/s)")
	case rps.PhaseRevealing:
		fmt.Fprintf(out, "you played %s...\n", v.PlayerHand)
	case rps.PhaseResult:
		style := mutedStyle
		switch v.Result {
		case rps.Win:
			style = availableStyle
		case rps.Lose:
			style = errorStyle
		}
		fmt.Fprintln(out, style.Render(fmt.Sprintf("%s vs %s: %s", v.PlayerHand, v.CPUHand, v.Result)))
		fmt.Fprintln(out, mutedStyle.Render(fmt.Sprintf("streak %d, round %d", v.CurrentWinStreak, v.RoundCount)))
	}
}
