package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/msto63/souffleur/internal/store"
)

var (
	historyLimit    int
	historySession  string
	historySince    time.Duration
	historyContains string
	historyPrune    time.Duration
)

var historyCmd = &cobra.Command{
	Use:     "history",
	Aliases: []string{"log"},
	Short:   "Show captured questions and answers",
	Long: `Shows questions from the question log, newest first.

Examples:
  souffleur history                      # last 20 questions
  souffleur history --since 2h           # questions of the last two hours
  souffleur history --contains salary
  souffleur history --prune 720h         # delete entries older than 30 days`,
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "maximum number of entries")
	historyCmd.Flags().StringVar(&historySession, "session", "", "only this session ID")
	historyCmd.Flags().DurationVar(&historySince, "since", 0, "only entries newer than this")
	historyCmd.Flags().StringVar(&historyContains, "contains", "", "only questions containing this text")
	historyCmd.Flags().DurationVar(&historyPrune, "prune", 0, "delete entries older than this instead of listing")
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		printError("failed to load config", err)
		return err
	}

	s, err := store.Open(store.Config{Path: cfg.Store.Path})
	if err != nil {
		printError("failed to open question log", err)
		return err
	}
	defer s.Close()

	ctx := context.Background()

	if historyPrune > 0 {
		n, err := s.Prune(ctx, time.Now().Add(-historyPrune))
		if err != nil {
			return err
		}
		fmt.Printf("Deleted %d entries older than %s.\n", n, historyPrune)
		return nil
	}

	filter := store.Filter{
		SessionID: historySession,
		Contains:  historyContains,
		Limit:     historyLimit,
	}
	if historySince > 0 {
		filter.Since = time.Now().Add(-historySince)
	}

	entries, err := s.List(ctx, filter)
	if err != nil {
		return err
	}
	stats, err := s.Stats(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Question log: %s\n", cfg.Store.Path)
	fmt.Printf("%d questions in %d sessions, %d answered, %d failed\n\n",
		stats.Questions, stats.Sessions, stats.Answered, stats.Failed)

	if len(entries) == 0 {
		fmt.Println("No questions found.")
		return nil
	}

	for _, e := range entries {
		fmt.Print(formatEntry(e))
	}
	return nil
}

// formatEntry renders one log entry as a short block
func formatEntry(e *store.Entry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] Q: %s\n", e.AskedAt.Local().Format("2006-01-02 15:04:05"), e.Question)
	switch {
	case e.Answered():
		fmt.Fprintf(&b, "    A (%s): %s\n", e.Backend, e.Answer)
	case e.AnswerErr != "":
		fmt.Fprintf(&b, "    A (%s): failed: %s\n", e.Backend, e.AnswerErr)
	default:
		b.WriteString("    A: -\n")
	}
	b.WriteString("\n")
	return b.String()
}
