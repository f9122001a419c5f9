package cmd

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/wiremeet/internal/app"
	"github.com/vovakirdan/wiremeet/internal/auth"
	"github.com/vovakirdan/wiremeet/internal/store/sqlite"
)

var (
	historyUser  string
	historyLimit int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List rooms a user has joined, newest first",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if historyUser == "" {
			return errors.New("--user is required")
		}
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}

		st, err := sqlite.New(cfg.DatabasePath)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer st.Close()

		entries, err := auth.NewService(st, app.JWTConfig(cfg)).History(cmd.Context(), historyUser, historyLimit)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ROOM\tJOINED AT")
		for _, p := range entries {
			fmt.Fprintf(w, "%s\t%s\n", p.RoomID, p.JoinedAt.Format(time.RFC3339))
		}
		return w.Flush()
	},
}

func init() {
	historyCmd.Flags().StringVar(&historyUser, "user", "", "user id to look up")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "maximum entries, 0 for all")
}
