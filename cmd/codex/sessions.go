package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"opencodex/internal/config"
	"opencodex/internal/session"
)

// runSessions lists recorded sessions, or replays one transcript.
func runSessions(cmd *cobra.Command, args []string) error {
	dir, err := config.Dir()
	if err != nil {
		return err
	}
	store, err := session.Open(filepath.Join(dir, "sessions.db"))
	if err != nil {
		return err
	}
	defer store.Close()

	if len(args) == 1 {
		return showSession(cmd, store, args[0])
	}

	sessions, err := store.List(20)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Println("No recorded sessions. Enable memory in the config to record transcripts.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tMODEL\tTURNS\tSTARTED\tCWD")
	for _, s := range sessions {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
			s.ID, s.Model, s.Turns, s.StartedAt.Format("2006-01-02 15:04"), s.Cwd)
	}
	return w.Flush()
}

func showSession(cmd *cobra.Command, store *session.Store, id string) error {
	turns, err := store.Get(id)
	if err != nil {
		return err
	}
	if len(turns) == 0 {
		return fmt.Errorf("no session with id %s", id)
	}

	for _, turn := range turns {
		fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s\n%s\n\n",
			turn.CreatedAt.Format("15:04:05"),
			strings.ToUpper(turn.Role),
			turn.Content)
	}
	return nil
}
