package cmd

import (
	"flag"
	"fmt"

	"github.com/Digital-Shane/track-tidy/internal/log"
)

// RunLogsCommand prints recent diagnostic sessions.
func RunLogsCommand(args []string) error {
	flags := flag.NewFlagSet("logs", flag.ExitOnError)
	limit := flags.Int("n", 5, "Number of sessions to show")
	if err := flags.Parse(args); err != nil {
		return err
	}

	sessions, err := log.ReadSessions(*limit)
	if err != nil {
		return fmt.Errorf("failed to read sessions: %w", err)
	}

	if len(sessions) == 0 {
		fmt.Println("No diagnostic sessions found.")
		return nil
	}

	for i, session := range sessions {
		if i > 0 {
			fmt.Println()
		}
		fmt.Printf("Session %s (%s, %d entries)\n",
			session.Metadata.SessionID,
			session.Metadata.Timestamp.Format("2006-01-02 15:04:05"),
			session.Metadata.EntryCount)
		for _, entry := range session.Entries {
			fmt.Printf("  %s  %s\n", entry.Timestamp.Format("15:04:05"), entry.Message)
		}
	}

	return nil
}
