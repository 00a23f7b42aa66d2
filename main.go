package main

import (
	"fmt"
	"os"
	"slices"

	"github.com/Digital-Shane/track-tidy/internal/cmd"
	"github.com/Digital-Shane/track-tidy/internal/config"
)

func main() {
	command := "table"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	helpKeywords := []string{"help", "--help", "-h"}
	if slices.Contains(helpKeywords, command) {
		printUsage()
		return
	}

	switch command {
	case "config":
		if err := cmd.RunConfigCommand(os.Args[2:]); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

	case "logs":
		if err := cmd.RunLogsCommand(os.Args[2:]); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

	case "table":
		cfg, err := config.Load()
		if err != nil {
			fmt.Printf("Error loading config: %v\n", err)
			os.Exit(1)
		}
		if err := cmd.RunTableCommand(cfg); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf("track-tidy - A table view for your watch list and local library\n\n")
	fmt.Printf("Usage:\n")
	fmt.Printf("  track-tidy [table]   Open the interactive library table (default)\n")
	fmt.Printf("  track-tidy config    Configure service access and library paths\n")
	fmt.Printf("  track-tidy logs      Show recent diagnostic sessions\n")
	fmt.Printf("  track-tidy help      Show this help message\n\n")
	fmt.Printf("Table keys:\n")
	fmt.Printf("  r                    Reload the library from the tracking service\n")
	fmt.Printf("  e                    Load episode download state from the local library\n")
	fmt.Printf("  /                    Filter titles by name\n")
	fmt.Printf("  1-5, tab             Switch category\n")
	fmt.Printf("  t/p/s/f/n            Sort by title/progress/score/format/episodes\n")
	fmt.Printf("  w, +, -              Toggle watch info, resize covers\n")
	fmt.Printf("  enter                Open the selected title in a browser\n")
}
