package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/flexprice/payschedule/scripts/internal"
)

// Command represents a script that can be run
type Command struct {
	Name        string
	Description string
	Run         func() error
}

var commands = []Command{
	{
		Name:        "seed-subscriptions",
		Description: "Seed random subscriptions into postgres",
		Run:         internal.SeedSubscriptions,
	},
	{
		Name:        "follow-up-run",
		Description: "Run the follow-up payments once and print the report",
		Run:         internal.RunFollowUpOnce,
	},
}

func main() {
	var (
		listCommands bool
		cmdName      string
		count        string
		source       string
	)

	flag.BoolVar(&listCommands, "list", false, "List all available commands")
	flag.StringVar(&cmdName, "cmd", "", "Command to run")
	flag.StringVar(&count, "count", "", "Number of subscriptions to seed")
	flag.StringVar(&source, "source", "", "Source recorded on seeded subscriptions")

	flag.Parse()

	if listCommands {
		fmt.Println("Available commands:")
		for _, cmd := range commands {
			fmt.Printf("  %-20s %s\n", cmd.Name, cmd.Description)
		}
		return
	}

	if cmdName == "" {
		log.Fatal("Please specify a command to run using -cmd flag. Use -list to see available commands.")
	}

	// Set command-specific environment variables
	if count != "" {
		os.Setenv("SEED_COUNT", count)
	}
	if source != "" {
		os.Setenv("SEED_SOURCE", source)
	}

	for _, cmd := range commands {
		if cmd.Name == cmdName {
			if err := cmd.Run(); err != nil {
				log.Fatalf("Error running command %s: %v", cmdName, err)
			}
			return
		}
	}

	log.Fatalf("Unknown command: %s. Use -list to see available commands.", cmdName)
}
