package main

import (
	"fmt"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "run":
		if err := run(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "help", "-h", "--help":
		printUsage()
	case "version", "-v", "--version":
		fmt.Println("chronosim version 0.1.0")
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`chronosim - discrete-event actor simulation demo

Usage:
  chronosim <command> [options]

Commands:
  run        Drive a chain of relay actors to quiescence
  help       Show this help message
  version    Show version information

Examples:
  # Relay a pulse through 5 actors, logging to an eventlog file
  chronosim run --actors 5 --deadline 1000 --eventlog trail.jsonl

  # Bound concurrency and suppress console diagnostics
  chronosim run --actors 20 --concurrency 4 --quiet

For command-specific help, run:
  chronosim <command> --help`)
}
