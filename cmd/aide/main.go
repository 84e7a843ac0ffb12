package main

import (
	"fmt"
	"os"
)

const version = "0.1.0-dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(0)
	}

	switch os.Args[1] {
	case "analyze":
		if err := runAnalyze(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "contact":
		if err := runContact(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "history":
		if err := runHistory(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "mcp":
		if err := runMCP(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "config":
		if err := runConfig(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "version", "--version", "-v":
		fmt.Printf("aide %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf(`aide %s — LLM document analysis for tasks, appointments, and opportunities

Usage:
  aide <command> [arguments]

Commands:
  analyze <file>      Analyze a document (use "-" to read stdin)
  contact add         Add a contact to the directory
  contact list        List directory contacts
  history [id]        List archived analyses, or print one by ID
  mcp                 Serve the MCP stdio server
  config              Print the resolved configuration
  version             Print version

Analyze Flags:
  --title <title>     Document title stored with the result
  --llm <prov/model>  LLM to use (e.g. google/gemini-2.5-flash, openai/gpt-4o-mini)
  --db <path>         Database path (default: %s)
  --no-archive        Skip archiving the result

Flags:
  -h, --help          Show this help message
  -v, --version       Print version
`, version, "~/.aide/aide.db")
}
