package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"flashcards/internal/app"
	"flashcards/internal/config"
)

// cli carries the app and the terminal streams through every command
type cli struct {
	app *app.App
	out io.Writer
	in  *bufio.Reader
}

type command struct {
	usage string
	run   func(c *cli, ctx context.Context, args []string) error
}

var commands = map[string]command{
	"generate":    {"Generate a deck from a topic (-topic, -n, -notes)", (*cli).generate},
	"decks":       {"List decks", (*cli).listDecks},
	"show":        {"Show a deck and its cards (-deck)", (*cli).showDeck},
	"new-deck":    {"Create an empty deck (-name, -description)", (*cli).newDeck},
	"rename-deck": {"Rename a deck (-deck, -name, -description)", (*cli).renameDeck},
	"delete-deck": {"Delete a deck with its cards and history (-deck, -yes)", (*cli).deleteDeck},
	"add-card":    {"Add a card to a deck (-deck, -q, -a, -topic)", (*cli).addCard},
	"edit-card":   {"Edit a card's question and answer (-card, -q, -a)", (*cli).editCard},
	"delete-card": {"Delete a card (-card)", (*cli).deleteCard},
	"recent":      {"List the newest cards (-limit)", (*cli).recentCards},
	"study":       {"Study a deck interactively (-deck)", (*cli).study},
	"history":     {"List study sessions (-deck, -from, -to, -all)", (*cli).history},
	"stats":       {"Show deck statistics (-deck, -from, -to)", (*cli).stats},
	"settings":    {"Manage settings: list | get <key> | set <key> <value> | reset", (*cli).settings},
	"ping":        {"Test the connection to the generation service", (*cli).ping},
	"export":      {"Export all data to JSON (-output)", (*cli).export},
	"import":      {"Import data from JSON (-input, -clear)", (*cli).importData},
}

func main() {
	if len(os.Args) < 2 {
		printUsage(os.Stdout)
		os.Exit(1)
	}
	name := os.Args[1]
	if name == "help" || name == "-h" || name == "--help" {
		printUsage(os.Stdout)
		return
	}
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", name)
		printUsage(os.Stderr)
		os.Exit(1)
	}

	cfg := config.Load()
	// Keep the terminal for command output unless a level was asked for
	if os.Getenv("LOG_LEVEL") == "" {
		cfg.LogLevel = "warn"
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, app.Options{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	c := &cli{app: application, out: os.Stdout, in: bufio.NewReader(os.Stdin)}
	err = cmd.run(c, ctx, os.Args[2:])
	application.Close()

	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Flashcards")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  flashcards <command> [options]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")

	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-12s %s\n", name, commands[name].usage)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment Variables:")
	fmt.Fprintln(w, "  FLASHCARDS_HOME  Data directory (default: ~/.flashcards)")
	fmt.Fprintln(w, "  DATABASE_TYPE    Database type: sqlite, postgres, or mysql (default: sqlite)")
	fmt.Fprintln(w, "  DB_PATH          SQLite database path (default: $FLASHCARDS_HOME/data/flashcards.db)")
	fmt.Fprintln(w, "  DATABASE_URL     PostgreSQL or MySQL connection URL")
	fmt.Fprintln(w, "  LOG_LEVEL        Console log level (default: warn)")
}

// newFlagSet returns a flag set that reports errors instead of exiting
func (c *cli) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(c.out)
	return fs
}

// prompt prints question and reads one trimmed line. EOF yields an empty
// answer with ok false.
func (c *cli) prompt(question string) (answer string, ok bool) {
	fmt.Fprint(c.out, question)
	line, err := c.in.ReadString('\n')
	if err != nil && line == "" {
		fmt.Fprintln(c.out)
		return "", false
	}
	return trimLine(line), true
}

// confirm asks the user to type yes
func (c *cli) confirm(question string) bool {
	answer, _ := c.prompt(question + " Type 'yes' to confirm: ")
	return answer == "yes"
}
