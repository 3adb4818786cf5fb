package main

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"flashcards/internal/settings"
)

const settingsUsage = "usage: flashcards settings [list | get <key> | set <key> <value> | reset]"

func (c *cli) settings(ctx context.Context, args []string) error {
	store := c.app.Settings
	if len(args) == 0 {
		args = []string{"list"}
	}

	switch args[0] {
	case "list":
		tw := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "KEY\tVALUE")
		for _, key := range settings.Keys() {
			v, err := store.Get(key)
			if err != nil {
				return err
			}
			fmt.Fprintf(tw, "%s\t%v\n", key, v)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		fmt.Fprintf(c.out, "\nSettings file: %s\n", store.Path())
		return nil

	case "get":
		if len(args) != 2 {
			return errors.New(settingsUsage)
		}
		v, err := store.Get(args[1])
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "%v\n", v)
		return nil

	case "set":
		if len(args) != 3 {
			return errors.New(settingsUsage)
		}
		if err := store.Set(args[1], args[2]); err != nil {
			return err
		}
		v, _ := store.Get(args[1])
		fmt.Fprintf(c.out, "%s = %v\n", args[1], v)
		return nil

	case "reset":
		if err := store.Reset(); err != nil {
			return err
		}
		fmt.Fprintln(c.out, "Settings restored to defaults")
		return nil

	default:
		return fmt.Errorf("unknown settings command %q\n%s", args[0], settingsUsage)
	}
}

func (c *cli) ping(ctx context.Context, args []string) error {
	fs := c.newFlagSet("ping")
	if err := fs.Parse(args); err != nil {
		return err
	}

	start := time.Now()
	if !c.app.Decks.TestConnection(ctx) {
		return fmt.Errorf("generation service at %s is not reachable", c.app.Client.BaseURL())
	}
	fmt.Fprintf(c.out, "Generation service at %s is reachable (%s)\n",
		c.app.Client.BaseURL(), time.Since(start).Round(time.Millisecond))
	return nil
}
