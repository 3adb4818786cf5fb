package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"
)

func (c *cli) export(ctx context.Context, args []string) error {
	fs := c.newFlagSet("export")
	output := fs.String("output", "", "Output file (default: backup_YYYYMMDD_HHMMSS.json)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	path := *output
	if path == "" {
		path = fmt.Sprintf("backup_%s.json", time.Now().Format("20060102_150405"))
	}

	fmt.Fprintf(c.out, "Exporting data to %s...\n", path)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}

	backup, err := c.app.Backup.Export(ctx, f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return fmt.Errorf("export failed: %w", err)
	}

	sessions := len(backup.Sessions)
	cards := 0
	for _, d := range backup.Decks {
		cards += len(d.Cards)
	}
	fmt.Fprintln(c.out, "Export completed successfully!")
	fmt.Fprintf(c.out, "  Decks:    %d\n", len(backup.Decks))
	fmt.Fprintf(c.out, "  Cards:    %d\n", cards)
	fmt.Fprintf(c.out, "  Sessions: %d\n", sessions)
	return nil
}

func (c *cli) importData(ctx context.Context, args []string) error {
	fs := c.newFlagSet("import")
	input := fs.String("input", "", "Input file (required)")
	clearData := fs.Bool("clear", false, "Delete all existing data before importing")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *input == "" {
		return errors.New("-input is required")
	}

	if *clearData && !c.confirm("WARNING: This will delete all existing data.") {
		fmt.Fprintln(c.out, "Import cancelled")
		return nil
	}

	f, err := os.Open(*input)
	if err != nil {
		return fmt.Errorf("failed to open input file: %w", err)
	}
	defer f.Close()

	fmt.Fprintf(c.out, "Importing data from %s...\n", *input)
	summary, err := c.app.Backup.Import(ctx, f, *clearData)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	fmt.Fprintln(c.out, "Import completed successfully!")
	fmt.Fprintf(c.out, "  Decks:    %d\n", summary.Decks)
	fmt.Fprintf(c.out, "  Cards:    %d\n", summary.Cards)
	fmt.Fprintf(c.out, "  Sessions: %d\n", summary.Sessions)
	return nil
}
