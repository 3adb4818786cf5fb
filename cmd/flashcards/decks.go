package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"flashcards/internal/models"
	"flashcards/internal/service"
)

func (c *cli) generate(ctx context.Context, args []string) error {
	fs := c.newFlagSet("generate")
	topic := fs.String("topic", "", "Topic to generate flashcards about (required)")
	n := fs.Int("n", 10, "Number of flashcards to generate")
	notes := fs.String("notes", "", "Optional focus areas appended to the topic")
	if err := fs.Parse(args); err != nil {
		return err
	}

	in := service.GenerateInput{Topic: *topic, NumQuestions: *n, Notes: *notes}
	if err := in.Validate(); err != nil {
		return err
	}

	fmt.Fprintf(c.out, "Generating %d flashcards about %q", in.NumQuestions, strings.TrimSpace(in.Topic))
	results := c.app.Decks.GenerateAsync(ctx, in)
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	var res service.GenerateResult
wait:
	for {
		select {
		case res = <-results:
			break wait
		case <-ticker.C:
			fmt.Fprint(c.out, ".")
		}
	}
	fmt.Fprintln(c.out)

	if res.Err != nil {
		return res.Err
	}
	fmt.Fprintf(c.out, "Created deck %q (%s) with %d cards\n", res.Deck.Name, res.Deck.ID, len(res.Deck.Cards))
	return nil
}

func (c *cli) listDecks(ctx context.Context, args []string) error {
	fs := c.newFlagSet("decks")
	if err := fs.Parse(args); err != nil {
		return err
	}

	decks, err := c.app.Decks.List(ctx)
	if err != nil {
		return err
	}
	if len(decks) == 0 {
		fmt.Fprintln(c.out, "No decks yet. Create one with 'flashcards generate -topic <topic>'.")
		return nil
	}

	tw := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCARDS\tCREATED\tLAST STUDIED")
	for _, d := range decks {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n",
			d.ID, truncate(d.Name, 40), d.CardCount, formatTime(&d.CreatedAt), formatTime(d.LastStudied))
	}
	return tw.Flush()
}

func (c *cli) showDeck(ctx context.Context, args []string) error {
	fs := c.newFlagSet("show")
	ref := fs.String("deck", "", "Deck id or name (required)")
	answers := fs.Bool("answers", true, "Show answers")
	if err := fs.Parse(args); err != nil {
		return err
	}

	deck, err := c.resolveDeck(ctx, *ref)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.out, "%s\n", deck.Name)
	if deck.Description != "" {
		fmt.Fprintf(c.out, "%s\n", deck.Description)
	}
	fmt.Fprintf(c.out, "ID: %s  Cards: %d  Created: %s  Last studied: %s\n\n",
		deck.ID, len(deck.Cards), formatTime(&deck.CreatedAt), formatTime(deck.LastStudied))

	tw := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	if *answers {
		fmt.Fprintln(tw, "ID\tQUESTION\tANSWER\tLAST REVIEWED")
	} else {
		fmt.Fprintln(tw, "ID\tQUESTION\tLAST REVIEWED")
	}
	for _, card := range deck.Cards {
		if *answers {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", card.ID, truncate(card.Question, 50), truncate(card.Answer, 40), formatTime(card.LastReviewed))
		} else {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", card.ID, truncate(card.Question, 60), formatTime(card.LastReviewed))
		}
	}
	return tw.Flush()
}

func (c *cli) newDeck(ctx context.Context, args []string) error {
	fs := c.newFlagSet("new-deck")
	name := fs.String("name", "", "Deck name (required)")
	description := fs.String("description", "", "Deck description")
	if err := fs.Parse(args); err != nil {
		return err
	}

	deck, err := c.app.Decks.Create(ctx, *name, *description)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Created deck %q (%s)\n", deck.Name, deck.ID)
	return nil
}

func (c *cli) renameDeck(ctx context.Context, args []string) error {
	fs := c.newFlagSet("rename-deck")
	ref := fs.String("deck", "", "Deck id or name (required)")
	name := fs.String("name", "", "New name (required)")
	description := fs.String("description", "", "New description, unchanged when omitted")
	if err := fs.Parse(args); err != nil {
		return err
	}

	deck, err := c.resolveDeck(ctx, *ref)
	if err != nil {
		return err
	}
	desc := deck.Description
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "description" {
			desc = *description
		}
	})

	updated, err := c.app.Decks.Update(ctx, deck.ID, *name, desc)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Updated deck %s: %q\n", updated.ID, updated.Name)
	return nil
}

func (c *cli) deleteDeck(ctx context.Context, args []string) error {
	fs := c.newFlagSet("delete-deck")
	ref := fs.String("deck", "", "Deck id or name (required)")
	yes := fs.Bool("yes", false, "Skip confirmation")
	if err := fs.Parse(args); err != nil {
		return err
	}

	deck, err := c.resolveDeck(ctx, *ref)
	if err != nil {
		return err
	}
	if !*yes && !c.confirm(fmt.Sprintf("Delete deck %q with %d cards and its study history?", deck.Name, len(deck.Cards))) {
		fmt.Fprintln(c.out, "Delete cancelled")
		return nil
	}

	if err := c.app.Decks.Delete(ctx, deck.ID); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Deleted deck %q\n", deck.Name)
	return nil
}

func (c *cli) addCard(ctx context.Context, args []string) error {
	fs := c.newFlagSet("add-card")
	ref := fs.String("deck", "", "Deck id or name (required)")
	question := fs.String("q", "", "Question (required)")
	answer := fs.String("a", "", "Answer (required)")
	topic := fs.String("topic", "", "Card topic, defaults to the deck name")
	if err := fs.Parse(args); err != nil {
		return err
	}

	deck, err := c.resolveDeck(ctx, *ref)
	if err != nil {
		return err
	}
	card, err := c.app.Decks.AddCard(ctx, deck.ID, *question, *answer, *topic)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Added card %s to %q\n", card.ID, deck.Name)
	return nil
}

func (c *cli) editCard(ctx context.Context, args []string) error {
	fs := c.newFlagSet("edit-card")
	id := fs.String("card", "", "Card id (required)")
	question := fs.String("q", "", "New question (required)")
	answer := fs.String("a", "", "New answer (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return errors.New("-card is required")
	}

	card, err := c.app.Decks.EditCard(ctx, *id, *question, *answer)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Updated card %s\n", card.ID)
	return nil
}

func (c *cli) deleteCard(ctx context.Context, args []string) error {
	fs := c.newFlagSet("delete-card")
	id := fs.String("card", "", "Card id (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return errors.New("-card is required")
	}

	if err := c.app.Decks.DeleteCard(ctx, *id); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Deleted card %s\n", *id)
	return nil
}

func (c *cli) recentCards(ctx context.Context, args []string) error {
	fs := c.newFlagSet("recent")
	limit := fs.Int("limit", service.DefaultRecentLimit, "Maximum number of cards")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cards, err := c.app.Decks.RecentCards(ctx, *limit)
	if err != nil {
		return err
	}
	if len(cards) == 0 {
		fmt.Fprintln(c.out, "No cards yet.")
		return nil
	}
	printCards(c, cards)
	return nil
}

func printCards(c *cli, cards []models.Flashcard) {
	tw := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTOPIC\tQUESTION\tCREATED")
	for _, card := range cards {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", card.ID, truncate(card.Topic, 24), truncate(card.Question, 60), formatTime(&card.CreatedAt))
	}
	tw.Flush()
}
