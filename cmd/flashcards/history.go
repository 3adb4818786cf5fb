package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"flashcards/internal/models"
)

func (c *cli) history(ctx context.Context, args []string) error {
	fs := c.newFlagSet("history")
	ref := fs.String("deck", "", "Only sessions for this deck id or name")
	from := fs.String("from", "", "Earliest start date, YYYY-MM-DD")
	to := fs.String("to", "", "Latest start date, YYYY-MM-DD (inclusive)")
	all := fs.Bool("all", false, "Include sessions that were never finished")
	if err := fs.Parse(args); err != nil {
		return err
	}

	dates, err := models.ParseDateRange(*from, *to)
	if err != nil {
		return err
	}
	filter := models.SessionFilter{DateRange: dates, IncludeIncomplete: *all}
	if *ref != "" {
		deck, err := c.resolveDeck(ctx, *ref)
		if err != nil {
			return err
		}
		filter.DeckID = deck.ID
	}

	sessions, err := c.app.History.Sessions(ctx, filter)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Fprintln(c.out, "No study sessions found.")
		return nil
	}

	tw := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STARTED\tDECK\tSTUDIED\tCORRECT\tACCURACY\tDURATION")
	for i := range sessions {
		s := &sessions[i]
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%.1f%%\t%s\n",
			formatTime(&s.StartTime), truncate(s.DeckName, 30), s.CardsStudied, s.CardsCorrect, s.Accuracy(), formatDuration(s))
	}
	return tw.Flush()
}

func (c *cli) stats(ctx context.Context, args []string) error {
	fs := c.newFlagSet("stats")
	ref := fs.String("deck", "", "Deck id or name, every deck when omitted")
	from := fs.String("from", "", "Count sessions started on or after, YYYY-MM-DD")
	to := fs.String("to", "", "Count sessions started on or before, YYYY-MM-DD")
	if err := fs.Parse(args); err != nil {
		return err
	}

	dates, err := models.ParseDateRange(*from, *to)
	if err != nil {
		return err
	}

	if *ref != "" {
		deck, err := c.resolveDeck(ctx, *ref)
		if err != nil {
			return err
		}
		st, err := c.app.History.DeckStats(ctx, deck.ID, dates)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "%s\n", deck.Name)
		fmt.Fprintf(c.out, "  Cards:          %d (%d reviewed)\n", st.TotalCards, st.ReviewedCards)
		fmt.Fprintf(c.out, "  Sessions:       %d\n", st.SessionCount)
		fmt.Fprintf(c.out, "  Cards studied:  %d\n", st.TotalStudied)
		fmt.Fprintf(c.out, "  Correct:        %d\n", st.TotalCorrect)
		fmt.Fprintf(c.out, "  Accuracy:       %.1f%% (%s)\n", st.Accuracy, models.AccuracyBucket(st.Accuracy))
		return nil
	}

	summaries, err := c.app.History.Overview(ctx, dates)
	if err != nil {
		return err
	}
	if len(summaries) == 0 {
		fmt.Fprintln(c.out, "No decks yet.")
		return nil
	}

	tw := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DECK\tCARDS\tREVIEWED\tSESSIONS\tSTUDIED\tCORRECT\tACCURACY")
	for _, s := range summaries {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%d\t%.1f%%\n",
			truncate(s.Deck.Name, 30), s.Stats.TotalCards, s.Stats.ReviewedCards, s.Stats.SessionCount,
			s.Stats.TotalStudied, s.Stats.TotalCorrect, s.Stats.Accuracy)
	}
	return tw.Flush()
}
