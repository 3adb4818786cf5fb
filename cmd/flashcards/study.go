package main

import (
	"context"
	"fmt"
	"strings"

	"flashcards/internal/models"
	"flashcards/internal/service"
)

const (
	promptFront = "[Enter] flip  [p] previous  [s] skip  [q] quit > "
	promptBack  = "[y] correct  [n] incorrect  [p] previous  [s] skip  [q] quit > "
)

func (c *cli) study(ctx context.Context, args []string) error {
	fs := c.newFlagSet("study")
	ref := fs.String("deck", "", "Deck id or name (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	deck, err := c.resolveDeck(ctx, *ref)
	if err != nil {
		return err
	}
	st, err := c.app.Study.Start(ctx, deck.ID)
	if err != nil {
		return err
	}

	for {
		result, err := c.runStudy(ctx, st, c.app.Settings.Current().AutoFlip)
		if err != nil {
			return err
		}
		c.printResult(result)

		again, _ := c.prompt("Study again? [y/N] ")
		if !strings.EqualFold(again, "y") {
			return nil
		}
		if st, err = st.Restart(ctx); err != nil {
			return err
		}
	}
}

// runStudy drives st from the terminal until every card is marked or the
// user quits, then finishes the run
func (c *cli) runStudy(ctx context.Context, st *service.Study, autoFlip bool) (*service.StudyResult, error) {
	for {
		card := st.Current()
		pos, total := st.Position()
		studied, correct := st.Counts()

		fmt.Fprintf(c.out, "\n%s  card %d of %d  (%d studied, %d correct)\n", st.Deck().Name, pos, total, studied, correct)
		fmt.Fprintf(c.out, "\nQ: %s\n", card.Question)

		flipped := autoFlip
		if flipped {
			fmt.Fprintf(c.out, "A: %s\n", card.Answer)
		}

	card:
		for {
			prompt := promptFront
			if flipped {
				prompt = promptBack
			}
			input, ok := c.prompt(prompt)
			if !ok {
				return st.Finish(ctx)
			}

			switch strings.ToLower(input) {
			case "", "f":
				if !flipped {
					flipped = true
					fmt.Fprintf(c.out, "A: %s\n", card.Answer)
				}
			case "y", "n":
				if !flipped {
					fmt.Fprintln(c.out, "Flip the card first.")
					continue
				}
				done, err := st.Mark(ctx, strings.EqualFold(input, "y"))
				if err != nil {
					return nil, err
				}
				if done {
					return st.Finish(ctx)
				}
				break card
			case "p":
				if !st.Previous() {
					fmt.Fprintln(c.out, "Already at the first card.")
					continue
				}
				break card
			case "s":
				if !st.Next() {
					fmt.Fprintln(c.out, "Already at the last card.")
					continue
				}
				break card
			case "q":
				return st.Finish(ctx)
			default:
				fmt.Fprintf(c.out, "Unknown option %q\n", input)
			}
		}
	}
}

func (c *cli) printResult(r *service.StudyResult) {
	fmt.Fprintf(c.out, "\nSession complete: %s\n", r.DeckName)
	fmt.Fprintf(c.out, "  Cards studied: %d of %d\n", r.CardsStudied, r.TotalCards)
	fmt.Fprintf(c.out, "  Correct:       %d\n", r.CardsCorrect)
	fmt.Fprintf(c.out, "  Accuracy:      %.1f%% (%s)\n", r.Accuracy, models.AccuracyBucket(r.Accuracy))
	fmt.Fprintf(c.out, "  Duration:      %s\n", formatDuration(r.Session))
}
