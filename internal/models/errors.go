package models

import "errors"

var (
	ErrDeckNotFound     = errors.New("deck not found")
	ErrCardNotFound     = errors.New("card not found")
	ErrSessionNotFound  = errors.New("study session not found")
	ErrEmptyDeck        = errors.New("deck has no cards to study")
	ErrNoCardsGenerated = errors.New("no flashcards were generated")
	ErrStudyFinished    = errors.New("study session already finished")
)
