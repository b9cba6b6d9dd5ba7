// Package sentiment holds the polarity label rule and the classification
// contract consumed by the listening loop.
package sentiment

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
)

// Label is a three-way sentiment label, or the NoInput sentinel.
type Label string

const (
	Positive Label = "Positive"
	Negative Label = "Negative"
	Neutral  Label = "Neutral"

	// NoInput marks a classification request that carried no text.
	// It is never a valid record label.
	NoInput Label = "No input"
)

// Labels lists the recordable labels in display order.
var Labels = []Label{Positive, Negative, Neutral}

// ErrInvalidScore is returned when a classifier yields a non-numeric score.
var ErrInvalidScore = errors.New("invalid sentiment score")

// Valid reports whether l is one of Positive, Negative or Neutral.
func (l Label) Valid() bool {
	switch l {
	case Positive, Negative, Neutral:
		return true
	}
	return false
}

// LabelFor maps a polarity to its label. Exact zero is the only Neutral value.
func LabelFor(polarity float64) Label {
	switch {
	case polarity > 0:
		return Positive
	case polarity < 0:
		return Negative
	default:
		return Neutral
	}
}

// Score is the raw output of a Classifier. Label is advisory only.
type Score struct {
	Label        string
	Polarity     float64
	Subjectivity float64
}

// Classifier scores a piece of text.
type Classifier interface {
	Classify(ctx context.Context, text string) (Score, error)
}

// Classification is a score with its label re-derived from polarity.
type Classification struct {
	Label        Label
	Polarity     float64
	Subjectivity float64
}

// NoInputClassification is returned for blank text.
var NoInputClassification = Classification{Label: NoInput}

// IsNoInput reports whether c is the NoInput sentinel.
func (c Classification) IsNoInput() bool { return c.Label == NoInput }

// Classify runs c on text and normalizes the result. Blank text yields
// NoInputClassification without calling the classifier.
func Classify(ctx context.Context, c Classifier, text string) (Classification, error) {
	if strings.TrimSpace(text) == "" {
		return NoInputClassification, nil
	}

	score, err := c.Classify(ctx, text)
	if err != nil {
		return Classification{}, fmt.Errorf("classify: %w", err)
	}
	if math.IsNaN(score.Polarity) || math.IsNaN(score.Subjectivity) {
		return Classification{}, fmt.Errorf("classify: %w", ErrInvalidScore)
	}

	polarity := clamp(score.Polarity, -1, 1)
	return Classification{
		Label:        LabelFor(polarity),
		Polarity:     polarity,
		Subjectivity: clamp(score.Subjectivity, 0, 1),
	}, nil
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
