package extract

import (
	"context"
	"strings"
)

// Document is a pitch-material file handed to the extraction chain.
type Document struct {
	Path         string `json:"path"`
	Name         string `json:"name"`
	SizeBytes    int64  `json:"size_bytes"`
	PageCount    int    `json:"page_count,omitempty"`
	Encrypted    bool   `json:"encrypted,omitempty"`
	Recompressed bool   `json:"recompressed,omitempty"`
}

// Result is the text extracted by a single strategy.
type Result struct {
	Text      string `json:"text"`
	WordCount int    `json:"word_count"`
	Strategy  string `json:"strategy"`
}

// Strategy is one rung of the extraction fallback chain.
type Strategy interface {
	Name() string
	Extract(ctx context.Context, doc Document) (*Result, error)
}

// Attempt records one strategy's outcome for observability.
type Attempt struct {
	Strategy  string `json:"strategy"`
	WordCount int    `json:"word_count"`
	Accepted  bool   `json:"accepted"`
	Error     string `json:"error,omitempty"`
}

// ChainResult is the outcome of running the full chain on a document.
type ChainResult struct {
	Document Document         `json:"document"`
	Result   *Result          `json:"result,omitempty"`
	Attempts []Attempt        `json:"attempts"`
	Analysis *ContentAnalysis `json:"analysis,omitempty"`
}

// Static suggestions surfaced when every strategy fails.
var failureSuggestions = []string{
	"Check whether the PDF is password-protected and remove the password before uploading",
	"Scanned documents may lack an OCR text layer; re-export with OCR enabled",
	"Verify the file is a supported format (PDF); convert slides exported as images",
}

// AllFailedError is returned when no strategy produced acceptable text.
type AllFailedError struct {
	Attempts    []Attempt
	Suggestions []string
	last        error
}

func (e *AllFailedError) Error() string {
	var b strings.Builder
	b.WriteString("extract: all strategies failed")
	if e.last != nil {
		b.WriteString(": ")
		b.WriteString(e.last.Error())
	}
	return b.String()
}

// Unwrap exposes the last strategy error for errors.Is/As chains.
func (e *AllFailedError) Unwrap() error {
	return e.last
}

// countWords returns the number of whitespace-separated tokens.
func countWords(text string) int {
	return len(strings.Fields(text))
}
