package ebay

import (
	"context"
	"feedback-notifier/lib/feedback"
	"fmt"
	"log/slog"
	"math/big"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/dustin/go-humanize"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Page is a downloaded profile page, the html is only parsed if an
// extractor asks for the document.
type Page struct {
	Username string
	Body     string

	doc    *goquery.Document
	docErr error
	parsed bool
}

func NewPage(username, body string) *Page {
	return &Page{Username: username, Body: body}
}

func (p *Page) Document() (*goquery.Document, error) {
	if !p.parsed {
		p.doc, p.docErr = goquery.NewDocumentFromReader(strings.NewReader(p.Body))
		p.parsed = true
	}
	return p.doc, p.docErr
}

// Extractor reads the raw value of each feedback field from a page, it
// returns ErrNotFound (or another error) when the field is absent.
type Extractor interface {
	// Overall returns the digits of the overall feedback score.
	Overall(page *Page) (string, error)
	// Rating returns the digits and commas of a positive, neutral or
	// negative rating count.
	Rating(page *Page, field feedback.Field) (string, error)
}

func ExtractorByName(name string) (Extractor, error) {
	switch name {
	case "", "regex":
		return NewPatternExtractor(), nil
	case "dom":
		return DocumentExtractor{}, nil
	}
	return nil, fmt.Errorf("unknown extractor %q, expected regex or dom", name)
}

// formatOverall parses the captured overall score and renders it with
// thousands separators. Scores of any size are accepted.
func formatOverall(raw string) (string, error) {
	n, ok := new(big.Int).SetString(strings.ReplaceAll(raw, ",", ""), 10)
	if !ok {
		return "", fmt.Errorf("invalid score %q", raw)
	}
	if n.Sign() < 0 {
		return "", fmt.Errorf("negative score %s", n)
	}
	return humanize.BigComma(n), nil
}

// Extract attempts every field regardless of earlier failures. A field that
// could not be extracted keeps feedback.MissingValue and adds an
// *ExtractionError to the returned list.
func Extract(ctx context.Context, ex Extractor, page *Page) (feedback.Record, []error) {
	ctx, span := tracer.Start(ctx, "Extract")
	defer span.End()

	record := feedback.NewRecord()
	var errs []error

	raw, err := ex.Overall(page)
	if err == nil {
		raw, err = formatOverall(raw)
	}
	if err != nil {
		errs = append(errs, &ExtractionError{Field: feedback.Overall, Err: err})
	} else {
		record.Overall = raw
		slog.InfoContext(ctx, "new score", "field", feedback.Overall.String(), "value", raw)
	}

	for _, field := range feedback.Ratings {
		value, err := ex.Rating(page, field)
		if err != nil {
			errs = append(errs, &ExtractionError{Field: field, Err: err})
			continue
		}
		record.Set(field, value)
		slog.InfoContext(ctx, "new score", "field", field.String(), "value", value)
	}

	span.SetAttributes(attribute.Int("errors", len(errs)))
	if len(errs) > 0 {
		span.SetStatus(codes.Error, "some fields could not be extracted")
	}
	return record, errs
}

// PatternExtractor matches regular expressions against the raw markup.
type PatternExtractor struct {
	ratings map[feedback.Field]*regexp.Regexp
}

func NewPatternExtractor() PatternExtractor {
	ratings := map[feedback.Field]*regexp.Regexp{}
	for _, field := range feedback.Ratings {
		ratings[field] = ratingScoreRegex(field)
	}
	return PatternExtractor{ratings: ratings}
}

func (e PatternExtractor) Overall(page *Page) (string, error) {
	groups := overallScoreRegex(page.Username).FindStringSubmatch(page.Body)
	if len(groups) < 2 {
		return "", ErrNotFound
	}
	return groups[1], nil
}

func (e PatternExtractor) Rating(page *Page, field feedback.Field) (string, error) {
	re, ok := e.ratings[field]
	if !ok {
		return "", fmt.Errorf("%s is not a rating", field)
	}
	groups := re.FindStringSubmatch(page.Body)
	if len(groups) < 2 {
		return "", ErrNotFound
	}
	return groups[1], nil
}
