package ebay

import (
	"feedback-notifier/lib/feedback"
	"feedback-notifier/lib/htmlutil"
	"feedback-notifier/lib/textutil"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antzucaro/matchr"
)

// DocumentExtractor walks the parsed document instead of matching the raw
// markup, so it tolerates changes in attribute order, whitespace and
// nesting that break the patterns.
type DocumentExtractor struct{}

func (DocumentExtractor) Overall(page *Page) (string, error) {
	doc, err := page.Document()
	if err != nil {
		return "", err
	}
	re := overallScoreRegex(page.Username)

	groups := re.FindStringSubmatch(htmlutil.VisibleText(doc.Find("body")))
	if len(groups) >= 2 {
		return groups[1], nil
	}

	var found string
	for _, attr := range overallScoreAttributes {
		doc.Find(fmt.Sprintf("[%s]", attr)).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			value := textutil.CollapseWhitespace(s.AttrOr(attr, ""))
			groups := re.FindStringSubmatch(value)
			if len(groups) < 2 {
				return true
			}
			found = groups[1]
			return false
		})
		if found != "" {
			return found, nil
		}
	}
	return "", ErrNotFound
}

func (DocumentExtractor) Rating(page *Page, field feedback.Field) (string, error) {
	if field == feedback.Overall {
		return "", fmt.Errorf("%s is not a rating", field)
	}
	doc, err := page.Document()
	if err != nil {
		return "", err
	}

	target := field.String()
	bestScore := 0.0
	bestValue := ""
	doc.Find(fmt.Sprintf("[%s]", ratingTitleAttribute)).Each(func(_ int, s *goquery.Selection) {
		title := textutil.NormalizeName(s.AttrOr(ratingTitleAttribute, ""))
		if title == "" {
			return
		}
		score := matchr.JaroWinkler(title, target, false)
		if score < ratingTitleSimilarity || score <= bestScore {
			return
		}
		value := strings.TrimSpace(s.Find(ratingNumberSelector).First().Text())
		if !ratingValueRegex.MatchString(value) {
			return
		}
		bestScore = score
		bestValue = value
	})

	if bestValue == "" {
		return "", ErrNotFound
	}
	return bestValue, nil
}
