package ebay

import (
	"feedback-notifier/lib/feedback"
	"fmt"
	"regexp"
)

// Everything that depends on the structure of eBay's profile markup lives
// in this file.

// %s is the regexp-quoted username
const overallScoreTemplate = `(?i)%s's feedback score is (\d+)`

// %s is the rating name (positive, neutral, negative)
const ratingScoreTemplate = `(?i)title="%s"><div class="score"><span class="gspr icf[npt]"></span><span class="num">([\d,]+)</span>`

// attributes that may carry the overall score phrase instead of visible text
var overallScoreAttributes = []string{"title", "aria-label"}

const ratingTitleAttribute = "title"
const ratingNumberSelector = "span.num"

// minimum Jaro-Winkler similarity between a title attribute and a rating
// name for the element to be considered that rating's block
const ratingTitleSimilarity = 0.9

var ratingValueRegex = regexp.MustCompile(`^[\d,]+$`)

func overallScoreRegex(username string) *regexp.Regexp {
	return regexp.MustCompile(fmt.Sprintf(overallScoreTemplate, regexp.QuoteMeta(username)))
}

func ratingScoreRegex(field feedback.Field) *regexp.Regexp {
	return regexp.MustCompile(fmt.Sprintf(ratingScoreTemplate, regexp.QuoteMeta(field.String())))
}
