package snapshot

import (
	"feedback-notifier/lib/feedback"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var storedValue = regexp.MustCompile(`^[\d,]+$`)

func FuzzFormatParse(f *testing.F) {
	f.Add("12,345", "12,001", "30", "4")
	f.Add("0", "0", "0", "0")
	f.Add("1,000,000", ",", "007", "1")

	ts := time.Date(2024, time.February, 29, 23, 59, 59, 0, time.UTC)
	f.Fuzz(func(t *testing.T, overall, positive, neutral, negative string) {
		record := feedback.Record{
			Overall:  overall,
			Positive: positive,
			Neutral:  neutral,
			Negative: negative,
		}
		for _, field := range feedback.Fields {
			if !storedValue.MatchString(record.Get(field)) {
				t.Skip()
			}
		}

		parsed, errs, err := Parse(strings.NewReader(Format(record, ts)))
		require.NoError(t, err)
		require.Empty(t, errs)
		require.Equal(t, record, parsed)
	})
}

func FuzzParse(f *testing.F) {
	f.Add("2024-01-01 00:00:00\n\noverall: 1\npositive: 2\nneutral: 3\nnegative: 4")
	f.Add("")
	f.Add("\n\noverall:\npositive: x")

	f.Fuzz(func(t *testing.T, input string) {
		record, errs, err := Parse(strings.NewReader(input))
		if err != nil {
			return
		}
		require.LessOrEqual(t, len(errs), len(feedback.Fields))

		failed := map[feedback.Field]bool{}
		for _, e := range errs {
			failed[e.(*ParseError).Field] = true
		}
		for _, field := range feedback.Fields {
			value := record.Get(field)
			if failed[field] {
				require.Equal(t, feedback.MissingValue, value)
				continue
			}
			require.Regexp(t, storedValue, value)
		}
	})
}
