package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"feedback-notifier/lib/telemetry"
)

// Setup initializes logging and telemetry for a package's tests.
func Setup(t testing.TB, name string) func() {
	return telemetry.SetupForTesting(t, fmt.Sprintf("test:%s", name))
}

// ProfileScores are the raw values rendered into a fake profile page, an
// empty value leaves the corresponding markup out.
type ProfileScores struct {
	Overall  string
	Positive string
	Neutral  string
	Negative string
}

var ratingIcons = map[string]string{
	"positive": "icfp",
	"neutral":  "icfn",
	"negative": "icft",
}

func ratingMarkup(out *strings.Builder, name, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(
		out,
		`<div class="fdbk-detail-list__tab"><a href="#" title="%s"><div class="score"><span class="gspr %s"></span><span class="num">%s</span></div><div class="txt">%s</div></a></div>`+"\n",
		name, ratingIcons[name], value, strings.ToUpper(name[:1])+name[1:],
	)
}

// ProfilePage renders markup shaped like an eBay user profile page.
func ProfilePage(username string, scores ProfileScores) string {
	var out strings.Builder
	out.WriteString("<!DOCTYPE html>\n<html><head><title>")
	out.WriteString(username)
	out.WriteString(" on eBay</title><script>var score = 0;</script></head><body>\n")
	out.WriteString(`<div class="mbg"><span class="mbg-nw">` + username + "</span></div>\n")
	if scores.Overall != "" {
		fmt.Fprintf(
			&out,
			`<span class="star"><a href="#" title="%s's feedback score is %s">%s</a></span>`+"\n",
			username, scores.Overall, scores.Overall,
		)
	}
	out.WriteString(`<div id="feedback_ratings">` + "\n")
	ratingMarkup(&out, "positive", scores.Positive)
	ratingMarkup(&out, "neutral", scores.Neutral)
	ratingMarkup(&out, "negative", scores.Negative)
	out.WriteString("</div>\n</body></html>\n")
	return out.String()
}

// ProfileServer serves `pages` keyed by username under /usr/, unknown
// usernames get a 404.
func ProfileServer(t testing.TB, pages map[string]string) *httptest.Server {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username := strings.TrimPrefix(r.URL.Path, "/usr/")
		page, ok := pages[username]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(page))
	}))
	t.Cleanup(server.Close)
	return server
}
