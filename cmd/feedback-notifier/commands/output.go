package commands

import (
	"feedback-notifier/lib/feedback"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
)

func newTable(out io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(out)
	return t
}

func changedField(changes []feedback.Change, field feedback.Field) bool {
	for _, c := range changes {
		if c.Field == field {
			return true
		}
	}
	return false
}

func renderRecord(out io.Writer, title string, record feedback.Record) {
	t := newTable(out)
	t.SetTitle(title)
	t.AppendHeader(table.Row{"field", "score"})
	for _, f := range feedback.Fields {
		t.AppendRow(table.Row{f.String(), record.Get(f)})
	}
	t.Render()
}

func renderComparison(out io.Writer, title string, old, new feedback.Record, changes []feedback.Change) {
	t := newTable(out)
	t.SetTitle(title)
	t.AppendHeader(table.Row{"field", "old", "new", "changed"})
	for _, f := range feedback.Fields {
		changed := ""
		if changedField(changes, f) {
			changed = "yes"
		}
		t.AppendRow(table.Row{f.String(), old.Get(f), new.Get(f), changed})
	}
	t.Render()
}
