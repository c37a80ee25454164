package report

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Render writes the report as a terminal table, one row per classified pair.
func (r *Report) Render(w io.Writer) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Entry", "Entity A", "Entity B", "Score", "Delta", "Verdict", "Conf", "Status", "Reason"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Score", Align: text.AlignRight},
		{Name: "Conf", Align: text.AlignRight},
		{Name: "Reason", WidthMax: 48},
	})

	for _, e := range r.Entries {
		delta := "-"
		if d, ok := e.Candidate.TemporalDelta(); ok {
			delta = fmt.Sprintf("%d", d)
		}
		t.AppendRow(table.Row{
			shortID(e.ID),
			label(e.Candidate.A.ID, e.Candidate.A.Name),
			label(e.Candidate.B.ID, e.Candidate.B.Name),
			e.Candidate.Score,
			delta,
			e.Result.Verdict,
			e.Result.Confidence,
			e.Status,
			e.Result.Reason,
		})
	}

	s := r.Summary()
	t.AppendFooter(table.Row{"", "", "", "", "", "", "",
		fmt.Sprintf("auto %d", s.AutoApply),
		fmt.Sprintf("review %d / none %d", s.NeedsReview, s.NoAction)})
	t.SetStyle(table.StyleLight)
	t.Render()
}

// RenderReview writes only the needs-review entries, the view a reviewer
// works through.
func (r *Report) RenderReview(w io.Writer) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Entry", "Entity A", "Entity B", "Verdict", "Conf", "Reason", "Decision"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Reason", WidthMax: 48},
	})

	for _, e := range r.NeedsReview() {
		decision := "pending"
		if e.Approval != ApprovalPending {
			decision = string(e.Approval)
		}
		t.AppendRow(table.Row{
			shortID(e.ID),
			label(e.Candidate.A.ID, e.Candidate.A.Name),
			label(e.Candidate.B.ID, e.Candidate.B.Name),
			e.Result.Verdict,
			e.Result.Confidence,
			e.Result.Reason,
			decision,
		})
	}
	t.SetStyle(table.StyleLight)
	t.Render()
}

func label(id, name string) string {
	if name == "" {
		return id
	}
	if id == "" {
		return name
	}
	return fmt.Sprintf("%s (%s)", name, id)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
