// Package report holds the audit trail of a reconciliation run: every
// classified pair with its verdict, evidence, and confidence, partitioned
// into entries safe to apply automatically and entries that need a human.
// A report is created fresh per run and superseded by the next; the entities
// themselves remain the store of truth.
package report

import (
	"io"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/google/uuid"

	"github.com/moviegraph/reconcile/pkg/classify"
	"github.com/moviegraph/reconcile/pkg/errors"
	"github.com/moviegraph/reconcile/pkg/match"
)

// Status routes an entry through the merge workflow.
type Status string

// Entry statuses.
const (
	// StatusAutoApply marks entries confident enough to merge unattended.
	StatusAutoApply Status = "auto_apply"
	// StatusNeedsReview marks entries awaiting an explicit human decision.
	StatusNeedsReview Status = "needs_review"
	// StatusNoAction marks Distinct entries; recorded for the audit trail
	// but never merged.
	StatusNoAction Status = "no_action"
)

// Approval is the external decision on a needs-review entry.
type Approval string

// Approval states.
const (
	ApprovalPending  Approval = ""
	ApprovalApproved Approval = "approved"
	ApprovalRejected Approval = "rejected"
)

// Entry is one classified pair.
type Entry struct {
	ID        string          `json:"id" yaml:"id"`
	Candidate *match.Candidate `json:"candidate" yaml:"candidate"`
	Result    classify.Result `json:"result" yaml:"result"`
	Status    Status          `json:"status" yaml:"status"`
	Approval  Approval        `json:"approval,omitempty" yaml:"approval,omitempty"`
}

// Mergeable reports whether the executor may act on this entry: either
// auto-apply, or needs-review with an explicit approval.
func (e *Entry) Mergeable() bool {
	if e.Status == StatusAutoApply {
		return true
	}
	return e.Status == StatusNeedsReview && e.Approval == ApprovalApproved
}

// Summary aggregates the counts of a report.
type Summary struct {
	Total       int            `json:"total" yaml:"total"`
	AutoApply   int            `json:"auto_apply" yaml:"auto_apply"`
	NeedsReview int            `json:"needs_review" yaml:"needs_review"`
	NoAction    int            `json:"no_action" yaml:"no_action"`
	ByVerdict   map[string]int `json:"by_verdict" yaml:"by_verdict"`
}

// Report is the ordered audit trail of one reconciliation run.
type Report struct {
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	Window    int       `json:"window" yaml:"window"`
	Entries   []Entry   `json:"entries" yaml:"entries"`
}

// New creates an empty report stamped with the current time.
func New(window int) *Report {
	return &Report{CreatedAt: time.Now().UTC(), Window: window}
}

// Add appends a classified pair, assigning it a stable entry ID.
func (r *Report) Add(cand *match.Candidate, result classify.Result, autoApply bool) *Entry {
	status := StatusNeedsReview
	switch {
	case autoApply:
		status = StatusAutoApply
	case result.Verdict == classify.Distinct:
		status = StatusNoAction
	}
	r.Entries = append(r.Entries, Entry{
		ID:        uuid.NewString(),
		Candidate: cand,
		Result:    result,
		Status:    status,
	})
	return &r.Entries[len(r.Entries)-1]
}

// Entry returns the entry with the given ID. A prefix of an ID works as a
// handle too, as long as it names exactly one entry; the rendered tables
// show truncated IDs and those must resolve.
func (r *Report) Entry(id string) (*Entry, bool) {
	if id == "" {
		return nil, false
	}
	var found *Entry
	for i := range r.Entries {
		if r.Entries[i].ID == id {
			return &r.Entries[i], true
		}
		if strings.HasPrefix(r.Entries[i].ID, id) {
			if found != nil {
				// Ambiguous handle.
				return nil, false
			}
			found = &r.Entries[i]
		}
	}
	return found, found != nil
}

// AutoApply returns the entries eligible for unattended merging.
func (r *Report) AutoApply() []Entry {
	return r.filter(StatusAutoApply)
}

// NeedsReview returns the entries awaiting a human decision.
func (r *Report) NeedsReview() []Entry {
	return r.filter(StatusNeedsReview)
}

func (r *Report) filter(status Status) []Entry {
	var out []Entry
	for _, e := range r.Entries {
		if e.Status == status {
			out = append(out, e)
		}
	}
	return out
}

// Approve records an external approval on a needs-review entry. The ID may
// be an unambiguous prefix.
func (r *Report) Approve(id string) error {
	return r.setApproval(id, ApprovalApproved)
}

// Reject records an external rejection on a needs-review entry. The ID may
// be an unambiguous prefix.
func (r *Report) Reject(id string) error {
	return r.setApproval(id, ApprovalRejected)
}

func (r *Report) setApproval(id string, a Approval) error {
	entry, ok := r.Entry(id)
	if !ok {
		return errors.NewNotFoundError("report entry", id)
	}
	if entry.Status != StatusNeedsReview {
		return errors.NewValidationError("status", entry.Status,
			"only needs-review entries take an approval decision")
	}
	entry.Approval = a
	return nil
}

// Summary computes the aggregate counts.
func (r *Report) Summary() Summary {
	s := Summary{ByVerdict: make(map[string]int)}
	for _, e := range r.Entries {
		s.Total++
		s.ByVerdict[string(e.Result.Verdict)]++
		switch e.Status {
		case StatusAutoApply:
			s.AutoApply++
		case StatusNeedsReview:
			s.NeedsReview++
		case StatusNoAction:
			s.NoAction++
		}
	}
	return s
}

// ReviewItem is the flat export shape for any human review surface: a CLI
// report, a spreadsheet, or a review UI.
type ReviewItem struct {
	EntryID    string `json:"entry_id" yaml:"entry_id"`
	EntityA    string `json:"entity_a" yaml:"entity_a"`
	EntityB    string `json:"entity_b" yaml:"entity_b"`
	NameA      string `json:"name_a" yaml:"name_a"`
	NameB      string `json:"name_b" yaml:"name_b"`
	Verdict    string `json:"verdict" yaml:"verdict"`
	Confidence int    `json:"confidence" yaml:"confidence"`
	Reason     string `json:"reason" yaml:"reason"`
	Score      int    `json:"score" yaml:"score"`
	Delta      *int   `json:"temporal_delta,omitempty" yaml:"temporal_delta,omitempty"`
	SharedID   bool   `json:"shared_identifier" yaml:"shared_identifier"`
}

// ReviewExport returns the needs-review entries in flat form.
func (r *Report) ReviewExport() []ReviewItem {
	var items []ReviewItem
	for _, e := range r.NeedsReview() {
		items = append(items, ReviewItem{
			EntryID:    e.ID,
			EntityA:    e.Candidate.A.ID,
			EntityB:    e.Candidate.B.ID,
			NameA:      e.Candidate.A.Name,
			NameB:      e.Candidate.B.Name,
			Verdict:    string(e.Result.Verdict),
			Confidence: e.Result.Confidence,
			Reason:     e.Result.Reason,
			Score:      e.Candidate.Score,
			Delta:      e.Candidate.Delta,
			SharedID:   e.Candidate.SharedIdentifier,
		})
	}
	return items
}

// WriteYAML serializes the full report.
func (r *Report) WriteYAML(w io.Writer) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return errors.WrapParse("yaml", "report", err)
	}
	_, err = w.Write(data)
	return err
}

// ReadYAML deserializes a report written by WriteYAML.
func ReadYAML(data []byte) (*Report, error) {
	var r Report
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, errors.WrapParse("yaml", "report", err)
	}
	return &r, nil
}
