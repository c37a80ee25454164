package report

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moviegraph/reconcile/pkg/classify"
	"github.com/moviegraph/reconcile/pkg/entity"
	"github.com/moviegraph/reconcile/pkg/errors"
	"github.com/moviegraph/reconcile/pkg/match"
)

func testCandidate(score int) *match.Candidate {
	return &match.Candidate{
		A:     &entity.Entity{ID: "m1", Name: "Sholay"},
		B:     &entity.Entity{ID: "m2", Name: "Sholey"},
		Score: score,
	}
}

func TestAddRoutesByStatus(t *testing.T) {
	r := New(1)

	auto := r.Add(testCandidate(100), classify.Result{Verdict: classify.Identical, Confidence: 100}, true)
	review := r.Add(testCandidate(80), classify.Result{Verdict: classify.Ambiguous, Confidence: 60}, false)
	none := r.Add(testCandidate(30), classify.Result{Verdict: classify.Distinct, Confidence: 70}, false)

	assert.Equal(t, StatusAutoApply, auto.Status)
	assert.Equal(t, StatusNeedsReview, review.Status)
	assert.Equal(t, StatusNoAction, none.Status)

	assert.Len(t, r.AutoApply(), 1)
	assert.Len(t, r.NeedsReview(), 1)

	s := r.Summary()
	assert.Equal(t, 3, s.Total)
	assert.Equal(t, 1, s.AutoApply)
	assert.Equal(t, 1, s.NeedsReview)
	assert.Equal(t, 1, s.NoAction)
	assert.Equal(t, 1, s.ByVerdict[string(classify.Identical)])
}

func TestEntryIDsUnique(t *testing.T) {
	r := New(1)
	a := r.Add(testCandidate(90), classify.Result{Verdict: classify.SameEntity}, true)
	b := r.Add(testCandidate(90), classify.Result{Verdict: classify.SameEntity}, true)

	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestApproveReject(t *testing.T) {
	r := New(1)
	e := r.Add(testCandidate(80), classify.Result{Verdict: classify.Ambiguous, Confidence: 60}, false)

	require.NoError(t, r.Approve(e.ID))
	got, ok := r.Entry(e.ID)
	require.True(t, ok)
	assert.Equal(t, ApprovalApproved, got.Approval)
	assert.True(t, got.Mergeable())

	require.NoError(t, r.Reject(e.ID))
	got, _ = r.Entry(e.ID)
	assert.Equal(t, ApprovalRejected, got.Approval)
	assert.False(t, got.Mergeable())
}

func TestApproveOnlyNeedsReview(t *testing.T) {
	r := New(1)
	auto := r.Add(testCandidate(100), classify.Result{Verdict: classify.Identical, Confidence: 100}, true)
	none := r.Add(testCandidate(30), classify.Result{Verdict: classify.Distinct, Confidence: 70}, false)

	assert.True(t, errors.IsValidationError(r.Approve(auto.ID)))
	assert.True(t, errors.IsValidationError(r.Approve(none.ID)))
	assert.True(t, errors.IsNotFound(r.Approve("missing")))
}

func TestEntryPrefixHandles(t *testing.T) {
	r := New(1)
	e := r.Add(testCandidate(80), classify.Result{Verdict: classify.Ambiguous, Confidence: 60}, false)

	got, ok := r.Entry(e.ID[:8])
	require.True(t, ok, "a unique ID prefix must resolve")
	assert.Equal(t, e.ID, got.ID)

	_, ok = r.Entry("")
	assert.False(t, ok)

	// An ambiguous prefix resolves nothing rather than guessing.
	amb := &Report{Entries: []Entry{
		{ID: "abc123-first", Status: StatusNeedsReview},
		{ID: "abc123-second", Status: StatusNeedsReview},
	}}
	_, ok = amb.Entry("abc123")
	assert.False(t, ok)
	got, ok = amb.Entry("abc123-f")
	require.True(t, ok)
	assert.Equal(t, "abc123-first", got.ID)
}

func TestApproveByDisplayedHandle(t *testing.T) {
	// The review table truncates entry IDs; the truncated form is the handle
	// a reviewer types back, so it must be approvable.
	r := New(1)
	e := r.Add(testCandidate(80), classify.Result{Verdict: classify.Ambiguous, Confidence: 60}, false)
	r.Add(testCandidate(85), classify.Result{Verdict: classify.Ambiguous, Confidence: 60}, false)

	handle := shortID(e.ID)
	require.NoError(t, r.Approve(handle))

	got, ok := r.Entry(e.ID)
	require.True(t, ok)
	assert.Equal(t, ApprovalApproved, got.Approval)
}

func TestMergeable(t *testing.T) {
	assert.True(t, (&Entry{Status: StatusAutoApply}).Mergeable())
	assert.True(t, (&Entry{Status: StatusNeedsReview, Approval: ApprovalApproved}).Mergeable())
	assert.False(t, (&Entry{Status: StatusNeedsReview}).Mergeable())
	assert.False(t, (&Entry{Status: StatusNeedsReview, Approval: ApprovalRejected}).Mergeable())
	assert.False(t, (&Entry{Status: StatusNoAction}).Mergeable())
}

func TestReviewExport(t *testing.T) {
	r := New(1)
	d := 2
	cand := testCandidate(80)
	cand.Delta = &d
	cand.SharedIdentifier = true
	r.Add(cand, classify.Result{Verdict: classify.Ambiguous, Confidence: 60, Reason: "uncertain"}, false)
	r.Add(testCandidate(100), classify.Result{Verdict: classify.Identical, Confidence: 100}, true)

	items := r.ReviewExport()
	require.Len(t, items, 1)
	assert.Equal(t, "m1", items[0].EntityA)
	assert.Equal(t, "ambiguous", items[0].Verdict)
	assert.Equal(t, 2, *items[0].Delta)
	assert.True(t, items[0].SharedID)
}

func TestYAMLRoundTrip(t *testing.T) {
	r := New(2)
	e := r.Add(testCandidate(80), classify.Result{Verdict: classify.Ambiguous, Confidence: 60, Reason: "uncertain"}, false)
	require.NoError(t, r.Approve(e.ID))

	var buf bytes.Buffer
	require.NoError(t, r.WriteYAML(&buf))

	got, err := ReadYAML(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 2, got.Window)
	require.Len(t, got.Entries, 1)
	assert.Equal(t, e.ID, got.Entries[0].ID)
	assert.Equal(t, ApprovalApproved, got.Entries[0].Approval)
	assert.Equal(t, classify.Ambiguous, got.Entries[0].Result.Verdict)
	assert.Equal(t, "m2", got.Entries[0].Candidate.B.ID)
}

func TestRenderDoesNotPanic(t *testing.T) {
	r := New(1)
	r.Add(testCandidate(80), classify.Result{Verdict: classify.Ambiguous, Confidence: 60, Reason: "uncertain"}, false)

	var buf bytes.Buffer
	r.Render(&buf)
	assert.NotEmpty(t, buf.String())

	buf.Reset()
	r.RenderReview(&buf)
	assert.NotEmpty(t, buf.String())
}
