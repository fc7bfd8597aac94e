package rag

import (
	"errors"
	"testing"

	apperrors "github.com/shanle1117/workshop2-sub001/internal/errors"
	"github.com/shanle1117/workshop2-sub001/internal/knowledge"
	"github.com/shanle1117/workshop2-sub001/internal/logger"
)

func newTestRetriever(t *testing.T) *Retriever {
	t.Helper()
	r, err := NewRetriever(logger.New("debug"), nil, testEntries())
	if err != nil {
		t.Fatalf("NewRetriever() error = %v", err)
	}
	return r
}

func TestRetrieveKeywordMatch(t *testing.T) {
	t.Parallel()
	r := newTestRetriever(t)

	entry, kind, err := r.Retrieve("registration", "when does registration open")
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if kind != MatchKeyword {
		t.Errorf("kind = %v, want %v", kind, MatchKeyword)
	}
	if entry.Answer != "Registration opens on August 1st." {
		t.Errorf("Answer = %q", entry.Answer)
	}
}

func TestRetrieveCategoryFilterCaseInsensitive(t *testing.T) {
	t.Parallel()
	r := newTestRetriever(t)

	entry, kind, err := r.Retrieve("REGISTRATION", "registration deadline please")
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if kind != MatchKeyword {
		t.Errorf("kind = %v, want %v", kind, MatchKeyword)
	}
	if entry.Category != "registration" {
		t.Errorf("Category = %q, want registration", entry.Category)
	}
}

func TestRetrieveKeywordTieBreaksFirstEntry(t *testing.T) {
	t.Parallel()
	entries := []knowledge.Entry{
		{Question: "q1", Answer: "first", Category: "course_info", Keywords: []string{"credits"}},
		{Question: "q2", Answer: "second", Category: "course_info", Keywords: []string{"credits"}},
	}
	r, err := NewRetriever(logger.New("debug"), nil, entries)
	if err != nil {
		t.Fatalf("NewRetriever() error = %v", err)
	}

	entry, _, err := r.Retrieve("course_info", "how many credits")
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if entry.Answer != "first" {
		t.Errorf("Answer = %q, want %q (earliest entry wins ties)", entry.Answer, "first")
	}
}

// The vector fallback searches the whole dataset, not just the requested
// category: a message routed to the wrong intent can still reach the right
// answer.
func TestRetrieveVectorFallbackIsGlobal(t *testing.T) {
	t.Parallel()
	r := newTestRetriever(t)

	// No keyword of the course_info entry appears in the message, but the
	// staff entry's question is a strong cosine match.
	entry, kind, err := r.Retrieve("course_info", "who is the department head")
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if kind != MatchVector {
		t.Errorf("kind = %v, want %v", kind, MatchVector)
	}
	if entry.Category != "staff_contact" {
		t.Errorf("Category = %q, want staff_contact (global fallback)", entry.Category)
	}
}

func TestRetrieveNoAnswer(t *testing.T) {
	t.Parallel()
	r := newTestRetriever(t)

	_, kind, err := r.Retrieve("course_info", "xylophone zebra")
	if !errors.Is(err, apperrors.ErrNoAnswer) {
		t.Errorf("error = %v, want ErrNoAnswer", err)
	}
	if kind != MatchNone {
		t.Errorf("kind = %v, want %v", kind, MatchNone)
	}
}

func TestRetrieveEmptyCategory(t *testing.T) {
	t.Parallel()
	r := newTestRetriever(t)

	_, kind, err := r.Retrieve("", "when does registration open")
	if !errors.Is(err, apperrors.ErrNoAnswer) {
		t.Errorf("error = %v, want ErrNoAnswer", err)
	}
	if kind != MatchNone {
		t.Errorf("kind = %v, want %v", kind, MatchNone)
	}
}

// A category with no entries is a miss outright: the vector fallback only
// runs when a populated category produced zero keyword score.
func TestRetrieveUnknownCategorySkipsFallback(t *testing.T) {
	t.Parallel()
	entries := []knowledge.Entry{
		{
			Question: "When does registration open?",
			Answer:   "Registration opens on August 1st.",
			Category: "registration",
			Keywords: []string{"registration", "open", "deadline"},
		},
	}
	r, err := NewRetriever(logger.New("debug"), nil, entries)
	if err != nil {
		t.Fatalf("NewRetriever() error = %v", err)
	}

	_, kind, err := r.Retrieve("facility_info", "when does registration open")
	if !errors.Is(err, apperrors.ErrNoAnswer) {
		t.Errorf("error = %v, want ErrNoAnswer", err)
	}
	if kind != MatchNone {
		t.Errorf("kind = %v, want %v", kind, MatchNone)
	}

	if got := r.GetAnswer("facility_info", "when does registration open"); got != ClarificationMessage {
		t.Errorf("GetAnswer() = %q, want clarification message", got)
	}
}

func TestGetAnswer(t *testing.T) {
	t.Parallel()
	r := newTestRetriever(t)

	if got := r.GetAnswer("registration", "registration deadline"); got != "Registration opens on August 1st." {
		t.Errorf("GetAnswer() = %q", got)
	}

	if got := r.GetAnswer("course_info", "xylophone zebra"); got != ClarificationMessage {
		t.Errorf("GetAnswer() = %q, want clarification message", got)
	}
}

func TestRetrieverReload(t *testing.T) {
	t.Parallel()
	r := newTestRetriever(t)

	next := []knowledge.Entry{
		{Question: "Where is the cafeteria?", Answer: "Ground floor.", Category: "facility_info", Keywords: []string{"cafeteria", "food"}},
	}
	if err := r.Reload(next); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if r.Count() != 1 {
		t.Errorf("Count() = %d, want 1", r.Count())
	}

	if got := r.GetAnswer("facility_info", "where can I get food"); got != "Ground floor." {
		t.Errorf("GetAnswer() after reload = %q", got)
	}

	// Empty reload must fail and keep the current dataset.
	if err := r.Reload(nil); err == nil {
		t.Error("Reload(nil) should fail")
	}
	if r.Count() != 1 {
		t.Errorf("Count() after failed reload = %d, want 1", r.Count())
	}
}
