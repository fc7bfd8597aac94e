package conversation

import (
	"fmt"
	"strings"
	"testing"

	"github.com/shanle1117/workshop2-sub001/internal/logger"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	return NewManager(logger.New("debug"), nil, 10)
}

func TestProcessEmptyMessage(t *testing.T) {
	t.Parallel()
	m := newTestManager(t)
	ctx := NewContext()

	got := m.Process(ctx, "   ")
	if got != repromptResponse {
		t.Errorf("Process(blank) = %q, want re-prompt", got)
	}
	if len(ctx.History) != 0 {
		t.Errorf("blank message recorded history: %v", ctx.History)
	}
}

func TestProcessFarewellClearsContext(t *testing.T) {
	t.Parallel()
	m := newTestManager(t)
	ctx := NewContext()
	ctx.CurrentTopic = "registration"
	ctx.Record("when is registration", "August 1st", 10)

	got := m.Process(ctx, "thanks, bye")
	if !strings.HasPrefix(got, ClosingMarker) {
		t.Errorf("Process(farewell) = %q, want prefix %q", got, ClosingMarker)
	}
	if ctx.SessionActive {
		t.Error("SessionActive should be false after farewell")
	}
	if ctx.CurrentTopic != "" || len(ctx.History) != 0 {
		t.Errorf("context not cleared: topic=%q history=%v", ctx.CurrentTopic, ctx.History)
	}
}

func TestProcessGreeting(t *testing.T) {
	t.Parallel()
	m := newTestManager(t)
	ctx := NewContext()

	got := m.Process(ctx, "Hello there")
	if !strings.HasPrefix(got, GreetingMarker) {
		t.Errorf("Process(greeting) = %q, want prefix %q", got, GreetingMarker)
	}
	if ctx.CurrentTopic != "general" {
		t.Errorf("CurrentTopic = %q, want general", ctx.CurrentTopic)
	}
	if len(ctx.History) != 1 {
		t.Errorf("history length = %d, want 1", len(ctx.History))
	}
}

func TestProcessTopicFollowUps(t *testing.T) {
	t.Parallel()
	m := newTestManager(t)

	tests := []struct {
		name     string
		topic    string
		message  string
		wantPart string
	}{
		{
			name:     "registration when",
			topic:    "registration",
			message:  "when is the deadline",
			wantPart: "opens on August 1st",
		},
		{
			name:     "registration how",
			topic:    "registration",
			message:  "how do I do it",
			wantPart: "student portal",
		},
		{
			name:     "registration requirements",
			topic:    "registration",
			message:  "any prerequisite I should know",
			wantPart: "prerequisites",
		},
		{
			name:     "registration default",
			topic:    "registration",
			message:  "tell me more",
			wantPart: "dates, the process, or the requirements",
		},
		{
			name:     "staff email",
			topic:    "staff_contact",
			message:  "what is their email",
			wantPart: "office@faix.edu",
		},
		{
			name:     "staff phone",
			topic:    "staff_contact",
			message:  "can I call someone",
			wantPart: "phone number",
		},
		{
			name:     "staff office",
			topic:    "staff_contact",
			message:  "where can I visit",
			wantPart: "Building A",
		},
		{
			name:     "course follow-up",
			topic:    "course_info",
			message:  "tell me more",
			wantPart: "courses cover",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctx := NewContext()
			ctx.CurrentTopic = tt.topic

			got := m.Process(ctx, tt.message)
			if !strings.Contains(got, tt.wantPart) {
				t.Errorf("Process(%q, topic=%q) = %q, want containing %q", tt.message, tt.topic, got, tt.wantPart)
			}
			if len(ctx.History) != 1 {
				t.Errorf("history length = %d, want 1", len(ctx.History))
			}
		})
	}
}

func TestProcessFallback(t *testing.T) {
	t.Parallel()
	m := newTestManager(t)
	ctx := NewContext()

	got := m.Process(ctx, "qwertyuiop")
	if got != fallbackResponse {
		t.Errorf("Process(unknown) = %q, want fallback", got)
	}
}

func TestProcessHistoryCap(t *testing.T) {
	t.Parallel()
	m := NewManager(logger.New("debug"), nil, 10)
	ctx := NewContext()
	ctx.CurrentTopic = "course_info"

	for i := 0; i < 15; i++ {
		m.Process(ctx, fmt.Sprintf("question %d", i))
	}

	if len(ctx.History) != 10 {
		t.Fatalf("history length = %d, want 10", len(ctx.History))
	}
	// Oldest entries must have been dropped.
	if ctx.History[0].User != "question 5" {
		t.Errorf("oldest kept = %q, want %q", ctx.History[0].User, "question 5")
	}
	if ctx.LastQuestion != "question 14" {
		t.Errorf("LastQuestion = %q, want %q", ctx.LastQuestion, "question 14")
	}
}

func TestRegisterHandler(t *testing.T) {
	t.Parallel()
	m := newTestManager(t)
	var h TopicHandler = func(string) string {
		return "The cafeteria menu changes daily."
	}
	m.RegisterHandler("cafeteria", h)

	ctx := NewContext()
	ctx.CurrentTopic = "cafeteria"
	got := m.Process(ctx, "what is for lunch")
	if got != "The cafeteria menu changes daily." {
		t.Errorf("Process() with custom handler = %q", got)
	}
}

func TestObserve(t *testing.T) {
	t.Parallel()
	m := newTestManager(t)
	ctx := NewContext()

	m.Observe(ctx, "when is registration", "August 1st.", "registration")
	if ctx.CurrentTopic != "registration" {
		t.Errorf("CurrentTopic = %q, want registration", ctx.CurrentTopic)
	}
	if len(ctx.History) != 1 || ctx.History[0].Bot != "August 1st." {
		t.Errorf("history = %v", ctx.History)
	}

	// Empty topic keeps the standing one.
	m.Observe(ctx, "and the deadline", "August 15th.", "")
	if ctx.CurrentTopic != "registration" {
		t.Errorf("CurrentTopic after empty topic = %q, want registration", ctx.CurrentTopic)
	}
}

func TestContextMapRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := NewContext()
	ctx.CurrentTopic = "registration"
	ctx.Record("when is registration", "August 1st.", 10)
	ctx.Record("and the deadline", "August 15th.", 10)

	restored := FromMap(ctx.ToMap())
	if restored.CurrentTopic != ctx.CurrentTopic {
		t.Errorf("CurrentTopic = %q, want %q", restored.CurrentTopic, ctx.CurrentTopic)
	}
	if restored.LastQuestion != ctx.LastQuestion {
		t.Errorf("LastQuestion = %q, want %q", restored.LastQuestion, ctx.LastQuestion)
	}
	if restored.SessionActive != ctx.SessionActive {
		t.Errorf("SessionActive = %v, want %v", restored.SessionActive, ctx.SessionActive)
	}
	if len(restored.History) != 2 || restored.History[1].Bot != "August 15th." {
		t.Errorf("History = %v", restored.History)
	}
}

func TestFromMapTolerant(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		in   map[string]any
	}{
		{"nil map", nil},
		{"empty map", map[string]any{}},
		{"wrong types", map[string]any{
			"current_topic":  42,
			"history":        "not a list",
			"session_active": "yes",
		}},
		{"malformed history entries", map[string]any{
			"history": []any{"not a map", map[string]any{"user": 1, "bot": true}},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := FromMap(tt.in)
			if c == nil {
				t.Fatal("FromMap() returned nil")
			}
			if !c.SessionActive {
				t.Error("SessionActive should default to true")
			}
			if c.CurrentTopic != "" {
				t.Errorf("CurrentTopic = %q, want empty", c.CurrentTopic)
			}
		})
	}
}
