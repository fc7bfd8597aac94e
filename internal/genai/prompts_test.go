package genai

import (
	"strings"
	"testing"

	"github.com/shanle1117/workshop2-sub001/internal/conversation"
)

func TestAnswerPrompt(t *testing.T) {
	t.Parallel()
	snippets := []ContextSnippet{
		{Question: "What courses are offered?", Answer: "AI, databases, and networks."},
		{Question: "When does registration open?", Answer: "August 1st."},
	}
	history := []conversation.Exchange{
		{User: "hello", Bot: "Hi, how can I help?"},
	}

	prompt := AnswerPrompt("when can I register", snippets, history)

	for _, want := range []string{
		"What courses are offered?",
		"August 1st.",
		"User: hello",
		"Assistant: Hi, how can I help?",
		"Question: when can I register",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("AnswerPrompt() missing %q in:\n%s", want, prompt)
		}
	}
}

func TestAnswerPromptEmptyContext(t *testing.T) {
	t.Parallel()
	prompt := AnswerPrompt("anything", nil, nil)
	if !strings.Contains(prompt, "(none)") {
		t.Errorf("AnswerPrompt() without snippets = %q, want placeholder", prompt)
	}
	if strings.Contains(prompt, "Recent conversation") {
		t.Error("AnswerPrompt() without history should omit the history section")
	}
}

func TestAnswerPromptCapsSnippetsAndHistory(t *testing.T) {
	t.Parallel()
	var snippets []ContextSnippet
	for i := range 10 {
		snippets = append(snippets, ContextSnippet{
			Question: "question " + string(rune('a'+i)),
			Answer:   "answer " + string(rune('a'+i)),
		})
	}
	var history []conversation.Exchange
	for i := range 10 {
		history = append(history, conversation.Exchange{
			User: "user " + string(rune('a'+i)),
			Bot:  "bot " + string(rune('a'+i)),
		})
	}

	prompt := AnswerPrompt("q", snippets, history)

	if strings.Contains(prompt, "question f") {
		t.Error("AnswerPrompt() should cap snippets at 5")
	}
	if !strings.Contains(prompt, "question e") {
		t.Error("AnswerPrompt() dropped a snippet under the cap")
	}
	// Most recent history turns are kept, oldest dropped.
	if strings.Contains(prompt, "user a") {
		t.Error("AnswerPrompt() should drop old history turns")
	}
	if !strings.Contains(prompt, "user j") {
		t.Error("AnswerPrompt() dropped the newest history turn")
	}
}
