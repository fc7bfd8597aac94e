// Package conversation tracks per-session dialogue state and handles the
// messages that never reach retrieval: greetings, farewells, follow-ups on a
// standing topic, and everything the classifier could not place.
package conversation

// Exchange is one user/bot turn.
type Exchange struct {
	User string `json:"user"`
	Bot  string `json:"bot"`
}

// Context is the dialogue state carried across turns of a session. It
// round-trips through a plain map so the transport layer can persist it as
// JSON without knowing its shape.
type Context struct {
	CurrentTopic  string
	LastQuestion  string
	History       []Exchange
	SessionActive bool
}

// NewContext returns a fresh context for a new session.
func NewContext() *Context {
	return &Context{SessionActive: true}
}

// Clear resets the context to its initial closed state. History is dropped.
func (c *Context) Clear() {
	c.CurrentTopic = ""
	c.LastQuestion = ""
	c.History = nil
	c.SessionActive = false
}

// Record appends an exchange and updates the last question, trimming history
// to the given limit (oldest first).
func (c *Context) Record(user, bot string, limit int) {
	c.LastQuestion = user
	c.History = append(c.History, Exchange{User: user, Bot: bot})
	if limit > 0 && len(c.History) > limit {
		c.History = c.History[len(c.History)-limit:]
	}
}

// ToMap serializes the context for session storage.
func (c *Context) ToMap() map[string]any {
	history := make([]any, 0, len(c.History))
	for _, ex := range c.History {
		history = append(history, map[string]any{"user": ex.User, "bot": ex.Bot})
	}
	return map[string]any{
		"current_topic":  c.CurrentTopic,
		"last_question":  c.LastQuestion,
		"history":        history,
		"session_active": c.SessionActive,
	}
}

// FromMap restores a context from session storage. Unknown or malformed
// fields fall back to zero values rather than failing: a corrupted session
// degrades to a fresh conversation instead of an error.
func FromMap(m map[string]any) *Context {
	if m == nil {
		return NewContext()
	}

	c := &Context{}
	if v, ok := m["current_topic"].(string); ok {
		c.CurrentTopic = v
	}
	if v, ok := m["last_question"].(string); ok {
		c.LastQuestion = v
	}
	if v, ok := m["session_active"].(bool); ok {
		c.SessionActive = v
	} else {
		c.SessionActive = true
	}
	if rawHistory, ok := m["history"].([]any); ok {
		for _, raw := range rawHistory {
			entry, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			ex := Exchange{}
			if v, ok := entry["user"].(string); ok {
				ex.User = v
			}
			if v, ok := entry["bot"].(string); ok {
				ex.Bot = v
			}
			c.History = append(c.History, ex)
		}
	}
	return c
}
