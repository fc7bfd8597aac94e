package intent

import (
	"strings"
	"sync/atomic"

	"github.com/shanle1117/workshop2-sub001/internal/errors"
	"github.com/shanle1117/workshop2-sub001/internal/logger"
)

const (
	// scorePerKeyword is the raw score contributed by each matched keyword.
	scorePerKeyword = 2.0
	// maxScore caps the raw score; confidence is rawScore/maxScore clamped to 1.
	maxScore = 10.0
)

// Rule binds an intent to the keywords that trigger it. Keywords are matched
// as substrings against the lowercased raw message, so multi-word triggers
// like "class schedule" work without tokenization.
type Rule struct {
	Intent   Intent
	Keywords []string
}

// Config holds the ordered rule table and the confidence gate.
// Rule order is priority order: the first rule with any matching keyword wins,
// even when a later rule would match more of them.
type Config struct {
	Rules []Rule
	// Threshold is the minimum confidence for a match to count. Below it the
	// matcher reports the general intent.
	Threshold float64
}

// DefaultConfig returns the built-in rule table covering the department's
// standing topics. Greeting-style messages score under the threshold and fall
// through to the general intent on purpose.
func DefaultConfig() *Config {
	return &Config{
		Threshold: 0.2,
		Rules: []Rule{
			{
				Intent:   CourseInfo,
				Keywords: []string{"course", "courses", "class", "classes", "subject", "subjects", "curriculum", "syllabus", "credit", "credits", "lecture"},
			},
			{
				Intent:   Registration,
				Keywords: []string{"register", "registration", "enroll", "enrollment", "sign up", "add course", "drop course", "add/drop"},
			},
			{
				Intent:   Schedule,
				Keywords: []string{"schedule", "calendar", "semester", "exam", "exams", "midterm", "final", "holiday", "deadline", "timetable"},
			},
			{
				Intent:   StaffContact,
				Keywords: []string{"staff", "professor", "lecturer", "teacher", "faculty", "advisor", "contact", "email", "phone", "office hours"},
			},
			{
				Intent:   Facility,
				Keywords: []string{"facility", "facilities", "lab", "laboratory", "library", "room", "building", "equipment", "wifi", "printer"},
			},
			{
				Intent:   ProgramInfo,
				Keywords: []string{"program", "programs", "degree", "major", "minor", "bachelor", "master", "graduation", "thesis", "internship"},
			},
		},
	}
}

// Result is a classification outcome.
type Result struct {
	Intent     Intent
	Confidence float64
}

// Matcher classifies messages against a rule table. The table can be swapped
// at runtime with Reload; in-flight Match calls keep the snapshot they
// started with.
type Matcher struct {
	cfg atomic.Pointer[Config]
	log *logger.Logger
}

// NewMatcher creates a Matcher with the given config. A nil config falls back
// to DefaultConfig.
func NewMatcher(log *logger.Logger, cfg *Config) *Matcher {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	m := &Matcher{log: log.WithModule("intent")}
	m.cfg.Store(cfg)
	return m
}

// Reload atomically replaces the rule table. The config is validated before
// the swap; on error the previous table stays active.
func (m *Matcher) Reload(cfg *Config) error {
	if cfg == nil || len(cfg.Rules) == 0 {
		return errors.NewValidationError("rules", "rule table cannot be empty")
	}
	if cfg.Threshold < 0 || cfg.Threshold > 1 {
		return errors.NewValidationError("threshold", "must be in [0,1]")
	}
	m.cfg.Store(cfg)
	m.log.WithField("rules", len(cfg.Rules)).Info("Intent rule table reloaded")
	return nil
}

// Match walks the rule table in priority order and returns the first rule
// with any matching keyword; later rules are not consulted even when they
// would match more keywords. Scoring runs on the lowercased raw message, not
// the normalized form, so triggers containing punctuation (e.g. "add/drop")
// still fire.
//
// Each matched keyword adds a fixed score; confidence is the capped ratio
// against maxScore. When the winning confidence is under the threshold the
// general intent is returned with that same confidence, so callers can still
// observe how close the message came.
func (m *Matcher) Match(message string) Result {
	cfg := m.cfg.Load()
	lowered := strings.ToLower(message)

	match := Result{Intent: General}
	for _, rule := range cfg.Rules {
		score := 0.0
		for _, kw := range rule.Keywords {
			if strings.Contains(lowered, kw) {
				score += scorePerKeyword
			}
		}
		if score > 0 {
			match = Result{Intent: rule.Intent, Confidence: min(score/maxScore, 1.0)}
			break
		}
	}

	if match.Confidence < cfg.Threshold {
		return Result{Intent: General, Confidence: match.Confidence}
	}
	return match
}

// closingPhrases end a session regardless of any standing topic.
var closingPhrases = []string{"thank", "thanks", "bye", "goodbye", "see you", "quit", "exit"}

// IsClosing reports whether the message is a farewell. It is checked before
// intent matching so "thanks for the course info" still closes the session.
func IsClosing(message string) bool {
	lowered := strings.ToLower(message)
	for _, phrase := range closingPhrases {
		if strings.Contains(lowered, phrase) {
			return true
		}
	}
	return false
}
