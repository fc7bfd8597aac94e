package conversation

import (
	"strings"

	"github.com/shanle1117/workshop2-sub001/internal/intent"
	"github.com/shanle1117/workshop2-sub001/internal/logger"
	"github.com/shanle1117/workshop2-sub001/internal/metrics"
)

// Response markers. The orchestrator checks prefixes against these to apply
// greeting/farewell precedence regardless of which layer produced the text.
const (
	ClosingMarker  = "Thank you for using the FAIX Chatbot!"
	GreetingMarker = "Hello! I'm the FAIX Chatbot"
)

const (
	repromptResponse = "Please type a question and I'll do my best to help."
	farewellResponse = ClosingMarker + " Have a great day."
	greetingResponse = GreetingMarker + ". I can help with course information, registration, schedules, staff contacts, facilities, and programs. What would you like to know?"
	fallbackResponse = "I'm not sure I understand. Could you rephrase, or ask about course info, registration, schedules, staff contacts, facilities, or programs?"
)

var (
	greetingWords   = []string{"hello", "hi", "hey"}
	greetingPhrases = []string{"good morning", "good afternoon", "good evening"}
)

// TopicHandler produces a follow-up response for a message on a standing
// topic.
type TopicHandler func(lowered string) string

// Manager is the conversational state machine. It owns every response that
// does not come from retrieval and keeps the per-session context current.
type Manager struct {
	logger       *logger.Logger
	metrics      *metrics.Metrics
	historyLimit int
	handlers     map[string]TopicHandler
}

// NewManager creates a Manager. historyLimit caps stored exchanges per
// session.
func NewManager(log *logger.Logger, m *metrics.Metrics, historyLimit int) *Manager {
	mgr := &Manager{
		logger:       log.WithModule("conversation"),
		metrics:      m,
		historyLimit: historyLimit,
	}
	mgr.handlers = map[string]TopicHandler{
		intent.Registration.Name(): handleRegistration,
		intent.StaffContact.Name(): handleStaffContact,
		intent.CourseInfo.Name():   handleCourseInfo,
		intent.Schedule.Name():     handleSchedule,
		intent.Facility.Name():     handleFacility,
		intent.ProgramInfo.Name():  handleProgramInfo,
	}
	return mgr
}

// RegisterHandler adds or replaces the follow-up handler for a topic. This is
// how custom intents get conversational coverage.
func (m *Manager) RegisterHandler(topic string, h TopicHandler) {
	m.handlers[topic] = h
}

// Process handles a message that retrieval did not answer. The order is
// fixed: empty re-prompt, farewell, greeting, standing-topic follow-up, then
// the generic fallback. Every branch except the empty re-prompt records the
// exchange.
func (m *Manager) Process(ctx *Context, message string) string {
	if strings.TrimSpace(message) == "" {
		// Nothing to remember: an empty turn leaves the context untouched.
		return repromptResponse
	}

	if intent.IsClosing(message) {
		ctx.Clear()
		m.metrics.RecordSessionClosure()
		m.logger.Debug("Session closed by farewell")
		return farewellResponse
	}

	lowered := strings.ToLower(message)

	if isGreeting(lowered) {
		ctx.CurrentTopic = "general"
		ctx.Record(message, greetingResponse, m.historyLimit)
		return greetingResponse
	}

	if handler, ok := m.handlers[ctx.CurrentTopic]; ok {
		response := handler(lowered)
		ctx.Record(message, response, m.historyLimit)
		return response
	}

	ctx.Record(message, fallbackResponse, m.historyLimit)
	return fallbackResponse
}

// Observe records a retrieval-produced exchange and moves the standing topic
// to the answered category.
func (m *Manager) Observe(ctx *Context, message, response, topic string) {
	if topic != "" {
		ctx.CurrentTopic = topic
	}
	ctx.Record(message, response, m.historyLimit)
}

// IsGreeting reports whether the message greets the bot. The orchestrator
// checks it before retrieval so a greeting wins over a factual answer.
func IsGreeting(message string) bool {
	return isGreeting(strings.ToLower(message))
}

// isGreeting matches greeting words as whole tokens; a substring check would
// fire on words like "this" or "higher".
func isGreeting(lowered string) bool {
	for _, phrase := range greetingPhrases {
		if strings.Contains(lowered, phrase) {
			return true
		}
	}
	for _, field := range strings.Fields(lowered) {
		token := strings.Trim(field, ".,!?;:")
		for _, w := range greetingWords {
			if token == w {
				return true
			}
		}
	}
	return false
}

func handleRegistration(lowered string) string {
	switch {
	case containsAny(lowered, "when", "date", "deadline"):
		return "Registration for the upcoming semester opens on August 1st and closes on August 15th."
	case containsAny(lowered, "how", "form", "process", "step"):
		return "To register, log in to the student portal, select your courses, and submit the registration form before the deadline."
	case containsAny(lowered, "requirement", "prerequisite"):
		return "Before registering, make sure you have cleared outstanding fees and meet the prerequisites for your chosen courses."
	default:
		return "Registration happens through the student portal each semester. You can ask me about dates, the process, or the requirements."
	}
}

func handleStaffContact(lowered string) string {
	switch {
	case strings.Contains(lowered, "email"):
		return "You can email the department office at office@faix.edu and staff members at firstname.lastname@faix.edu."
	case containsAny(lowered, "phone", "call", "number"):
		return "The department office phone number is +1 (555) 010-2368, available on weekdays from 9am to 5pm."
	case containsAny(lowered, "office", "location", "address", "visit"):
		return "The department office is in Building A, Room 201. Walk-in hours are weekdays from 10am to 4pm."
	default:
		return "I can share staff emails, phone numbers, or office locations. Which would you like?"
	}
}

func handleCourseInfo(_ string) string {
	return "Our courses cover AI, data science, and software engineering. Ask about a specific course for its schedule, credits, or prerequisites."
}

func handleSchedule(_ string) string {
	return "The academic calendar, exam dates, and semester deadlines are published on the department website. Ask me about a specific date and I'll check."
}

func handleFacility(_ string) string {
	return "The department facilities include computer labs, a library corner, and study rooms in Building A. Ask about any of them for opening hours."
}

func handleProgramInfo(_ string) string {
	return "We offer bachelor and master programs with specializations in AI and data science. Ask about admission, degree requirements, or thesis options."
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
