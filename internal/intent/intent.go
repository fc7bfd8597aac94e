// Package intent classifies user messages into a closed set of topics using
// weighted keyword rules. Classification is deliberately cheap: it runs on
// every message before any retrieval work happens.
package intent

import (
	"fmt"

	apperrors "github.com/shanle1117/workshop2-sub001/internal/errors"
)

// Kind identifies a topic variant. The set is closed except for KindCustom,
// which carries its own name for dataset-defined topics.
type Kind int

const (
	// KindGeneral is the catch-all for messages no rule matched with enough
	// confidence. It routes to the conversation handlers instead of retrieval.
	KindGeneral Kind = iota
	KindCourseInfo
	KindRegistration
	KindSchedule
	KindStaffContact
	KindFacility
	KindProgramInfo
	KindCustom
)

// Intent is a tagged variant: a Kind plus, for KindCustom only, a name.
// The zero value is the general intent.
type Intent struct {
	kind Kind
	name string
}

// Built-in variants.
var (
	General      = Intent{kind: KindGeneral}
	CourseInfo   = Intent{kind: KindCourseInfo}
	Registration = Intent{kind: KindRegistration}
	Schedule     = Intent{kind: KindSchedule}
	StaffContact = Intent{kind: KindStaffContact}
	Facility     = Intent{kind: KindFacility}
	ProgramInfo  = Intent{kind: KindProgramInfo}
)

// Custom creates a dataset-defined intent with the given category name.
func Custom(name string) Intent {
	return Intent{kind: KindCustom, name: name}
}

// Kind returns the variant tag.
func (i Intent) Kind() Kind {
	return i.kind
}

// Name returns the canonical category name. For custom intents this is the
// registered name; for built-ins it matches the dataset category column.
func (i Intent) Name() string {
	switch i.kind {
	case KindCourseInfo:
		return "course_info"
	case KindRegistration:
		return "registration"
	case KindSchedule:
		return "academic_schedule"
	case KindStaffContact:
		return "staff_contact"
	case KindFacility:
		return "facility_info"
	case KindProgramInfo:
		return "program_info"
	case KindCustom:
		return i.name
	default:
		return "general_query"
	}
}

// IsGeneral reports whether this is the catch-all intent.
func (i Intent) IsGeneral() bool {
	return i.kind == KindGeneral
}

// String implements fmt.Stringer.
func (i Intent) String() string {
	return i.Name()
}

// Parse maps a canonical category name back to an Intent.
// Unrecognized names return an error wrapping ErrUnknownIntent; callers that
// accept dataset-defined categories should use Custom instead.
func Parse(name string) (Intent, error) {
	switch name {
	case "general_query", "":
		return General, nil
	case "course_info":
		return CourseInfo, nil
	case "registration":
		return Registration, nil
	case "academic_schedule":
		return Schedule, nil
	case "staff_contact":
		return StaffContact, nil
	case "facility_info":
		return Facility, nil
	case "program_info":
		return ProgramInfo, nil
	default:
		return General, fmt.Errorf("%w: %q", apperrors.ErrUnknownIntent, name)
	}
}
