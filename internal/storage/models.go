package storage

// Session is a persisted conversation session. Context holds the serialized
// conversation state as JSON; the storage layer treats it as opaque.
type Session struct {
	ID        string
	Context   map[string]any
	UpdatedAt int64
}

// StaffMember is a cached staff directory entry.
type StaffMember struct {
	Name     string
	Title    string
	Email    string
	Phone    string
	Office   string
	CachedAt int64
}
