package player

// Status describes the controller's player slot.
//
//	┌──────────┐   Init    ┌──────────┐
//	│  Absent  │ ─────────▶│  Active  │
//	└──────────┘           └──────────┘
//	     ▲                      │
//	     │ Deinit               │ engine failure
//	     │                      ▼
//	     │                ┌─────────────┐
//	     └────────────────│ Unavailable │
//	          Deinit      └─────────────┘
//
// Unavailable players refuse every command with ErrEngineUnavailable until
// the caller runs Deinit then Init.
type Status int

const (
	Absent Status = iota
	Active
	Unavailable
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case Absent:
		return "Absent"
	case Active:
		return "Active"
	case Unavailable:
		return "Unavailable"
	default:
		return "Unknown"
	}
}

// Exists reports whether a player occupies the slot.
func (s Status) Exists() bool {
	return s == Active || s == Unavailable
}
