package dialog

import (
	"context"
	"time"
)

// Mode selects which assistant persona handles a call. Set when the session
// is created and immutable for the call's lifetime.
type Mode string

const (
	ModeGeneral  Mode = "general"
	ModeHospital Mode = "hospital"
)

// ParseMode maps a config string to a Mode, defaulting to hospital.
func ParseMode(s string) Mode {
	if s == string(ModeGeneral) {
		return ModeGeneral
	}
	return ModeHospital
}

// State is the dialogue position within the hospital booking flow.
type State string

const (
	StateNew          State = "new"
	StateChooseDoctor State = "choose_doctor"
	StateCollectName  State = "collect_name"
	StateCollectPhone State = "collect_phone"
	StateCollectTime  State = "collect_time"
	StateConfirmed    State = "confirmed"
)

// Language is the caller's spoken-language preference. Sticky: once a
// detector hit sets Hindi, only an explicit English request reverts it.
type Language string

const (
	LangAuto    Language = "auto"
	LangEnglish Language = "en"
	LangHindi   Language = "hi"
)

// ParseLanguage maps a config string to a Language, defaulting to auto.
func ParseLanguage(s string) Language {
	switch s {
	case string(LangEnglish):
		return LangEnglish
	case string(LangHindi):
		return LangHindi
	default:
		return LangAuto
	}
}

// TTSTag returns the speech-synthesis language tag for the active language.
func (l Language) TTSTag() string {
	if l == LangHindi {
		return "hi-IN"
	}
	return "en-IN"
}

// Slots holds the structured data extracted from the conversation. Fields
// are populated incrementally and never cleared within a call.
type Slots struct {
	PatientName    string `json:"patient_name,omitempty"`
	Phone          string `json:"phone,omitempty"`
	DoctorName     string `json:"doctor_name,omitempty"`
	Department     string `json:"department,omitempty"`
	PreferredTime  string `json:"preferred_time,omitempty"`
	ConfirmationID string `json:"confirmation_id,omitempty"`
}

// MergeSlots applies patch over old additively: an empty incoming field never
// erases a populated one. A non-empty incoming value overwrites.
func MergeSlots(old, patch Slots) Slots {
	merged := old
	if patch.PatientName != "" {
		merged.PatientName = patch.PatientName
	}
	if patch.Phone != "" {
		merged.Phone = patch.Phone
	}
	if patch.DoctorName != "" {
		merged.DoctorName = patch.DoctorName
	}
	if patch.Department != "" {
		merged.Department = patch.Department
	}
	if patch.PreferredTime != "" {
		merged.PreferredTime = patch.PreferredTime
	}
	if patch.ConfirmationID != "" {
		merged.ConfirmationID = patch.ConfirmationID
	}
	return merged
}

// fillEmpty merges patch into old but only into currently-empty fields.
// Used for opportunistic capture, which must never overwrite known values.
func fillEmpty(old, patch Slots) Slots {
	merged := old
	if merged.PatientName == "" {
		merged.PatientName = patch.PatientName
	}
	if merged.Phone == "" {
		merged.Phone = patch.Phone
	}
	if merged.DoctorName == "" {
		merged.DoctorName = patch.DoctorName
	}
	if merged.Department == "" {
		merged.Department = patch.Department
	}
	if merged.PreferredTime == "" {
		merged.PreferredTime = patch.PreferredTime
	}
	return merged
}

// Session is the per-call mutable dialogue state.
type Session struct {
	CallID   string   `json:"call_id"`
	Mode     Mode     `json:"mode"`
	State    State    `json:"state"`
	Language Language `json:"language"`
	Slots    Slots    `json:"slots"`
	// OfferedDoctors records the doctor IDs presented in StateChooseDoctor,
	// in spoken order, so a numeric reply can be resolved next turn.
	OfferedDoctors []string  `json:"offered_doctors,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TurnRequest is one dialogue engine invocation: the caller's transcribed
// utterance for one turn of a call.
type TurnRequest struct {
	CallID    string
	Utterance string
	From      string
	To        string
	Metadata  map[string]string
}

// TurnResult is what the transport speaks back to the caller.
type TurnResult struct {
	SpokenText string
	Language   Language
	Transfer   bool
	// TransferReason is set when Transfer is true: "human_request" or
	// "medical_advice".
	TransferReason string
	// Confirmed is true on the turn a booking reaches its confirmation.
	Confirmed bool
	// State is the dialogue state after this turn, for observability.
	State State
}

// Service is the boundary the transport adapter calls for every turn.
type Service interface {
	ProcessTurn(ctx context.Context, req TurnRequest) (*TurnResult, error)
}

// TranscriptEntry is one persisted turn of a call, for audit and display.
// Never read back by the dialogue engine.
type TranscriptEntry struct {
	Role      string    `json:"role"` // "user" or "assistant"
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}
