package dialog

import (
	"strings"
	"unicode"
)

// Intent detection is deliberate keyword containment over the normalized
// utterance — no classifier. Each set is isolated so it can be tested and
// tuned on its own.

var humanKeywords = []string{
	"human", "agent", "representative", "receptionist", "operator",
	"real person", "speak to someone", "talk to someone", "speak with someone",
	"transfer", "customer care", "staff member",
	"kisi se baat", "baat karao", "baat karwa", "baat kara",
	"इंसान", "एजेंट", "बात कराओ", "बात करवा",
}

// medicalKeywords covers symptom and medication talk in English, Hindi and
// Hinglish. Anything here routes to a human — the assistant never gives
// medical advice.
var medicalKeywords = []string{
	"chest pain", "pain", "hurts", "symptom", "diagnos", "prescri",
	"medicine", "medication", "dosage", "dose", "side effect",
	"bleeding", "breathless", "dizzy", "vomit", "emergency", "unconscious",
	"dard", "davai", "dawai", "ilaj", "chakkar",
	"दर्द", "दवा", "इलाज", "खून", "चक्कर", "उल्टी",
}

// bookingKeywords includes common speech-to-text mangles of "appointment".
var bookingKeywords = []string{
	"appointment", "apointment", "appoinment", "appointmen", "upointment",
	"book", "booking", "schedule", "shedule",
	"checkup", "check up", "check-up", "consult",
	"dikhana", "milna hai", "dikhana hai",
	"अपॉइंटमेंट", "बुक", "मिलना", "दिखाना",
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

func normalizeUtterance(utterance string) string {
	return strings.Join(strings.Fields(strings.ToLower(utterance)), " ")
}

// WantsHuman reports whether the caller asked for a live agent.
func WantsHuman(utterance string) bool {
	return containsAny(normalizeUtterance(utterance), humanKeywords)
}

// LooksLikeMedicalAdvice reports whether the caller is describing symptoms
// or asking for treatment guidance.
func LooksLikeMedicalAdvice(utterance string) bool {
	return containsAny(normalizeUtterance(utterance), medicalKeywords)
}

// LooksLikeBookingIntent reports whether the caller wants to book an
// appointment.
func LooksLikeBookingIntent(utterance string) bool {
	return containsAny(normalizeUtterance(utterance), bookingKeywords)
}

var englishRequestKeywords = []string{"english", "अंग्रेजी", "angrezi"}
var hindiRequestKeywords = []string{"hindi", "हिंदी"}

// DetectLanguage returns the language preference expressed in the utterance,
// or LangAuto when it expresses none. An explicit English request wins over
// the Devanagari-script heuristic so "अंग्रेजी में बोलिए" switches to English.
func DetectLanguage(utterance string) Language {
	text := normalizeUtterance(utterance)
	if text == "" {
		return LangAuto
	}
	if containsAny(text, englishRequestKeywords) {
		return LangEnglish
	}
	if containsAny(text, hindiRequestKeywords) {
		return LangHindi
	}
	for _, r := range utterance {
		if unicode.Is(unicode.Devanagari, r) {
			return LangHindi
		}
	}
	return LangAuto
}
