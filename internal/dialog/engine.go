package dialog

import (
	"strings"

	"github.com/arogyaai/reception-platform/internal/directory"
)

// Engine is the hospital booking state machine. Turn is a total function: it
// always produces speakable text for any utterance and any reachable session
// state, and never returns an error.
type Engine struct {
	dir      *directory.Directory
	composer *Composer
}

// NewEngine creates the dialogue engine over a directory and composer.
func NewEngine(dir *directory.Directory, composer *Composer) *Engine {
	if composer == nil {
		composer = NewComposer()
	}
	return &Engine{dir: dir, composer: composer}
}

// Composer exposes the engine's prompt composer, for transports that need
// fixed prompts (no-speech, apology) outside a turn.
func (e *Engine) Composer() *Composer {
	return e.composer
}

// renderLang maps the session's sticky preference to a concrete rendering
// language. Auto renders English until a detector hit says otherwise.
func renderLang(sess *Session) Language {
	if sess.Language == LangHindi {
		return LangHindi
	}
	return LangEnglish
}

// Turn advances the session by one caller utterance and returns what to
// speak next.
//
// Order of evaluation is load-bearing: language detection, then escalation,
// then opportunistic capture, then state logic. Escalation wins over
// everything, including a bookable department in the same sentence.
func (e *Engine) Turn(sess *Session, utterance string) TurnResult {
	if lang := DetectLanguage(utterance); lang != LangAuto {
		sess.Language = lang
	}
	lang := renderLang(sess)

	if WantsHuman(utterance) {
		return TurnResult{
			SpokenText:     e.composer.Handoff(lang),
			Language:       lang,
			Transfer:       true,
			TransferReason: "human_request",
			State:          sess.State,
		}
	}
	if LooksLikeMedicalAdvice(utterance) {
		return TurnResult{
			SpokenText:     e.composer.Handoff(lang),
			Language:       lang,
			Transfer:       true,
			TransferReason: "medical_advice",
			State:          sess.State,
		}
	}

	// Opportunistic capture: callers volunteer data out of turn, and every
	// collection state later skips questions whose answer is already here.
	// Only empty slots are filled; a bad guess must never overwrite a known
	// value. Time needs a day or clock anchor here so a greeting cannot
	// pre-fill the slot.
	sess.Slots = fillEmpty(sess.Slots, Slots{
		PatientName:   ExtractPatientName(utterance, sess.State == StateCollectName),
		Phone:         ExtractPhone(utterance),
		PreferredTime: ExtractAnchoredTime(utterance),
	})

	switch sess.State {
	case StateNew:
		return e.turnNew(sess, utterance, lang)
	case StateChooseDoctor:
		return e.turnChooseDoctor(sess, utterance, lang)
	case StateCollectName:
		return e.turnCollectName(sess, lang)
	case StateCollectPhone:
		return e.turnCollectPhone(sess, lang)
	case StateCollectTime:
		return e.turnCollectTime(sess, utterance, lang)
	case StateConfirmed:
		return e.result(sess, lang, e.composer.ConfirmedFollowUp(sess.Slots, lang))
	default:
		// Unknown state in a stored session; recover instead of failing.
		sess.State = StateNew
		return e.turnNew(sess, utterance, lang)
	}
}

func (e *Engine) turnNew(sess *Session, utterance string, lang Language) TurnResult {
	if res, ok := e.resolveDoctorOrDepartment(sess, utterance, lang); ok {
		return res
	}
	if LooksLikeBookingIntent(utterance) {
		return e.result(sess, lang, e.composer.AskDepartment(lang))
	}
	return e.result(sess, lang, e.composer.GenericHelp(lang))
}

func (e *Engine) turnChooseDoctor(sess *Session, utterance string, lang Language) TurnResult {
	if n := parseOrdinalReply(utterance); n >= 1 && n <= len(sess.OfferedDoctors) {
		if doc, ok := e.dir.ByID(sess.OfferedDoctors[n-1]); ok {
			return e.doctorResolved(sess, doc, lang)
		}
	}
	if cands := looseDoctorMatch(utterance, e.dir); len(cands) == 1 {
		return e.doctorResolved(sess, cands[0], lang)
	}
	// The caller may answer with a different department instead of picking.
	if res, ok := e.resolveDoctorOrDepartment(sess, utterance, lang); ok {
		return res
	}
	return e.result(sess, lang, e.composer.ChooseDoctorReprompt(lang))
}

func (e *Engine) turnCollectName(sess *Session, lang Language) TurnResult {
	if sess.Slots.PatientName == "" {
		return e.result(sess, lang, e.composer.AskName(lang))
	}
	// Opportunistic capture (this turn or earlier) already has the name:
	// do not ask again, move to whatever is still missing.
	return e.collectNext(sess, lang, "")
}

func (e *Engine) turnCollectPhone(sess *Session, lang Language) TurnResult {
	if sess.Slots.Phone == "" {
		return e.result(sess, lang, e.composer.ReAskPhone(lang))
	}
	return e.collectNext(sess, lang, "")
}

func (e *Engine) turnCollectTime(sess *Session, utterance string, lang Language) TurnResult {
	trimmed := strings.TrimSpace(utterance)
	if trimmed == "" {
		return e.result(sess, lang, e.composer.AskTime(lang))
	}
	preferred := ExtractPreferredTime(trimmed)
	if preferred == "" {
		preferred = trimmed
	}
	// A re-stated time replaces anything captured earlier so the
	// confirmation carries exactly one time expression.
	sess.Slots = MergeSlots(sess.Slots, Slots{PreferredTime: preferred})
	return e.confirm(sess, lang, "")
}

// resolveDoctorOrDepartment handles the shared doctor/department resolution
// sub-procedure. The second return is false when the utterance references
// neither, so the caller can fall through to its own prompts.
func (e *Engine) resolveDoctorOrDepartment(sess *Session, utterance string, lang Language) (TurnResult, bool) {
	if hasDoctorReference(utterance) {
		cands := ExtractDoctorCandidates(utterance, e.dir)
		switch len(cands) {
		case 0:
			return e.result(sess, lang, e.composer.UnknownDoctor(lang)), true
		case 1:
			return e.doctorResolved(sess, cands[0], lang), true
		default:
			// Several doctors share the spoken name: always disambiguate
			// with a numbered list rather than guessing.
			return e.offerDoctors(sess, cands[0].Department, cands, lang), true
		}
	}

	dept := ExtractDepartment(utterance, e.dir)
	if dept == "" {
		return TurnResult{}, false
	}
	docs := e.dir.ByDepartment(dept)
	switch len(docs) {
	case 0:
		return e.result(sess, lang, e.composer.NoDoctorsInDepartment(dept, lang)), true
	case 1:
		return e.doctorResolved(sess, docs[0], lang), true
	default:
		return e.offerDoctors(sess, dept, docs, lang), true
	}
}

// offerDoctors presents up to three doctors and waits for a pick.
func (e *Engine) offerDoctors(sess *Session, dept string, docs []directory.Doctor, lang Language) TurnResult {
	offered := make([]string, 0, 3)
	for i, doc := range docs {
		if i == 3 {
			break
		}
		offered = append(offered, doc.ID)
	}
	sess.OfferedDoctors = offered
	sess.State = StateChooseDoctor
	return e.result(sess, lang, e.composer.ListDoctors(dept, docs, lang))
}

// doctorResolved records the chosen doctor and continues with whichever
// slot is still missing, skipping questions already answered.
func (e *Engine) doctorResolved(sess *Session, doc directory.Doctor, lang Language) TurnResult {
	sess.Slots = MergeSlots(sess.Slots, Slots{DoctorName: doc.Name, Department: doc.Department})
	return e.collectNext(sess, lang, e.composer.DoctorIntro(doc, lang))
}

// collectNext is the skip-ahead core: every state that is about to ask for
// something first checks whether it is already known. Omitting this is the
// classic asks-for-name-twice bug.
func (e *Engine) collectNext(sess *Session, lang Language, prefix string) TurnResult {
	join := func(q string) string {
		if prefix == "" {
			return q
		}
		return prefix + " " + q
	}
	switch {
	case sess.Slots.PatientName == "":
		sess.State = StateCollectName
		return e.result(sess, lang, join(e.composer.AskName(lang)))
	case sess.Slots.Phone == "":
		sess.State = StateCollectPhone
		return e.result(sess, lang, join(e.composer.AskPhone(lang)))
	case sess.Slots.PreferredTime == "":
		sess.State = StateCollectTime
		return e.result(sess, lang, join(e.composer.AskTime(lang)))
	default:
		return e.confirm(sess, lang, prefix)
	}
}

// confirm finalizes the booking: generates the confirmation ID, persists it
// and the single preferred-time value into slots, and composes the final
// message.
func (e *Engine) confirm(sess *Session, lang Language, prefix string) TurnResult {
	sess.Slots.ConfirmationID = NewConfirmationID()
	sess.State = StateConfirmed
	text := e.composer.Confirmation(sess.Slots, lang)
	if prefix != "" {
		text = prefix + " " + text
	}
	res := e.result(sess, lang, text)
	res.Confirmed = true
	return res
}

func (e *Engine) result(sess *Session, lang Language, text string) TurnResult {
	return TurnResult{
		SpokenText: text,
		Language:   lang,
		State:      sess.State,
	}
}

// looseDoctorMatch finds directory doctors referenced anywhere in the
// utterance, title or not. Used in the disambiguation state where callers
// answer with a bare name.
func looseDoctorMatch(utterance string, dir *directory.Directory) []directory.Doctor {
	if found := dir.SearchByName(utterance); len(found) > 0 {
		return found
	}
	seen := make(map[string]struct{})
	var out []directory.Doctor
	for _, word := range strings.Fields(utterance) {
		word = strings.Trim(word, ".,!?")
		if len(word) < 3 {
			continue
		}
		for _, doc := range dir.SearchByName(word) {
			if _, dup := seen[doc.ID]; dup {
				continue
			}
			seen[doc.ID] = struct{}{}
			out = append(out, doc)
		}
	}
	return out
}
