package dialog

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/arogyaai/reception-platform/internal/directory"
)

// Extractors are conservative by design: a wrong guess corrupts the slot map
// for the rest of the call, so every function here prefers "no match" over a
// doubtful value.

// ---------- package-level compiled regexes ----------

var (
	phoneRunRE  = regexp.MustCompile(`\+?\d[\d\s\-]{8,}\d`)
	clockRE     = regexp.MustCompile(`(?i)\b(\d{1,2})(?::(\d{2}))?\s*(am|pm)\b`)
	bajeRE      = regexp.MustCompile(`(?i)\b(\d{1,2})\s*(?:baje|बजे)`)
	nonDigitRE  = regexp.MustCompile(`\D`)
	ordinalRE   = regexp.MustCompile(`^\s*(?:number\s+|option\s+)?(\d{1,2})\s*$`)
	nameWordRE  = regexp.MustCompile(`^[\p{L}][\p{L}\p{M}'-]*$`)
	namePhrase  = `[\p{L}][\p{L}\p{M}'-]*(?:\s+[\p{L}][\p{L}\p{M}'-]*){0,3}`
	framingREs  = buildNameFramings()
	fillerWords = map[string]struct{}{
		"yes": {}, "ok": {}, "okay": {}, "umm": {}, "uh": {}, "so": {},
		"sir": {}, "madam": {}, "ji": {}, "haan": {}, "please": {},
		"hello": {}, "hi": {}, "my": {}, "the": {}, "is": {},
		"and": {}, "aur": {}, "phone": {}, "number": {}, "mobile": {},
	}
)

func buildNameFramings() []*regexp.Regexp {
	return []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bmy name is\s+(` + namePhrase + `)`),
		regexp.MustCompile(`(?i)\bpatient name is\s+(` + namePhrase + `)`),
		regexp.MustCompile(`(?i)\bpatient name\s+(` + namePhrase + `)`),
		regexp.MustCompile(`(?i)\bname is\s+(` + namePhrase + `)`),
		regexp.MustCompile(`(?i)\bthis is\s+(` + namePhrase + `)`),
		regexp.MustCompile(`(?i)\bmera naam\s+(` + namePhrase + `)`),
		regexp.MustCompile(`मेरा नाम\s+(` + namePhrase + `)`),
	}
}

// ---------- phone ----------

// ExtractPhone finds a contiguous run of ten or more digits, optionally with
// a leading plus and space/hyphen separators, and returns the bare digit
// string. Anything shorter is rejected.
func ExtractPhone(utterance string) string {
	for _, run := range phoneRunRE.FindAllString(utterance, -1) {
		digits := nonDigitRE.ReplaceAllString(run, "")
		if len(digits) >= 10 {
			return digits
		}
	}
	return ""
}

// ---------- patient name ----------

// ExtractPatientName pulls a patient name out of the utterance. Framing
// phrases ("my name is X") are always honored. When justAsked is true — the
// engine asked for the name on the previous turn — the whole cleaned
// utterance is accepted as the name, which is what stops the engine from
// asking twice when callers answer with just "Rohit Narwal".
func ExtractPatientName(utterance string, justAsked bool) string {
	text := strings.TrimSpace(utterance)
	if text == "" {
		return ""
	}
	for _, re := range framingREs {
		if m := re.FindStringSubmatch(text); len(m) >= 2 {
			if name := cleanNamePhrase(m[1]); name != "" {
				return name
			}
		}
	}
	if !justAsked {
		return ""
	}
	return cleanNamePhrase(stripNameFillers(text))
}

// stripNameFillers removes framing fragments a caller may still prefix a
// bare name reply with.
func stripNameFillers(text string) string {
	lower := strings.ToLower(text)
	for _, filler := range []string{"patient name is", "patient name", "my name is", "name is", "mera naam", "this is", "it is", "it's"} {
		if idx := strings.Index(lower, filler); idx >= 0 {
			text = text[:idx] + text[idx+len(filler):]
			lower = strings.ToLower(text)
		}
	}
	return text
}

// cleanNamePhrase keeps up to four plausible name words, trims filler and
// punctuation, and returns "" when nothing name-like remains.
func cleanNamePhrase(raw string) string {
	words := strings.Fields(raw)
	var parts []string
	for _, word := range words {
		cleaned := strings.Trim(word, ".,!?\"()[]{}'")
		if cleaned == "" {
			continue
		}
		lower := strings.ToLower(cleaned)
		if _, skip := fillerWords[lower]; skip {
			continue
		}
		if lower == "hai" || lower == "है" {
			continue
		}
		// Time words answer a different question; a phrase containing one
		// is never a name.
		if isTimeWord(lower) {
			return ""
		}
		if !nameWordRE.MatchString(cleaned) || utf8.RuneCountInString(cleaned) > 30 {
			return ""
		}
		parts = append(parts, capitalizeWord(cleaned))
		if len(parts) == 4 {
			break
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, " ")
}

func isTimeWord(lower string) bool {
	if lower == "am" || lower == "pm" || lower == "baje" || lower == "बजे" {
		return true
	}
	for _, token := range dayTokens {
		if lower == token {
			return true
		}
	}
	for _, token := range timeOfDayTokens {
		if lower == token {
			return true
		}
	}
	return false
}

func capitalizeWord(word string) string {
	first, size := utf8.DecodeRuneInString(word)
	if first == utf8.RuneError || size == 0 {
		return word
	}
	if !unicode.IsUpper(first) && unicode.IsLetter(first) && first < utf8.RuneSelf {
		return strings.ToUpper(string(first)) + word[size:]
	}
	return word
}

// ---------- department and doctor ----------

// ExtractDepartment resolves at most one canonical department from the
// utterance using the directory's alias table. First hit wins; no ranking.
func ExtractDepartment(utterance string, dir *directory.Directory) string {
	return dir.MatchDepartment(utterance)
}

// hasDoctorReference reports whether the utterance mentions a doctor by
// title ("Dr"/"Doctor", or the Hindi डॉक्टर/डॉ).
func hasDoctorReference(utterance string) bool {
	lower := strings.ToLower(utterance)
	for _, token := range []string{"dr ", "dr.", "doctor", "डॉक्टर", "डॉ"} {
		if strings.Contains(lower, token) {
			return true
		}
	}
	return false
}

// ExtractDoctorCandidates returns up to five directory doctors whose names
// match the doctor reference in the utterance, in directory order.
func ExtractDoctorCandidates(utterance string, dir *directory.Directory) []directory.Doctor {
	lower := strings.ToLower(utterance)
	idx := -1
	for _, token := range []string{"doctor", "dr.", "dr "} {
		if i := strings.Index(lower, token); i >= 0 && (idx < 0 || i < idx) {
			idx = i
		}
	}
	query := utterance
	if idx >= 0 {
		query = utterance[idx:]
	}
	// Cut at the first clause boundary so "Dr Neha Sharma, tomorrow please"
	// only searches the name part.
	if cut := strings.IndexAny(query, ",.?!"); cut > 0 {
		query = query[:cut]
	}
	query = directory.StripDoctorPrefix(query)
	// Trailing words after the name ("Dr Neha Sharma tomorrow") would defeat
	// the substring match, so try the longest word-prefix that matches.
	words := strings.Fields(query)
	limit := len(words)
	if limit > 3 {
		limit = 3
	}
	for n := limit; n >= 1; n-- {
		if found := dir.SearchByName(strings.Join(words[:n], " ")); len(found) > 0 {
			return found
		}
	}
	return nil
}

// ---------- preferred time ----------

var dayTokens = []string{
	"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday",
	"today", "tomorrow", "tonight", "day after",
	"aaj", "kal", "parso",
	"सोमवार", "मंगलवार", "बुधवार", "गुरुवार", "शुक्रवार", "शनिवार", "रविवार",
	"आज", "कल", "परसों",
}

var timeOfDayTokens = []string{
	"morning", "afternoon", "evening", "night", "noon", "midday",
	"subah", "dopahar", "shaam", "sham", "raat",
	"सुबह", "दोपहर", "शाम", "रात",
}

// ExtractAnchoredTime is the out-of-turn variant of ExtractPreferredTime.
// It only fires when the utterance carries a day word or a clock pattern;
// a bare time-of-day word is too weak a signal outside the time question,
// where "good morning" is a greeting, not a preference.
func ExtractAnchoredTime(utterance string) string {
	lower := strings.ToLower(utterance)
	for _, token := range dayTokens {
		if strings.Contains(lower, token) {
			return ExtractPreferredTime(utterance)
		}
	}
	if clockRE.MatchString(utterance) || bajeRE.MatchString(utterance) {
		return ExtractPreferredTime(utterance)
	}
	return ""
}

// ExtractPreferredTime returns the caller's stated day/time preference, or
// "" when the utterance contains no recognized day token, time-of-day word,
// or clock pattern. On a match it returns the smallest substring spanning
// the matched tokens, falling back to the whole trimmed utterance.
func ExtractPreferredTime(utterance string) string {
	text := strings.TrimSpace(utterance)
	if text == "" {
		return ""
	}
	lower := strings.ToLower(text)

	start, end := -1, -1
	mark := func(from, to int) {
		if start < 0 || from < start {
			start = from
		}
		if to > end {
			end = to
		}
	}

	for _, token := range dayTokens {
		if i := strings.Index(lower, token); i >= 0 {
			mark(i, i+len(token))
		}
	}
	for _, token := range timeOfDayTokens {
		if i := strings.Index(lower, token); i >= 0 {
			mark(i, i+len(token))
		}
	}
	if loc := clockRE.FindStringIndex(text); loc != nil {
		mark(loc[0], loc[1])
	}
	if loc := bajeRE.FindStringIndex(text); loc != nil {
		mark(loc[0], loc[1])
	}

	if start < 0 {
		return ""
	}
	if start > end || end > len(text) {
		return text
	}
	return strings.TrimSpace(text[start:end])
}

// parseOrdinalReply interprets a short numeric reply ("2", "number 2",
// "doosra") as a 1-based selection index. Returns 0 when the utterance is
// not an ordinal reply.
func parseOrdinalReply(utterance string) int {
	text := strings.ToLower(strings.TrimSpace(utterance))
	if m := ordinalRE.FindStringSubmatch(text); len(m) == 2 {
		n := 0
		for _, r := range m[1] {
			n = n*10 + int(r-'0')
		}
		return n
	}
	words := map[string]int{
		"one": 1, "first": 1, "pehla": 1, "पहला": 1, "एक": 1,
		"two": 2, "second": 2, "doosra": 2, "दूसरा": 2, "दो": 2,
		"three": 3, "third": 3, "teesra": 3, "तीसरा": 3, "तीन": 3,
	}
	for word, n := range words {
		if text == word {
			return n
		}
	}
	return 0
}
