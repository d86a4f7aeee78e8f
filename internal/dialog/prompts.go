package dialog

import (
	"crypto/rand"
	"fmt"
	"strconv"
	"strings"

	"github.com/arogyaai/reception-platform/internal/directory"
)

// confirmationPrefix is the fixed prefix of every confirmation identifier.
const confirmationPrefix = "APT-"

// NewConfirmationID returns the booking confirmation identifier: the fixed
// prefix plus six uppercase hex characters. Cosmetic uniqueness only; there
// is no collision check.
func NewConfirmationID() string {
	var buf [3]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// crypto/rand failing is effectively unreachable; keep the turn total.
		return confirmationPrefix + "000000"
	}
	return confirmationPrefix + strings.ToUpper(fmt.Sprintf("%x", buf[:]))
}

// HourBucket maps a range of 24-hour clock hours to a Hindi time-of-day
// word. The bucketing follows hospital reception usage, not dictionary
// Hindi, and is a table so deployments can adjust it.
type HourBucket struct {
	From int
	To   int
	Word string
}

// DefaultHourBuckets is the stock bucketing table.
var DefaultHourBuckets = []HourBucket{
	{0, 4, "रात"},
	{5, 7, "शाम"},
	{8, 11, "रात"},
	{12, 12, "दोपहर"},
	{13, 16, "दोपहर"},
	{17, 19, "शाम"},
	{20, 23, "रात"},
}

// Ordered so multi-token inputs resolve the same way every time; the more
// specific tokens come first.
var hindiDayWords = []struct{ en, hi string }{
	{"day after", "परसों"},
	{"tomorrow", "कल"},
	{"today", "आज"},
	{"monday", "सोमवार"},
	{"tuesday", "मंगलवार"},
	{"wednesday", "बुधवार"},
	{"thursday", "गुरुवार"},
	{"friday", "शुक्रवार"},
	{"saturday", "शनिवार"},
	{"sunday", "रविवार"},
}

var hindiTimeOfDayWords = []struct{ en, hi string }{
	{"morning", "सुबह"},
	{"afternoon", "दोपहर"},
	{"evening", "शाम"},
	{"midday", "दोपहर"},
	{"noon", "दोपहर"},
	{"night", "रात"},
}

var hindiDepartments = map[string]string{
	"Cardiology":       "हृदय रोग",
	"Orthopedics":      "हड्डी रोग",
	"Pediatrics":       "बाल रोग",
	"Dermatology":      "त्वचा रोग",
	"Neurology":        "तंत्रिका रोग",
	"ENT":              "कान नाक गला",
	"General Medicine": "सामान्य चिकित्सा",
	"Gynecology":       "स्त्री रोग",
}

// Composer renders every fixed prompt in the session language and converts
// English slot descriptors into Hindi phrases. Doctor proper names and
// confirmation IDs are never translated: they stay in Latin script because
// they are the keys the engine matches on in later turns.
type Composer struct {
	HourBuckets []HourBucket
}

// NewComposer returns a composer with the default Hindi hour buckets.
func NewComposer() *Composer {
	return &Composer{HourBuckets: DefaultHourBuckets}
}

// HindiTimePhrase converts an English day/time descriptor like
// "Tomorrow 5 PM" into "कल शाम 5 बजे". Unrecognized tokens are dropped;
// when nothing is recognized the input is returned unchanged.
func (c *Composer) HindiTimePhrase(text string) string {
	lower := strings.ToLower(strings.TrimSpace(text))
	if lower == "" {
		return text
	}

	var parts []string
	for _, day := range hindiDayWords {
		if strings.Contains(lower, day.en) {
			parts = append(parts, day.hi)
			break
		}
	}

	if m := clockRE.FindStringSubmatch(text); len(m) >= 4 {
		hour, _ := strconv.Atoi(m[1])
		meridiem := strings.ToLower(m[3])
		if meridiem == "pm" && hour < 12 {
			hour += 12
		}
		if meridiem == "am" && hour == 12 {
			hour = 0
		}
		if word := c.bucketWord(hour); word != "" {
			parts = append(parts, word)
		}
		display := hour % 12
		if display == 0 {
			display = 12
		}
		parts = append(parts, fmt.Sprintf("%d बजे", display))
	} else {
		for _, tod := range hindiTimeOfDayWords {
			if strings.Contains(lower, tod.en) {
				parts = append(parts, tod.hi)
				break
			}
		}
	}

	if len(parts) == 0 {
		return text
	}
	return strings.Join(parts, " ")
}

func (c *Composer) bucketWord(hour int) string {
	buckets := c.HourBuckets
	if len(buckets) == 0 {
		buckets = DefaultHourBuckets
	}
	for _, b := range buckets {
		if hour >= b.From && hour <= b.To {
			return b.Word
		}
	}
	return ""
}

// departmentName renders a department for the given language.
func departmentName(dept string, lang Language) string {
	if lang == LangHindi {
		if hi, ok := hindiDepartments[dept]; ok {
			return hi
		}
	}
	return dept
}

// timePhrase renders a slot descriptor or caller-stated time for the
// given language.
func (c *Composer) timePhrase(text string, lang Language) string {
	if lang == LangHindi {
		return c.HindiTimePhrase(text)
	}
	return text
}

// ---------- fixed prompts ----------

func (c *Composer) Handoff(lang Language) string {
	if lang == LangHindi {
		return "मैं समझती हूँ। मैं आपको हमारी रिसेप्शन टीम से जोड़ रही हूँ। कृपया लाइन पर बने रहें।"
	}
	return "I understand. Let me connect you to a member of our reception team. Please stay on the line."
}

func (c *Composer) TransferUnavailable(lang Language) string {
	if lang == LangHindi {
		return "माफ़ कीजिए, अभी रिसेप्शन टीम से जोड़ना संभव नहीं है। कृपया बाद में फिर कॉल कीजिए। धन्यवाद।"
	}
	return "I'm sorry, a transfer to our reception team is not available right now. Please call back later. Thank you."
}

func (c *Composer) Apology(lang Language) string {
	if lang == LangHindi {
		return "माफ़ कीजिए, तकनीकी समस्या आ रही है। कृपया थोड़ी देर बाद फिर कोशिश कीजिए।"
	}
	return "Sorry, we are facing a technical issue. Please try again in a moment."
}

func (c *Composer) NoSpeech(lang Language) string {
	if lang == LangHindi {
		return "माफ़ कीजिए, मुझे कुछ सुनाई नहीं दिया। कृपया दोबारा बोलिए।"
	}
	return "Sorry, I didn't hear anything. Could you please repeat that?"
}

func (c *Composer) GenericHelp(lang Language) string {
	if lang == LangHindi {
		return "मैं डॉक्टर के साथ अपॉइंटमेंट बुक करने में आपकी मदद कर सकती हूँ। कृपया विभाग का नाम बताइए, या डॉक्टर का नाम बताइए।"
	}
	return "I can help you book an appointment with our doctors. You can tell me a department, like Cardiology, or a doctor's name."
}

func (c *Composer) AskDepartment(lang Language) string {
	if lang == LangHindi {
		return "ज़रूर, मैं बुक कर सकती हूँ। आप किस विभाग या किस डॉक्टर से मिलना चाहेंगे?"
	}
	return "Sure, I can book that. Which department or doctor would you like to see?"
}

func (c *Composer) UnknownDoctor(lang Language) string {
	if lang == LangHindi {
		return "माफ़ कीजिए, वह डॉक्टर नहीं मिले। कृपया विभाग का नाम बताइए।"
	}
	return "I couldn't find that doctor. Could you tell me the department instead, for example Cardiology or Orthopedics?"
}

func (c *Composer) NoDoctorsInDepartment(dept string, lang Language) string {
	if lang == LangHindi {
		return fmt.Sprintf("माफ़ कीजिए, अभी %s विभाग में कोई डॉक्टर उपलब्ध नहीं है। रिसेप्शन टीम से बात करने के लिए 'एजेंट' कहिए।", departmentName(dept, lang))
	}
	return fmt.Sprintf("I'm sorry, no doctors are available in %s right now. Say agent if you would like to talk to our reception team.", dept)
}

// ListDoctors presents up to three doctors with ordinal numbers.
func (c *Composer) ListDoctors(dept string, doctors []directory.Doctor, lang Language) string {
	var entries []string
	for i, doc := range doctors {
		if i == 3 {
			break
		}
		entries = append(entries, fmt.Sprintf("%d. %s", i+1, doc.Name))
	}
	listed := strings.Join(entries, ", ")
	if lang == LangHindi {
		return fmt.Sprintf("%s विभाग में ये डॉक्टर उपलब्ध हैं: %s। कृपया डॉक्टर का नाम या नंबर बताइए।", departmentName(dept, lang), listed)
	}
	return fmt.Sprintf("In %s we have: %s. Please say the doctor's name or the number to continue.", dept, listed)
}

func (c *Composer) ChooseDoctorReprompt(lang Language) string {
	if lang == LangHindi {
		return "कृपया डॉक्टर का नाम या नंबर बताइए, जैसे एक या दो। रिसेप्शन टीम से बात करने के लिए 'एजेंट' कहिए।"
	}
	return "Please say the doctor's name or the number, for example one or two. You can also say agent to talk to our reception team."
}

// DoctorIntro states the resolved doctor, department and next available
// slots. The Hindi rendering keeps the doctor's name in Latin script and
// omits the English-only location line.
func (c *Composer) DoctorIntro(doc directory.Doctor, lang Language) string {
	if lang == LangHindi {
		intro := fmt.Sprintf("%s %s विभाग में उपलब्ध हैं।", doc.Name, departmentName(doc.Department, lang))
		if len(doc.NextSlots) > 0 {
			var slots []string
			for _, s := range doc.NextSlots {
				slots = append(slots, c.HindiTimePhrase(s))
			}
			intro += " अगले उपलब्ध समय: " + strings.Join(slots, ", ") + "।"
		}
		return intro
	}
	intro := fmt.Sprintf("%s is available in %s", doc.Name, doc.Department)
	if doc.Location != "" {
		intro += " at " + doc.Location
	}
	intro += "."
	if len(doc.NextSlots) > 0 {
		intro += " Next available slots: " + strings.Join(doc.NextSlots, ", ") + "."
	}
	return intro
}

func (c *Composer) AskName(lang Language) string {
	if lang == LangHindi {
		return "कृपया मरीज़ का पूरा नाम बताइए।"
	}
	return "May I have the patient's full name, please?"
}

func (c *Composer) AskPhone(lang Language) string {
	if lang == LangHindi {
		return "कृपया बुकिंग के लिए 10 अंकों का मोबाइल नंबर बताइए।"
	}
	return "Please tell me the 10-digit mobile number for the booking."
}

func (c *Composer) ReAskPhone(lang Language) string {
	if lang == LangHindi {
		return "मुझे सही 10 अंकों का नंबर नहीं मिला। कृपया मोबाइल नंबर दोबारा बताइए।"
	}
	return "I didn't catch a valid 10-digit number. Could you repeat the mobile number, digit by digit?"
}

func (c *Composer) AskTime(lang Language) string {
	if lang == LangHindi {
		return "आप अपॉइंटमेंट के लिए कौन सा दिन और समय पसंद करेंगे?"
	}
	return "What day and time would you prefer for the appointment?"
}

// Confirmation assembles the final booking message from whichever slots are
// populated. Exactly one preferred-time expression appears, and the
// confirmation ID keeps its Latin form in both languages.
func (c *Composer) Confirmation(slots Slots, lang Language) string {
	seeing := slots.DoctorName
	if seeing == "" {
		seeing = departmentName(slots.Department, lang)
	}

	if lang == LangHindi {
		patient := slots.PatientName
		if patient == "" {
			patient = "मरीज़"
		}
		msg := fmt.Sprintf("आपका अपॉइंटमेंट बुक हो गया है। मरीज़: %s।", patient)
		if seeing != "" {
			msg += fmt.Sprintf(" डॉक्टर: %s।", seeing)
		}
		if slots.PreferredTime != "" {
			msg += fmt.Sprintf(" पसंदीदा समय: %s।", c.HindiTimePhrase(slots.PreferredTime))
		}
		msg += fmt.Sprintf(" आपका कन्फर्मेशन नंबर %s है।", slots.ConfirmationID)
		if slots.Phone != "" {
			msg += fmt.Sprintf(" विवरण %s पर भेज दिया जाएगा।", slots.Phone)
		} else {
			msg += " विवरण आपके नंबर पर भेज दिया जाएगा।"
		}
		return msg
	}

	patient := slots.PatientName
	if patient == "" {
		patient = "the patient"
	}
	msg := fmt.Sprintf("Your appointment is booked. Patient: %s.", patient)
	if seeing != "" {
		msg += fmt.Sprintf(" Doctor: %s.", seeing)
	}
	if slots.PreferredTime != "" {
		msg += fmt.Sprintf(" Preferred time: %s.", slots.PreferredTime)
	}
	msg += fmt.Sprintf(" Your confirmation ID is %s.", slots.ConfirmationID)
	if slots.Phone != "" {
		msg += fmt.Sprintf(" We will send the details to %s.", slots.Phone)
	} else {
		msg += " We will send the details to your registered number."
	}
	return msg
}

// ConfirmedFollowUp answers turns that arrive after the booking completed.
func (c *Composer) ConfirmedFollowUp(slots Slots, lang Language) string {
	if lang == LangHindi {
		msg := fmt.Sprintf("आपका अपॉइंटमेंट %s पहले से बुक है।", slots.ConfirmationID)
		if slots.PreferredTime != "" {
			msg = fmt.Sprintf("आपका अपॉइंटमेंट %s, %s के लिए पहले से बुक है।", slots.ConfirmationID, c.HindiTimePhrase(slots.PreferredTime))
		}
		return msg + " क्या मैं और कुछ मदद कर सकती हूँ?"
	}
	msg := fmt.Sprintf("Your appointment %s is already booked", slots.ConfirmationID)
	if slots.PreferredTime != "" {
		msg += " for " + slots.PreferredTime
	}
	return msg + ". Is there anything else I can help you with?"
}
