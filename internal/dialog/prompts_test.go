package dialog

import (
	"regexp"
	"strings"
	"testing"

	"github.com/arogyaai/reception-platform/internal/directory"
)

func TestNewConfirmationID(t *testing.T) {
	re := regexp.MustCompile(`^APT-[0-9A-F]{6}$`)
	seen := make(map[string]struct{})
	for i := 0; i < 50; i++ {
		id := NewConfirmationID()
		if !re.MatchString(id) {
			t.Fatalf("id %q does not match pattern", id)
		}
		seen[id] = struct{}{}
	}
	if len(seen) < 2 {
		t.Error("confirmation ids are not varying")
	}
}

func TestHindiTimePhrase(t *testing.T) {
	c := NewComposer()
	tests := []struct {
		in   string
		want string
	}{
		{"Tomorrow 5 PM", "कल शाम 5 बजे"},
		{"today 10 am", "आज रात 10 बजे"},
		{"Monday 2 PM", "सोमवार दोपहर 2 बजे"},
		{"tomorrow evening", "कल शाम"},
		{"sunday morning", "रविवार सुबह"},
		{"12 pm", "दोपहर 12 बजे"},
		{"day after tomorrow", "परसों"},
		{"कल शाम", "कल शाम"},
		{"someday maybe", "someday maybe"},
	}
	for _, tt := range tests {
		if got := c.HindiTimePhrase(tt.in); got != tt.want {
			t.Errorf("HindiTimePhrase(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestHourBucketsConfigurable(t *testing.T) {
	c := &Composer{HourBuckets: []HourBucket{{0, 11, "सुबह"}, {12, 23, "शाम"}}}

	if got := c.HindiTimePhrase("9 am"); got != "सुबह 9 बजे" {
		t.Errorf("got %q", got)
	}
	if got := c.HindiTimePhrase("5 pm"); got != "शाम 5 बजे" {
		t.Errorf("got %q", got)
	}
}

func TestDefaultHourBucketsCoverAllHours(t *testing.T) {
	c := NewComposer()
	for hour := 0; hour < 24; hour++ {
		if c.bucketWord(hour) == "" {
			t.Errorf("hour %d has no bucket word", hour)
		}
	}
}

func TestConfirmationEnglish(t *testing.T) {
	c := NewComposer()
	msg := c.Confirmation(Slots{
		PatientName:    "Rohit Narwal",
		Phone:          "9876543210",
		DoctorName:     "Dr Neha Sharma",
		PreferredTime:  "tomorrow evening",
		ConfirmationID: "APT-1A2B3C",
	}, LangEnglish)

	for _, want := range []string{"Rohit Narwal", "Dr Neha Sharma", "tomorrow evening", "APT-1A2B3C", "9876543210"} {
		if !strings.Contains(msg, want) {
			t.Errorf("confirmation missing %q: %q", want, msg)
		}
	}
}

func TestConfirmationFallbacks(t *testing.T) {
	c := NewComposer()
	msg := c.Confirmation(Slots{Department: "Cardiology", ConfirmationID: "APT-000001"}, LangEnglish)

	if !strings.Contains(msg, "the patient") {
		t.Errorf("missing patient fallback: %q", msg)
	}
	if !strings.Contains(msg, "Cardiology") {
		t.Errorf("department not used when doctor missing: %q", msg)
	}
	if !strings.Contains(msg, "registered number") {
		t.Errorf("missing phone fallback: %q", msg)
	}
}

func TestConfirmationHindiTranslatesTime(t *testing.T) {
	c := NewComposer()
	msg := c.Confirmation(Slots{
		PatientName:    "रोहित",
		DoctorName:     "Dr Neha Sharma",
		PreferredTime:  "tomorrow 5 pm",
		ConfirmationID: "APT-1A2B3C",
	}, LangHindi)

	if !strings.Contains(msg, "कल शाम 5 बजे") {
		t.Errorf("time not rendered in Hindi: %q", msg)
	}
	if strings.Contains(msg, "tomorrow") {
		t.Errorf("english time leaked into hindi message: %q", msg)
	}
	if !strings.Contains(msg, "Dr Neha Sharma") {
		t.Errorf("doctor name must stay Latin: %q", msg)
	}
}

func TestListDoctorsCapsAtThree(t *testing.T) {
	c := NewComposer()
	docs := []directory.Doctor{
		{ID: "d1", Name: "Dr A One"},
		{ID: "d2", Name: "Dr B Two"},
		{ID: "d3", Name: "Dr C Three"},
		{ID: "d4", Name: "Dr D Four"},
	}

	msg := c.ListDoctors("Cardiology", docs, LangEnglish)

	if !strings.Contains(msg, "3. Dr C Three") {
		t.Errorf("third doctor missing: %q", msg)
	}
	if strings.Contains(msg, "Dr D Four") {
		t.Errorf("fourth doctor listed: %q", msg)
	}
}

func TestDoctorIntroHindiOmitsLocation(t *testing.T) {
	c := NewComposer()
	doc := directory.Doctor{
		Name: "Dr Neha Sharma", Department: "Cardiology",
		Location: "Block A, Floor 2", NextSlots: []string{"Tomorrow 5 PM"},
	}

	en := c.DoctorIntro(doc, LangEnglish)
	if !strings.Contains(en, "Block A, Floor 2") {
		t.Errorf("english intro missing location: %q", en)
	}

	hi := c.DoctorIntro(doc, LangHindi)
	if strings.Contains(hi, "Block A") {
		t.Errorf("hindi intro leaks english location: %q", hi)
	}
	if !strings.Contains(hi, "कल शाम 5 बजे") {
		t.Errorf("hindi intro does not translate slots: %q", hi)
	}
}

func TestFixedPromptsBilingual(t *testing.T) {
	c := NewComposer()
	prompts := []func(Language) string{
		c.Handoff, c.TransferUnavailable, c.Apology, c.NoSpeech,
		c.GenericHelp, c.AskDepartment, c.UnknownDoctor,
		c.ChooseDoctorReprompt, c.AskName, c.AskPhone, c.ReAskPhone, c.AskTime,
	}
	for i, p := range prompts {
		en := p(LangEnglish)
		hi := p(LangHindi)
		if en == "" || hi == "" {
			t.Errorf("prompt %d empty: en=%q hi=%q", i, en, hi)
		}
		if en == hi {
			t.Errorf("prompt %d identical across languages: %q", i, en)
		}
	}
}
