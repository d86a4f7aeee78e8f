package directory

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Doctor is a static reference entry in the hospital directory.
// Name is always stored and rendered in Latin script; it doubles as the
// matching key for doctor references in later turns.
type Doctor struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Department string   `json:"department"`
	Location   string   `json:"location"`
	NextSlots  []string `json:"next_slots"`
}

// Directory holds the doctor list and answers lookups for the dialogue engine.
type Directory struct {
	doctors []Doctor
}

// maxNameMatches caps SearchByName results.
const maxNameMatches = 5

// New creates a directory over the supplied doctors.
func New(doctors []Doctor) *Directory {
	return &Directory{doctors: doctors}
}

// LoadFile reads a doctor list from a JSON file. Used to override the
// built-in dataset per deployment.
func LoadFile(path string) (*Directory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("directory: read %s: %w", path, err)
	}
	var doctors []Doctor
	if err := json.Unmarshal(data, &doctors); err != nil {
		return nil, fmt.Errorf("directory: parse %s: %w", path, err)
	}
	if len(doctors) == 0 {
		return nil, fmt.Errorf("directory: %s contains no doctors", path)
	}
	return New(doctors), nil
}

// Default returns the built-in demo directory.
func Default() *Directory {
	return New([]Doctor{
		{ID: "doc-001", Name: "Dr Neha Sharma", Department: "Cardiology", Location: "OPD Block A, 2nd Floor", NextSlots: []string{"Tomorrow 10 AM", "Tomorrow 5 PM"}},
		{ID: "doc-002", Name: "Dr Arjun Mehta", Department: "Cardiology", Location: "OPD Block A, 2nd Floor", NextSlots: []string{"Today 6 PM", "Saturday 11 AM"}},
		{ID: "doc-003", Name: "Dr Vikram Rao", Department: "Cardiology", Location: "OPD Block A, 2nd Floor", NextSlots: []string{"Monday 9 AM"}},
		{ID: "doc-004", Name: "Dr Priya Nair", Department: "Orthopedics", Location: "OPD Block B, Ground Floor", NextSlots: []string{"Tomorrow 11 AM", "Friday 4 PM"}},
		{ID: "doc-005", Name: "Dr Sanjay Gupta", Department: "Orthopedics", Location: "OPD Block B, Ground Floor", NextSlots: []string{"Thursday 10 AM"}},
		{ID: "doc-006", Name: "Dr Kavita Joshi", Department: "Pediatrics", Location: "OPD Block C, 1st Floor", NextSlots: []string{"Tomorrow 9 AM", "Tomorrow 12 PM"}},
		{ID: "doc-007", Name: "Dr Rohan Desai", Department: "Dermatology", Location: "OPD Block A, 3rd Floor", NextSlots: []string{"Wednesday 3 PM"}},
		{ID: "doc-008", Name: "Dr Sunita Verma", Department: "Neurology", Location: "OPD Block D, 2nd Floor", NextSlots: []string{"Tomorrow 2 PM"}},
		{ID: "doc-009", Name: "Dr Manish Agarwal", Department: "ENT", Location: "OPD Block C, Ground Floor", NextSlots: []string{"Today 5 PM", "Tomorrow 5 PM"}},
		{ID: "doc-010", Name: "Dr Pooja Iyer", Department: "General Medicine", Location: "OPD Block B, 1st Floor", NextSlots: []string{"Today 4 PM", "Tomorrow 10 AM"}},
		{ID: "doc-011", Name: "Dr Ritu Malhotra", Department: "Gynecology", Location: "OPD Block D, 1st Floor", NextSlots: []string{"Saturday 10 AM"}},
	})
}

// Doctors returns the full doctor list in directory order.
func (d *Directory) Doctors() []Doctor {
	return d.doctors
}

// ByID looks up a doctor by its identifier.
func (d *Directory) ByID(id string) (Doctor, bool) {
	for _, doc := range d.doctors {
		if doc.ID == id {
			return doc, true
		}
	}
	return Doctor{}, false
}

// ByDepartment returns all doctors in a department. Matching is exact after
// normalization; no fuzzy search.
func (d *Directory) ByDepartment(dept string) []Doctor {
	want := normalize(dept)
	if want == "" {
		return nil
	}
	var out []Doctor
	for _, doc := range d.doctors {
		if normalize(doc.Department) == want {
			out = append(out, doc)
		}
	}
	return out
}

// SearchByName returns doctors whose names contain the query as a substring,
// case and space insensitive, with any leading "dr"/"doctor" token stripped
// from the query. Results keep directory order and are capped at five.
func (d *Directory) SearchByName(query string) []Doctor {
	needle := squash(StripDoctorPrefix(query))
	if needle == "" {
		return nil
	}
	var out []Doctor
	for _, doc := range d.doctors {
		if strings.Contains(squash(doc.Name), needle) {
			out = append(out, doc)
			if len(out) == maxNameMatches {
				break
			}
		}
	}
	return out
}

// departmentAliases maps utterance keywords to canonical departments. Listed
// in match-priority order; the first hit wins.
var departmentAliases = []struct {
	keyword    string
	department string
}{
	{"cardiologist", "Cardiology"},
	{"cardio", "Cardiology"},
	{"heart", "Cardiology"},
	{"dil ka", "Cardiology"},
	{"हृदय", "Cardiology"},
	{"दिल", "Cardiology"},
	{"orthopedic", "Orthopedics"},
	{"orthopaedic", "Orthopedics"},
	{"ortho", "Orthopedics"},
	{"bone", "Orthopedics"},
	{"joint", "Orthopedics"},
	{"haddi", "Orthopedics"},
	{"हड्डी", "Orthopedics"},
	{"pediatrician", "Pediatrics"},
	{"paediatric", "Pediatrics"},
	{"child specialist", "Pediatrics"},
	{"children", "Pediatrics"},
	{"baby doctor", "Pediatrics"},
	{"bachcha", "Pediatrics"},
	{"बच्चों", "Pediatrics"},
	{"dermatologist", "Dermatology"},
	{"skin", "Dermatology"},
	{"twacha", "Dermatology"},
	{"त्वचा", "Dermatology"},
	{"neurologist", "Neurology"},
	{"neuro", "Neurology"},
	{"brain", "Neurology"},
	{"ent", "ENT"},
	{"ear nose", "ENT"},
	{"kaan", "ENT"},
	{"कान", "ENT"},
	{"gynecologist", "Gynecology"},
	{"gynaecologist", "Gynecology"},
	{"gynae", "Gynecology"},
	{"gyno", "Gynecology"},
	{"mahila doctor", "Gynecology"},
	{"general physician", "General Medicine"},
	{"physician", "General Medicine"},
	{"fever", "General Medicine"},
	{"bukhar", "General Medicine"},
	{"बुखार", "General Medicine"},
}

// MatchDepartment resolves an utterance to at most one canonical department:
// alias table first, then a substring check against canonical names. Returns
// "" when nothing matches.
func (d *Directory) MatchDepartment(utterance string) string {
	text := normalize(utterance)
	if text == "" {
		return ""
	}
	for _, alias := range departmentAliases {
		// Short aliases like "ent" must match a whole word; "appointment"
		// contains the substring.
		if len(alias.keyword) <= 3 {
			if containsWord(text, alias.keyword) {
				return alias.department
			}
			continue
		}
		if strings.Contains(text, alias.keyword) {
			return alias.department
		}
	}
	for _, doc := range d.doctors {
		if strings.Contains(text, normalize(doc.Department)) {
			return doc.Department
		}
	}
	return ""
}

func containsWord(text, word string) bool {
	for _, field := range strings.Fields(text) {
		if field == word {
			return true
		}
	}
	return false
}

// Departments returns the distinct canonical department names in directory order.
func (d *Directory) Departments() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, doc := range d.doctors {
		if _, ok := seen[doc.Department]; ok {
			continue
		}
		seen[doc.Department] = struct{}{}
		out = append(out, doc.Department)
	}
	return out
}

// StripDoctorPrefix removes a leading "dr", "dr." or "doctor" token.
func StripDoctorPrefix(s string) string {
	text := strings.TrimSpace(s)
	lower := strings.ToLower(text)
	for _, prefix := range []string{"doctor ", "dr. ", "dr "} {
		if strings.HasPrefix(lower, prefix) {
			return strings.TrimSpace(text[len(prefix):])
		}
	}
	if lower == "dr" || lower == "dr." || lower == "doctor" {
		return ""
	}
	return text
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(s))), " ")
}

// squash lowercases and removes all spaces and dots, so "dr.neha sharma"
// matches "Dr Neha Sharma".
func squash(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, ".", "")
	return strings.Join(strings.Fields(s), "")
}
