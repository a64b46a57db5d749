// Package normalize converts raw posting records, which arrive as loose
// JSON objects from manual submissions or external APIs, into canonical
// posting drafts ready for embedding and storage.
package normalize

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonathan/job-radar/internal/db"
)

// maxSkills caps the skill list so one noisy record cannot bloat the
// embedding text.
const maxSkills = 10

// Error reports why a raw record could not be normalized.
type Error struct {
	Reason string
}

func (e *Error) Error() string {
	return "normalization failed: " + e.Reason
}

// Field alias tables, probed in order. The first present, non-empty value
// wins.
var (
	titleKeys       = []string{"title", "job_title", "position", "name"}
	companyKeys     = []string{"company", "company_name", "employer", "organization"}
	descriptionKeys = []string{"description", "job_description", "summary", "details"}
	locationKeys    = []string{"location", "city", "job_location"}
	urlKeys         = []string{"url", "job_url", "apply_link", "link", "redirect_url"}
	jobTypeKeys     = []string{"job_type", "type", "employment_type", "contract_type"}
	experienceKeys  = []string{"experience_level", "experience", "seniority"}
	skillsKeys      = []string{"skills", "required_skills", "technologies", "tags"}
	salaryMinKeys   = []string{"salary_min", "min_salary"}
	salaryMaxKeys   = []string{"salary_max", "max_salary"}
)

var remoteMarkers = []string{"remote", "anywhere", "work from home"}

// Normalize maps a raw record into a posting draft. Title and description
// are required; everything else degrades to a zero value.
func Normalize(raw map[string]any) (*db.PostingDraft, error) {
	if raw == nil {
		return nil, &Error{Reason: "record is empty"}
	}

	title := firstString(raw, titleKeys)
	if title == "" {
		return nil, &Error{Reason: "missing title"}
	}

	description := stripHTML(firstString(raw, descriptionKeys))
	if description == "" {
		return nil, &Error{Reason: "missing description"}
	}

	location := firstString(raw, locationKeys)

	draft := &db.PostingDraft{
		Title:           title,
		Company:         firstString(raw, companyKeys),
		Location:        location,
		Description:     description,
		Skills:          extractSkills(raw),
		JobType:         CanonicalJobType(firstString(raw, jobTypeKeys)),
		ExperienceLevel: canonicalExperience(firstString(raw, experienceKeys)),
		Remote:          detectRemote(raw, location, description),
		SalaryMin:       firstFloat(raw, salaryMinKeys),
		SalaryMax:       firstFloat(raw, salaryMaxKeys),
		URL:             firstString(raw, urlKeys),
	}
	return draft, nil
}

// CanonicalJobType maps a free-form job type string onto the canonical
// enum, defaulting to unknown.
func CanonicalJobType(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "full time", "full-time", "fulltime", "permanent":
		return db.JobTypeFullTime
	case "intern", "internship", "trainee":
		return db.JobTypeInternship
	case "part time", "part-time", "parttime":
		return db.JobTypePartTime
	case "contract", "contractor", "freelance", "temporary":
		return db.JobTypeContract
	default:
		return db.JobTypeUnknown
	}
}

func canonicalExperience(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "entry", "entry-level", "entry level", "junior", "graduate":
		return db.LevelEntry
	case "mid", "mid-level", "mid level", "intermediate":
		return db.LevelMid
	case "senior", "senior-level", "lead", "principal", "staff":
		return db.LevelSenior
	default:
		return ""
	}
}

// extractSkills probes the skill aliases and accepts three shapes: a list
// of strings, a comma-joined string, or a list of objects with a name key.
func extractSkills(raw map[string]any) []string {
	for _, key := range skillsKeys {
		v, ok := raw[key]
		if !ok || v == nil {
			continue
		}
		var skills []string
		switch val := v.(type) {
		case []string:
			skills = val
		case string:
			for _, s := range strings.Split(val, ",") {
				skills = append(skills, s)
			}
		case []any:
			for _, item := range val {
				switch entry := item.(type) {
				case string:
					skills = append(skills, entry)
				case map[string]any:
					if name, ok := entry["name"].(string); ok {
						skills = append(skills, name)
					}
				}
			}
		default:
			continue
		}

		var cleaned []string
		for _, s := range skills {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			cleaned = append(cleaned, s)
			if len(cleaned) == maxSkills {
				break
			}
		}
		if len(cleaned) > 0 {
			return cleaned
		}
	}
	return nil
}

// detectRemote honors an explicit remote flag when present, then falls
// back to scanning the location and description for remote markers.
func detectRemote(raw map[string]any, location, description string) bool {
	if b, ok := raw["remote"].(bool); ok {
		return b
	}
	if wt, ok := raw["work_type"].(string); ok {
		if strings.EqualFold(strings.TrimSpace(wt), "remote") {
			return true
		}
	}
	haystack := strings.ToLower(location + " " + description)
	for _, marker := range remoteMarkers {
		if strings.Contains(haystack, marker) {
			return true
		}
	}
	return false
}

// stripHTML reduces an HTML fragment to its text content. Plain text
// passes through untouched.
func stripHTML(s string) string {
	if !strings.Contains(s, "<") {
		return strings.TrimSpace(s)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.TrimSpace(s)
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

func firstString(raw map[string]any, keys []string) string {
	for _, key := range keys {
		if s, ok := raw[key].(string); ok {
			if s = strings.TrimSpace(s); s != "" {
				return s
			}
		}
	}
	return ""
}

// firstFloat accepts JSON numbers as well as numeric strings, which some
// external APIs emit for salary fields.
func firstFloat(raw map[string]any, keys []string) *float64 {
	for _, key := range keys {
		v, ok := raw[key]
		if !ok || v == nil {
			continue
		}
		switch val := v.(type) {
		case float64:
			return &val
		case int:
			f := float64(val)
			return &f
		case string:
			var f float64
			if _, err := fmt.Sscanf(strings.TrimSpace(val), "%g", &f); err == nil {
				return &f
			}
		}
	}
	return nil
}
