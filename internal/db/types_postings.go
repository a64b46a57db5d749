package db

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// JobType constants for the canonical job_type enum.
const (
	JobTypeFullTime   = "full-time"
	JobTypeInternship = "internship"
	JobTypePartTime   = "part-time"
	JobTypeContract   = "contract"
	JobTypeUnknown    = "unknown"
)

// Source constants recording where a posting came from.
const (
	SourceManual      = "manual"
	SourceExternalAPI = "external-api"
)

// ExperienceLevel constants.
const (
	LevelEntry  = "entry"
	LevelMid    = "mid"
	LevelSenior = "senior"
)

// Posting represents a stored job or internship listing. The embedding
// vector itself is write-only from the application's point of view; reads
// never load it.
type Posting struct {
	ID              uuid.UUID `json:"id"`
	Title           string    `json:"title"`
	Company         string    `json:"company"`
	Location        *string   `json:"location,omitempty"`
	Description     string    `json:"description"`
	Skills          []string  `json:"skills"`
	JobType         string    `json:"job_type"`
	ExperienceLevel *string   `json:"experience_level,omitempty"`
	Remote          bool      `json:"remote"`
	SalaryMin       *float64  `json:"salary_min,omitempty"`
	SalaryMax       *float64  `json:"salary_max,omitempty"`
	URL             *string   `json:"url,omitempty"`
	Source          string    `json:"source"`
	EmbeddingModel  string    `json:"embedding_model"`
	CreatedAt       time.Time `json:"created_at"`
}

// PostingDraft is a normalized posting that has not been persisted yet.
// It carries no ID and no embedding; CreatePosting assigns both.
type PostingDraft struct {
	Title           string
	Company         string
	Location        string
	Description     string
	Skills          []string
	JobType         string
	ExperienceLevel string
	Remote          bool
	SalaryMin       *float64
	SalaryMax       *float64
	URL             string
	Source          string
}

// EmbeddingText builds the text that gets embedded for this draft:
// title, description, and the comma-joined skill list.
func (d *PostingDraft) EmbeddingText() string {
	parts := []string{d.Title, d.Description}
	if len(d.Skills) > 0 {
		parts = append(parts, strings.Join(d.Skills, ", "))
	}
	return strings.Join(parts, " ")
}

// Filters narrows posting queries. Zero values mean "no filter".
type Filters struct {
	JobType    string // exact match against the canonical enum
	Location   string // case-insensitive substring match
	RemoteOnly bool
}

// SearchHit is one nearest-neighbor result: a posting and its cosine
// distance from the query vector (lower = more similar).
type SearchHit struct {
	Posting  Posting
	Distance float64
}
