package db

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"
)

// postingColumns is the column list shared by every posting read.
const postingColumns = `id, title, company, location, description, skills, job_type,
	        experience_level, remote, salary_min, salary_max, url, source,
	        embedding_model, created_at`

// CreatePosting persists a draft together with its embedding and returns the
// stored entity. When the draft carries a URL and a posting with that URL
// already exists, nothing is written and created is false.
func (db *DB) CreatePosting(ctx context.Context, draft *PostingDraft, embedding []float32, model string) (*Posting, bool, error) {
	if len(embedding) != db.dims {
		return nil, false, &StorageError{
			Op:  "create posting",
			Err: fmt.Errorf("embedding has %d dimensions, schema expects %d", len(embedding), db.dims),
		}
	}

	skillsJSON, err := json.Marshal(emptyIfNil(draft.Skills))
	if err != nil {
		return nil, false, &StorageError{Op: "create posting", Err: err}
	}

	args := []any{
		draft.Title, draft.Company, nullIfEmpty(draft.Location), draft.Description,
		skillsJSON, draft.JobType, nullIfEmpty(draft.ExperienceLevel), draft.Remote,
		draft.SalaryMin, draft.SalaryMax, nullIfEmpty(draft.URL), draft.Source,
		pgvector.NewVector(embedding), model,
	}

	query := `INSERT INTO postings (title, company, location, description, skills, job_type,
	                          experience_level, remote, salary_min, salary_max, url, source,
	                          embedding, embedding_model)
	 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	if draft.URL != "" {
		// Dedupe by source URL: skip the insert if the URL is already stored.
		query = `INSERT INTO postings (title, company, location, description, skills, job_type,
	                          experience_level, remote, salary_min, salary_max, url, source,
	                          embedding, embedding_model)
	 SELECT $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14
	 WHERE NOT EXISTS (SELECT 1 FROM postings WHERE url = $11)`
	}
	query += `
	 RETURNING ` + postingColumns

	row := db.pool.QueryRow(ctx, query, args...)
	posting, err := scanPosting(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, false, nil // duplicate URL
		}
		return nil, false, &StorageError{Op: "create posting", Err: err}
	}
	return posting, true, nil
}

// GetPosting retrieves a posting by ID. Returns (nil, nil) when not found.
func (db *DB) GetPosting(ctx context.Context, id uuid.UUID) (*Posting, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+postingColumns+` FROM postings WHERE id = $1`, id)
	posting, err := scanPosting(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, &StorageError{Op: "get posting", Err: err}
	}
	return posting, nil
}

// ListPostings retrieves postings matching the filters, newest first,
// along with the total count for the same filters.
func (db *DB) ListPostings(ctx context.Context, f Filters, limit, offset int) ([]Posting, int, error) {
	whereClause, args := buildFilterClause(f, nil)

	total, err := db.countWhere(ctx, whereClause, args)
	if err != nil {
		return nil, 0, err
	}

	if limit <= 0 {
		limit = 50
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	args = append(args, limit, offset)
	query := fmt.Sprintf(
		`SELECT `+postingColumns+` FROM postings %s
	 ORDER BY created_at DESC
	 LIMIT $%d OFFSET $%d`,
		whereClause, len(args)-1, len(args))

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, &StorageError{Op: "list postings", Err: err}
	}
	defer rows.Close()

	var postings []Posting
	for rows.Next() {
		p, err := scanPosting(rows)
		if err != nil {
			return nil, 0, &StorageError{Op: "list postings", Err: err}
		}
		postings = append(postings, *p)
	}
	return postings, total, rows.Err()
}

// CountPostings returns the number of postings matching the filters.
func (db *DB) CountPostings(ctx context.Context, f Filters) (int, error) {
	whereClause, args := buildFilterClause(f, nil)
	return db.countWhere(ctx, whereClause, args)
}

func (db *DB) countWhere(ctx context.Context, whereClause string, args []any) (int, error) {
	var total int
	err := db.pool.QueryRow(ctx,
		fmt.Sprintf("SELECT COUNT(*) FROM postings %s", whereClause), args...,
	).Scan(&total)
	if err != nil {
		return 0, &StorageError{Op: "count postings", Err: err}
	}
	return total, nil
}

// SearchNearest returns the postings nearest to the query vector by cosine
// distance, restricted to the filters. Results are ordered by ascending
// distance with ID as a deterministic tie-break.
func (db *DB) SearchNearest(ctx context.Context, queryVec []float32, f Filters, limit int) ([]SearchHit, error) {
	if limit <= 0 {
		limit = 20
	}

	args := []any{pgvector.NewVector(queryVec)}
	whereClause, args := buildFilterClause(f, args)
	args = append(args, limit)

	query := fmt.Sprintf(
		`SELECT `+postingColumns+`, embedding <=> $1 AS distance
	 FROM postings %s
	 ORDER BY embedding <=> $1, id
	 LIMIT $%d`,
		whereClause, len(args))

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, &StorageError{Op: "search nearest", Err: err}
	}
	defer rows.Close()

	var hits []SearchHit
	for rows.Next() {
		var hit SearchHit
		if err := scanPostingInto(rows, &hit.Posting, &hit.Distance); err != nil {
			return nil, &StorageError{Op: "search nearest", Err: err}
		}
		hits = append(hits, hit)
	}
	return hits, rows.Err()
}

// buildFilterClause appends filter predicates to args and returns the WHERE
// clause ("" when no filters are set). Pass existing args so placeholder
// numbering stays aligned.
func buildFilterClause(f Filters, args []any) (string, []any) {
	var conditions []string

	if f.JobType != "" {
		args = append(args, f.JobType)
		conditions = append(conditions, fmt.Sprintf("job_type = $%d", len(args)))
	}
	if f.Location != "" {
		args = append(args, "%"+f.Location+"%")
		conditions = append(conditions, fmt.Sprintf("location ILIKE $%d", len(args)))
	}
	if f.RemoteOnly {
		conditions = append(conditions, "remote = true")
	}

	if len(conditions) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(conditions, " AND "), args
}

func scanPosting(row pgx.Row) (*Posting, error) {
	var p Posting
	if err := scanPostingInto(row, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// scanPostingInto scans the postingColumns list plus any extra trailing
// destinations (the distance column in nearest-neighbor queries).
func scanPostingInto(row pgx.Row, p *Posting, extra ...any) error {
	var skillsJSON []byte
	dest := []any{
		&p.ID, &p.Title, &p.Company, &p.Location, &p.Description, &skillsJSON,
		&p.JobType, &p.ExperienceLevel, &p.Remote, &p.SalaryMin, &p.SalaryMax,
		&p.URL, &p.Source, &p.EmbeddingModel, &p.CreatedAt,
	}
	dest = append(dest, extra...)
	if err := row.Scan(dest...); err != nil {
		return err
	}
	p.Skills = []string{}
	if len(skillsJSON) > 0 {
		_ = json.Unmarshal(skillsJSON, &p.Skills)
	}
	return nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func emptyIfNil(skills []string) []string {
	if skills == nil {
		return []string{}
	}
	return skills
}
