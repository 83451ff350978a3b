package sqlstore

import (
	"context"
	"strings"
	"time"

	"github.com/goccy/go-json"

	domain "github.com/bryanwahyu/aura-impact/internal/domain/failures"
)

type FailureRepository struct {
	*Store
}

func NewFailureRepository(s *Store) *FailureRepository { return &FailureRepository{Store: s} }

func (r *FailureRepository) Save(ctx context.Context, f *domain.Failure) error {
	owner := stringOrDash(f.OwnerID)
	stage := stringOrDash(string(f.Stage))
	msg := stringOrDash(f.Message)
	details := f.DetailsJSON
	if strings.TrimSpace(details) == "" {
		details = "{}"
	} else if !json.Valid([]byte(details)) {
		// ensure valid json; if invalid, wrap as string field
		b, _ := json.Marshal(map[string]string{"raw": details})
		details = string(b)
	}
	created := f.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	_, err := r.exec(ctx, r.db, `
INSERT INTO analysis_failures (owner_id, stage, message, details_json, created_at)
VALUES (?,?,?,?,?)`, owner, stage, msg, details, created)
	return err
}

func (r *FailureRepository) ListByOwner(ctx context.Context, owner string, limit int) ([]*domain.Failure, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx, r.d.Rebind(`
SELECT id, owner_id, stage, message, details_json, created_at
FROM analysis_failures
WHERE owner_id=?
ORDER BY created_at DESC, id DESC
LIMIT ?`), owner, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Failure
	for rows.Next() {
		var f domain.Failure
		var stage string
		if err := rows.Scan(&f.ID, &f.OwnerID, &stage, &f.Message, &f.DetailsJSON, &f.CreatedAt); err != nil {
			return nil, err
		}
		f.Stage = domain.Stage(stage)
		out = append(out, &f)
	}
	return out, rows.Err()
}
