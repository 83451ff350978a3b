package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	domain "github.com/bryanwahyu/aura-impact/internal/domain/analysis"
	"github.com/bryanwahyu/aura-impact/internal/domain/points"
)

type AnalysisRepository struct {
	*Store
}

func NewAnalysisRepository(s *Store) *AnalysisRepository { return &AnalysisRepository{Store: s} }

const analysisColumns = `id, owner_id, product_name, ingredient_text, rating, points_awarded,
 explanation_text, alternatives_text, text_source, image_url, scoring_fallback, created_at`

// CreateWithLedger inserts the result and its ledger entry atomically.
func (r *AnalysisRepository) CreateWithLedger(ctx context.Context, a *domain.Result, e *points.LedgerEntry) error {
	createdAt := a.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	return r.withTx(ctx, func(tx *sql.Tx) error {
		_, err := r.exec(ctx, tx, `
INSERT INTO product_analyses (`+analysisColumns+`)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
			a.ID, a.OwnerID, stringOrDash(a.ProductName), a.IngredientText, string(a.Rating), a.PointsAwarded,
			a.ExplanationText, a.AlternativesText, a.TextSource, nullString(a.ImageURL), a.ScoringFallback, createdAt,
		)
		if err != nil {
			return fmt.Errorf("insert analysis: %w", err)
		}
		if err := insertLedgerEntry(ctx, r.Store, tx, e); err != nil {
			return err
		}
		return nil
	})
}

func insertLedgerEntry(ctx context.Context, s *Store, q queryer, e *points.LedgerEntry) error {
	created := e.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	_, err := s.exec(ctx, q, `
INSERT INTO points_ledger (id, owner_id, points, source_type, source_id, created_at)
VALUES (?,?,?,?,?,?)`,
		e.ID, e.OwnerID, e.Points, string(e.SourceType), nullStringPtr(e.SourceID), created,
	)
	if err != nil {
		return fmt.Errorf("insert ledger entry: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAnalysis(row rowScanner) (*domain.Result, error) {
	var a domain.Result
	var rating string
	var imageURL sql.NullString
	if err := row.Scan(
		&a.ID, &a.OwnerID, &a.ProductName, &a.IngredientText, &rating, &a.PointsAwarded,
		&a.ExplanationText, &a.AlternativesText, &a.TextSource, &imageURL, &a.ScoringFallback, &a.CreatedAt,
	); err != nil {
		return nil, err
	}
	a.Rating = domain.Rating(rating)
	a.ImageURL = imageURL.String
	a.CreatedAt = a.CreatedAt.UTC()
	return &a, nil
}

// Get by ID + owner
func (r *AnalysisRepository) Get(ctx context.Context, owner string, id domain.ResultID) (*domain.Result, error) {
	row := r.db.QueryRowContext(ctx, r.d.Rebind(`
SELECT `+analysisColumns+`
FROM product_analyses
WHERE owner_id=? AND id=?`), owner, id)
	a, err := scanAnalysis(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return a, err
}

func (r *AnalysisRepository) list(ctx context.Context, owner string, limit, offset int) ([]*domain.Result, error) {
	rows, err := r.db.QueryContext(ctx, r.d.Rebind(`
SELECT `+analysisColumns+`
FROM product_analyses
WHERE owner_id=?
ORDER BY created_at DESC, id DESC
LIMIT ? OFFSET ?`), owner, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*domain.Result{}
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Paginate returns a page of analyses ordered by created_at desc
func (r *AnalysisRepository) Paginate(ctx context.Context, owner string, page, pageSize int) (domain.PaginatedResult, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 10
	}
	total, err := r.Count(ctx, owner)
	if err != nil {
		return domain.PaginatedResult{}, err
	}
	data, err := r.list(ctx, owner, pageSize, (page-1)*pageSize)
	if err != nil {
		return domain.PaginatedResult{}, err
	}
	return domain.PaginatedResult{
		Data:       data,
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: int(math.Ceil(float64(total) / float64(pageSize))),
	}, nil
}

// Recent returns the newest analyses of the owner.
func (r *AnalysisRepository) Recent(ctx context.Context, owner string, limit int) ([]*domain.Result, error) {
	if limit <= 0 {
		limit = 5
	}
	return r.list(ctx, owner, limit, 0)
}

func (r *AnalysisRepository) Count(ctx context.Context, owner string) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, r.d.Rebind(`SELECT COUNT(*) FROM product_analyses WHERE owner_id=?`), owner).Scan(&n)
	return n, err
}

func (r *AnalysisRepository) RatingDistribution(ctx context.Context, owner string) (map[domain.Rating]int, error) {
	rows, err := r.db.QueryContext(ctx, r.d.Rebind(`
SELECT rating, COUNT(*)
FROM product_analyses
WHERE owner_id=?
GROUP BY rating`), owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[domain.Rating]int)
	for rows.Next() {
		var rating string
		var n int
		if err := rows.Scan(&rating, &n); err != nil {
			return nil, err
		}
		out[domain.Rating(rating)] = n
	}
	return out, rows.Err()
}
