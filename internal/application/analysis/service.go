package analysis

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/bryanwahyu/aura-impact/internal/application"
	domain "github.com/bryanwahyu/aura-impact/internal/domain/analysis"
	"github.com/bryanwahyu/aura-impact/internal/domain/failures"
	"github.com/bryanwahyu/aura-impact/internal/domain/points"
)

// State of one analysis run.
type State string

const (
	StateReceived      State = "received"
	StateTextExtracted State = "text_extracted"
	StateScored        State = "scored"
	StateNormalized    State = "normalized"
	StatePersisted     State = "persisted"
	StateFailed        State = "failed"
)

const (
	defaultPageSize = 10
	maxPageSize     = 50
	defaultMaxImage = 16 << 20
)

// Metrics observed by the orchestrator.
type Metrics interface {
	AnalysisCompleted(rating string, fallback bool)
	PipelineFailed(stage string)
}

// Service orchestrates OCR, scoring, normalization and persistence.
// Service is safe for concurrent use.
type Service struct {
	Repo          domain.Repository
	OCR           domain.TextExtractor
	Scorer        domain.Scorer
	Archive       domain.ImageArchive // optional
	Failures      failures.Repository // optional
	Clock         application.Clock
	Log           zerolog.Logger
	Metrics       Metrics
	MaxImageBytes int
	// Timeout bounds OCR, scoring and persistence together. Zero means no
	// limit beyond the caller's context.
	Timeout time.Duration
}

// Outcome is a persisted result plus its display attributes.
type Outcome struct {
	Result            *domain.Result `json:"result"`
	RatingColor       string         `json:"rating_color"`
	RatingDescription string         `json:"rating_description"`
	States            []State        `json:"states"`
}

type run struct {
	id     domain.ResultID
	owner  string
	states []State
	log    zerolog.Logger
}

func (r *run) enter(s State) {
	r.states = append(r.states, s)
	r.log.Debug().Str("state", string(s)).Msg("analysis state")
}

// Analyze runs the pipeline for one request. Typed ingredient text skips
// OCR even when an image is attached. On success exactly one result and one
// ledger entry were written; on failure nothing was.
func (s *Service) Analyze(ctx context.Context, req domain.Request) (*Outcome, error) {
	id := domain.ResultID(uuid.NewString())
	r := &run{
		id:    id,
		owner: req.OwnerID,
		log:   s.Log.With().Str("analysis_id", string(id)).Str("owner", req.OwnerID).Logger(),
	}
	r.enter(StateReceived)

	if err := s.validate(req); err != nil {
		return nil, s.fail(ctx, r, failures.StageValidation, err)
	}

	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	text := strings.TrimSpace(req.IngredientText)
	source := domain.TextSourceTyped
	if text == "" {
		extracted, provider, err := s.OCR.ExtractText(ctx, req.Image)
		if err != nil {
			stage := failures.StageOCR
			var vErr *domain.ValidationError
			if errors.As(err, &vErr) {
				stage = failures.StageValidation
			}
			return nil, s.fail(ctx, r, stage, err)
		}
		text = truncate(extracted, domain.MaxIngredientLen)
		source = domain.OCRTextSource(provider)
		r.enter(StateTextExtracted)
	}

	imageKey, imageURL := s.archive(ctx, r, req)

	raw := s.Scorer.Score(ctx, req.ProductName, text)
	r.enter(StateScored)

	n := domain.Normalize(raw)
	r.enter(StateNormalized)

	// a late result is dropped rather than committed behind a failed reply
	if err := ctx.Err(); err != nil {
		s.removeImage(ctx, r, imageKey)
		return nil, s.fail(ctx, r, failures.StageTimeout, &domain.PersistenceError{Op: "analysis", Err: err})
	}

	now := s.Clock.Now().UTC()
	result := &domain.Result{
		ID:               id,
		OwnerID:          req.OwnerID,
		ProductName:      n.ProductName,
		IngredientText:   text,
		Rating:           n.Rating,
		PointsAwarded:    domain.FinalPoints(n.Rating, n.Points),
		ExplanationText:  n.Explanation,
		AlternativesText: n.Alternatives,
		TextSource:       source,
		ImageURL:         imageURL,
		ScoringFallback:  n.Fallback,
		CreatedAt:        now,
	}
	sourceID := string(id)
	entry := &points.LedgerEntry{
		ID:         uuid.NewString(),
		OwnerID:    req.OwnerID,
		Points:     result.PointsAwarded,
		SourceType: points.SourceAnalysis,
		SourceID:   &sourceID,
		CreatedAt:  now,
	}

	if err := s.Repo.CreateWithLedger(ctx, result, entry); err != nil {
		s.removeImage(ctx, r, imageKey)
		return nil, s.fail(ctx, r, failures.StageStorage, &domain.PersistenceError{Op: "analysis", Err: err})
	}
	r.enter(StatePersisted)

	if s.Metrics != nil {
		s.Metrics.AnalysisCompleted(string(result.Rating), result.ScoringFallback)
	}
	r.log.Info().
		Str("rating", string(result.Rating)).
		Int("points", result.PointsAwarded).
		Bool("fallback", result.ScoringFallback).
		Str("text_source", source).
		Msg("analysis persisted")

	return &Outcome{
		Result:            result,
		RatingColor:       domain.RatingColor(result.Rating),
		RatingDescription: domain.RatingDescription(result.Rating),
		States:            r.states,
	}, nil
}

func (s *Service) validate(req domain.Request) error {
	if strings.TrimSpace(req.OwnerID) == "" {
		return &domain.ValidationError{Field: "owner", Message: "owner is required"}
	}
	text := strings.TrimSpace(req.IngredientText)
	if text == "" && len(req.Image) == 0 {
		return &domain.ValidationError{Field: "ingredients", Message: "provide ingredient text or an image"}
	}
	if utf8.RuneCountInString(text) > domain.MaxIngredientLen {
		return &domain.ValidationError{
			Field:   "ingredients",
			Message: fmt.Sprintf("ingredient text exceeds %d characters", domain.MaxIngredientLen),
		}
	}
	limit := s.MaxImageBytes
	if limit <= 0 {
		limit = defaultMaxImage
	}
	if len(req.Image) > limit {
		return &domain.ValidationError{Field: "image", Message: fmt.Sprintf("image exceeds %d bytes", limit)}
	}
	return nil
}

// archive stores the source photo; failures only cost the photo link.
func (s *Service) archive(ctx context.Context, r *run, req domain.Request) (key, url string) {
	if s.Archive == nil || len(req.Image) == 0 {
		return "", ""
	}
	contentType := req.ImageContentType
	if contentType == "" {
		contentType = http.DetectContentType(req.Image)
	}
	key = fmt.Sprintf("%s/%s%s", req.OwnerID, r.id, extension(contentType))
	url, err := s.Archive.PutImage(ctx, key, req.Image, contentType)
	if err != nil {
		r.log.Warn().Err(err).Msg("archive source image")
		return "", ""
	}
	return key, url
}

func (s *Service) removeImage(ctx context.Context, r *run, key string) {
	if key == "" {
		return
	}
	if err := s.Archive.Remove(context.WithoutCancel(ctx), key); err != nil {
		r.log.Warn().Err(err).Str("key", key).Msg("remove archived image")
	}
}

func (s *Service) fail(ctx context.Context, r *run, stage failures.Stage, err error) error {
	r.enter(StateFailed)
	r.log.Warn().Err(err).Str("stage", string(stage)).Msg("analysis failed")
	if s.Metrics != nil {
		s.Metrics.PipelineFailed(string(stage))
	}
	if s.Failures != nil && r.owner != "" {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		f := &failures.Failure{
			OwnerID:     r.owner,
			Stage:       stage,
			Message:     err.Error(),
			DetailsJSON: failureDetails(r, err),
			CreatedAt:   s.Clock.Now().UTC(),
		}
		if saveErr := s.Failures.Save(ctx, f); saveErr != nil {
			r.log.Error().Err(saveErr).Msg("record pipeline failure")
		}
	}
	return err
}

// failureDetails keeps the structured parts of err for the audit row.
func failureDetails(r *run, err error) string {
	details := map[string]any{"analysis_id": r.id, "states": r.states}
	var (
		vErr *domain.ValidationError
		oErr *domain.OCRError
		pErr *domain.PersistenceError
	)
	switch {
	case errors.As(err, &vErr):
		details["field"] = vErr.Field
	case errors.As(err, &oErr):
		attempts := make([]string, 0, len(oErr.Attempts))
		for _, a := range oErr.Attempts {
			attempts = append(attempts, a.Error())
		}
		details["reason"] = oErr.Reason
		details["attempts"] = attempts
	case errors.As(err, &pErr):
		details["op"] = pErr.Op
		if pErr.Err != nil {
			details["cause"] = pErr.Err.Error()
		}
	}
	b, mErr := json.Marshal(details)
	if mErr != nil {
		return ""
	}
	return string(b)
}

// RecentFailures lists the owner's latest failed analyses, newest first.
func (s *Service) RecentFailures(ctx context.Context, owner string, limit int) ([]*failures.Failure, error) {
	if s.Failures == nil {
		return []*failures.Failure{}, nil
	}
	out, err := s.Failures.ListByOwner(ctx, owner, limit)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []*failures.Failure{}
	}
	return out, nil
}

// Get returns one of the owner's analyses.
func (s *Service) Get(ctx context.Context, owner string, id domain.ResultID) (*domain.Result, error) {
	return s.Repo.Get(ctx, owner, id)
}

// History returns the owner's analyses, newest first.
func (s *Service) History(ctx context.Context, owner string, page, pageSize int) (domain.PaginatedResult, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return s.Repo.Paginate(ctx, owner, page, pageSize)
}

func extension(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "image/bmp":
		return ".bmp"
	}
	return ""
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit])
}
