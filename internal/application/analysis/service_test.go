package analysis

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/aura-impact/internal/application"
	appai "github.com/bryanwahyu/aura-impact/internal/application/ai"
	domain "github.com/bryanwahyu/aura-impact/internal/domain/analysis"
	"github.com/bryanwahyu/aura-impact/internal/domain/failures"
	"github.com/bryanwahyu/aura-impact/internal/domain/points"
)

// ==== fakes ====

type memRepo struct {
	mu      sync.Mutex
	results []*domain.Result
	ledger  []*points.LedgerEntry
	failErr error
}

func (m *memRepo) CreateWithLedger(_ context.Context, r *domain.Result, e *points.LedgerEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return m.failErr
	}
	m.results = append(m.results, r)
	m.ledger = append(m.ledger, e)
	return nil
}

func (m *memRepo) Get(_ context.Context, owner string, id domain.ResultID) (*domain.Result, error) {
	for _, r := range m.results {
		if r.OwnerID == owner && r.ID == id {
			return r, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memRepo) Paginate(_ context.Context, owner string, page, pageSize int) (domain.PaginatedResult, error) {
	return domain.PaginatedResult{Page: page, PageSize: pageSize}, nil
}

func (m *memRepo) Recent(context.Context, string, int) ([]*domain.Result, error) { return nil, nil }

func (m *memRepo) Count(context.Context, string) (int64, error) { return int64(len(m.results)), nil }

func (m *memRepo) RatingDistribution(context.Context, string) (map[domain.Rating]int, error) {
	return nil, nil
}

type stubOCR struct {
	text, provider string
	err            error
	calls          int
}

func (s *stubOCR) ExtractText(context.Context, []byte) (string, string, error) {
	s.calls++
	return s.text, s.provider, s.err
}

type stubScorer struct {
	raw   domain.RawScore
	calls int
	text  string
}

func (s *stubScorer) Score(_ context.Context, name, text string) domain.RawScore {
	s.calls++
	s.text = text
	raw := s.raw
	raw.SuppliedName = name
	return raw
}

type memArchive struct {
	objects map[string][]byte
	putErr  error
}

func (a *memArchive) PutImage(_ context.Context, key string, data []byte, _ string) (string, error) {
	if a.putErr != nil {
		return "", a.putErr
	}
	if a.objects == nil {
		a.objects = map[string][]byte{}
	}
	a.objects[key] = data
	return "http://minio/aura/" + key, nil
}

func (a *memArchive) Remove(_ context.Context, key string) error {
	delete(a.objects, key)
	return nil
}

type memFailures struct{ saved []*failures.Failure }

func (m *memFailures) Save(_ context.Context, f *failures.Failure) error {
	m.saved = append(m.saved, f)
	return nil
}

func (m *memFailures) ListByOwner(context.Context, string, int) ([]*failures.Failure, error) {
	return m.saved, nil
}

var fixedNow = time.Date(2024, 5, 10, 8, 30, 0, 0, time.UTC)

func newService(repo *memRepo, ocr *stubOCR, scorer *stubScorer) *Service {
	return &Service{
		Repo:   repo,
		OCR:    ocr,
		Scorer: scorer,
		Clock:  application.FixedClock{T: fixedNow},
		Log:    zerolog.Nop(),
	}
}

// ==== tests ====

func TestAnalyze_TypedTextSkipsOCR(t *testing.T) {
	repo := &memRepo{}
	ocr := &stubOCR{text: "from image"}
	scorer := &stubScorer{raw: domain.RawScore{
		DetectedProductName: "Bamboo Toothbrush", Rating: "friendly", Points: 80.0,
		Explanation: "Compostable handle.", Alternatives: "None needed.",
	}}
	svc := newService(repo, ocr, scorer)

	out, err := svc.Analyze(context.Background(), domain.Request{
		OwnerID:        "u1",
		ProductName:    "Toothbrush",
		IngredientText: " Bamboo, Nylon ",
		Image:          []byte("\x89PNG"),
	})
	require.NoError(t, err)
	assert.Equal(t, 0, ocr.calls)
	assert.Equal(t, "Bamboo, Nylon", scorer.text)

	res := out.Result
	assert.Equal(t, "Bamboo Toothbrush", res.ProductName)
	assert.Equal(t, domain.RatingFriendly, res.Rating)
	assert.Equal(t, 96, res.PointsAwarded)
	assert.Equal(t, domain.TextSourceTyped, res.TextSource)
	assert.Equal(t, fixedNow, res.CreatedAt)
	assert.Equal(t, "success", out.RatingColor)
	assert.Equal(t, []State{StateReceived, StateScored, StateNormalized, StatePersisted}, out.States)

	require.Len(t, repo.ledger, 1)
	e := repo.ledger[0]
	assert.Equal(t, 96, e.Points)
	assert.Equal(t, points.SourceAnalysis, e.SourceType)
	require.NotNil(t, e.SourceID)
	assert.Equal(t, string(res.ID), *e.SourceID)
}

func TestAnalyze_ImageOnlyRunsOCR(t *testing.T) {
	repo := &memRepo{}
	ocr := &stubOCR{text: "Water, Fragrance", provider: "tesseract"}
	scorer := &stubScorer{raw: domain.RawScore{Rating: "harmful", Points: 40.0}}
	svc := newService(repo, ocr, scorer)

	out, err := svc.Analyze(context.Background(), domain.Request{OwnerID: "u1", Image: []byte("jpeg")})
	require.NoError(t, err)
	assert.Equal(t, 1, ocr.calls)
	assert.Equal(t, "Water, Fragrance", scorer.text)
	assert.Equal(t, "ocr:tesseract", out.Result.TextSource)
	assert.Equal(t, 32, out.Result.PointsAwarded)
	assert.Contains(t, out.States, StateTextExtracted)
}

func TestAnalyze_ScoringFallbackIsPersisted(t *testing.T) {
	repo := &memRepo{}
	scorer := &stubScorer{raw: appai.FallbackScore("", "The analysis service is unavailable.")}
	svc := newService(repo, &stubOCR{}, scorer)

	out, err := svc.Analyze(context.Background(), domain.Request{
		OwnerID:        "u1",
		IngredientText: "Water, Sodium Laureth Sulfate, Fragrance",
	})
	require.NoError(t, err)
	res := out.Result
	assert.Equal(t, domain.RatingModerate, res.Rating)
	assert.Equal(t, 50, res.PointsAwarded)
	assert.True(t, res.ScoringFallback)
	assert.Contains(t, res.ExplanationText, "Unable to complete analysis")
	require.Len(t, repo.ledger, 1)
	assert.Equal(t, 50, repo.ledger[0].Points)
}

func TestAnalyze_ValidationBeforeAnyCall(t *testing.T) {
	cases := map[string]domain.Request{
		"no owner":      {IngredientText: "Water"},
		"nothing given": {OwnerID: "u1", IngredientText: "   "},
		"huge text":     {OwnerID: "u1", IngredientText: strings.Repeat("a", domain.MaxIngredientLen+1)},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			repo, ocr, scorer := &memRepo{}, &stubOCR{}, &stubScorer{}
			fails := &memFailures{}
			svc := newService(repo, ocr, scorer)
			svc.Failures = fails

			_, err := svc.Analyze(context.Background(), req)
			var vErr *domain.ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, 0, ocr.calls)
			assert.Equal(t, 0, scorer.calls)
			assert.Empty(t, repo.results)
		})
	}
}

func TestAnalyze_OversizedImage(t *testing.T) {
	svc := newService(&memRepo{}, &stubOCR{}, &stubScorer{})
	svc.MaxImageBytes = 8
	_, err := svc.Analyze(context.Background(), domain.Request{OwnerID: "u1", Image: []byte("123456789")})
	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "image", vErr.Field)
}

func TestAnalyze_OCRFailure(t *testing.T) {
	repo := &memRepo{}
	scorer := &stubScorer{}
	fails := &memFailures{}
	ocrErr := &domain.OCRError{Reason: "unreadable", Attempts: []error{
		errors.New("ocrspace: timeout"),
		errors.New("tesseract: no text found"),
	}}
	svc := newService(repo, &stubOCR{err: ocrErr}, scorer)
	svc.Failures = fails

	_, err := svc.Analyze(context.Background(), domain.Request{OwnerID: "u1", Image: []byte("img")})
	require.ErrorAs(t, err, &ocrErr)
	assert.Equal(t, 0, scorer.calls)
	assert.Empty(t, repo.results)
	require.Len(t, fails.saved, 1)
	assert.Equal(t, failures.StageOCR, fails.saved[0].Stage)

	var details struct {
		Reason   string   `json:"reason"`
		Attempts []string `json:"attempts"`
		States   []State  `json:"states"`
	}
	require.NoError(t, json.Unmarshal([]byte(fails.saved[0].DetailsJSON), &details))
	assert.Equal(t, "unreadable", details.Reason)
	assert.Equal(t, []string{"ocrspace: timeout", "tesseract: no text found"}, details.Attempts)
	assert.Equal(t, []State{StateReceived, StateFailed}, details.States)
}

// blockingScorer answers only after the context ends, like a provider that
// outlives the request budget and then yields the fallback.
type blockingScorer struct{}

func (blockingScorer) Score(ctx context.Context, name, _ string) domain.RawScore {
	<-ctx.Done()
	return appai.FallbackScore(name, "timed out")
}

func TestAnalyze_DeadlineDropsLateResult(t *testing.T) {
	repo := &memRepo{}
	archive := &memArchive{}
	fails := &memFailures{}
	svc := &Service{
		Repo:     repo,
		OCR:      &stubOCR{},
		Scorer:   blockingScorer{},
		Archive:  archive,
		Failures: fails,
		Clock:    application.FixedClock{T: fixedNow},
		Log:      zerolog.Nop(),
		Timeout:  20 * time.Millisecond,
	}

	_, err := svc.Analyze(context.Background(), domain.Request{
		OwnerID: "u1", IngredientText: "Water", Image: []byte("img"),
	})
	var pErr *domain.PersistenceError
	require.ErrorAs(t, err, &pErr)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Empty(t, repo.results)
	assert.Empty(t, repo.ledger)
	assert.Empty(t, archive.objects)
	require.Len(t, fails.saved, 1)
	assert.Equal(t, failures.StageTimeout, fails.saved[0].Stage)
}

func TestRecentFailures(t *testing.T) {
	svc := newService(&memRepo{}, &stubOCR{}, &stubScorer{})
	list, err := svc.RecentFailures(context.Background(), "u1", 5)
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)

	svc.Failures = &memFailures{}
	_, _ = svc.Analyze(context.Background(), domain.Request{OwnerID: "u1"})
	list, err = svc.RecentFailures(context.Background(), "u1", 5)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, failures.StageValidation, list[0].Stage)
	assert.Contains(t, list[0].DetailsJSON, `"field":"ingredients"`)
}

func TestAnalyze_PersistenceFailureLeavesNothing(t *testing.T) {
	repo := &memRepo{failErr: errors.New("deadlock")}
	archive := &memArchive{}
	fails := &memFailures{}
	svc := newService(repo, &stubOCR{}, &stubScorer{raw: domain.RawScore{Rating: "friendly", Points: 70.0}})
	svc.Archive = archive
	svc.Failures = fails

	_, err := svc.Analyze(context.Background(), domain.Request{
		OwnerID: "u1", IngredientText: "Water", Image: []byte("\xff\xd8\xff\xe0 jpeg"),
	})
	var pErr *domain.PersistenceError
	require.ErrorAs(t, err, &pErr)
	assert.Empty(t, repo.results)
	assert.Empty(t, repo.ledger)
	assert.Empty(t, archive.objects, "archived photo must be removed")
	require.Len(t, fails.saved, 1)
	assert.Equal(t, failures.StageStorage, fails.saved[0].Stage)
}

func TestAnalyze_ArchiveFailureIsIgnored(t *testing.T) {
	repo := &memRepo{}
	svc := newService(repo, &stubOCR{}, &stubScorer{raw: domain.RawScore{Rating: "moderate", Points: 60.0}})
	svc.Archive = &memArchive{putErr: errors.New("minio down")}

	out, err := svc.Analyze(context.Background(), domain.Request{OwnerID: "u1", IngredientText: "Water", Image: []byte("img")})
	require.NoError(t, err)
	assert.Empty(t, out.Result.ImageURL)
	assert.Len(t, repo.results, 1)
}

func TestAnalyze_ArchivesImage(t *testing.T) {
	archive := &memArchive{}
	svc := newService(&memRepo{}, &stubOCR{text: "Aqua", provider: "ocrspace"}, &stubScorer{raw: domain.RawScore{}})
	svc.Archive = archive

	out, err := svc.Analyze(context.Background(), domain.Request{
		OwnerID: "u1", Image: []byte("img"), ImageContentType: "image/png",
	})
	require.NoError(t, err)
	keys := make([]string, 0, len(archive.objects))
	for k := range archive.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	require.Len(t, keys, 1)
	assert.Equal(t, "u1/"+string(out.Result.ID)+".png", keys[0])
	assert.Equal(t, "http://minio/aura/"+keys[0], out.Result.ImageURL)
}

func TestHistory_ClampsPaging(t *testing.T) {
	svc := newService(&memRepo{}, &stubOCR{}, &stubScorer{})
	page, err := svc.History(context.Background(), "u1", 0, 500)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, maxPageSize, page.PageSize)
}
