package httpserver

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	appanalysis "github.com/bryanwahyu/aura-impact/internal/application/analysis"
	appdashboard "github.com/bryanwahyu/aura-impact/internal/application/dashboard"
	appocr "github.com/bryanwahyu/aura-impact/internal/application/ocr"
	apppoints "github.com/bryanwahyu/aura-impact/internal/application/points"
	domain "github.com/bryanwahyu/aura-impact/internal/domain/analysis"
	"github.com/bryanwahyu/aura-impact/internal/domain/points"
	"github.com/bryanwahyu/aura-impact/internal/middleware"
)

// Options wires the router. Health and Limiter are optional.
type Options struct {
	Analysis  *appanalysis.Service
	OCR       domain.TextExtractor
	Points    *apppoints.Service
	Dashboard *appdashboard.Service

	Health  map[string]middleware.HealthChecker
	Limiter *middleware.RateLimiter

	JWTSecret   []byte
	JWTIssuer   string
	CORSOrigins []string
	// MaxImageBytes caps uploads; the request body may exceed it by the
	// size of the other form fields.
	MaxImageBytes int
	Log           zerolog.Logger
}

type Router struct {
	opts Options
	log  zerolog.Logger
}

func NewRouter(opts Options) http.Handler {
	if opts.MaxImageBytes <= 0 {
		opts.MaxImageBytes = appocr.DefaultMaxImageBytes
	}
	r := &Router{opts: opts, log: opts.Log}
	mux := chi.NewRouter()

	mux.Use(chimw.Recoverer)
	mux.Use(middleware.RequestLogger(opts.Log))
	mux.Use(middleware.MetricsMiddleware)
	if len(opts.CORSOrigins) > 0 {
		mux.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Authorization", "Content-Type"},
			MaxAge:         300,
		}))
	}

	mux.Get("/health", middleware.HealthHandler(opts.Health))
	mux.Get("/ready", middleware.ReadinessHandler)
	mux.Get("/live", middleware.LivenessHandler)
	mux.Handle("/metrics", middleware.MetricsHandler())

	mux.Route("/v1", func(rt chi.Router) {
		rt.Use(middleware.JWTAuth(opts.JWTSecret, opts.JWTIssuer))
		if opts.Limiter != nil {
			rt.Use(middleware.RateLimitMiddleware(opts.Limiter))
		}

		rt.Post("/analyses", r.wrap(r.handleAnalyze))
		rt.Get("/analyses", r.wrap(r.handleHistory))
		rt.Get("/analyses/{id}", r.wrap(r.handleGet))
		rt.Post("/ocr", r.wrap(r.handleOCR))
		rt.Get("/failures", r.wrap(r.handleFailures))

		rt.Post("/streak/check-in", r.wrap(r.handleCheckIn))
		rt.Get("/points", r.wrap(r.handlePoints))
		rt.Get("/points/daily", r.wrap(r.handleDailyPoints))
		rt.Get("/leaderboard", r.wrap(r.handleLeaderboard))
		rt.Get("/dashboard", r.wrap(r.handleDashboard))
		rt.Get("/ratings", r.wrap(r.handleRatings))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			writeErr(w, r.log, err)
		}
	}
}

type analyzeInput struct {
	ProductName string `json:"product_name"`
	Ingredients string `json:"ingredients"`
	image       []byte
	contentType string
}

// readInput accepts multipart/form-data (with an optional image file) or a
// JSON body without image.
func (r *Router) readInput(w http.ResponseWriter, req *http.Request, imageRequired bool) (*analyzeInput, error) {
	limit := int64(r.opts.MaxImageBytes)
	req.Body = http.MaxBytesReader(w, req.Body, limit+1<<20)

	mediaType, _, _ := mime.ParseMediaType(req.Header.Get("Content-Type"))
	in := &analyzeInput{}
	switch mediaType {
	case "multipart/form-data":
		if err := req.ParseMultipartForm(8 << 20); err != nil {
			return nil, uploadError(err, limit)
		}
		in.ProductName = req.FormValue("product_name")
		in.Ingredients = req.FormValue("ingredients")

		file, hdr, err := req.FormFile("image")
		switch {
		case errors.Is(err, http.ErrMissingFile):
		case err != nil:
			return nil, fmt.Errorf("%w: read image: %v", errBadRequest, err)
		default:
			defer file.Close()
			data, err := io.ReadAll(io.LimitReader(file, limit+1))
			if err != nil {
				return nil, uploadError(err, limit)
			}
			if int64(len(data)) > limit {
				return nil, &domain.ValidationError{Field: "image", Message: fmt.Sprintf("image exceeds %d bytes", limit)}
			}
			in.image = data
			in.contentType = hdr.Header.Get("Content-Type")
		}
	case "application/json":
		if imageRequired {
			return nil, &domain.ValidationError{Field: "image", Message: "upload the image as multipart/form-data"}
		}
		if err := json.NewDecoder(req.Body).Decode(in); err != nil {
			return nil, fmt.Errorf("%w: invalid json: %v", errBadRequest, err)
		}
	default:
		return nil, fmt.Errorf("%w: unsupported content type %q", errBadRequest, mediaType)
	}

	if imageRequired && len(in.image) == 0 {
		return nil, &domain.ValidationError{Field: "image", Message: "image is required"}
	}
	in.ProductName = middleware.SanitizeString(in.ProductName)
	return in, nil
}

func uploadError(err error, limit int64) error {
	var tooBig *http.MaxBytesError
	if errors.As(err, &tooBig) {
		return &domain.ValidationError{Field: "image", Message: fmt.Sprintf("image exceeds %d bytes", limit)}
	}
	return fmt.Errorf("%w: %v", errBadRequest, err)
}

type resultView struct {
	*domain.Result
	RatingColor       string `json:"rating_color"`
	RatingDescription string `json:"rating_description"`
}

func viewOf(res *domain.Result) resultView {
	return resultView{
		Result:            res,
		RatingColor:       domain.RatingColor(res.Rating),
		RatingDescription: domain.RatingDescription(res.Rating),
	}
}

// POST /v1/analyses
func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) error {
	in, err := r.readInput(w, req, false)
	if err != nil {
		return err
	}
	out, err := r.opts.Analysis.Analyze(req.Context(), domain.Request{
		OwnerID:          middleware.GetOwnerFromContext(req.Context()),
		ProductName:      in.ProductName,
		IngredientText:   in.Ingredients,
		Image:            in.image,
		ImageContentType: in.contentType,
	})
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusCreated, out)
}

// POST /v1/ocr
func (r *Router) handleOCR(w http.ResponseWriter, req *http.Request) error {
	in, err := r.readInput(w, req, true)
	if err != nil {
		return err
	}
	text, provider, err := r.opts.OCR.ExtractText(req.Context(), in.image)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]string{"text": text, "provider": provider})
}

// GET /v1/analyses?page=&page_size=
func (r *Router) handleHistory(w http.ResponseWriter, req *http.Request) error {
	q := req.URL.Query()
	page := middleware.QueryInt(q.Get("page"), 1)
	size := middleware.QueryInt(q.Get("page_size"), 0)

	list, err := r.opts.Analysis.History(req.Context(), middleware.GetOwnerFromContext(req.Context()), page, size)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, list)
}

// GET /v1/analyses/{id}
func (r *Router) handleGet(w http.ResponseWriter, req *http.Request) error {
	id := chi.URLParam(req, "id")
	if err := middleware.ValidateAnalysisID(id); err != nil {
		return domain.ErrNotFound
	}
	res, err := r.opts.Analysis.Get(req.Context(), middleware.GetOwnerFromContext(req.Context()), domain.ResultID(id))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, viewOf(res))
}

// GET /v1/failures?limit=20
func (r *Router) handleFailures(w http.ResponseWriter, req *http.Request) error {
	limit := middleware.ValidateLimit(middleware.QueryInt(req.URL.Query().Get("limit"), 0))
	list, err := r.opts.Analysis.RecentFailures(req.Context(), middleware.GetOwnerFromContext(req.Context()), limit)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, list)
}

// POST /v1/streak/check-in
func (r *Router) handleCheckIn(w http.ResponseWriter, req *http.Request) error {
	res, err := r.opts.Points.RecordLogin(req.Context(), middleware.GetOwnerFromContext(req.Context()))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, res)
}

// GET /v1/points
func (r *Router) handlePoints(w http.ResponseWriter, req *http.Request) error {
	sum, err := r.opts.Points.Summary(req.Context(), middleware.GetOwnerFromContext(req.Context()))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, sum)
}

// GET /v1/points/daily?days=30
func (r *Router) handleDailyPoints(w http.ResponseWriter, req *http.Request) error {
	days := middleware.ValidateDays(middleware.QueryInt(req.URL.Query().Get("days"), 0))
	list, err := r.opts.Points.DailyPoints(req.Context(), middleware.GetOwnerFromContext(req.Context()), days)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, list)
}

// GET /v1/leaderboard?period=all|weekly&limit=20
func (r *Router) handleLeaderboard(w http.ResponseWriter, req *http.Request) error {
	q := req.URL.Query()
	period := points.Period(strings.ToLower(strings.TrimSpace(q.Get("period"))))
	switch period {
	case "":
		period = points.PeriodAll
	case points.PeriodAll, points.PeriodWeekly:
	default:
		return &domain.ValidationError{Field: "period", Message: "period must be all or weekly"}
	}
	limit := middleware.ValidateLimit(middleware.QueryInt(q.Get("limit"), 0))

	board, err := r.opts.Points.Leaderboard(req.Context(), period, limit)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]any{"period": period, "entries": board})
}

// GET /v1/dashboard
func (r *Router) handleDashboard(w http.ResponseWriter, req *http.Request) error {
	d, err := r.opts.Dashboard.Get(req.Context(), middleware.GetOwnerFromContext(req.Context()))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, d)
}

type ratingInfo struct {
	Rating            domain.Rating `json:"rating"`
	Color             string        `json:"color"`
	Description       string        `json:"description"`
	MultiplierPercent int           `json:"multiplier_percent"`
}

// GET /v1/ratings
func (r *Router) handleRatings(w http.ResponseWriter, req *http.Request) error {
	out := make([]ratingInfo, 0, len(domain.Ratings))
	for _, rt := range domain.Ratings {
		out = append(out, ratingInfo{
			Rating:            rt,
			Color:             domain.RatingColor(rt),
			Description:       domain.RatingDescription(rt),
			MultiplierPercent: domain.Multiplier(rt),
		})
	}
	return writeJSON(w, http.StatusOK, out)
}
