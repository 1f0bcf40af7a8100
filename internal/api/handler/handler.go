package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/lou463/Underscore-Resume-BETA01/internal/analysis"
	"github.com/lou463/Underscore-Resume-BETA01/internal/analysis/store"
	"github.com/lou463/Underscore-Resume-BETA01/internal/api"
	"github.com/lou463/Underscore-Resume-BETA01/internal/api/validator"
	"github.com/lou463/Underscore-Resume-BETA01/internal/ats"
	"github.com/lou463/Underscore-Resume-BETA01/internal/document"
	"github.com/lou463/Underscore-Resume-BETA01/internal/matcher/overlap"
	"github.com/lou463/Underscore-Resume-BETA01/internal/scoring"
	"github.com/lou463/Underscore-Resume-BETA01/internal/scoring/cache"
	apperrors "github.com/lou463/Underscore-Resume-BETA01/pkg/errors"
	"github.com/lou463/Underscore-Resume-BETA01/pkg/logger"
	"github.com/lou463/Underscore-Resume-BETA01/pkg/metrics"
	"github.com/lou463/Underscore-Resume-BETA01/pkg/tracing"
	"golang.org/x/sync/errgroup"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
	multipartMemory  = 8 << 20
)

type Scorer interface {
	Keywords(ctx context.Context, text string, opts scoring.Options) ([]string, error)
	Compare(ctx context.Context, candidate, reference string, opts scoring.Options) (overlap.Result, error)
}

type Analyzer interface {
	Analyze(ctx context.Context, req analysis.Request) (*analysis.Analysis, error)
}

type Extractor interface {
	Extract(ctx context.Context, mimeType string, data []byte) (string, error)
}

// DocumentSource is implemented by document.S3Source.
type DocumentSource interface {
	Fetch(ctx context.Context, key string) ([]byte, error)
}

// CacheAdmin is implemented by cache.ResultCache.
type CacheAdmin interface {
	Stats() cache.Stats
	Invalidate(ctx context.Context) (int64, error)
}

// Deps are the collaborators of the handler. Source, Store, Cache and
// Metrics may be nil.
type Deps struct {
	Scorer       Scorer
	Analyzer     Analyzer
	Extractor    Extractor
	Source       DocumentSource
	Store        store.Store
	Cache        CacheAdmin
	Metrics      *metrics.Metrics
	MaxBodyBytes int64
}

type Handler struct {
	deps   Deps
	logger *slog.Logger
}

func New(deps Deps) *Handler {
	return &Handler{
		deps:   deps,
		logger: slog.Default().With("component", "api-handler"),
	}
}

// Register mounts the API routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/keywords", h.Keywords)
	mux.HandleFunc("POST /api/v1/score", h.Score)
	mux.HandleFunc("POST /api/v1/analyses", h.CreateAnalysis)
	mux.HandleFunc("GET /api/v1/analyses", h.ListAnalyses)
	mux.HandleFunc("GET /api/v1/analyses/{id}", h.GetAnalysis)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", h.InvalidateCache)
}

func (h *Handler) Keywords(w http.ResponseWriter, r *http.Request) {
	var req api.KeywordsRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	if err := validator.ValidateKeywordsRequest(&req); err != nil {
		h.writeValidation(w, err)
		return
	}
	keywords, err := h.deps.Scorer.Keywords(r.Context(), req.Text, req.Options)
	if err != nil {
		h.writeAppError(w, r, "keyword extraction failed", err)
		return
	}
	h.writeJSON(w, http.StatusOK, api.KeywordsResponse{Keywords: keywords, Count: len(keywords)})
}

func (h *Handler) Score(w http.ResponseWriter, r *http.Request) {
	var req api.ScoreRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	if err := validator.ValidateScoreRequest(&req); err != nil {
		h.writeValidation(w, err)
		return
	}
	result, err := h.deps.Scorer.Compare(r.Context(), req.Candidate, req.Reference, req.Options)
	if err != nil {
		h.writeAppError(w, r, "scoring failed", err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

// CreateAnalysis accepts a multipart upload: resume (file) or resume_key
// (object storage key), job_description (required), tailored (file) or
// tailored_text, axes (JSON) and options (JSON).
func (h *Handler) CreateAnalysis(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	ctx, span := tracing.StartSpan(r.Context(), "create_analysis", logger.RequestID(r.Context()))
	defer func() {
		span.End()
		span.Log(ctx, log)
	}()

	form, err := h.parseAnalysisForm(w, r)
	if err != nil {
		h.writeAppError(w, r, "invalid upload", err)
		return
	}
	if err := validator.ValidateAnalysisForm(form); err != nil {
		h.writeValidation(w, err)
		return
	}

	if form.ResumeKey != "" {
		if h.deps.Source == nil {
			h.writeError(w, http.StatusBadRequest, "object storage is not configured; upload the resume file instead")
			return
		}
		_, fetchSpan := tracing.StartChildSpan(ctx, "fetch_resume")
		data, err := h.deps.Source.Fetch(ctx, form.ResumeKey)
		fetchSpan.SetAttr("bytes", len(data))
		fetchSpan.End()
		if err != nil {
			h.writeAppError(w, r, "fetching resume failed", err)
			return
		}
		form.ResumeName, form.ResumeData = path.Base(form.ResumeKey), data
	}

	axes, err := parseAxes(form.Axes)
	if err != nil {
		h.writeAppError(w, r, "invalid axes", err)
		return
	}

	var resumeText, tailoredText string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		text, err := h.extract(gctx, "extract_resume", form.ResumeName, form.ResumeData)
		if err != nil {
			return fmt.Errorf("resume: %w", err)
		}
		resumeText = text
		return nil
	})
	if len(form.TailoredData) > 0 {
		g.Go(func() error {
			text, err := h.extract(gctx, "extract_tailored", form.TailoredName, form.TailoredData)
			if err != nil {
				return fmt.Errorf("tailored resume: %w", err)
			}
			tailoredText = text
			return nil
		})
	} else {
		tailoredText = form.TailoredText
	}
	if err := g.Wait(); err != nil {
		h.writeAppError(w, r, "document extraction failed", err)
		return
	}

	_, analyzeSpan := tracing.StartChildSpan(ctx, "analyze")
	result, err := h.deps.Analyzer.Analyze(ctx, analysis.Request{
		ResumeName:     form.ResumeName,
		ResumeText:     resumeText,
		JobDescription: form.JobDescription,
		TailoredText:   tailoredText,
		Axes:           axes,
		Options:        form.Options,
	})
	analyzeSpan.End()
	if err != nil {
		h.writeAppError(w, r, "analysis failed", err)
		return
	}

	stored := false
	if h.deps.Store != nil {
		_, storeSpan := tracing.StartChildSpan(ctx, "store")
		err := h.deps.Store.Save(ctx, result)
		storeSpan.End()
		if err != nil {
			log.Error("storing analysis failed", "id", result.ID, "error", err)
			h.countStored("error")
		} else {
			stored = true
			h.countStored("ok")
		}
	}
	span.SetAttr("analysis_id", result.ID)
	log.Info("analysis created",
		"id", result.ID,
		"keyword_score", result.Original.Score,
		"improvement", result.Comparison.Improvement,
		"stored", stored,
	)
	h.writeJSON(w, http.StatusCreated, api.AnalysisResponse{Analysis: result, Stored: stored})
}

func (h *Handler) extract(ctx context.Context, spanName, filename string, data []byte) (string, error) {
	ctx, span := tracing.StartChildSpan(ctx, spanName)
	defer span.End()
	mimeType := document.DetectType(filename, data)
	span.SetAttr("type", mimeType)
	span.SetAttr("bytes", len(data))
	return h.deps.Extractor.Extract(ctx, mimeType, data)
}

func (h *Handler) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	if h.deps.Store == nil {
		h.writeError(w, http.StatusNotFound, "analysis storage is not configured")
		return
	}
	result, err := h.deps.Store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeAppError(w, r, "loading analysis failed", err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) ListAnalyses(w http.ResponseWriter, r *http.Request) {
	if h.deps.Store == nil {
		h.writeError(w, http.StatusNotFound, "analysis storage is not configured")
		return
	}
	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			h.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(parsed, maxListLimit)
	}
	list, err := h.deps.Store.List(r.Context(), limit)
	if err != nil {
		h.writeAppError(w, r, "listing analyses failed", err)
		return
	}
	h.writeJSON(w, http.StatusOK, api.AnalysisList{Analyses: list, Count: len(list)})
}

func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.deps.Cache == nil {
		h.writeJSON(w, http.StatusOK, api.CacheStatsResponse{Enabled: false})
		return
	}
	h.writeJSON(w, http.StatusOK, api.CacheStatsResponse{Enabled: true, Stats: h.deps.Cache.Stats()})
}

func (h *Handler) InvalidateCache(w http.ResponseWriter, r *http.Request) {
	if h.deps.Cache == nil {
		h.writeError(w, http.StatusNotFound, "cache is not enabled")
		return
	}
	deleted, err := h.deps.Cache.Invalidate(r.Context())
	if err != nil {
		h.writeAppError(w, r, "cache invalidation failed", err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]int64{"deleted": deleted})
}

func (h *Handler) parseAnalysisForm(w http.ResponseWriter, r *http.Request) (*api.AnalysisForm, error) {
	if h.deps.MaxBodyBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.deps.MaxBodyBytes)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, fmt.Errorf("%w: upload exceeds %d bytes", apperrors.ErrDocumentTooLarge, tooLarge.Limit)
		}
		return nil, fmt.Errorf("%w: expected multipart/form-data: %v", apperrors.ErrInvalidInput, err)
	}

	form := &api.AnalysisForm{
		JobDescription: r.FormValue("job_description"),
		ResumeKey:      strings.TrimSpace(r.FormValue("resume_key")),
		TailoredText:   r.FormValue("tailored_text"),
	}
	var err error
	if form.ResumeName, form.ResumeData, err = readFormFile(r, "resume"); err != nil {
		return nil, err
	}
	if form.TailoredName, form.TailoredData, err = readFormFile(r, "tailored"); err != nil {
		return nil, err
	}
	if raw := strings.TrimSpace(r.FormValue("axes")); raw != "" {
		if err := json.Unmarshal([]byte(raw), &form.Axes); err != nil {
			return nil, fmt.Errorf("%w: axes must be a JSON object: %v", apperrors.ErrInvalidInput, err)
		}
	}
	if raw := strings.TrimSpace(r.FormValue("options")); raw != "" {
		if err := json.Unmarshal([]byte(raw), &form.Options); err != nil {
			return nil, fmt.Errorf("%w: options must be a JSON object: %v", apperrors.ErrInvalidInput, err)
		}
	}
	return form, nil
}

// readFormFile returns empty values when the field is absent.
func readFormFile(r *http.Request, field string) (string, []byte, error) {
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return "", nil, nil
	}
	if err != nil {
		return "", nil, fmt.Errorf("%w: reading %s: %v", apperrors.ErrInvalidInput, field, err)
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		return "", nil, fmt.Errorf("%w: reading %s: %v", apperrors.ErrInvalidInput, field, err)
	}
	return header.Filename, data, nil
}

func parseAxes(p api.AxesPayload) (analysis.Axes, error) {
	var axes analysis.Axes
	var err error
	if p.Original != nil {
		if axes.Original, err = ats.ParseSupplied(p.Original); err != nil {
			return axes, fmt.Errorf("original: %w", err)
		}
	}
	if p.Tailored != nil {
		if axes.Tailored, err = ats.ParseSupplied(p.Tailored); err != nil {
			return axes, fmt.Errorf("tailored: %w", err)
		}
	}
	return axes, nil
}

func (h *Handler) countStored(status string) {
	if h.deps.Metrics != nil {
		h.deps.Metrics.AnalysesStoredTotal.WithLabelValues(status).Inc()
	}
}

func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if h.deps.MaxBodyBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.deps.MaxBodyBytes)
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func (h *Handler) writeValidation(w http.ResponseWriter, err error) {
	var validationErr *validator.ValidationError
	if errors.As(err, &validationErr) {
		h.writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":  "validation failed",
			"fields": validationErr.Fields,
		})
		return
	}
	h.writeError(w, http.StatusBadRequest, err.Error())
}

// writeAppError maps err onto a status code. Client errors echo the message;
// server errors are logged and answered generically.
func (h *Handler) writeAppError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	status := apperrors.HTTPStatusCode(err)
	if status >= http.StatusInternalServerError {
		logger.FromContext(r.Context()).Error(msg, "error", err, "status_code", status)
		h.writeError(w, status, msg)
		return
	}
	logger.FromContext(r.Context()).Warn(msg, "error", err, "status_code", status)
	h.writeError(w, status, err.Error())
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
