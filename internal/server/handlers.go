package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jmylchreest/contrastlens/internal/colour"
	"github.com/jmylchreest/contrastlens/internal/contrast"
	apperrors "github.com/jmylchreest/contrastlens/internal/errors"
	"github.com/jmylchreest/contrastlens/internal/image"
	"github.com/jmylchreest/contrastlens/internal/security"
	"github.com/jmylchreest/contrastlens/internal/version"
)

// AnalyzeRequest is the JSON body of POST /v1/analyze.
type AnalyzeRequest struct {
	URL string `json:"url"`
}

// AnalyzeResponse is returned by POST /v1/analyze. Total counts every failing
// block; Results holds only those passing the display threshold.
type AnalyzeResponse struct {
	Total     int               `json:"total"`
	Width     int               `json:"width"`
	Height    int               `json:"height"`
	BlockSize int               `json:"block_size"`
	Threshold float64           `json:"threshold"`
	Results   []contrast.Result `json:"results"`
	Summary   contrast.Summary  `json:"summary"`
}

// FilterRequest is the JSON body of POST /v1/filter.
type FilterRequest struct {
	Results   []contrast.Result `json:"results"`
	Threshold *float64          `json:"threshold,omitempty"`
}

// FilterResponse is returned by POST /v1/filter.
type FilterResponse struct {
	Total     int               `json:"total"`
	Threshold float64           `json:"threshold"`
	Results   []contrast.Result `json:"results"`
	Summary   contrast.Summary  `json:"summary"`
}

// PairRequest is the JSON body of POST /v1/pair.
type PairRequest struct {
	Background string `json:"background" binding:"required"`
	Text       string `json:"text" binding:"required"`
	X          int    `json:"x"`
	Y          int    `json:"y"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "available",
		"version": version.Short(),
		"commit":  version.ShortCommit(),
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) analyze(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), s.cfg.RequestTimeout)
	defer cancel()

	blockSize, threshold, err := s.analyzeParams(c)
	if err != nil {
		s.respondError(c, err)
		return
	}

	bm, source, err := s.loadRequestImage(ctx, c)
	if err != nil {
		s.respondError(c, err)
		return
	}

	analysisCtx, cancelAnalysis := context.WithTimeout(ctx, s.cfg.AnalysisTimeout)
	defer cancelAnalysis()

	analyzer := &contrast.Analyzer{
		BlockSize: blockSize,
		Workers:   s.cfg.Workers,
		Logger:    s.logger.Named("analyzer"),
		Metrics:   s.metrics,
	}
	report, err := analyzer.Analyze(analysisCtx, bm)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			s.respondError(c, apperrors.NewTimeoutError("analysis timed out", err))
			return
		}
		s.respondError(c, apperrors.NewProcessingError("analysis failed", err))
		return
	}

	s.logger.Info("analysis completed",
		"source", source,
		"width", report.Width,
		"height", report.Height,
		"total", report.Total,
		"threshold", threshold)

	shown := report.Filtered(threshold)
	c.JSON(http.StatusOK, AnalyzeResponse{
		Total:     shown.Total,
		Width:     shown.Width,
		Height:    shown.Height,
		BlockSize: shown.BlockSize,
		Threshold: shown.Threshold,
		Results:   shown.Results,
		Summary:   shown.Summary,
	})
}

func (s *Server) analyzeParams(c *gin.Context) (int, float64, error) {
	blockSize := s.cfg.BlockSize
	if raw := c.Query("block_size"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return 0, 0, apperrors.NewValidationError("block_size must be an integer", err)
		}
		blockSize = v
	}
	if err := contrast.ValidateBlockSize(blockSize); err != nil {
		return 0, 0, apperrors.NewValidationError("invalid block_size", err)
	}

	threshold, err := s.thresholdParam(c.Query("threshold"))
	if err != nil {
		return 0, 0, err
	}
	return blockSize, threshold, nil
}

func (s *Server) thresholdParam(raw string) (float64, error) {
	threshold := s.cfg.Threshold
	if raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return 0, apperrors.NewValidationError("threshold must be a number", err)
		}
		threshold = v
	}
	if err := contrast.ValidateThreshold(threshold); err != nil {
		return 0, apperrors.NewValidationError("invalid threshold", err)
	}
	return threshold, nil
}

// loadRequestImage reads a multipart "image" upload or fetches the JSON url.
func (s *Server) loadRequestImage(ctx context.Context, c *gin.Context) (*image.Bitmap, string, error) {
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		fh, err := c.FormFile("image")
		if err != nil {
			if isTooLarge(err) {
				return nil, "", apperrors.NewTooLargeError("upload too large", err)
			}
			return nil, "", apperrors.NewValidationError("multipart field 'image' is required", err)
		}
		if fh.Size > s.cfg.MaxImageBytes {
			return nil, "", apperrors.NewTooLargeError(fmt.Sprintf("image exceeds %d bytes", s.cfg.MaxImageBytes), nil)
		}

		f, err := fh.Open()
		if err != nil {
			return nil, "", apperrors.NewInternalError("failed to open upload", err)
		}
		defer f.Close()

		bm, err := image.Decode(f, s.cfg.MaxImageBytes)
		if err != nil {
			return nil, "", apperrors.NewProcessingError("failed to decode image", err)
		}
		return bm, fh.Filename, nil
	}

	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if isTooLarge(err) {
			return nil, "", apperrors.NewTooLargeError("request too large", err)
		}
		return nil, "", apperrors.NewValidationError("invalid request format", err)
	}
	if err := security.ValidateHTTPURL(req.URL); err != nil {
		return nil, "", apperrors.NewValidationError("invalid image URL", err)
	}

	fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.FetchTimeout)
	defer cancel()

	bm, err := s.loader.Load(fetchCtx, req.URL)
	if err != nil {
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			return nil, "", apperrors.NewTimeoutError("image fetch timeout", err)
		case errors.Is(err, security.ErrSizeLimitExceeded):
			return nil, "", apperrors.NewTooLargeError("remote image too large", err)
		default:
			return nil, "", apperrors.NewNetworkError("failed to fetch image", err)
		}
	}
	return bm, req.URL, nil
}

func (s *Server) filter(c *gin.Context) {
	var req FilterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, apperrors.NewValidationError("invalid request format", err))
		return
	}

	threshold := s.cfg.Threshold
	if req.Threshold != nil {
		threshold = *req.Threshold
	}
	if err := contrast.ValidateThreshold(threshold); err != nil {
		s.respondError(c, apperrors.NewValidationError("invalid threshold", err))
		return
	}

	shown := contrast.Filter(req.Results, threshold)
	c.JSON(http.StatusOK, FilterResponse{
		Total:     len(req.Results),
		Threshold: threshold,
		Results:   shown,
		Summary:   contrast.Summarize(shown),
	})
}

func (s *Server) pair(c *gin.Context) {
	var req PairRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, apperrors.NewValidationError("invalid request format", err))
		return
	}

	bg, err := colour.ParseHex(req.Background)
	if err != nil {
		s.respondError(c, apperrors.NewValidationError("invalid background colour", err))
		return
	}
	text, err := colour.ParseHex(req.Text)
	if err != nil {
		s.respondError(c, apperrors.NewValidationError("invalid text colour", err))
		return
	}

	c.JSON(http.StatusOK, contrast.EvaluatePair(bg, text, req.X, req.Y))
}

func isTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}

func (s *Server) respondError(c *gin.Context, err error) {
	code := apperrors.GetStatusCode(err)

	s.logger.Warn("request failed",
		"status", code,
		"path", c.Request.URL.Path,
		"method", c.Request.Method,
		"ip", c.ClientIP(),
		"error", err)

	c.AbortWithStatusJSON(code, ErrorResponse{
		Error:   http.StatusText(code),
		Message: err.Error(),
	})
}
