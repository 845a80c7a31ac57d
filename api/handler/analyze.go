package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/siteintel/models"
	"github.com/use-agent/siteintel/pipeline"
)

// Analyze returns a handler for POST /api/v1/analyze.
//
// The pipeline run is synchronous: the response carries the complete
// AnalysisResult. A blocked site is still a 200 — the block is recorded
// in the result's status, not as a transport failure.
func Analyze(p *pipeline.Pipeline) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.AnalyzeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.AnalyzeResponse{
				Success: false,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: err.Error(),
				},
			})
			return
		}

		result, err := p.Run(c.Request.Context(), req.URL)
		if err != nil {
			respondError(c, err, result)
			return
		}

		c.JSON(http.StatusOK, models.AnalyzeResponse{Success: true, Result: result})
	}
}

// GetAnalysis returns a handler for GET /api/v1/analysis/:id.
func GetAnalysis(results *pipeline.ResultStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := results.Load(c.Param("id"))
		if err != nil {
			respondError(c, err, nil)
			return
		}
		c.JSON(http.StatusOK, models.AnalyzeResponse{Success: true, Result: result})
	}
}

// respondError maps an AnalysisError to the correct HTTP status code and
// writes a structured JSON error response. The partial result, when the
// pipeline produced one, rides along so the caller can still inspect it.
func respondError(c *gin.Context, err error, result *models.AnalysisResult) {
	var analysisErr *models.AnalysisError
	if !errors.As(err, &analysisErr) {
		analysisErr = models.NewAnalysisError(models.ErrCodeInternal, err.Error(), nil)
	}

	status := http.StatusInternalServerError
	switch analysisErr.Code {
	case models.ErrCodeInvalidInput:
		status = http.StatusBadRequest
	case models.ErrCodeNotFound:
		status = http.StatusNotFound
	case models.ErrCodeCaptureBlocked:
		status = http.StatusForbidden
	case models.ErrCodeCaptureFailed:
		status = http.StatusBadGateway
	}

	c.JSON(status, models.AnalyzeResponse{
		Success: false,
		Result:  result,
		Error:   analysisErr.ToDetail(),
	})
}
