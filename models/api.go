package models

// AnalyzeRequest is the body of POST /api/v1/analyze.
type AnalyzeRequest struct {
	URL string `json:"url" binding:"required"`
}

// AnalyzeResponse is the envelope for all analysis endpoints.
type AnalyzeResponse struct {
	Success bool            `json:"success"`
	Result  *AnalysisResult `json:"result,omitempty"`
	Error   *ErrorDetail    `json:"error,omitempty"`
}

// HealthResponse is the body of GET /api/v1/health.
type HealthResponse struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}
