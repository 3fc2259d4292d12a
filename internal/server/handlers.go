package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/cmorling/stockpilot/internal/models"
	"github.com/cmorling/stockpilot/internal/services/analysis"
	"github.com/cmorling/stockpilot/internal/services/collector"
)

// AnalyzeRequest is the body for POST /api/analyze.
type AnalyzeRequest struct {
	Symbol string `json:"symbol"`
	Period string `json:"period"`
}

// handleAnalyze runs the full pipeline and returns the analysis report.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req AnalyzeRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	symbol := strings.TrimSpace(req.Symbol)
	if symbol == "" {
		WriteErrorWithCode(w, http.StatusBadRequest, "Symbol is required", "missing_symbol")
		return
	}

	period := models.ParsePeriod(req.Period)

	report, err := s.app.Pipeline.Run(r.Context(), symbol, period)
	if err != nil {
		s.writeAnalysisError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, report)
}

// routeAnalyze dispatches /api/analyze/{symbol}/chart.png.
func (s *Server) routeAnalyze(w http.ResponseWriter, r *http.Request) {
	if strings.HasSuffix(r.URL.Path, "/chart.png") {
		s.handleChartPNG(w, r)
		return
	}
	WriteError(w, http.StatusNotFound, "Not found")
}

// handleChartPNG runs the pipeline for the symbol and streams the chart
// as a PNG image. The period comes from the optional ?period= query.
func (s *Server) handleChartPNG(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	symbol := PathParam(r, "/api/analyze/", "/chart.png")
	if symbol == "" {
		WriteErrorWithCode(w, http.StatusBadRequest, "Symbol is required", "missing_symbol")
		return
	}

	period := models.ParsePeriod(r.URL.Query().Get("period"))

	report, err := s.app.Pipeline.Run(r.Context(), symbol, period)
	if err != nil {
		s.writeAnalysisError(w, err)
		return
	}

	png, err := s.app.Visualization.RenderPNG(report.ChartConfig)
	if err != nil {
		s.logger.Error().Err(err).Str("symbol", report.Symbol).Msg("Chart render failed")
		WriteError(w, http.StatusInternalServerError, "Chart rendering failed")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

// writeAnalysisError maps pipeline failures to HTTP statuses. Unknown
// symbols are the caller's mistake, provider outages are upstream, and
// series too short to analyze are unprocessable.
func (s *Server) writeAnalysisError(w http.ResponseWriter, err error) {
	var collErr *collector.CollectorError
	if errors.As(err, &collErr) {
		if collErr.NotFound {
			WriteErrorWithCode(w, http.StatusNotFound, collErr.Message, "symbol_not_found")
			return
		}
		WriteErrorWithCode(w, http.StatusBadGateway, collErr.Message, "providers_unavailable")
		return
	}

	if errors.Is(err, analysis.ErrInsufficientData) {
		WriteErrorWithCode(w, http.StatusUnprocessableEntity, err.Error(), "insufficient_data")
		return
	}

	s.logger.Error().Err(err).Msg("Pipeline run failed")
	WriteError(w, http.StatusInternalServerError, "Analysis failed")
}
