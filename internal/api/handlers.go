package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/riskcare/risk-server/internal/care"
	"github.com/riskcare/risk-server/internal/ensemble"
	"github.com/riskcare/risk-server/internal/metrics"
	"github.com/riskcare/risk-server/internal/store"
)

type predictRequest struct {
	DiseaseType    string         `json:"disease_type" binding:"required"`
	Parameters     map[string]any `json:"parameters"`
	PatientProfile map[string]any `json:"patient_profile"`
}

type metricRequest struct {
	PatientID  string     `json:"patient_id" binding:"required"`
	MetricType string     `json:"metric_type" binding:"required"`
	Value      *float64   `json:"value" binding:"required"`
	Unit       string     `json:"unit"`
	Notes      string     `json:"notes"`
	Timestamp  *time.Time `json:"timestamp"`
}

type diseaseInfo struct {
	ensemble.Schema
	Optional   []string             `json:"optional_params"`
	Importance map[string]float64   `json:"feature_importance,omitempty"`
	Model      *ensemble.BundleInfo `json:"model,omitempty"`
}

func (s *Server) info(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message":            "Disease risk scoring API",
		"version":            s.Opts.Version,
		"validation_mode":    s.Scorer.Mode(),
		"supported_diseases": ensemble.AllDiseases,
	})
}

func (s *Server) diseases(c *gin.Context) {
	infos := make(map[ensemble.Disease]ensemble.BundleInfo)
	for _, bi := range s.Scorer.Infos() {
		infos[bi.Disease] = bi
	}

	out := make(map[ensemble.Disease]diseaseInfo, len(ensemble.AllDiseases))
	for _, d := range ensemble.AllDiseases {
		schema, ok := ensemble.LookupSchema(d)
		if !ok {
			continue
		}
		di := diseaseInfo{Schema: schema, Optional: schema.Optional()}
		if bi, ok := infos[d]; ok {
			di.Model = &bi
			if imp, err := s.Scorer.Importance(string(d)); err == nil {
				di.Importance = imp
			}
		}
		out[d] = di
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) predict(c *gin.Context) {
	var req predictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		metrics.RecordPredictionError(codeInvalidPayload)
		bindError(c, err)
		return
	}

	result, err := s.Scorer.ScoreRaw(req.DiseaseType, req.Parameters)
	if err != nil {
		status, code := scoringError(err)
		metrics.RecordPredictionError(code)
		if status >= http.StatusInternalServerError {
			_ = c.Error(err)
			abortError(c, status, code, "prediction failed")
			return
		}
		abortError(c, status, code, err.Error())
		return
	}

	rec := &store.Prediction{PatientProfile: req.PatientProfile, Result: *result}
	if err := s.Store.SavePrediction(c.Request.Context(), rec); err != nil {
		metrics.RecordPredictionError(codeStorage)
		_ = c.Error(err)
		abortError(c, http.StatusInternalServerError, codeStorage, "failed to store prediction")
		return
	}

	metrics.RecordPrediction(result)
	c.JSON(http.StatusOK, rec)
}

func (s *Server) listPredictions(c *gin.Context) {
	limit, ok := queryLimit(c)
	if !ok {
		return
	}
	preds, err := s.Store.ListPredictions(c.Request.Context(), limit)
	if err != nil {
		_ = c.Error(err)
		abortError(c, http.StatusInternalServerError, codeStorage, "failed to list predictions")
		return
	}
	if preds == nil {
		preds = []*store.Prediction{}
	}
	c.JSON(http.StatusOK, preds)
}

func (s *Server) getPrediction(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		abortError(c, http.StatusBadRequest, codeInvalidPayload, "id must be a UUID")
		return
	}
	p, err := s.Store.GetPrediction(c.Request.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		abortError(c, http.StatusNotFound, codeNotFound, "prediction not found")
		return
	}
	if err != nil {
		_ = c.Error(err)
		abortError(c, http.StatusInternalServerError, codeStorage, "failed to load prediction")
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) recommendations(c *gin.Context) {
	rec, err := care.Recommendations(c.Param("disease"))
	if errors.Is(err, ensemble.ErrUnknownDisease) {
		abortError(c, http.StatusNotFound, codeNotFound, "recommendations not found for disease "+c.Param("disease"))
		return
	}
	if err != nil {
		_ = c.Error(err)
		abortError(c, http.StatusInternalServerError, codeInternal, "failed to load recommendations")
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (s *Server) prescription(c *gin.Context) {
	var req care.PrescriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	c.JSON(http.StatusOK, care.Prescribe(req))
}

func (s *Server) recordMetric(c *gin.Context) {
	var req metricRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	m := &store.HealthMetric{
		PatientID:  strings.TrimSpace(req.PatientID),
		MetricType: strings.ToLower(strings.TrimSpace(req.MetricType)),
		Value:      *req.Value,
		Unit:       req.Unit,
		Notes:      req.Notes,
		RecordedAt: time.Now().UTC(),
	}
	if req.Timestamp != nil {
		m.RecordedAt = req.Timestamp.UTC()
	}
	if m.PatientID == "" || m.MetricType == "" {
		abortError(c, http.StatusBadRequest, codeInvalidPayload, "patient_id and metric_type must not be blank")
		return
	}

	if err := s.Store.SaveMetric(c.Request.Context(), m); err != nil {
		_ = c.Error(err)
		abortError(c, http.StatusInternalServerError, codeStorage, "failed to record metric")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Health metric recorded successfully", "metric": m})
}

func (s *Server) listMetrics(c *gin.Context) {
	limit, ok := queryLimit(c)
	if !ok {
		return
	}
	filter := store.MetricFilter{
		PatientID:  c.Param("patient_id"),
		MetricType: strings.ToLower(strings.TrimSpace(c.Query("metric_type"))),
		Limit:      limit,
	}
	list, err := s.Store.ListMetrics(c.Request.Context(), filter)
	if err != nil {
		_ = c.Error(err)
		abortError(c, http.StatusInternalServerError, codeStorage, "failed to list metrics")
		return
	}
	if list == nil {
		list = []*store.HealthMetric{}
	}
	c.JSON(http.StatusOK, gin.H{"patient_id": filter.PatientID, "metrics": list})
}

// queryLimit reads ?limit=; an absent value means the store default.
func queryLimit(c *gin.Context) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		abortError(c, http.StatusBadRequest, codeInvalidPayload, "limit must be a non-negative integer")
		return 0, false
	}
	return n, true
}
