package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/Dan9191/credit-analytics/internal/analytics"
	"github.com/Dan9191/credit-analytics/internal/config"
	"github.com/Dan9191/credit-analytics/internal/filter"
	"github.com/Dan9191/credit-analytics/internal/models"
	"github.com/Dan9191/credit-analytics/internal/repository"
	"github.com/Dan9191/credit-analytics/internal/service"
)

// multipart parts above this size spill to temp files
const maxMemory = 32 << 20

type Handler struct {
	svc       *service.Service
	log       *logrus.Logger
	maxUpload int64
	validate  *validator.Validate
}

func NewHandler(svc *service.Service, cfg *config.Config, log *logrus.Logger) *Handler {
	return &Handler{
		svc:       svc,
		log:       log,
		maxUpload: cfg.MaxUploadBytes,
		validate:  validator.New(),
	}
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type generateRequest struct {
	Count int     `json:"count" validate:"required,min=1,max=200000"`
	Seed  *uint64 `json:"seed,omitempty"`
}

type correlationRequest struct {
	Filter filter.Spec `json:"filter"`
	Fields []string    `json:"fields,omitempty" validate:"omitempty,dive,required"`
}

type chartResponse struct {
	Kind   analytics.ChartKind `json:"kind"`
	Points []models.ChartPoint `json:"points"`
}

// Health reports liveness
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Login handles analyst authentication
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !h.decode(w, r, &req, false) {
		return
	}
	token, err := h.svc.Login(req.Username, req.Password)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

// GenerateDataset replaces the current batch with a synthetic one
func (h *Handler) GenerateDataset(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if !h.decode(w, r, &req, false) {
		return
	}
	info, err := h.svc.GenerateDataset(r.Context(), req.Count, req.Seed)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, info)
}

// UploadDataset replaces the current batch with an uploaded CSV or XLSX file
func (h *Handler) UploadDataset(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorBody("Invalid upload: "+err.Error()))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorBody("Form field \"file\" is required"))
		return
	}
	defer file.Close()

	info, err := h.svc.IngestDataset(r.Context(), header.Filename, file)
	if err != nil {
		h.log.Warnf("Upload of %s rejected: %v", header.Filename, err)
		h.writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	h.writeJSON(w, http.StatusCreated, info)
}

// CurrentDataset describes the loaded batch
func (h *Handler) CurrentDataset(w http.ResponseWriter, r *http.Request) {
	info, err := h.svc.CurrentDataset()
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, info)
}

// KPIs returns the KPI summary for the filter in the request body
func (h *Handler) KPIs(w http.ResponseWriter, r *http.Request) {
	var spec filter.Spec
	if !h.decode(w, r, &spec, true) {
		return
	}
	res, err := h.svc.KPIs(r.Context(), spec)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, res)
}

// ListCharts returns the supported chart kinds
func (h *Handler) ListCharts(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string][]analytics.ChartKind{"kinds": analytics.ChartKinds()})
}

// Chart returns one chart series for the filter in the request body
func (h *Handler) Chart(w http.ResponseWriter, r *http.Request) {
	kind := analytics.ChartKind(mux.Vars(r)["kind"])
	var spec filter.Spec
	if !h.decode(w, r, &spec, true) {
		return
	}
	points, err := h.svc.Chart(r.Context(), kind, spec)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, chartResponse{Kind: kind, Points: points})
}

// Correlations returns the Pearson matrix for the requested numeric fields
func (h *Handler) Correlations(w http.ResponseWriter, r *http.Request) {
	var req correlationRequest
	if !h.decode(w, r, &req, true) {
		return
	}
	res, err := h.svc.Correlations(r.Context(), req.Filter, req.Fields)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, res)
}

// KeyRate returns the central bank key rate plus margin
func (h *Handler) KeyRate(w http.ResponseWriter, r *http.Request) {
	kr, err := h.svc.KeyRate(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, kr)
}

// decode reads a JSON body into dst and validates it. An empty body is accepted when allowEmpty is set.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst interface{}, allowEmpty bool) bool {
	err := json.NewDecoder(r.Body).Decode(dst)
	if errors.Is(err, io.EOF) && allowEmpty {
		err = nil
	}
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorBody("Invalid request body"))
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return false
	}
	return true
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, filter.ErrInvalidSpec), errors.Is(err, models.ErrUnknownField):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	case errors.Is(err, analytics.ErrUnknownChartKind):
		status = http.StatusNotFound
	case errors.Is(err, repository.ErrNoDataset):
		status = http.StatusConflict
	case errors.Is(err, service.ErrKeyRateDisabled):
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusInternalServerError {
		h.log.Errorf("Request failed: %v", err)
	}
	h.writeJSON(w, status, errorBody(err.Error()))
}

func errorBody(message string) map[string]string {
	return map[string]string{"error": message}
}

// writeJSON encodes v before writing the status so an encoding failure still yields a 500
func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	body, err := json.Marshal(v)
	if err != nil {
		h.log.Errorf("Failed to encode response: %v", err)
		status = http.StatusInternalServerError
		body, _ = json.Marshal(errorBody("Failed to encode response"))
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}
