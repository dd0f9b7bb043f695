package activity

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/edwinbf09/daily-activities/internal/httputil"
	"github.com/edwinbf09/daily-activities/internal/logging"
)

// Handler contains HTTP handlers for activity endpoints
type Handler struct {
	repo Repository
}

func NewHandler(repo Repository) *Handler {
	return &Handler{repo: repo}
}

// Routes mounts the activity endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Patch("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
	r.Post("/{id}/toggle-paid", h.TogglePaid)
}

// CreateActivityRequest represents the create request body
type CreateActivityRequest struct {
	ID          string   `json:"id,omitempty"`
	Name        string   `json:"name"`
	Description *string  `json:"description"`
	Date        string   `json:"date"`
	Amount      *float64 `json:"amount"`
	Category    string   `json:"category"`
	IsPaid      bool     `json:"is_paid"`
}

// UpdateActivityRequest represents a partial update; omitted fields are kept
type UpdateActivityRequest struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Date        *string  `json:"date"`
	Amount      *float64 `json:"amount"`
	Category    *string  `json:"category"`
	IsPaid      *bool    `json:"is_paid"`
}

// DeleteResponse is returned after a successful delete
type DeleteResponse struct {
	Success bool `json:"success"`
}

func (req CreateActivityRequest) toNewActivity() (NewActivity, error) {
	if strings.TrimSpace(req.Name) == "" {
		return NewActivity{}, ErrNameRequired
	}
	if strings.TrimSpace(req.Date) == "" {
		return NewActivity{}, ErrDateRequired
	}
	if strings.TrimSpace(req.Category) == "" {
		return NewActivity{}, ErrCategoryMissing
	}

	fields := NewActivity{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		IsPaid:      req.IsPaid,
	}

	if req.ID != "" {
		id, err := uuid.Parse(req.ID)
		if err != nil {
			return NewActivity{}, errInvalidID
		}
		fields.ID = id
	}

	date, err := ParseDate(req.Date)
	if err != nil {
		return NewActivity{}, err
	}
	fields.Date = date

	category, err := ParseCategory(req.Category)
	if err != nil {
		return NewActivity{}, err
	}
	fields.Category = category

	if req.Amount != nil {
		fields.Amount = *req.Amount
	}

	return fields, fields.Validate()
}

func (req UpdateActivityRequest) toPatch() (Patch, error) {
	patch := Patch{
		Name:        req.Name,
		Description: req.Description,
		Amount:      req.Amount,
		IsPaid:      req.IsPaid,
	}

	if req.Date != nil {
		date, err := ParseDate(*req.Date)
		if err != nil {
			return Patch{}, err
		}
		patch.Date = &date
	}

	if req.Category != nil {
		category, err := ParseCategory(*req.Category)
		if err != nil {
			return Patch{}, err
		}
		patch.Category = &category
	}

	return patch, patch.Validate()
}

var errInvalidID = errors.New("invalid activity id")

// List handles listing activities
// @Summary      List activities
// @Description  All activities, newest first, optionally filtered by category
// @Tags         activities
// @Produce      json
// @Security     BearerAuth
// @Param        category query string false "Category filter"
// @Success      200 {array} Activity
// @Failure      400 {object} httputil.ErrorResponse "Unknown category"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /activities [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var (
		activities []Activity
		err        error
	)

	if raw := r.URL.Query().Get("category"); raw != "" {
		category, parseErr := ParseCategory(raw)
		if parseErr != nil {
			httputil.RespondErrorWithCode(w, parseErr.Error(), httputil.CodeInvalidCategory, http.StatusBadRequest)
			return
		}
		activities, err = h.repo.ListByCategory(r.Context(), category)
	} else {
		activities, err = h.repo.List(r.Context())
	}

	if err != nil {
		logger.Error("list activities failed", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to fetch activities", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, activities, http.StatusOK)
}

// Create handles activity creation
// @Summary      Create an activity
// @Tags         activities
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body CreateActivityRequest true "Activity fields"
// @Success      201 {object} Activity
// @Failure      400 {object} httputil.ErrorResponse "Missing or invalid fields"
// @Failure      409 {object} httputil.ErrorResponse "Duplicate id"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /activities [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req CreateActivityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid create activity request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	fields, err := req.toNewActivity()
	if err != nil {
		logger.Warn("create activity failed: validation error", "error", err.Error())
		respondValidationError(w, err)
		return
	}

	created, err := h.repo.Create(r.Context(), fields)
	if err != nil {
		if errors.Is(err, ErrDuplicateID) {
			httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeDuplicateID, http.StatusConflict)
			return
		}
		logger.Error("create activity failed: internal error", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to create activity", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("activity created", "activity_id", created.ID, "category", created.Category)
	httputil.RespondJSON(w, created, http.StatusCreated)
}

// Update handles partial updates
// @Summary      Update an activity
// @Description  Only the supplied fields change; updated_at is always refreshed
// @Tags         activities
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Activity ID"
// @Param        request body UpdateActivityRequest true "Fields to change"
// @Success      200 {object} Activity
// @Failure      400 {object} httputil.ErrorResponse "Invalid fields"
// @Failure      404 {object} httputil.ErrorResponse "Activity not found"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /activities/{id} [patch]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var req UpdateActivityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid update activity request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	patch, err := req.toPatch()
	if err != nil {
		logger.Warn("update activity failed: validation error", "error", err.Error())
		respondValidationError(w, err)
		return
	}

	updated, err := h.repo.Update(r.Context(), id, patch)
	if err != nil {
		respondStoreError(w, r, "update", err)
		return
	}

	logger.Info("activity updated", "activity_id", id)
	httputil.RespondJSON(w, updated, http.StatusOK)
}

// TogglePaid flips the paid flag
// @Summary      Toggle paid status
// @Tags         activities
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Activity ID"
// @Success      200 {object} Activity
// @Failure      404 {object} httputil.ErrorResponse "Activity not found"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /activities/{id}/toggle-paid [post]
func (h *Handler) TogglePaid(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	updated, err := h.repo.TogglePaid(r.Context(), id)
	if err != nil {
		respondStoreError(w, r, "toggle paid", err)
		return
	}

	logging.GetLoggerFromContext(r.Context()).Info("activity paid status toggled", "activity_id", id, "is_paid", updated.IsPaid)
	httputil.RespondJSON(w, updated, http.StatusOK)
}

// Delete handles activity removal
// @Summary      Delete an activity
// @Tags         activities
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Activity ID"
// @Success      200 {object} DeleteResponse
// @Failure      404 {object} httputil.ErrorResponse "Activity not found"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /activities/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if err := h.repo.Delete(r.Context(), id); err != nil {
		respondStoreError(w, r, "delete", err)
		return
	}

	logging.GetLoggerFromContext(r.Context()).Info("activity deleted", "activity_id", id)
	httputil.RespondJSON(w, DeleteResponse{Success: true}, http.StatusOK)
}

func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondErrorWithCode(w, errInvalidID.Error(), httputil.CodeInvalidID, http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

func respondValidationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidCategory):
		httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeInvalidCategory, http.StatusBadRequest)
	case errors.Is(err, errInvalidID):
		httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeInvalidID, http.StatusBadRequest)
	default:
		httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeValidation, http.StatusBadRequest)
	}
}

func respondStoreError(w http.ResponseWriter, r *http.Request, op string, err error) {
	logger := logging.GetLoggerFromContext(r.Context())

	if errors.Is(err, ErrNotFound) {
		logger.Warn(op+" activity failed: not found")
		httputil.RespondErrorWithCode(w, "activity not found", httputil.CodeActivityNotFound, http.StatusNotFound)
		return
	}

	logger.Error(op+" activity failed: internal error", "error", err.Error())
	httputil.RespondErrorWithCode(w, "failed to "+op+" activity", httputil.CodeInternalError, http.StatusInternalServerError)
}
