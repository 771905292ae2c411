package bookings

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/backline-app/backline/internal/platform/httpx"
	"github.com/backline-app/backline/internal/projects"
	"github.com/backline-app/backline/internal/shared"
)

type Handler struct {
	logger       *slog.Logger
	materializer *Materializer
	repo         Repository
	projects     projects.Repository
}

func NewHandler(logger *slog.Logger, materializer *Materializer, repo Repository, projectRepo projects.Repository) *Handler {
	return &Handler{logger: logger, materializer: materializer, repo: repo, projects: projectRepo}
}

type materializeRequest struct {
	ActingUserID int64 `json:"acting_user_id"`
}

func (h *Handler) Materialize(w http.ResponseWriter, r *http.Request) {
	offerID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req materializeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}

	res, err := h.materializer.Materialize(r.Context(), offerID, req.ActingUserID)
	switch {
	case err == nil:
	case errors.Is(err, shared.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
		return
	case errors.Is(err, shared.ErrInvalidState):
		httpx.Problem(w, http.StatusConflict, "Invalid State", err.Error())
		return
	default:
		h.logger.Error("materialize failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, res)
}

func (h *Handler) ListPeriods(w http.ResponseWriter, r *http.Request) {
	jobID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	periods, err := h.repo.ListPeriodsByJob(r.Context(), jobID)
	if err != nil {
		h.logger.Error("list periods failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	if periods == nil {
		periods = []TimePeriod{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"periods": periods})
}

// MarkInvoiced flags a job as billed once its accepted offer has been
// materialized and invoiced downstream.
func (h *Handler) MarkInvoiced(w http.ResponseWriter, r *http.Request) {
	jobID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.projects.MarkInvoiced(r.Context(), jobID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
			return
		}
		h.logger.Error("mark invoiced failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid id")
		return 0, false
	}
	return id, true
}
