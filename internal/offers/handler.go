package offers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/backline-app/backline/internal/platform/httpx"
	"github.com/backline-app/backline/internal/shared"
)

type Handler struct {
	logger   *slog.Logger
	service  *Service
	public   *PublicService
	validate *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service, public *PublicService) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		public:   public,
		validate: validator.New(),
	}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateOfferRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	offer, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.respondError(w, "create offer", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, offer)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.offerID(w, r)
	if !ok {
		return
	}
	offer, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, "get offer", err)
		return
	}
	httpx.JSON(w, http.StatusOK, offer)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	req := ListOffersRequest{Limit: 50}
	if v := r.URL.Query().Get("job_id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			req.JobID = &id
		}
	}
	if v := r.URL.Query().Get("status"); v != "" {
		s := OfferStatus(v)
		req.Status = &s
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 1000 {
			req.Limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			req.Offset = n
		}
	}

	offers, total, err := h.service.List(r.Context(), req)
	if err != nil {
		h.respondError(w, "list offers", err)
		return
	}
	page := 1
	if req.Limit > 0 {
		page = req.Offset/req.Limit + 1
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"offers":     offers,
		"pagination": shared.NewPagination(page, req.Limit, total),
	})
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.offerID(w, r)
	if !ok {
		return
	}
	var req UpdateOfferRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	offer, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		h.respondError(w, "update offer", err)
		return
	}
	httpx.JSON(w, http.StatusOK, offer)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.offerID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.respondError(w, "delete offer", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	id, ok := h.offerID(w, r)
	if !ok {
		return
	}
	offer, err := h.service.Send(r.Context(), id)
	if err != nil {
		h.respondError(w, "send offer", err)
		return
	}
	httpx.JSON(w, http.StatusOK, offer)
}

func (h *Handler) Duplicate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.offerID(w, r)
	if !ok {
		return
	}
	var req DuplicateOfferRequest
	if r.ContentLength > 0 {
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
			return
		}
	}
	offer, err := h.service.Duplicate(r.Context(), id, req)
	if err != nil {
		h.respondError(w, "duplicate offer", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, offer)
}

func (h *Handler) Recalculate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.offerID(w, r)
	if !ok {
		return
	}
	if err := h.service.Recalculate(r.Context(), id); err != nil {
		h.respondError(w, "recalculate offer", err)
		return
	}
	offer, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, "get offer", err)
		return
	}
	httpx.JSON(w, http.StatusOK, offer)
}

// PublicShow serves the token-gated read. Unknown tokens and drafts look
// identical: an empty 404.
func (h *Handler) PublicShow(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	offer, err := h.public.GetByToken(r.Context(), token)
	if err != nil {
		h.logger.Error("public offer lookup failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	if offer == nil {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "")
		return
	}
	httpx.JSON(w, http.StatusOK, offer)
}

func (h *Handler) PublicAccept(w http.ResponseWriter, r *http.Request) {
	h.publicAction(w, r, h.service.Accept)
}

func (h *Handler) PublicReject(w http.ResponseWriter, r *http.Request) {
	h.publicAction(w, r, h.service.Reject)
}

func (h *Handler) PublicRequestRevision(w http.ResponseWriter, r *http.Request) {
	h.publicAction(w, r, h.service.RequestRevision)
}

func (h *Handler) publicAction(w http.ResponseWriter, r *http.Request, action func(context.Context, string, PublicActionRequest) (*Offer, error)) {
	token := chi.URLParam(r, "token")

	var req PublicActionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	offer, err := action(r.Context(), token, req)
	if err != nil {
		h.logger.Error("public offer action failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	if offer == nil {
		// Unknown token or a lost race; both are a silent 404 on purpose.
		httpx.Problem(w, http.StatusNotFound, "Not Found", "")
		return
	}
	h.public.Invalidate(r.Context(), token)
	httpx.JSON(w, http.StatusOK, map[string]any{"status": offer.Status})
}

func (h *Handler) offerID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid offer id")
		return 0, false
	}
	return id, true
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrInvalidStatus), errors.Is(err, shared.ErrInvalidState):
		httpx.Problem(w, http.StatusConflict, "Invalid State", err.Error())
	case errors.Is(err, shared.ErrValidation):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error(op+" failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
