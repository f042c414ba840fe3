package httptransport

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"metaregistry/internal/domain"
	"metaregistry/internal/ledger"
	"metaregistry/internal/platform/metrics"
	"metaregistry/internal/validator"
	"metaregistry/internal/xdomain"
	pkgerrors "metaregistry/pkg/errors"
)

// Handler is the thin HTTP layer. It delegates to domain services without
// embedding business logic so transport concerns remain isolated.
type Handler struct {
	ledger    *ledger.Service
	validator *validator.Validator
	receiver  *xdomain.Receiver
	admin     *AdminHandler
	metrics   *metrics.Metrics
	log       *slog.Logger
}

func NewHandler(svc *ledger.Service, v *validator.Validator, r *xdomain.Receiver, admin *AdminHandler, m *metrics.Metrics, log *slog.Logger) *Handler {
	return &Handler{ledger: svc, validator: v, receiver: r, admin: admin, metrics: m, log: log}
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, pkgerrors.New(pkgerrors.CodeBadRequest, "malformed request body"))
		return
	}

	hash, err := domain.ParseHash(req.ContentHash)
	if err != nil {
		writeError(w, err)
		return
	}
	caller, err := domain.ParseAddress(req.Caller)
	if err != nil {
		writeError(w, err)
		return
	}
	att, err := req.Attestation.toDomain(hash)
	if err != nil {
		writeError(w, err)
		return
	}

	rec, fee, err := h.ledger.Register(r.Context(), ledger.RegisterInput{
		Hash:        hash,
		Gateway:     req.Gateway,
		Path:        req.Path,
		DomainID:    req.DomainID,
		Caller:      caller,
		Attestation: att,
		Category:    req.Category,
		PayloadSize: req.PayloadSize,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, registerResponse{Record: toRecordResponse(rec), FeeNative: fee})
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	hash, err := domain.ParseHash(chi.URLParam(r, "hash"))
	if err != nil {
		writeError(w, err)
		return
	}
	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, pkgerrors.New(pkgerrors.CodeBadRequest, "malformed request body"))
		return
	}
	caller, err := domain.ParseAddress(req.Caller)
	if err != nil {
		writeError(w, err)
		return
	}

	rec, err := h.ledger.Update(r.Context(), hash, req.Gateway, req.Path, caller)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRecordResponse(rec))
}

func (h *Handler) handleRevoke(w http.ResponseWriter, r *http.Request) {
	hash, err := domain.ParseHash(chi.URLParam(r, "hash"))
	if err != nil {
		writeError(w, err)
		return
	}
	var req revokeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, pkgerrors.New(pkgerrors.CodeBadRequest, "malformed request body"))
		return
	}
	caller, err := domain.ParseAddress(req.Caller)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.ledger.Revoke(r.Context(), hash, caller); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	hash, err := domain.ParseHash(chi.URLParam(r, "hash"))
	if err != nil {
		writeError(w, err)
		return
	}
	rec, found, err := h.ledger.Get(r.Context(), hash)
	if err != nil {
		writeError(w, err)
		return
	}
	if !found {
		writeError(w, pkgerrors.New(pkgerrors.CodeNotFound, "record does not exist"))
		return
	}
	writeJSON(w, http.StatusOK, toRecordResponse(rec))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	if writer := q.Get("writer"); writer != "" {
		addr, err := domain.ParseAddress(writer)
		if err != nil {
			writeError(w, err)
			return
		}
		recs, err := h.ledger.ByWriter(ctx, addr)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toRecordResponses(recs))
		return
	}

	if dom := q.Get("domain"); dom != "" {
		id, err := strconv.ParseUint(dom, 10, 64)
		if err != nil {
			writeError(w, pkgerrors.New(pkgerrors.CodeBadRequest, "domain must be an integer"))
			return
		}
		recs, err := h.ledger.ByDomain(ctx, id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toRecordResponses(recs))
		return
	}

	offset, _ := strconv.Atoi(q.Get("offset"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	recs, err := h.ledger.List(ctx, offset, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRecordResponses(recs))
}

func (h *Handler) handleValidate(w http.ResponseWriter, r *http.Request) {
	var meta domain.ContractMetadata
	if err := json.NewDecoder(r.Body).Decode(&meta); err != nil {
		h.metrics.IncValidationFailure()
		writeError(w, pkgerrors.New(pkgerrors.CodeValidation, "metadata document is not valid JSON"))
		return
	}
	result := h.validator.Validate(meta)
	if !result.Valid {
		h.metrics.IncValidationFailure()
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleSyncBatch(w http.ResponseWriter, r *http.Request) {
	var reqs []syncMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&reqs); err != nil {
		writeError(w, pkgerrors.New(pkgerrors.CodeBadRequest, "malformed request body"))
		return
	}

	msgs := make([]domain.CrossDomainMessage, 0, len(reqs))
	for _, req := range reqs {
		msg, err := req.toDomain()
		if err != nil {
			writeError(w, err)
			return
		}
		msgs = append(msgs, msg)
	}

	results := h.receiver.ProcessBatch(r.Context(), msgs)
	out := make([]batchResultResponse, len(results))
	for i, res := range results {
		out[i] = batchResultResponse{ID: res.ID, Applied: res.Err == nil}
		if res.Err != nil {
			out[i].Error = res.Err.Error()
		}
	}
	writeJSON(w, http.StatusOK, out)
}
