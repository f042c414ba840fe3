package httptransport

import (
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/cloudflare/circl/sign/ed25519"

	"metaregistry/internal/attest"
	"metaregistry/internal/domain"
	"metaregistry/internal/fees"
	"metaregistry/internal/ledger"
	pkgerrors "metaregistry/pkg/errors"
)

// AdminHandler exposes the owner-guarded operations. The JWT middleware
// proves which address is acting; the services decide whether that address
// is the administrator.
type AdminHandler struct {
	ledger    *ledger.Service
	authority *attest.Authority
	fees      *fees.Engine
}

func NewAdminHandler(svc *ledger.Service, authority *attest.Authority, engine *fees.Engine) *AdminHandler {
	return &AdminHandler{ledger: svc, authority: authority, fees: engine}
}

func (h *AdminHandler) handleAttesters(w http.ResponseWriter, r *http.Request) {
	var req authorizeAttesterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, pkgerrors.New(pkgerrors.CodeBadRequest, "malformed request body"))
		return
	}
	addr, err := domain.ParseAddress(req.Attester)
	if err != nil {
		writeError(w, err)
		return
	}

	actor := actorFrom(r.Context())
	if req.Remove {
		if err := h.authority.Deauthorize(r.Context(), actor, addr); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}

	key, err := hex.DecodeString(strings.TrimPrefix(req.PublicKey, "0x"))
	if err != nil {
		writeError(w, pkgerrors.New(pkgerrors.CodeBadRequest, "public key is not valid hex"))
		return
	}
	if err := h.authority.Authorize(r.Context(), actor, addr, ed25519.PublicKey(key)); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) handleDomains(w http.ResponseWriter, r *http.Request) {
	var req supportDomainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, pkgerrors.New(pkgerrors.CodeBadRequest, "malformed request body"))
		return
	}
	if err := h.ledger.SetDomainSupported(r.Context(), actorFrom(r.Context()), req.DomainID, req.Supported); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) handleFeeTier(w http.ResponseWriter, r *http.Request) {
	var req feeTierRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, pkgerrors.New(pkgerrors.CodeBadRequest, "malformed request body"))
		return
	}
	caller, err := domain.ParseAddress(req.Caller)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.fees.SetTier(r.Context(), actorFrom(r.Context()), caller, req.Tier); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) handleExemption(w http.ResponseWriter, r *http.Request) {
	var req exemptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, pkgerrors.New(pkgerrors.CodeBadRequest, "malformed request body"))
		return
	}
	actor := actorFrom(r.Context())

	switch {
	case req.Caller != "":
		caller, err := domain.ParseAddress(req.Caller)
		if err != nil {
			writeError(w, err)
			return
		}
		if err := h.fees.SetCallerExempt(r.Context(), actor, caller, req.Exempt); err != nil {
			writeError(w, err)
			return
		}
	case req.Category != "":
		if err := h.fees.SetCategoryExempt(r.Context(), actor, req.Category, req.Exempt); err != nil {
			writeError(w, err)
			return
		}
	default:
		writeError(w, pkgerrors.New(pkgerrors.CodeBadRequest, "caller or category is required"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) handleBeneficiaries(w http.ResponseWriter, r *http.Request) {
	var req beneficiariesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, pkgerrors.New(pkgerrors.CodeBadRequest, "malformed request body"))
		return
	}
	table, err := req.toDomain()
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.fees.SetBeneficiaries(r.Context(), actorFrom(r.Context()), table); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) handlePause(w http.ResponseWriter, r *http.Request) {
	var req pauseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, pkgerrors.New(pkgerrors.CodeBadRequest, "malformed request body"))
		return
	}
	if err := h.ledger.SetPaused(r.Context(), actorFrom(r.Context()), req.Paused); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleOracle pushes external gas and price readings into the fee engine.
// The engine never fetches market data itself.
func (h *AdminHandler) handleOracle(w http.ResponseWriter, r *http.Request) {
	var req oracleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, pkgerrors.New(pkgerrors.CodeBadRequest, "malformed request body"))
		return
	}
	if req.GasPriceWei > 0 {
		h.fees.SetGasPrice(req.GasPriceWei)
	}
	if req.NativePriceMicroUSD > 0 {
		h.fees.SetNativePrice(req.NativePriceMicroUSD)
	}
	w.WriteHeader(http.StatusNoContent)
}
