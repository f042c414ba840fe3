package httptransport

import (
	"time"

	"metaregistry/internal/domain"
)

type recordResponse struct {
	ContentHash string    `json:"contentHash"`
	CID         string    `json:"cid,omitempty"`
	Gateway     string    `json:"gateway"`
	Path        string    `json:"path"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	Writer      string    `json:"writer"`
	Active      bool      `json:"active"`
	DomainID    uint64    `json:"domainId"`
}

func toRecordResponse(rec domain.MetadataRecord) recordResponse {
	resp := recordResponse{
		ContentHash: rec.Hash.String(),
		Gateway:     rec.Gateway,
		Path:        rec.Path,
		CreatedAt:   rec.CreatedAt,
		UpdatedAt:   rec.UpdatedAt,
		Writer:      rec.Writer.String(),
		Active:      rec.Active,
		DomainID:    rec.DomainID,
	}
	if c, err := rec.Hash.CID(); err == nil {
		resp.CID = c.String()
	}
	return resp
}

func toRecordResponses(recs []domain.MetadataRecord) []recordResponse {
	out := make([]recordResponse, len(recs))
	for i, rec := range recs {
		out[i] = toRecordResponse(rec)
	}
	return out
}

type registerResponse struct {
	Record    recordResponse `json:"record"`
	FeeNative uint64         `json:"feeNative"`
}

type batchResultResponse struct {
	ID      string `json:"id"`
	Applied bool   `json:"applied"`
	Error   string `json:"error,omitempty"`
}
