// HTTP handler for scheme knowledge ingestion.
// POST /api/v1/schemes — upserts subsidy scheme records into the knowledge
// base. Guarded by an admin key, not the session token: ingest is an operator
// action, not a farmer one.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/agrigpt/agrigpt/internal/domain/scheme"
	"github.com/agrigpt/agrigpt/pkg/auth"
)

// headerAdminKey carries the plaintext admin key checked against the
// configured bcrypt hash.
const headerAdminKey = "X-Admin-Key"

// SchemeHandler handles scheme ingestion HTTP requests.
type SchemeHandler struct {
	store *scheme.Store
	// adminKeyHash is the bcrypt hash of the ingest admin key. Empty hash
	// disables the endpoint entirely.
	adminKeyHash string
}

// NewSchemeHandler creates a SchemeHandler.
func NewSchemeHandler(store *scheme.Store, adminKeyHash string) *SchemeHandler {
	return &SchemeHandler{store: store, adminKeyHash: adminKeyHash}
}

// schemeRequest is one scheme record in the ingest request body.
type schemeRequest struct {
	Name             string `json:"name"`
	Level            string `json:"level,omitempty"`
	Eligibility      string `json:"eligibility"`
	Benefits         string `json:"benefits"`
	ApplicationSteps string `json:"applicationSteps,omitempty"`
	Documents        string `json:"documents,omitempty"`
	Notes            string `json:"notes,omitempty"`
}

// ingestRequest is the JSON request body for POST /api/v1/schemes.
type ingestRequest struct {
	Schemes []schemeRequest `json:"schemes"`
}

// ingestResponse is the JSON response body for a successful ingest.
type ingestResponse struct {
	Ingested int      `json:"ingested"`
	IDs      []string `json:"ids"`
}

// Ingest handles POST /api/v1/schemes. Records are upserted by name and
// queued for embedding; the response returns before embedding completes.
func (h *SchemeHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	if h.adminKeyHash == "" {
		writeError(w, http.StatusServiceUnavailable, "scheme ingest is not configured")
		return
	}

	key := r.Header.Get(headerAdminKey)
	if key == "" || !auth.VerifyKey(h.adminKeyHash, key) {
		writeError(w, http.StatusUnauthorized, "invalid admin key")
		return
	}

	var req ingestRequest
	if decodeErr := json.NewDecoder(r.Body).Decode(&req); decodeErr != nil {
		writeError(w, http.StatusBadRequest, errInvalidBody)
		return
	}
	if len(req.Schemes) == 0 {
		writeError(w, http.StatusBadRequest, "schemes is required")
		return
	}

	records := make([]scheme.Scheme, 0, len(req.Schemes))
	for _, s := range req.Schemes {
		records = append(records, scheme.Scheme{
			Name:             s.Name,
			Level:            scheme.Level(s.Level),
			Eligibility:      s.Eligibility,
			Benefits:         s.Benefits,
			ApplicationSteps: s.ApplicationSteps,
			Documents:        s.Documents,
			Notes:            s.Notes,
		})
	}

	ids, err := h.store.Ingest(r.Context(), records)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, ingestResponse{Ingested: len(ids), IDs: ids})
}
