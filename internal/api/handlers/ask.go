// HTTP handler for the advisory endpoint.
// POST /api/v1/ask — runs a farmer question (text, image, or both) through
// the advisory pipeline and returns the synthesized reply.
package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/agrigpt/agrigpt/internal/domain/advisor"
	"github.com/agrigpt/agrigpt/internal/domain/pipeline"
	"github.com/agrigpt/agrigpt/internal/domain/session"
	"github.com/agrigpt/agrigpt/internal/infra/llm"
)

// multipartMemoryLimit is how much of a multipart body is buffered in memory
// before spilling to temp files. Images top out at llm.MaxImageBytes anyway.
const multipartMemoryLimit = llm.MaxImageBytes + 1<<20

// Answerer is the slice of the pipeline the handler consumes.
type Answerer interface {
	Answer(ctx context.Context, req pipeline.Request) string
}

// AskHandler handles advisory HTTP requests.
type AskHandler struct {
	pipeline Answerer
	sessions *session.Store
}

// NewAskHandler creates an AskHandler.
func NewAskHandler(p Answerer, sessions *session.Store) *AskHandler {
	return &AskHandler{pipeline: p, sessions: sessions}
}

// askRequest is the JSON request body for POST /api/v1/ask.
type askRequest struct {
	Query string `json:"query"`
}

// askResponse is the JSON response body for a completed advisory turn.
type askResponse struct {
	SessionID string `json:"sessionId"`
	Reply     string `json:"reply"`
}

// Ask handles POST /api/v1/ask. Two request shapes are accepted:
//   - application/json: {"query": "..."}
//   - multipart/form-data: "query" field (optional) plus an "image" file
//
// Either a query or an image must be present; the pipeline handles blank
// text with an image attached.
func (h *AskHandler) Ask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sessionID, err := getSessionID(ctx)
	if err != nil {
		writeError(w, http.StatusUnauthorized, errMissingSessionContext)
		return
	}

	req := pipeline.Request{SessionID: sessionID}

	if isMultipart(r) {
		query, imageRef, status, msg := h.parseMultipart(ctx, r, sessionID)
		if msg != "" {
			writeError(w, status, msg)
			return
		}
		req.Text = query
		req.ImageRef = imageRef
	} else {
		var body askRequest
		if decodeErr := json.NewDecoder(r.Body).Decode(&body); decodeErr != nil {
			writeError(w, http.StatusBadRequest, errInvalidBody)
			return
		}
		req.Text = strings.TrimSpace(body.Query)
	}

	reply := h.pipeline.Answer(ctx, req)

	writeJSON(w, http.StatusOK, askResponse{SessionID: sessionID, Reply: reply})
}

// parseMultipart extracts the query field and stores the uploaded image.
// Returns (query, imageRef, 0, "") on success; on failure msg is the
// user-facing error and status the HTTP code to send.
func (h *AskHandler) parseMultipart(ctx context.Context, r *http.Request, sessionID string) (query, imageRef string, status int, msg string) {
	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		return "", "", http.StatusBadRequest, errInvalidBody
	}

	query = strings.TrimSpace(r.FormValue("query"))

	file, _, err := r.FormFile("image")
	if err == http.ErrMissingFile {
		if query == "" {
			return "", "", http.StatusBadRequest, "query or image is required"
		}
		return query, "", 0, ""
	}
	if err != nil {
		return "", "", http.StatusBadRequest, errInvalidBody
	}
	defer file.Close() //nolint:errcheck

	// Read one byte past the cap so oversized uploads are detected without
	// buffering the whole body.
	data, err := io.ReadAll(io.LimitReader(file, llm.MaxImageBytes+1))
	if err != nil {
		return "", "", http.StatusBadRequest, "failed to read image"
	}
	if len(data) > llm.MaxImageBytes {
		return "", "", http.StatusRequestEntityTooLarge, "image too large (max 8 MiB)"
	}

	mime := llm.DetectMIME(data)
	if mime == "" {
		return "", "", http.StatusUnsupportedMediaType, "unsupported image format (PNG and JPEG only)"
	}

	path, err := h.sessions.SaveImage(ctx, sessionID, data, advisor.ImageExt(mime))
	if err != nil {
		return "", "", http.StatusInternalServerError, "failed to store image"
	}
	return query, path, 0, ""
}

// isMultipart reports whether the request carries a multipart form body.
func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get(headerContentType), "multipart/form-data")
}
