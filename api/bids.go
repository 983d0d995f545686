package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/mail"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/garnizeh/bidwright/internal/bidgen"
	"github.com/garnizeh/bidwright/internal/config"
	"github.com/garnizeh/bidwright/internal/extract"
	"github.com/garnizeh/bidwright/internal/models"
	"github.com/garnizeh/bidwright/internal/prompt"
	"github.com/garnizeh/bidwright/pkg/repository"
)

// NonceHeader carries the anti-forgery nonce; the "nonce" form value is accepted too.
const NonceHeader = "X-Bid-Nonce"

// multipart data beyond this is spooled to disk
const maxFormMemory = 32 << 20

// BidGenerator drafts bids and edit suggestions.
type BidGenerator interface {
	Generate(ctx context.Context, req bidgen.Request) (*models.Bid, error)
	SuggestEdit(ctx context.Context, bid models.Bid, message string) (string, error)
}

type actionFunc func(w http.ResponseWriter, r *http.Request, userID int64) error

// BidsHandler serves /v1/actions/{action} from a table built once.
type BidsHandler struct {
	repo    repository.BidRepo
	gen     BidGenerator
	tokens  *Tokens
	upload  config.UploadConfig
	now     func() time.Time
	actions map[string]actionFunc
}

func NewBidsHandler(repo repository.BidRepo, gen BidGenerator, tokens *Tokens, upload config.UploadConfig) *BidsHandler {
	h := &BidsHandler{repo: repo, gen: gen, tokens: tokens, upload: upload, now: time.Now}
	h.actions = map[string]actionFunc{
		"generate_bid":       h.generateBid,
		"get_user_bids":      h.getUserBids,
		"save_bid":           h.saveBid,
		"update_bid":         h.updateBid,
		"delete_bid":         h.deleteBid,
		"update_bid_status":  h.updateBidStatus,
		"ai_edit_suggestion": h.aiEditSuggestion,
	}
	return h
}

// Actions lists the registered action names in sorted order.
func (h *BidsHandler) Actions() []string {
	out := make([]string, 0, len(h.actions))
	for name := range h.actions {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}

func (h *BidsHandler) Dispatch(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["action"]
	fn, ok := h.actions[name]
	if !ok {
		writeError(w, http.StatusNotFound, "Unknown action: "+name)
		return
	}

	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	nonce := r.Header.Get(NonceHeader)
	if nonce == "" {
		if err := parseForm(r); err != nil {
			writeFailure(w, r, name, err)
			return
		}
		nonce = r.FormValue("nonce")
	}
	if err := h.tokens.VerifyNonce(nonce, userID); err != nil {
		logger.Info("nonce rejected", slog.String("action", name), slog.Int64("user_id", userID), slog.Any("err", err))
		writeError(w, http.StatusForbidden, "Invalid nonce")
		return
	}

	if err := fn(w, r, userID); err != nil {
		writeFailure(w, r, name, err)
	}
}

// parseForm parses url-encoded or multipart bodies; JSON bodies are left alone.
func parseForm(r *http.Request) error {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if r.MultipartForm != nil {
			return nil
		}
		if err := r.ParseMultipartForm(maxFormMemory); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				return err
			}
			return badRequest("Invalid multipart form")
		}
		return nil
	}

	if err := r.ParseForm(); err != nil {
		return badRequest("Invalid form")
	}
	return nil
}

type generatedBidResponse struct {
	*models.Bid
	Email string `json:"email"`
}

func (h *BidsHandler) generateBid(w http.ResponseWriter, r *http.Request, userID int64) error {
	if err := parseForm(r); err != nil {
		return err
	}

	for _, field := range []string{"email", "companyLocation", "projectAddress", "constructionField"} {
		if strings.TrimSpace(r.FormValue(field)) == "" {
			return missingField(field)
		}
	}
	email := strings.TrimSpace(r.FormValue("email"))
	if _, err := mail.ParseAddress(email); err != nil {
		return badRequest("Invalid email")
	}

	docs, closeAll, err := h.uploadedDocuments(r)
	defer closeAll()
	if err != nil {
		return err
	}

	req := bidgen.Request{
		UserID:      userID,
		CompanyName: strings.TrimSpace(r.FormValue("companyName")),
		Fields: prompt.Fields{
			ConstructionField: strings.TrimSpace(r.FormValue("constructionField")),
			ProjectType:       strings.TrimSpace(r.FormValue("projectType")),
			ProjectAddress:    strings.TrimSpace(r.FormValue("projectAddress")),
			CompanyLocation:   strings.TrimSpace(r.FormValue("companyLocation")),
			SupportingInfo:    strings.TrimSpace(r.FormValue("supportingInfo")),
		},
		Documents: docs,
	}

	bid, err := h.gen.Generate(r.Context(), req)
	if err != nil {
		if errors.Is(err, bidgen.ErrDocument) {
			return err
		}
		return internalError("Failed to generate bid", err)
	}

	if _, err := h.repo.CreateBid(r.Context(), bid); err != nil {
		return internalError("Failed to save bid", err)
	}

	writeJSON(w, generatedBidResponse{Bid: bid, Email: email}, http.StatusOK)
	return nil
}

// uploadedDocuments opens the optional PDF uploads. The returned func closes
// whatever was opened and is safe to call on error.
func (h *BidsHandler) uploadedDocuments(r *http.Request) ([]extract.Document, func(), error) {
	var (
		docs  []extract.Document
		files []multipart.File
	)
	closeAll := func() {
		for _, f := range files {
			f.Close()
		}
	}
	if r.MultipartForm == nil {
		return nil, closeAll, nil
	}
	for field := range r.MultipartForm.File {
		if _, err := extract.ParseDocType(field); err != nil {
			return nil, closeAll, badRequest("Unexpected upload field: %s", field)
		}
	}

	for _, dt := range extract.DocTypes() {
		f, hdr, err := r.FormFile(string(dt))
		if errors.Is(err, http.ErrMissingFile) {
			continue
		}
		if err != nil {
			return nil, closeAll, badRequest("Invalid upload: %s", dt)
		}
		files = append(files, f)

		if !strings.EqualFold(filepath.Ext(hdr.Filename), ".pdf") {
			return nil, closeAll, badRequest("%s must be a PDF", dt)
		}
		if hdr.Size > h.upload.MaxFileBytes {
			return nil, closeAll, badRequest("%s exceeds the %d MB upload limit", dt, h.upload.MaxFileBytes>>20)
		}

		docs = append(docs, extract.Document{Type: dt, Name: filepath.Base(hdr.Filename), Reader: f, Size: hdr.Size})
	}

	return docs, closeAll, nil
}

func (h *BidsHandler) getUserBids(w http.ResponseWriter, r *http.Request, userID int64) error {
	bids, err := h.repo.ListBidsByUser(r.Context(), userID)
	if err != nil {
		return internalError("Failed to fetch bids", err)
	}

	writeJSON(w, models.FilterBids(bids, r.URL.Query().Get("q")), http.StatusOK)
	return nil
}

func decodeBid(r *http.Request) (*models.Bid, error) {
	var b models.Bid
	if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, err
		}
		return nil, badRequest("Invalid bid payload: %v", err)
	}
	b.ProjectName = strings.TrimSpace(b.ProjectName)
	if b.ProjectName == "" {
		return nil, missingField("projectName")
	}
	if b.LineItems == nil {
		b.LineItems = []models.LineItem{}
	}
	return &b, nil
}

func (h *BidsHandler) saveBid(w http.ResponseWriter, r *http.Request, userID int64) error {
	b, err := decodeBid(r)
	if err != nil {
		return err
	}

	b.ID = 0
	b.UserID = userID
	b.CreatedAt = h.now().UTC()
	if b.Status == "" {
		b.Status = models.StatusPending
	} else if b.Status, err = models.ParseBidStatus(string(b.Status)); err != nil {
		return badRequest("%v", err)
	}

	if _, err := h.repo.CreateBid(r.Context(), b); err != nil {
		return internalError("Failed to save bid", err)
	}

	writeJSON(w, b, http.StatusCreated)
	return nil
}

func (h *BidsHandler) updateBid(w http.ResponseWriter, r *http.Request, userID int64) error {
	b, err := decodeBid(r)
	if err != nil {
		return err
	}
	if b.ID <= 0 {
		return missingField("id")
	}
	b.UserID = userID

	if err := h.repo.UpdateBid(r.Context(), b); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return err
		}
		return internalError("Failed to update bid", err)
	}

	updated, err := h.repo.GetBid(r.Context(), b.ID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return err
		}
		return internalError("Failed to fetch bid", err)
	}

	writeJSON(w, updated, http.StatusOK)
	return nil
}

func bidID(r *http.Request) (int64, error) {
	if err := parseForm(r); err != nil {
		return 0, err
	}

	raw := strings.TrimSpace(r.FormValue("bid_id"))
	if raw == "" {
		return 0, missingField("bid_id")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, badRequest("Invalid bid_id: %q", raw)
	}
	return id, nil
}

func (h *BidsHandler) deleteBid(w http.ResponseWriter, r *http.Request, userID int64) error {
	id, err := bidID(r)
	if err != nil {
		return err
	}

	if err := h.repo.DeleteBid(r.Context(), id, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return err
		}
		return internalError("Failed to delete bid", err)
	}

	writeJSON(w, messageResponse{Message: "Bid deleted successfully"}, http.StatusOK)
	return nil
}

func (h *BidsHandler) updateBidStatus(w http.ResponseWriter, r *http.Request, userID int64) error {
	id, err := bidID(r)
	if err != nil {
		return err
	}

	raw := r.FormValue("status")
	if strings.TrimSpace(raw) == "" {
		return missingField("status")
	}
	status, err := models.ParseBidStatus(raw)
	if err != nil {
		return badRequest("%v", err)
	}

	if err := h.repo.UpdateBidStatus(r.Context(), id, userID, status); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return err
		}
		return internalError("Failed to update bid status", err)
	}

	writeJSON(w, messageResponse{Message: "Bid status updated successfully"}, http.StatusOK)
	return nil
}

type suggestionResponse struct {
	Suggestion string `json:"suggestion"`
}

func (h *BidsHandler) aiEditSuggestion(w http.ResponseWriter, r *http.Request, userID int64) error {
	id, err := bidID(r)
	if err != nil {
		return err
	}
	message := strings.TrimSpace(r.FormValue("message"))
	if message == "" {
		return missingField("message")
	}

	bid, err := h.repo.GetBid(r.Context(), id, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return err
		}
		return internalError("Failed to fetch bid", err)
	}

	suggestion, err := h.gen.SuggestEdit(r.Context(), *bid, message)
	if err != nil {
		return internalError("Failed to get AI suggestion", err)
	}

	writeJSON(w, suggestionResponse{Suggestion: suggestion}, http.StatusOK)
	return nil
}
