package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"

	"github.com/garnizeh/bidwright/internal/models"
	"github.com/garnizeh/bidwright/pkg/repository"
	"golang.org/x/crypto/bcrypt"
)

type AuthHandler struct {
	userRepo repository.UserRepo
	tokens   *Tokens
}

// NewAuthHandler creates a new AuthHandler with required dependencies.
func NewAuthHandler(ur repository.UserRepo, tokens *Tokens) *AuthHandler {
	return &AuthHandler{userRepo: ur, tokens: tokens}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string `json:"token"`
	Nonce string `json:"nonce"`
}

func decodeCredentials(r *http.Request) (credentialsRequest, bool) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return req, false
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	return req, true
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeCredentials(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid request")
		return
	}
	if req.Email == "" {
		writeError(w, http.StatusBadRequest, "Missing required field: email")
		return
	}
	if req.Password == "" {
		writeError(w, http.StatusBadRequest, "Missing required field: password")
		return
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid email")
		return
	}

	ctx := r.Context()

	existing, err := h.userRepo.GetUserByEmail(ctx, req.Email)
	if err != nil {
		writeFailure(w, r, "signup", internalError("Error creating user", err))
		return
	}
	if existing != nil {
		writeError(w, http.StatusConflict, "Email already registered")
		return
	}

	// Hash password
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error hashing password")
		return
	}

	userID, err := h.userRepo.CreateUser(ctx, &models.User{Email: req.Email, PasswordHash: string(hash)})
	if err != nil {
		writeFailure(w, r, "signup", internalError("Error creating user", err))
		return
	}

	logger.Info("user registered", slog.Int64("user_id", userID))
	h.respondWithTokens(w, r, userID, req.Email)
}

func (h *AuthHandler) Signin(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeCredentials(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid request")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Missing fields")
		return
	}

	user, err := h.userRepo.GetUserByEmail(r.Context(), req.Email)
	if err != nil || user == nil {
		writeError(w, http.StatusUnauthorized, "Credentials not found")
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		writeError(w, http.StatusUnauthorized, "Credentials not found")
		return
	}

	h.respondWithTokens(w, r, user.ID, user.Email)
}

func (h *AuthHandler) respondWithTokens(w http.ResponseWriter, r *http.Request, userID int64, email string) {
	token, err := h.tokens.IssueSession(userID, email)
	if err != nil {
		writeFailure(w, r, "auth", internalError("Error signing token", err))
		return
	}
	nonce, err := h.tokens.IssueNonce(userID)
	if err != nil {
		writeFailure(w, r, "auth", internalError("Error signing token", err))
		return
	}

	writeJSON(w, authResponse{Token: token, Nonce: nonce}, http.StatusOK)
}

func (h *AuthHandler) Signout(w http.ResponseWriter, r *http.Request) {
	// For stateless JWT, signout is client-side (just delete token)
	writeJSON(w, messageResponse{Message: "signed out"}, http.StatusOK)
}
