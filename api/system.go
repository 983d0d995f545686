package api

import (
	"net/http"
)

type SystemHandler struct{}

func (h *SystemHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok", "service": "bidwright"}, http.StatusOK)
}

func (h *SystemHandler) VersionHandler(version, buildTime string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{"version": version, "buildTime": buildTime}, http.StatusOK)
	}
}

// ClientConfigHandler hands the dashboard what it needs to call the action
// endpoints: the results page slug and a fresh nonce.
type ClientConfigHandler struct {
	tokens        *Tokens
	dashboardSlug string
}

func NewClientConfigHandler(tokens *Tokens, dashboardSlug string) *ClientConfigHandler {
	return &ClientConfigHandler{tokens: tokens, dashboardSlug: dashboardSlug}
}

type clientConfigResponse struct {
	DashboardSlug string `json:"dashboardSlug"`
	Nonce         string `json:"nonce"`
}

func (h *ClientConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	nonce, err := h.tokens.IssueNonce(userID)
	if err != nil {
		writeFailure(w, r, "client_config", internalError("Error issuing nonce", err))
		return
	}

	writeJSON(w, clientConfigResponse{DashboardSlug: h.dashboardSlug, Nonce: nonce}, http.StatusOK)
}
