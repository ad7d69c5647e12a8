package handler

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"telematics/internal/api/util"
)

type AuthHandler struct {
	tokens *util.TokenManager
	apiKey string
}

// NewAuthHandler issues tokens to clients presenting apiKey. An empty key
// disables token issuing.
func NewAuthHandler(tokens *util.TokenManager, apiKey string) *AuthHandler {
	return &AuthHandler{tokens: tokens, apiKey: apiKey}
}

type tokenRequest struct {
	Client string `json:"client"`
	APIKey string `json:"apiKey"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

func (h *AuthHandler) IssueToken(w http.ResponseWriter, r *http.Request) {
	if h.apiKey == "" {
		util.RespondError(w, http.StatusServiceUnavailable, "token issuing disabled")
		return
	}

	var req tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		util.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Client == "" {
		util.RespondError(w, http.StatusBadRequest, "client is required")
		return
	}
	if subtle.ConstantTimeCompare([]byte(req.APIKey), []byte(h.apiKey)) != 1 {
		util.RespondError(w, http.StatusUnauthorized, "invalid api key")
		return
	}

	token, err := h.tokens.Issue(req.Client, "operator")
	if err != nil {
		util.RespondError(w, http.StatusInternalServerError, "error generating token")
		return
	}

	util.RespondJSON(w, http.StatusOK, tokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(h.tokens.TTL().Seconds()),
	})
}
