package http

import (
	"context"
	"crypto/rsa"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/applyflow/auth-service/internal/auth/service"
	"github.com/applyflow/auth-service/internal/common/config"
	commonhttp "github.com/applyflow/auth-service/internal/common/http"
	"github.com/applyflow/auth-service/internal/common/jwtverify"
	"github.com/applyflow/auth-service/internal/common/logger"
)

type loginRequest struct {
	Email    string `json:"email" validate:"required,email,min=3,max=255"`
	Password string `json:"password" validate:"required,min=6,max=45"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type loginResponse struct {
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
	User         userResponse `json:"user"`
}

type userResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type refreshResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type publicTokenResponse struct {
	Token string `json:"token"`
}

type Handler struct {
	auth         *service.AuthService
	publicTokens *service.PublicTokenService
	cfg          config.AuthConfig
	validate     *validator.Validate
	log          *logger.Logger
}

// NewHandler builds the auth route set. The public-key gate wraps only the
// login route; logout requires a private access token.
func NewHandler(
	auth *service.AuthService,
	publicTokens *service.PublicTokenService,
	gateKey *rsa.PublicKey,
	verifyKey *rsa.PublicKey,
	cfg config.AuthConfig,
	log *logger.Logger,
) http.Handler {
	h := &Handler{
		auth:         auth,
		publicTokens: publicTokens,
		cfg:          cfg,
		validate:     validator.New(),
		log:          log,
	}

	gate := PublicKeyGate(gateKey, log)
	authRequired := jwtverify.Middleware(verifyKey, log)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", commonhttp.HealthHandler(log))
	mux.Handle("/auth/login", gate(http.HandlerFunc(h.login)))
	mux.HandleFunc("/auth/refresh", h.refresh)
	mux.Handle("/auth/logout", authRequired(http.HandlerFunc(h.logout)))
	mux.HandleFunc("/public-token", h.publicToken)
	return mux
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		commonhttp.WriteErrorEnvelope(w, http.StatusMethodNotAllowed, commonhttp.CodeMethodNotAllowed, "method not allowed", nil, "")
		return
	}

	var req loginRequest
	if err := commonhttp.DecodeJSON(r, &req); err != nil {
		h.log.Warnf("login failed: invalid json: %v", err)
		commonhttp.WriteErrorEnvelope(w, http.StatusBadRequest, commonhttp.CodeInvalidJSON, "invalid json", nil, "")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		h.log.Warnf("login failed: validation: %v", err)
		commonhttp.WriteErrorEnvelope(w, http.StatusBadRequest, commonhttp.CodeValidationFailed, "invalid request body", nil, "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.cfg.RequestTimeout)
	defer cancel()

	result, err := h.auth.Authenticate(ctx, service.AuthenticateInput{
		Email:      req.Email,
		Password:   req.Password,
		IPAddress:  commonhttp.GetClientIP(r),
		DeviceInfo: r.UserAgent(),
	})
	if err != nil {
		commonhttp.WriteDomainError(w, r, err)
		return
	}

	commonhttp.WriteJSON(w, http.StatusOK, loginResponse{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		User: userResponse{
			ID:    result.User.ID,
			Name:  result.User.Name,
			Email: result.User.Email,
		},
	})
}

func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		commonhttp.WriteErrorEnvelope(w, http.StatusMethodNotAllowed, commonhttp.CodeMethodNotAllowed, "method not allowed", nil, "")
		return
	}

	var req refreshRequest
	if err := commonhttp.DecodeJSON(r, &req); err != nil {
		h.log.Warnf("refresh failed: invalid json: %v", err)
		commonhttp.WriteErrorEnvelope(w, http.StatusBadRequest, commonhttp.CodeInvalidJSON, "invalid json", nil, "")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		commonhttp.WriteErrorEnvelope(w, http.StatusBadRequest, commonhttp.CodeMissingRefreshToken, "refresh token is required", nil, "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.cfg.RequestTimeout)
	defer cancel()

	pair, err := h.auth.Refresh(ctx, req.RefreshToken, commonhttp.GetClientIP(r), r.UserAgent())
	if err != nil {
		commonhttp.WriteDomainError(w, r, err)
		return
	}

	commonhttp.WriteJSON(w, http.StatusOK, refreshResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		commonhttp.WriteErrorEnvelope(w, http.StatusMethodNotAllowed, commonhttp.CodeMethodNotAllowed, "method not allowed", nil, "")
		return
	}

	claims, ok := jwtverify.FromContext(r.Context())
	if !ok {
		commonhttp.WriteErrorEnvelope(w, http.StatusUnauthorized, commonhttp.CodeMissingAuthorization, "missing or invalid authorization", nil, "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.cfg.RequestTimeout)
	defer cancel()

	if err := h.auth.Logout(ctx, claims.UserID); err != nil {
		commonhttp.WriteDomainError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) publicToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		commonhttp.WriteErrorEnvelope(w, http.StatusMethodNotAllowed, commonhttp.CodeMethodNotAllowed, "method not allowed", nil, "")
		return
	}

	publicKey := r.Header.Get("public-key")
	if publicKey == "" {
		commonhttp.WriteErrorEnvelope(w, http.StatusUnauthorized, commonhttp.CodeMissingPublicKey, "public key not informed", nil, "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.cfg.RequestTimeout)
	defer cancel()

	signed, err := h.publicTokens.Create(ctx, publicKey, h.cfg.PublicTokenTTL)
	if err != nil {
		commonhttp.WriteDomainError(w, r, err)
		return
	}

	commonhttp.WriteJSON(w, http.StatusOK, publicTokenResponse{Token: signed})
}
