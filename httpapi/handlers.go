package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"

	shopauth "github.com/phitku/shopauth"
	"github.com/phitku/shopauth/middleware"
)

// Handler serves the authentication API for one engine.
type Handler struct {
	engine *shopauth.Engine
}

// New creates a [Handler] around the engine.
func New(engine *shopauth.Engine) *Handler {
	return &Handler{engine: engine}
}

// Routes mounts every endpoint on a fresh mux. The me and address endpoints
// sit behind the bearer-token guard; everything else is reachable without a
// token.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/auth/register", h.registerInit)
	mux.HandleFunc("POST /api/auth/register/verify", h.registerVerify)
	mux.HandleFunc("POST /api/auth/register/finalize", h.registerFinalize)
	mux.HandleFunc("POST /api/auth/login", h.login)
	mux.HandleFunc("POST /api/auth/logout", h.logout)
	mux.HandleFunc("POST /api/auth/forgot-password", h.forgotPassword)
	mux.HandleFunc("POST /api/auth/forgot-password/verify", h.forgotVerify)
	mux.HandleFunc("POST /api/auth/reset-password", h.resetPassword)

	guard := middleware.Guard(h.engine)
	mux.Handle("GET /api/auth/me", guard(http.HandlerFunc(h.me)))
	mux.Handle("POST /api/auth/address", guard(http.HandlerFunc(h.addAddress)))

	return mux
}

type authRequest struct {
	Name     string            `json:"name"`
	Email    string            `json:"email"`
	OTP      string            `json:"otp"`
	Password string            `json:"password"`
	Address  *shopauth.Address `json:"address"`
}

func (h *Handler) registerInit(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	if err := h.engine.BeginRegistration(h.requestContext(r), req.Email, req.Name); err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"message": "verification code sent",
	})
}

func (h *Handler) registerVerify(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	if err := h.engine.VerifyRegistrationCode(h.requestContext(r), req.Email, req.OTP); err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"message": "code verified",
	})
}

func (h *Handler) registerFinalize(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	result, err := h.engine.CompleteRegistration(h.requestContext(r), req.Email, req.OTP, req.Password)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeSession(w, "registration complete", result)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	result, err := h.engine.Login(h.requestContext(r), req.Email, req.Password)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeSession(w, "login successful", result)
}

func (h *Handler) logout(w http.ResponseWriter, _ *http.Request) {
	clearRefreshCookie(w, h.engine.Config().Production)
	h.writeJSON(w, http.StatusOK, map[string]any{
		"message": "logged out",
	})
}

func (h *Handler) forgotPassword(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	if err := h.engine.RequestPasswordReset(h.requestContext(r), req.Email); err != nil {
		h.writeError(w, err)
		return
	}

	// Same body whether or not the email exists.
	h.writeJSON(w, http.StatusOK, map[string]any{
		"message": "if the account exists, a reset code was sent",
	})
}

func (h *Handler) forgotVerify(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	if err := h.engine.VerifyResetCode(h.requestContext(r), req.Email, req.OTP); err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"message": "code verified",
	})
}

func (h *Handler) resetPassword(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	if err := h.engine.ConfirmPasswordReset(h.requestContext(r), req.Email, req.OTP, req.Password); err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"message": "password updated",
	})
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r.Context())
	if identity == nil {
		h.writeError(w, shopauth.ErrUnauthenticated)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"message": "ok",
		"user":    identity.Profile(),
	})
}

func (h *Handler) addAddress(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r.Context())
	if identity == nil {
		h.writeError(w, shopauth.ErrUnauthenticated)
		return
	}

	req, ok := h.decode(w, r)
	if !ok {
		return
	}
	if req.Address == nil {
		h.writeError(w, shopauth.ErrInvalidAddress)
		return
	}

	updated, err := h.engine.AddAddress(h.requestContext(r), identity.ID, *req.Address)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"message": "address added",
		"user":    updated.Profile(),
	})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (authRequest, bool) {
	var req authRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]any{
			"message": "invalid request body",
		})
		return authRequest{}, false
	}
	return req, true
}

// writeSession sets the refresh cookie and returns the access token plus the
// reduced user projection.
func (h *Handler) writeSession(w http.ResponseWriter, message string, result *shopauth.LoginResult) {
	cfg := h.engine.Config()
	setRefreshCookie(w, result.RefreshToken, cfg.JWT.RefreshTTL, cfg.Production)

	h.writeJSON(w, http.StatusOK, map[string]any{
		"message":     message,
		"accessToken": result.AccessToken,
		"user":        result.Profile,
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError maps engine errors onto statuses without leaking internals.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := "internal error"

	switch {
	case errors.Is(err, shopauth.ErrAlreadyRegistered):
		status, message = http.StatusConflict, "email already registered"
	case errors.Is(err, shopauth.ErrCodeInvalidOrExpired):
		status, message = http.StatusBadRequest, "verification code invalid or expired"
	case errors.Is(err, shopauth.ErrWeakPassword):
		status, message = http.StatusBadRequest, "password does not meet requirements"
	case errors.Is(err, shopauth.ErrInvalidAddress):
		status, message = http.StatusBadRequest, "address is missing required fields"
	case errors.Is(err, shopauth.ErrInvalidCredentials):
		status, message = http.StatusUnauthorized, "invalid email or password"
	case errors.Is(err, shopauth.ErrAccountUnverified):
		status, message = http.StatusForbidden, "account not verified"
	case errors.Is(err, shopauth.ErrUnauthenticated):
		status, message = http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, shopauth.ErrForbidden):
		status, message = http.StatusForbidden, "forbidden"
	case errors.Is(err, shopauth.ErrIdentityNotFound):
		status, message = http.StatusNotFound, "account not found"
	case errors.Is(err, shopauth.ErrOTPRateLimited):
		status, message = http.StatusTooManyRequests, "too many attempts, try again later"
	case errors.Is(err, shopauth.ErrStoreUnavailable):
		status, message = http.StatusServiceUnavailable, "service unavailable"
	}

	h.writeJSON(w, status, map[string]any{
		"message": message,
	})
}

// requestContext attaches the client IP so issuance throttling can key on it.
func (h *Handler) requestContext(r *http.Request) context.Context {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return shopauth.WithClientIP(r.Context(), host)
}
