package handlers

import (
	"net/http"
	"time"

	"github.com/dom/coursemarket/internal/api/middleware"
	"github.com/dom/coursemarket/internal/api/response"
	"github.com/dom/coursemarket/internal/domain"
	"github.com/dom/coursemarket/internal/service"
)

// IdentityHandler serves register, login and logout for one namespace.
// Admins and users get separate instances that differ only in wording,
// response key and a couple of status codes.
type IdentityHandler struct {
	credentials  *service.CredentialService
	ns           domain.Namespace
	label        string
	loginStatus  int
	logoutStatus int
	secureCookie bool
	cookieTTL    time.Duration
}

func NewAdminHandler(credentials *service.CredentialService, secureCookie bool, cookieTTL time.Duration) *IdentityHandler {
	return &IdentityHandler{
		credentials:  credentials,
		ns:           domain.NamespaceAdmin,
		label:        "Admin",
		loginStatus:  http.StatusOK,
		logoutStatus: http.StatusOK,
		secureCookie: secureCookie,
		cookieTTL:    cookieTTL,
	}
}

func NewUserHandler(credentials *service.CredentialService, secureCookie bool, cookieTTL time.Duration) *IdentityHandler {
	return &IdentityHandler{
		credentials:  credentials,
		ns:           domain.NamespaceUser,
		label:        "User",
		loginStatus:  http.StatusCreated,
		logoutStatus: http.StatusCreated,
		secureCookie: secureCookie,
		cookieTTL:    cookieTTL,
	}
}

type RegisterRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type IdentityResponse struct {
	ID        string    `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

func toIdentityResponse(identity *domain.Identity) IdentityResponse {
	return IdentityResponse{
		ID:        identity.ID.String(),
		FirstName: identity.FirstName,
		LastName:  identity.LastName,
		Email:     identity.Email,
		CreatedAt: identity.CreatedAt,
	}
}

func (h *IdentityHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	identity, err := h.credentials.Register(r.Context(), h.ns, service.RegisterInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
	})
	if err != nil {
		writeServiceError(w, r, string(h.ns)+".register", err)
		return
	}

	response.JSON(w, http.StatusCreated, map[string]interface{}{
		"message":    h.label + " signup successfully",
		string(h.ns): toIdentityResponse(identity),
	})
}

func (h *IdentityHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.credentials.Login(r.Context(), h.ns, service.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeServiceError(w, r, string(h.ns)+".login", err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.TokenCookie,
		Value:    result.Token,
		Path:     "/",
		MaxAge:   int(h.cookieTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteStrictMode,
	})

	response.JSON(w, h.loginStatus, map[string]interface{}{
		"message":    h.label + " logged in successfully",
		string(h.ns): toIdentityResponse(result.Identity),
		"token":      result.Token,
	})
}

// Logout clears the token cookie. Tokens are stateless, so a bearer token
// stays valid until it expires.
func (h *IdentityHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.TokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteStrictMode,
	})

	response.JSON(w, h.logoutStatus, map[string]string{
		"message": "Logged out successfully",
	})
}
