package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

// ErrBadCredentials is returned by CredentialVerifier implementations when
// the username/password pair does not match a known identity.
var ErrBadCredentials = errors.New("invalid username or password")

// CredentialVerifier checks a username/password pair and returns the token
// subject snapshot for the matched identity.
type CredentialVerifier interface {
	VerifyCredentials(ctx context.Context, username, password string) (*TokenSubject, error)
}

// Handler serves the session boundary: obtain pair, refresh, logout.
type Handler struct {
	verifier CredentialVerifier
	issuer   *TokenIssuer
}

func NewHandler(verifier CredentialVerifier, issuer *TokenIssuer) *Handler {
	return &Handler{verifier: verifier, issuer: issuer}
}

// RegisterRoutes mounts the auth endpoints on g. These routes sit outside the
// JWT middleware: obtaining and refreshing tokens must work unauthenticated.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/token", h.ObtainPair)
	g.POST("/token/refresh", h.RefreshToken)
	g.POST("/logout", h.Logout)
}

type obtainRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) ObtainPair(c echo.Context) error {
	var req obtainRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Username == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "username and password are required")
	}

	sub, err := h.verifier.VerifyCredentials(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "no active account found with the given credentials")
	}

	pair, err := h.issuer.IssuePair(*sub)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "could not issue tokens")
	}
	return c.JSON(http.StatusOK, pair)
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

type refreshResponse struct {
	Access string `json:"access"`
}

func (h *Handler) RefreshToken(c echo.Context) error {
	var req refreshRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Refresh == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "refresh token is required")
	}

	access, err := h.issuer.Refresh(req.Refresh)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "token is invalid or expired")
	}
	return c.JSON(http.StatusOK, refreshResponse{Access: access})
}

func (h *Handler) Logout(c echo.Context) error {
	var req refreshRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Refresh == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing refresh token")
	}

	if err := h.issuer.Revoke(req.Refresh); err != nil {
		// Already-revoked and malformed tokens are both client errors.
		return echo.NewHTTPError(http.StatusBadRequest, "invalid token")
	}
	return c.NoContent(http.StatusResetContent)
}
