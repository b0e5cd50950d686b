package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dkarlovs/shopcore/internal/events"
	"github.com/dkarlovs/shopcore/internal/oauth"
	"github.com/dkarlovs/shopcore/internal/service"
	"github.com/dkarlovs/shopcore/internal/utils"
)

const stateCookie = "oauth_state"

// OAuthHandler drives the provider login flow: redirect out, resolve the
// callback profile to a local user, return a token pair.
type OAuthHandler struct {
	Auth      *service.AuthService
	Providers oauth.Registry
}

func NewOAuthHandler(auth *service.AuthService, providers oauth.Registry) *OAuthHandler {
	return &OAuthHandler{Auth: auth, Providers: providers}
}

// Start redirects the client to the provider's consent page. An
// unconfigured provider responds the same as an unknown one.
func (h *OAuthHandler) Start(c echo.Context) error {
	p, ok := h.Providers.Get(c.Param("provider"))
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "unknown provider"})
	}
	state, err := utils.NewRefreshValue()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "state generation failed"})
	}
	c.SetCookie(&http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   int((10 * time.Minute).Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return c.Redirect(http.StatusFound, p.AuthCodeURL(state))
}

// Callback exchanges the authorization code, resolves or creates the local
// account and returns a fresh session.
func (h *OAuthHandler) Callback(c echo.Context) error {
	p, ok := h.Providers.Get(c.Param("provider"))
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "unknown provider"})
	}

	cookie, err := c.Cookie(stateCookie)
	if err != nil || cookie.Value == "" || cookie.Value != c.QueryParam("state") {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "state mismatch"})
	}
	code := c.QueryParam("code")
	if code == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "code required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	profile, err := p.FetchProfile(ctx, code)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "provider callback failed"})
	}

	u, err := h.Auth.FindOrCreateOAuthUser(ctx, p.Name, profile.ProviderID, profile.Email, profile.Name, profile.Raw)
	if err != nil {
		if errors.Is(err, service.ErrAccountDisabled) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "account disabled"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "resolve user failed"})
	}
	s, err := h.Auth.IssueSessionFor(ctx, u, c.Request().UserAgent(), c.RealIP())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue session failed"})
	}

	events.PublishAsync(events.NewAuthEvent(events.TypeUserLoggedIn, u.ID, u.Email, p.Name))
	return c.JSON(http.StatusOK, sessionResp(s))
}
