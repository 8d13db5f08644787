package auth

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/expensetracker/expenses/internal/config"
	"github.com/expensetracker/expenses/internal/rest"
	"github.com/expensetracker/expenses/pkg/user"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

type loginRedirect struct {
	RedirectUrl string `json:"redirectUrl"`
}

// OAuthHandler signs users in with the identity provider using the authorization code flow.
type OAuthHandler struct {
	states       StateRepository
	validator    *TokenValidator
	userService  user.Service
	oauthConfig  *oauth2.Config
	host         string
	cookieSecure bool
}

func NewOAuthHandler(states StateRepository, validator *TokenValidator, userService user.Service, cfg config.Application) *OAuthHandler {
	endpoint := oauth2.Endpoint{AuthURL: cfg.Auth.AuthURL, TokenURL: cfg.Auth.TokenURL}
	if cfg.Auth.Provider == "google" {
		endpoint = google.Endpoint
	}
	oauthConfig := &oauth2.Config{
		ClientID:     cfg.Auth.ClientId,
		ClientSecret: cfg.Auth.ClientSecret,
		Endpoint:     endpoint,
		RedirectURL:  cfg.Host + "/api/auth/callback",
		Scopes:       cfg.Auth.Scopes,
	}
	return &OAuthHandler{
		states:       states,
		validator:    validator,
		userService:  userService,
		oauthConfig:  oauthConfig,
		host:         cfg.Host,
		cookieSecure: cfg.Auth.CookieSecure,
	}
}

// Login godoc
// @Summary Start sign-in
// @Description Returns the identity provider URL the browser should be redirected to
// @Tags Auth
// @Produce json
// @Param finalUrl query string false "Where to return after sign-in"
// @Success 200 {object} loginRedirect
// @Router /api/auth/login [get]
func (h *OAuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	finalUrl := h.safeFinalUrl(r.URL.Query().Get("finalUrl"))
	stateNonce := uuid.New().String()

	if err := h.states.Store(r.Context(), stateNonce, finalUrl); err != nil {
		log.Errorf("failed to store auth nonce: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		encodeErr := json.NewEncoder(w).Encode(rest.ErrorResponse{
			Error: "Failed to handle authentication",
		})
		if encodeErr != nil {
			http.Error(w, encodeErr.Error(), http.StatusInternalServerError)
		}
		return
	}

	log.Tracef("Redirecting to identity provider with nonce: %s", stateNonce)
	u := h.oauthConfig.AuthCodeURL(stateNonce)

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(loginRedirect{RedirectUrl: u}); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// Callback godoc
// @Summary Finish sign-in
// @Description Exchanges the authorization code, sets the session cookie and redirects to the final url
// @Tags Auth
// @Param code query string true "Authorization code"
// @Param state query string true "State nonce"
// @Success 302 "Redirect to finalUrl?success=true|false"
// @Router /api/auth/callback [get]
func (h *OAuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	code := r.FormValue("code")
	nonce := r.FormValue("state")

	finalUrl, err := h.states.Consume(r.Context(), nonce)
	if err != nil {
		log.Warnf("unknown auth state %q: %v", nonce, err)
		http.Redirect(w, r, withSuccess(h.safeFinalUrl(""), false), http.StatusFound)
		return
	}

	token, err := h.oauthConfig.Exchange(r.Context(), code)
	if err != nil {
		log.Errorf("unable to exchange code for token: %v", err)
		http.Redirect(w, r, withSuccess(finalUrl, false), http.StatusFound)
		return
	}

	idToken, _ := token.Extra("id_token").(string)
	if idToken == "" {
		log.Error("identity provider did not return an id_token")
		http.Redirect(w, r, withSuccess(finalUrl, false), http.StatusFound)
		return
	}
	claims, err := h.validator.Validate(idToken)
	if err != nil {
		log.Errorf("identity provider returned an invalid id_token: %v", err)
		http.Redirect(w, r, withSuccess(finalUrl, false), http.StatusFound)
		return
	}

	signedIn, err := h.userService.EnsureUser(r.Context(), claims.Identity())
	if err != nil {
		log.Errorf("unable to ensure user %s: %v", claims.Subject, err)
		http.Redirect(w, r, withSuccess(finalUrl, false), http.StatusFound)
		return
	}

	expires := time.Now().Add(time.Hour)
	if claims.ExpiresAt != nil {
		expires = claims.ExpiresAt.Time
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    idToken,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	log.Debugf("User %d signed in", signedIn.Id)
	http.Redirect(w, r, withSuccess(finalUrl, true), http.StatusFound)
}

// Logout godoc
// @Summary Sign out
// @Description Clears the session cookie
// @Tags Auth
// @Success 204 "No Content"
// @Router /api/auth/session [delete]
func (h *OAuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

// safeFinalUrl only allows redirects back to the application itself.
func (h *OAuthHandler) safeFinalUrl(finalUrl string) string {
	if strings.HasPrefix(finalUrl, "/") && !strings.HasPrefix(finalUrl, "//") && !strings.HasPrefix(finalUrl, "/\\") {
		return h.host + finalUrl
	}
	if sameOrigin(finalUrl, h.host) {
		return finalUrl
	}
	return h.host + "/"
}

// sameOrigin reports whether candidate is an absolute url on exactly the scheme and host of base.
func sameOrigin(candidate string, base string) bool {
	if base == "" {
		return false
	}
	c, err := url.Parse(candidate)
	if err != nil || c.User != nil {
		return false
	}
	b, err := url.Parse(base)
	if err != nil {
		return false
	}
	return c.Scheme == b.Scheme && strings.EqualFold(c.Host, b.Host)
}

func withSuccess(finalUrl string, success bool) string {
	sep := "?"
	if strings.Contains(finalUrl, "?") {
		sep = "&"
	}
	if success {
		return finalUrl + sep + "success=true"
	}
	return finalUrl + sep + "success=false"
}
