// internal/app/features/authgoogle/authgoogle.go
package authgoogle

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	errorsfeature "github.com/dalemusser/stratadaily/internal/app/features/errors"
	"github.com/dalemusser/stratadaily/internal/app/store/oauthstate"
	userstore "github.com/dalemusser/stratadaily/internal/app/store/users"
	"github.com/dalemusser/stratadaily/internal/app/system/auth"
	"github.com/dalemusser/stratadaily/internal/app/system/authutil"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const defaultUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// Config holds the Google client registration and where to send the
// browser afterwards.
type Config struct {
	ClientID     string
	ClientSecret string
	// RedirectURL is this service's callback, e.g.
	// https://api.example.com/api/v1/auth/google/callback.
	RedirectURL string
	FrontendURL string
}

// Handler provides Google OAuth handlers.
type Handler struct {
	users       *userstore.Store
	states      *oauthstate.Store
	tokens      *auth.TokenManager
	cookies     auth.CookieConfig
	oauthConfig *oauth2.Config
	userInfoURL string
	frontendURL string
	errLog      *errorsfeature.ErrorLogger
	logger      *zap.Logger
}

// NewHandler creates a new Google OAuth Handler.
func NewHandler(
	db *mongo.Database,
	tokens *auth.TokenManager,
	cookies auth.CookieConfig,
	cfg Config,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		users:   userstore.New(db),
		states:  oauthstate.New(db),
		tokens:  tokens,
		cookies: cookies,
		oauthConfig: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		userInfoURL: defaultUserInfoURL,
		frontendURL: strings.TrimRight(cfg.FrontendURL, "/"),
		errLog:      errorsfeature.NewErrorLogger(logger),
		logger:      logger,
	}
}

// Routes returns the router mounted at /api/v1/auth/google.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.startAuth)
	r.Get("/callback", h.handleCallback)
	return r
}

// startAuth records a state and PKCE verifier, then sends the browser to
// Google's consent screen.
func (h *Handler) startAuth(w http.ResponseWriter, r *http.Request) {
	state, err := generateState()
	if err != nil {
		h.fail(w, r, "oauth_error", "generate state", err)
		return
	}
	verifier := oauth2.GenerateVerifier()

	if err := h.states.Create(r.Context(), state, verifier); err != nil {
		h.fail(w, r, "oauth_error", "store state", err)
		return
	}

	authURL := h.oauthConfig.AuthCodeURL(state, oauth2.AccessTypeOnline, oauth2.S256ChallengeOption(verifier))
	http.Redirect(w, r, authURL, http.StatusTemporaryRedirect)
}

// handleCallback exchanges the code, creates or links the account and
// issues the same token cookies as a password login.
func (h *Handler) handleCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	verifier, err := h.states.Consume(ctx, q.Get("state"))
	if err != nil {
		if errors.Is(err, oauthstate.ErrUnknownState) {
			h.logger.Warn("invalid oauth state")
			h.redirectError(w, r, "invalid_state")
			return
		}
		h.fail(w, r, "oauth_error", "consume state", err)
		return
	}

	if errMsg := q.Get("error"); errMsg != "" {
		h.logger.Warn("oauth error from google", zap.String("error", errMsg))
		h.redirectError(w, r, errMsg)
		return
	}

	token, err := h.oauthConfig.Exchange(ctx, q.Get("code"), oauth2.VerifierOption(verifier))
	if err != nil {
		h.fail(w, r, "token_exchange_failed", "exchange code", err)
		return
	}

	info, err := h.getUserInfo(ctx, token)
	if err != nil {
		h.fail(w, r, "userinfo_failed", "fetch user info", err)
		return
	}
	if info.Email == "" || !info.VerifiedEmail {
		h.logger.Warn("google account without verified email", zap.String("google_id", info.ID))
		h.redirectError(w, r, "email_not_verified")
		return
	}

	user, err := h.users.UpsertThirdParty(ctx, info.Email, info.Name, info.Picture)
	if err != nil {
		h.fail(w, r, "database_error", "upsert user", err)
		return
	}

	pair, err := h.tokens.Issue(user.ID, user.Email)
	if err != nil {
		h.fail(w, r, "session_error", "issue tokens", err)
		return
	}
	hash := authutil.HashToken(pair.RefreshToken)
	if err := h.users.SetRefreshTokenHash(ctx, user.ID, &hash); err != nil {
		h.fail(w, r, "session_error", "store refresh token", err)
		return
	}
	h.cookies.SetTokenCookies(w, pair)

	h.logger.Info("google sign-in", zap.String("user_id", user.ID.Hex()))
	http.Redirect(w, r, h.frontendURL+"/", http.StatusSeeOther)
}

// GoogleUserInfo represents user info from Google.
type GoogleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// getUserInfo fetches user info from Google.
func (h *Handler) getUserInfo(ctx context.Context, token *oauth2.Token) (*GoogleUserInfo, error) {
	client := h.oauthConfig.Client(ctx, token)

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.userInfoURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo: status %d", resp.StatusCode)
	}

	var userInfo GoogleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&userInfo); err != nil {
		return nil, err
	}
	return &userInfo, nil
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, code, msg string, err error) {
	h.errLog.Log(r, "google sign-in: "+msg, err)
	h.redirectError(w, r, code)
}

// redirectError sends the browser to the frontend login page with an error code.
func (h *Handler) redirectError(w http.ResponseWriter, r *http.Request, code string) {
	http.Redirect(w, r, h.frontendURL+"/login?error="+url.QueryEscape(code), http.StatusSeeOther)
}

// generateState generates a random state token.
func generateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
