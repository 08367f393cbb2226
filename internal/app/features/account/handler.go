// Package account serves registration, sign-in and the signed-in user's
// profile over HTTP.
//
// Endpoints (mounted at /api/v1/user):
//   - POST /register, POST /login, POST /refresh
//   - PATCH /forgotPassword, PATCH /resetPassword/{token}
//   - POST /logout, GET|POST /currentUser, PATCH /profile,
//     GET /getUserFileExplorer (authenticated)
//
// Sign-in issues an access/refresh JWT pair. Both are set as HttpOnly
// cookies and echoed in the response body. Only the sha256 of the refresh
// token is stored on the user, and a refresh must present that exact token.
package account

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	bookmarkstore "github.com/dalemusser/stratadaily/internal/app/store/bookmarks"
	eventstore "github.com/dalemusser/stratadaily/internal/app/store/events"
	"github.com/dalemusser/stratadaily/internal/app/store/passwordreset"
	projectstore "github.com/dalemusser/stratadaily/internal/app/store/projects"
	"github.com/dalemusser/stratadaily/internal/app/store/ratelimit"
	songstore "github.com/dalemusser/stratadaily/internal/app/store/songs"
	todostore "github.com/dalemusser/stratadaily/internal/app/store/todos"
	userstore "github.com/dalemusser/stratadaily/internal/app/store/users"
	"github.com/dalemusser/stratadaily/internal/app/system/auth"
	"github.com/dalemusser/stratadaily/internal/app/system/authutil"
	"github.com/dalemusser/stratadaily/internal/app/system/authz"
	"github.com/dalemusser/stratadaily/internal/app/system/fstree"
	"github.com/dalemusser/stratadaily/internal/app/system/jsonutil"
	"github.com/dalemusser/stratadaily/internal/app/system/mailer"
	"github.com/dalemusser/stratadaily/internal/domain/apperr"
	"github.com/dalemusser/stratadaily/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const (
	msgBadCredentials = "Invalid email or password"
	msgBadRefresh     = "Invalid refresh token"
	msgLockedOut      = "Too many failed login attempts. Please try again later."
	msgResetSent      = "If an account exists for that email, a reset link has been sent"
)

// Config holds the settings the handler needs beyond its dependencies.
type Config struct {
	AppName     string
	FrontendURL string // reset links point here
	ResetExpiry time.Duration
	Dev         bool
}

// Handler handles account requests.
type Handler struct {
	users     *userstore.Store
	songs     *songstore.Store
	bookmarks *bookmarkstore.Store
	projects  *projectstore.Store
	todos     *todostore.Store
	events    *eventstore.Store

	engine   *fstree.Engine
	tokens   *auth.TokenManager
	cookies  auth.CookieConfig
	attempts *ratelimit.Store // nil disables the lockout
	resets   *passwordreset.Store
	mail     mailer.Sender

	cfg    Config
	rs     jsonutil.Responder
	logger *zap.Logger
}

// NewHandler creates a new account handler.
func NewHandler(
	db *mongo.Database,
	engine *fstree.Engine,
	tokens *auth.TokenManager,
	cookies auth.CookieConfig,
	attempts *ratelimit.Store,
	resets *passwordreset.Store,
	mail mailer.Sender,
	cfg Config,
	logger *zap.Logger,
) *Handler {
	if cfg.AppName == "" {
		cfg.AppName = "StrataDaily"
	}
	if cfg.ResetExpiry <= 0 {
		cfg.ResetExpiry = time.Hour
	}
	return &Handler{
		users:     userstore.New(db),
		songs:     songstore.New(db),
		bookmarks: bookmarkstore.New(db),
		projects:  projectstore.New(db),
		todos:     todostore.New(db),
		events:    eventstore.New(db),
		engine:    engine,
		tokens:    tokens,
		cookies:   cookies,
		attempts:  attempts,
		resets:    resets,
		mail:      mail,
		cfg:       cfg,
		rs:        jsonutil.Responder{Log: logger, Dev: cfg.Dev},
		logger:    logger,
	}
}

// Register handles POST /register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := jsonutil.Decode(w, r, &req); err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		h.rs.Fail(w, r, err)
		return
	}

	hash, err := authutil.HashPassword(req.Password)
	if err != nil {
		h.rs.Fail(w, r, apperr.Internal("Failed to register user", err))
		return
	}
	u, err := h.users.Create(r.Context(), userstore.CreateInput{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: &hash,
	})
	if errors.Is(err, userstore.ErrDuplicateEmail) {
		h.rs.Fail(w, r, apperr.Conflict("User with this email already exists"))
		return
	}
	if err != nil {
		h.rs.Fail(w, r, err)
		return
	}

	h.logger.Info("user registered", zap.String("user_id", u.ID.Hex()))
	jsonutil.Created(w, "User registered successfully", u)
}

// Login handles POST /login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := jsonutil.Decode(w, r, &req); err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	ctx := r.Context()

	if !h.loginAllowed(ctx, req.Email) {
		h.rs.Fail(w, r, apperr.TooManyRequests(msgLockedOut))
		return
	}

	u, err := h.users.GetByEmail(ctx, req.Email)
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		h.rs.Fail(w, r, err)
		return
	}
	// Third-party accounts have no password and can only use their provider.
	if u == nil || u.PasswordHash == nil || !authutil.CheckPassword(req.Password, *u.PasswordHash) {
		h.recordFailure(ctx, req.Email)
		h.rs.Fail(w, r, apperr.Unauthorized(msgBadCredentials))
		return
	}
	h.clearFailures(ctx, req.Email)

	sess, err := h.startSession(ctx, w, u)
	if err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	h.logger.Info("user logged in", zap.String("user_id", u.ID.Hex()))
	jsonutil.OK(w, "User logged in successfully", sess)
}

// Refresh handles POST /refresh. The refresh token comes from its cookie or,
// failing that, the request body. The presented token is rotated.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	raw := auth.RefreshTokenFromRequest(r)
	if raw == "" && r.ContentLength != 0 {
		var req refreshRequest
		if err := jsonutil.Decode(w, r, &req); err != nil {
			h.rs.Fail(w, r, err)
			return
		}
		raw = strings.TrimSpace(req.RefreshToken)
	}
	if raw == "" {
		h.rs.Fail(w, r, apperr.Unauthorized("Refresh token is required"))
		return
	}

	claims, err := h.tokens.VerifyRefresh(raw)
	if err != nil {
		h.rs.Fail(w, r, apperr.Unauthorized(msgBadRefresh))
		return
	}
	userID, err := claims.UserID()
	if err != nil {
		h.rs.Fail(w, r, apperr.Unauthorized(msgBadRefresh))
		return
	}
	u, err := h.users.GetByID(r.Context(), userID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		h.rs.Fail(w, r, apperr.Unauthorized(msgBadRefresh))
		return
	}
	if err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	if u.RefreshTokenHash == nil || !authutil.TokenMatches(raw, *u.RefreshTokenHash) {
		h.logger.Warn("refresh token reuse or revoked token", zap.String("user_id", u.ID.Hex()))
		h.rs.Fail(w, r, apperr.Unauthorized("Refresh token is expired or used"))
		return
	}

	sess, err := h.startSession(r.Context(), w, u)
	if err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	sess.User = nil
	jsonutil.OK(w, "Access token refreshed", sess)
}

// Logout handles POST /logout.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	caller, err := authz.Caller(r)
	if err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	if err := h.users.SetRefreshTokenHash(r.Context(), caller, nil); err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	h.cookies.ClearTokenCookies(w)
	jsonutil.OK(w, "User logged out", nil)
}

// CurrentUser handles GET and POST /currentUser.
func (h *Handler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	caller, err := authz.Caller(r)
	if err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	ctx := r.Context()
	u, err := h.users.GetByID(ctx, caller)
	if errors.Is(err, mongo.ErrNoDocuments) {
		h.rs.Fail(w, r, apperr.Unauthorized("User no longer exists"))
		return
	}
	if err != nil {
		h.rs.Fail(w, r, err)
		return
	}

	counts, err := h.counts(ctx, caller)
	if err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	jsonutil.OK(w, "Current user fetched successfully", currentUser{User: u, Counts: counts})
}

// ForgotPassword handles PATCH /forgotPassword. The response is the same
// whether or not the email belongs to an account.
func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if err := jsonutil.Decode(w, r, &req); err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	ctx := r.Context()

	u, err := h.users.GetByEmail(ctx, req.Email)
	if errors.Is(err, mongo.ErrNoDocuments) {
		jsonutil.OK(w, msgResetSent, nil)
		return
	}
	if err != nil {
		h.rs.Fail(w, r, err)
		return
	}

	token, _, err := h.resets.Create(ctx, u.ID, u.Email)
	if err != nil {
		h.rs.Fail(w, r, err)
		return
	}

	text, html := mailer.PasswordResetEmail(mailer.PasswordResetEmailData{
		AppName:   h.cfg.AppName,
		UserName:  u.Name,
		ResetURL:  h.resetURL(token),
		ExpiryMin: int(h.cfg.ResetExpiry.Minutes()),
	})
	if err := h.mail.Send(mailer.Email{
		To:       u.Email,
		Subject:  "Reset your " + h.cfg.AppName + " password",
		TextBody: text,
		HTMLBody: html,
	}); err != nil {
		h.logger.Error("failed to send password reset email",
			zap.String("user_id", u.ID.Hex()), zap.Error(err))
	}
	jsonutil.OK(w, msgResetSent, nil)
}

// ResetPassword handles PATCH /resetPassword/{token}.
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimSpace(chi.URLParam(r, "token"))
	var req resetPasswordRequest
	if err := jsonutil.Decode(w, r, &req); err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	ctx := r.Context()

	reset, err := h.resets.Consume(ctx, token)
	if errors.Is(err, passwordreset.ErrInvalidToken) {
		h.rs.Fail(w, r, apperr.Validation("Reset link is invalid or has expired"))
		return
	}
	if err != nil {
		h.rs.Fail(w, r, err)
		return
	}

	hash, err := authutil.HashPassword(req.Password)
	if err != nil {
		h.rs.Fail(w, r, apperr.Internal("Failed to reset password", err))
		return
	}
	if err := h.users.UpdatePassword(ctx, reset.UserID, hash); err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	h.logger.Info("password reset", zap.String("user_id", reset.UserID.Hex()))

	if u, err := h.users.GetByID(ctx, reset.UserID); err == nil {
		text, html := mailer.PasswordChangedEmail(mailer.PasswordChangedEmailData{
			AppName:  h.cfg.AppName,
			UserName: u.Name,
			ResetURL: strings.TrimRight(h.cfg.FrontendURL, "/") + "/forgot-password",
		})
		if err := h.mail.Send(mailer.Email{
			To:       u.Email,
			Subject:  "Your " + h.cfg.AppName + " password was changed",
			TextBody: text,
			HTMLBody: html,
		}); err != nil {
			h.logger.Warn("failed to send password changed email", zap.Error(err))
		}
	}

	h.cookies.ClearTokenCookies(w)
	jsonutil.OK(w, "Password reset successfully", nil)
}

// Profile handles PATCH /profile.
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	caller, err := authz.Caller(r)
	if err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	var req profileRequest
	if err := jsonutil.Decode(w, r, &req); err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		h.rs.Fail(w, r, err)
		return
	}

	u, err := h.users.UpdateProfile(r.Context(), caller, userstore.ProfileUpdate{
		Name:       req.Name,
		ProfilePic: req.ProfilePic,
	})
	if err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	jsonutil.OK(w, "Profile updated successfully", u)
}

// FileExplorer handles GET /getUserFileExplorer.
func (h *Handler) FileExplorer(w http.ResponseWriter, r *http.Request) {
	caller, err := authz.Caller(r)
	if err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	tree, err := h.engine.Tree(r.Context(), caller)
	if err != nil {
		h.rs.Fail(w, r, err)
		return
	}
	jsonutil.OK(w, "File explorer fetched successfully", tree)
}

// startSession issues a token pair, records its refresh hash and sets the
// cookies.
func (h *Handler) startSession(ctx context.Context, w http.ResponseWriter, u *models.User) (session, error) {
	pair, err := h.tokens.Issue(u.ID, u.Email)
	if err != nil {
		return session{}, apperr.Internal("Failed to issue tokens", err)
	}
	hash := authutil.HashToken(pair.RefreshToken)
	if err := h.users.SetRefreshTokenHash(ctx, u.ID, &hash); err != nil {
		return session{}, err
	}
	h.cookies.SetTokenCookies(w, pair)
	return session{User: u, AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken}, nil
}

func (h *Handler) counts(ctx context.Context, owner primitive.ObjectID) (Counts, error) {
	var c Counts
	var err error
	if c.Songs, err = h.songs.CountByOwner(ctx, owner); err != nil {
		return c, err
	}
	if c.Bookmarks, err = h.bookmarks.CountByOwner(ctx, owner); err != nil {
		return c, err
	}
	if c.Projects, err = h.projects.CountByOwner(ctx, owner); err != nil {
		return c, err
	}
	if c.Todos, err = h.todos.CountByOwner(ctx, owner); err != nil {
		return c, err
	}
	if c.Events, err = h.events.CountByOwner(ctx, owner); err != nil {
		return c, err
	}
	return c, nil
}

func (h *Handler) resetURL(token string) string {
	return strings.TrimRight(h.cfg.FrontendURL, "/") + "/reset-password/" + token
}

// loginAllowed consults the lockout store. A store failure lets the attempt
// through rather than locking everyone out.
func (h *Handler) loginAllowed(ctx context.Context, email string) bool {
	if h.attempts == nil {
		return true
	}
	st, err := h.attempts.Check(ctx, email)
	if err != nil {
		h.logger.Error("login lockout check failed", zap.Error(err))
		return true
	}
	return st.Allowed
}

func (h *Handler) recordFailure(ctx context.Context, email string) {
	if h.attempts == nil {
		return
	}
	st, err := h.attempts.RecordFailure(ctx, email)
	if err != nil {
		h.logger.Error("failed to record login failure", zap.Error(err))
		return
	}
	if !st.Allowed {
		h.logger.Warn("login locked out", zap.String("email", email))
	}
}

func (h *Handler) clearFailures(ctx context.Context, email string) {
	if h.attempts == nil {
		return
	}
	if err := h.attempts.Clear(ctx, email); err != nil {
		h.logger.Warn("failed to clear login failures", zap.Error(err))
	}
}
