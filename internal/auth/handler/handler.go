package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"signet/internal/auth/cookie"
	"signet/internal/auth/models"
	"signet/internal/auth/service"
	"signet/internal/platform/middleware"
	jsonResponse "signet/internal/transport/http/json"
	"signet/internal/transport/http/shared"
	id "signet/pkg/domain"
	dErrors "signet/pkg/domain-errors"
)

// Service defines the interface for account operations.
type Service interface {
	SignUp(ctx context.Context, req *models.SignUpRequest) (*models.UserResult, error)
	SignIn(ctx context.Context, req *models.SignInRequest) (*service.AuthResult, error)
	Refresh(ctx context.Context, req *models.RefreshRequest) (*service.AuthResult, error)
	SignOut(ctx context.Context) []cookie.Spec
	ListUsers(ctx context.Context) (*models.UsersResult, error)
	GetUser(ctx context.Context, userID id.UserID) (*models.UserResult, error)
}

// Handler handles the account endpoints: registration, sign-in, token
// refresh, sign-out, and user lookups.
type Handler struct {
	auth   Service
	logger *slog.Logger
}

// New creates a new account Handler with the given service and logger.
func New(auth Service, logger *slog.Logger) *Handler {
	return &Handler{
		auth:   auth,
		logger: logger,
	}
}

// Register registers the public account routes with the chi router.
// Sign-up stays public: creating an administrator account is authorized
// inside the service from the caller's stored record, not by the route.
func (h *Handler) Register(r chi.Router) {
	r.Post("/accounts/sign-up", h.HandleSignUp)
	r.Post("/accounts/sign-in", h.HandleSignIn)
	r.Post("/accounts/refresh", h.HandleRefresh)
	r.Post("/accounts/sign-out", h.HandleSignOut)
}

// RegisterProtected registers the routes that need a verified access token.
// Note: the authentication middleware is applied by the parent router.
func (h *Handler) RegisterProtected(r chi.Router) {
	r.Get("/accounts/users", h.HandleListUsers)
	r.Get("/accounts/users/{user_id}", h.HandleGetUser)
}

// HandleSignUp implements POST /accounts/sign-up.
//
// Input: { "email": "...", "password": "...", "family_name": "...", "given_name": "...", "permission_code": 1 }
// Output: 201 with the created account. The password never appears in any response.
func (h *Handler) HandleSignUp(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	var req *models.SignUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "failed to decode sign-up request",
			"error", err,
			"request_id", requestID,
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "Invalid JSON in request body"))
		return
	}

	req.Normalize()
	if err := req.Validate(); err != nil {
		h.logger.WarnContext(ctx, "invalid sign-up request",
			"error", err,
			"request_id", requestID,
		)
		shared.WriteError(w, err)
		return
	}

	res, err := h.auth.SignUp(ctx, req)
	if err != nil {
		h.logger.WarnContext(ctx, "sign-up failed",
			"error", err,
			"request_id", requestID,
		)
		shared.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "sign-up successful",
		"request_id", requestID,
		"user_id", res.ID,
	)

	jsonResponse.WriteJSON(w, http.StatusCreated, res)
}

// HandleSignIn implements POST /accounts/sign-in.
//
// On success the token pair travels in both the JSON body and the two auth
// cookies. All credential failures share one uniform 401 body; a locked
// account answers 429 with a Retry-After header.
func (h *Handler) HandleSignIn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	var req *models.SignInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "failed to decode sign-in request",
			"error", err,
			"request_id", requestID,
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "Invalid JSON in request body"))
		return
	}

	req.Normalize()
	if err := req.Validate(); err != nil {
		h.logger.WarnContext(ctx, "invalid sign-in request",
			"error", err,
			"request_id", requestID,
		)
		shared.WriteError(w, err)
		return
	}

	res, err := h.auth.SignIn(ctx, req)
	if err != nil {
		// The service already logged the failure with its real reason.
		var locked *service.AccountLockedError
		if errors.As(err, &locked) {
			w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(locked.RetryAfter)))
		}
		shared.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "sign-in successful",
		"request_id", requestID,
		"user_id", res.User.ID,
	)

	h.setCookies(w, res.Cookies)
	jsonResponse.WriteJSON(w, http.StatusOK, res)
}

// HandleRefresh implements POST /accounts/refresh.
//
// The refresh token is read from the request body, falling back to the
// refresh cookie, so browser clients can send an empty body.
func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	var req models.RefreshRequest
	// io.EOF means an empty body, which is fine: the cookie carries the token.
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.logger.WarnContext(ctx, "failed to decode refresh request",
			"error", err,
			"request_id", requestID,
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "Invalid JSON in request body"))
		return
	}
	if req.RefreshToken == "" {
		if c, err := r.Cookie(models.TokenKindRefresh.CookieName()); err == nil {
			req.RefreshToken = c.Value
		}
	}

	if err := req.Validate(); err != nil {
		h.logger.WarnContext(ctx, "invalid refresh request",
			"error", err,
			"request_id", requestID,
		)
		shared.WriteError(w, err)
		return
	}

	res, err := h.auth.Refresh(ctx, &req)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "refresh successful",
		"request_id", requestID,
		"user_id", res.User.ID,
	)

	h.setCookies(w, res.Cookies)
	jsonResponse.WriteJSON(w, http.StatusOK, res)
}

// HandleSignOut implements POST /accounts/sign-out.
//
// Tokens are stateless, so signing out means expiring both cookies; tokens
// already handed out simply run down their clock.
func (h *Handler) HandleSignOut(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	h.setCookies(w, h.auth.SignOut(ctx))

	h.logger.InfoContext(ctx, "sign-out successful",
		"request_id", middleware.GetRequestID(ctx),
	)

	jsonResponse.WriteJSON(w, http.StatusOK, map[string]bool{"signed_out": true})
}

// HandleListUsers implements GET /accounts/users. Administrators only; the
// service decides from the caller's stored record, not from the token.
func (h *Handler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	res, err := h.auth.ListUsers(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "list users failed",
			"error", err,
			"request_id", requestID,
		)
		shared.WriteError(w, err)
		return
	}

	jsonResponse.WriteJSON(w, http.StatusOK, res)
}

// HandleGetUser implements GET /accounts/users/{user_id}. Callers read their
// own record; administrators read any.
func (h *Handler) HandleGetUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	userID, err := id.ParseUserID(chi.URLParam(r, "user_id"))
	if err != nil {
		h.logger.WarnContext(ctx, "invalid user_id in path",
			"error", err,
			"request_id", requestID,
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid user_id"))
		return
	}

	res, err := h.auth.GetUser(ctx, userID)
	if err != nil {
		h.logger.WarnContext(ctx, "get user failed",
			"error", err,
			"request_id", requestID,
			"user_id", userID,
		)
		shared.WriteError(w, err)
		return
	}

	jsonResponse.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) setCookies(w http.ResponseWriter, specs []cookie.Spec) {
	for _, spec := range specs {
		http.SetCookie(w, spec.Cookie())
	}
}

// retryAfterSeconds rounds up so a client honoring the header never retries
// a second before the lock lapses.
func retryAfterSeconds(d time.Duration) int {
	return int(math.Ceil(d.Seconds()))
}
