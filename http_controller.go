package identity

import (
	stderrors "errors"
	"net/http"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
)

// RouteRegistrar captures the router methods used by the controller.
type RouteRegistrar interface {
	Get(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Post(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
}

// HTTPRoutes holds the controller paths.
type HTTPRoutes struct {
	Signup string
	Login  string
	Users  string
}

// HTTPController exposes the Resolver over JSON endpoints.
type HTTPController struct {
	Resolver *Resolver
	Routes   HTTPRoutes
	Logger   Logger
}

// HTTPControllerOption configures an HTTPController.
type HTTPControllerOption func(*HTTPController)

// WithHTTPRoutes overrides the default paths. Empty values keep the default.
func WithHTTPRoutes(routes HTTPRoutes) HTTPControllerOption {
	return func(c *HTTPController) {
		if routes.Signup != "" {
			c.Routes.Signup = routes.Signup
		}
		if routes.Login != "" {
			c.Routes.Login = routes.Login
		}
		if routes.Users != "" {
			c.Routes.Users = routes.Users
		}
	}
}

// WithHTTPLoggerProvider resolves the controller logger from provider.
func WithHTTPLoggerProvider(p LoggerProvider) HTTPControllerOption {
	return func(c *HTTPController) {
		_, c.Logger = ResolveLogger("identity.http", p, c.Logger)
	}
}

// NewHTTPController creates a controller for resolver.
func NewHTTPController(resolver *Resolver, opts ...HTTPControllerOption) *HTTPController {
	if resolver == nil {
		panic("identity: missing Resolver in http controller")
	}

	_, logger := ResolveLogger("identity.http", nil, nil)
	c := &HTTPController{
		Resolver: resolver,
		Routes: HTTPRoutes{
			Signup: "/auth/signup",
			Login:  "/auth/login",
			Users:  "/users",
		},
		Logger: logger,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	return c
}

// RegisterRoutes mounts the controller endpoints.
func (c *HTTPController) RegisterRoutes(r RouteRegistrar) {
	r.Post(c.Routes.Signup, c.Signup)
	r.Post(c.Routes.Login, c.Login)
	r.Get(c.Routes.Users, c.ListUsers)
	r.Get(c.Routes.Users+"/:id", c.GetUser)
}

// SignupRequest is the signup payload.
type SignupRequest struct {
	Email    string `json:"email" form:"email"`
	Name     string `json:"name" form:"name"`
	Password string `json:"password" form:"password"`
}

// Validate implements validation.Validatable.
func (r SignupRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Name, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

// LoginRequest is the login payload.
type LoginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// Validate implements validation.Validatable.
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

// Signup creates a password account.
func (c *HTTPController) Signup(ctx router.Context) error {
	payload := new(SignupRequest)
	if err := ctx.Bind(payload); err != nil {
		return c.badRequest(ctx, "malformed request body", nil)
	}
	payload.Email = strings.TrimSpace(payload.Email)

	if err := payload.Validate(); err != nil {
		return c.badRequest(ctx, "invalid signup request", err)
	}

	user, err := c.Resolver.ResolveBySignup(ctx.Context(), payload.Email, payload.Name, payload.Password)
	if err != nil {
		return c.writeError(ctx, err, false)
	}

	return ctx.JSON(http.StatusCreated, map[string]any{
		"user": user,
	})
}

// Login verifies a password credential.
func (c *HTTPController) Login(ctx router.Context) error {
	payload := new(LoginRequest)
	if err := ctx.Bind(payload); err != nil {
		return c.badRequest(ctx, "malformed request body", nil)
	}

	if err := payload.Validate(); err != nil {
		return c.badRequest(ctx, "invalid login request", err)
	}

	user, err := c.Resolver.ResolveByPassword(ctx.Context(), payload.Email, payload.Password)
	if err != nil {
		return c.writeError(ctx, err, true)
	}

	return ctx.JSON(http.StatusOK, map[string]any{
		"user": user,
	})
}

// ListUsers returns one page of user records, newest first. The page is
// selected with the limit and offset query parameters.
func (c *HTTPController) ListUsers(ctx router.Context) error {
	limit := ctx.QueryInt("limit", DefaultPageLimit)
	offset := ctx.QueryInt("offset", 0)

	page, err := c.Resolver.ListUsers(ctx.Context(), limit, offset)
	if err != nil {
		return c.writeError(ctx, err, false)
	}

	return ctx.JSON(http.StatusOK, page)
}

// GetUser returns a single user record.
func (c *HTTPController) GetUser(ctx router.Context) error {
	user, err := c.Resolver.GetUserByID(ctx.Context(), ctx.Param("id"))
	if err != nil {
		return c.writeError(ctx, err, false)
	}

	return ctx.JSON(http.StatusOK, map[string]any{
		"user": user,
	})
}

func (c *HTTPController) badRequest(ctx router.Context, message string, err error) error {
	body := map[string]any{
		"error": message,
	}
	var fields validation.Errors
	if stderrors.As(err, &fields) {
		details := make(map[string]string, len(fields))
		for k, v := range fields {
			details[k] = v.Error()
		}
		body["fields"] = details
	}
	return ctx.JSON(http.StatusBadRequest, body)
}

// writeError maps resolver failures to responses. Credential failures on
// login share one message so responses do not reveal which emails exist.
func (c *HTTPController) writeError(ctx router.Context, err error, login bool) error {
	status, message := c.statusFor(err, login)
	if status >= http.StatusInternalServerError {
		c.Logger.Error("identity request failed", "error", err, "status", status)
	} else {
		c.Logger.Debug("identity request rejected", "error", err, "status", status)
	}
	body := map[string]any{
		"error": message,
	}
	if fields, ok := errors.GetValidationErrors(err); ok && status == http.StatusBadRequest {
		details := make(map[string]string, len(fields))
		for _, field := range fields {
			details[field.Field] = field.Message
		}
		body["fields"] = details
	}
	return ctx.JSON(status, body)
}

func (c *HTTPController) statusFor(err error, login bool) (int, string) {
	switch {
	case stderrors.Is(err, ErrMissingField):
		return http.StatusBadRequest, ErrMissingField.Message
	case stderrors.Is(err, ErrMissingEmail):
		return http.StatusBadRequest, ErrMissingEmail.Message
	case stderrors.Is(err, ErrPasswordTooLong):
		return http.StatusBadRequest, ErrPasswordTooLong.Message
	case stderrors.Is(err, ErrDuplicateEmail):
		return http.StatusConflict, ErrDuplicateEmail.Message
	case stderrors.Is(err, ErrIdentityConflict):
		return http.StatusConflict, ErrIdentityConflict.Message
	case login && (stderrors.Is(err, ErrNotFound) || stderrors.Is(err, ErrInvalidCredential)):
		return http.StatusUnauthorized, ErrInvalidCredential.Message
	case stderrors.Is(err, ErrNoPasswordCredential):
		return http.StatusUnauthorized, "use your identity provider to sign in"
	case stderrors.Is(err, ErrNotFound):
		return http.StatusNotFound, ErrNotFound.Message
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}
