package auth

import (
	"context"
	"net/http"

	"gateway-server/internal/audit"
	"gateway-server/internal/domain/account"
	"gateway-server/internal/rbac"
	"gateway-server/pkg/logger"
	"gateway-server/pkg/metrics"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// AccountResolver resolves the caller behind a set of request headers.
type AccountResolver interface {
	Resolve(ctx context.Context, header http.Header) (account.Account, error)
}

// PolicySource yields the policy currently in force for a route. It is
// consulted once per request so reloaded policies apply immediately.
type PolicySource interface {
	Policy() *rbac.Policy
}

type staticPolicy struct {
	policy *rbac.Policy
}

func (s staticPolicy) Policy() *rbac.Policy { return s.policy }

// Static wraps a fixed policy.
func Static(policy *rbac.Policy) PolicySource {
	return staticPolicy{policy: policy}
}

// Result is the filter's verdict for one request.
type Result struct {
	// Outcome is final, after the guest override.
	Outcome Outcome
	// Classified is the outcome before the guest override.
	Classified    Outcome
	GuestOverride bool
	// Account is set when resolution produced one and it was not discarded
	// by the guest override.
	Account *account.Account
	Err     error
}

type Filter struct {
	resolver AccountResolver
	recorder audit.Recorder
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

type FilterOption func(*Filter)

func WithRecorder(r audit.Recorder) FilterOption {
	return func(f *Filter) { f.recorder = r }
}

func WithMetrics(m *metrics.Metrics) FilterOption {
	return func(f *Filter) { f.metrics = m }
}

func WithLogger(l *zap.Logger) FilterOption {
	return func(f *Filter) { f.logger = l }
}

func NewFilter(resolver AccountResolver, opts ...FilterOption) *Filter {
	f := &Filter{
		resolver: resolver,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Authorize resolves the caller, checks the policy and applies the guest
// override. It never returns an error: every failure is an Outcome.
func (f *Filter) Authorize(ctx context.Context, header http.Header, policy *rbac.Policy) Result {
	var result Result

	acct, err := f.resolver.Resolve(ctx, header)
	switch {
	case err != nil:
		result = Result{Outcome: Classify(err), Err: err}
	case policy.IsAuthorized(acct):
		result = Result{Outcome: OutcomeSuccess, Account: &acct}
	default:
		result = Result{Outcome: OutcomePermissionDenied, Account: &acct, Err: ErrPermissionDenied}
	}
	result.Classified = result.Outcome

	if result.Outcome.guestOverridable() && policy.IsGuestAllowed() {
		result.Outcome = OutcomeSuccess
		result.GuestOverride = true
		result.Account = nil
	}

	return result
}

// Middleware guards a route. Failed requests are answered here and never
// reach next; successful ones carry the verified identity headers.
func (f *Filter) Middleware(routeID string, source PolicySource) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			StripIdentityHeaders(req.Header)

			result := f.Authorize(req.Context(), req.Header, source.Policy())
			c.Set(ContextKeyDecision, result)
			f.observe(c, routeID, result)

			if result.Outcome != OutcomeSuccess {
				return c.String(result.Outcome.StatusCode(), result.Outcome.Message())
			}

			if result.Account != nil {
				req.Header.Set(HeaderAccountID, result.Account.IDString())
				req.Header.Set(HeaderAccountPermission, result.Account.Permission.String())
				c.Set(ContextKeyAccount, *result.Account)
			}

			return next(c)
		}
	}
}

func (f *Filter) observe(c echo.Context, routeID string, result Result) {
	req := c.Request()

	var cause string
	if result.Classified == OutcomeUnknownError && result.Err != nil {
		cause = logger.SanitizeLogMessage(result.Err.Error())
		f.logger.Warn(logUnknownError,
			zap.String("request_id", requestID(c)),
			zap.String("route", routeID),
			zap.String("path", req.URL.Path),
			zap.Bool("guest_override", result.GuestOverride),
			zap.String("cause", cause),
		)
	}

	f.metrics.ObserveDecision(routeID, result.Outcome.String(), result.GuestOverride)

	if f.recorder == nil {
		return
	}

	token, _ := ExtractBearerToken(req.Header)
	decision := &audit.Decision{
		RouteID:          routeID,
		Outcome:          result.Outcome.String(),
		ClassifiedAs:     result.Classified.String(),
		GuestOverride:    result.GuestOverride,
		TokenFingerprint: Fingerprint(token),
		RequestID:        requestID(c),
		ClientIP:         c.RealIP(),
		Method:           req.Method,
		Path:             req.URL.Path,
		Cause:            cause,
	}
	if result.Account != nil {
		id := result.Account.ID
		decision.AccountID = &id
		decision.Permission = result.Account.Permission.String()
	}
	f.recorder.Record(req.Context(), decision)
}

func requestID(c echo.Context) string {
	if id := c.Response().Header().Get(echo.HeaderXRequestID); id != "" {
		return id
	}
	return c.Request().Header.Get(echo.HeaderXRequestID)
}

// StripIdentityHeaders removes caller-supplied identity headers. Only the
// filter may set them.
func StripIdentityHeaders(header http.Header) {
	header.Del(HeaderAccountID)
	header.Del(HeaderAccountPermission)
}

// StripIdentity drops spoofed identity headers on every request, including
// routes that are not guarded by a filter.
func StripIdentity() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			StripIdentityHeaders(c.Request().Header)
			return next(c)
		}
	}
}
