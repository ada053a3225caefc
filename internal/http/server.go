package http

import (
	"context"
	stdhttp "net/http"
	"strings"

	"gateway-server/internal/auth"
	"gateway-server/internal/config"
	"gateway-server/internal/domain/account"
	"gateway-server/internal/http/middleware"
	"gateway-server/internal/rbac"
	"gateway-server/internal/routes"
	"gateway-server/pkg/metrics"
	"gateway-server/pkg/profiling"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

const (
	jsonKeyStatus = "status"
	statusOK      = "ok"
	healthPath    = "/health"
	debugRouteID  = "debug"
)

var debugPolicy = rbac.MustCompile(string(account.PermissionAdmin))

type ServerDependencies struct {
	Config  *config.Config
	Routes  *routes.Table
	Filter  *auth.Filter
	Metrics *metrics.Metrics
	Logger  *zap.Logger
	// ProxyTransport carries proxied requests; nil uses the default transport.
	ProxyTransport stdhttp.RoundTripper
}

type Server struct {
	echo *echo.Echo
	deps *ServerDependencies
}

func NewServer(deps *ServerDependencies) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	e.Server.ReadTimeout = deps.Config.Server.ReadTimeout
	e.Server.WriteTimeout = deps.Config.Server.WriteTimeout

	// Request ID middleware (first, so all logs have request ID)
	e.Use(middleware.RequestID())
	e.Use(auth.StripIdentity())
	e.Use(middleware.RequestLogger(deps.Logger))
	e.Use(echomiddleware.Recover())
	if deps.Metrics != nil && deps.Config.Metrics.Enabled {
		e.Use(deps.Metrics.Middleware())
	}
	e.Use(middleware.RequestTimeout(deps.Config.Server.RequestTimeout))

	e.GET(healthPath, healthCheck)
	if deps.Metrics != nil && deps.Config.Metrics.Enabled {
		e.GET(deps.Config.Metrics.Path, echo.WrapHandler(deps.Metrics.Handler()))
	}

	if deps.Config.Profiling.Enabled {
		profiling.Register(e, deps.Filter.Middleware(debugRouteID, auth.Static(debugPolicy)))
	}

	limiter := middleware.NewRateLimiter(deps.Config.RateLimit.RPS, deps.Config.RateLimit.Burst)
	for _, route := range deps.Routes.Routes() {
		mountRoute(e, route, deps, limiter)
	}

	return &Server{
		echo: e,
		deps: deps,
	}
}

// mountRoute serves every path under the route's prefix: auth filter for
// protected routes, then the rate limiter, then the proxy.
func mountRoute(e *echo.Echo, route *routes.Route, deps *ServerDependencies, limiter *middleware.RateLimiter) {
	prefix := route.Path
	if prefix == "/" {
		prefix = ""
	}

	var chain []echo.MiddlewareFunc
	if route.Protected() {
		chain = append(chain, deps.Filter.Middleware(route.ID, route))
	}
	chain = append(chain, limiter.Middleware())

	// the proxy answers every request, next is never reached
	proxy := echomiddleware.ProxyWithConfig(proxyConfig(route, deps.ProxyTransport))(echo.NotFoundHandler)

	e.Any(prefix, proxy, chain...)
	e.Any(prefix+"/*", proxy, chain...)

	deps.Logger.Info("route mounted",
		zap.String("route", route.ID),
		zap.String("path", route.Path),
		zap.Strings("upstreams", route.Upstreams),
		zap.Bool("protected", route.Protected()),
		zap.Strings("permissions", route.Policy().Declared()),
	)
}

func proxyConfig(route *routes.Route, transport stdhttp.RoundTripper) echomiddleware.ProxyConfig {
	targets := make([]*echomiddleware.ProxyTarget, 0, len(route.Targets))
	for _, u := range route.Targets {
		targets = append(targets, &echomiddleware.ProxyTarget{Name: u.Host, URL: u})
	}

	cfg := echomiddleware.ProxyConfig{
		Balancer:  echomiddleware.NewRoundRobinBalancer(targets),
		Transport: transport,
	}
	if route.StripPrefix && route.Path != "/" {
		cfg.Rewrite = map[string]string{
			route.Path:        "/",
			route.Path + "/*": "/$1",
		}
	}
	return cfg
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() stdhttp.Handler {
	return s.echo
}

// Address formats a listen address from a bare port or host:port.
func Address(port string) string {
	if strings.Contains(port, ":") {
		return port
	}
	return ":" + port
}

func healthCheck(c echo.Context) error {
	return c.JSON(stdhttp.StatusOK, map[string]string{
		jsonKeyStatus: statusOK,
	})
}
