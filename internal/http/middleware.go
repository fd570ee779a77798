package http

import (
	"context"
	"net/http"
	"time"

	"backoffice/internal/log"
	"backoffice/internal/services"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/unrolled/secure"
)

type principalKey struct{}

func withPrincipal(ctx context.Context, p services.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the authenticated caller stored by authenticate.
func PrincipalFrom(ctx context.Context) (services.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(services.Principal)
	return p, ok
}

// middlewareStack returns the chain applied to every route.
func (s *Server) middlewareStack() []func(http.Handler) http.Handler {
	secureMiddleware := secure.New(secure.Options{
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ReferrerPolicy:        "no-referrer",
		ContentSecurityPolicy: "default-src 'none'; frame-ancestors 'none'",
		SSLProxyHeaders:       map[string]string{"X-Forwarded-Proto": "https"},
		IsDevelopment:         s.deps.Development,
	})

	limit := s.deps.RateLimitPerMinute
	if limit <= 0 {
		limit = 120
	}

	stack := []func(http.Handler) http.Handler{
		middleware.RequestID,
		middleware.RealIP,
		log.Middleware(s.logger),
		middleware.Recoverer,
		secureMiddleware.Handler,
		httprate.Limit(limit, time.Minute,
			httprate.WithKeyFuncs(httprate.KeyByIP),
			httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
				NewProblem(http.StatusTooManyRequests, "rate limit exceeded").Write(w)
			}),
		),
	}
	if s.deps.Metrics != nil {
		stack = append(stack, s.deps.Metrics.Middleware)
	}
	return stack
}

// authenticate resolves the bearer token into a principal or answers 401.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, err := s.deps.Auth.Resolve(r.Context(), bearerToken(r))
		if err != nil {
			writeError(w, r, err)
			return
		}
		ctx := withPrincipal(r.Context(), p)
		logger := log.FromContext(ctx)
		if p.Service {
			logger = logger.With(log.FieldUserID, "service")
		} else {
			logger = logger.With(log.FieldUserID, p.UserID.String())
		}
		next.ServeHTTP(w, r.WithContext(log.NewContext(ctx, logger)))
	})
}

// requireAdmin lets through administrators only.
func requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if p, ok := PrincipalFrom(r.Context()); !ok || !p.IsAdmin() {
			writeError(w, r, errForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requireService lets through the service token and administrators.
func requireService(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if p, ok := PrincipalFrom(r.Context()); !ok || !(p.Service || p.IsAdmin()) {
			writeError(w, r, errForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
