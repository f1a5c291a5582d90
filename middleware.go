package memberkit

import (
	"errors"
	"net/http"
	"strings"
)

// Middleware provides HTTP middleware for path-scoped access checks.
type Middleware struct {
	evaluator    *Evaluator
	getUserID    func(*http.Request) string
	errorHandler func(http.ResponseWriter, *http.Request, error)
}

// MiddlewareOption configures the Middleware.
type MiddlewareOption func(*Middleware)

// NewMiddleware creates a new Middleware instance.
//
// Example:
//
//	mw := memberkit.NewMiddleware(evaluator,
//	    memberkit.WithUserIDExtractor(func(r *http.Request) string {
//	        return r.Header.Get("X-User-ID")
//	    }),
//	)
func NewMiddleware(evaluator *Evaluator, opts ...MiddlewareOption) *Middleware {
	m := &Middleware{
		evaluator:    evaluator,
		getUserID:    defaultGetUserID,
		errorHandler: defaultErrorHandler,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// WithUserIDExtractor sets a custom function to extract user ID from request.
func WithUserIDExtractor(fn func(*http.Request) string) MiddlewareOption {
	return func(m *Middleware) {
		m.getUserID = fn
	}
}

// WithErrorHandler sets a custom error handler for middleware.
func WithErrorHandler(fn func(http.ResponseWriter, *http.Request, error)) MiddlewareOption {
	return func(m *Middleware) {
		m.errorHandler = fn
	}
}

func defaultGetUserID(r *http.Request) string {
	return GetUserID(r.Context())
}

func defaultErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, ErrNoUserID) {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	if IsUnauthorized(err) {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}
	if IsInvalidPath(err) || IsInvalidLevel(err) {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

// PathExtractor extracts a resource path from an HTTP request.
type PathExtractor func(*http.Request) (string, error)

// PathFromParams creates a PathExtractor that builds a resource path from
// alternating collection names and URL parameter names.
// Compatible with chi, gorilla/mux, and standard library patterns.
//
// Example:
//
//	// For route /orgs/{orgID}/chats/{chatID}
//	mw.RequireLevel(memberkit.LevelWrite,
//	    memberkit.PathFromParams("organizations", "orgID", "chats", "chatID"))
func PathFromParams(pairs ...string) PathExtractor {
	return func(r *http.Request) (string, error) {
		if len(pairs) == 0 || len(pairs)%2 != 0 {
			return "", NewError(ErrInvalidPath, "collection/param pairs required")
		}

		segments := make([]string, 0, len(pairs))
		for i := 0; i < len(pairs); i += 2 {
			collection, param := pairs[i], pairs[i+1]
			id := r.PathValue(param)
			if id == "" {
				// Try context (set by router middleware)
				if v := r.Context().Value(param); v != nil {
					if s, ok := v.(string); ok {
						id = s
					}
				}
			}
			if id == "" {
				return "", NewError(ErrInvalidPath, "parameter "+param+" not found in request")
			}
			segments = append(segments, collection, id)
		}
		return strings.Join(segments, "/"), nil
	}
}

// PathFromQuery creates a PathExtractor that reads the full resource path
// from a query parameter.
//
// Example:
//
//	// For route /api/access?path=organizations/org1/chats/chat1
//	mw.RequireLevel(memberkit.LevelRead, memberkit.PathFromQuery("path"))
func PathFromQuery(queryParam string) PathExtractor {
	return func(r *http.Request) (string, error) {
		path := r.URL.Query().Get(queryParam)
		if path == "" {
			return "", NewError(ErrInvalidPath, "path not found in query")
		}
		return path, nil
	}
}

// PathFromHeader creates a PathExtractor that reads the full resource path
// from a header.
//
// Example:
//
//	// For header X-Resource-Path: organizations/org1
//	mw.RequireLevel(memberkit.LevelRead, memberkit.PathFromHeader("X-Resource-Path"))
func PathFromHeader(headerName string) PathExtractor {
	return func(r *http.Request) (string, error) {
		path := r.Header.Get(headerName)
		if path == "" {
			return "", NewError(ErrInvalidPath, "path not found in header")
		}
		return path, nil
	}
}

// StaticPath creates a PathExtractor that always returns the same path.
// Useful for global resources.
func StaticPath(path string) PathExtractor {
	return func(r *http.Request) (string, error) {
		return path, nil
	}
}

// RequireLevel creates middleware that requires at least the given level
// on the extracted path. On success a Checker for the user is added to
// the request context.
//
// Example:
//
//	router.With(mw.RequireLevel(memberkit.LevelAdmin,
//	    memberkit.PathFromParams("organizations", "orgID"))).
//	    Post("/orgs/{orgID}/members", addMemberHandler)
func (m *Middleware) RequireLevel(required Level, extractor PathExtractor) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			userID := m.getUserID(r)
			if userID == "" {
				m.errorHandler(w, r, ErrNoUserID)
				return
			}

			path, err := extractor(r)
			if err != nil {
				m.errorHandler(w, r, err)
				return
			}

			if !m.evaluator.HasAccess(ctx, path, userID, required) {
				m.errorHandler(w, r, NewError(ErrUnauthorized, "missing required level").
					WithPath(path).
					WithLevel(required).
					WithUser(userID))
				return
			}

			// Add checker to context for use in handlers
			ctx = WithChecker(ctx, m.evaluator.Checker(userID))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireExisting creates middleware that requires the extracted path to
// name an existing resource document, regardless of membership.
func (m *Middleware) RequireExisting(extractor PathExtractor) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path, err := extractor(r)
			if err != nil {
				m.errorHandler(w, r, err)
				return
			}

			if !m.evaluator.PathExists(r.Context(), path) {
				http.NotFound(w, r)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// LoadChecker creates middleware that loads the user's Checker into context.
// Use this when you want to do access checks in the handler rather than
// middleware.
//
// Example:
//
//	router.With(mw.LoadChecker()).Get("/dashboard", dashboardHandler)
//
//	func dashboardHandler(w http.ResponseWriter, r *http.Request) {
//	    checker := memberkit.FromContext(r.Context())
//	    if checker != nil && checker.Can(r.Context(), memberkit.LevelAdmin, orgPath) {
//	        // Show admin features
//	    }
//	}
func (m *Middleware) LoadChecker() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			userID := m.getUserID(r)
			if userID == "" {
				// No user, continue without checker
				next.ServeHTTP(w, r)
				return
			}

			ctx = WithChecker(ctx, m.evaluator.Checker(userID))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// InjectAuditContext creates middleware that extracts audit information
// from the request and adds it to the context for use in membership
// mutations.
//
// Example:
//
//	router.Use(mw.InjectAuditContext())
func (m *Middleware) InjectAuditContext() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			// Extract IP address
			ip := r.Header.Get("X-Forwarded-For")
			if ip == "" {
				ip = r.Header.Get("X-Real-IP")
			}
			if ip == "" {
				ip = r.RemoteAddr
			}
			ctx = WithIPAddress(ctx, ip)

			// Extract User Agent
			ctx = WithUserAgent(ctx, r.UserAgent())

			// Extract Request ID (commonly set by other middleware)
			requestID := r.Header.Get("X-Request-ID")
			if requestID != "" {
				ctx = WithRequestID(ctx, requestID)
			}

			// Set actor ID from user ID if available
			userID := m.getUserID(r)
			if userID != "" {
				ctx = WithActorID(ctx, userID)
				ctx = WithUserID(ctx, userID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
