package interceptors

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/UsmanFarooq46/e-commerce-backend/internal/core/domain"
	"github.com/UsmanFarooq46/e-commerce-backend/internal/core/port"
	"github.com/UsmanFarooq46/e-commerce-backend/internal/usecase"
)

// tokenKey mirrors the HTTP auth-token header. gRPC metadata keys are lowercase.
const tokenKey = "auth-token"

// Authenticator resolves an access token to its live account.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.Account, *port.TokenClaims, error)
}

// AuthOptions fine-tunes interceptor behaviour.
type AuthOptions struct {
	// AllowMethods are full method names or service prefixes ending in "/"
	// that skip authentication.
	AllowMethods []string
	Logger       *zap.Logger
}

// AuthInterceptor validates incoming calls using the auth-token metadata entry.
type AuthInterceptor struct {
	auth     Authenticator
	logger   *zap.Logger
	allow    map[string]struct{}
	prefixes []string
}

// NewAuthInterceptor constructs a new AuthInterceptor instance.
func NewAuthInterceptor(auth Authenticator, opts AuthOptions) *AuthInterceptor {
	allow := make(map[string]struct{}, len(opts.AllowMethods))
	var prefixes []string
	for _, method := range opts.AllowMethods {
		method = strings.TrimSpace(method)
		switch {
		case method == "":
		case strings.HasSuffix(method, "/"):
			prefixes = append(prefixes, method)
		default:
			allow[method] = struct{}{}
		}
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &AuthInterceptor{auth: auth, logger: logger, allow: allow, prefixes: prefixes}
}

func (ai *AuthInterceptor) public(fullMethod string) bool {
	if _, ok := ai.allow[fullMethod]; ok {
		return true
	}
	for _, p := range ai.prefixes {
		if strings.HasPrefix(fullMethod, p) {
			return true
		}
	}
	return false
}

// UnaryServerInterceptor returns a gRPC unary interceptor that enforces authentication.
func (ai *AuthInterceptor) UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if ai == nil || ai.auth == nil || ai.public(info.FullMethod) {
			return handler(ctx, req)
		}

		ctx, err := ai.authenticate(ctx, info.FullMethod)
		if err != nil {
			return nil, err
		}
		return handler(ctx, req)
	}
}

// StreamServerInterceptor is the streaming counterpart of UnaryServerInterceptor.
func (ai *AuthInterceptor) StreamServerInterceptor() grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		if ai == nil || ai.auth == nil || ai.public(info.FullMethod) {
			return handler(srv, ss)
		}

		ctx, err := ai.authenticate(ss.Context(), info.FullMethod)
		if err != nil {
			return err
		}
		return handler(srv, &authenticatedStream{ServerStream: ss, ctx: ctx})
	}
}

func (ai *AuthInterceptor) authenticate(ctx context.Context, method string) (context.Context, error) {
	token, err := tokenFromMetadata(ctx)
	if err != nil {
		ai.logger.Warn("gRPC authentication failed", zap.String("method", method), zap.Error(err))
		return ctx, status.Error(codes.Unauthenticated, err.Error())
	}

	account, claims, err := ai.auth.Authenticate(ctx, token)
	if err != nil {
		ai.logger.Warn("gRPC token validation failed", zap.String("method", method), zap.Error(err))
		switch {
		case errors.Is(err, usecase.ErrUnauthenticated):
			return ctx, status.Error(codes.Unauthenticated, "invalid token")
		case errors.Is(err, domain.ErrAccountDisabled):
			return ctx, status.Error(codes.PermissionDenied, "account disabled")
		default:
			return ctx, status.Error(codes.Internal, "failed to validate token")
		}
	}

	return WithAccount(ctx, account, claims), nil
}

type authenticatedStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *authenticatedStream) Context() context.Context { return s.ctx }

type principalKey struct{}

type principal struct {
	account *domain.Account
	claims  *port.TokenClaims
}

// WithAccount returns a derived context carrying the authenticated account.
func WithAccount(ctx context.Context, account *domain.Account, claims *port.TokenClaims) context.Context {
	if account == nil {
		return ctx
	}
	return context.WithValue(ctx, principalKey{}, principal{account: account, claims: claims})
}

// AccountFromContext extracts the authenticated account when available.
func AccountFromContext(ctx context.Context) (*domain.Account, *port.TokenClaims, bool) {
	if ctx == nil {
		return nil, nil, false
	}
	p, ok := ctx.Value(principalKey{}).(principal)
	if !ok {
		return nil, nil, false
	}
	return p.account, p.claims, true
}

func tokenFromMetadata(ctx context.Context) (string, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return "", errors.New("missing metadata")
	}

	for _, v := range md.Get(tokenKey) {
		if token := strings.TrimSpace(v); token != "" {
			return token, nil
		}
	}
	return "", errors.New("auth-token required")
}
