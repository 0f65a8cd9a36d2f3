package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

func newTestJWTService(t *testing.T) *JWTService {
	t.Helper()
	svc, err := NewJWTService(JWTConfig{
		Secret:     "test-secret-key-for-unit-tests",
		Issuer:     "loanbook-test",
		Expiration: 15 * time.Minute,
	})
	require.NoError(t, err)
	return svc
}

func TestNewJWTService_RequiresKeyMaterial(t *testing.T) {
	_, err := NewJWTService(JWTConfig{Issuer: "x"})
	require.Error(t, err)
}

func TestGenerateAndValidateToken(t *testing.T) {
	svc := newTestJWTService(t)

	tokenString, err := svc.GenerateToken("user-42", []string{RoleCustomer})
	require.NoError(t, err)
	require.NotEmpty(t, tokenString)

	claims, err := svc.ValidateToken(tokenString)
	require.NoError(t, err)
	assert.Equal(t, "user-42", claims.OwnerID())
	assert.Equal(t, "loanbook-test", claims.Issuer)
	assert.True(t, claims.HasRole(RoleCustomer))
	assert.False(t, claims.HasRole(RoleServicer))
}

func TestValidateToken_RSA(t *testing.T) {
	privPEM, pubPEM, err := GenerateKeyPair()
	require.NoError(t, err)

	issuer, err := NewJWTService(JWTConfig{PrivateKeyPEM: string(privPEM), Issuer: "idp", Expiration: time.Minute})
	require.NoError(t, err)
	validator, err := NewJWTService(JWTConfig{PublicKeyPEM: string(pubPEM), Issuer: "idp"})
	require.NoError(t, err)

	token, err := issuer.GenerateToken("user-1", nil)
	require.NoError(t, err)

	claims, err := validator.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.OwnerID())

	_, err = validator.GenerateToken("user-1", nil)
	assert.ErrorIs(t, err, ErrNoSigningKey)
}

func TestValidateToken_Rejections(t *testing.T) {
	svc := newTestJWTService(t)

	t.Run("expired", func(t *testing.T) {
		expired, err := NewJWTService(JWTConfig{Secret: "test-secret-key-for-unit-tests", Issuer: "loanbook-test", Expiration: -time.Hour})
		require.NoError(t, err)
		token, err := expired.GenerateToken("user-1", nil)
		require.NoError(t, err)
		_, err = svc.ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other, err := NewJWTService(JWTConfig{Secret: "other", Issuer: "loanbook-test", Expiration: time.Minute})
		require.NoError(t, err)
		token, err := other.GenerateToken("user-1", nil)
		require.NoError(t, err)
		_, err = svc.ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other, err := NewJWTService(JWTConfig{Secret: "test-secret-key-for-unit-tests", Issuer: "elsewhere", Expiration: time.Minute})
		require.NoError(t, err)
		token, err := other.GenerateToken("user-1", nil)
		require.NoError(t, err)
		_, err = svc.ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("missing subject", func(t *testing.T) {
		token, err := svc.GenerateToken("", nil)
		require.NoError(t, err)
		_, err = svc.ValidateToken(token)
		assert.ErrorIs(t, err, ErrMissingSubject)
	})
}

func TestOwnerFromContext(t *testing.T) {
	_, ok := OwnerFromContext(context.Background())
	assert.False(t, ok)

	claims := &Claims{Roles: []string{RoleServicer}}
	claims.Subject = "user-7"
	owner, ok := OwnerFromContext(ContextWithClaims(context.Background(), claims))
	require.True(t, ok)
	assert.Equal(t, "user-7", owner)
}

func TestUnaryAuthInterceptor(t *testing.T) {
	svc := newTestJWTService(t)
	interceptor := UnaryAuthInterceptor(svc, []string{"/grpc.health.v1.Health/Check"})
	info := &grpc.UnaryServerInfo{FullMethod: "/loanbook.v1.LoanService/GetLoan"}

	var seenOwner string
	handler := func(ctx context.Context, _ interface{}) (interface{}, error) {
		seenOwner, _ = OwnerFromContext(ctx)
		return "ok", nil
	}

	t.Run("skipped method", func(t *testing.T) {
		resp, err := interceptor(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}, handler)
		require.NoError(t, err)
		assert.Equal(t, "ok", resp)
	})

	t.Run("missing header", func(t *testing.T) {
		ctx := metadata.NewIncomingContext(context.Background(), metadata.MD{})
		_, err := interceptor(ctx, nil, info, handler)
		assert.Equal(t, codes.Unauthenticated, status.Code(err))
	})

	t.Run("valid bearer token", func(t *testing.T) {
		token, err := svc.GenerateToken("user-9", nil)
		require.NoError(t, err)
		ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer "+token))
		_, err = interceptor(ctx, nil, info, handler)
		require.NoError(t, err)
		assert.Equal(t, "user-9", seenOwner)
	})
}

func TestHTTPMiddleware(t *testing.T) {
	svc := newTestJWTService(t)
	var seenOwner string
	h := HTTPMiddleware(svc)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenOwner, _ = OwnerFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/loans", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token, err := svc.GenerateToken("user-3", nil)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/loans", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "user-3", seenOwner)
}
