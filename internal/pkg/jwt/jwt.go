package jwt

import (
	"context"
	"errors"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

const tokenTypeAccess = "access"

var (
	ErrInvalidToken   = errors.New("invalid or missing access token")
	ErrTenantRequired = errors.New("token does not carry a tenant")
)

// Claims is the caller identity carried by an access token.
type Claims struct {
	UserID     string
	TenantID   string
	EmployeeID string
	IsAdmin    bool
}

type Service interface {
	GenerateAccessToken(claims Claims) (token string, expiresAt int64, err error)
	JWTAuth() *jwtauth.JWTAuth
}

type JWTService struct {
	accessTokenTTL time.Duration
	tokenAuth      *jwtauth.JWTAuth
}

func NewJWTService(secretKey string, accessTokenTTL time.Duration) Service {
	return &JWTService{
		accessTokenTTL: accessTokenTTL,
		tokenAuth:      jwtauth.New("HS256", []byte(secretKey), nil, jwt.WithAcceptableSkew(30*time.Second)),
	}
}

func (j *JWTService) JWTAuth() *jwtauth.JWTAuth {
	return j.tokenAuth
}

// GenerateAccessToken signs claims. Tokens are normally issued by the identity
// service; this is used by tooling and tests.
func (j *JWTService) GenerateAccessToken(claims Claims) (token string, expiresAt int64, err error) {
	expiresAt = time.Now().Add(j.accessTokenTTL).Unix()

	payload := map[string]interface{}{
		"user_id":   claims.UserID,
		"tenant_id": claims.TenantID,
		"is_admin":  claims.IsAdmin,
		"type":      tokenTypeAccess,
		"exp":       expiresAt,
	}
	if claims.EmployeeID != "" {
		payload["employee_id"] = claims.EmployeeID
	}

	_, tokenString, err := j.tokenAuth.Encode(payload)
	return tokenString, expiresAt, err
}

// ClaimsFromContext reads the verified token placed on ctx by jwtauth.Verifier.
func ClaimsFromContext(ctx context.Context) (Claims, error) {
	token, raw, err := jwtauth.FromContext(ctx)
	if err != nil || token == nil {
		return Claims{}, ErrInvalidToken
	}

	if tokenType, _ := raw["type"].(string); tokenType != tokenTypeAccess {
		return Claims{}, ErrInvalidToken
	}

	claims := Claims{}
	claims.UserID, _ = raw["user_id"].(string)
	claims.TenantID, _ = raw["tenant_id"].(string)
	claims.EmployeeID, _ = raw["employee_id"].(string)
	claims.IsAdmin, _ = raw["is_admin"].(bool)

	if claims.TenantID == "" {
		return Claims{}, ErrTenantRequired
	}
	return claims, nil
}
