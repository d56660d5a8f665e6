package jwt

import (
	"time"

	jwtstd "github.com/golang-jwt/jwt/v5"
)

// TokenError represents JWT token related errors
type TokenError string

func (e TokenError) Error() string {
	return string(e)
}

const (
	DefaultAccessTokenExpire = time.Hour * 24

	ErrNeedTokenProvider = TokenError("cannot sign token without token provider")
	ErrInvalidToken      = TokenError("invalid token")
	ErrTokenParsing      = TokenError("token parsing error")
)

// Token represents the token body
type Token struct {
	JTI     string         `json:"jti"`
	Payload map[string]any `json:"payload"`
	Subject string         `json:"sub"`
	Expire  int64          `json:"exp"`
}

// TokenManager handles JWT token operations
type TokenManager struct {
	key string
}

// NewTokenManager creates a new TokenManager instance
func NewTokenManager(key string) *TokenManager {
	return &TokenManager{key: key}
}

// validateKey validates the token key
func (jtm *TokenManager) validateKey() error {
	if jtm.key == "" {
		return ErrNeedTokenProvider
	}
	return nil
}

// generateToken generates a JWT token
func (jtm *TokenManager) generateToken(token *Token) (string, error) {
	if err := jtm.validateKey(); err != nil {
		return "", err
	}

	claims := jwtstd.MapClaims{
		"jti":     token.JTI,
		"sub":     token.Subject,
		"payload": token.Payload,
		"exp":     time.Now().Add(time.Millisecond * time.Duration(token.Expire)).Unix(),
	}

	t := jwtstd.NewWithClaims(jwtstd.SigningMethodHS256, claims)
	return t.SignedString([]byte(jtm.key))
}

// GenerateAccessToken generates an access token with a default expiration of 24 hours
func (jtm *TokenManager) GenerateAccessToken(jti string, payload map[string]any) (string, error) {
	return jtm.GenerateAccessTokenWithExpiry(jti, payload, DefaultAccessTokenExpire)
}

// GenerateAccessTokenWithExpiry generates an access token with a custom expiration duration.
func (jtm *TokenManager) GenerateAccessTokenWithExpiry(jti string, payload map[string]any, expiry time.Duration) (string, error) {
	return jtm.generateToken(&Token{
		JTI:     jti,
		Payload: payload,
		Subject: "access",
		Expire:  expiry.Milliseconds(),
	})
}

// ValidateToken validates a JWT token
func (jtm *TokenManager) ValidateToken(tokenString string) (*jwtstd.Token, error) {
	if err := jtm.validateKey(); err != nil {
		return nil, err
	}

	return jwtstd.Parse(tokenString, func(token *jwtstd.Token) (any, error) {
		return []byte(jtm.key), nil
	})
}

// DecodeToken decodes a JWT token into its claims
func (jtm *TokenManager) DecodeToken(tokenString string) (map[string]any, error) {
	token, err := jtm.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return token.Claims.(jwtstd.MapClaims), nil
}

// GetTokenExpiryTime extracts the expiration time from a token
func (jtm *TokenManager) GetTokenExpiryTime(tokenString string) (time.Time, error) {
	claims, err := jtm.DecodeToken(tokenString)
	if err != nil {
		return time.Time{}, err
	}

	exp, ok := claims["exp"].(float64)
	if !ok {
		return time.Time{}, ErrTokenParsing
	}

	return time.Unix(int64(exp), 0), nil
}

// getPayloadFromClaims extracts the payload from token claims
func getPayloadFromClaims(claims map[string]any) (map[string]any, bool) {
	payloadAny, ok := claims["payload"]
	if !ok {
		return nil, false
	}
	payload, ok := payloadAny.(map[string]any)
	return payload, ok
}

// GetUserIDFromToken gets the user ID from the token
func GetUserIDFromToken(claims map[string]any) string {
	if payload, ok := getPayloadFromClaims(claims); ok {
		if userID, ok := payload["user_id"].(string); ok {
			return userID
		}
	}
	return ""
}

// GetEmailFromToken gets the email from the token
func GetEmailFromToken(claims map[string]any) string {
	if payload, ok := getPayloadFromClaims(claims); ok {
		if email, ok := payload["email"].(string); ok {
			return email
		}
	}
	return ""
}
