// Package utils mints the HS256 access tokens that JWTAuth accepts.  Token
// issuance for end users lives outside this service; these tokens are for
// operators and tests.
package utils

import (
    "errors"
    "time"

    "github.com/golang-jwt/jwt/v5"
)

// Roles understood by the API.
const (
    RoleOperator = "OPERATOR"
)

// AccessToken represents a signed JWT access token along with its expiry.
type AccessToken struct {
    Token string    // the serialized JWT string
    Exp   time.Time // the UTC expiration time
}

// NewAccessToken builds and signs an HS256 JWT carrying sub, role, exp and
// iat claims.
func NewAccessToken(secret, subject, role string, ttl time.Duration) (AccessToken, error) {
    if secret == "" {
        return AccessToken{}, errors.New("empty signing secret")
    }
    if ttl <= 0 {
        ttl = 15 * time.Minute
    }
    now := time.Now().UTC()
    exp := now.Add(ttl)
    claims := jwt.MapClaims{
        "sub":  subject,
        "role": role,
        "exp":  exp.Unix(),
        "iat":  now.Unix(),
    }
    signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
    if err != nil {
        return AccessToken{}, err
    }
    return AccessToken{Token: signed, Exp: exp}, nil
}
