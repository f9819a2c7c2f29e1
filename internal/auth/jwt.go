// Package auth issues and validates the operator JWT guarding the
// control API's mutating routes (ChgMode, StopMachine, manual
// activation). Grounded on shared/jwt/jwt.go's claims/sign/verify
// shape, trimmed to a single operator subject since the irrigation
// controller has no multi-user account model.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"
	echojwt "github.com/labstack/echo-jwt"
	"github.com/labstack/echo/v4"
)

// OperatorClaims identifies the authenticated operator issuing
// control commands.
type OperatorClaims struct {
	Subject string `json:"subject"`
	jwt.StandardClaims
}

const tokenTTL = 24 * time.Hour

// Issuer signs and verifies operator tokens with a single shared
// secret, loaded from config at boot.
type Issuer struct {
	secret []byte
}

// NewIssuer builds an Issuer from the configured JWT secret.
func NewIssuer(secret string) *Issuer {
	return &Issuer{secret: []byte(secret)}
}

// IssueToken signs a token for the given operator subject, valid for
// tokenTTL.
func (i *Issuer) IssueToken(subject string) (string, int64, error) {
	expiresAt := time.Now().Add(tokenTTL).Unix()
	claims := &OperatorClaims{
		Subject: subject,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: expiresAt,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", 0, fmt.Errorf("failed to sign operator token: %w", err)
	}
	return signed, expiresAt, nil
}

// Middleware builds the echo-jwt middleware guarding mutating routes,
// stashing the verified subject under "operator" in the echo context.
func (i *Issuer) Middleware() echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		SigningKey: i.secret,
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return new(OperatorClaims)
		},
		SuccessHandler: func(c echo.Context) {
			token := c.Get("user").(*jwt.Token)
			claims := token.Claims.(*OperatorClaims)
			c.Set("operator", claims.Subject)
		},
	})
}
