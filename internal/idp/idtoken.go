package idp

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrMalformedToken is returned when an ID token is not three dot-separated
	// segments or its claims segment cannot be decoded as JSON.
	ErrMalformedToken = errors.New("idp: malformed id token")
	// ErrNoIssuer is returned when the claims carry no usable iss claim.
	ErrNoIssuer = errors.New("idp: id token has no issuer")
)

// ExtractIssuer returns the iss claim of an ID token without verifying it.
// Only the claims segment is decoded; the issuer is used to pick the
// provider the backend validates the token against.
func ExtractIssuer(idToken string) (string, error) {
	parts := strings.Split(idToken, ".")
	if len(parts) != 3 {
		return "", ErrMalformedToken
	}
	raw, err := jwt.NewParser(jwt.WithPaddingAllowed()).DecodeSegment(parts[1])
	if err != nil {
		return "", ErrMalformedToken
	}
	var claims jwt.MapClaims
	if err := json.Unmarshal(raw, &claims); err != nil {
		return "", ErrMalformedToken
	}
	iss, err := claims.GetIssuer()
	if err != nil || iss == "" {
		return "", ErrNoIssuer
	}
	return iss, nil
}
