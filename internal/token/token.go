// Package token implements the signed bearer credential: HS256 encoding and
// decoding, the public/logged issuance recipes, and capability checks.
package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/cristianszwarc/ludmin/internal/models"
)

// Capability areas carried in a token's allowed claim.
const (
	AreaPublic = "public"
	AreaBasics = "basics"
	AreaMaster = "master"
)

// Token types.
const (
	TypePublic = "public"
	TypeLogged = "logged"
)

// ErrNoToken is returned when no bearer token was supplied at all.
var ErrNoToken = errors.New("token not provided")

// Claims is the claim set of an issued token. Public tokens carry only the
// device scope; logged tokens add the user identity and the device revision
// the token was minted against.
type Claims struct {
	DeviceID string   `json:"device_id"`
	Type     string   `json:"type"`
	Allowed  []string `json:"allowed"`
	UserID   string   `json:"_id,omitempty"`
	Rev      int      `json:"rev,omitempty"`
	FullName string   `json:"full_name,omitempty"`
	jwt.RegisteredClaims
}

// HasAccess reports whether the area is present in the allowed claim.
// It is safe to call on nil claims and never errors.
func (c *Claims) HasAccess(area string) bool {
	if c == nil {
		return false
	}
	for _, a := range c.Allowed {
		if a == area {
			return true
		}
	}
	return false
}

// Service signs and verifies tokens with a shared secret.
type Service struct {
	secret []byte
	ttl    time.Duration
}

// NewService returns a Service signing with secret and stamping tokens with
// a ttlSeconds expiry window.
func NewService(secret string, ttlSeconds int) *Service {
	return &Service{
		secret: []byte(secret),
		ttl:    time.Duration(ttlSeconds) * time.Second,
	}
}

// encode stamps the expiry and signs the claims with HS256.
func (s *Service) encode(claims *Claims) (string, error) {
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(s.ttl))
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// IssuePublic mints an anonymous token scoped to a device.
func (s *Service) IssuePublic(deviceID string, allowed []string) (string, error) {
	return s.encode(&Claims{
		DeviceID: deviceID,
		Type:     TypePublic,
		Allowed:  allowed,
	})
}

// IssueLogged mints a token tied to a user and the device revision stored
// at issue time.
func (s *Service) IssueLogged(user *models.User, deviceID string, allowed []string, rev int) (string, error) {
	return s.encode(&Claims{
		DeviceID: deviceID,
		Type:     TypeLogged,
		Allowed:  allowed,
		UserID:   user.ID.Hex(),
		Rev:      rev,
		FullName: user.FullName,
	})
}

// Decode verifies the signature and structure of a raw token. A leading
// "Bearer" prefix is tolerated. With verifyExp false an expired token still
// decodes; signature and shape checks always apply.
func (s *Service) Decode(raw string, verifyExp bool) (*Claims, error) {
	raw = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(raw), "Bearer"))
	if raw == "" {
		return nil, ErrNoToken
	}

	var opts []jwt.ParserOption
	if !verifyExp {
		opts = append(opts, jwt.WithoutClaimsValidation())
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, jwt.ErrTokenUnverifiable
	}
	return claims, nil
}

// Bearer wraps the credential of a single request: the raw header value plus
// a best-effort strict decode performed once at ingress. Claims is nil when
// the token is absent, expired, or fails verification; routes that need a
// valid token call DecodeOrFail themselves.
type Bearer struct {
	raw     string
	service *Service
	// Claims is the result of the ingress decode, nil on any failure.
	Claims *Claims
}

// Bearer builds the per-request token state from an Authorization header.
func (s *Service) Bearer(header string) *Bearer {
	b := &Bearer{raw: header, service: s}
	b.Claims, _ = s.Decode(header, true)
	return b
}

// DecodeOrFail re-decodes the raw credential, surfacing the failure reason.
func (b *Bearer) DecodeOrFail(verifyExp bool) (*Claims, error) {
	return b.service.Decode(b.raw, verifyExp)
}

// HasAccess checks a capability against the ingress-decoded claims.
func (b *Bearer) HasAccess(area string) bool {
	if b == nil {
		return false
	}
	return b.Claims.HasAccess(area)
}
