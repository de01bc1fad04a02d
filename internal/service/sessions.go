// Package service implements the identity business logic: the device/session
// state machine, the credential lifecycle and the password-reset flow.
// Persistence is delegated to repository interfaces.
package service

import (
	"context"
	"encoding/hex"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/cristianszwarc/ludmin/internal/models"
	"github.com/cristianszwarc/ludmin/internal/token"
)

// UserRepository defines the credential-store operations required by the
// services. Lookups return (nil, nil) when nothing matches.
type UserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByCurrentEmail(ctx context.Context, email string) (*models.User, error)
	FindByAnyEmail(ctx context.Context, email string) (*models.User, error)
	FindByDevice(ctx context.Context, userID, deviceID string) (*models.User, error)
	FindByDeviceRev(ctx context.Context, userID, deviceID string, rev int) (*models.User, error)
	FindAll(ctx context.Context) ([]models.User, error)
	Insert(ctx context.Context, user *models.User) error
	UpdateDevice(ctx context.Context, userID, deviceID string, rev int, lastUsed time.Time) error
	PushDevice(ctx context.Context, userID string, device models.Device) error
	PullDevice(ctx context.Context, userID, deviceID string) error
	Replace(ctx context.Context, user *models.User) error
}

// Token type hints returned alongside issued tokens.
const (
	TypeLogin   = "Login"
	TypeRefresh = "Refresh"
	TypePublic  = "Public"
)

// loggedAreas are the capabilities granted to a logged-in session.
var loggedAreas = []string{token.AreaBasics, token.AreaMaster}

// SessionService runs the device/session state machine: public bootstrap,
// login, refresh and logout. Every successful login or refresh rotates the
// device's stored revision, instantly invalidating earlier tokens for that
// device.
type SessionService struct {
	repo   UserRepository
	tokens *token.Service
	hasher models.Hasher
}

// NewSessionService constructs a SessionService.
func NewSessionService(repo UserRepository, tokens *token.Service, hasher models.Hasher) *SessionService {
	return &SessionService{repo: repo, tokens: tokens, hasher: hasher}
}

// newRev picks the random revision fence stored with a device.
func newRev() int {
	return rand.IntN(10000)
}

// newDeviceID generates a 32-character opaque device identifier.
func newDeviceID() string {
	id := uuid.New()
	return hex.EncodeToString(id[:])
}

// PublicToken issues an anonymous device-scoped token. A client-supplied
// device id is kept only when it has the exact 32-character opaque form;
// anything else is replaced with a generated one.
func (s *SessionService) PublicToken(deviceID string) (string, string, error) {
	if len(deviceID) != 32 {
		deviceID = newDeviceID()
	}
	raw, err := s.tokens.IssuePublic(deviceID, []string{token.AreaPublic})
	if err != nil {
		return "", "", err
	}
	return raw, deviceID, nil
}

// Login validates the email and password against the current credential
// entries and attaches the caller's device to the user under a fresh
// revision. Any lookup or verification miss yields the same generic error.
func (s *SessionService) Login(ctx context.Context, bearer *token.Bearer, email, password, description string) (string, error) {
	if !bearer.HasAccess(token.AreaPublic) && !bearer.HasAccess(token.AreaBasics) {
		return "", ErrNotAllowed
	}
	deviceID := bearer.Claims.DeviceID

	user, err := s.repo.FindByCurrentEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", ErrIncorrectLogin
	}

	current := user.CurrentPassword()
	if current == nil || s.hasher.Compare(current.Password, password) != nil {
		return "", ErrIncorrectLogin
	}

	rev := newRev()
	now := time.Now().UTC()
	if user.Device(deviceID) == nil {
		device := models.Device{
			DeviceID:    deviceID,
			Rev:         rev,
			LastUsed:    now,
			Description: description,
		}
		if err := s.repo.PushDevice(ctx, user.ID.Hex(), device); err != nil {
			return "", err
		}
	} else {
		if err := s.repo.UpdateDevice(ctx, user.ID.Hex(), deviceID, rev, now); err != nil {
			return "", err
		}
	}

	return s.tokens.IssueLogged(user, deviceID, loggedAreas, rev)
}

// Refresh re-issues a token for the device. The caller's token is decoded
// ignoring expiration; the store decides whether the device is still
// attached under the token's revision. A lapsed or anonymous session
// degrades to a public token instead of failing.
func (s *SessionService) Refresh(ctx context.Context, bearer *token.Bearer, deviceID string) (string, string, error) {
	claims, err := bearer.DecodeOrFail(false)
	if err != nil {
		return "", "", ErrInvalidToken
	}
	// refreshing one device with another device's token is rejected
	if deviceID != claims.DeviceID {
		return "", "", ErrInconsistentDevice
	}

	rev := newRev()
	if claims.UserID != "" {
		user, err := s.repo.FindByDeviceRev(ctx, claims.UserID, deviceID, claims.Rev)
		if err != nil {
			return "", "", err
		}
		if user != nil {
			if err := s.repo.UpdateDevice(ctx, user.ID.Hex(), deviceID, rev, time.Now().UTC()); err != nil {
				return "", "", err
			}
			raw, err := s.tokens.IssueLogged(user, deviceID, loggedAreas, rev)
			if err != nil {
				return "", "", err
			}
			return raw, TypeRefresh, nil
		}
	}

	raw, err := s.tokens.IssuePublic(deviceID, []string{token.AreaPublic})
	if err != nil {
		return "", "", err
	}
	return raw, TypePublic, nil
}

// Logout detaches a device from the token's user. An expired token is
// accepted when it belongs to the device being removed; logging out a
// different device requires an unexpired token.
func (s *SessionService) Logout(ctx context.Context, bearer *token.Bearer, deviceID string) error {
	claims, err := bearer.DecodeOrFail(false)
	if err != nil {
		return ErrInvalidToken
	}
	if deviceID != claims.DeviceID {
		claims, err = bearer.DecodeOrFail(true)
		if err != nil {
			return ErrInvalidToken
		}
	}

	user, err := s.repo.FindByDevice(ctx, claims.UserID, deviceID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrDeviceNotLinked
	}
	return s.repo.PullDevice(ctx, user.ID.Hex(), deviceID)
}
