package service

import (
	"context"
	"math/rand/v2"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/cristianszwarc/ludmin/internal/models"
	"github.com/cristianszwarc/ludmin/internal/token"
)

// ResetRepository defines the reset-request persistence required by the
// reset flow.
type ResetRepository interface {
	Insert(ctx context.Context, reset *models.ResetRequest) error
	FindUsable(ctx context.Context, email string) (*models.ResetRequest, error)
	IncrementFailures(ctx context.Context, id primitive.ObjectID, now time.Time) error
	Disable(ctx context.Context, id primitive.ObjectID, now time.Time) error
	FindAll(ctx context.Context) ([]models.ResetRequest, error)
}

// ResetService implements password reset by emailed code. The code itself
// is the proof of control, so completing a reset skips the current-password
// check of the regular password change.
type ResetService struct {
	users  UserRepository
	resets ResetRepository
	hasher models.Hasher
}

// NewResetService constructs a ResetService.
func NewResetService(users UserRepository, resets ResetRepository, hasher models.Hasher) *ResetService {
	return &ResetService{users: users, resets: resets, hasher: hasher}
}

// newResetCode picks a 4-digit numeric code.
func newResetCode() string {
	return strconv.Itoa(rand.IntN(9000) + 1000)
}

// List returns every reset record. Master only.
func (s *ResetService) List(ctx context.Context, bearer *token.Bearer) ([]models.ResetRequest, error) {
	if !bearer.HasAccess(token.AreaMaster) {
		return nil, ErrNotAllowed
	}
	return s.resets.FindAll(ctx)
}

// Request creates a fresh reset record for the email. The email must be
// some user's current address. Delivery of the code is external; the record
// starts with Sent false.
func (s *ResetService) Request(ctx context.Context, bearer *token.Bearer, email string) error {
	if !bearer.HasAccess(token.AreaPublic) {
		return ErrNotAllowed
	}

	user, err := s.users.FindByCurrentEmail(ctx, email)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrEmailNotRegistered
	}

	reset := &models.ResetRequest{
		Email:      email,
		Code:       newResetCode(),
		Sent:       false,
		Enabled:    true,
		Failures:   0,
		InsertedAt: time.Now().UTC(),
	}
	return s.resets.Insert(ctx, reset)
}

// Complete sets a new password given a valid reset code. A wrong code
// counts a failure against the record; the correct code disables the record
// in place so it cannot be replayed, then applies the usual password
// history transform.
func (s *ResetService) Complete(ctx context.Context, bearer *token.Bearer, email, code, password, confirmation string) error {
	if !bearer.HasAccess(token.AreaPublic) {
		return ErrNotAllowed
	}

	now := time.Now().UTC()

	reset, err := s.resets.FindUsable(ctx, email)
	if err != nil {
		return err
	}
	if reset == nil {
		return ErrNoResetRequest
	}

	user, err := s.users.FindByCurrentEmail(ctx, email)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrNoActiveEmail
	}

	if password != confirmation {
		return ErrPasswordConfirmation
	}

	if reset.Code != code {
		if err := s.resets.IncrementFailures(ctx, reset.ID, now); err != nil {
			return err
		}
		return ErrInvalidResetCode
	}

	// one-time use: burn the record before touching the user
	if err := s.resets.Disable(ctx, reset.ID, now); err != nil {
		return err
	}

	if err := user.ApplyPassword(s.hasher, password, now); err != nil {
		return err
	}
	return s.users.Replace(ctx, user)
}
