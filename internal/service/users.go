package service

import (
	"context"
	"time"

	"github.com/cristianszwarc/ludmin/internal/models"
	"github.com/cristianszwarc/ludmin/internal/token"
)

// MeAlias is the path segment resolving to the session's own user id.
const MeAlias = "me"

// Profile is the view of a user returned by profile reads. Cross-user reads
// without master capability see only the full name.
type Profile struct {
	FullName     string                 `json:"full_name"`
	CurrentEmail string                 `json:"current_email,omitempty"`
	Devices      []models.Device        `json:"devices,omitempty"`
	Emails       []models.EmailEntry    `json:"emails,omitempty"`
	Passwords    []models.PasswordEntry `json:"passwords,omitempty"`
}

// UpdateInput carries the optional fields of a profile update. Email and
// password changes additionally require CurrentPassword to verify against
// the entry flagged current.
type UpdateInput struct {
	FullName             string
	Email                string
	Password             string
	PasswordConfirmation string
	CurrentPassword      string
}

// UserService implements registration and the credential lifecycle.
type UserService struct {
	repo   UserRepository
	hasher models.Hasher
}

// NewUserService constructs a UserService.
func NewUserService(repo UserRepository, hasher models.Hasher) *UserService {
	return &UserService{repo: repo, hasher: hasher}
}

// Register creates a user with one current email and one current password
// entry. The email may not appear in any user's history, current or not.
func (s *UserService) Register(ctx context.Context, bearer *token.Bearer, fullName, email, password, confirmation string) error {
	if !bearer.HasAccess(token.AreaPublic) {
		return ErrNotAllowed
	}
	if password != confirmation {
		return ErrPasswordConfirmation
	}

	existing, err := s.repo.FindByAnyEmail(ctx, email)
	if err != nil {
		return err
	}
	if existing != nil {
		return ErrEmailInUse
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	user := &models.User{
		FullName: fullName,
		Emails: []models.EmailEntry{
			{Email: email, Verified: false, Current: true, InsertedAt: now},
		},
		Passwords: []models.PasswordEntry{
			{Password: hash, Current: true, InsertedAt: now},
		},
		InsertedAt: now,
	}
	return s.repo.Insert(ctx, user)
}

// List returns every user with the password hashes blanked. Master only.
func (s *UserService) List(ctx context.Context, bearer *token.Bearer) ([]models.User, error) {
	if !bearer.HasAccess(token.AreaMaster) {
		return nil, ErrNotAllowed
	}

	users, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		for j := range users[i].Passwords {
			users[i].Passwords[j].Password = ""
		}
	}
	return users, nil
}

// resolveUserID expands the "me" alias to the session's own user id.
func resolveUserID(bearer *token.Bearer, userID string) string {
	if userID == MeAlias && bearer.Claims != nil {
		return bearer.Claims.UserID
	}
	return userID
}

// Profile loads a user profile. Reading someone else's profile without
// master capability yields the public reduction; password entries are
// included for master callers only, with the hashes blanked.
func (s *UserService) Profile(ctx context.Context, bearer *token.Bearer, userID string) (*Profile, error) {
	if !bearer.HasAccess(token.AreaBasics) {
		return nil, ErrNotAllowed
	}

	sessionID := ""
	if bearer.Claims != nil {
		sessionID = bearer.Claims.UserID
	}
	userID = resolveUserID(bearer, userID)

	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	if userID != sessionID && !bearer.HasAccess(token.AreaMaster) {
		return &Profile{FullName: user.FullName}, nil
	}

	profile := &Profile{
		FullName: user.FullName,
		Devices:  user.Devices,
		Emails:   user.Emails,
	}
	if current := user.CurrentEmail(); current != nil {
		profile.CurrentEmail = current.Email
	}
	if bearer.HasAccess(token.AreaMaster) {
		passwords := make([]models.PasswordEntry, len(user.Passwords))
		copy(passwords, user.Passwords)
		for i := range passwords {
			passwords[i].Password = ""
		}
		profile.Passwords = passwords
	}
	return profile, nil
}

// Update applies the partial profile changes. Email and password changes
// require the current password; the whole document is saved back once all
// transforms are applied.
func (s *UserService) Update(ctx context.Context, bearer *token.Bearer, userID string, in UpdateInput) error {
	if !bearer.HasAccess(token.AreaBasics) {
		return ErrNotAllowed
	}

	sessionID := ""
	if bearer.Claims != nil {
		sessionID = bearer.Claims.UserID
	}
	userID = resolveUserID(bearer, userID)

	if userID != sessionID && !bearer.HasAccess(token.AreaMaster) {
		return ErrNotAllowed
	}

	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	verified := in.CurrentPassword != "" && user.VerifyCurrentPassword(s.hasher, in.CurrentPassword)

	now := time.Now().UTC()
	if in.FullName != "" {
		user.FullName = in.FullName
	}

	if in.Email != "" {
		if !verified {
			return ErrCurrentPassword
		}
		other, err := s.repo.FindByAnyEmail(ctx, in.Email)
		if err != nil {
			return err
		}
		if other != nil && other.ID != user.ID {
			return ErrEmailInUseByOther
		}
		user.SetCurrentEmail(in.Email, now)
	}

	if in.Password != "" {
		if !verified {
			return ErrCurrentPassword
		}
		if in.Password != in.PasswordConfirmation {
			return ErrPasswordConfirmation
		}
		if err := user.ApplyPassword(s.hasher, in.Password, now); err != nil {
			return err
		}
	}

	return s.repo.Replace(ctx, user)
}
