// Package models defines the documents stored for users and password resets,
// along with the credential-history transforms applied to them.
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Hasher is the one-way password capability required by the credential
// transforms. Implemented by security.Hasher.
type Hasher interface {
	// Hash produces a one-way hash of the given plaintext password.
	Hash(password string) (string, error)
	// Compare verifies a plaintext password against a stored hash.
	// Returns nil when they match.
	Compare(hash, password string) error
}

// EmailEntry is one address in a user's email history.
// At most one entry carries Current = true.
type EmailEntry struct {
	// Email is the address itself.
	Email string `bson:"email" json:"email"`
	// Verified reports whether the address has been confirmed.
	Verified bool `bson:"verified" json:"verified"`
	// Current marks the address used for login lookups.
	Current bool `bson:"current" json:"current"`
	// InsertedAt is when the address was first attached.
	InsertedAt time.Time `bson:"insertedAt" json:"insertedAt"`
	// UpdatedAt is stamped whenever the Current flag flips.
	UpdatedAt *time.Time `bson:"updatedAt,omitempty" json:"updatedAt,omitempty"`
}

// PasswordEntry is one hash in a user's password history. Old entries are
// retained so previously used passwords can be detected.
type PasswordEntry struct {
	// Password is the one-way hash, never the plaintext.
	Password string `bson:"password" json:"password,omitempty"`
	// Current marks the hash checked at login.
	Current bool `bson:"current" json:"current"`
	// InsertedAt is when the password was first set.
	InsertedAt time.Time `bson:"insertedAt" json:"insertedAt"`
	// UpdatedAt is stamped whenever the Current flag flips.
	UpdatedAt *time.Time `bson:"updatedAt,omitempty" json:"updatedAt,omitempty"`
}

// Device is one session-holding device attached to a user.
type Device struct {
	// DeviceID is the 32-character opaque identifier chosen at bootstrap.
	DeviceID string `bson:"device_id" json:"device_id"`
	// Rev is the revision fence regenerated on every login or refresh.
	// A token is honored only while its embedded rev matches this value.
	Rev int `bson:"rev" json:"rev"`
	// LastUsed is refreshed together with Rev.
	LastUsed time.Time `bson:"lastUsed" json:"lastUsed"`
	// Description is the free-form label supplied at login.
	Description string `bson:"description" json:"description"`
}

// User is the account document held in the users collection.
type User struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FullName   string             `bson:"full_name" json:"full_name"`
	Emails     []EmailEntry       `bson:"emails" json:"emails"`
	Passwords  []PasswordEntry    `bson:"passwords" json:"passwords,omitempty"`
	Devices    []Device           `bson:"devices,omitempty" json:"devices,omitempty"`
	InsertedAt time.Time          `bson:"insertedAt" json:"insertedAt"`
}

// CurrentEmail returns the entry flagged current, or nil.
func (u *User) CurrentEmail() *EmailEntry {
	for i := range u.Emails {
		if u.Emails[i].Current {
			return &u.Emails[i]
		}
	}
	return nil
}

// CurrentPassword returns the entry flagged current, or nil.
func (u *User) CurrentPassword() *PasswordEntry {
	for i := range u.Passwords {
		if u.Passwords[i].Current {
			return &u.Passwords[i]
		}
	}
	return nil
}

// HasEmail reports whether the address appears anywhere in the history,
// current or not.
func (u *User) HasEmail(email string) bool {
	for i := range u.Emails {
		if u.Emails[i].Email == email {
			return true
		}
	}
	return false
}

// Device returns the attached device with the given id, or nil.
func (u *User) Device(deviceID string) *Device {
	for i := range u.Devices {
		if u.Devices[i].DeviceID == deviceID {
			return &u.Devices[i]
		}
	}
	return nil
}

// VerifyCurrentPassword reports whether the plaintext matches an entry that
// is also flagged current. A match against a historical entry is not enough.
func (u *User) VerifyCurrentPassword(h Hasher, password string) bool {
	for i := range u.Passwords {
		if u.Passwords[i].Current && h.Compare(u.Passwords[i].Password, password) == nil {
			return true
		}
	}
	return false
}

// SetCurrentEmail appends the address when it is new to this user and moves
// the current flag onto it. Entries whose flag flips are stamped with now.
func (u *User) SetCurrentEmail(email string, now time.Time) {
	if !u.HasEmail(email) {
		u.Emails = append(u.Emails, EmailEntry{
			Email:      email,
			Current:    true,
			InsertedAt: now,
		})
	}
	for i := range u.Emails {
		isCurrent := u.Emails[i].Email == email
		if isCurrent != u.Emails[i].Current {
			stamp := now
			u.Emails[i].UpdatedAt = &stamp
		}
		u.Emails[i].Current = isCurrent
	}
}

// ApplyPassword appends the password to the history unless it verifies
// against an existing entry, then re-derives the current flag across the
// whole history by testing each stored hash against the plaintext. When the
// password was used before, the flag moves back to that older entry instead
// of a new one.
func (u *User) ApplyPassword(h Hasher, password string, now time.Time) error {
	used := false
	for i := range u.Passwords {
		if h.Compare(u.Passwords[i].Password, password) == nil {
			used = true
			break
		}
	}
	if !used {
		hash, err := h.Hash(password)
		if err != nil {
			return err
		}
		u.Passwords = append(u.Passwords, PasswordEntry{
			Password:   hash,
			Current:    true,
			InsertedAt: now,
		})
	}
	for i := range u.Passwords {
		isCurrent := h.Compare(u.Passwords[i].Password, password) == nil
		if isCurrent != u.Passwords[i].Current {
			stamp := now
			u.Passwords[i].UpdatedAt = &stamp
		}
		u.Passwords[i].Current = isCurrent
	}
	return nil
}
