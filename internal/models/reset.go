package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ResetRequest is one password-reset code held in the reset_requests
// collection. A record is usable while Enabled is true and Failures is
// below the attempt limit; consuming the code disables it for good.
type ResetRequest struct {
	ID primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	// Email is the current address the reset was requested for.
	Email string `bson:"email" json:"email"`
	// Code is the 4-digit numeric code to be delivered out of band.
	Code string `bson:"code" json:"code"`
	// Sent reports whether the delivery side picked the code up.
	Sent bool `bson:"sent" json:"sent"`
	// Enabled is cleared once the code is consumed.
	Enabled bool `bson:"enabled" json:"enabled"`
	// Failures counts wrong-code submissions against this record.
	Failures   int        `bson:"failures" json:"failures"`
	InsertedAt time.Time  `bson:"insertedAt" json:"insertedAt"`
	UpdatedAt  *time.Time `bson:"updatedAt,omitempty" json:"updatedAt,omitempty"`
}
