package model

import (
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrInvalidID is returned when a string is not a 24 character hex identifier
var ErrInvalidID = errors.New("invalid identifier")

// ID is the store-native identifier every entity carries. Factories assign it
// once and nothing in this module reassigns it.
type ID = primitive.ObjectID

// NewID generates a fresh identifier
func NewID() ID {
	return primitive.NewObjectID()
}

// ParseID parses a 24 character hex identifier
func ParseID(s string) (ID, error) {
	id, err := primitive.ObjectIDFromHex(s)
	if err != nil {
		return primitive.NilObjectID, ErrInvalidID
	}
	return id, nil
}
