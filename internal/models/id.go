// Package models contains data structures for the application's domain models.
package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NewID returns a fresh document identifier in the store's native hex form.
func NewID() string {
	return primitive.NewObjectID().Hex()
}

// IsValidID reports whether id is a well-formed document identifier.
func IsValidID(id string) bool {
	_, err := primitive.ObjectIDFromHex(id)
	return err == nil
}
