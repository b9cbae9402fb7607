// Package contact implements the contact book store: a single JSON file
// holding the full, ordered contact list.
package contact

import (
	"fmt"

	"github.com/google/uuid"
)

// Contact is a single address book record. Fields are stored verbatim;
// no format validation is applied to Email or Phone.
type Contact struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// NewID returns a random (version 4) UUID in its canonical string form.
func NewID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("contact: generating id: %w", err)
	}
	return id.String(), nil
}

// index returns the position of the first contact with the given id, or -1.
func index(list []Contact, id string) int {
	for i, c := range list {
		if c.ID == id {
			return i
		}
	}
	return -1
}
