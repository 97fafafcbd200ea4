package model

import (
	"fmt"
	"strings"
)

// Person is the registered profile of an authenticated user
type Person struct {
	ID       ID              `json:"id" bson:"_id"`
	Email    string          `json:"email" bson:"Email"`
	Fellings []PersonFelling `json:"fellings" bson:"Fellings"`
}

// PersonFelling is a mood entry posted into a tenant thread
type PersonFelling struct {
	ID          ID          `json:"id" bson:"_id"`
	TeamID      ID          `json:"teamId" bson:"TeamId"`
	ThreadID    ID          `json:"threadId" bson:"ThreadId"`
	TenantID    ID          `json:"tenantId" bson:"TenantId"`
	Description string      `json:"description" bson:"Description"`
	Type        FellingType `json:"type" bson:"Type"`
}

// FellingType is the mood category of a felling, carried on the wire as its number
type FellingType int

const (
	FellingAwful FellingType = iota
	FellingBad
	FellingNeutral
	FellingGood
	FellingGreat
)

var fellingTypeNames = [...]string{"Awful", "Bad", "Neutral", "Good", "Great"}

// Valid reports whether t is a defined category
func (t FellingType) Valid() bool {
	return t >= FellingAwful && t <= FellingGreat
}

func (t FellingType) String() string {
	if !t.Valid() {
		return fmt.Sprintf("FellingType(%d)", int(t))
	}
	return fellingTypeNames[t]
}

// NewPerson creates a person keyed by the lower-cased e-mail
func NewPerson(email string) *Person {
	return &Person{
		ID:       NewID(),
		Email:    strings.ToLower(email),
		Fellings: []PersonFelling{},
	}
}

// NewPersonFelling creates a felling referencing its team, thread and tenant
func NewPersonFelling(teamID, threadID, tenantID ID, description string, t FellingType) PersonFelling {
	return PersonFelling{
		ID:          NewID(),
		TeamID:      teamID,
		ThreadID:    threadID,
		TenantID:    tenantID,
		Description: description,
		Type:        t,
	}
}

// FellingInput is the add-felling request body. Ids stay strings so that
// malformed values reach the authorization checks instead of failing binding.
type FellingInput struct {
	TeamID      string      `json:"teamId"`
	ThreadID    string      `json:"threadId"`
	TenantID    string      `json:"tenantId"`
	Description string      `json:"description"`
	Type        FellingType `json:"type"`
}
