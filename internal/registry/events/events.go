// Package events defines the registry's notification surface. Every state
// transition in the engine emits one typed event, synchronously and in the
// order the mutations happen. Sinks fan these out to external logging and
// indexing collaborators; the engine itself never reads them back.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"

	id "terrier/pkg/domain"
)

// Event is one registry notification. Monetary fields travel as decimal
// strings because balances exceed what a JSON number can carry.
type Event interface {
	// Kind is the stable event name consumers dispatch on.
	Kind() string
}

// PersonRegistered fires when a new person record is created.
type PersonRegistered struct {
	PersonID id.PersonID `json:"person_id"`
	Name     string      `json:"name"`
	Balance  string      `json:"balance"`
}

// PropertyRegistered fires when a new property record is created.
type PropertyRegistered struct {
	Deed     id.Deed     `json:"deed"`
	OwnerID  id.PersonID `json:"owner_id"`
	Location string      `json:"location"`
	Price    string      `json:"price"`
}

// BalanceDebited fires immediately after a buyer's balance is reduced.
type BalanceDebited struct {
	PersonID id.PersonID `json:"person_id"`
	Amount   string      `json:"amount"`
}

// BalanceCredited fires immediately after a seller's balance is increased.
type BalanceCredited struct {
	PersonID id.PersonID `json:"person_id"`
	Amount   string      `json:"amount"`
}

// OwnershipChanged fires immediately after a property's owner is reassigned.
// OldOwnerID is the transaction's named seller, which is not necessarily the
// owner previously recorded on the property (the engine does not require the
// seller to be the recorded owner).
type OwnershipChanged struct {
	NewOwnerID id.PersonID `json:"new_owner_id"`
	OldOwnerID id.PersonID `json:"old_owner_id"`
	Deed       id.Deed     `json:"deed"`
}

// TransactionRecorded fires once the transfer is appended to the log.
type TransactionRecorded struct {
	Deed      id.Deed     `json:"deed"`
	BuyerID   id.PersonID `json:"buyer_id"`
	SellerID  id.PersonID `json:"seller_id"`
	Timestamp time.Time   `json:"timestamp"`
	Amount    string      `json:"amount"`
}

func (PersonRegistered) Kind() string    { return "person.registered" }
func (PropertyRegistered) Kind() string  { return "property.registered" }
func (BalanceDebited) Kind() string      { return "balance.debited" }
func (BalanceCredited) Kind() string     { return "balance.credited" }
func (OwnershipChanged) Kind() string    { return "ownership.changed" }
func (TransactionRecorded) Kind() string { return "transaction.recorded" }

// Envelope is the wire form shared by all sinks: a unique event ID, the kind,
// the emission time, and the typed payload.
type Envelope struct {
	ID   uuid.UUID `json:"id"`
	Kind string    `json:"kind"`
	At   time.Time `json:"at"`
	Body Event     `json:"body"`
}

// NewEnvelope stamps an event with identity and emission time.
func NewEnvelope(e Event) Envelope {
	return Envelope{
		ID:   uuid.New(),
		Kind: e.Kind(),
		At:   time.Now(),
		Body: e,
	}
}

// Publisher is what the engine service emits through.
type Publisher interface {
	Emit(ctx context.Context, e Event) error
}

// Sink receives enveloped events from a Publisher.
type Sink interface {
	Write(ctx context.Context, env Envelope) error
}
