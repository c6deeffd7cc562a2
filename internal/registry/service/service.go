// Package service implements the registry engine: three linked registries
// kept mutually consistent by validate-then-commit execution.
//
// Every public operation runs serially under one engine lock: all failure
// conditions are checked before any state mutation begins, so no failure path
// ever leaves a partial update behind. Events are emitted synchronously, each
// immediately after the mutation it describes.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"terrier/internal/registry/events"
	"terrier/internal/registry/metrics"
	"terrier/internal/registry/models"
	id "terrier/pkg/domain"
	dErrors "terrier/pkg/domain-errors"
	"terrier/pkg/platform/sentinel"
)

// Store is the ledger table layer the engine drives. Implemented by
// store/ledger.InMemory.
type Store interface {
	PutPerson(ctx context.Context, p models.Person) error
	PutProperty(ctx context.Context, p models.Property) error
	GetPerson(ctx context.Context, personID id.PersonID) (models.Person, error)
	GetProperty(ctx context.Context, deed id.Deed) (models.Property, error)
	PersonExists(ctx context.Context, personID id.PersonID) bool
	PropertyExists(ctx context.Context, deed id.Deed) bool
	Debit(ctx context.Context, personID id.PersonID, amount *big.Int) error
	Credit(ctx context.Context, personID id.PersonID, amount *big.Int) error
	SetOwner(ctx context.Context, deed id.Deed, owner id.PersonID) (id.PersonID, error)
	AppendTransaction(ctx context.Context, tx models.Transaction)
	Transactions(ctx context.Context) []models.Transaction
	TransactionCount(ctx context.Context) int
}

// Service is the registry engine.
type Service struct {
	// mu serializes whole operations: validation, mutation, and event
	// emission of one call all complete before the next call starts.
	mu sync.Mutex

	store     Store
	publisher events.Publisher
	logger    *slog.Logger
	metrics   *metrics.Metrics
	tracer    trace.Tracer
	now       func() time.Time
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithPublisher(publisher events.Publisher) Option {
	return func(s *Service) {
		s.publisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithClock overrides the wall clock used for transaction timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func New(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("ledger store is required")
	}

	svc := &Service{
		store:  store,
		logger: slog.Default(),
		tracer: otel.Tracer("terrier/registry"),
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(svc)
	}

	return svc, nil
}

// RegisterPerson creates a person record with an opening balance. Fails with
// CodeConflict if the identifier is already registered; state is unchanged on
// any failure.
func (s *Service) RegisterPerson(ctx context.Context, personID id.PersonID, name string, balance *big.Int) error {
	ctx, span := s.tracer.Start(ctx, "registry.RegisterPerson")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := validAmount(balance, "balance"); err != nil {
		s.metrics.IncrementFailure("register_person", "invalid_input")
		return err
	}

	p := models.Person{ID: personID, Name: name, Balance: balance}
	if err := s.store.PutPerson(ctx, p); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			s.metrics.IncrementFailure("register_person", "already_exists")
			return dErrors.Wrapf(err, dErrors.CodeConflict, "person %q is already registered", personID)
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store person")
	}

	s.emit(ctx, events.PersonRegistered{
		PersonID: personID,
		Name:     name,
		Balance:  balance.String(),
	})
	s.metrics.IncrementRegistration("person")
	s.logger.Info("person registered", "person_id", personID)
	return nil
}

// RegisterProperty creates a property record under a deed number. The owner
// identifier is deliberately not required to reference a registered person;
// callers that want that guarantee must register the owner first.
func (s *Service) RegisterProperty(ctx context.Context, deed id.Deed, ownerID id.PersonID, location string, price *big.Int) error {
	ctx, span := s.tracer.Start(ctx, "registry.RegisterProperty")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := validAmount(price, "price"); err != nil {
		s.metrics.IncrementFailure("register_property", "invalid_input")
		return err
	}

	p := models.Property{Deed: deed, OwnerID: ownerID, Location: location, Price: price}
	if err := s.store.PutProperty(ctx, p); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			s.metrics.IncrementFailure("register_property", "already_exists")
			return dErrors.Wrapf(err, dErrors.CodeConflict, "deed %s is already registered", deed)
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store property")
	}

	s.emit(ctx, events.PropertyRegistered{
		Deed:     deed,
		OwnerID:  ownerID,
		Location: location,
		Price:    price.String(),
	})
	s.metrics.IncrementRegistration("property")
	s.logger.Info("property registered", "deed", deed, "owner_id", ownerID)
	return nil
}

// ExecuteTransaction transfers a property between two registered persons and
// moves the funds. Guards run in a fixed order before any mutation: buyer
// exists, seller exists, deed exists, buyer can cover the amount. Once all
// guards pass the four mutations apply in order (debit buyer, credit seller,
// reassign owner, append log entry), each immediately followed by its event.
//
// The engine does not require the named seller to be the property's recorded
// owner, nor the amount to relate to the property's price.
func (s *Service) ExecuteTransaction(ctx context.Context, deed id.Deed, sellerID, buyerID id.PersonID, amount *big.Int) (models.Transaction, error) {
	ctx, span := s.tracer.Start(ctx, "registry.ExecuteTransaction")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := validAmount(amount, "amount"); err != nil {
		s.metrics.IncrementFailure("execute_transaction", "invalid_input")
		return models.Transaction{}, err
	}

	buyer, err := s.store.GetPerson(ctx, buyerID)
	if err != nil {
		s.metrics.IncrementFailure("execute_transaction", "buyer_not_found")
		return models.Transaction{}, dErrors.Wrapf(err, dErrors.CodeNotFound, "buyer %q is not a registered person", buyerID)
	}
	if !s.store.PersonExists(ctx, sellerID) {
		s.metrics.IncrementFailure("execute_transaction", "seller_not_found")
		return models.Transaction{}, dErrors.Newf(dErrors.CodeNotFound, "seller %q is not a registered person", sellerID)
	}
	if !s.store.PropertyExists(ctx, deed) {
		s.metrics.IncrementFailure("execute_transaction", "property_not_found")
		return models.Transaction{}, dErrors.Newf(dErrors.CodeNotFound, "deed %s is not a registered property", deed)
	}
	if buyer.Balance.Cmp(amount) < 0 {
		s.metrics.IncrementFailure("execute_transaction", "insufficient_funds")
		return models.Transaction{}, dErrors.Newf(dErrors.CodeInsufficientFunds,
			"buyer %q balance %s cannot cover %s", buyerID, buyer.Balance, amount)
	}

	// All guards passed; none of the four steps below can fail against the
	// records just validated. A store error past this point means the engine
	// lock was bypassed.
	if err := s.store.Debit(ctx, buyerID, amount); err != nil {
		return models.Transaction{}, s.invariant(err, "debit buyer")
	}
	s.emit(ctx, events.BalanceDebited{PersonID: buyerID, Amount: amount.String()})

	if err := s.store.Credit(ctx, sellerID, amount); err != nil {
		return models.Transaction{}, s.invariant(err, "credit seller")
	}
	s.emit(ctx, events.BalanceCredited{PersonID: sellerID, Amount: amount.String()})

	prevOwner, err := s.store.SetOwner(ctx, deed, buyerID)
	if err != nil {
		return models.Transaction{}, s.invariant(err, "reassign owner")
	}
	if prevOwner != sellerID {
		s.logger.Debug("recorded owner differed from named seller",
			"deed", deed, "recorded_owner", prevOwner, "seller_id", sellerID)
	}
	s.emit(ctx, events.OwnershipChanged{NewOwnerID: buyerID, OldOwnerID: sellerID, Deed: deed})

	tx := models.Transaction{
		Deed:      deed,
		BuyerID:   buyerID,
		SellerID:  sellerID,
		Timestamp: s.now(),
		Amount:    new(big.Int).Set(amount),
	}
	s.store.AppendTransaction(ctx, tx)
	s.emit(ctx, events.TransactionRecorded{
		Deed:      tx.Deed,
		BuyerID:   tx.BuyerID,
		SellerID:  tx.SellerID,
		Timestamp: tx.Timestamp,
		Amount:    tx.Amount.String(),
	})

	s.metrics.IncrementTransaction(s.store.TransactionCount(ctx))
	s.logger.Info("transaction executed",
		"deed", deed, "buyer_id", buyerID, "seller_id", sellerID, "amount", amount.String())
	return tx.Clone(), nil
}

// GetPerson returns a copy of the person record.
func (s *Service) GetPerson(ctx context.Context, personID id.PersonID) (models.Person, error) {
	p, err := s.store.GetPerson(ctx, personID)
	if err != nil {
		return models.Person{}, dErrors.Wrapf(err, dErrors.CodeNotFound, "person %q is not registered", personID)
	}
	return p, nil
}

// GetProperty returns a copy of the property record.
func (s *Service) GetProperty(ctx context.Context, deed id.Deed) (models.Property, error) {
	p, err := s.store.GetProperty(ctx, deed)
	if err != nil {
		return models.Property{}, dErrors.Wrapf(err, dErrors.CodeNotFound, "deed %s is not registered", deed)
	}
	return p, nil
}

// PersonExists answers membership in O(1).
func (s *Service) PersonExists(ctx context.Context, personID id.PersonID) bool {
	return s.store.PersonExists(ctx, personID)
}

// PropertyExists answers membership in O(1).
func (s *Service) PropertyExists(ctx context.Context, deed id.Deed) bool {
	return s.store.PropertyExists(ctx, deed)
}

// Transactions returns a copy of the transfer log in insertion order.
func (s *Service) Transactions(ctx context.Context) []models.Transaction {
	return s.store.Transactions(ctx)
}

func (s *Service) emit(ctx context.Context, e events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Emit(ctx, e); err != nil {
		s.logger.Error("event emission failed", "kind", e.Kind(), "error", err)
	}
}

func (s *Service) invariant(err error, step string) error {
	s.logger.Error("transfer step failed after validation", "step", step, "error", err)
	s.metrics.IncrementFailure("execute_transaction", "invariant_violation")
	return dErrors.Wrapf(err, dErrors.CodeInvariantViolation, "transfer step %q failed after validation", step)
}

func validAmount(v *big.Int, field string) error {
	if v == nil {
		return dErrors.Newf(dErrors.CodeInvalidInput, "%s is required", field)
	}
	if v.Sign() < 0 {
		return dErrors.Newf(dErrors.CodeInvalidInput, "%s must not be negative", field)
	}
	return nil
}
