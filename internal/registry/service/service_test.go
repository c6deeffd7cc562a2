package service

import (
	"context"
	"log/slog"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"terrier/internal/registry/events"
	eventsmem "terrier/internal/registry/events/memory"
	"terrier/internal/registry/store/ledger"
	id "terrier/pkg/domain"
	dErrors "terrier/pkg/domain-errors"
)

type RegistrySuite struct {
	suite.Suite
	store   *ledger.InMemory
	sink    *eventsmem.Sink
	service *Service
	ctx     context.Context
	now     time.Time
}

func TestRegistrySuite(t *testing.T) {
	suite.Run(t, new(RegistrySuite))
}

func (s *RegistrySuite) SetupTest() {
	s.store = ledger.NewInMemory()
	s.sink = eventsmem.NewSink()
	s.ctx = context.Background()
	s.now = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

	var err error
	s.service, err = New(s.store,
		WithLogger(slog.New(slog.DiscardHandler)),
		WithPublisher(events.NewFanout(slog.New(slog.DiscardHandler), s.sink)),
		WithClock(func() time.Time { return s.now }),
	)
	s.Require().NoError(err)
}

func (s *RegistrySuite) register(pid string, balance int64) {
	s.Require().NoError(s.service.RegisterPerson(s.ctx, id.PersonID(pid), "Person "+pid, big.NewInt(balance)))
}

func (s *RegistrySuite) registerProperty(deed uint64, owner string, price int64) {
	s.Require().NoError(s.service.RegisterProperty(s.ctx, id.Deed(deed), id.PersonID(owner), "1 Main St", big.NewInt(price)))
}

func (s *RegistrySuite) eventKinds() []string {
	var kinds []string
	for _, env := range s.sink.List(s.ctx) {
		kinds = append(kinds, env.Kind)
	}
	return kinds
}

func (s *RegistrySuite) TestNew() {
	s.Run("nil store returns error", func() {
		_, err := New(nil)
		s.Error(err)
		s.Contains(err.Error(), "ledger store is required")
	})

	s.Run("valid store returns configured service", func() {
		svc, err := New(s.store)
		s.NoError(err)
		s.NotNil(svc)
	})
}

func (s *RegistrySuite) TestRegisterPerson() {
	s.Run("registers and emits PersonRegistered", func() {
		s.register("alice", 1000)

		p, err := s.service.GetPerson(s.ctx, "alice")
		s.Require().NoError(err)
		s.Equal("Person alice", p.Name)
		s.Zero(p.Balance.Cmp(big.NewInt(1000)))

		entries := s.sink.List(s.ctx)
		s.Require().Len(entries, 1)
		ev, ok := entries[0].Body.(events.PersonRegistered)
		s.Require().True(ok)
		s.Equal(id.PersonID("alice"), ev.PersonID)
		s.Equal("1000", ev.Balance)
	})

	s.Run("duplicate id fails with conflict and changes nothing", func() {
		s.sink.Clear()
		err := s.service.RegisterPerson(s.ctx, "alice", "Impostor", big.NewInt(9))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))

		p, err := s.service.GetPerson(s.ctx, "alice")
		s.Require().NoError(err)
		s.Equal("Person alice", p.Name)
		s.Zero(p.Balance.Cmp(big.NewInt(1000)))
		s.Empty(s.sink.List(s.ctx))
	})

	s.Run("negative balance is rejected", func() {
		err := s.service.RegisterPerson(s.ctx, "mallory", "Mallory", big.NewInt(-1))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
		s.False(s.service.PersonExists(s.ctx, "mallory"))
	})
}

func (s *RegistrySuite) TestRegisterProperty() {
	s.Run("registers and emits PropertyRegistered", func() {
		s.registerProperty(42, "alice", 500)

		p, err := s.service.GetProperty(s.ctx, 42)
		s.Require().NoError(err)
		s.Equal(id.PersonID("alice"), p.OwnerID)

		entries := s.sink.List(s.ctx)
		s.Require().Len(entries, 1)
		ev, ok := entries[0].Body.(events.PropertyRegistered)
		s.Require().True(ok)
		s.Equal(id.Deed(42), ev.Deed)
		s.Equal("500", ev.Price)
	})

	s.Run("owner need not be a registered person", func() {
		s.Require().NoError(s.service.RegisterProperty(s.ctx, 43, "nobody-anyone-knows", "2 Side St", big.NewInt(100)))

		p, err := s.service.GetProperty(s.ctx, 43)
		s.Require().NoError(err)
		s.Equal(id.PersonID("nobody-anyone-knows"), p.OwnerID)
	})

	s.Run("duplicate deed fails with conflict", func() {
		err := s.service.RegisterProperty(s.ctx, 42, "bob", "3 Back St", big.NewInt(1))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))

		p, err := s.service.GetProperty(s.ctx, 42)
		s.Require().NoError(err)
		s.Equal(id.PersonID("alice"), p.OwnerID)
	})
}

func (s *RegistrySuite) TestExecuteTransaction() {
	s.register("buyer", 1000)
	s.register("seller", 200)
	s.registerProperty(7, "seller", 800)
	s.sink.Clear()

	s.Run("moves funds, reassigns ownership, records the transfer", func() {
		tx, err := s.service.ExecuteTransaction(s.ctx, 7, "seller", "buyer", big.NewInt(800))
		s.Require().NoError(err)
		s.Equal(s.now, tx.Timestamp)
		s.Zero(tx.Amount.Cmp(big.NewInt(800)))

		buyer, err := s.service.GetPerson(s.ctx, "buyer")
		s.Require().NoError(err)
		s.Zero(buyer.Balance.Cmp(big.NewInt(200)))

		seller, err := s.service.GetPerson(s.ctx, "seller")
		s.Require().NoError(err)
		s.Zero(seller.Balance.Cmp(big.NewInt(1000)))

		prop, err := s.service.GetProperty(s.ctx, 7)
		s.Require().NoError(err)
		s.Equal(id.PersonID("buyer"), prop.OwnerID)

		log := s.service.Transactions(s.ctx)
		s.Require().Len(log, 1)
		s.Equal(id.PersonID("buyer"), log[0].BuyerID)
		s.Equal(id.PersonID("seller"), log[0].SellerID)
	})

	s.Run("emits the four events in mutation order", func() {
		s.Equal([]string{
			"balance.debited",
			"balance.credited",
			"ownership.changed",
			"transaction.recorded",
		}, s.eventKinds())

		entries := s.sink.List(s.ctx)
		debited := entries[0].Body.(events.BalanceDebited)
		s.Equal(id.PersonID("buyer"), debited.PersonID)
		s.Equal("800", debited.Amount)

		changed := entries[2].Body.(events.OwnershipChanged)
		s.Equal(id.PersonID("buyer"), changed.NewOwnerID)
		s.Equal(id.PersonID("seller"), changed.OldOwnerID)
	})

	s.Run("conserves the total balance across persons", func() {
		s.Zero(s.store.TotalBalance(s.ctx).Cmp(big.NewInt(1200)))
	})
}

func (s *RegistrySuite) TestExecuteTransactionGuards() {
	s.register("buyer", 100)
	s.register("seller", 0)
	s.registerProperty(7, "seller", 500)
	s.sink.Clear()

	assertUntouched := func() {
		s.T().Helper()
		buyer, err := s.service.GetPerson(s.ctx, "buyer")
		s.Require().NoError(err)
		s.Zero(buyer.Balance.Cmp(big.NewInt(100)))

		seller, err := s.service.GetPerson(s.ctx, "seller")
		s.Require().NoError(err)
		s.Zero(seller.Balance.Sign())

		prop, err := s.service.GetProperty(s.ctx, 7)
		s.Require().NoError(err)
		s.Equal(id.PersonID("seller"), prop.OwnerID)

		s.Empty(s.service.Transactions(s.ctx))
		s.Empty(s.sink.List(s.ctx))
	}

	s.Run("unknown buyer fails before anything else", func() {
		_, err := s.service.ExecuteTransaction(s.ctx, 999, "also-unknown", "ghost", big.NewInt(1))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
		s.Contains(err.Error(), `buyer "ghost"`)
		assertUntouched()
	})

	s.Run("unknown seller fails with no state change", func() {
		_, err := s.service.ExecuteTransaction(s.ctx, 7, "ghost", "buyer", big.NewInt(1))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
		s.Contains(err.Error(), `seller "ghost"`)
		assertUntouched()
	})

	s.Run("unknown deed fails with no state change", func() {
		_, err := s.service.ExecuteTransaction(s.ctx, 999, "seller", "buyer", big.NewInt(1))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
		s.Contains(err.Error(), "deed 999")
		assertUntouched()
	})

	s.Run("insufficient funds fails with no state change", func() {
		_, err := s.service.ExecuteTransaction(s.ctx, 7, "seller", "buyer", big.NewInt(101))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInsufficientFunds))
		assertUntouched()
	})

	s.Run("negative amount is rejected", func() {
		_, err := s.service.ExecuteTransaction(s.ctx, 7, "seller", "buyer", big.NewInt(-5))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
		assertUntouched()
	})

	s.Run("engine stays usable after failed calls", func() {
		_, err := s.service.ExecuteTransaction(s.ctx, 7, "seller", "buyer", big.NewInt(100))
		s.Require().NoError(err)
		s.Require().Len(s.service.Transactions(s.ctx), 1)
	})
}

// TestSellerNeedNotOwnProperty pins the deliberately permissive behavior: any
// registered person can be named seller and be credited, and ownership moves
// to the buyer regardless of the recorded owner.
func (s *RegistrySuite) TestSellerNeedNotOwnProperty() {
	s.register("buyer", 500)
	s.register("bystander", 0)
	s.registerProperty(11, "actual-owner", 100)

	_, err := s.service.ExecuteTransaction(s.ctx, 11, "bystander", "buyer", big.NewInt(300))
	s.Require().NoError(err)

	bystander, err := s.service.GetPerson(s.ctx, "bystander")
	s.Require().NoError(err)
	s.Zero(bystander.Balance.Cmp(big.NewInt(300)))

	prop, err := s.service.GetProperty(s.ctx, 11)
	s.Require().NoError(err)
	s.Equal(id.PersonID("buyer"), prop.OwnerID)
}

func (s *RegistrySuite) TestZeroAmountTransfer() {
	s.register("buyer", 0)
	s.register("seller", 0)
	s.registerProperty(3, "seller", 50)

	_, err := s.service.ExecuteTransaction(s.ctx, 3, "seller", "buyer", big.NewInt(0))
	s.Require().NoError(err)

	prop, err := s.service.GetProperty(s.ctx, 3)
	s.Require().NoError(err)
	s.Equal(id.PersonID("buyer"), prop.OwnerID)
	s.Require().Len(s.service.Transactions(s.ctx), 1)
}

// TestConveyancingScenario walks the reference scenario end to end: a sale at
// the asking price, then a second attempt the buyer can no longer afford.
func (s *RegistrySuite) TestConveyancingScenario() {
	s.Require().NoError(s.service.RegisterPerson(s.ctx, "A", "Ada", big.NewInt(1_000_000)))
	s.Require().NoError(s.service.RegisterPerson(s.ctx, "S", "Sam", big.NewInt(500_000)))
	s.Require().NoError(s.service.RegisterProperty(s.ctx, 123456, "S", "9 Harbour View", big.NewInt(500_000)))

	_, err := s.service.ExecuteTransaction(s.ctx, 123456, "S", "A", big.NewInt(500_000))
	s.Require().NoError(err)

	a, err := s.service.GetPerson(s.ctx, "A")
	s.Require().NoError(err)
	s.Zero(a.Balance.Cmp(big.NewInt(500_000)))

	sam, err := s.service.GetPerson(s.ctx, "S")
	s.Require().NoError(err)
	s.Zero(sam.Balance.Cmp(big.NewInt(1_000_000)))

	prop, err := s.service.GetProperty(s.ctx, 123456)
	s.Require().NoError(err)
	s.Equal(id.PersonID("A"), prop.OwnerID)

	log := s.service.Transactions(s.ctx)
	s.Require().Len(log, 1)
	s.Equal(id.Deed(123456), log[0].Deed)
	s.Zero(log[0].Amount.Cmp(big.NewInt(500_000)))

	// A now holds 500,000 and cannot cover 600,000; nothing may change.
	_, err = s.service.ExecuteTransaction(s.ctx, 123456, "S", "A", big.NewInt(600_000))
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInsufficientFunds))

	a, err = s.service.GetPerson(s.ctx, "A")
	s.Require().NoError(err)
	s.Zero(a.Balance.Cmp(big.NewInt(500_000)))

	sam, err = s.service.GetPerson(s.ctx, "S")
	s.Require().NoError(err)
	s.Zero(sam.Balance.Cmp(big.NewInt(1_000_000)))

	prop, err = s.service.GetProperty(s.ctx, 123456)
	s.Require().NoError(err)
	s.Equal(id.PersonID("A"), prop.OwnerID)
	s.Require().Len(s.service.Transactions(s.ctx), 1)
}

// TestBalancesBeyondUint64 verifies balances hold values past 64-bit range.
func (s *RegistrySuite) TestBalancesBeyondUint64() {
	huge, ok := new(big.Int).SetString("340282366920938463463374607431768211456", 10) // 2^128
	s.Require().True(ok)

	s.Require().NoError(s.service.RegisterPerson(s.ctx, "whale", "Whale", huge))
	s.register("seller", 0)
	s.registerProperty(1, "seller", 0)

	_, err := s.service.ExecuteTransaction(s.ctx, 1, "seller", "whale", huge)
	s.Require().NoError(err)

	whale, err := s.service.GetPerson(s.ctx, "whale")
	s.Require().NoError(err)
	s.Zero(whale.Balance.Sign())

	seller, err := s.service.GetPerson(s.ctx, "seller")
	s.Require().NoError(err)
	s.Zero(seller.Balance.Cmp(huge))
}
