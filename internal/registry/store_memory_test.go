package registry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"healthchain/pkg/domain"
	"healthchain/pkg/platform/sentinel"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemoryStore
	ctx   context.Context
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.ctx = context.Background()
}

func (s *InMemoryStoreSuite) seed(addr domain.Identity) *Provider {
	p := &Provider{
		Address:     addr,
		Name:        "Dr. " + addr.String(),
		Requested:   true,
		RequestedAt: time.Now().UTC(),
	}
	s.Require().NoError(s.store.Create(s.ctx, p))
	return p
}

func (s *InMemoryStoreSuite) TestCreateRejectsDuplicateAddress() {
	s.seed("p1")
	err := s.store.Create(s.ctx, &Provider{Address: "p1", Name: "other"})
	s.Require().ErrorIs(err, sentinel.ErrAlreadyUsed)
}

func (s *InMemoryStoreSuite) TestFindByAddress() {
	s.seed("p1")

	row, err := s.store.FindByAddress(s.ctx, "p1")
	s.Require().NoError(err)
	s.Equal("Dr. p1", row.Name)

	_, err = s.store.FindByAddress(s.ctx, "missing")
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *InMemoryStoreSuite) TestFindReturnsCopy() {
	s.seed("p1")
	row, err := s.store.FindByAddress(s.ctx, "p1")
	s.Require().NoError(err)
	row.Approved = true

	again, err := s.store.FindByAddress(s.ctx, "p1")
	s.Require().NoError(err)
	s.False(again.Approved)
}

func (s *InMemoryStoreSuite) TestExecuteValidatesBeforeMutating() {
	s.seed("p1")

	_, err := s.store.Execute(s.ctx, "p1",
		func(p *Provider) error { return sentinel.ErrInvalidState },
		func(p *Provider) { p.Approved = true },
	)
	s.Require().ErrorIs(err, sentinel.ErrInvalidState)

	row, err := s.store.FindByAddress(s.ctx, "p1")
	s.Require().NoError(err)
	s.False(row.Approved)
}

func (s *InMemoryStoreSuite) TestListPendingNewestFirstExcludesApproved() {
	s.seed("p1")
	s.seed("p2")
	s.seed("p3")

	now := time.Now().UTC()
	_, err := s.store.Execute(s.ctx, "p2",
		func(p *Provider) error { return nil },
		func(p *Provider) { p.ApplyApproval(now) },
	)
	s.Require().NoError(err)

	pending, err := s.store.ListPending(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(pending, 2)
	s.Equal(domain.Identity("p3"), pending[0].Address)
	s.Equal(domain.Identity("p1"), pending[1].Address)
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}
