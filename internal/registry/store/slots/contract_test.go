package slots_test

import (
	"context"
	"crypto/sha256"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/stretchr/testify/suite"

	"folio/internal/registry/store"
	"folio/pkg/domain"
	"folio/pkg/platform/sentinel"
)

func addr(label string) domain.Address {
	return domain.Address(sha256.Sum256([]byte(label)))
}

var errRejected = errors.New("rejected by guard")

// substrateContract holds the behaviour every Substrate must share.
// Backend suites embed it and assign sub in SetupTest.
type substrateContract struct {
	suite.Suite
	sub store.Substrate
}

func (s *substrateContract) TestCreateIfAbsentIsCreateOnce() {
	ctx := context.Background()
	a := addr("create-once")

	s.Require().NoError(s.sub.CreateIfAbsent(ctx, a, []byte("first")))
	err := s.sub.CreateIfAbsent(ctx, a, []byte("second"))
	s.ErrorIs(err, sentinel.ErrAlreadyUsed)

	got, err := s.sub.Get(ctx, a)
	s.Require().NoError(err)
	s.Equal([]byte("first"), got)
}

func (s *substrateContract) TestGetMissing() {
	_, err := s.sub.Get(context.Background(), addr("missing"))
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *substrateContract) TestUpsert() {
	ctx := context.Background()
	a := addr("upsert")
	accept := func([]byte) error { return nil }

	created, err := s.sub.Upsert(ctx, a, []byte("v1"), accept)
	s.Require().NoError(err)
	s.True(created)

	var seen []byte
	created, err = s.sub.Upsert(ctx, a, []byte("v2"), func(prev []byte) error {
		seen = prev
		return nil
	})
	s.Require().NoError(err)
	s.False(created)
	s.Equal([]byte("v1"), seen)

	_, err = s.sub.Upsert(ctx, a, []byte("v3"), func([]byte) error { return errRejected })
	s.ErrorIs(err, errRejected)

	got, err := s.sub.Get(ctx, a)
	s.Require().NoError(err)
	s.Equal([]byte("v2"), got, "rejected overwrite must leave the slot untouched")
}

func (s *substrateContract) TestGetManyOmitsEmptySlots() {
	ctx := context.Background()
	s.Require().NoError(s.sub.CreateIfAbsent(ctx, addr("a"), []byte("A")))
	s.Require().NoError(s.sub.CreateIfAbsent(ctx, addr("b"), []byte("B")))

	got, err := s.sub.GetMany(ctx, []domain.Address{addr("a"), addr("nope"), addr("b")})
	s.Require().NoError(err)
	s.Len(got, 2)
	s.Equal([]byte("A"), got[addr("a")])
	s.Equal([]byte("B"), got[addr("b")])

	empty, err := s.sub.GetMany(ctx, nil)
	s.Require().NoError(err)
	s.Empty(empty)
}

// TestConcurrentCreateSingleWinner verifies that racing creations of one
// slot produce exactly one winner.
func (s *substrateContract) TestConcurrentCreateSingleWinner() {
	ctx := context.Background()
	a := addr("race")
	const goroutines = 32

	var wg sync.WaitGroup
	var wins, used atomic.Int32
	for i := range goroutines {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := s.sub.CreateIfAbsent(ctx, a, []byte{byte(i)})
			switch {
			case err == nil:
				wins.Add(1)
			case errors.Is(err, sentinel.ErrAlreadyUsed):
				used.Add(1)
			}
		}(i)
	}
	wg.Wait()

	s.Equal(int32(1), wins.Load())
	s.Equal(int32(goroutines-1), used.Load())
}
