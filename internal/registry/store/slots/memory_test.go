package slots_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"folio/internal/registry/store"
	"folio/internal/registry/store/slots"
	"folio/pkg/platform/circuit"
)

type MemorySuite struct {
	substrateContract
	mem *slots.Memory
}

func TestMemorySuite(t *testing.T) {
	suite.Run(t, new(MemorySuite))
}

func (s *MemorySuite) SetupTest() {
	s.mem = slots.NewMemory()
	s.sub = s.mem
}

func (s *MemorySuite) TestReturnedBytesAreCopies() {
	ctx := context.Background()
	a := addr("copy")
	data := []byte("original")
	s.Require().NoError(s.mem.CreateIfAbsent(ctx, a, data))
	data[0] = 'X'

	got, err := s.mem.Get(ctx, a)
	s.Require().NoError(err)
	s.Equal([]byte("original"), got)

	got[0] = 'Y'
	again, err := s.mem.Get(ctx, a)
	s.Require().NoError(err)
	s.Equal([]byte("original"), again)
	s.Equal(1, s.mem.Len())
}

// GuardedSuite checks the circuit breaker wrapper keeps the slot contract.
type GuardedSuite struct {
	substrateContract
}

func TestGuardedSuite(t *testing.T) {
	suite.Run(t, new(GuardedSuite))
}

func (s *GuardedSuite) SetupTest() {
	s.sub = store.NewGuarded(slots.NewMemory(), circuit.New("memory", circuit.WithFailureThreshold(1)))
}
