package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	audit "folio/pkg/platform/audit"
)

type fakeProducer struct {
	records []*kgo.Record
	err     error
}

func (f *fakeProducer) ProduceSync(_ context.Context, rs ...*kgo.Record) kgo.ProduceResults {
	var out kgo.ProduceResults
	for _, r := range rs {
		f.records = append(f.records, r)
		out = append(out, kgo.ProduceResult{Record: r, Err: f.err})
	}
	return out
}

func TestAppendProducesKeyedJSON(t *testing.T) {
	p := &fakeProducer{}
	store := New(p, "folio.audit")

	event := audit.Event{
		ID:       "6f1f3c2e-8d0c-4bb1-9f55-2f0d3b7b1a10",
		Category: audit.CategoryCompliance,
		Action:   string(audit.EventCredentialIssued),
		Signer:   "signer",
		Subject:  "subject",
	}
	require.NoError(t, store.Append(context.Background(), event))

	require.Len(t, p.records, 1)
	r := p.records[0]
	assert.Equal(t, "folio.audit", r.Topic)
	assert.Equal(t, []byte("signer"), r.Key)

	var got audit.Event
	require.NoError(t, json.Unmarshal(r.Value, &got))
	assert.Equal(t, event.ID, got.ID)
	assert.Equal(t, event.Action, got.Action)
}

func TestAppendSurfacesProduceError(t *testing.T) {
	store := New(&fakeProducer{err: errors.New("broker down")}, "folio.audit")
	err := store.Append(context.Background(), audit.Event{Action: "x"})
	assert.ErrorContains(t, err, "broker down")
}
