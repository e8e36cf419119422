package realtime

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	mu     sync.Mutex
	msgs   [][]byte
	broken bool
	closed bool
}

func (f *fakeClient) Send(m []byte) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.broken {
		return false
	}
	f.msgs = append(f.msgs, m)
	return true
}

func (f *fakeClient) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

func TestHubPublish(t *testing.T) {
	h := NewHub(nil)
	ok := &fakeClient{}
	broken := &fakeClient{broken: true}
	h.Register(ok)
	h.Register(broken)

	h.Publish(Event{Type: EventTaskSaved, Data: map[string]any{"id": 3}})

	require.Len(t, ok.msgs, 1)
	var ev map[string]any
	require.NoError(t, json.Unmarshal(ok.msgs[0], &ev))
	assert.Equal(t, "task_saved", ev["type"])
	assert.NotEmpty(t, ev["at"])

	assert.True(t, broken.closed)
	assert.Equal(t, 1, h.Len())

	h.Unregister(ok)
	assert.Equal(t, 0, h.Len())
}
