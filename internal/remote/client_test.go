package remote

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"project-tracker/internal/config"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := NewClient(ClientConfig{BaseURL: srv.URL, Timeout: 200 * time.Millisecond})
	require.NoError(t, err)
	return c
}

func TestClientRead(t *testing.T) {
	tests := map[string]struct {
		status  int
		body    string
		delay   time.Duration
		expRows int
		expKind ErrorKind
		expRej  bool
	}{
		"An envelope should be unwrapped.": {
			status:  http.StatusOK,
			body:    `{"success": true, "data": [{"id": 1}, {"id": 2}]}`,
			expRows: 2,
		},
		"A bare array should be accepted.": {
			status:  http.StatusOK,
			body:    `[{"ID": 1, "Task": "x"}]`,
			expRows: 1,
		},
		"A non 2xx status should be a status error.": {
			status:  http.StatusBadGateway,
			body:    `oops`,
			expKind: KindStatus,
		},
		"A slow server should be a timeout.": {
			status:  http.StatusOK,
			body:    `[]`,
			delay:   time.Second,
			expKind: KindTimeout,
		},
		"A failure envelope should be rejected.": {
			status: http.StatusOK,
			body:   `{"success": false, "error": "sheet locked"}`,
			expRej: true,
		},
		"An unexpected shape should be rejected.": {
			status: http.StatusOK,
			body:   `{"data": "nope"}`,
			expRej: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "read", r.URL.Query().Get("action"))
				if test.delay > 0 {
					select {
					case <-time.After(test.delay):
					case <-r.Context().Done():
						return
					}
				}
				w.WriteHeader(test.status)
				_, _ = io.WriteString(w, test.body)
			})

			got, err := c.Read(context.Background())

			switch {
			case test.expKind != "":
				var ne *NetworkError
				require.ErrorAs(t, err, &ne)
				assert.Equal(t, test.expKind, ne.Kind)
				assert.True(t, IsNetworkError(err))
			case test.expRej:
				assert.ErrorIs(t, err, ErrRejected)
				assert.False(t, IsNetworkError(err))
			default:
				require.NoError(t, err)
				assert.Len(t, got, test.expRows)
			}
		})
	}
}

func TestClientConnectionError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := NewClient(ClientConfig{BaseURL: url})
	require.NoError(t, err)

	err = c.Ping(context.Background())
	var ne *NetworkError
	require.ErrorAs(t, err, &ne)
	assert.Equal(t, KindConnection, ne.Kind)
}

func TestClientMutate(t *testing.T) {
	var got map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "text/plain;charset=utf-8", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = io.WriteString(w, `{"success": true}`)
	})

	err := c.Mutate(context.Background(), Mutation{Action: ActionDelete, Data: map[string]any{"id": 3}, OpID: "01J0"})
	require.NoError(t, err)
	assert.Equal(t, "delete", got["action"])
	assert.Equal(t, "01J0", got["opId"])
	assert.Equal(t, map[string]any{"id": float64(3)}, got["data"])
}

func TestClientMutateRejected(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"success": false, "message": "bad id"}`)
	})
	err := c.Mutate(context.Background(), Mutation{Action: ActionUpdate})
	assert.ErrorIs(t, err, ErrRejected)
}

func TestNewClientRequiresURL(t *testing.T) {
	_, err := NewClient(ClientConfig{})
	assert.Error(t, err)
}

func TestMasterDataService(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		switch r.URL.Query().Get("action") {
		case "getTeams":
			_, _ = io.WriteString(w, `{"success": true, "data": [
				{"id": 1, "teamName": "QA", "isActive": true},
				{"id": 2, "teamName": "Old", "isActive": false}]}`)
		case "getProjects":
			_, _ = io.WriteString(w, `{"success": true, "data": [{"id": 1, "projectName": "CKSX"}]}`)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	})

	fb := config.Vocabulary{Teams: []string{"T"}, Projects: []string{"P"}, Owners: []string{"Unassigned"}, Categories: []string{"C"}}
	svc, err := NewMasterDataService(MasterDataServiceConfig{Client: c, Fallback: fb, TTL: time.Minute})
	require.NoError(t, err)

	md := svc.Get(context.Background(), false)
	assert.Equal(t, []string{"QA"}, md.Teams)
	assert.Equal(t, []string{"CKSX"}, md.Projects)
	assert.Equal(t, []string{"Unassigned"}, md.Owners)
	assert.Equal(t, []string{"C"}, md.Categories)
	assert.Equal(t, []string{"owners"}, md.Fallback)

	// Teams and projects come from the cache now, owners failed and are retried.
	before := atomic.LoadInt32(&calls)
	svc.Get(context.Background(), false)
	assert.Equal(t, before+1, atomic.LoadInt32(&calls))

	off := svc.Get(context.Background(), true)
	assert.Equal(t, fb.Teams, off.Teams)
	assert.Len(t, off.Fallback, 3)
}
