package report

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/nodeprov/internal/provisioning"
)

type memoryStore struct {
	objects map[string][]byte
	err     error
}

func (m *memoryStore) PutObject(_ context.Context, bucket, key string, data []byte) error {
	if m.err != nil {
		return m.err
	}
	if m.objects == nil {
		m.objects = make(map[string][]byte)
	}
	m.objects[bucket+"/"+key] = data
	return nil
}

var started = time.Date(2015, 3, 2, 14, 5, 9, 0, time.UTC)

func TestNewNodeResult(t *testing.T) {
	t.Parallel()

	ok := NewNodeResult("1", "192.0.2.1", time.Minute, nil)
	assert.Equal(t, StatusSucceeded, ok.Status)
	assert.Empty(t, ok.FailedPhase)

	err := &provisioning.PhaseError{NodeID: "2", Phase: "install-kernel", Err: errors.New("exit status 1")}
	failed := NewNodeResult("2", "", time.Second, err)
	assert.Equal(t, StatusFailed, failed.Status)
	assert.Equal(t, "install-kernel", failed.FailedPhase)
	assert.Equal(t, "node 2: install-kernel: exit status 1", failed.Error)
}

func TestReport_Failed(t *testing.T) {
	t.Parallel()
	r := New("dynamic", started)
	r.Results = []NodeResult{
		{NodeID: "1", Status: StatusSucceeded},
		{NodeID: "2", Status: StatusFailed},
		{NodeID: "3", Status: StatusFailed},
	}
	assert.Equal(t, 2, r.Failed())
}

func TestReport_Key(t *testing.T) {
	t.Parallel()
	r := &Report{RunID: "abc", Started: started}

	assert.Equal(t, "runs/20150302T140509Z-abc.json", r.Key("runs/"))
	assert.Equal(t, "runs/20150302T140509Z-abc.json", r.Key("runs"))
	assert.Equal(t, "20150302T140509Z-abc.json", r.Key(""))
}

func TestNew_UniqueRunIDs(t *testing.T) {
	t.Parallel()
	a, b := New("dynamic", started), New("dynamic", started)
	assert.NotEmpty(t, a.RunID)
	assert.NotEqual(t, a.RunID, b.RunID)
}

func TestPublisher_Publish(t *testing.T) {
	t.Parallel()
	store := &memoryStore{}
	r := New("static", started)
	r.Finished = started.Add(2 * time.Minute)
	r.Results = []NodeResult{NewNodeResult("1", "192.0.2.1", time.Minute, nil)}

	key, err := NewPublisher(store, "reports", "runs/").Publish(context.Background(), r)

	require.NoError(t, err)
	assert.Equal(t, r.Key("runs/"), key)
	data, ok := store.objects["reports/"+key]
	require.True(t, ok)

	var decoded Report
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, r.RunID, decoded.RunID)
	assert.Equal(t, "static", decoded.Backend)
	assert.Len(t, decoded.Results, 1)
}

func TestPublisher_Errors(t *testing.T) {
	t.Parallel()
	r := New("dynamic", started)

	_, err := NewPublisher(&memoryStore{}, "", "").Publish(context.Background(), r)
	require.Error(t, err)

	boom := errors.New("access denied")
	_, err = NewPublisher(&memoryStore{err: boom}, "reports", "").Publish(context.Background(), r)
	require.ErrorIs(t, err, boom)
}
