package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/imamik/nodeprov/internal/provisioning"
)

// Node outcomes.
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// NodeResult is the outcome of provisioning one node.
type NodeResult struct {
	NodeID      string        `json:"nodeId"`
	Address     string        `json:"address,omitempty"`
	Status      string        `json:"status"`
	FailedPhase string        `json:"failedPhase,omitempty"`
	Error       string        `json:"error,omitempty"`
	Duration    time.Duration `json:"durationNanos"`
}

// NewNodeResult builds a result from what Provision returned.
func NewNodeResult(nodeID, address string, d time.Duration, err error) NodeResult {
	r := NodeResult{NodeID: nodeID, Address: address, Status: StatusSucceeded, Duration: d}
	if err != nil {
		r.Status = StatusFailed
		r.FailedPhase = provisioning.FailedPhase(err)
		r.Error = err.Error()
	}
	return r
}

// Report covers one invocation over a set of nodes.
type Report struct {
	RunID    string       `json:"runId"`
	Backend  string       `json:"backend"`
	Started  time.Time    `json:"started"`
	Finished time.Time    `json:"finished"`
	Results  []NodeResult `json:"results"`
}

// New starts a report with a fresh run ID.
func New(backend string, started time.Time) *Report {
	return &Report{
		RunID:   uuid.NewString(),
		Backend: backend,
		Started: started.UTC(),
	}
}

// Failed returns the number of nodes that did not finish provisioning.
func (r *Report) Failed() int {
	n := 0
	for _, res := range r.Results {
		if res.Status == StatusFailed {
			n++
		}
	}
	return n
}

// Key returns the object key for the report under prefix.
// Keys sort by start time.
func (r *Report) Key(prefix string) string {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return fmt.Sprintf("%s%s-%s.json", prefix, r.Started.UTC().Format("20060102T150405Z"), r.RunID)
}

// Marshal encodes the report as indented JSON.
func (r *Report) Marshal() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// Store writes objects to a bucket.
type Store interface {
	PutObject(ctx context.Context, bucket, key string, data []byte) error
}

// Publisher uploads reports to a bucket.
type Publisher struct {
	store  Store
	bucket string
	prefix string
}

// NewPublisher creates a Publisher writing under prefix in bucket.
func NewPublisher(store Store, bucket, prefix string) *Publisher {
	return &Publisher{store: store, bucket: bucket, prefix: prefix}
}

// Publish uploads r and returns its object key.
func (p *Publisher) Publish(ctx context.Context, r *Report) (string, error) {
	if p.bucket == "" {
		return "", errors.New("report bucket is not configured")
	}
	data, err := r.Marshal()
	if err != nil {
		return "", fmt.Errorf("failed to encode report: %w", err)
	}
	key := r.Key(p.prefix)
	if err := p.store.PutObject(ctx, p.bucket, key, data); err != nil {
		return "", fmt.Errorf("failed to publish report: %w", err)
	}
	return key, nil
}
