package state

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

const defaultMemoryKeyPrefix = "concierge:memory:"

// UpstashMemoryStore keeps one long-term summary per customer in the same
// Upstash Redis instance as the session store. Unlike sessions, summaries
// carry no TTL: they outlive the conversation.
type UpstashMemoryStore struct {
	store     *UpstashRedisStore
	keyPrefix string
}

func NewUpstashMemoryStore(store *UpstashRedisStore) (*UpstashMemoryStore, error) {
	if store == nil {
		return nil, errors.New("upstash redis store is required")
	}
	return &UpstashMemoryStore{
		store:     store,
		keyPrefix: defaultMemoryKeyPrefix,
	}, nil
}

func (m *UpstashMemoryStore) ReadSummary(ctx context.Context, customerID string) (string, error) {
	key, err := m.memoryKey(customerID)
	if err != nil {
		return "", err
	}

	resp, err := m.store.exec(ctx, []any{"GET", key})
	if err != nil {
		return "", err
	}

	result := bytes.TrimSpace(resp.Result)
	if len(result) == 0 || bytes.Equal(result, []byte("null")) {
		return "", nil
	}

	var summary string
	if err := json.Unmarshal(result, &summary); err != nil {
		return "", fmt.Errorf("decode memory summary: %w", err)
	}
	return summary, nil
}

func (m *UpstashMemoryStore) WriteSummary(ctx context.Context, customerID string, summary string) error {
	key, err := m.memoryKey(customerID)
	if err != nil {
		return err
	}

	_, err = m.store.exec(ctx, []any{"SET", key, summary})
	return err
}

func (m *UpstashMemoryStore) memoryKey(customerID string) (string, error) {
	if strings.TrimSpace(customerID) == "" {
		return "", errors.New("customer id is empty")
	}
	return m.keyPrefix + customerID, nil
}
