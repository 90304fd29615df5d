package mocks

import (
	"fmt"
	"sync"

	"vidstore/internal/core/domain"
)

type MockLedger struct {
	LookupIDByNameFunc func(name string) (domain.ContentID, error)
	LookupNameByIDFunc func(id domain.ContentID) (string, error)
	AppendFunc         func(id domain.ContentID, name string) error
	CompactFunc        func(live map[domain.ContentID]struct{}) error
	EntriesFunc        func() ([]domain.MappingEntry, error)
	AssignIDFunc       func(name string) (domain.ContentID, error)

	mu      sync.Mutex
	entries []domain.MappingEntry
}

// NewMockLedger returns a ledger backed by an in-memory slice. Override
// any func field to inject failures.
func NewMockLedger() *MockLedger {
	m := &MockLedger{}
	m.LookupIDByNameFunc = func(name string) (domain.ContentID, error) {
		m.mu.Lock()
		defer m.mu.Unlock()
		for _, e := range m.entries {
			if e.OriginalName == name {
				return e.ContentID, nil
			}
		}
		return "", fmt.Errorf("name %q: %w", name, domain.ErrNotFound)
	}
	m.LookupNameByIDFunc = func(id domain.ContentID) (string, error) {
		m.mu.Lock()
		defer m.mu.Unlock()
		for _, e := range m.entries {
			if e.ContentID == id {
				return e.OriginalName, nil
			}
		}
		return "", fmt.Errorf("content id %q: %w", id, domain.ErrNotFound)
	}
	m.AppendFunc = func(id domain.ContentID, name string) error {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.entries = append(m.entries, domain.MappingEntry{ContentID: id, OriginalName: name})
		return nil
	}
	m.CompactFunc = func(live map[domain.ContentID]struct{}) error {
		m.mu.Lock()
		defer m.mu.Unlock()
		kept := m.entries[:0]
		for _, e := range m.entries {
			if _, ok := live[e.ContentID]; ok {
				kept = append(kept, e)
			}
		}
		m.entries = kept
		return nil
	}
	m.EntriesFunc = func() ([]domain.MappingEntry, error) {
		m.mu.Lock()
		defer m.mu.Unlock()
		return append([]domain.MappingEntry(nil), m.entries...), nil
	}
	m.AssignIDFunc = func(name string) (domain.ContentID, error) {
		return domain.ContentID(fmt.Sprintf("%016x", len(name))), nil
	}
	return m
}

func (m *MockLedger) LookupIDByName(name string) (domain.ContentID, error) {
	return m.LookupIDByNameFunc(name)
}

func (m *MockLedger) LookupNameByID(id domain.ContentID) (string, error) {
	return m.LookupNameByIDFunc(id)
}

func (m *MockLedger) Append(id domain.ContentID, name string) error {
	return m.AppendFunc(id, name)
}

func (m *MockLedger) Compact(live map[domain.ContentID]struct{}) error {
	return m.CompactFunc(live)
}

func (m *MockLedger) Entries() ([]domain.MappingEntry, error) {
	return m.EntriesFunc()
}

func (m *MockLedger) AssignID(name string) (domain.ContentID, error) {
	return m.AssignIDFunc(name)
}
