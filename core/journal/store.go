// Package journal persists finished behavior records to a JSON file so
// downstream log generators can pick them up between process restarts.
package journal

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/yanami/soulmaker/core/tracker"
)

// JSONStore implements tracker.Journal using JSON file storage.
type JSONStore struct {
	filePath string
	mu       sync.RWMutex
	data     *storeData
}

type storeData struct {
	Records []*tracker.BehaviorRecord `json:"records"`
}

// NewJSONStore creates the store, loading any existing log. A corrupt
// or absent file starts the journal empty rather than failing the boot.
func NewJSONStore(filePath string) (*JSONStore, error) {
	store := &JSONStore{
		filePath: filePath,
		data: &storeData{
			Records: make([]*tracker.BehaviorRecord, 0),
		},
	}

	if err := store.load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load journal: %w", err)
		}
		if err := store.save(); err != nil {
			return nil, fmt.Errorf("failed to create journal file: %w", err)
		}
	}

	return store, nil
}

func (s *JSONStore) load() error {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return err
	}

	var loaded storeData
	if err := json.Unmarshal(data, &loaded); err != nil {
		// keep going with an empty journal, same as the log writer the
		// tracker replaced
		return nil
	}
	if loaded.Records != nil {
		s.data = &loaded
	}
	return nil
}

func (s *JSONStore) save() error {
	if err := os.MkdirAll(filepath.Dir(s.filePath), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return err
	}

	tmpFile := s.filePath + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmpFile, s.filePath)
}

// Append adds a finished record.
func (s *JSONStore) Append(record *tracker.BehaviorRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data.Records = append(s.data.Records, record)
	return s.save()
}

// All returns every stored record, oldest first.
func (s *JSONStore) All() []*tracker.BehaviorRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]*tracker.BehaviorRecord, len(s.data.Records))
	copy(records, s.data.Records)
	return records
}

// TodayHistory collects the behaviors committed on the given date
// (YYYY-MM-DD prefix match on record creation) as history entries, so
// the autopilot can seed the next run with what already happened.
func (s *JSONStore) TodayHistory(date string) []tracker.HistoryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var history []tracker.HistoryEntry
	for _, record := range s.data.Records {
		if !strings.HasPrefix(record.CreatedAt.Format("2006-01-02"), date) {
			continue
		}
		if b := record.FinalBehavior(); b != nil {
			history = append(history, tracker.HistoryEntry{
				Start:    b.Start,
				End:      b.End,
				Activity: b.Activity,
			})
		}
	}
	return history
}

// LastMemory returns the memory of the most recent record that carried
// a lookup, so context survives restarts.
func (s *JSONStore) LastMemory() tracker.Memory {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := len(s.data.Records) - 1; i >= 0; i-- {
		for j := len(s.data.Records[i].Steps) - 1; j >= 0; j-- {
			step := s.data.Records[i].Steps[j]
			if step.Query != "" {
				return tracker.Memory{
					LastQuery:      step.Query,
					LastAPIResults: step.QueryResult,
				}
			}
		}
	}
	return tracker.Memory{}
}
