package inspector

import "sync"

const (
	DefaultMaxRecords  = 1000
	DefaultKeepRecords = 500
)

// LogStore 依插入順序保存 Record；長度超過 max 時一次截斷到只剩最新 keep 筆。
type LogStore struct {
	mu      sync.RWMutex
	records []*Record
	max     int
	keep    int
}

func NewLogStore(max, keep int) *LogStore {
	if max <= 0 {
		max = DefaultMaxRecords
	}
	if keep <= 0 || keep > max {
		keep = min(DefaultKeepRecords, max)
	}
	return &LogStore{
		records: make([]*Record, 0, max+1),
		max:     max,
		keep:    keep,
	}
}

// Append 回傳 append 後的長度與被截斷丟棄的筆數
func (s *LogStore) Append(rec *Record) (size int, evicted int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, rec)
	if len(s.records) > s.max {
		evicted = len(s.records) - s.keep
		// 複製到新的 backing array，讓被丟棄的 record 可以被 GC
		kept := make([]*Record, s.keep, s.max+1)
		copy(kept, s.records[evicted:])
		s.records = kept
	}
	return len(s.records), evicted
}

// Snapshot 回傳當下的副本；元素與 store 共用同一個 *Record
func (s *LogStore) Snapshot() []*Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Record, len(s.records))
	copy(out, s.records)
	return out
}

func (s *LogStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func (s *LogStore) Capacity() (max, keep int) {
	return s.max, s.keep
}
