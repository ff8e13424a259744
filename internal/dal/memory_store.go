package dal

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// MemoryStore is an in-process Store with the same CAS semantics as the
// Couchbase implementation. It backs the test suite and local development
// (STORE_BACKEND=memory); it is not durable.
type MemoryStore struct {
	mu      sync.Mutex
	docs    map[string]map[string]memDoc
	lastCas Cas
}

type memDoc struct {
	data []byte
	cas  Cas
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]map[string]memDoc)}
}

func (s *MemoryStore) collection(name string) map[string]memDoc {
	col, ok := s.docs[name]
	if !ok {
		col = make(map[string]memDoc)
		s.docs[name] = col
	}
	return col
}

func (s *MemoryStore) nextCas() Cas {
	s.lastCas++
	return s.lastCas
}

// Get retrieves a document and its CAS revision.
func (s *MemoryStore) Get(ctx context.Context, collection, id string, out interface{}) (Cas, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.collection(collection)[id]
	if !ok {
		return 0, ErrNotFound
	}
	if err := json.Unmarshal(doc.data, out); err != nil {
		return 0, fmt.Errorf("decode document %s/%s: %w", collection, id, err)
	}
	return doc.cas, nil
}

// Insert creates a document, failing with ErrExists if the id is taken.
func (s *MemoryStore) Insert(ctx context.Context, collection, id string, doc interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	col := s.collection(collection)
	if _, ok := col[id]; ok {
		return ErrExists
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document %s/%s: %w", collection, id, err)
	}
	col[id] = memDoc{data: data, cas: s.nextCas()}
	return nil
}

// Replace overwrites a document only if the CAS revision still matches.
func (s *MemoryStore) Replace(ctx context.Context, collection, id string, doc interface{}, cas Cas) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	col := s.collection(collection)
	current, ok := col[id]
	if !ok {
		return ErrNotFound
	}
	if current.cas != cas {
		return ErrCasMismatch
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document %s/%s: %w", collection, id, err)
	}
	col[id] = memDoc{data: data, cas: s.nextCas()}
	return nil
}

// Upsert unconditionally stores a document.
func (s *MemoryStore) Upsert(ctx context.Context, collection, id string, doc interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document %s/%s: %w", collection, id, err)
	}
	s.collection(collection)[id] = memDoc{data: data, cas: s.nextCas()}
	return nil
}

// ListVisits queries the visits collection with the given filter.
func (s *MemoryStore) ListVisits(ctx context.Context, filter VisitFilter) ([]Visit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var visits []Visit
	for _, doc := range s.collection(CollectionVisits) {
		var v Visit
		if err := json.Unmarshal(doc.data, &v); err != nil {
			return nil, fmt.Errorf("decode visit: %w", err)
		}
		if filter.PatientID != "" && v.PatientID != filter.PatientID {
			continue
		}
		if filter.Status != "" && v.Status != filter.Status {
			continue
		}
		if filter.Prescribed != nil && (v.Prescription != nil) != *filter.Prescribed {
			continue
		}
		if filter.Billed != nil && (v.Billing != nil) != *filter.Billed {
			continue
		}
		visits = append(visits, v)
	}

	sort.Slice(visits, func(i, j int) bool {
		if filter.Ascending {
			return visits[i].VisitDate.Before(visits[j].VisitDate)
		}
		return visits[j].VisitDate.Before(visits[i].VisitDate)
	})
	if filter.Limit > 0 && len(visits) > filter.Limit {
		visits = visits[:filter.Limit]
	}
	return visits, nil
}

// ListPatients lists patients newest-first, optionally restricted to a
// case-insensitive name prefix.
func (s *MemoryStore) ListPatients(ctx context.Context, namePrefix string, limit int) ([]Patient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prefix := strings.ToLower(namePrefix)
	var patients []Patient
	for _, doc := range s.collection(CollectionPatients) {
		var p Patient
		if err := json.Unmarshal(doc.data, &p); err != nil {
			return nil, fmt.Errorf("decode patient: %w", err)
		}
		if prefix != "" && !strings.HasPrefix(strings.ToLower(p.Name), prefix) {
			continue
		}
		patients = append(patients, p)
	}

	sort.Slice(patients, func(i, j int) bool {
		return patients[j].CreatedAt.Before(patients[i].CreatedAt)
	})
	if limit > 0 && len(patients) > limit {
		patients = patients[:limit]
	}
	return patients, nil
}
