package dal

import (
	"context"
	"errors"
)

// Collection names in the default scope of the configured bucket.
const (
	CollectionPatients = "patients"
	CollectionVisits   = "visits"
	CollectionCounters = "counters"
	CollectionUsers    = "users"
)

// TokenCounterKey is the id of the single counter document.
const TokenCounterKey = "visit-token"

// Cas is an opaque per-document revision. A Replace with a stale Cas fails
// with ErrCasMismatch, which is how every lifecycle guard stays a
// single-document atomic transaction.
type Cas uint64

var (
	// ErrNotFound means no document with that id exists in the collection.
	ErrNotFound = errors.New("document not found")
	// ErrExists means an Insert hit an id that is already taken.
	ErrExists = errors.New("document already exists")
	// ErrCasMismatch means another writer committed between Get and Replace.
	ErrCasMismatch = errors.New("document modified concurrently")
)

// VisitFilter narrows a visit listing. Prescribed/Billed filter on the
// presence of the embedded sub-record when non-nil.
type VisitFilter struct {
	PatientID  string
	Status     string
	Prescribed *bool
	Billed     *bool
	Ascending  bool // sort by visitDate ascending instead of descending
	Limit      int
}

// Store is the document-store boundary. The Couchbase implementation backs
// production; the in-memory implementation, which keeps the same CAS
// semantics, backs tests and local development.
type Store interface {
	Get(ctx context.Context, collection, id string, out interface{}) (Cas, error)
	Insert(ctx context.Context, collection, id string, doc interface{}) error
	Replace(ctx context.Context, collection, id string, doc interface{}, cas Cas) error
	Upsert(ctx context.Context, collection, id string, doc interface{}) error
	ListVisits(ctx context.Context, filter VisitFilter) ([]Visit, error)
	ListPatients(ctx context.Context, namePrefix string, limit int) ([]Patient, error)
}
