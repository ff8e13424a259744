package dal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/couchbase/gocb/v2"
	"github.com/rs/zerolog/log"
)

// opTimeout bounds every store call; the upstream design carried none and
// relied on the driver defaults.
const opTimeout = 10 * time.Second

// CouchbaseStore implements Store against the configured bucket. Connections
// are borrowed from the pool per operation.
type CouchbaseStore struct{}

// NewCouchbaseStore creates a new Couchbase-backed store.
func NewCouchbaseStore() *CouchbaseStore {
	return &CouchbaseStore{}
}

// mapKVError translates driver errors into the store error taxonomy.
func mapKVError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gocb.ErrDocumentNotFound):
		return ErrNotFound
	case errors.Is(err, gocb.ErrDocumentExists):
		return ErrExists
	case errors.Is(err, gocb.ErrCasMismatch):
		return ErrCasMismatch
	}
	return err
}

// Get retrieves a document and its CAS revision.
func (s *CouchbaseStore) Get(ctx context.Context, collection, id string, out interface{}) (Cas, error) {
	conn, err := GetConnectionWithRetry()
	if err != nil {
		return 0, fmt.Errorf("get connection: %w", err)
	}
	defer ReturnConnection(conn)

	col := conn.GetBucket().Collection(collection)
	result, err := col.Get(id, &gocb.GetOptions{Context: ctx, Timeout: opTimeout})
	if err != nil {
		return 0, mapKVError(err)
	}
	if err := result.Content(out); err != nil {
		return 0, fmt.Errorf("decode document %s/%s: %w", collection, id, err)
	}
	return Cas(result.Cas()), nil
}

// Insert creates a document, failing with ErrExists if the id is taken.
func (s *CouchbaseStore) Insert(ctx context.Context, collection, id string, doc interface{}) error {
	conn, err := GetConnectionWithRetry()
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer ReturnConnection(conn)

	col := conn.GetBucket().Collection(collection)
	_, err = col.Insert(id, doc, &gocb.InsertOptions{Context: ctx, Timeout: opTimeout})
	return mapKVError(err)
}

// Replace overwrites a document only if the CAS revision still matches.
func (s *CouchbaseStore) Replace(ctx context.Context, collection, id string, doc interface{}, cas Cas) error {
	conn, err := GetConnectionWithRetry()
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer ReturnConnection(conn)

	col := conn.GetBucket().Collection(collection)
	_, err = col.Replace(id, doc, &gocb.ReplaceOptions{
		Cas:     gocb.Cas(cas),
		Context: ctx,
		Timeout: opTimeout,
	})
	return mapKVError(err)
}

// Upsert unconditionally stores a document.
func (s *CouchbaseStore) Upsert(ctx context.Context, collection, id string, doc interface{}) error {
	conn, err := GetConnectionWithRetry()
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer ReturnConnection(conn)

	col := conn.GetBucket().Collection(collection)
	_, err = col.Upsert(id, doc, &gocb.UpsertOptions{Context: ctx, Timeout: opTimeout})
	return mapKVError(err)
}

// ListVisits queries the visits collection with the given filter.
func (s *CouchbaseStore) ListVisits(ctx context.Context, filter VisitFilter) ([]Visit, error) {
	conn, err := GetConnectionWithRetry()
	if err != nil {
		return nil, fmt.Errorf("get connection: %w", err)
	}
	defer ReturnConnection(conn)

	var conds []string
	params := map[string]interface{}{}
	if filter.PatientID != "" {
		conds = append(conds, "d.patientId = $patientId")
		params["patientId"] = filter.PatientID
	}
	if filter.Status != "" {
		conds = append(conds, "d.status = $status")
		params["status"] = filter.Status
	}
	if filter.Prescribed != nil {
		if *filter.Prescribed {
			conds = append(conds, "d.prescription IS NOT NULL")
		} else {
			conds = append(conds, "d.prescription IS NULL")
		}
	}
	if filter.Billed != nil {
		if *filter.Billed {
			conds = append(conds, "d.billing IS NOT NULL")
		} else {
			conds = append(conds, "d.billing IS NULL")
		}
	}

	order := "DESC"
	if filter.Ascending {
		order = "ASC"
	}
	query := fmt.Sprintf("SELECT d.* FROM `%s`.`_default`.`%s` AS d",
		conn.GetBucketName(), CollectionVisits)
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY d.visitDate " + order
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := conn.GetCluster().Query(query, &gocb.QueryOptions{
		Context:         ctx,
		Timeout:         opTimeout,
		NamedParameters: params,
		ScanConsistency: gocb.QueryScanConsistencyRequestPlus,
	})
	if err != nil {
		log.Error().Err(err).Str("query", query).Msg("Visit query failed")
		return nil, fmt.Errorf("query visits: %w", err)
	}
	defer rows.Close()

	var visits []Visit
	for rows.Next() {
		var v Visit
		if err := rows.Row(&v); err != nil {
			log.Warn().Err(err).Msg("Failed to decode visit row")
			continue
		}
		visits = append(visits, v)
	}
	return visits, nil
}

// ListPatients lists patients newest-first, optionally restricted to a
// case-insensitive name prefix.
func (s *CouchbaseStore) ListPatients(ctx context.Context, namePrefix string, limit int) ([]Patient, error) {
	conn, err := GetConnectionWithRetry()
	if err != nil {
		return nil, fmt.Errorf("get connection: %w", err)
	}
	defer ReturnConnection(conn)

	query := fmt.Sprintf("SELECT d.* FROM `%s`.`_default`.`%s` AS d",
		conn.GetBucketName(), CollectionPatients)
	params := map[string]interface{}{}
	if namePrefix != "" {
		query += " WHERE LOWER(d.name) LIKE $prefix"
		params["prefix"] = strings.ToLower(namePrefix) + "%"
	}
	query += " ORDER BY d.createdAt DESC"
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := conn.GetCluster().Query(query, &gocb.QueryOptions{
		Context:         ctx,
		Timeout:         opTimeout,
		NamedParameters: params,
		ScanConsistency: gocb.QueryScanConsistencyRequestPlus,
	})
	if err != nil {
		log.Error().Err(err).Str("query", query).Msg("Patient query failed")
		return nil, fmt.Errorf("query patients: %w", err)
	}
	defer rows.Close()

	var patients []Patient
	for rows.Next() {
		var p Patient
		if err := rows.Row(&p); err != nil {
			log.Warn().Err(err).Msg("Failed to decode patient row")
			continue
		}
		patients = append(patients, p)
	}
	return patients, nil
}
