package dal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ErrPatientNotFound means the referenced patient does not exist.
var ErrPatientNotFound = errors.New("patient not found")

// PatientModel handles patient-specific database operations.
type PatientModel struct {
	store Store
}

// NewPatientModel creates a new patient model instance.
func NewPatientModel(store Store) *PatientModel {
	return &PatientModel{store: store}
}

// Create stores a new patient record. Patients are never deleted in normal
// operation.
func (pm *PatientModel) Create(ctx context.Context, p Patient) (Patient, error) {
	now := time.Now().UTC()
	p.ID = uuid.NewString()
	p.CreatedAt = now
	p.LastVisit = now

	if err := pm.store.Insert(ctx, CollectionPatients, p.ID, p); err != nil {
		return Patient{}, fmt.Errorf("create patient: %w", err)
	}

	log.Info().
		Str("patientId", p.ID).
		Str("createdBy", p.CreatedBy).
		Msg("Patient created")
	return p, nil
}

// GetByID retrieves a patient by ID.
func (pm *PatientModel) GetByID(ctx context.Context, id string) (Patient, error) {
	var p Patient
	_, err := pm.store.Get(ctx, CollectionPatients, id, &p)
	if errors.Is(err, ErrNotFound) {
		return Patient{}, ErrPatientNotFound
	}
	if err != nil {
		return Patient{}, fmt.Errorf("get patient: %w", err)
	}
	return p, nil
}

// List retrieves all patients, newest registration first.
func (pm *PatientModel) List(ctx context.Context) ([]Patient, error) {
	return pm.store.ListPatients(ctx, "", 0)
}

// searchLimit caps search results the same way the front-desk UI pages them.
const searchLimit = 10

// Search finds patients whose name starts with the query, case-insensitively.
func (pm *PatientModel) Search(ctx context.Context, query string) ([]Patient, error) {
	return pm.store.ListPatients(ctx, query, searchLimit)
}

// TouchLastVisit advances the patient's lastVisit timestamp. CAS-retried
// since it races with other prescriptions for the same patient.
func (pm *PatientModel) TouchLastVisit(ctx context.Context, id string, at time.Time) error {
	for attempt := 0; attempt < casRetries; attempt++ {
		var p Patient
		cas, err := pm.store.Get(ctx, CollectionPatients, id, &p)
		if errors.Is(err, ErrNotFound) {
			return ErrPatientNotFound
		}
		if err != nil {
			return fmt.Errorf("get patient: %w", err)
		}
		if p.LastVisit.After(at) {
			return nil
		}
		p.LastVisit = at
		err = pm.store.Replace(ctx, CollectionPatients, id, p, cas)
		if errors.Is(err, ErrCasMismatch) {
			continue
		}
		if err != nil {
			return fmt.Errorf("update patient lastVisit: %w", err)
		}
		return nil
	}
	return fmt.Errorf("update patient lastVisit: %w", ErrCasMismatch)
}
