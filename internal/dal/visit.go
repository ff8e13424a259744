package dal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Visit lifecycle errors, mapped to HTTP statuses at the API boundary.
var (
	ErrVisitNotFound     = errors.New("visit not found")
	ErrAlreadyPrescribed = errors.New("prescription already exists for this visit")
	ErrAlreadyBilled     = errors.New("bill already exists for this visit")
	ErrNoPrescription    = errors.New("prescription must be added before generating bill")
)

// VisitModel gates the three legal mutations on a visit document. Each
// mutation is a get-check-replace CAS transaction on the single visit
// document, so concurrent writers resolve to exactly one winner and the
// loser re-reads and fails its guard.
type VisitModel struct {
	store    Store
	patients *PatientModel
}

// NewVisitModel creates a new visit model instance.
func NewVisitModel(store Store, patients *PatientModel) *VisitModel {
	return &VisitModel{store: store, patients: patients}
}

// Register creates a new visit for a registered patient. No precondition on
// prior visits; the token must already be issued by the sequencer.
func (vm *VisitModel) Register(ctx context.Context, patientID string, token int64, createdBy string) (Visit, error) {
	if _, err := vm.patients.GetByID(ctx, patientID); err != nil {
		return Visit{}, err
	}

	now := time.Now().UTC()
	visit := Visit{
		ID:        uuid.NewString(),
		PatientID: patientID,
		Token:     token,
		VisitDate: now,
		Status:    VisitStatusRegistered,
		CreatedBy: createdBy,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := vm.store.Insert(ctx, CollectionVisits, visit.ID, visit); err != nil {
		return Visit{}, fmt.Errorf("create visit: %w", err)
	}

	log.Info().
		Str("visitId", visit.ID).
		Str("patientId", patientID).
		Int64("token", token).
		Msg("Visit registered")
	return visit, nil
}

// GetByID retrieves a visit by ID.
func (vm *VisitModel) GetByID(ctx context.Context, id string) (Visit, error) {
	var v Visit
	_, err := vm.store.Get(ctx, CollectionVisits, id, &v)
	if errors.Is(err, ErrNotFound) {
		return Visit{}, ErrVisitNotFound
	}
	if err != nil {
		return Visit{}, fmt.Errorf("get visit: %w", err)
	}
	return v, nil
}

// AttachPrescription sets the visit's prescription exactly once and advances
// status to completed. Completed means examined, not billed.
func (vm *VisitModel) AttachPrescription(ctx context.Context, visitID string, medicines []Medicine, notes, createdBy string) (*Prescription, error) {
	for attempt := 0; attempt < casRetries; attempt++ {
		var visit Visit
		cas, err := vm.store.Get(ctx, CollectionVisits, visitID, &visit)
		if errors.Is(err, ErrNotFound) {
			return nil, ErrVisitNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("get visit: %w", err)
		}
		if visit.Prescription != nil {
			return nil, ErrAlreadyPrescribed
		}

		now := time.Now().UTC()
		rx := &Prescription{
			VisitID:   visitID,
			PatientID: visit.PatientID,
			Medicines: medicines,
			Notes:     notes,
			CreatedAt: now,
			CreatedBy: createdBy,
		}
		visit.Prescription = rx
		visit.Status = VisitStatusCompleted
		visit.UpdatedAt = now

		err = vm.store.Replace(ctx, CollectionVisits, visitID, visit, cas)
		if errors.Is(err, ErrCasMismatch) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("update visit: %w", err)
		}

		// Secondary effect; the visit update above is authoritative, so a
		// failure here is logged rather than surfaced.
		if err := vm.patients.TouchLastVisit(ctx, visit.PatientID, now); err != nil {
			log.Warn().
				Err(err).
				Str("visitId", visitID).
				Str("patientId", visit.PatientID).
				Msg("Failed to update patient lastVisit")
		}

		log.Info().
			Str("visitId", visitID).
			Str("patientId", visit.PatientID).
			Str("createdBy", createdBy).
			Msg("Prescription attached")
		return rx, nil
	}
	return nil, fmt.Errorf("attach prescription: %w", ErrCasMismatch)
}

// AttachBilling sets the visit's bill exactly once, only after a
// prescription exists. The bill copies patient name, token, visit date and
// the prescription so it renders as an immutable historical record.
func (vm *VisitModel) AttachBilling(ctx context.Context, visitID string, amount float64, description, createdBy string) (*Bill, error) {
	for attempt := 0; attempt < casRetries; attempt++ {
		var visit Visit
		cas, err := vm.store.Get(ctx, CollectionVisits, visitID, &visit)
		if errors.Is(err, ErrNotFound) {
			return nil, ErrVisitNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("get visit: %w", err)
		}
		if visit.Prescription == nil {
			return nil, ErrNoPrescription
		}
		if visit.Billing != nil {
			return nil, ErrAlreadyBilled
		}

		patient, err := vm.patients.GetByID(ctx, visit.PatientID)
		if err != nil {
			return nil, err
		}

		bill := &Bill{
			VisitID:      visitID,
			PatientID:    visit.PatientID,
			PatientName:  patient.Name,
			Token:        visit.Token,
			VisitDate:    visit.VisitDate,
			Amount:       amount,
			Description:  description,
			Prescription: visit.Prescription,
			CreatedAt:    time.Now().UTC(),
			CreatedBy:    createdBy,
		}
		visit.Billing = bill
		visit.UpdatedAt = bill.CreatedAt

		err = vm.store.Replace(ctx, CollectionVisits, visitID, visit, cas)
		if errors.Is(err, ErrCasMismatch) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("update visit: %w", err)
		}

		log.Info().
			Str("visitId", visitID).
			Str("patientId", visit.PatientID).
			Float64("amount", amount).
			Str("createdBy", createdBy).
			Msg("Bill attached")
		return bill, nil
	}
	return nil, fmt.Errorf("attach bill: %w", ErrCasMismatch)
}

// ListByPatient returns all visits for a patient, newest first.
func (vm *VisitModel) ListByPatient(ctx context.Context, patientID string) ([]Visit, error) {
	return vm.store.ListVisits(ctx, VisitFilter{PatientID: patientID})
}

// PendingQueue lists visits awaiting the doctor, oldest first, with the
// owning patient embedded for display.
func (vm *VisitModel) PendingQueue(ctx context.Context) ([]VisitWithPatient, error) {
	visits, err := vm.store.ListVisits(ctx, VisitFilter{
		Status:    VisitStatusRegistered,
		Ascending: true,
	})
	if err != nil {
		return nil, err
	}
	return vm.withPatients(ctx, visits), nil
}

// BillingQueue lists examined-but-unbilled visits, oldest first, with the
// owning patient embedded for display.
func (vm *VisitModel) BillingQueue(ctx context.Context) ([]VisitWithPatient, error) {
	unbilled := false
	visits, err := vm.store.ListVisits(ctx, VisitFilter{
		Status:    VisitStatusCompleted,
		Billed:    &unbilled,
		Ascending: true,
	})
	if err != nil {
		return nil, err
	}
	return vm.withPatients(ctx, visits), nil
}

func (vm *VisitModel) withPatients(ctx context.Context, visits []Visit) []VisitWithPatient {
	out := make([]VisitWithPatient, 0, len(visits))
	for _, v := range visits {
		row := VisitWithPatient{Visit: v}
		patient, err := vm.patients.GetByID(ctx, v.PatientID)
		if err != nil {
			log.Warn().
				Err(err).
				Str("visitId", v.ID).
				Str("patientId", v.PatientID).
				Msg("Failed to load patient for queue row")
		} else {
			row.Patient = &patient
		}
		out = append(out, row)
	}
	return out
}

// PrescriptionsByPatient returns the patient's prescription history, newest
// first.
func (vm *VisitModel) PrescriptionsByPatient(ctx context.Context, patientID string) ([]PatientPrescription, error) {
	prescribed := true
	visits, err := vm.store.ListVisits(ctx, VisitFilter{
		PatientID:  patientID,
		Prescribed: &prescribed,
	})
	if err != nil {
		return nil, err
	}
	rows := make([]PatientPrescription, 0, len(visits))
	for _, v := range visits {
		rows = append(rows, PatientPrescription{
			VisitID:      v.ID,
			Prescription: v.Prescription,
			VisitDate:    v.VisitDate,
			Token:        v.Token,
		})
	}
	return rows, nil
}

// BillsByPatient returns the patient's billing history, newest first.
func (vm *VisitModel) BillsByPatient(ctx context.Context, patientID string) ([]PatientBill, error) {
	billed := true
	visits, err := vm.store.ListVisits(ctx, VisitFilter{
		PatientID: patientID,
		Billed:    &billed,
	})
	if err != nil {
		return nil, err
	}
	rows := make([]PatientBill, 0, len(visits))
	for _, v := range visits {
		rows = append(rows, PatientBill{
			VisitID:   v.ID,
			Bill:      v.Billing,
			VisitDate: v.VisitDate,
			Token:     v.Token,
		})
	}
	return rows, nil
}

// BillingSummary aggregates all billed visits. Today's window starts at
// server-local midnight, matching how the front desk closes its day.
func (vm *VisitModel) BillingSummary(ctx context.Context) (BillingSummary, error) {
	billed := true
	visits, err := vm.store.ListVisits(ctx, VisitFilter{Billed: &billed})
	if err != nil {
		return BillingSummary{}, err
	}

	now := time.Now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var summary BillingSummary
	for _, v := range visits {
		if v.Billing == nil {
			continue
		}
		summary.TotalBills++
		summary.TotalAmount += v.Billing.Amount
		if !v.Billing.CreatedAt.Before(midnight) {
			summary.TodayBills++
			summary.TodayAmount += v.Billing.Amount
		}
	}
	return summary, nil
}
