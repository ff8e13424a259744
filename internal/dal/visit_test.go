package dal

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestModels(t *testing.T) (*PatientModel, *VisitModel, *TokenModel) {
	t.Helper()
	store := NewMemoryStore()
	patients := NewPatientModel(store)
	return patients, NewVisitModel(store, patients), NewTokenModel(store)
}

func registerTestVisit(t *testing.T, patients *PatientModel, visits *VisitModel) (Patient, Visit) {
	t.Helper()
	ctx := context.Background()

	patient, err := patients.Create(ctx, Patient{
		Name:       "Asha Rao",
		Age:        30,
		BloodGroup: "O+",
		Contact:    "9998887777",
		Disease:    "fever",
		CreatedBy:  "reception-1",
	})
	require.NoError(t, err)

	visit, err := visits.Register(ctx, patient.ID, 1, "reception-1")
	require.NoError(t, err)
	return patient, visit
}

var testMedicines = []Medicine{
	{Name: "Paracetamol", Dosage: "500mg", Instructions: "twice daily"},
}

func TestRegisterVisit(t *testing.T) {
	patients, visits, _ := newTestModels(t)
	_, visit := registerTestVisit(t, patients, visits)

	assert.Equal(t, VisitStatusRegistered, visit.Status)
	assert.Equal(t, int64(1), visit.Token)
	assert.Nil(t, visit.Prescription)
	assert.Nil(t, visit.Billing)
}

func TestRegisterVisitUnknownPatient(t *testing.T) {
	_, visits, _ := newTestModels(t)

	_, err := visits.Register(context.Background(), "no-such-patient", 1, "reception-1")
	assert.ErrorIs(t, err, ErrPatientNotFound)
}

func TestAttachPrescriptionCompletesVisit(t *testing.T) {
	patients, visits, _ := newTestModels(t)
	patient, visit := registerTestVisit(t, patients, visits)
	ctx := context.Background()

	before := time.Now().UTC()
	rx, err := visits.AttachPrescription(ctx, visit.ID, testMedicines, "rest well", "doctor-1")
	require.NoError(t, err)
	assert.Equal(t, visit.ID, rx.VisitID)
	assert.Equal(t, patient.ID, rx.PatientID)
	assert.Equal(t, testMedicines, rx.Medicines)

	updated, err := visits.GetByID(ctx, visit.ID)
	require.NoError(t, err)
	assert.Equal(t, VisitStatusCompleted, updated.Status)
	require.NotNil(t, updated.Prescription)

	// Secondary effect: the owning patient's lastVisit advances.
	refreshed, err := patients.GetByID(ctx, patient.ID)
	require.NoError(t, err)
	assert.False(t, refreshed.LastVisit.Before(before))
}

func TestAttachPrescriptionTwiceConflicts(t *testing.T) {
	patients, visits, _ := newTestModels(t)
	_, visit := registerTestVisit(t, patients, visits)
	ctx := context.Background()

	first, err := visits.AttachPrescription(ctx, visit.ID, testMedicines, "", "doctor-1")
	require.NoError(t, err)

	_, err = visits.AttachPrescription(ctx, visit.ID, []Medicine{
		{Name: "Ibuprofen", Dosage: "200mg", Instructions: "once daily"},
	}, "", "doctor-2")
	assert.ErrorIs(t, err, ErrAlreadyPrescribed)

	// The first prescription is untouched.
	updated, err := visits.GetByID(ctx, visit.ID)
	require.NoError(t, err)
	require.NotNil(t, updated.Prescription)
	assert.Equal(t, first.Medicines, updated.Prescription.Medicines)
	assert.Equal(t, "doctor-1", updated.Prescription.CreatedBy)
}

func TestAttachPrescriptionUnknownVisit(t *testing.T) {
	_, visits, _ := newTestModels(t)

	_, err := visits.AttachPrescription(context.Background(), "no-such-visit", testMedicines, "", "doctor-1")
	assert.ErrorIs(t, err, ErrVisitNotFound)
}

func TestAttachBillingBeforePrescription(t *testing.T) {
	patients, visits, _ := newTestModels(t)
	_, visit := registerTestVisit(t, patients, visits)

	_, err := visits.AttachBilling(context.Background(), visit.ID, 250, "", "reception-1")
	assert.ErrorIs(t, err, ErrNoPrescription)
}

func TestAttachBillingCopiesSnapshot(t *testing.T) {
	patients, visits, _ := newTestModels(t)
	patient, visit := registerTestVisit(t, patients, visits)
	ctx := context.Background()

	rx, err := visits.AttachPrescription(ctx, visit.ID, testMedicines, "", "doctor-1")
	require.NoError(t, err)

	bill, err := visits.AttachBilling(ctx, visit.ID, 250, "consultation", "reception-1")
	require.NoError(t, err)
	assert.Equal(t, 250.0, bill.Amount)
	assert.Equal(t, patient.Name, bill.PatientName)
	assert.Equal(t, visit.Token, bill.Token)
	require.NotNil(t, bill.Prescription)
	assert.Equal(t, rx.Medicines, bill.Prescription.Medicines)

	// Billing never touches status; completed means examined, not billed.
	updated, err := visits.GetByID(ctx, visit.ID)
	require.NoError(t, err)
	assert.Equal(t, VisitStatusCompleted, updated.Status)
	require.NotNil(t, updated.Billing)
}

func TestAttachBillingTwiceConflicts(t *testing.T) {
	patients, visits, _ := newTestModels(t)
	_, visit := registerTestVisit(t, patients, visits)
	ctx := context.Background()

	_, err := visits.AttachPrescription(ctx, visit.ID, testMedicines, "", "doctor-1")
	require.NoError(t, err)
	_, err = visits.AttachBilling(ctx, visit.ID, 250, "", "reception-1")
	require.NoError(t, err)

	_, err = visits.AttachBilling(ctx, visit.ID, 300, "", "reception-2")
	assert.ErrorIs(t, err, ErrAlreadyBilled)
}

func TestAttachBillingUnknownVisit(t *testing.T) {
	_, visits, _ := newTestModels(t)

	_, err := visits.AttachBilling(context.Background(), "no-such-visit", 250, "", "reception-1")
	assert.ErrorIs(t, err, ErrVisitNotFound)
}

func TestQueuesTrackLifecycle(t *testing.T) {
	patients, visits, _ := newTestModels(t)
	_, visit := registerTestVisit(t, patients, visits)
	ctx := context.Background()

	pending, err := visits.PendingQueue(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, visit.ID, pending[0].ID)
	require.NotNil(t, pending[0].Patient)

	billing, err := visits.BillingQueue(ctx)
	require.NoError(t, err)
	assert.Empty(t, billing)

	_, err = visits.AttachPrescription(ctx, visit.ID, testMedicines, "", "doctor-1")
	require.NoError(t, err)

	pending, err = visits.PendingQueue(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)

	billing, err = visits.BillingQueue(ctx)
	require.NoError(t, err)
	require.Len(t, billing, 1)
	assert.Equal(t, visit.ID, billing[0].ID)

	_, err = visits.AttachBilling(ctx, visit.ID, 250, "", "reception-1")
	require.NoError(t, err)

	billing, err = visits.BillingQueue(ctx)
	require.NoError(t, err)
	assert.Empty(t, billing)
}

func TestBillingSummaryDeltas(t *testing.T) {
	patients, visits, _ := newTestModels(t)
	_, visit := registerTestVisit(t, patients, visits)
	ctx := context.Background()

	summary, err := visits.BillingSummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, BillingSummary{}, summary)

	_, err = visits.AttachPrescription(ctx, visit.ID, testMedicines, "", "doctor-1")
	require.NoError(t, err)
	_, err = visits.AttachBilling(ctx, visit.ID, 250, "", "reception-1")
	require.NoError(t, err)

	summary, err = visits.BillingSummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.TotalBills)
	assert.Equal(t, 250.0, summary.TotalAmount)
	// The bill was just created, so it falls inside today's window.
	assert.Equal(t, 1, summary.TodayBills)
	assert.Equal(t, 250.0, summary.TodayAmount)
}

func TestPrescriptionAndBillHistory(t *testing.T) {
	patients, visits, _ := newTestModels(t)
	patient, visit := registerTestVisit(t, patients, visits)
	ctx := context.Background()

	rows, err := visits.PrescriptionsByPatient(ctx, patient.ID)
	require.NoError(t, err)
	assert.Empty(t, rows)

	_, err = visits.AttachPrescription(ctx, visit.ID, testMedicines, "", "doctor-1")
	require.NoError(t, err)
	_, err = visits.AttachBilling(ctx, visit.ID, 250, "", "reception-1")
	require.NoError(t, err)

	rows, err = visits.PrescriptionsByPatient(ctx, patient.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, visit.ID, rows[0].VisitID)
	require.NotNil(t, rows[0].Prescription)

	bills, err := visits.BillsByPatient(ctx, patient.ID)
	require.NoError(t, err)
	require.Len(t, bills, 1)
	require.NotNil(t, bills[0].Bill)
	assert.Equal(t, 250.0, bills[0].Bill.Amount)
}

func TestListByPatientNewestFirst(t *testing.T) {
	patients, visits, tokens := newTestModels(t)
	patient, _ := registerTestVisit(t, patients, visits)
	ctx := context.Background()

	token, err := tokens.Next(ctx)
	require.NoError(t, err)
	second, err := visits.Register(ctx, patient.ID, token, "reception-1")
	require.NoError(t, err)

	list, err := visits.ListByPatient(ctx, patient.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
}
