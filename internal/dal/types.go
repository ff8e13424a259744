package dal

import "time"

// Visit status values. Billing is tracked as a separate nullable field on the
// visit, not as a third status: the pending queue keys on status alone while
// the billing queue keys on status plus billing-presence.
const (
	VisitStatusRegistered = "registered"
	VisitStatusCompleted  = "completed"
)

// Staff roles resolved from the users collection.
const (
	RoleDoctor       = "doctor"
	RoleReceptionist = "receptionist"
)

// Patient is the registration record for a walk-in patient.
type Patient struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Age        int       `json:"age"`
	BloodGroup string    `json:"bloodGroup"`
	Contact    string    `json:"contact"`
	Disease    string    `json:"disease"`
	CreatedAt  time.Time `json:"createdAt"`
	CreatedBy  string    `json:"createdBy"`
	LastVisit  time.Time `json:"lastVisit"`
}

// Medicine is a single line item of a prescription.
type Medicine struct {
	Name         string `json:"name"`
	Dosage       string `json:"dosage"`
	Instructions string `json:"instructions"`
}

// Prescription is embedded into its visit and immutable once attached.
type Prescription struct {
	VisitID   string     `json:"visitId"`
	PatientID string     `json:"patientId"`
	Medicines []Medicine `json:"medicines"`
	Notes     string     `json:"notes,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	CreatedBy string     `json:"createdBy"`
}

// Bill is embedded into its visit and immutable once attached. Patient name,
// token, visit date and the prescription are copied in at creation time so the
// bill stays a faithful historical record even if the patient changes later.
type Bill struct {
	VisitID      string        `json:"visitId"`
	PatientID    string        `json:"patientId"`
	PatientName  string        `json:"patientName"`
	Token        int64         `json:"token"`
	VisitDate    time.Time     `json:"visitDate"`
	Amount       float64       `json:"amount"`
	Description  string        `json:"description,omitempty"`
	Prescription *Prescription `json:"prescription"`
	CreatedAt    time.Time     `json:"createdAt"`
	CreatedBy    string        `json:"createdBy"`
}

// Visit is the per-visit lifecycle document.
type Visit struct {
	ID           string        `json:"id"`
	PatientID    string        `json:"patientId"`
	Token        int64         `json:"token"`
	VisitDate    time.Time     `json:"visitDate"`
	Status       string        `json:"status"`
	Prescription *Prescription `json:"prescription"`
	Billing      *Bill         `json:"billing"`
	CreatedBy    string        `json:"createdBy"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}

// VisitWithPatient decorates a visit with its owning patient for queue views.
type VisitWithPatient struct {
	Visit
	Patient *Patient `json:"patient,omitempty"`
}

// PatientPrescription is one row of a patient's prescription history.
type PatientPrescription struct {
	VisitID      string        `json:"visitId"`
	Prescription *Prescription `json:"prescription"`
	VisitDate    time.Time     `json:"visitDate"`
	Token        int64         `json:"token"`
}

// PatientBill is one row of a patient's billing history.
type PatientBill struct {
	VisitID   string    `json:"visitId"`
	Bill      *Bill     `json:"bill"`
	VisitDate time.Time `json:"visitDate"`
	Token     int64     `json:"token"`
}

// TokenCounter is the single global counter document sequencing visits.
type TokenCounter struct {
	Current     int64     `json:"current"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// UserProfile maps a verified identity to a staff role.
type UserProfile struct {
	UID       string    `json:"uid"`
	Name      string    `json:"name,omitempty"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// BillingSummary aggregates all billed visits; the today window uses the
// server-local calendar day.
type BillingSummary struct {
	TotalAmount float64 `json:"totalAmount"`
	TotalBills  int     `json:"totalBills"`
	TodayAmount float64 `json:"todayAmount"`
	TodayBills  int     `json:"todayBills"`
}
