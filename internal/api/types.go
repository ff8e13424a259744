package api

import (
	"time"

	"stealthcompany.com/clinicdesk/internal/dal"
)

// Request Types

type RegisterPatientRequest struct {
	Name       string `json:"name" validate:"required,min=2,max=100"`
	Age        *int   `json:"age" validate:"required,gte=0,lte=150"`
	BloodGroup string `json:"bloodGroup" validate:"required,oneof=A+ A- B+ B- AB+ AB- O+ O-"`
	Contact    string `json:"contact" validate:"required,min=10,max=15,contact"`
	Disease    string `json:"disease" validate:"required,min=2,max=500"`
}

type MedicineRequest struct {
	Name         string `json:"name" validate:"required,min=2,max=100"`
	Dosage       string `json:"dosage" validate:"required,min=2,max=100"`
	Instructions string `json:"instructions" validate:"required,min=2,max=500"`
}

type AddPrescriptionRequest struct {
	VisitID   string            `json:"visitId" validate:"required"`
	Medicines []MedicineRequest `json:"medicines" validate:"required,min=1,dive"`
	Notes     string            `json:"notes" validate:"omitempty,max=1000"`
}

type GenerateBillRequest struct {
	VisitID     string  `json:"visitId" validate:"required"`
	Amount      float64 `json:"amount" validate:"required,gt=0"`
	Description string  `json:"description" validate:"omitempty,max=500"`
}

type ResetTokenRequest struct {
	Value int64 `json:"value" validate:"gte=0"`
}

// Response Types

// VisitRef is the compact visit echo attached to prescription/bill reads.
type VisitRef struct {
	ID        string    `json:"id"`
	Token     int64     `json:"token"`
	VisitDate time.Time `json:"visitDate"`
	Status    string    `json:"status"`
}

func visitRef(v dal.Visit) VisitRef {
	return VisitRef{ID: v.ID, Token: v.Token, VisitDate: v.VisitDate, Status: v.Status}
}

type RegisterPatientResponse struct {
	Message   string      `json:"message"`
	PatientID string      `json:"patientId"`
	VisitID   string      `json:"visitId"`
	Token     int64       `json:"token"`
	Patient   dal.Patient `json:"patient"`
}
