package samples

import (
	"time"

	"github.com/google/uuid"
)

// SLAType is the turnaround class agreed with the client.
type SLAType string

const (
	SLANormal  SLAType = "normal"
	SLAExpress SLAType = "express"
)

// SLAStatus is derived from the due date and the sample's progress.
type SLAStatus string

const (
	SLAOnTime   SLAStatus = "on_time"
	SLAAtRisk   SLAStatus = "at_risk"
	SLABreached SLAStatus = "breached"
)

// Status is the sample workflow status. The transition graph is open: any
// status may follow any other, but every change is audit-logged.
type Status string

const (
	StatusReceived          Status = "received"
	StatusProcessing        Status = "processing"
	StatusMicroscopy        Status = "microscopy"
	StatusIsolation         Status = "isolation"
	StatusIdentification    Status = "identification"
	StatusMolecularAnalysis Status = "molecular_analysis"
	StatusValidation        Status = "validation"
	StatusCompleted         Status = "completed"
)

var validStatuses = map[Status]bool{
	StatusReceived:          true,
	StatusProcessing:        true,
	StatusMicroscopy:        true,
	StatusIsolation:         true,
	StatusIdentification:    true,
	StatusMolecularAnalysis: true,
	StatusValidation:        true,
	StatusCompleted:         true,
}

// ValidStatus reports whether s is a known workflow status.
func ValidStatus(s Status) bool {
	return validStatuses[s]
}

// Sample is a physical specimen submitted for testing. DueDate is always
// derivable from (ReceivedDate, SLAType); updates to either recompute it.
type Sample struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	Code         string     `db:"code" json:"code"`
	ClientID     uuid.UUID  `db:"client_id" json:"client_id"`
	ProjectID    *uuid.UUID `db:"project_id" json:"project_id,omitempty"`
	ReceivedDate time.Time  `db:"received_date" json:"received_date"`
	SLAType      SLAType    `db:"sla_type" json:"sla_type"`
	DueDate      time.Time  `db:"due_date" json:"due_date"`
	SLAStatus    SLAStatus  `db:"sla_status" json:"sla_status"`
	Status       Status     `db:"status" json:"status"`

	Species           string  `db:"species" json:"species"`
	Variety           *string `db:"variety" json:"variety,omitempty"`
	Rootstock         *string `db:"rootstock" json:"rootstock,omitempty"`
	PlantingYear      *int    `db:"planting_year" json:"planting_year,omitempty"`
	PreviousCrop      *string `db:"previous_crop" json:"previous_crop,omitempty"`
	NextCrop          *string `db:"next_crop" json:"next_crop,omitempty"`
	Fallow            *bool   `db:"fallow" json:"fallow,omitempty"`
	Region            *string `db:"region" json:"region,omitempty"`
	Locality          *string `db:"locality" json:"locality,omitempty"`
	TakenBy           *string `db:"taken_by" json:"taken_by,omitempty"`
	SamplingMethod    *string `db:"sampling_method" json:"sampling_method,omitempty"`
	SuspectedPathogen *string `db:"suspected_pathogen" json:"suspected_pathogen,omitempty"`
	DeliveryMethod    *string `db:"delivery_method" json:"delivery_method,omitempty"`

	ClientNotes           *string `db:"client_notes" json:"client_notes,omitempty"`
	ReceptionNotes        *string `db:"reception_notes" json:"reception_notes,omitempty"`
	SamplingObservations  *string `db:"sampling_observations" json:"sampling_observations,omitempty"`
	ReceptionObservations *string `db:"reception_observations" json:"reception_observations,omitempty"`

	VersionID int       `db:"version_id" json:"version_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// SampleTest is one requested (test, method) pairing on a Sample. Immutable
// after intake; Results reference it as read-only data.
type SampleTest struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	SampleID  uuid.UUID  `db:"sample_id" json:"sample_id"`
	TestID    uuid.UUID  `db:"test_id" json:"test_id"`
	MethodID  *uuid.UUID `db:"method_id" json:"method_id,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}

// StatusTransition is an append-only audit record of a status change. Never
// mutated or deleted except through the cascading sample purge.
type StatusTransition struct {
	ID         uuid.UUID `db:"id" json:"id"`
	SampleID   uuid.UUID `db:"sample_id" json:"sample_id"`
	FromStatus Status    `db:"from_status" json:"from_status"`
	ToStatus   Status    `db:"to_status" json:"to_status"`
	ByUser     string    `db:"by_user" json:"by_user"`
	Reason     *string   `db:"reason" json:"reason,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
