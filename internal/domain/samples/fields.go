package samples

import (
	"time"

	"github.com/google/uuid"
)

// FieldName identifies one editable sample attribute.
type FieldName string

const (
	FieldStatus                FieldName = "status"
	FieldSLAStatus             FieldName = "sla_status"
	FieldDueDate               FieldName = "due_date"
	FieldClientNotes           FieldName = "client_notes"
	FieldReceptionNotes        FieldName = "reception_notes"
	FieldSamplingObservations  FieldName = "sampling_observations"
	FieldReceptionObservations FieldName = "reception_observations"

	FieldClientID          FieldName = "client_id"
	FieldCode              FieldName = "code"
	FieldReceivedDate      FieldName = "received_date"
	FieldSpecies           FieldName = "species"
	FieldVariety           FieldName = "variety"
	FieldRootstock         FieldName = "rootstock"
	FieldPlantingYear      FieldName = "planting_year"
	FieldPreviousCrop      FieldName = "previous_crop"
	FieldNextCrop          FieldName = "next_crop"
	FieldFallow            FieldName = "fallow"
	FieldProjectID         FieldName = "project_id"
	FieldSLAType           FieldName = "sla_type"
	FieldRegion            FieldName = "region"
	FieldLocality          FieldName = "locality"
	FieldTakenBy           FieldName = "taken_by"
	FieldSamplingMethod    FieldName = "sampling_method"
	FieldSuspectedPathogen FieldName = "suspected_pathogen"
	FieldDeliveryMethod    FieldName = "delivery_method"
)

type fieldCap struct {
	LockedWhenValidated bool
	Required            bool
}

// fieldCaps is the single source of truth for both the edit-authorization
// check and the required-field validator. Workflow and note fields stay
// editable for the sample's whole life; identity fields lock as soon as any
// validated result exists.
var fieldCaps = map[FieldName]fieldCap{
	FieldStatus:                {},
	FieldSLAStatus:             {},
	FieldDueDate:               {},
	FieldClientNotes:           {},
	FieldReceptionNotes:        {},
	FieldSamplingObservations:  {},
	FieldReceptionObservations: {},

	FieldClientID:          {LockedWhenValidated: true, Required: true},
	FieldCode:              {LockedWhenValidated: true, Required: true},
	FieldReceivedDate:      {LockedWhenValidated: true, Required: true},
	FieldSpecies:           {LockedWhenValidated: true, Required: true},
	FieldVariety:           {LockedWhenValidated: true},
	FieldRootstock:         {LockedWhenValidated: true},
	FieldPlantingYear:      {LockedWhenValidated: true},
	FieldPreviousCrop:      {LockedWhenValidated: true},
	FieldNextCrop:          {LockedWhenValidated: true},
	FieldFallow:            {LockedWhenValidated: true},
	FieldProjectID:         {LockedWhenValidated: true},
	FieldSLAType:           {LockedWhenValidated: true},
	FieldRegion:            {LockedWhenValidated: true},
	FieldLocality:          {LockedWhenValidated: true},
	FieldTakenBy:           {LockedWhenValidated: true},
	FieldSamplingMethod:    {LockedWhenValidated: true},
	FieldSuspectedPathogen: {LockedWhenValidated: true},
	FieldDeliveryMethod:    {LockedWhenValidated: true},
}

// CanEditField reports whether field may be mutated given the presence of
// validated results. Unknown fields are never editable.
func CanEditField(field FieldName, hasValidatedResults bool) bool {
	c, ok := fieldCaps[field]
	if !ok {
		return false
	}
	return !hasValidatedResults || !c.LockedWhenValidated
}

// Patch carries a partial sample update. A nil pointer means "not present in
// the request"; present fields are listed by Fields(). DueDate and SLAStatus
// are intentionally absent: both are derived by the service, never supplied
// by the client.
type Patch struct {
	ClientID          *uuid.UUID `json:"client_id"`
	Code              *string    `json:"code"`
	ReceivedDate      *time.Time `json:"received_date"`
	Species           *string    `json:"species"`
	Variety           *string    `json:"variety"`
	Rootstock         *string    `json:"rootstock"`
	PlantingYear      *int       `json:"planting_year"`
	PreviousCrop      *string    `json:"previous_crop"`
	NextCrop          *string    `json:"next_crop"`
	Fallow            *bool      `json:"fallow"`
	ProjectID         *uuid.UUID `json:"project_id"`
	SLAType           *SLAType   `json:"sla_type"`
	Region            *string    `json:"region"`
	Locality          *string    `json:"locality"`
	TakenBy           *string    `json:"taken_by"`
	SamplingMethod    *string    `json:"sampling_method"`
	SuspectedPathogen *string    `json:"suspected_pathogen"`
	DeliveryMethod    *string    `json:"delivery_method"`

	Status                *Status `json:"status"`
	ClientNotes           *string `json:"client_notes"`
	ReceptionNotes        *string `json:"reception_notes"`
	SamplingObservations  *string `json:"sampling_observations"`
	ReceptionObservations *string `json:"reception_observations"`
}

// Fields lists the field names present in the patch.
func (p *Patch) Fields() []FieldName {
	var fields []FieldName
	add := func(present bool, f FieldName) {
		if present {
			fields = append(fields, f)
		}
	}
	add(p.ClientID != nil, FieldClientID)
	add(p.Code != nil, FieldCode)
	add(p.ReceivedDate != nil, FieldReceivedDate)
	add(p.Species != nil, FieldSpecies)
	add(p.Variety != nil, FieldVariety)
	add(p.Rootstock != nil, FieldRootstock)
	add(p.PlantingYear != nil, FieldPlantingYear)
	add(p.PreviousCrop != nil, FieldPreviousCrop)
	add(p.NextCrop != nil, FieldNextCrop)
	add(p.Fallow != nil, FieldFallow)
	add(p.ProjectID != nil, FieldProjectID)
	add(p.SLAType != nil, FieldSLAType)
	add(p.Region != nil, FieldRegion)
	add(p.Locality != nil, FieldLocality)
	add(p.TakenBy != nil, FieldTakenBy)
	add(p.SamplingMethod != nil, FieldSamplingMethod)
	add(p.SuspectedPathogen != nil, FieldSuspectedPathogen)
	add(p.DeliveryMethod != nil, FieldDeliveryMethod)
	add(p.Status != nil, FieldStatus)
	add(p.ClientNotes != nil, FieldClientNotes)
	add(p.ReceptionNotes != nil, FieldReceptionNotes)
	add(p.SamplingObservations != nil, FieldSamplingObservations)
	add(p.ReceptionObservations != nil, FieldReceptionObservations)
	return fields
}

// BuildAuthorizedPatch checks every present field against the capability
// table. A non-empty rejected list means the whole update must fail; blocked
// fields are never silently dropped.
func BuildAuthorizedPatch(p *Patch, hasValidatedResults bool) (rejected []FieldName) {
	for _, f := range p.Fields() {
		if !CanEditField(f, hasValidatedResults) {
			rejected = append(rejected, f)
		}
	}
	return rejected
}

// Apply copies the present patch fields onto the sample.
func (p *Patch) Apply(s *Sample) {
	if p.ClientID != nil {
		s.ClientID = *p.ClientID
	}
	if p.Code != nil {
		s.Code = *p.Code
	}
	if p.ReceivedDate != nil {
		s.ReceivedDate = *p.ReceivedDate
	}
	if p.Species != nil {
		s.Species = *p.Species
	}
	if p.Variety != nil {
		s.Variety = p.Variety
	}
	if p.Rootstock != nil {
		s.Rootstock = p.Rootstock
	}
	if p.PlantingYear != nil {
		s.PlantingYear = p.PlantingYear
	}
	if p.PreviousCrop != nil {
		s.PreviousCrop = p.PreviousCrop
	}
	if p.NextCrop != nil {
		s.NextCrop = p.NextCrop
	}
	if p.Fallow != nil {
		s.Fallow = p.Fallow
	}
	if p.ProjectID != nil {
		s.ProjectID = p.ProjectID
	}
	if p.SLAType != nil {
		s.SLAType = *p.SLAType
	}
	if p.Region != nil {
		s.Region = p.Region
	}
	if p.Locality != nil {
		s.Locality = p.Locality
	}
	if p.TakenBy != nil {
		s.TakenBy = p.TakenBy
	}
	if p.SamplingMethod != nil {
		s.SamplingMethod = p.SamplingMethod
	}
	if p.SuspectedPathogen != nil {
		s.SuspectedPathogen = p.SuspectedPathogen
	}
	if p.DeliveryMethod != nil {
		s.DeliveryMethod = p.DeliveryMethod
	}
	if p.Status != nil {
		s.Status = *p.Status
	}
	if p.ClientNotes != nil {
		s.ClientNotes = p.ClientNotes
	}
	if p.ReceptionNotes != nil {
		s.ReceptionNotes = p.ReceptionNotes
	}
	if p.SamplingObservations != nil {
		s.SamplingObservations = p.SamplingObservations
	}
	if p.ReceptionObservations != nil {
		s.ReceptionObservations = p.ReceptionObservations
	}
}

// MissingRequired lists required fields that are empty on the sample. Applied
// on intake and on edits made before any result is validated.
func MissingRequired(s *Sample) []FieldName {
	var missing []FieldName
	if s.ClientID == uuid.Nil {
		missing = append(missing, FieldClientID)
	}
	if s.Code == "" {
		missing = append(missing, FieldCode)
	}
	if s.ReceivedDate.IsZero() {
		missing = append(missing, FieldReceivedDate)
	}
	if s.Species == "" {
		missing = append(missing, FieldSpecies)
	}
	return missing
}
