package model

import "time"

// RawCase is a record as produced by a source adapter.
type RawCase struct {
	Court         string         `json:"court"`
	Jurisdiction  string         `json:"jurisdiction"`
	CaseNumber    string         `json:"case_number" validate:"required,max=64"`
	PatientHash   string         `json:"patient_hash" validate:"required,max=64"`
	Procedure     string         `json:"procedure" validate:"required,max=256"`
	Municipality  string         `json:"municipality" validate:"required,max=128"`
	ValueEstimate *float64       `json:"value_estimate" validate:"omitempty,gte=0"`
	Status        CaseStatus     `json:"status" validate:"omitempty,oneof=open in_bid awarded"`
	DueDate       *time.Time     `json:"due_date" validate:"omitempty,notpast"`
	Meta          map[string]any `json:"meta"`
}

// NormalizedCase is a cleaned RawCase plus the accent-free search fields.
type NormalizedCase struct {
	RawCase
	ProcedureNormalized    string `json:"procedure_normalized"`
	MunicipalityNormalized string `json:"municipality_normalized"`
}
