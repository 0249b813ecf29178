package model

import (
	"time"

	"gorm.io/datatypes"
)

// CaseStatus only moves forward: open -> in_bid -> awarded.
type CaseStatus string

const (
	CaseStatusOpen    CaseStatus = "open"
	CaseStatusInBid   CaseStatus = "in_bid"
	CaseStatusAwarded CaseStatus = "awarded"
)

// AcceptsBids reports whether hospitals may still submit bids.
func (s CaseStatus) AcceptsBids() bool {
	return s == CaseStatusOpen || s == CaseStatusInBid
}

// Case is a judicial health-procedure opportunity. CaseNumber is the natural
// key and never changes after creation.
type Case struct {
	ID                     uint64         `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Court                  string         `gorm:"column:court;type:varchar(32);index" json:"court"`
	Jurisdiction           string         `gorm:"column:jurisdiction;type:varchar(64);index" json:"jurisdiction"`
	CaseNumber             string         `gorm:"column:case_number;type:varchar(64);uniqueIndex;not null" json:"case_number"`
	PatientHash            string         `gorm:"column:patient_hash;type:varchar(64);index;not null" json:"patient_hash"`
	Procedure              string         `gorm:"column:procedure;type:varchar(256);not null" json:"procedure"`
	ProcedureNormalized    string         `gorm:"column:procedure_normalized;type:varchar(256);index:ix_case_status_procedure,priority:2" json:"-"`
	Municipality           string         `gorm:"column:municipality;type:varchar(128);not null" json:"municipality"`
	MunicipalityNormalized string         `gorm:"column:municipality_normalized;type:varchar(128);index:ix_case_status_municipality,priority:2" json:"-"`
	ValueEstimate          *float64       `gorm:"column:value_estimate;type:numeric(18,2)" json:"value_estimate"`
	Status                 CaseStatus     `gorm:"column:status;type:varchar(16);not null;index:ix_case_status_municipality,priority:1;index:ix_case_status_procedure,priority:1;index:ix_case_due_date_status,priority:2" json:"status"`
	DueDate                *time.Time     `gorm:"column:due_date;type:date;index:ix_case_due_date_status,priority:1" json:"due_date"`
	Meta                   datatypes.JSON `gorm:"column:meta" json:"meta"`
	CreatedAt              time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`

	Bids  []Bid  `gorm:"foreignKey:CaseID;constraint:OnDelete:CASCADE" json:"-"`
	Award *Award `gorm:"foreignKey:CaseID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Case) TableName() string { return "cases" }

// DueDatePassed compares by calendar day: a case due today is still open.
func (c *Case) DueDatePassed(now time.Time) bool {
	if c.DueDate == nil {
		return false
	}
	return DayBefore(*c.DueDate, now)
}

// DayBefore reports whether day's calendar date is earlier than now's. day is
// read by its own Y/M/D, so a date column scanned as UTC midnight still names
// the same day in now's location.
func DayBefore(day, now time.Time) bool {
	y, m, d := day.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, now.Location()).Before(StartOfDay(now))
}

// StartOfDay truncates t to midnight in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Hospital is a bidder.
type Hospital struct {
	ID          uint64         `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Name        string         `gorm:"column:name;type:varchar(256);uniqueIndex;not null" json:"name"`
	City        string         `gorm:"column:city;type:varchar(128);index" json:"city"`
	Email       *string        `gorm:"column:email;type:varchar(256);uniqueIndex" json:"email"`
	IsActive    bool           `gorm:"column:is_active;not null;default:true" json:"is_active"`
	Specialties datatypes.JSON `gorm:"column:specialties" json:"specialties"`
	Credentials datatypes.JSON `gorm:"column:credentials" json:"credentials"`
	CreatedAt   time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`

	Bids []Bid `gorm:"foreignKey:HospitalID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Hospital) TableName() string { return "hospitals" }
