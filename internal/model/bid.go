package model

import "time"

type BidStatus string

const (
	BidStatusSubmitted BidStatus = "submitted"
	BidStatusWon       BidStatus = "won"
	BidStatusLost      BidStatus = "lost"
)

// Bid is a hospital offer on a case; at most one per (case, hospital).
type Bid struct {
	ID         uint64    `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	CaseID     uint64    `gorm:"column:case_id;not null;uniqueIndex:uq_bid_case_hospital,priority:1;index:ix_bid_case_created,priority:1" json:"case_id"`
	HospitalID uint64    `gorm:"column:hospital_id;not null;uniqueIndex:uq_bid_case_hospital,priority:2;index:ix_bid_hospital_status,priority:1" json:"hospital_id"`
	Amount     float64   `gorm:"column:amount;type:numeric(18,2);not null" json:"amount"`
	Notes      *string   `gorm:"column:notes;type:varchar(1000)" json:"notes"`
	Status     BidStatus `gorm:"column:status;type:varchar(16);not null;index:ix_bid_hospital_status,priority:2" json:"status"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime;index:ix_bid_case_created,priority:2" json:"created_at"`
}

func (Bid) TableName() string { return "bids" }

// Award is the adjudication of a case to one winning bid. One per case.
type Award struct {
	ID          uint64    `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	CaseID      uint64    `gorm:"column:case_id;not null;uniqueIndex" json:"case_id"`
	BidID       uint64    `gorm:"column:bid_id;not null" json:"bid_id"`
	HospitalID  uint64    `gorm:"column:hospital_id;not null;index" json:"hospital_id"`
	Amount      float64   `gorm:"column:amount;type:numeric(18,2);not null" json:"amount"`
	PayerEntity string    `gorm:"column:payer_entity;type:varchar(256);not null" json:"payer_entity"`
	AwardNotes  *string   `gorm:"column:award_notes;type:text" json:"award_notes"`
	AwardedAt   time.Time `gorm:"column:awarded_at;autoCreateTime" json:"awarded_at"`
}

func (Award) TableName() string { return "awards" }
