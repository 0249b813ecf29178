package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"CaseSync/internal/model"
	"CaseSync/internal/normalizer"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CaseRepository persists cases. Case numbers are unique; existing rows are
// never overwritten by ingestion.
type CaseRepository interface {
	// GetOrCreate returns the stored case for nc.CaseNumber, inserting it
	// first when absent. created reports whether this call inserted the row.
	GetOrCreate(ctx context.Context, nc *model.NormalizedCase) (c *model.Case, created bool, err error)
	GetByID(ctx context.Context, id uint64) (*model.Case, error)
	GetByCaseNumber(ctx context.Context, caseNumber string) (*model.Case, error)
	ListOpportunities(ctx context.Context, filter CaseFilter, page, pageSize int) ([]*model.Case, int64, error)
	Count(ctx context.Context) (int64, error)
	CountByStatus(ctx context.Context, status model.CaseStatus) (int64, error)
	// Delete removes the case with its bids and award.
	Delete(ctx context.Context, id uint64) error
}

// CaseFilter opportunity list filters. City and Procedure match the
// accent-free search columns by substring.
type CaseFilter struct {
	City      string
	Procedure string
	Status    model.CaseStatus // empty means open
}

type caseRepository struct {
	db *gorm.DB
}

func NewCaseRepository(db *gorm.DB) CaseRepository {
	return &caseRepository{db: db}
}

func (r *caseRepository) GetOrCreate(ctx context.Context, nc *model.NormalizedCase) (*model.Case, bool, error) {
	existing, err := r.GetByCaseNumber(ctx, nc.CaseNumber)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	row, err := caseFromNormalized(nc)
	if err != nil {
		return nil, false, err
	}

	created := false
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "case_number"}},
			DoNothing: true,
		}).Create(row)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			created = true
			return nil
		}
		// a concurrent run inserted it first
		var winner model.Case
		if err := tx.Where("case_number = ?", nc.CaseNumber).Take(&winner).Error; err != nil {
			return err
		}
		row = &winner
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("upsert case %s: %w", nc.CaseNumber, err)
	}
	return row, created, nil
}

func caseFromNormalized(nc *model.NormalizedCase) (*model.Case, error) {
	meta := nc.Meta
	if meta == nil {
		meta = map[string]any{}
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("encode meta for case %s: %w", nc.CaseNumber, err)
	}
	status := nc.Status
	if status == "" {
		status = model.CaseStatusOpen
	}
	return &model.Case{
		Court:                  nc.Court,
		Jurisdiction:           nc.Jurisdiction,
		CaseNumber:             nc.CaseNumber,
		PatientHash:            nc.PatientHash,
		Procedure:              nc.Procedure,
		ProcedureNormalized:    nc.ProcedureNormalized,
		Municipality:           nc.Municipality,
		MunicipalityNormalized: nc.MunicipalityNormalized,
		ValueEstimate:          nc.ValueEstimate,
		Status:                 status,
		DueDate:                nc.DueDate,
		Meta:                   datatypes.JSON(raw),
	}, nil
}

func (r *caseRepository) GetByID(ctx context.Context, id uint64) (*model.Case, error) {
	var c model.Case
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&c).Error; err != nil {
		return nil, fmt.Errorf("get case %d: %w", id, err)
	}
	return &c, nil
}

func (r *caseRepository) GetByCaseNumber(ctx context.Context, caseNumber string) (*model.Case, error) {
	var c model.Case
	if err := r.db.WithContext(ctx).Where("case_number = ?", caseNumber).Take(&c).Error; err != nil {
		return nil, fmt.Errorf("get case %s: %w", caseNumber, err)
	}
	return &c, nil
}

func (r *caseRepository) ListOpportunities(ctx context.Context, filter CaseFilter, page, pageSize int) ([]*model.Case, int64, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	status := filter.Status
	if status == "" {
		status = model.CaseStatusOpen
	}

	db := r.db.WithContext(ctx).Model(&model.Case{}).Where("status = ?", status)
	if key := normalizer.SearchKey(filter.City); key != "" {
		db = db.Where("municipality_normalized LIKE ?", "%"+key+"%")
	}
	if key := normalizer.SearchKey(filter.Procedure); key != "" {
		db = db.Where("procedure_normalized LIKE ?", "%"+key+"%")
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count opportunities: %w", err)
	}
	var list []*model.Case
	if err := db.Order("created_at DESC").Order("id DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).Find(&list).Error; err != nil {
		return nil, 0, fmt.Errorf("list opportunities: %w", err)
	}
	return list, total, nil
}

func (r *caseRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Case{}).Count(&n).Error
	return n, err
}

func (r *caseRepository) CountByStatus(ctx context.Context, status model.CaseStatus) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Case{}).Where("status = ?", status).Count(&n).Error
	return n, err
}

func (r *caseRepository) Delete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("case_id = ?", id).Delete(&model.Award{}).Error; err != nil {
			return fmt.Errorf("delete award of case %d: %w", id, err)
		}
		if err := tx.Where("case_id = ?", id).Delete(&model.Bid{}).Error; err != nil {
			return fmt.Errorf("delete bids of case %d: %w", id, err)
		}
		res := tx.Where("id = ?", id).Delete(&model.Case{})
		if res.Error != nil {
			return fmt.Errorf("delete case %d: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("delete case %d: %w", id, gorm.ErrRecordNotFound)
		}
		return nil
	})
}
