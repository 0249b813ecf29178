package repository

import (
	"context"
	"fmt"

	"CaseSync/internal/model"

	"gorm.io/gorm"
)

// BidRepository stores hospitals, bids and awards. Multi-step state changes
// go through Transaction so every step sees the same tx.
type BidRepository interface {
	Transaction(ctx context.Context, fn func(tx BidRepository) error) error

	CreateHospital(ctx context.Context, h *model.Hospital) error
	GetHospital(ctx context.Context, id uint64) (*model.Hospital, error)
	HospitalNameTaken(ctx context.Context, name string) (bool, error)
	CountActiveHospitals(ctx context.Context) (int64, error)

	GetCase(ctx context.Context, id uint64) (*model.Case, error)
	// AdvanceCaseStatus moves a case to status only if it is currently in
	// one of from. It reports whether the row changed.
	AdvanceCaseStatus(ctx context.Context, caseID uint64, to model.CaseStatus, from ...model.CaseStatus) (bool, error)

	CreateBid(ctx context.Context, b *model.Bid) error
	GetBid(ctx context.Context, id uint64) (*model.Bid, error)
	BidExists(ctx context.Context, caseID, hospitalID uint64) (bool, error)
	SetBidStatus(ctx context.Context, id uint64, status model.BidStatus) error
	// MarkOtherBidsLost sets every bid of the case except winnerID to lost.
	MarkOtherBidsLost(ctx context.Context, caseID, winnerID uint64) (int64, error)
	ListCaseBids(ctx context.Context, caseID uint64) ([]*model.Bid, error)
	ListHospitalBids(ctx context.Context, hospitalID uint64, status model.BidStatus) ([]*model.Bid, error)
	CountBids(ctx context.Context) (int64, error)

	CreateAward(ctx context.Context, a *model.Award) error
	GetAwardByCase(ctx context.Context, caseID uint64) (*model.Award, error)
	CountAwards(ctx context.Context, caseID uint64) (int64, error)

	HospitalTotals(ctx context.Context, hospitalID uint64) (*HospitalTotals, error)
	TotalAwardedValue(ctx context.Context) (float64, error)
}

type HospitalTotals struct {
	TotalBids    int64
	WonBids      int64
	TotalAwards  int64
	TotalRevenue float64
}

type bidRepository struct {
	db *gorm.DB
}

func NewBidRepository(db *gorm.DB) BidRepository {
	return &bidRepository{db: db}
}

func (r *bidRepository) Transaction(ctx context.Context, fn func(tx BidRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&bidRepository{db: tx})
	})
}

func (r *bidRepository) CreateHospital(ctx context.Context, h *model.Hospital) error {
	if err := r.db.WithContext(ctx).Create(h).Error; err != nil {
		return fmt.Errorf("create hospital %q: %w", h.Name, err)
	}
	return nil
}

func (r *bidRepository) GetHospital(ctx context.Context, id uint64) (*model.Hospital, error) {
	var h model.Hospital
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&h).Error; err != nil {
		return nil, fmt.Errorf("get hospital %d: %w", id, err)
	}
	return &h, nil
}

func (r *bidRepository) HospitalNameTaken(ctx context.Context, name string) (bool, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&model.Hospital{}).Where("name = ?", name).Count(&n).Error; err != nil {
		return false, fmt.Errorf("check hospital name %q: %w", name, err)
	}
	return n > 0, nil
}

func (r *bidRepository) CountActiveHospitals(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Hospital{}).Where("is_active = ?", true).Count(&n).Error
	return n, err
}

func (r *bidRepository) GetCase(ctx context.Context, id uint64) (*model.Case, error) {
	var c model.Case
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&c).Error; err != nil {
		return nil, fmt.Errorf("get case %d: %w", id, err)
	}
	return &c, nil
}

func (r *bidRepository) AdvanceCaseStatus(ctx context.Context, caseID uint64, to model.CaseStatus, from ...model.CaseStatus) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Case{}).
		Where("id = ? AND status IN ?", caseID, from).
		Update("status", to)
	if res.Error != nil {
		return false, fmt.Errorf("set case %d status %s: %w", caseID, to, res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *bidRepository) CreateBid(ctx context.Context, b *model.Bid) error {
	if err := r.db.WithContext(ctx).Create(b).Error; err != nil {
		return fmt.Errorf("create bid case=%d hospital=%d: %w", b.CaseID, b.HospitalID, err)
	}
	return nil
}

func (r *bidRepository) GetBid(ctx context.Context, id uint64) (*model.Bid, error) {
	var b model.Bid
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&b).Error; err != nil {
		return nil, fmt.Errorf("get bid %d: %w", id, err)
	}
	return &b, nil
}

func (r *bidRepository) BidExists(ctx context.Context, caseID, hospitalID uint64) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Bid{}).
		Where("case_id = ? AND hospital_id = ?", caseID, hospitalID).Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("check bid case=%d hospital=%d: %w", caseID, hospitalID, err)
	}
	return n > 0, nil
}

func (r *bidRepository) SetBidStatus(ctx context.Context, id uint64, status model.BidStatus) error {
	if err := r.db.WithContext(ctx).Model(&model.Bid{}).Where("id = ?", id).
		Update("status", status).Error; err != nil {
		return fmt.Errorf("set bid %d status %s: %w", id, status, err)
	}
	return nil
}

func (r *bidRepository) MarkOtherBidsLost(ctx context.Context, caseID, winnerID uint64) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.Bid{}).
		Where("case_id = ? AND id <> ?", caseID, winnerID).
		Update("status", model.BidStatusLost)
	if res.Error != nil {
		return 0, fmt.Errorf("mark losing bids of case %d: %w", caseID, res.Error)
	}
	return res.RowsAffected, nil
}

func (r *bidRepository) ListCaseBids(ctx context.Context, caseID uint64) ([]*model.Bid, error) {
	var list []*model.Bid
	if err := r.db.WithContext(ctx).Where("case_id = ?", caseID).
		Order("amount ASC").Order("id ASC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list bids of case %d: %w", caseID, err)
	}
	return list, nil
}

func (r *bidRepository) ListHospitalBids(ctx context.Context, hospitalID uint64, status model.BidStatus) ([]*model.Bid, error) {
	db := r.db.WithContext(ctx).Where("hospital_id = ?", hospitalID)
	if status != "" {
		db = db.Where("status = ?", status)
	}
	var list []*model.Bid
	if err := db.Order("created_at DESC").Order("id DESC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list bids of hospital %d: %w", hospitalID, err)
	}
	return list, nil
}

func (r *bidRepository) CountBids(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Bid{}).Count(&n).Error
	return n, err
}

func (r *bidRepository) CreateAward(ctx context.Context, a *model.Award) error {
	if err := r.db.WithContext(ctx).Create(a).Error; err != nil {
		return fmt.Errorf("create award for case %d: %w", a.CaseID, err)
	}
	return nil
}

func (r *bidRepository) GetAwardByCase(ctx context.Context, caseID uint64) (*model.Award, error) {
	var a model.Award
	if err := r.db.WithContext(ctx).Where("case_id = ?", caseID).Take(&a).Error; err != nil {
		return nil, fmt.Errorf("get award of case %d: %w", caseID, err)
	}
	return &a, nil
}

func (r *bidRepository) CountAwards(ctx context.Context, caseID uint64) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Award{}).Where("case_id = ?", caseID).Count(&n).Error
	return n, err
}

func (r *bidRepository) HospitalTotals(ctx context.Context, hospitalID uint64) (*HospitalTotals, error) {
	var t HospitalTotals
	db := r.db.WithContext(ctx)
	if err := db.Model(&model.Bid{}).Where("hospital_id = ?", hospitalID).Count(&t.TotalBids).Error; err != nil {
		return nil, fmt.Errorf("count bids of hospital %d: %w", hospitalID, err)
	}
	if err := db.Model(&model.Bid{}).Where("hospital_id = ? AND status = ?", hospitalID, model.BidStatusWon).
		Count(&t.WonBids).Error; err != nil {
		return nil, fmt.Errorf("count won bids of hospital %d: %w", hospitalID, err)
	}
	if err := db.Model(&model.Award{}).Where("hospital_id = ?", hospitalID).Count(&t.TotalAwards).Error; err != nil {
		return nil, fmt.Errorf("count awards of hospital %d: %w", hospitalID, err)
	}
	if err := db.Model(&model.Award{}).Where("hospital_id = ?", hospitalID).
		Select("COALESCE(SUM(amount), 0)").Scan(&t.TotalRevenue).Error; err != nil {
		return nil, fmt.Errorf("sum revenue of hospital %d: %w", hospitalID, err)
	}
	return &t, nil
}

func (r *bidRepository) TotalAwardedValue(ctx context.Context) (float64, error) {
	var total float64
	if err := r.db.WithContext(ctx).Model(&model.Award{}).
		Select("COALESCE(SUM(amount), 0)").Scan(&total).Error; err != nil {
		return 0, fmt.Errorf("sum awarded value: %w", err)
	}
	return total, nil
}
