package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"CaseSync/internal/config"
	"CaseSync/internal/model"
	"CaseSync/internal/repository"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type CreateHospitalInput struct {
	Name        string   `json:"name" validate:"required,max=256"`
	City        string   `json:"city" validate:"max=128"`
	Email       string   `json:"email" validate:"omitempty,email,max=256"`
	Specialties []string `json:"specialties"`
	Credentials []string `json:"credentials"`
}

type CreateBidInput struct {
	CaseID     uint64  `json:"case_id" validate:"required"`
	HospitalID uint64  `json:"hospital_id" validate:"required"`
	Amount     float64 `json:"amount"`
	Notes      string  `json:"notes" validate:"max=1000"`
}

type AwardInput struct {
	WinningBidID uint64 `json:"winning_bid_id" validate:"required"`
	PayerEntity  string `json:"payer_entity" validate:"required,max=256"`
	Notes        string `json:"award_notes" validate:"max=2000"`
}

type HospitalStats struct {
	HospitalID   uint64  `json:"hospital_id"`
	TotalBids    int64   `json:"total_bids"`
	WonBids      int64   `json:"won_bids"`
	TotalAwards  int64   `json:"total_awards"`
	TotalRevenue float64 `json:"total_revenue"`
	WinRate      float64 `json:"win_rate"`
}

type PlatformStats struct {
	TotalCases        int64   `json:"total_cases"`
	OpenCases         int64   `json:"open_cases"`
	AwardedCases      int64   `json:"awarded_cases"`
	ActiveHospitals   int64   `json:"active_hospitals"`
	TotalBids         int64   `json:"total_bids"`
	TotalAwardedValue float64 `json:"total_awarded_value"`
}

// BiddingService enforces the bid and award state machine:
// case open -> in_bid on first bid, in_bid -> awarded on award;
// bid submitted -> won | lost.
type BiddingService struct {
	bids     repository.BidRepository
	cases    repository.CaseRepository
	cfg      *config.BiddingConfig
	validate *validator.Validate
	now      func() time.Time
	logger   *logrus.Logger
}

func NewBiddingService(bids repository.BidRepository, cases repository.CaseRepository,
	cfg *config.BiddingConfig, logger *logrus.Logger) *BiddingService {
	return &BiddingService{
		bids:     bids,
		cases:    cases,
		cfg:      cfg,
		validate: newValidator(time.Now),
		now:      time.Now,
		logger:   logger,
	}
}

func (s *BiddingService) CreateHospital(ctx context.Context, in CreateHospitalInput) (*model.Hospital, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	if err := s.validate.Struct(in); err != nil {
		return nil, invalid(err)
	}

	h := &model.Hospital{Name: in.Name, City: strings.TrimSpace(in.City), IsActive: true}
	if in.Email != "" {
		h.Email = &in.Email
	}
	var err error
	if h.Specialties, err = jsonList(in.Specialties); err != nil {
		return nil, err
	}
	if h.Credentials, err = jsonList(in.Credentials); err != nil {
		return nil, err
	}

	taken, err := s.bids.HospitalNameTaken(ctx, h.Name)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrDuplicateHospital
	}
	if err := s.bids.CreateHospital(ctx, h); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateHospital
		}
		return nil, err
	}
	s.logger.WithFields(logrus.Fields{"hospital_id": h.ID, "name": h.Name}).Info("hospital registered")
	return h, nil
}

func (s *BiddingService) GetHospital(ctx context.Context, id uint64) (*model.Hospital, error) {
	h, err := s.bids.GetHospital(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrHospitalNotFound
	}
	return h, err
}

// CreateBid records a hospital offer. The due date is checked before the
// status so an expired case rejects bids whatever its status.
func (s *BiddingService) CreateBid(ctx context.Context, in CreateBidInput) (*model.Bid, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, invalid(err)
	}
	if in.Amount < s.cfg.MinAmount || in.Amount > s.cfg.MaxAmount {
		return nil, fmt.Errorf("%w: %.2f not in [%.2f, %.2f]", ErrInvalidAmount, in.Amount, s.cfg.MinAmount, s.cfg.MaxAmount)
	}

	bid := &model.Bid{
		CaseID:     in.CaseID,
		HospitalID: in.HospitalID,
		Amount:     in.Amount,
		Status:     model.BidStatusSubmitted,
	}
	if notes := strings.TrimSpace(in.Notes); notes != "" {
		bid.Notes = &notes
	}

	err := s.bids.Transaction(ctx, func(tx repository.BidRepository) error {
		c, err := tx.GetCase(ctx, in.CaseID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCaseNotFound
		}
		if err != nil {
			return err
		}
		if c.DueDatePassed(s.now()) {
			return ErrDueDatePassed
		}
		if !c.Status.AcceptsBids() {
			return ErrCaseNotOpen
		}

		exists, err := tx.BidExists(ctx, in.CaseID, in.HospitalID)
		if err != nil {
			return err
		}
		if exists {
			return ErrDuplicateBid
		}
		if _, err := tx.GetHospital(ctx, in.HospitalID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrHospitalNotFound
			}
			return err
		}

		if err := tx.CreateBid(ctx, bid); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrDuplicateBid
			}
			return err
		}
		_, err = tx.AdvanceCaseStatus(ctx, c.ID, model.CaseStatusInBid, model.CaseStatusOpen)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"bid_id":      bid.ID,
		"case_id":     bid.CaseID,
		"hospital_id": bid.HospitalID,
		"amount":      bid.Amount,
	}).Info("bid submitted")
	return bid, nil
}

// AwardCase adjudicates caseID to the winning bid in one transaction.
func (s *BiddingService) AwardCase(ctx context.Context, caseID uint64, in AwardInput) (*model.Award, error) {
	in.PayerEntity = strings.TrimSpace(in.PayerEntity)
	if err := s.validate.Struct(in); err != nil {
		return nil, invalid(err)
	}

	var award *model.Award
	err := s.bids.Transaction(ctx, func(tx repository.BidRepository) error {
		bid, err := tx.GetBid(ctx, in.WinningBidID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrBidNotFound
		}
		if err != nil {
			return err
		}
		c, err := tx.GetCase(ctx, caseID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCaseNotFound
		}
		if err != nil {
			return err
		}
		if bid.CaseID != c.ID {
			return ErrBidCaseMismatch
		}
		if c.Status == model.CaseStatusAwarded {
			return ErrCaseAlreadyAwarded
		}

		if _, err := tx.MarkOtherBidsLost(ctx, c.ID, bid.ID); err != nil {
			return err
		}
		if err := tx.SetBidStatus(ctx, bid.ID, model.BidStatusWon); err != nil {
			return err
		}
		changed, err := tx.AdvanceCaseStatus(ctx, c.ID, model.CaseStatusAwarded, model.CaseStatusOpen, model.CaseStatusInBid)
		if err != nil {
			return err
		}
		if !changed {
			return ErrCaseAlreadyAwarded
		}

		award = &model.Award{
			CaseID:      c.ID,
			BidID:       bid.ID,
			HospitalID:  bid.HospitalID,
			Amount:      bid.Amount,
			PayerEntity: in.PayerEntity,
		}
		if notes := strings.TrimSpace(in.Notes); notes != "" {
			award.AwardNotes = &notes
		}
		if err := tx.CreateAward(ctx, award); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrCaseAlreadyAwarded
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"case_id":     award.CaseID,
		"bid_id":      award.BidID,
		"hospital_id": award.HospitalID,
		"amount":      award.Amount,
	}).Info("case awarded")
	return award, nil
}

// ListCaseBids returns the case's bids cheapest first.
func (s *BiddingService) ListCaseBids(ctx context.Context, caseID uint64) ([]*model.Bid, error) {
	if _, err := s.bids.GetCase(ctx, caseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCaseNotFound
		}
		return nil, err
	}
	return s.bids.ListCaseBids(ctx, caseID)
}

func (s *BiddingService) ListHospitalBids(ctx context.Context, hospitalID uint64, status model.BidStatus) ([]*model.Bid, error) {
	if _, err := s.GetHospital(ctx, hospitalID); err != nil {
		return nil, err
	}
	return s.bids.ListHospitalBids(ctx, hospitalID, status)
}

func (s *BiddingService) HospitalStats(ctx context.Context, hospitalID uint64) (*HospitalStats, error) {
	if _, err := s.GetHospital(ctx, hospitalID); err != nil {
		return nil, err
	}
	t, err := s.bids.HospitalTotals(ctx, hospitalID)
	if err != nil {
		return nil, err
	}
	stats := &HospitalStats{
		HospitalID:   hospitalID,
		TotalBids:    t.TotalBids,
		WonBids:      t.WonBids,
		TotalAwards:  t.TotalAwards,
		TotalRevenue: t.TotalRevenue,
	}
	if t.TotalBids > 0 {
		stats.WinRate = math.Round(float64(t.WonBids)/float64(t.TotalBids)*10000) / 100
	}
	return stats, nil
}

func (s *BiddingService) PlatformStats(ctx context.Context) (*PlatformStats, error) {
	var (
		st  PlatformStats
		err error
	)
	if st.TotalCases, err = s.cases.Count(ctx); err != nil {
		return nil, err
	}
	if st.OpenCases, err = s.cases.CountByStatus(ctx, model.CaseStatusOpen); err != nil {
		return nil, err
	}
	if st.AwardedCases, err = s.cases.CountByStatus(ctx, model.CaseStatusAwarded); err != nil {
		return nil, err
	}
	if st.ActiveHospitals, err = s.bids.CountActiveHospitals(ctx); err != nil {
		return nil, err
	}
	if st.TotalBids, err = s.bids.CountBids(ctx); err != nil {
		return nil, err
	}
	if st.TotalAwardedValue, err = s.bids.TotalAwardedValue(ctx); err != nil {
		return nil, err
	}
	return &st, nil
}

func jsonList(items []string) (datatypes.JSON, error) {
	if items == nil {
		items = []string{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("encode list: %w", err)
	}
	return datatypes.JSON(b), nil
}
