package service

import (
	"context"
	"errors"

	"CaseSync/internal/model"
	"CaseSync/internal/repository"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// OpportunityPage is one page of open cases.
type OpportunityPage struct {
	Items    []*model.Case `json:"items"`
	Total    int64         `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
}

type CaseService struct {
	cases  repository.CaseRepository
	logger *logrus.Logger
}

func NewCaseService(cases repository.CaseRepository, logger *logrus.Logger) *CaseService {
	return &CaseService{cases: cases, logger: logger}
}

func (s *CaseService) ListOpportunities(ctx context.Context, filter repository.CaseFilter, page, pageSize int) (*OpportunityPage, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	items, total, err := s.cases.ListOpportunities(ctx, filter, page, pageSize)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*model.Case{}
	}
	return &OpportunityPage{Items: items, Total: total, Page: page, PageSize: pageSize}, nil
}

func (s *CaseService) GetCase(ctx context.Context, id uint64) (*model.Case, error) {
	c, err := s.cases.GetByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCaseNotFound
	}
	return c, err
}

// DeleteCase removes a case together with its bids and award.
func (s *CaseService) DeleteCase(ctx context.Context, id uint64) error {
	err := s.cases.Delete(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrCaseNotFound
	}
	if err == nil {
		s.logger.WithField("case_id", id).Info("case deleted")
	}
	return err
}
