package api

import (
	"net/http"
	"strconv"

	"CaseSync/internal/model"
	"CaseSync/internal/repository"
	"CaseSync/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type CaseHandler struct {
	cases   *service.CaseService
	bidding *service.BiddingService
	logger  *logrus.Logger
}

func NewCaseHandler(cases *service.CaseService, bidding *service.BiddingService, logger *logrus.Logger) *CaseHandler {
	return &CaseHandler{cases: cases, bidding: bidding, logger: logger}
}

// ListOpportunities open cases, filterable by city and procedure.
// GET /opportunities?city=&procedure=&status=open&page=1&page_size=20
func (h *CaseHandler) ListOpportunities(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	filter := repository.CaseFilter{
		City:      c.Query("city"),
		Procedure: c.Query("procedure"),
		Status:    model.CaseStatus(c.Query("status")),
	}
	result, err := h.cases.ListOpportunities(c.Request.Context(), filter, page, pageSize)
	if err != nil {
		respondError(c, h.logger, "ListOpportunities", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GET /cases/:id
func (h *CaseHandler) GetCase(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	cs, err := h.cases.GetCase(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, "GetCase", err)
		return
	}
	c.JSON(http.StatusOK, cs)
}

// DELETE /cases/:id
func (h *CaseHandler) DeleteCase(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.cases.DeleteCase(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, "DeleteCase", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /cases/:id/bids
func (h *CaseHandler) ListCaseBids(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	bids, err := h.bidding.ListCaseBids(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, "ListCaseBids", err)
		return
	}
	c.JSON(http.StatusOK, bids)
}

// POST /cases/:id/award {"winning_bid_id":1,"payer_entity":"...","award_notes":"..."}
func (h *CaseHandler) AwardCase(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in service.AwardInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	award, err := h.bidding.AwardCase(c.Request.Context(), id, in)
	if err != nil {
		respondError(c, h.logger, "AwardCase", err)
		return
	}
	c.JSON(http.StatusCreated, award)
}
