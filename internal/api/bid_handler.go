package api

import (
	"net/http"

	"CaseSync/internal/model"
	"CaseSync/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type BidHandler struct {
	bidding *service.BiddingService
	logger  *logrus.Logger
}

func NewBidHandler(bidding *service.BiddingService, logger *logrus.Logger) *BidHandler {
	return &BidHandler{bidding: bidding, logger: logger}
}

// POST /hospitals
func (h *BidHandler) CreateHospital(c *gin.Context) {
	var in service.CreateHospitalInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	hospital, err := h.bidding.CreateHospital(c.Request.Context(), in)
	if err != nil {
		respondError(c, h.logger, "CreateHospital", err)
		return
	}
	c.JSON(http.StatusCreated, hospital)
}

// GET /hospitals/:id/bids?status=submitted
func (h *BidHandler) ListHospitalBids(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	bids, err := h.bidding.ListHospitalBids(c.Request.Context(), id, model.BidStatus(c.Query("status")))
	if err != nil {
		respondError(c, h.logger, "ListHospitalBids", err)
		return
	}
	c.JSON(http.StatusOK, bids)
}

// GET /hospitals/:id/stats
func (h *BidHandler) HospitalStats(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	stats, err := h.bidding.HospitalStats(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, "HospitalStats", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// POST /bids {"case_id":1,"hospital_id":2,"amount":15000,"notes":"..."}
func (h *BidHandler) CreateBid(c *gin.Context) {
	var in service.CreateBidInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	bid, err := h.bidding.CreateBid(c.Request.Context(), in)
	if err != nil {
		respondError(c, h.logger, "CreateBid", err)
		return
	}
	c.JSON(http.StatusCreated, bid)
}

// GET /stats/platform
func (h *BidHandler) PlatformStats(c *gin.Context) {
	stats, err := h.bidding.PlatformStats(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, "PlatformStats", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
