package api

import (
	"net/http"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
)

// Handlers groups every handler mounted by NewRouter.
type Handlers struct {
	Ingest *IngestHandler
	Cases  *CaseHandler
	Bids   *BidHandler
}

// NewRouter builds the gin engine. pprof is mounted under /debug/pprof.
func NewRouter(mode string, h Handlers) *gin.Engine {
	gin.SetMode(mode)
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	pprof.Register(r)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.POST("/ingest/run", h.Ingest.RunIngestion)
	r.POST("/ingest/tjmg/run", h.Ingest.RunIngestion)
	r.GET("/ingest/status", h.Ingest.Status)
	r.GET("/ingest/history", h.Ingest.History)
	r.GET("/ingest/stats", h.Ingest.Stats)

	r.GET("/opportunities", h.Cases.ListOpportunities)
	r.GET("/cases/:id", h.Cases.GetCase)
	r.DELETE("/cases/:id", h.Cases.DeleteCase)
	r.GET("/cases/:id/bids", h.Cases.ListCaseBids)
	r.POST("/cases/:id/award", h.Cases.AwardCase)

	r.POST("/hospitals", h.Bids.CreateHospital)
	r.GET("/hospitals/:id/bids", h.Bids.ListHospitalBids)
	r.GET("/hospitals/:id/stats", h.Bids.HospitalStats)
	r.POST("/bids", h.Bids.CreateBid)
	r.GET("/stats/platform", h.Bids.PlatformStats)

	return r
}
