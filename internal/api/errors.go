package api

import (
	"errors"
	"net/http"
	"strconv"

	"CaseSync/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// respondError maps domain errors onto HTTP statuses; anything unknown is a 500.
func respondError(c *gin.Context, logger *logrus.Logger, op string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrCaseNotFound),
		errors.Is(err, service.ErrHospitalNotFound),
		errors.Is(err, service.ErrBidNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrDuplicateBid),
		errors.Is(err, service.ErrDuplicateHospital),
		errors.Is(err, service.ErrCaseAlreadyAwarded),
		errors.Is(err, service.ErrCaseNotOpen):
		status = http.StatusConflict
	case errors.Is(err, service.ErrDueDatePassed),
		errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrBidCaseMismatch),
		errors.Is(err, service.ErrInvalidInput):
		status = http.StatusBadRequest
	}

	entry := logger.WithError(err).WithField("op", op)
	if status == http.StatusInternalServerError {
		entry.Error("request failed")
	} else {
		entry.Info("request rejected")
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func paramID(c *gin.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": name + " must be a positive integer"})
		return 0, false
	}
	return id, true
}
