package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"fiscalflow/docstore"
	"fiscalflow/logger"
	"fiscalflow/obligation"
	"fiscalflow/reconcile"
)

type reconcileHandler struct {
	svc *reconcile.Service
	log *logger.Logger
}

func newReconcileHandler(svc *reconcile.Service, log *logger.Logger) *reconcileHandler {
	return &reconcileHandler{svc: svc, log: log}
}

type startRunRequest struct {
	ObligationTypeID string `json:"obligation_type_id"`
	TenantID         string `json:"tenant_id"`
}

// StartRun kicks off a reconciliation run over the pending activities in
// scope. A run with zero successes is still a 200: per-activity failures
// are data, not errors.
func (h *reconcileHandler) StartRun(c *gin.Context) {
	var req startRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	summary, err := h.svc.Run(c.Request.Context(), reconcile.RunParams{
		ObligationTypeID: req.ObligationTypeID,
		TenantID:         req.TenantID,
		ActorID:          operatorFromContext(c),
	})
	if err != nil {
		if errors.Is(err, docstore.ErrNoCredential) {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		h.log.Error("reconcile.run", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "reconciliation run failed"})
		return
	}

	c.JSON(http.StatusOK, summary)
}

// ReconcileActivity reconciles one activity on demand.
func (h *reconcileHandler) ReconcileActivity(c *gin.Context) {
	activityID := c.Param("id")

	outcome, err := h.svc.RunActivity(c.Request.Context(), activityID, operatorFromContext(c))
	if err != nil {
		switch {
		case errors.Is(err, obligation.ErrActivityNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "activity not found"})
		case errors.Is(err, docstore.ErrNoCredential):
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		default:
			h.log.Error("reconcile.activity", "activity_id", activityID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "reconciliation failed"})
		}
		return
	}

	c.JSON(http.StatusOK, outcome)
}
