package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openshelf/openshelf/internal/database/audit"
	"github.com/openshelf/openshelf/internal/entities"
)

type AuditController struct {
	repo *audit.Repository
}

func NewAuditController(repo *audit.Repository) *AuditController {
	return &AuditController{repo: repo}
}

// GetEvents returns the audit trail, newest first, optionally filtered
// by event type.
// GET /api/audit?type=loan_issued&limit=N&offset=N
func (ac *AuditController) GetEvents(c *gin.Context) {
	limit, offset := parsePagination(c)

	var (
		events []entities.AuditEvent
		total  int64
		err    error
	)
	if eventType := c.Query("type"); eventType != "" {
		events, total, err = ac.repo.GetEventsByType(entities.AuditEventType(eventType), limit, offset)
	} else {
		events, total, err = ac.repo.GetEvents(limit, offset)
	}
	if err != nil {
		respondInternalError(c, err, "get audit events")
		return
	}

	c.JSON(http.StatusOK, PaginatedResponse{
		Data:    events,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		HasMore: int64(offset+len(events)) < total,
	})
}

// GetEventsForLoan returns the audit trail of one loan.
// GET /api/loans/:id/audit
func (ac *AuditController) GetEventsForLoan(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	events, err := ac.repo.GetEventsForLoan(id)
	if err != nil {
		respondInternalError(c, err, "get loan audit events")
		return
	}
	c.JSON(http.StatusOK, events)
}
