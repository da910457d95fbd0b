package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openshelf/openshelf/internal/auth"
	"github.com/openshelf/openshelf/internal/database/notifications"
	"github.com/openshelf/openshelf/internal/entities"
)

type NotificationsController struct {
	repo *notifications.Repository
}

func NewNotificationsController(repo *notifications.Repository) *NotificationsController {
	return &NotificationsController{repo: repo}
}

// List returns notifications. Students see their own; staff may pass
// student_id to view a borrower's notices.
// GET /api/notifications?student_id=N
func (nc *NotificationsController) List(c *gin.Context) {
	studentID := auth.GetAccountID(c)
	if auth.GetAccountType(c) != entities.AccountTypeStudent {
		id, ok := parseQueryID(c, "student_id")
		if !ok {
			return
		}
		studentID = id
	}

	list, err := nc.repo.ListForStudent(studentID)
	if err != nil {
		respondInternalError(c, err, "list notifications")
		return
	}
	c.JSON(http.StatusOK, list)
}

// ListForStudent returns a borrower's notifications for staff review.
// GET /api/students/:id/notifications
func (nc *NotificationsController) ListForStudent(c *gin.Context) {
	studentID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	list, err := nc.repo.ListForStudent(studentID)
	if err != nil {
		respondInternalError(c, err, "list notifications")
		return
	}
	c.JSON(http.StatusOK, list)
}

// MarkRead marks a notification as read. Students may only touch their
// own notices; staff can mark any.
// POST /api/notifications/:id/read
func (nc *NotificationsController) MarkRead(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	notification, err := nc.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, notifications.ErrNotificationNotFound) {
			respondNotFound(c, "notification")
			return
		}
		respondInternalError(c, err, "get notification")
		return
	}

	if auth.GetAccountType(c) == entities.AccountTypeStudent && notification.StudentID != auth.GetAccountID(c) {
		respondError(c, http.StatusForbidden, "cannot modify another student's notification")
		return
	}

	if err := nc.repo.MarkRead(id); err != nil {
		if errors.Is(err, notifications.ErrNotificationNotFound) {
			respondNotFound(c, "notification")
			return
		}
		respondInternalError(c, err, "mark notification read")
		return
	}
	respondSuccess(c, "notification marked read")
}
