package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/xiaot623/modgate/domain"
)

// SubmitMessageRequest is the body of a message submission.
type SubmitMessageRequest struct {
	UserID  string `json:"user_id"`
	Content string `json:"content"`
}

// SubmitMessage runs one user submission through the pipeline. The response
// always carries exactly one reply text; a rate-limited submission maps to
// 429 so surfaces can distinguish "wait" from a chat reply.
func (h *Handler) SubmitMessage(c echo.Context) error {
	sessionID := c.Param("session_id")
	if sessionID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "session_id is required"})
	}

	var req SubmitMessageRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if req.UserID == "" {
		req.UserID = "anonymous"
	}

	res := h.pipeline.Submit(c.Request().Context(), sessionID, req.UserID, req.Content)

	status := http.StatusOK
	if res.Outcome == domain.OutcomeRateLimited {
		status = http.StatusTooManyRequests
	}
	return c.JSON(status, res)
}

// GetMessages returns the session transcript in order, system turn included.
func (h *Handler) GetMessages(c echo.Context) error {
	sessionID := c.Param("session_id")
	sess := h.sessions.Get(sessionID)
	if sess == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "session not found"})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"session_id": sessionID,
		"turns":      sess.History(),
	})
}
