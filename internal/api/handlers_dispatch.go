package api

import (
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/timescam/koishi/internal/command"
	"github.com/timescam/koishi/internal/models"
	"github.com/timescam/koishi/internal/session"
)

// Dispatch runs one pre-parsed invocation through the engine and records it
// in the audit log.
func (s *Server) Dispatch(c *fiber.Ctx) error {
	var req DispatchRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Command == "" {
		return fiber.NewError(fiber.StatusBadRequest, "command is required")
	}

	cmd := s.dispatcher.Registry().Get(req.Command)
	if cmd == nil {
		return c.JSON(DispatchResponse{
			Output: s.translator.Text("internal.unknown-command", map[string]any{"command": req.Command}),
		})
	}

	sess, err := s.buildSession(&req)
	if err != nil {
		return err
	}

	argv := &command.Argv{
		Command: cmd,
		Args:    req.Args,
		Options: req.Options,
		Session: sess,
		Error:   req.Error,
		Source:  req.Source,
	}

	start := time.Now()
	output, dispatchErr := s.dispatcher.Dispatch(argv, nil)
	s.recordInvocation(&req, cmd.Name(), output, dispatchErr, time.Since(start))

	if dispatchErr != nil {
		// The command's error policy chose propagation; surface it as an
		// internal error without leaking details.
		return fiber.ErrInternalServerError
	}
	return c.JSON(DispatchResponse{Output: output, Empty: output == ""})
}

// buildSession loads the invoking actor from storage. An unknown or empty
// user ID yields a session without an authenticated actor.
func (s *Server) buildSession(req *DispatchRequest) (*session.Session, error) {
	sess := &session.Session{
		Platform:  req.Platform,
		ChannelID: req.ChannelID,
	}
	if req.UserID == "" {
		return sess, nil
	}

	var user models.User
	if err := s.db.Preload("Grants").First(&user, "id = ?", req.UserID).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "user not found")
	}

	grants := make([]string, 0, len(user.Grants))
	for _, grant := range user.Grants {
		grants = append(grants, grant.Permission)
	}
	sess.User = &session.User{
		ID:          user.ID,
		Name:        user.Name,
		Authority:   user.Authority,
		Permissions: grants,
	}
	return sess, nil
}

// recordInvocation appends one row to the audit log. A persistence failure
// is not worth failing the dispatch over.
func (s *Server) recordInvocation(req *DispatchRequest, name, output string, dispatchErr error, elapsed time.Duration) {
	args, _ := json.Marshal(req.Args)
	options, _ := json.Marshal(req.Options)

	row := models.Invocation{
		ID:         uuid.New().String(),
		Command:    name,
		UserID:     req.UserID,
		Args:       models.JSON(args),
		Options:    models.JSON(options),
		Status:     models.InvocationStatusOK,
		Output:     output,
		DurationMs: elapsed.Milliseconds(),
	}
	if dispatchErr != nil {
		row.Status = models.InvocationStatusError
		row.Error = dispatchErr.Error()
	}
	s.db.Create(&row)
}

// ListInvocations returns the most recent audit log entries.
func (s *Server) ListInvocations(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	if limit < 1 || limit > 500 {
		limit = 50
	}

	var rows []models.Invocation
	if err := s.db.Order("created_at DESC").Limit(limit).Find(&rows).Error; err != nil {
		return err
	}
	return c.JSON(rows)
}
