package server

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"docchat/internal/engine"
)

type chatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
	// Question is an accepted alias for Message.
	Question string `json:"question"`
	// TopK is accepted for client compatibility and ignored; retrieval
	// depth is configured server-side.
	TopK int `json:"top_k"`
}

type citationResponse struct {
	ID     int    `json:"id"`
	Source string `json:"source"`
}

type chatResponse struct {
	SessionID string             `json:"session_id"`
	Answer    string             `json:"answer"`
	Citations []citationResponse `json:"citations"`
}

type uploadResponse struct {
	SessionID string `json:"session_id"`
	Files     int    `json:"files"`
	Passages  int    `json:"passages"`
	Summary   string `json:"summary,omitempty"`
}

func errorJSON(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"error": msg})
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func (s *Server) handleChat(c *fiber.Ctx) error {
	var req chatRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "invalid request body")
	}
	message := req.Message
	if strings.TrimSpace(message) == "" {
		message = req.Question
	}
	sessionID := req.SessionID
	if strings.TrimSpace(sessionID) == "" {
		sessionID = uuid.NewString()
	}

	answer, err := s.chat.Answer(c.Context(), sessionID, message)
	if err != nil {
		if errors.Is(err, engine.ErrEmptyQuery) {
			return errorJSON(c, fiber.StatusBadRequest, "message must not be empty")
		}
		s.log.Error("answer failed", zap.String("session", sessionID), zap.Error(err))
		return errorJSON(c, fiber.StatusBadGateway, "failed to generate an answer")
	}

	citations := make([]citationResponse, len(answer.Citations))
	for i, cit := range answer.Citations {
		citations[i] = citationResponse{ID: cit.ID, Source: cit.Source}
	}
	return c.JSON(chatResponse{SessionID: sessionID, Answer: answer.Text, Citations: citations})
}

func (s *Server) handleUpload(c *fiber.Ctx) error {
	sessionID := c.FormValue("session_id")
	if strings.TrimSpace(sessionID) == "" {
		sessionID = uuid.NewString()
	}

	form, err := c.MultipartForm()
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "expected multipart form")
	}
	files := form.File["files"]
	if len(files) == 0 {
		return errorJSON(c, fiber.StatusBadRequest, "no files provided")
	}

	dir := s.uploads.UploadDir(sessionID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		s.log.Error("create upload dir", zap.String("session", sessionID), zap.Error(err))
		return errorJSON(c, fiber.StatusInternalServerError, "failed to store files")
	}
	for _, fh := range files {
		name := filepath.Base(fh.Filename)
		if err := c.SaveFile(fh, filepath.Join(dir, name)); err != nil {
			s.log.Error("save upload", zap.String("file", name), zap.Error(err))
			return errorJSON(c, fiber.StatusInternalServerError, "failed to store files")
		}
	}

	res, err := s.chat.ReindexSession(c.Context(), sessionID)
	if err != nil {
		s.log.Error("reindex session", zap.String("session", sessionID), zap.Error(err))
		return errorJSON(c, fiber.StatusInternalServerError, "failed to index uploads")
	}
	return c.JSON(uploadResponse{
		SessionID: sessionID,
		Files:     len(files),
		Passages:  res.Passages,
		Summary:   res.Summary,
	})
}

func (s *Server) handleClear(c *fiber.Ctx) error {
	var req struct {
		SessionID string `json:"session_id"`
	}
	if err := c.BodyParser(&req); err != nil || strings.TrimSpace(req.SessionID) == "" {
		return errorJSON(c, fiber.StatusBadRequest, "session_id is required")
	}
	s.chat.Clear(req.SessionID)
	return c.JSON(fiber.Map{"session_id": req.SessionID, "status": "cleared"})
}
