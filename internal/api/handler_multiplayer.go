package api

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"gamehost/internal/eventbus"
	"gamehost/internal/session"
	"gamehost/internal/storage"

	"github.com/gin-gonic/gin"
)

type MultiplayerHandler struct {
	orchestrator *session.Orchestrator
	storage      *storage.SessionStorage
	bus          eventbus.EventBus
}

func NewMultiplayerHandler(orch *session.Orchestrator, store *storage.SessionStorage, bus eventbus.EventBus) *MultiplayerHandler {
	return &MultiplayerHandler{
		orchestrator: orch,
		storage:      store,
		bus:          bus,
	}
}

// Start POST /multiplayer/start
func (h *MultiplayerHandler) Start(c *gin.Context) {
	var req StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	sess, err := h.orchestrator.Start(c.Request.Context(), session.StartParams{
		WorkspaceID: req.WorkspaceID,
		CompanyID:   callerCompanyID(c),
		MaxPlayers:  req.MaxPlayers,
		TTLMinutes:  req.TTLMinutes,
	})
	if err != nil {
		respondDomainError(c, err)
		return
	}

	respondData(c, http.StatusOK, StartSessionData{
		SessionID:  sess.ID,
		SessionURL: sess.SessionURL,
		ExpiresAt:  formatTime(sess.ExpiresAt),
		MaxPlayers: sess.MaxPlayers,
	})
}

// Stop POST /multiplayer/:id/stop
func (h *MultiplayerHandler) Stop(c *gin.Context) {
	id := c.Param("id")

	if err := h.orchestrator.Stop(c.Request.Context(), id, callerCompanyID(c)); err != nil {
		respondDomainError(c, err)
		return
	}

	respondMessage(c, http.StatusOK, "Multiplayer session stopped successfully")
}

// Status GET /multiplayer/:id/status
func (h *MultiplayerHandler) Status(c *gin.Context) {
	id := c.Param("id")

	res, err := h.orchestrator.GetStatus(c.Request.Context(), id, callerCompanyID(c))
	if err != nil {
		respondDomainError(c, err)
		return
	}

	respondData(c, http.StatusOK, newStatusData(res))
}

// Stats GET /multiplayer/stats
func (h *MultiplayerHandler) Stats(c *gin.Context) {
	stats, err := h.orchestrator.Stats(c.Request.Context(), callerCompanyID(c))
	if err != nil {
		respondDomainError(c, err)
		return
	}

	respondData(c, http.StatusOK, stats)
}

// Active GET /multiplayer/active
func (h *MultiplayerHandler) Active(c *gin.Context) {
	sessions, err := h.orchestrator.ListActive(c.Request.Context(), callerCompanyID(c))
	if err != nil {
		respondDomainError(c, err)
		return
	}

	data := ActiveListData{
		Sessions: make([]ActiveSessionData, 0, len(sessions)),
		Count:    len(sessions),
	}
	for _, sess := range sessions {
		data.Sessions = append(data.Sessions, newActiveSessionData(sess))
	}

	respondData(c, http.StatusOK, data)
}

// Upload POST /multiplayer/:id/upload
func (h *MultiplayerHandler) Upload(c *gin.Context) {
	id := c.Param("id")

	sess, ws, err := h.orchestrator.AuthorizeSession(c.Request.Context(), id, callerCompanyID(c))
	if err != nil {
		respondDomainError(c, err)
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respondValidation(c, map[string]string{"file": "file is required"})
		return
	}

	filename := c.PostForm("filename")
	if filename == "" {
		filename = fileHeader.Filename
	}

	f, err := fileHeader.Open()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to read uploaded file")
		return
	}
	defer f.Close()

	info, err := h.storage.Upload(c.Request.Context(), ws.CompanyID, ws.ID, sess.ID, filename, f, fileHeader.Size)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	respondData(c, http.StatusOK, info)
}

// ListFiles GET /multiplayer/:id/files
func (h *MultiplayerHandler) ListFiles(c *gin.Context) {
	id := c.Param("id")

	sess, ws, err := h.orchestrator.AuthorizeSession(c.Request.Context(), id, callerCompanyID(c))
	if err != nil {
		respondDomainError(c, err)
		return
	}

	files, err := h.storage.List(c.Request.Context(), ws.CompanyID, ws.ID, sess.ID)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	respondData(c, http.StatusOK, FileListData{Files: files, Count: len(files)})
}

// Download GET /multiplayer/:id/download/:filename
func (h *MultiplayerHandler) Download(c *gin.Context) {
	id := c.Param("id")
	filename := c.Param("filename")

	sess, ws, err := h.orchestrator.AuthorizeSession(c.Request.Context(), id, callerCompanyID(c))
	if err != nil {
		respondDomainError(c, err)
		return
	}

	rc, info, err := h.storage.Open(c.Request.Context(), ws.CompanyID, ws.ID, sess.ID, filename)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	defer rc.Close()

	c.DataFromReader(http.StatusOK, info.Size, "application/octet-stream", rc, map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", info.Filename),
	})
}

// StreamEvents GET /multiplayer/:id/events
// 通过 SSE 向客户端推送会话生命周期事件
func (h *MultiplayerHandler) StreamEvents(c *gin.Context) {
	id := c.Param("id")

	sess, _, err := h.orchestrator.AuthorizeSession(c.Request.Context(), id, callerCompanyID(c))
	if err != nil {
		respondDomainError(c, err)
		return
	}

	eventCh, err := h.bus.Subscribe(c.Request.Context(), sess.WorkspaceID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to subscribe to session events")
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")

	// 长连接需要禁用服务器级别的 WriteTimeout，否则会被强行断开
	rc := http.NewResponseController(c.Writer)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		slog.Warn("Failed to disable write deadline for SSE", "error", err)
	}

	c.Stream(func(w io.Writer) bool {
		select {
		case event, ok := <-eventCh:
			if !ok {
				return false
			}

			sseEvent := SSEEvent{
				Type:      string(event.Type),
				SessionID: event.SessionID,
				Payload:   event.Payload,
				Timestamp: formatTime(event.Timestamp),
			}

			data, err := json.Marshal(sseEvent)
			if err != nil {
				return false
			}

			c.SSEvent("message", string(data))
			return true

		case <-c.Request.Context().Done():
			return false

		case <-time.After(30 * time.Second):
			// 心跳保持连接
			c.SSEvent("ping", "")
			return true
		}
	})
}
