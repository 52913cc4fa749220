package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/mockai/internal/common"
	"github.com/suPer8Hu/mockai/internal/session"
)

// GetSession shows what the server remembers about the calling client.
func (h *Handler) GetSession(c *gin.Context) {
	key := sessionKey(c)
	ctx := c.Request.Context()

	history, err := h.ChatSvc.History(ctx, key)
	if err != nil {
		common.Fail(c, common.InternalError(err))
		return
	}
	if history == nil {
		history = []session.Turn{}
	}

	resp := gin.H{
		"session_id":     key,
		"memory_enabled": h.ChatSvc.MemoryEnabled(),
		"history":        history,
	}

	if h.Transcripts != nil {
		limit, _ := strconv.Atoi(c.Query("limit"))
		rows, err := h.Transcripts.ListTranscripts(ctx, key, limit, c.Query("before_id"))
		if err != nil {
			common.Fail(c, common.InternalError(err))
			return
		}
		var nextBeforeID string
		if len(rows) > 0 {
			nextBeforeID = rows[len(rows)-1].ID
		}
		resp["transcripts"] = rows
		resp["next_before_id"] = nextBeforeID
	}

	c.JSON(http.StatusOK, resp)
}
