package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type modelObject struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Created int64  `json:"created"`
	OwnedBy string `json:"owned_by"`
}

func (h *Handler) ListModels(c *gin.Context) {
	now := time.Now().Unix()
	models := h.Catalog.List()
	data := make([]modelObject, 0, len(models))
	for _, m := range models {
		data = append(data, modelObject{ID: m.ID, Object: "model", Created: now, OwnedBy: m.OwnedBy})
	}
	c.JSON(http.StatusOK, gin.H{
		"object": "list",
		"data":   data,
	})
}
