package handlers

import (
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
)

const statusTemplateName = "status"

const statusHTML = `<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>mockai</title></head>
<body>
<h1>mockai {{.Version}}</h1>
<p>Status: running</p>
<p>API key: {{if .KeyConfigured}}configured{{else}}using the default placeholder, set API_KEY{{end}}</p>
<p>Response style: {{.Style}} &middot; session memory: {{if .Memory}}on{{else}}off{{end}}</p>
<h2>Models ({{len .Models}})</h2>
<ul>{{range .Models}}<li><code>{{.ID}}</code></li>{{end}}</ul>
<h2>Endpoints</h2>
<ul>
<li><code>GET /v1/models</code></li>
<li><code>POST /v1/chat/completions</code></li>
<li><code>GET /v1/session</code></li>
</ul>
</body>
</html>`

func StatusTemplate() *template.Template {
	return template.Must(template.New(statusTemplateName).Parse(statusHTML))
}

func (h *Handler) Status(c *gin.Context) {
	c.HTML(http.StatusOK, statusTemplateName, gin.H{
		"Version":       h.Version,
		"KeyConfigured": h.KeyConfigured,
		"Style":         h.Style,
		"Memory":        h.ChatSvc.MemoryEnabled(),
		"Models":        h.Catalog.List(),
	})
}

func (h *Handler) Favicon(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
