package chi

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"go.uber.org/zap"
)

//go:embed assets/widget.html.tmpl
var assetsFS embed.FS

var widgetTemplate = template.Must(template.ParseFS(assetsFS, "assets/widget.html.tmpl"))

// WidgetConfig holds the user-visible texts of the chat widget.
type WidgetConfig struct {
	Title           string
	Placeholder     string
	FallbackMessage string
	MaxMessageChars int
}

func (c WidgetConfig) withDefaults() WidgetConfig {
	if c.Title == "" {
		c.Title = "Assistant VIEW Avocats"
	}
	if c.Placeholder == "" {
		c.Placeholder = "Posez votre question..."
	}
	return c
}

// Widget handles GET /.
func (s *Server) Widget(w http.ResponseWriter, _ *http.Request) {
	var buf bytes.Buffer
	if err := widgetTemplate.Execute(&buf, s.opts.Widget); err != nil {
		s.logger.Error("render widget", zap.Error(err))
		writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
