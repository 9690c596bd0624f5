package tracking

import (
	"net/http"

	"github.com/ignite/engage-tracker/internal/pkg/logger"
	"github.com/osteele/liquid"
)

const unsubscribePageTemplate = `<!DOCTYPE html>
<html>
<head><title>{{ title }}</title></head>
<body style="font-family:Arial,sans-serif;text-align:center;padding:50px;">
	<h1>{{ title }}</h1>
	<p>{{ message }}</p>
</body>
</html>`

// Pages renders the small HTML pages returned by the unsubscribe endpoint.
type Pages struct {
	tpl *liquid.Template
}

func NewPages() (*Pages, error) {
	engine := liquid.NewEngine()
	tpl, err := engine.ParseString(unsubscribePageTemplate)
	if err != nil {
		return nil, err
	}
	return &Pages{tpl: tpl}, nil
}

// Confirmation writes the 200 unsubscribe confirmation page.
func (p *Pages) Confirmation(w http.ResponseWriter) {
	p.render(w, http.StatusOK, "You have been unsubscribed",
		"You will no longer receive emails from us.")
}

// Error writes an HTML error page with the given status.
func (p *Pages) Error(w http.ResponseWriter, status int, message string) {
	p.render(w, status, "Something went wrong", message)
}

func (p *Pages) render(w http.ResponseWriter, status int, title, message string) {
	out, err := p.tpl.RenderString(liquid.Bindings{
		"title":   title,
		"message": message,
	})
	if err != nil {
		logger.Error("page render failed", "error", err)
		http.Error(w, message, status)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write([]byte(out))
}
