package views

import (
	"net/http"

	"auction-house/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/csrf"
)

// Render fills the fields shared by every page and writes it. Flashes queued in
// the session come before the ones set on page.
func Render(c *gin.Context, status int, name string, page Page) {
	page.Identity = session.Identity(c)
	page.Flashes = append(session.Flashes(c), page.Flashes...)
	page.CSRFField = csrf.TemplateField(c.Request)
	c.HTML(status, name, page)
}

// RenderError shows the error page
func RenderError(c *gin.Context, status int, message string) {
	Render(c, status, PageError, Page{Title: http.StatusText(status), Message: message})
}
