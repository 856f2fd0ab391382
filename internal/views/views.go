package views

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"strings"
	"time"

	"auction-house/internal/models"
	"auction-house/internal/session"

	"github.com/gin-gonic/gin/render"
	"github.com/shopspring/decimal"
)

//go:embed templates/*.html
var templateFS embed.FS

const layoutFile = "templates/layout.html"

// Page names, one per template file besides the layout
const (
	PageIndex    = "index"
	PageDetails  = "details"
	PageFinished = "finished"
	PageForm     = "form"
	PageLogin    = "login"
	PageRegister = "register"
	PageError    = "error"
)

// Page is the data every template is executed with. Handlers fill the fields
// their page needs; the layout only reads the common ones.
type Page struct {
	Title     string
	Identity  models.Identity
	Flashes   []session.FlashMessage
	CSRFField template.HTML

	// Base is "" for the public pages and "/my" for the owner's pages
	Base string
	Own  bool

	Auctions   []models.Auction
	Auction    *models.Auction
	Highest    *models.Offer
	MinimumBid decimal.Decimal
	IsOwner    bool

	Form   any
	Action string

	Username string
	Errors   map[string]string
	Message  string
}

// Funcs are the helpers available to every template
var Funcs = template.FuncMap{
	"money": func(d decimal.Decimal) string {
		return d.StringFixed(2)
	},
	"datetime": func(t time.Time) string {
		return t.UTC().Format("2006-01-02 15:04 UTC")
	},
}

// Renderer implements gin's render.HTMLRender over the embedded templates.
// Each page is parsed together with the layout and executed through it.
type Renderer struct {
	pages map[string]*template.Template
}

// NewRenderer parses every embedded page
func NewRenderer() (*Renderer, error) {
	files, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("views: listing templates: %w", err)
	}

	layout, err := template.New("layout").Funcs(Funcs).ParseFS(templateFS, layoutFile)
	if err != nil {
		return nil, fmt.Errorf("views: parsing layout: %w", err)
	}

	r := &Renderer{pages: make(map[string]*template.Template, len(files))}
	for _, f := range files {
		if f == layoutFile {
			continue
		}
		name := strings.TrimSuffix(strings.TrimPrefix(f, "templates/"), ".html")

		base, err := layout.Clone()
		if err != nil {
			return nil, fmt.Errorf("views: cloning layout for %s: %w", name, err)
		}
		page, err := base.ParseFS(templateFS, f)
		if err != nil {
			return nil, fmt.Errorf("views: parsing %s: %w", name, err)
		}
		r.pages[name] = page
	}
	return r, nil
}

// Instance returns the render for page name. Unknown names fall back to the
// error page so a typo never panics mid-request.
func (r *Renderer) Instance(name string, data any) render.Render {
	tmpl, ok := r.pages[name]
	if !ok {
		tmpl = r.pages[PageError]
		data = Page{Title: "Error", Message: "Something went wrong."}
	}
	return render.HTML{Template: tmpl, Name: "layout", Data: data}
}
