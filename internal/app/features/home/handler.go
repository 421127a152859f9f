package home

import (
	"net/http"

	"github.com/dalemusser/pharmahub/internal/app/system/auth"
	"github.com/dalemusser/pharmahub/internal/app/system/bulkimport"
	"github.com/dalemusser/pharmahub/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
)

// Handler holds dependencies needed to serve the home page.
type Handler struct {
	Registry *bulkimport.Registry
	Log      *zap.Logger
}

func NewHandler(reg *bulkimport.Registry, logger *zap.Logger) *Handler {
	return &Handler{
		Registry: reg,
		Log:      logger,
	}
}

type entityCard struct {
	Label       string
	ImportURL   string
	TemplateURL string
	Requires    []string
	BatchSize   int
}

type homeData struct {
	viewdata.BaseVM
	Entities []entityCard
}

func entityCards(reg *bulkimport.Registry) []entityCard {
	profiles := reg.All()
	cards := make([]entityCard, 0, len(profiles))
	for _, p := range profiles {
		req := make([]string, len(p.Requires))
		for i, k := range p.Requires {
			req[i] = k.Label()
		}
		cards = append(cards, entityCard{
			Label:       p.Label,
			ImportURL:   "/import/" + string(p.Entity),
			TemplateURL: "/import/" + string(p.Entity) + "/template",
			Requires:    req,
			BatchSize:   p.BatchSize,
		})
	}
	return cards
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET / – landing                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeRoot(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.CurrentUser(r); !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	templates.Render(w, r, "home", homeData{
		BaseVM:   viewdata.NewBaseVM(r, "Importación masiva", "/"),
		Entities: entityCards(h.Registry),
	})
}
