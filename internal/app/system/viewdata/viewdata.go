// internal/app/system/viewdata/viewdata.go
package viewdata

import (
	"net/http"

	"github.com/dalemusser/pharmahub/internal/app/system/auth"
	"github.com/dalemusser/waffle/pantry/httpnav"
	"github.com/gorilla/csrf"
)

// DefaultSiteName is shown in the header when none is configured.
const DefaultSiteName = "PharmaHub"

var siteName = DefaultSiteName

// Init sets the site name shown on every page. Call once from bootstrap.
func Init(name string) {
	if name != "" {
		siteName = name
	}
}

// BaseVM contains common fields for all view models.
// Embed this struct in your feature-specific view models.
//
//	type importPageData struct {
//	    viewdata.BaseVM
//	    // page-specific fields...
//	}
type BaseVM struct {
	SiteName string

	// User context (from auth middleware)
	IsLoggedIn bool
	Role       string
	UserName   string

	// Page context
	Title       string
	BackURL     string
	CurrentPath string

	// Token for form submission
	CSRFToken string
}

// NewBaseVM creates a BaseVM for a page. backDefault is used for the back
// link when the request carries no return address.
func NewBaseVM(r *http.Request, title, backDefault string) BaseVM {
	vm := BaseVM{
		SiteName:    siteName,
		Title:       title,
		BackURL:     httpnav.ResolveBackURL(r, backDefault),
		CurrentPath: httpnav.CurrentPath(r),
		CSRFToken:   csrf.Token(r),
	}
	if u, ok := auth.CurrentUser(r); ok {
		vm.IsLoggedIn = true
		vm.Role = u.Role
		vm.UserName = u.Name
	}
	return vm
}
