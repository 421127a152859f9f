package viewdata

import (
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/pharmahub/internal/app/system/auth"
)

func TestNewBaseVM_SignedIn(t *testing.T) {
	r := httptest.NewRequest("GET", "/import/municipalities", nil)
	r = auth.WithTestUser(r, &auth.SessionUser{ID: "7", Name: "Ana Pérez", Role: "operador"})

	vm := NewBaseVM(r, "Importar municipios", "/")
	if !vm.IsLoggedIn || vm.UserName != "Ana Pérez" || vm.Role != "operador" {
		t.Errorf("user fields = %+v", vm)
	}
	if vm.Title != "Importar municipios" || vm.SiteName != DefaultSiteName {
		t.Errorf("page fields = %+v", vm)
	}
}

func TestNewBaseVM_Anonymous(t *testing.T) {
	r := httptest.NewRequest("GET", "/login", nil)
	vm := NewBaseVM(r, "Ingresar", "/")
	if vm.IsLoggedIn || vm.UserName != "" {
		t.Errorf("anonymous request produced user data: %+v", vm)
	}
}
