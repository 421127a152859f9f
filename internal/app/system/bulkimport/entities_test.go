package bulkimport

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/dalemusser/pharmahub/internal/app/system/sheet"
)

func TestMapping_TechnicalKeyFallback(t *testing.T) {
	row := sheet.Row{"name": "Chacao", "code": float64(1203)}
	c := municipalityProfile().Map(row, Context{StateID: "7"}).(MunicipalityCandidate)

	if c.Name != "Chacao" || c.Code != "1203" || c.StateID != "7" {
		t.Errorf("candidate = %+v", c)
	}
	if !c.Status {
		t.Error("status should default to true")
	}
}

func TestMapping_LocalizedHeaderWins(t *testing.T) {
	row := sheet.Row{"Nombre": "Sucursal Norte", "name": "ignorado", "Activo": "NO", "status": "SI"}
	c := subPharmacyProfile().Map(row, Context{PharmacyID: "3"}).(SubPharmacyCandidate)

	if c.Name != "Sucursal Norte" {
		t.Errorf("Name = %q", c.Name)
	}
	// NO is not truthy, so the entity default applies even though the
	// technical column says SI.
	if !c.Status {
		t.Error("status should fall back to the default true")
	}
}

func TestMapping_Defaults(t *testing.T) {
	empty := sheet.Row{}
	tests := []struct {
		name    string
		profile Profile
		ctx     Context
		check   func(Candidate) bool
	}{
		{"municipality status true", municipalityProfile(), Context{StateID: "1"},
			func(c Candidate) bool { return c.(MunicipalityCandidate).Status }},
		{"state status true", stateProfile(), Context{CountryID: "1"},
			func(c Candidate) bool { return c.(StateCandidate).Status }},
		{"sub-pharmacy status true", subPharmacyProfile(), Context{PharmacyID: "1"},
			func(c Candidate) bool { return c.(SubPharmacyCandidate).Status }},
		{"pharmacy is_chain false", pharmacyProfile(), Context{DistributorID: "1"},
			func(c Candidate) bool { return !c.(PharmacyCandidate).IsChain }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !tt.check(tt.profile.Map(empty, tt.ctx)) {
				t.Errorf("default not applied for %s", tt.profile.Entity)
			}
		})
	}
}

func TestMapping_PharmacyTruthyChain(t *testing.T) {
	for _, v := range []any{"SI", "TRUE", "true", true} {
		c := pharmacyProfile().Map(sheet.Row{"Es Cadena": v}, Context{DistributorID: "2"}).(PharmacyCandidate)
		if !c.IsChain {
			t.Errorf("is_chain for %#v = false, want true", v)
		}
	}
	for _, v := range []any{"NO", "x", false, float64(1)} {
		c := pharmacyProfile().Map(sheet.Row{"is_chain": v}, Context{DistributorID: "2"}).(PharmacyCandidate)
		if c.IsChain {
			t.Errorf("is_chain for %#v = true, want default false", v)
		}
	}
}

// Status columns only ever switch a record on. A falsy cell reads the same
// as an empty one, so every status entity stays active.
func TestMapping_FalsyStatusKeepsDefault(t *testing.T) {
	status := map[string]func(sheet.Row) bool{
		"municipality": func(r sheet.Row) bool {
			return municipalityProfile().Map(r, Context{StateID: "1"}).(MunicipalityCandidate).Status
		},
		"state": func(r sheet.Row) bool {
			return stateProfile().Map(r, Context{CountryID: "1"}).(StateCandidate).Status
		},
		"sub-pharmacy": func(r sheet.Row) bool {
			return subPharmacyProfile().Map(r, Context{PharmacyID: "1"}).(SubPharmacyCandidate).Status
		},
	}
	for name, get := range status {
		for _, v := range []any{"NO", "no", "FALSE", false, float64(0)} {
			if !get(sheet.Row{"Nombre": "x", hdrStatus: v}) {
				t.Errorf("%s: Activo=%#v gave status false, want default true", name, v)
			}
			if !get(sheet.Row{"Nombre": "x", "status": v}) {
				t.Errorf("%s: status=%#v gave status false, want default true", name, v)
			}
		}
	}
}

func TestMapping_NumericIdentifiersStayText(t *testing.T) {
	row := sheet.Row{"Teléfono": float64(4121234567), "RIF": "J-00012345-6"}
	c := pharmacyProfile().Map(row, Context{DistributorID: "5"}).(PharmacyCandidate)
	if c.Phone != "4121234567" || c.IdentificationNumber != "J-00012345-6" {
		t.Errorf("phone=%q rif=%q", c.Phone, c.IdentificationNumber)
	}
}

func TestCandidateJSON_UsesTechnicalKeys(t *testing.T) {
	c := MunicipalityCandidate{StateID: "12", Name: "Sucre", Code: "", Status: true}
	b, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want := `{"state_id":12,"name":"Sucre","code":"","status":true}`
	if string(b) != want {
		t.Errorf("json = %s, want %s", b, want)
	}
}

func TestMapAll_RequiresContext(t *testing.T) {
	rows := []sheet.Row{{"Nombre": "Uno"}}

	_, err := municipalityProfile().MapAll(rows, Context{CountryID: "1"})
	if !errors.Is(err, ErrContextMissing) {
		t.Fatalf("expected ErrContextMissing, got %v", err)
	}
	var mce *MissingContextError
	if !errors.As(err, &mce) || len(mce.Keys) != 1 || mce.Keys[0] != KeyState {
		t.Errorf("missing keys = %+v", mce)
	}
	if err.Error() != "Seleccione primero: Estado" {
		t.Errorf("message = %q", err.Error())
	}
}

func TestMapAll_ContextChangeRederives(t *testing.T) {
	rows := []sheet.Row{{"Nombre": "Uno"}, {"Nombre": "Dos"}}
	p := municipalityProfile()

	first, err := p.MapAll(rows, Context{StateID: "1"})
	if err != nil {
		t.Fatalf("MapAll: %v", err)
	}
	second, err := p.MapAll(rows, Context{StateID: "2"})
	if err != nil {
		t.Fatalf("MapAll: %v", err)
	}
	for i := range second {
		if second[i].(MunicipalityCandidate).StateID != "2" {
			t.Errorf("row %d kept stale state_id", i)
		}
		if first[i].(MunicipalityCandidate).StateID != "1" {
			t.Errorf("row %d of the first mapping changed", i)
		}
	}
}

func TestRegistry_LookupAndTuning(t *testing.T) {
	r := NewRegistry(map[Entity]Tuning{
		Pharmacies: {BatchSize: 25},
	})

	p, err := r.Lookup("PHARMACIES")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if p.BatchSize != 25 || p.BatchDelay != 500*time.Millisecond {
		t.Errorf("tuned profile = %d / %v", p.BatchSize, p.BatchDelay)
	}

	m, _ := r.Lookup("municipalities")
	if m.BatchSize != 50 || m.BatchDelay != 300*time.Millisecond {
		t.Errorf("municipalities = %d / %v", m.BatchSize, m.BatchDelay)
	}

	if _, err := r.Lookup("countries"); !errors.Is(err, ErrUnknownEntity) {
		t.Errorf("expected ErrUnknownEntity, got %v", err)
	}
	if got := len(r.All()); got != 4 {
		t.Errorf("All() returned %d profiles", got)
	}
}

func TestProfiles_CellsMatchColumns(t *testing.T) {
	for _, p := range NewRegistry(nil).All() {
		c := p.Map(sheet.Row{}, Context{})
		if len(c.Cells()) != len(p.Columns) {
			t.Errorf("%s: %d cells for %d columns", p.Entity, len(c.Cells()), len(p.Columns))
		}
		if n := len(p.Samples); n < 1 || n > 3 {
			t.Errorf("%s: %d sample rows", p.Entity, n)
		}
	}
}
