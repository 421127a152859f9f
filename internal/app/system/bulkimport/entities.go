// internal/app/system/bulkimport/entities.go
package bulkimport

import (
	"time"

	"github.com/dalemusser/pharmahub/internal/app/clients/pharmaapi"
	"github.com/dalemusser/pharmahub/internal/app/system/sheet"
)

// Column headers shared by several entities.
const (
	hdrName   = "Nombre"
	hdrCode   = "Código"
	hdrStatus = "Activo"
	hdrMuni   = "Municipio"
	hdrAddr   = "Dirección"
	hdrPhone  = "Teléfono"
	hdrEmail  = "Correo"
)

// MunicipalityCandidate is one municipality for POST /municipalities/bulk.
type MunicipalityCandidate struct {
	StateID pharmaapi.ID `json:"state_id"`
	Name    string       `json:"name"`
	Code    string       `json:"code"`
	Status  bool         `json:"status"`
}

func (m MunicipalityCandidate) Cells() []string {
	return []string{m.Name, m.Code, yesNo(m.Status)}
}

func municipalityProfile() Profile {
	return Profile{
		Entity:       Municipalities,
		Label:        "Municipios",
		Endpoint:     "/municipalities/bulk",
		PluralKey:    "municipalities",
		BatchSize:    50,
		BatchDelay:   300 * time.Millisecond,
		Requires:     []ContextKey{KeyState},
		TemplateSlug: "municipios",
		Columns: []Column{
			{Header: hdrName, Key: "name", Width: 30},
			{Header: hdrCode, Key: "code", Width: 14},
			{Header: hdrStatus, Key: "status", Width: 10},
		},
		Samples: [][]any{
			{"Libertador", "MUN-001", "SI"},
			{"Chacao", "MUN-002", "SI"},
			{"Baruta", "MUN-003", "SI"},
		},
		Map: func(r sheet.Row, c Context) Candidate {
			return MunicipalityCandidate{
				StateID: c.StateID,
				Name:    r.Text(hdrName, "name"),
				Code:    r.Text(hdrCode, "code"),
				Status:  r.Bool(true, hdrStatus, "status"),
			}
		},
	}
}

// StateCandidate is one state or province for POST /states/bulk.
type StateCandidate struct {
	CountryID pharmaapi.ID `json:"country_id"`
	Name      string       `json:"name"`
	Code      string       `json:"code"`
	Status    bool         `json:"status"`
}

func (s StateCandidate) Cells() []string {
	return []string{s.Name, s.Code, yesNo(s.Status)}
}

func stateProfile() Profile {
	return Profile{
		Entity:       States,
		Label:        "Estados",
		Endpoint:     "/states/bulk",
		PluralKey:    "states",
		BatchSize:    50,
		BatchDelay:   300 * time.Millisecond,
		Requires:     []ContextKey{KeyCountry},
		TemplateSlug: "estados",
		Columns: []Column{
			{Header: hdrName, Key: "name", Width: 30},
			{Header: hdrCode, Key: "code", Width: 14},
			{Header: hdrStatus, Key: "status", Width: 10},
		},
		Samples: [][]any{
			{"Miranda", "MIR", "SI"},
			{"Zulia", "ZUL", "SI"},
		},
		Map: func(r sheet.Row, c Context) Candidate {
			return StateCandidate{
				CountryID: c.CountryID,
				Name:      r.Text(hdrName, "name"),
				Code:      r.Text(hdrCode, "code"),
				Status:    r.Bool(true, hdrStatus, "status"),
			}
		},
	}
}

// PharmacyCandidate is one pharmacy for POST /pharmacies/bulk. Location
// fields travel by name; the API resolves them.
type PharmacyCandidate struct {
	CountryName          string       `json:"country_name"`
	StateName            string       `json:"state_name"`
	MunicipalityName     string       `json:"municipality_name"`
	LegalName            string       `json:"legal_name"`
	CommercialName       string       `json:"commercial_name"`
	IdentificationNumber string       `json:"identification_number"`
	StreetAddress        string       `json:"street_address"`
	Phone                string       `json:"phone"`
	Email                string       `json:"email"`
	AdministratorName    string       `json:"administrator_name"`
	IsChain              bool         `json:"is_chain"`
	DistributorID        pharmaapi.ID `json:"distributor_id"`
}

func (p PharmacyCandidate) Cells() []string {
	return []string{
		p.CountryName, p.StateName, p.MunicipalityName,
		p.LegalName, p.CommercialName, p.IdentificationNumber,
		p.StreetAddress, p.Phone, p.Email, p.AdministratorName,
		yesNo(p.IsChain),
	}
}

func pharmacyProfile() Profile {
	return Profile{
		Entity:       Pharmacies,
		Label:        "Farmacias",
		Endpoint:     "/pharmacies/bulk",
		PluralKey:    "pharmacies",
		BatchSize:    10,
		BatchDelay:   500 * time.Millisecond,
		Requires:     []ContextKey{KeyDistributor},
		TemplateSlug: "farmacias",
		Columns: []Column{
			{Header: "País", Key: "country_name", Width: 16},
			{Header: "Estado", Key: "state_name", Width: 16},
			{Header: hdrMuni, Key: "municipality_name", Width: 18},
			{Header: "Razón Social", Key: "legal_name", Width: 30},
			{Header: "Nombre Comercial", Key: "commercial_name", Width: 26},
			{Header: "RIF", Key: "identification_number", Width: 16},
			{Header: hdrAddr, Key: "street_address", Width: 36},
			{Header: hdrPhone, Key: "phone", Width: 16},
			{Header: hdrEmail, Key: "email", Width: 26},
			{Header: "Administrador", Key: "administrator_name", Width: 24},
			{Header: "Es Cadena", Key: "is_chain", Width: 12},
		},
		Samples: [][]any{
			{"Venezuela", "Miranda", "Chacao", "Farmacia Los Palos Grandes C.A.", "Farmacia Los Palos",
				"J-12345678-9", "Av. Francisco de Miranda, Local 4", "02122856677", "contacto@lospalos.com",
				"María Pérez", "NO"},
			{"Venezuela", "Zulia", "Maracaibo", "Inversiones Salud 2020 C.A.", "FarmaSalud",
				"J-98765432-1", "Calle 72 con Av. 3E", "02617981234", "admin@farmasalud.com",
				"José González", "SI"},
		},
		Map: func(r sheet.Row, c Context) Candidate {
			return PharmacyCandidate{
				CountryName:          r.Text("País", "country_name"),
				StateName:            r.Text("Estado", "state_name"),
				MunicipalityName:     r.Text(hdrMuni, "municipality_name"),
				LegalName:            r.Text("Razón Social", "legal_name"),
				CommercialName:       r.Text("Nombre Comercial", "commercial_name"),
				IdentificationNumber: r.Text("RIF", "identification_number"),
				StreetAddress:        r.Text(hdrAddr, "street_address"),
				Phone:                r.Text(hdrPhone, "phone"),
				Email:                r.Text(hdrEmail, "email"),
				AdministratorName:    r.Text("Administrador", "administrator_name"),
				IsChain:              r.Bool(false, "Es Cadena", "is_chain"),
				DistributorID:        c.DistributorID,
			}
		},
	}
}

// SubPharmacyCandidate is one branch for POST /sub-pharmacies/bulk.
type SubPharmacyCandidate struct {
	PharmacyID       pharmaapi.ID `json:"pharmacy_id"`
	Name             string       `json:"name"`
	MunicipalityName string       `json:"municipality_name"`
	StreetAddress    string       `json:"street_address"`
	Phone            string       `json:"phone"`
	Email            string       `json:"email"`
	ManagerName      string       `json:"manager_name"`
	Status           bool         `json:"status"`
}

func (s SubPharmacyCandidate) Cells() []string {
	return []string{s.Name, s.MunicipalityName, s.StreetAddress, s.Phone, s.Email, s.ManagerName, yesNo(s.Status)}
}

func subPharmacyProfile() Profile {
	return Profile{
		Entity:       SubPharmacies,
		Label:        "Sucursales",
		Endpoint:     "/sub-pharmacies/bulk",
		PluralKey:    "sub_pharmacies",
		BatchSize:    10,
		BatchDelay:   500 * time.Millisecond,
		Requires:     []ContextKey{KeyPharmacy},
		TemplateSlug: "sucursales",
		Columns: []Column{
			{Header: hdrName, Key: "name", Width: 28},
			{Header: hdrMuni, Key: "municipality_name", Width: 18},
			{Header: hdrAddr, Key: "street_address", Width: 36},
			{Header: hdrPhone, Key: "phone", Width: 16},
			{Header: hdrEmail, Key: "email", Width: 26},
			{Header: "Encargado", Key: "manager_name", Width: 24},
			{Header: hdrStatus, Key: "status", Width: 10},
		},
		Samples: [][]any{
			{"Sucursal Centro", "Libertador", "Av. Urdaneta, Esq. Pelota", "02125641122", "centro@farmacia.com", "Ana Rodríguez", "SI"},
			{"Sucursal Este", "Sucre", "Av. Rómulo Gallegos, Edif. Sur", "02122348899", "este@farmacia.com", "Luis Martínez", "SI"},
		},
		Map: func(r sheet.Row, c Context) Candidate {
			return SubPharmacyCandidate{
				PharmacyID:       c.PharmacyID,
				Name:             r.Text(hdrName, "name"),
				MunicipalityName: r.Text(hdrMuni, "municipality_name"),
				StreetAddress:    r.Text(hdrAddr, "street_address"),
				Phone:            r.Text(hdrPhone, "phone"),
				Email:            r.Text(hdrEmail, "email"),
				ManagerName:      r.Text("Encargado", "manager_name"),
				Status:           r.Bool(true, hdrStatus, "status"),
			}
		},
	}
}

func yesNo(b bool) string {
	if b {
		return "SI"
	}
	return "NO"
}
