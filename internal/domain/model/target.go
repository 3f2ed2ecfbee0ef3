//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"errors"
	"strings"
	"time"
)

// Target is an astronomical object catalogued for observation.
type Target struct {
	ID          int64      `json:"id,omitempty"`
	Name        string     `json:"name"`
	User        *User      `json:"user,omitempty"`
	RA          float64    `json:"ra"`
	Dec         float64    `json:"dec"`
	Coordinates string     `json:"coordinates,omitempty"`
	Redshift    *float64   `json:"redshift,omitempty"`
	Notes       string     `json:"notes,omitempty"`
	Tags        []int64    `json:"tags,omitempty"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

// TargetCreate is the payload for creating a target.
type TargetCreate struct {
	Name     string   `json:"name"`
	RA       float64  `json:"ra"`
	Dec      float64  `json:"dec"`
	Redshift *float64 `json:"redshift,omitempty"`
	Notes    string   `json:"notes,omitempty"`
	Tags     []int64  `json:"tags,omitempty"`
}

// Validate checks the name and that coordinates are within the celestial sphere.
func (t TargetCreate) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return errors.New("name is required")
	}
	if t.RA < 0 || t.RA >= 360 {
		return errors.New("ra must be in [0, 360)")
	}
	if t.Dec < -90 || t.Dec > 90 {
		return errors.New("dec must be in [-90, 90]")
	}
	return nil
}

// TargetUpdate changes a target's coordinates or notes.
type TargetUpdate struct {
	RA    *float64 `json:"ra,omitempty"`
	Dec   *float64 `json:"dec,omitempty"`
	Notes *string  `json:"notes,omitempty"`
}

// TargetFilter narrows target listings.
type TargetFilter struct {
	ListOptions
	Name string
	Tags []int64
}

// SimbadData is the SIMBAD record matched to a target's name. Fluxes are magnitudes per band.
type SimbadData struct {
	RA        string   `json:"RA"`
	Dec       string   `json:"DEC"`
	Distance  *float64 `json:"distance"`
	MorphType *string  `json:"morphtype"`
	ObjType   *string  `json:"otype"`
	Parallax  *float64 `json:"parallax"`
	PM        *float64 `json:"pm"`
	PMRA      *float64 `json:"pmra"`
	PMDec     *float64 `json:"pmdec"`
	Velocity  *float64 `json:"velocity"`
	Redshift  *float64 `json:"z_value"`
	FluxU     *float64 `json:"flux_U"`
	FluxB     *float64 `json:"flux_B"`
	FluxV     *float64 `json:"flux_V"`
	FluxR     *float64 `json:"flux_R"`
	FluxI     *float64 `json:"flux_I"`
	FluxJ     *float64 `json:"flux_J"`
	FluxH     *float64 `json:"flux_H"`
	FluxK     *float64 `json:"flux_K"`
	FluxSDSSu *float64 `json:"flux_u"`
	FluxSDSSg *float64 `json:"flux_g"`
	FluxSDSSr *float64 `json:"flux_r"`
	FluxSDSSi *float64 `json:"flux_i"`
	FluxSDSSz *float64 `json:"flux_z"`
}

// SEDPoint is one photometric band of a target's spectral energy distribution.
// Frequency is in GHz and Wavelength in micrometres.
type SEDPoint struct {
	Filter     string    `json:"filter"`
	Flux       []float64 `json:"flux"`
	FluxErr    []float64 `json:"fluxe"`
	FluxV      []float64 `json:"fluxv"`
	Frequency  *float64  `json:"frequency,omitempty"`
	Wavelength *float64  `json:"wavelength,omitempty"`
}
