//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"errors"
	"strconv"
	"time"
)

// LulinFilter is a photometric filter of the Lulin telescopes.
type LulinFilter int

const (
	FilterU LulinFilter = 1
	FilterG LulinFilter = 2
	FilterR LulinFilter = 3
	FilterI LulinFilter = 4
	FilterZ LulinFilter = 5
)

var filterLabels = map[LulinFilter]string{
	FilterU: "u",
	FilterG: "g",
	FilterR: "r",
	FilterI: "i",
	FilterZ: "z",
}

func (f LulinFilter) Label() string {
	if l, ok := filterLabels[f]; ok {
		return l
	}
	return strconv.Itoa(int(f))
}

// LulinInstrument is a Lulin telescope or camera.
type LulinInstrument int

const (
	InstrumentLOT    LulinInstrument = 1
	InstrumentSLT    LulinInstrument = 2
	InstrumentTRIPOL LulinInstrument = 3
)

var instrumentLabels = map[LulinInstrument]string{
	InstrumentLOT:    "LOT",
	InstrumentSLT:    "SLT",
	InstrumentTRIPOL: "TRIPOL",
}

func (i LulinInstrument) Label() string {
	if l, ok := instrumentLabels[i]; ok {
		return l
	}
	return strconv.Itoa(int(i))
}

// LulinCodeWindow is how far past the start date a compiled schedule reaches.
const LulinCodeWindow = 64 * time.Hour

// LulinRun is one target's exposure plan within an observation.
// Observation holds the observation's name, not its ID.
type LulinRun struct {
	ID           int64               `json:"id"`
	Observation  string              `json:"observation"`
	Target       *Target             `json:"target,omitempty"`
	Priority     ObservationPriority `json:"priority"`
	Filter       *LulinFilter        `json:"filter"`
	Binning      int                 `json:"binning"`
	Frames       int                 `json:"frames"`
	Instrument   *LulinInstrument    `json:"instrument"`
	ExposureTime int                 `json:"exposure_time"`
	StartDate    *time.Time          `json:"start_date"`
	EndDate      *time.Time          `json:"end_date"`
	Status       int                 `json:"status"`
}

// LulinRunCreate adds runs for one or more targets to an observation.
type LulinRunCreate struct {
	Priority     ObservationPriority `json:"priority"`
	Filter       LulinFilter         `json:"filter"`
	Binning      int                 `json:"binning"`
	Frames       int                 `json:"frames"`
	Instrument   LulinInstrument     `json:"instrument"`
	ExposureTime int                 `json:"exposure_time"`
	Targets      []int64             `json:"targets"`
}

// Validate checks the enumerations, the exposure plan and that targets are given.
func (l LulinRunCreate) Validate() error {
	if len(l.Targets) == 0 {
		return errors.New("at least one target is required")
	}
	if _, ok := priorityLabels[l.Priority]; !ok {
		return errors.New("priority must be one of HIGH, MEDIUM, LOW, TOO")
	}
	if _, ok := filterLabels[l.Filter]; !ok {
		return errors.New("filter must be one of u, g, r, i, z")
	}
	if _, ok := instrumentLabels[l.Instrument]; !ok {
		return errors.New("instrument must be one of LOT, SLT, TRIPOL")
	}
	if l.Binning < 1 || l.Frames < 1 || l.ExposureTime < 1 {
		return errors.New("binning, frames and exposure_time must be positive")
	}
	return nil
}

// LulinRunUpdate carries partial run changes.
type LulinRunUpdate struct {
	Priority     *ObservationPriority `json:"priority,omitempty"`
	Filter       *LulinFilter         `json:"filter,omitempty"`
	Binning      *int                 `json:"binning,omitempty"`
	Frames       *int                 `json:"frames,omitempty"`
	Instrument   *LulinInstrument     `json:"instrument,omitempty"`
	ExposureTime *int                 `json:"exposure_time,omitempty"`
	StartDate    *time.Time           `json:"start_date,omitempty"`
	EndDate      *time.Time           `json:"end_date,omitempty"`
}

// Validate rejects unknown enumeration values and non-positive counts.
func (l LulinRunUpdate) Validate() error {
	if l.Priority != nil {
		if _, ok := priorityLabels[*l.Priority]; !ok {
			return errors.New("priority must be one of HIGH, MEDIUM, LOW, TOO")
		}
	}
	if l.Filter != nil {
		if _, ok := filterLabels[*l.Filter]; !ok {
			return errors.New("filter must be one of u, g, r, i, z")
		}
	}
	if l.Instrument != nil {
		if _, ok := instrumentLabels[*l.Instrument]; !ok {
			return errors.New("instrument must be one of LOT, SLT, TRIPOL")
		}
	}
	for _, n := range []*int{l.Binning, l.Frames, l.ExposureTime} {
		if n != nil && *n < 1 {
			return errors.New("binning, frames and exposure_time must be positive")
		}
	}
	if l.StartDate != nil && l.EndDate != nil && !l.EndDate.After(*l.StartDate) {
		return errors.New("end_date must be after start_date")
	}
	return nil
}
