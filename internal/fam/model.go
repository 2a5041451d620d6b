// Package fam formulates the fleet assignment models (FAM, IFAM and
// ISD-IFAM) over the time-space network and extracts solved plans.
package fam

import (
	"fleet-planning-service/internal/domain"
	"fleet-planning-service/internal/itinerary"
	"fleet-planning-service/internal/milp"
	"fleet-planning-service/internal/network"
	"fmt"
	"strings"
)

type Variant int

const (
	FAM Variant = iota
	IFAM
	ISDIFAM
)

func (v Variant) String() string {
	switch v {
	case FAM:
		return "fam"
	case IFAM:
		return "ifam"
	case ISDIFAM:
		return "isd-ifam"
	}
	return fmt.Sprintf("variant(%d)", int(v))
}

func ParseVariant(s string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fam":
		return FAM, nil
	case "ifam":
		return IFAM, nil
	case "isd-ifam", "isd_ifam", "isdifam":
		return ISDIFAM, nil
	}
	return 0, fmt.Errorf("parse variant %q: %w", s, domain.ErrInvalidInput)
}

// usesItineraries reports whether the variant models passenger flows.
func (v Variant) usesItineraries() bool { return v != FAM }

// AssignKey indexes x[flight, fleet].
type AssignKey struct {
	Flight int
	Fleet  string
}

// RONKey indexes RON[station, fleet].
type RONKey struct {
	Station string
	Fleet   string
}

// Params are the economic and operational knobs shared by all variants.
type Params struct {
	TurnaroundMinutes int
	RecaptureRatio    float64
	Corrections       itinerary.CorrectionRates
}

func DefaultParams() Params {
	return Params{
		RecaptureRatio: 0.9,
		Corrections:    itinerary.CorrectionRates{IncreasePct: 15, DecreasePct: 5},
	}
}

// Input is the read-only data of one optimization run.
type Input struct {
	Flights     []domain.Flight
	Fleets      []domain.Fleet
	Itineraries []domain.Itinerary
	// Costs overrides distance times cost-per-mile for listed pairs.
	Costs  map[AssignKey]float64
	Params Params
}

// Model is an assembled formulation together with the typed handles
// needed to read a solution back.
type Model struct {
	Variant     Variant
	Problem     *milp.Model
	Network     *network.Network
	Flights     []domain.Flight
	Fleets      []domain.Fleet
	Itineraries []domain.Itinerary
	Params      Params

	X       map[AssignKey]milp.Var
	RON     map[RONKey]milp.Var
	Y       map[network.ArcKey]milp.Var
	Spilled map[int]milp.Var
	Flow    map[itinerary.SpillKey]milp.Var
	Z       map[int]milp.Var

	Targets     map[int][]int
	Corrections map[itinerary.CorrectionKey]int
	DummyID     int
}
