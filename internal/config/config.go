// Package config holds the model parameters for a simulation run.
// Parameters are read once at startup and never mutated by the simulation.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrInvalid is returned (wrapped) by Validate for any rejected parameter.
var ErrInvalid = errors.New("invalid parameters")

// Params is the complete, read-only parameter set of the model.
type Params struct {
	Seed     int64  `yaml:"seed"`      // 0 = seed from crypto/rand
	MaxTicks uint64 `yaml:"max_ticks"` // 0 = run until stopped or extinct

	// Lifecycle
	AverageAge float64 `yaml:"average_age"`
	SDAge      float64 `yaml:"sd_age"` // fraction of AverageAge
	Io         float64 `yaml:"io"`     // resources required to reproduce
	IbiTau     int     `yaml:"ibi_tau"`

	// Reproduction
	IntervalGatedReproduction bool      `yaml:"interval_gated_reproduction"`
	SexualReproduction        bool      `yaml:"sexual_reproduction"`
	CarryOverResources        bool      `yaml:"carry_over_resources"`
	MaxPopulation             int       `yaml:"max_population"`
	MutationRate              float64   `yaml:"mutation_rate"`
	OfferArray                []float64 `yaml:"offer_array"`
	DispersalRate             float64   `yaml:"dispersal_rate"`
	DispersalRadius           int       `yaml:"dispersal_radius"`

	// Groups
	MaxGroupSize             int     `yaml:"max_group_size"`
	MinGroupSize             int     `yaml:"min_group_size"`
	GlobalFissionProbability float64 `yaml:"global_fission_probability"`
	GroupRadius              int     `yaml:"group_radius"`

	// Space
	GridWidth  int  `yaml:"grid_width"`
	GridHeight int  `yaml:"grid_height"`
	Toroidal   bool `yaml:"toroidal"`

	// Startup population
	InitialGroups           int     `yaml:"initial_groups"`
	InitialGroupSize        int     `yaml:"initial_group_size"`
	InitialOffer            float64 `yaml:"initial_offer"`
	InitialAccept           float64 `yaml:"initial_accept"`
	RandomInitialStrategies bool    `yaml:"random_initial_strategies"`
	Habitat                 Habitat `yaml:"habitat"`

	// Ultimatum game endowment
	Endowment Endowment `yaml:"endowment"`

	// Analytics
	BurnInTicks         uint64 `yaml:"burn_in_ticks"`
	RejectionSampleSize int    `yaml:"rejection_sample_size"`
	SamplingInterval    uint64 `yaml:"sampling_interval"`

	// Presentation / debugging
	DynamicGroupColor bool `yaml:"dynamic_group_color"`
	CheckInvariants   bool `yaml:"check_invariants"`
}

// Endowment parameterizes the truncated-normal endowment drawn for every
// proposer/responder pairing.
type Endowment struct {
	Mean  float64 `yaml:"mean"`
	SD    float64 `yaml:"sd"`
	Lower float64 `yaml:"lower"`
	Upper float64 `yaml:"upper"`
}

// Habitat controls noise-weighted placement of the initial groups.
type Habitat struct {
	Enabled     bool    `yaml:"enabled"`
	Octaves     int     `yaml:"octaves"`
	Frequency   float64 `yaml:"frequency"`
	Persistence float64 `yaml:"persistence"`
	Threshold   float64 `yaml:"threshold"` // cells below this suitability are never seeded
}

// DefaultOfferArray is the discretization ladder used for mutation and binning.
func DefaultOfferArray() []float64 {
	return []float64{0.0, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0}
}

// Default returns a reasonable starting configuration.
func Default() Params {
	return Params{
		Seed:     0,
		MaxTicks: 0,

		AverageAge: 100,
		SDAge:      0.1,
		Io:         10,
		IbiTau:     10,

		IntervalGatedReproduction: true,
		SexualReproduction:        false,
		CarryOverResources:        true,
		MaxPopulation:             5000,
		MutationRate:              0.01,
		OfferArray:                DefaultOfferArray(),
		DispersalRate:             0.05,
		DispersalRadius:           2,

		MaxGroupSize:             20,
		MinGroupSize:             3,
		GlobalFissionProbability: 0.0,
		GroupRadius:              2,

		GridWidth:  50,
		GridHeight: 50,
		Toroidal:   true,

		InitialGroups:           100,
		InitialGroupSize:        10,
		InitialOffer:            0.5,
		InitialAccept:           0.5,
		RandomInitialStrategies: false,
		Habitat: Habitat{
			Enabled:     false,
			Octaves:     4,
			Frequency:   0.08,
			Persistence: 0.5,
			Threshold:   0.45,
		},

		Endowment: Endowment{
			Mean:  1.0,
			SD:    0.2,
			Lower: 0.0,
			Upper: 2.0,
		},

		BurnInTicks:         1000,
		RejectionSampleSize: 100,
		SamplingInterval:    100,
	}
}

// Load reads a YAML parameter file on top of Default and validates it.
func Load(path string) (Params, error) {
	p := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return p, err
	}
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return p, fmt.Errorf("%s: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return p, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// YAML renders the parameters for storage alongside a run.
func (p Params) YAML() (string, error) {
	b, err := yaml.Marshal(p)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Validate rejects parameter sets the simulation cannot run with.
func (p Params) Validate() error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
	}

	if p.GridWidth <= 0 || p.GridHeight <= 0 {
		return invalid("grid dimensions must be positive, got %dx%d", p.GridWidth, p.GridHeight)
	}
	if p.AverageAge <= 0 {
		return invalid("average_age must be positive")
	}
	if p.SDAge < 0 {
		return invalid("sd_age must not be negative")
	}
	if p.Io < 0 {
		return invalid("io must not be negative")
	}
	if p.IbiTau < 0 {
		return invalid("ibi_tau must not be negative")
	}
	if len(p.OfferArray) == 0 {
		return invalid("offer_array must not be empty")
	}
	for i, v := range p.OfferArray {
		if v < 0 || v > 1 {
			return invalid("offer_array[%d]=%v outside [0,1]", i, v)
		}
		if i > 0 && v <= p.OfferArray[i-1] {
			return invalid("offer_array must be strictly increasing")
		}
	}
	for name, v := range map[string]float64{
		"mutation_rate":              p.MutationRate,
		"dispersal_rate":             p.DispersalRate,
		"global_fission_probability": p.GlobalFissionProbability,
		"initial_offer":              p.InitialOffer,
		"initial_accept":             p.InitialAccept,
	} {
		if v < 0 || v > 1 {
			return invalid("%s=%v outside [0,1]", name, v)
		}
	}
	if p.MaxPopulation <= 0 {
		return invalid("max_population must be positive")
	}
	if p.MinGroupSize < 0 {
		return invalid("min_group_size must not be negative")
	}
	// Fission needs two halves that both exceed MinGroupSize.
	if p.MaxGroupSize+1 < 2*(p.MinGroupSize+1) {
		return invalid("max_group_size=%d cannot split into two groups larger than min_group_size=%d",
			p.MaxGroupSize, p.MinGroupSize)
	}
	if p.DispersalRadius < 1 || p.GroupRadius < 1 {
		return invalid("dispersal_radius and group_radius must be at least 1")
	}
	if p.InitialGroups < 0 || p.InitialGroupSize < 0 {
		return invalid("initial population must not be negative")
	}
	if p.InitialGroups > p.GridWidth*p.GridHeight {
		return invalid("initial_groups=%d does not fit on a %dx%d grid",
			p.InitialGroups, p.GridWidth, p.GridHeight)
	}
	if p.Endowment.SD < 0 || p.Endowment.Lower > p.Endowment.Upper {
		return invalid("endowment bounds [%v,%v] sd=%v", p.Endowment.Lower, p.Endowment.Upper, p.Endowment.SD)
	}
	if p.RejectionSampleSize < 2 {
		return invalid("rejection_sample_size must be at least 2")
	}
	if p.SamplingInterval == 0 {
		return invalid("sampling_interval must be positive")
	}
	if p.Habitat.Enabled && (p.Habitat.Octaves <= 0 || p.Habitat.Frequency <= 0) {
		return invalid("habitat octaves and frequency must be positive")
	}
	return nil
}
