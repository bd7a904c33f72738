package io

import (
	"fmt"
	"sort"
	"strings"

	"gopkg.in/gcfg.v1"

	"github.com/phil-mansfield/flowx/field"
	"github.com/phil-mansfield/flowx/imbound"
	"github.com/phil-mansfield/flowx/ins"
	"github.com/phil-mansfield/flowx/particles"
	"github.com/phil-mansfield/flowx/poisson"
)

const (
	ExampleCavityFile = `# Lid-driven cavity at Re = 100.

[Domain]

#######################
# Required Parameters #
#######################

# Number of cells along each axis.
Nx = 32
Ny = 32

# Extent of the domain.
Xmin = 0
Xmax = 1
Ymin = 0
Ymax = 1

[Flow]

#######################
# Required Parameters #
#######################

# Reynolds number and time step.
Re = 100
Dt = 0.01
# Number of steps taken by the driver.
Steps = 1500

#######################
# Optional Parameters #
#######################

# Scheme must be one of [ Euler | AB2 | RK3 ]. Default is Euler.
# Scheme = Euler

# Solve for a pressure increment instead of the full pressure. Ignored by
# RK3. Default is true.
# PressureCorrection = true

# Sanity limits. A step which breaks one of these fails. Zero turns a check
# off. Defaults are MaxCFL = 1 and MaxVelocity = 1000.
# MaxCFL = 1
# MaxVelocity = 1000
# MaxDivergence = 0

# Print statistics every StatsEvery steps. Default is 100.
# StatsEvery = 100

# Initial uniform velocity.
# InitialU = 0
# InitialV = 0

[Poisson]

# Solver must be one of [ cg | jacobi | direct ]. Default is cg.
Solver = cg
# MaxIter = 2000
# Tol = 1e-9

# Boundary conditions are given per field as one of
# [ dirichlet | neumann | outflow | periodic ]. Values default to 0.
[Boundary "velx"]
XLow = dirichlet
XHigh = dirichlet
YLow = dirichlet
YHigh = dirichlet
YHighValue = 1

[Boundary "vely"]
XLow = dirichlet
XHigh = dirichlet
YLow = dirichlet
YHigh = dirichlet

[Boundary "pres"]
XLow = neumann
XHigh = neumann
YLow = neumann
YHigh = neumann`

	ExampleCylinderFile = `# Channel flow past a stationary cylinder.

[Domain]
Nx = 80
Ny = 32
Xmin = 0
Xmax = 5
Ymin = 0
Ymax = 2

[Flow]
Re = 100
Dt = 0.005
Steps = 2000
Scheme = AB2
InitialU = 1
StatsEvery = 50

[Poisson]
Solver = cg

[Boundary "velx"]
XLow = dirichlet
XLowValue = 1
XHigh = outflow
YLow = dirichlet
YHigh = dirichlet

[Boundary "vely"]
XLow = dirichlet
XHigh = outflow
YLow = dirichlet
YHigh = dirichlet

[Boundary "pres"]
XLow = neumann
XHigh = neumann
YLow = neumann
YHigh = neumann

[ImBound]

# Type must be one of [ none | rigid | visco ]. Default is none.
Type = rigid

# Every body is its own subsection. Shape must be circle.
[Body "cylinder"]
Shape = circle
X = 1.5
Y = 1
Radius = 0.25
Markers = 100

#######################
# Optional Parameters #
#######################

# Prescribed motion: translation, rotation about the center, and an
# oscillation x = x0 + Amp sin(2 pi Freq t).
# VelX = 0
# VelY = 0
# Omega = 0
# Freq = 0
# AmpX = 0
# AmpY = 0`

	ExampleViscoFile = `# Lid-driven cavity containing a viscoelastic disc.

[Domain]
Nx = 40
Ny = 40
Xmin = -0.5
Xmax = 0.5
Ymin = -0.5
Ymax = 0.5

[Flow]
Re = 100
Dt = 0.001
Steps = 2000

[Poisson]
Solver = cg

[Boundary "velx"]
XLow = dirichlet
XHigh = dirichlet
YLow = dirichlet
YHigh = dirichlet
YHighValue = 1

[Boundary "vely"]
XLow = dirichlet
XHigh = dirichlet
YLow = dirichlet
YHigh = dirichlet

[Boundary "pres"]
XLow = neumann
XHigh = neumann
YLow = neumann
YHigh = neumann

[ImBound]
Type = visco

# Solid Reynolds number and shear modulus.
ReSolid = 10
MuSolid = 1

#######################
# Optional Parameters #
#######################

# Pseudo-time iterations used when extending solid fields into the fluid.
# ExtrapIter = 10

# Redistancing budget and convergence tolerance. A run which misses the
# tolerance logs a warning and continues.
# RedistanceIter = 50
# RedistanceTol = 1e-3

# Strength of the optional penalty forcing. Default is 0.
# Penalty = 0

[Body "disc"]
Shape = circle
X = 0
Y = 0.2
Radius = 0.15
Markers = 100`
)

// FieldNames are the fields which need a [Boundary] subsection.
var FieldNames = []string{ins.VelX, ins.VelY, ins.Pres}

type DomainConfig struct {
	Nx, Ny                 int
	Xmin, Xmax, Ymin, Ymax float64
}

type FlowConfig struct {
	// Required
	Re, Dt float64
	Steps  int

	// Optional
	Scheme             string
	PressureCorrection bool
	MaxCFL             float64
	MaxVelocity        float64
	MaxDivergence      float64
	StatsEvery         int
	InitialU, InitialV float64
}

type PoissonConfig struct {
	Solver  string
	MaxIter int
	Tol     float64
}

type BoundaryConfig struct {
	XLow, XHigh, YLow, YHigh                     string
	XLowValue, XHighValue, YLowValue, YHighValue float64
}

type ImBoundConfig struct {
	Type             string
	ReSolid, MuSolid float64
	ExtrapIter       int
	RedistanceIter   int
	RedistanceTol    float64
	Penalty          float64
}

type BodyConfig struct {
	// Required
	Shape   string
	X, Y    float64
	Radius  float64
	Markers int

	// Optional
	VelX, VelY, Omega float64
	Freq, AmpX, AmpY  float64
}

// Config is the full contents of a run's config file.
type Config struct {
	Domain   DomainConfig
	Flow     FlowConfig
	Poisson  PoissonConfig
	Boundary map[string]*BoundaryConfig
	ImBound  ImBoundConfig
	Body     map[string]*BodyConfig
}

// DefaultConfigWrapper returns a Config with every optional value set to its
// default.
func DefaultConfigWrapper() *Config {
	def := imbound.DefaultOptions()
	return &Config{
		Flow: FlowConfig{
			Scheme: "Euler", PressureCorrection: true,
			MaxCFL: 1, MaxVelocity: 1e3, StatsEvery: 100,
		},
		Poisson: PoissonConfig{
			Solver: "cg", MaxIter: poisson.DefaultMaxIter, Tol: poisson.DefaultTol,
		},
		ImBound: ImBoundConfig{
			Type: "none", ReSolid: def.ReSolid, MuSolid: def.MuSolid,
			ExtrapIter:     def.ExtrapIter,
			RedistanceIter: def.Redistance.MaxIter,
			RedistanceTol:  def.Redistance.Tol,
		},
	}
}

// ReadConfig reads and checks the config file fname.
func ReadConfig(fname string) (*Config, error) {
	con := DefaultConfigWrapper()
	if err := gcfg.ReadFileInto(con, fname); err != nil {
		return nil, err
	}
	if err := con.CheckInit(); err != nil {
		return nil, err
	}
	return con, nil
}

// ParseConfig reads and checks a config file's contents.
func ParseConfig(text string) (*Config, error) {
	con := DefaultConfigWrapper()
	if err := gcfg.ReadStringInto(con, text); err != nil {
		return nil, err
	}
	if err := con.CheckInit(); err != nil {
		return nil, err
	}
	return con, nil
}

func (con *DomainConfig) ValidSize() bool { return con.Nx > 0 && con.Ny > 0 }

func (con *DomainConfig) ValidExtent() bool {
	return con.Xmax > con.Xmin && con.Ymax > con.Ymin
}

func (con *FlowConfig) ValidScheme() bool {
	_, err := ins.ParseScheme(con.Scheme)
	return err == nil
}

func (con *PoissonConfig) ValidSolver() bool {
	for _, name := range poisson.Names {
		if strings.EqualFold(con.Solver, name) {
			return true
		}
	}
	return false
}

func (con *ImBoundConfig) ValidType() bool {
	for _, name := range imbound.Types {
		if strings.EqualFold(con.Type, name) {
			return true
		}
	}
	return false
}

func (con *BodyConfig) ValidShape() bool {
	return strings.EqualFold(con.Shape, "circle")
}

// CheckInit returns an error describing the first problem with the config.
func (con *Config) CheckInit() error {
	switch {
	case !con.Domain.ValidSize():
		return fmt.Errorf(
			"Domain must have positive Nx and Ny, but has Nx = %d, Ny = %d.",
			con.Domain.Nx, con.Domain.Ny,
		)
	case !con.Domain.ValidExtent():
		return fmt.Errorf("Domain must have Xmax > Xmin and Ymax > Ymin.")
	case con.Flow.Re <= 0:
		return fmt.Errorf("Flow.Re must be positive, but is %g.", con.Flow.Re)
	case con.Flow.Dt <= 0:
		return fmt.Errorf("Flow.Dt must be positive, but is %g.", con.Flow.Dt)
	case con.Flow.Steps < 0:
		return fmt.Errorf("Flow.Steps cannot be negative, but is %d.", con.Flow.Steps)
	case !con.Flow.ValidScheme():
		return fmt.Errorf("Flow.Scheme '%s' not recognized.", con.Flow.Scheme)
	case !con.Poisson.ValidSolver():
		return fmt.Errorf(
			"Poisson.Solver '%s' not recognized. Must be one of %s.",
			con.Poisson.Solver, strings.Join(poisson.Names, ", "),
		)
	case con.Poisson.MaxIter <= 0 || con.Poisson.Tol <= 0:
		return fmt.Errorf("Poisson.MaxIter and Poisson.Tol must be positive.")
	case !con.ImBound.ValidType():
		return fmt.Errorf(
			"ImBound.Type '%s' not recognized. Must be one of %s.",
			con.ImBound.Type, strings.Join(imbound.Types, ", "),
		)
	}

	if err := con.checkBoundaries(); err != nil {
		return err
	}

	if !strings.EqualFold(con.ImBound.Type, "none") && len(con.Body) == 0 {
		return fmt.Errorf(
			"ImBound.Type '%s' needs at least one [Body] section.",
			con.ImBound.Type,
		)
	}
	for name, body := range con.Body {
		if !body.ValidShape() {
			return fmt.Errorf("Body '%s' has unknown Shape '%s'.", name, body.Shape)
		} else if body.Radius <= 0 {
			return fmt.Errorf(
				"Body '%s' needs a positive Radius, but has %g.", name, body.Radius,
			)
		} else if body.Markers < 3 {
			return fmt.Errorf(
				"Body '%s' needs at least 3 Markers, but has %d.", name, body.Markers,
			)
		}
	}
	return nil
}

func (con *Config) checkBoundaries() error {
	bcs := map[string]field.BoundarySet{}
	for _, name := range FieldNames {
		bc, err := con.BoundarySet(name)
		if err != nil {
			return err
		}
		if err := bc.Check(); err != nil {
			return fmt.Errorf("Boundary '%s': %w", name, err)
		}
		bcs[name] = bc
	}

	for s := field.XLow; s < field.NumSides; s++ {
		normal := ins.VelX
		if s.Axis() == 1 {
			normal = ins.VelY
		}
		nt := bcs[normal][s].Type
		pt := bcs[ins.Pres][s].Type

		periodic := 0
		for _, name := range FieldNames {
			if bcs[name][s].Type == field.Periodic {
				periodic++
			}
		}
		switch {
		case periodic != 0 && periodic != len(FieldNames):
			return fmt.Errorf(
				"Side %s must be periodic for all of %s or none of them.",
				s, strings.Join(FieldNames, ", "),
			)
		case nt == field.Neumann:
			return fmt.Errorf(
				"Side %s of '%s' is neumann. Use outflow for open boundaries.",
				s, normal,
			)
		case pt != field.Dirichlet && pt != field.Neumann && pt != field.Periodic:
			return fmt.Errorf(
				"Side %s of 'pres' is %s, but must be dirichlet, neumann "+
					"or periodic.", s, pt,
			)
		case pt == field.Dirichlet && nt != field.Outflow:
			return fmt.Errorf(
				"Side %s of 'pres' is dirichlet, so '%s' must be outflow there.",
				s, normal,
			)
		}
	}
	return nil
}

// BoundarySet converts the [Boundary] subsection of the named field.
func (con *Config) BoundarySet(name string) (field.BoundarySet, error) {
	bc := field.BoundarySet{}
	sec, ok := con.Boundary[name]
	if !ok {
		return bc, fmt.Errorf("No [Boundary \"%s\"] section.", name)
	}

	types := [field.NumSides]string{sec.XLow, sec.XHigh, sec.YLow, sec.YHigh}
	vals := [field.NumSides]float64{
		sec.XLowValue, sec.XHighValue, sec.YLowValue, sec.YHighValue,
	}
	for s := range bc {
		if types[s] == "" {
			return bc, fmt.Errorf(
				"Boundary '%s' does not set side %s.", name, field.Side(s),
			)
		}
		t, err := field.ParseBCType(types[s])
		if err != nil {
			return bc, fmt.Errorf("Boundary '%s': %w", name, err)
		}
		bc[s] = field.Boundary{Type: t, Value: vals[s]}
	}
	return bc, nil
}

// InsOptions returns the integrator options given by the config.
func (con *Config) InsOptions() ins.Options {
	scheme, _ := ins.ParseScheme(con.Flow.Scheme)
	return ins.Options{
		Re: con.Flow.Re, Scheme: scheme,
		PressureCorrection: con.Flow.PressureCorrection,
		Solver:             strings.ToLower(con.Poisson.Solver),
		Poisson: poisson.Options{
			MaxIter: con.Poisson.MaxIter, Tol: con.Poisson.Tol,
		},
		MaxCFL: con.Flow.MaxCFL, MaxVelocity: con.Flow.MaxVelocity,
		MaxDivergence: con.Flow.MaxDivergence,
	}
}

// ImBoundOptions returns the immersed boundary options given by the config.
func (con *Config) ImBoundOptions() imbound.Options {
	opt := imbound.DefaultOptions()
	opt.ReSolid, opt.MuSolid = con.ImBound.ReSolid, con.ImBound.MuSolid
	opt.ExtrapIter = con.ImBound.ExtrapIter
	opt.Redistance.MaxIter = con.ImBound.RedistanceIter
	opt.Redistance.Tol = con.ImBound.RedistanceTol
	opt.Penalty = con.ImBound.Penalty
	return opt
}

// Bodies returns the marker sets described by the [Body] subsections, sorted
// by name.
func (con *Config) Bodies() []*particles.Set {
	names := make([]string, 0, len(con.Body))
	for name := range con.Body {
		names = append(names, name)
	}
	sort.Strings(names)

	bodies := make([]*particles.Set, len(names))
	for i, name := range names {
		b := con.Body[name]
		set := particles.NewCircle(name, b.X, b.Y, b.Radius, b.Markers)
		set.SetVelocity(b.VelX, b.VelY)
		set.Omega = b.Omega
		set.Freq, set.Amp = b.Freq, particles.Vec{b.AmpX, b.AmpY}
		bodies[i] = set
	}
	return bodies
}
