package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"runtime/pprof"
	"strings"
	"time"

	"github.com/phil-mansfield/flowx"
	"github.com/phil-mansfield/flowx/io"
)

type FileGroup struct {
	log, prof *os.File
}

func (fg *FileGroup) Close() {
	if fg.log != nil {
		err := fg.log.Close()
		if err != nil {
			log.Fatal(err.Error())
		}
	}

	if fg.prof != nil {
		pprof.StopCPUProfile()
		err := fg.prof.Close()
		if err != nil {
			log.Fatal(err.Error())
		}
	}
}

var exampleFiles = map[string]string{
	"Cavity":   io.ExampleCavityFile,
	"Cylinder": io.ExampleCylinderFile,
	"Visco":    io.ExampleViscoFile,
}

func main() {
	var (
		config, exampleConfig   string
		validate, logFile, prof string
	)
	vars := map[string]*string{
		"Config":        &config,
		"ExampleConfig": &exampleConfig,
	}

	flag.StringVar(&config, "Config", "", "Configuration file of a run.")
	flag.StringVar(
		&exampleConfig, "ExampleConfig", "",
		"Prints an example configuration file of the specified type to "+
			"stdout. Accepted arguments are 'Cavity', 'Cylinder', and 'Visco'.",
	)
	flag.StringVar(
		&validate, "Validate", "",
		"Two column reference profile of u along the vertical centerline. "+
			"The largest deviation from it is printed at the end of the run.",
	)
	flag.StringVar(&logFile, "Log", "", "Write log output to this file.")
	flag.StringVar(&prof, "PProf", "", "Write a CPU profile to this file.")

	flag.Parse()

	modeName, err := getModeName(vars)
	if err != nil {
		log.Fatal(err.Error())
	}

	switch modeName {
	case "Config":
		con, err := io.ReadConfig(config)
		if err != nil {
			log.Fatal(err.Error())
		}

		fg := setupIO(logFile, prof)
		defer fg.Close()
		runMain(con, validate)

	case "ExampleConfig":
		text, ok := exampleFiles[exampleConfig]
		if !ok {
			log.Fatal(
				"Unrecognized 'ExampleConfig' argument. Only recognized " +
					"arguments are 'Cavity', 'Cylinder', and 'Visco'.",
			)
		}
		fmt.Println(text)

	default:
		panic("Impossible")
	}
}

func getModeName(vars map[string]*string) (string, error) {
	setNames := []string{}

	for name, varPtr := range vars {
		if *varPtr != "" {
			setNames = append(setNames, name)
		}
	}

	if len(setNames) == 0 {
		return "", fmt.Errorf("No flags have been set.")
	}

	if len(setNames) > 1 {
		return "", fmt.Errorf(
			"The following flags were set: %s, but flowx "+
				"only accepts one flag at a time.",
			strings.Join(setNames, ", "),
		)
	}

	return setNames[0], nil
}

func setupIO(logFile, prof string) *FileGroup {
	fg := &FileGroup{}
	var err error

	if logFile != "" {
		fg.log, err = os.Create(logFile)
		if err != nil {
			log.Fatal(err.Error())
		}
		log.SetOutput(fg.log)
	}

	if prof != "" {
		fg.prof, err = os.Create(prof)
		if err != nil {
			log.Fatal(err.Error())
		}
		err = pprof.StartCPUProfile(fg.prof)
		if err != nil {
			log.Fatal(err.Error())
		}
	}

	return fg
}

func runMain(con *io.Config, validate string) {
	var refCoords, refVals []float64
	if validate != "" {
		var err error
		refCoords, refVals, err = io.ReadProfile(validate)
		if err != nil {
			log.Fatal(err.Error())
		}
	}

	sim, err := flowx.New(con)
	if err != nil {
		log.Fatal(err.Error())
	}

	log.Printf(
		"Running %d x %d grid for %d steps of dt = %g.",
		con.Domain.Nx, con.Domain.Ny, con.Flow.Steps, con.Flow.Dt,
	)
	t0 := time.Now()
	if err := sim.Run(con.Flow.Steps); err != nil {
		log.Fatal(err.Error())
	}
	stats := sim.Stats()
	log.Printf(
		"Finished %d steps in %s. Final state: %s",
		sim.Steps(), time.Since(t0), &stats,
	)

	if validate != "" {
		u, _ := sim.Centerline()
		diff, err := flowx.CompareProfile(refCoords, refVals, u)
		if err != nil {
			log.Fatal(err.Error())
		}
		fmt.Printf("max |u - u_ref| = %.5g\n", diff)
	}
}
