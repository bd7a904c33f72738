package io

import (
	"fmt"

	"github.com/phil-mansfield/table"
)

// ReadProfile reads a two column reference profile, such as a published
// centerline velocity, from a whitespace separated text file. Lines starting
// with '#' are ignored.
func ReadProfile(fname string) (coords, vals []float64, err error) {
	cols, err := table.ReadTable(fname, []int{0, 1}, nil)
	if err != nil {
		return nil, nil, err
	}
	coords, vals = cols[0], cols[1]
	if len(coords) < 2 {
		return nil, nil, fmt.Errorf(
			"Profile %s has %d rows, but at least 2 are needed.",
			fname, len(coords),
		)
	}
	for i := 1; i < len(coords); i++ {
		if coords[i] <= coords[i-1] {
			return nil, nil, fmt.Errorf(
				"Profile %s is not sorted by its first column at row %d.",
				fname, i,
			)
		}
	}
	return coords, vals, nil
}
