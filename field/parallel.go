package field

import (
	"runtime"
)

var (
	// Workers is the number of goroutines used by Parallel.
	Workers = runtime.NumCPU()
	// MinRows is the smallest tile handed to a single worker. Grids smaller
	// than this are processed on the calling goroutine.
	MinRows = 8
)

// Parallel splits the inclusive row range [lo, hi] into contiguous tiles and
// calls fn once per tile, each on its own goroutine. It returns only once
// every tile has finished, so writes made by fn are visible to the caller.
// Tiles never overlap, so fn may write to any point in its rows.
func Parallel(lo, hi int, fn func(jLo, jHi int)) {
	rows := hi - lo + 1
	if rows <= 0 {
		return
	}

	workers := Workers
	if max := rows / MinRows; max < workers {
		workers = max
	}
	if workers <= 1 {
		fn(lo, hi)
		return
	}

	out := make(chan int, workers)
	for id := 0; id < workers-1; id++ {
		go chanTile(id, workers, lo, rows, fn, out)
	}
	chanTile(workers-1, workers, lo, rows, fn, out)

	for i := 0; i < workers; i++ {
		<-out
	}
}

func chanTile(id, workers, lo, rows int, fn func(jLo, jHi int), out chan<- int) {
	jLo := lo + id*rows/workers
	jHi := lo + (id+1)*rows/workers - 1
	fn(jLo, jHi)
	out <- id
}
