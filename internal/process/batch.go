package process

import (
	"sync"

	"github.com/gosuri/uiprogress"

	"github.com/hydrograph/watershed/pkg/types"
)

// BatchOptions tunes a batch run.
type BatchOptions struct {
	// Skip lists station codes already completed in an earlier run; they
	// are dropped before dispatch.
	Skip map[string]bool

	// Progress enables the terminal progress bar.
	Progress bool
}

// RunBatch delineates every station using a pool of workers, each with its
// own Processor from build. Results come back in station order; skipped
// stations yield no Result.
func RunBatch(stations []types.Station, build func() *Processor,
	workers int, opts BatchOptions) []types.Result {
	pending := make([]types.Station, 0, len(stations))
	for _, st := range stations {
		if !opts.Skip[st.Code] {
			pending = append(pending, st)
		}
	}
	if len(pending) == 0 {
		return nil
	}
	if workers < 1 {
		workers = 1
	}
	if workers > len(pending) {
		workers = len(pending)
	}

	var bar *uiprogress.Bar
	if opts.Progress {
		uiprogress.Start()
		bar = uiprogress.AddBar(len(pending)).AppendCompleted().PrependElapsed()
		defer uiprogress.Stop()
	}

	results := make([]types.Result, len(pending))
	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			proc := build()
			for i := range jobs {
				results[i] = proc.ProcessStation(pending[i])
				if bar != nil {
					bar.Incr()
				}
			}
		}()
	}
	for i := range pending {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	return results
}
