package coordinator

import (
	"time"

	"tickerfetch/internal/fetcher"
)

// Summary describes one FetchAll run. Outcomes holds exactly one entry per
// requested symbol, in input order.
type Summary struct {
	RunID     string
	Requested int
	Windows   int
	Saved     int
	Failed    int
	ByType    map[string]int
	Outcomes  []fetcher.Outcome
	Duration  time.Duration
}

func newSummary(runID string, requested, windows int) *Summary {
	return &Summary{
		RunID:     runID,
		Requested: requested,
		Windows:   windows,
		ByType:    make(map[string]int),
		Outcomes:  make([]fetcher.Outcome, 0, requested),
	}
}

// add folds one window's outcomes in and returns that window's saved/failed counts
func (s *Summary) add(outcomes []fetcher.Outcome) (saved, failed int) {
	for _, o := range outcomes {
		s.Outcomes = append(s.Outcomes, o)
		s.ByType[o.Type()]++
		if o.OK() {
			saved++
		} else {
			failed++
		}
	}
	s.Saved += saved
	s.Failed += failed
	return saved, failed
}

// FailedSymbols lists the symbols whose outcome was not saved, in input order
func (s *Summary) FailedSymbols() []string {
	var out []string
	for _, o := range s.Outcomes {
		if !o.OK() {
			out = append(out, o.Symbol)
		}
	}
	return out
}
