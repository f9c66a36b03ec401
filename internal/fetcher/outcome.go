package fetcher

// Outcome is the terminal result of one fetch attempt for one symbol.
// It is designed to be collected from worker goroutines by the coordinator.
type Outcome struct {
	// Symbol is the ticker the attempt was made for
	Symbol string

	// Path is where the response was written. Only set when Err is nil.
	Path string

	// Err describes the failure. A nil Err means the outcome is Saved.
	Err *FetchError
}

// Saved creates a successful outcome
func Saved(symbol, path string) Outcome {
	return Outcome{Symbol: symbol, Path: path}
}

// Failed creates a failed outcome
func Failed(symbol string, err *FetchError) Outcome {
	return Outcome{Symbol: symbol, Err: err}
}

// OK reports whether the response was persisted
func (o Outcome) OK() bool {
	return o.Err == nil
}

// Type returns the failure category, or "saved" for a successful outcome
func (o Outcome) Type() string {
	if o.Err == nil {
		return "saved"
	}
	return string(o.Err.Type)
}
