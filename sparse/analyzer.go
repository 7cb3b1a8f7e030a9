package sparse

// Analyzer is the read-only companion to a ParamMask: it measures the real
// zero fraction of a tracked parameter for reporting. It never caches — the
// value always reflects the buffer as the optimizer last left it.
type Analyzer struct {
	layer string
	name  string
	param []float32
}

// NewAnalyzer creates an analyzer over the given live parameter buffer.
func NewAnalyzer(layer, param string, data []float32) *Analyzer {
	return &Analyzer{layer: layer, name: param, param: data}
}

// Tag returns the stable "layer.param" identifier used in log events.
func (a *Analyzer) Tag() string {
	return a.layer + "." + a.name
}

// ParamSparsity returns the fraction of parameter elements that are exactly
// zero, recomputed from the current buffer contents on every call.
func (a *Analyzer) ParamSparsity() float64 {
	if len(a.param) == 0 {
		return 0
	}
	zeros := 0
	for _, v := range a.param {
		if v == 0 {
			zeros++
		}
	}
	return float64(zeros) / float64(len(a.param))
}
