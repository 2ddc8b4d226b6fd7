package usecase

// Metrics receives pipeline-level observations. The concrete implementation
// lives in observability; use cases only see this narrow surface.
type Metrics interface {
	ObserveResolution(path string, matchedLines, totalLines int, seconds float64)
	SetCatalogSize(n int)
	IncRebuild()
}

// NopMetrics discards every observation.
type NopMetrics struct{}

func (NopMetrics) ObserveResolution(string, int, int, float64) {}
func (NopMetrics) SetCatalogSize(int)                          {}
func (NopMetrics) IncRebuild()                                 {}
