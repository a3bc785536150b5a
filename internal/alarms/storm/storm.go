// Package storm flags alarm surges that should switch the console into a
// degraded grouped view. The detector only supplies the boolean and the rate;
// grouping and deduplication are presentation concerns.
package storm

import (
	"math"
	"time"
)

// DefaultWindow is the reference observation window.
const DefaultWindow = 3 * time.Minute

// Detector holds the storm policy.
type Detector struct {
	Threshold int
	Window    time.Duration
}

// NewDetector constructs a detector, falling back to the reference window
// when none is given.
func NewDetector(threshold int, window time.Duration) Detector {
	if window <= 0 {
		window = DefaultWindow
	}
	return Detector{Threshold: threshold, Window: window}
}

// Result is one storm evaluation.
type Result struct {
	Storm                  bool `json:"storm"`
	Count                  int  `json:"count"`
	RatePerMinute          int  `json:"rate_per_minute"`
	GroupedViewRecommended bool `json:"grouped_view_recommended"`
}

// Evaluate applies the strict greater-than threshold to an alarm count
// observed within the detector window.
func (d Detector) Evaluate(count int) Result {
	storm := count > d.Threshold
	return Result{
		Storm:                  storm,
		Count:                  count,
		RatePerMinute:          ratePerMinute(count, d.Window),
		GroupedViewRecommended: storm,
	}
}

func ratePerMinute(count int, window time.Duration) int {
	minutes := window.Minutes()
	if minutes <= 0 {
		return 0
	}
	return int(math.Round(float64(count) / minutes))
}
