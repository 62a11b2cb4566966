// internal/miner/stall.go
package miner

// stallDetector counts consecutive no-progress iterations. Any progress
// resets the streak; reaching the limit means the listing is exhausted.
type stallDetector struct {
	limit int
	count int
}

func newStallDetector(limit int) *stallDetector {
	return &stallDetector{limit: limit}
}

// Observe records one iteration's outcome and returns the current streak.
func (d *stallDetector) Observe(progressed bool) int {
	if progressed {
		d.count = 0
	} else {
		d.count++
	}
	return d.count
}

// Exhausted reports whether the streak has reached the limit.
func (d *stallDetector) Exhausted() bool {
	return d.count >= d.limit
}

func (d *stallDetector) Count() int {
	return d.count
}

func (d *stallDetector) Reset() {
	d.count = 0
}
