// Package workers computes worker pool sizes from the available CPUs.
package workers

import (
	"os"
	"runtime"
	"strconv"
)

// Count returns the worker count for a task type, respecting container CPU
// limits via GOMAXPROCS. The multiplier adjusts for task characteristics
// (1.0 CPU-bound, 2.0 I/O-bound) and limit caps the result (0 = no cap).
// envVar, when set and valid, overrides the computed count.
func Count(envVar string, multiplier float64, limit int) int {
	if envVar != "" {
		if override := os.Getenv(envVar); override != "" {
			if count, err := strconv.Atoi(override); err == nil && count > 0 {
				if limit > 0 && count > limit {
					return limit
				}
				return count
			}
		}
	}

	available := runtime.GOMAXPROCS(0)
	count := int(float64(available) * multiplier)

	if count < 1 {
		count = 1
	}
	if limit > 0 && count > limit {
		count = limit
	}
	return count
}

// ForIO returns the worker count for I/O-bound tasks (2 per CPU).
func ForIO(envVar string, limit int) int {
	return Count(envVar, 2.0, limit)
}

// ForCPU returns the worker count for CPU-bound tasks (1 per CPU).
func ForCPU(envVar string, limit int) int {
	return Count(envVar, 1.0, limit)
}
