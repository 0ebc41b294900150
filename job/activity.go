package job

import (
	"fmt"

	"github.com/servsim/servsim/profile"
)

// Activity is one execution burst of a job: the interval over which the
// job ran uninterrupted and the resources it used. A job preempted and
// resumed accumulates one activity per burst.
type Activity struct {
	startTime  int64
	finishTime int64
	ranges     *profile.RangeList
}

// NewActivity records a burst starting at startTime on the given ranges.
// The finish time is set when the burst ends.
func NewActivity(startTime int64, ranges *profile.RangeList) *Activity {
	return &Activity{startTime: startTime, finishTime: TimeNotSet, ranges: ranges}
}

// StartTime returns when the burst began.
func (a *Activity) StartTime() int64 { return a.startTime }

// FinishTime returns when the burst ended, or TimeNotSet while running.
func (a *Activity) FinishTime() int64 { return a.finishTime }

// SetFinishTime records the end of the burst.
func (a *Activity) SetFinishTime(t int64) { a.finishTime = t }

// Ranges returns the resources the burst ran on.
func (a *Activity) Ranges() *profile.RangeList { return a.ranges }

func (a *Activity) String() string {
	return fmt.Sprintf("Activity{start=%d, finish=%d, ranges=%s}", a.startTime, a.finishTime, a.ranges)
}
