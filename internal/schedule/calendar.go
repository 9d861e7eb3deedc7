// Package schedule implements the business-day arithmetic behind the
// review cycle: milestone chains derived from cumulative workday offsets,
// half-year anchors and the drop-dead flavor.
package schedule

import "time"

// IsWorkday reports whether d falls on Monday through Friday.
func IsWorkday(d time.Time) bool {
	wd := d.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// RollBackward moves d back to the nearest workday. A date already on a
// workday is returned unchanged.
func RollBackward(d time.Time) time.Time {
	for !IsWorkday(d) {
		d = d.AddDate(0, 0, -1)
	}
	return d
}

// AddWorkdays rolls d back to a workday, then steps n workdays forward
// (backward for negative n).
func AddWorkdays(d time.Time, n int) time.Time {
	d = RollBackward(d)

	step := 1
	if n < 0 {
		step = -1
		n = -n
	}

	for n > 0 {
		d = d.AddDate(0, 0, step)
		if IsWorkday(d) {
			n--
		}
	}

	return d
}

// CycleMilestones are the six dates of a review cycle, each derived from
// the previous by a cumulative workday offset.
type CycleMilestones struct {
	FirstEmail time.Time
	Due        time.Time
	Reminder   time.Time
	Strict     time.Time
	DropDead   time.Time
	AccessOff  time.Time
}

// ProjectEndMilestones are the five dates tied to an assignment end.
// There is no drop-dead milestone for project ends.
type ProjectEndMilestones struct {
	FirstEmail time.Time
	Due        time.Time
	Reminder   time.Time
	Strict     time.Time
	AccessOff  time.Time
}

// ResolveCycle derives the cycle milestone chain from the anchor.
// offsets must hold exactly six cumulative workday counts.
func ResolveCycle(anchor time.Time, offsets []int) CycleMilestones {
	d := chain(anchor, offsets)
	return CycleMilestones{
		FirstEmail: d[0],
		Due:        d[1],
		Reminder:   d[2],
		Strict:     d[3],
		DropDead:   d[4],
		AccessOff:  d[5],
	}
}

// ResolveProjectEnd derives the project-end milestone chain from an
// assignment end date. offsets must hold exactly five cumulative workday
// counts.
func ResolveProjectEnd(end time.Time, offsets []int) ProjectEndMilestones {
	d := chain(end, offsets)
	return ProjectEndMilestones{
		FirstEmail: d[0],
		Due:        d[1],
		Reminder:   d[2],
		Strict:     d[3],
		AccessOff:  d[4],
	}
}

func chain(anchor time.Time, offsets []int) []time.Time {
	out := make([]time.Time, len(offsets))
	cur := anchor
	for i, off := range offsets {
		cur = AddWorkdays(cur, off)
		out[i] = cur
	}
	return out
}

// SameDay reports whether a and b fall on the same civil date.
func SameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}
