package prices

import (
	"fmt"
	"time"
)

// Interval is a symbolic lookback accepted by the prices-history endpoint.
type Interval string

const (
	IntervalHour     Interval = "1h"
	IntervalSixHours Interval = "6h"
	IntervalDay      Interval = "1d"
	IntervalWeek     Interval = "1w"
	IntervalMonth    Interval = "1m"
	IntervalMax      Interval = "max"
)

var validIntervals = map[Interval]time.Duration{
	IntervalHour:     time.Hour,
	IntervalSixHours: 6 * time.Hour,
	IntervalDay:      24 * time.Hour,
	IntervalWeek:     7 * 24 * time.Hour,
	IntervalMonth:    30 * 24 * time.Hour,
	IntervalMax:      0,
}

// ParseInterval validates s against the fixed interval set.
func ParseInterval(s string) (Interval, error) {
	iv := Interval(s)
	if _, ok := validIntervals[iv]; !ok {
		return "", fmt.Errorf("interval must be one of 1h, 6h, 1d, 1w, 1m, max; got %q", s)
	}
	return iv, nil
}

// Duration returns the finite lookback for the interval. IntervalMax has no
// finite duration and cannot be resolved to a concrete window.
func (i Interval) Duration() (time.Duration, error) {
	d, ok := validIntervals[i]
	if !ok {
		return 0, fmt.Errorf("interval must be one of 1h, 6h, 1d, 1w, 1m, max; got %q", string(i))
	}
	if i == IntervalMax {
		return 0, fmt.Errorf("interval %q has no finite duration and cannot anchor a time window", string(i))
	}
	return d, nil
}

// Window is a half-open [Start, End) range in unix seconds.
type Window struct {
	Start int64
	End   int64
}

// Seconds returns the window length.
func (w Window) Seconds() int64 {
	return w.End - w.Start
}

// WindowSpec selects exactly one of four ways to describe a time range.
// Zero values mean unset.
//
//	interval only:                  [now - interval, now)
//	start + end:                    as given
//	end + max bars + fidelity:      start derived from the bar budget
//	start + max bars + fidelity:    end derived from the bar budget
type WindowSpec struct {
	Interval    Interval
	StartTs     int64
	EndTs       int64
	MaxBars     int
	FidelityMin int
}

const modeHint = "specify exactly one of:\n" +
	"  1. interval (e.g. \"1w\", \"1d\")\n" +
	"  2. start_ts + end_ts\n" +
	"  3. end_ts + max_bars + fidelity\n" +
	"  4. start_ts + max_bars + fidelity"

// Resolve computes the concrete window for the spec. Ambiguous or empty
// specs fail before any network activity.
func (s WindowSpec) Resolve(now time.Time) (Window, error) {
	mode1 := s.Interval != ""
	mode2 := s.StartTs != 0 && s.EndTs != 0 && s.MaxBars == 0
	mode3 := s.EndTs != 0 && s.MaxBars != 0 && s.StartTs == 0
	mode4 := s.StartTs != 0 && s.MaxBars != 0 && s.EndTs == 0

	active := 0
	for _, m := range []bool{mode1, mode2, mode3, mode4} {
		if m {
			active++
		}
	}
	if active == 0 {
		return Window{}, fmt.Errorf("no time range mode selected; %s", modeHint)
	}
	if active > 1 {
		return Window{}, fmt.Errorf("ambiguous time range: %d modes selected; %s", active, modeHint)
	}

	switch {
	case mode1:
		d, err := s.Interval.Duration()
		if err != nil {
			return Window{}, err
		}
		end := now.Unix()
		return Window{Start: end - int64(d/time.Second), End: end}, nil

	case mode2:
		if s.EndTs <= s.StartTs {
			return Window{}, fmt.Errorf("end_ts %d must be greater than start_ts %d", s.EndTs, s.StartTs)
		}
		return Window{Start: s.StartTs, End: s.EndTs}, nil

	case mode3:
		if s.FidelityMin == 0 {
			return Window{}, fmt.Errorf("end_ts + max_bars requires fidelity")
		}
		span := int64(s.MaxBars-1) * int64(s.FidelityMin) * 60
		return Window{Start: s.EndTs - span, End: s.EndTs}, nil

	default: // mode4
		if s.FidelityMin == 0 {
			return Window{}, fmt.Errorf("start_ts + max_bars requires fidelity")
		}
		span := int64(s.MaxBars-1) * int64(s.FidelityMin) * 60
		return Window{Start: s.StartTs, End: s.StartTs + span}, nil
	}
}

// Chunks splits w into consecutive sub-windows of at most chunkSeconds.
func (w Window) Chunks(chunkSeconds int64) []Window {
	if chunkSeconds <= 0 || w.End <= w.Start {
		return nil
	}
	var chunks []Window
	for start := w.Start; start < w.End; {
		end := start + chunkSeconds
		if end > w.End {
			end = w.End
		}
		chunks = append(chunks, Window{Start: start, End: end})
		start = end
	}
	return chunks
}
