package trending

import (
	"fmt"
	"strings"
	"time"
)

const isoFormat = "2006-01-02T15:04:05"

// TimeAxis is the queried time interval for trending data.
type TimeAxis struct {
	Start time.Time
	End   time.Time
	NBins int // 0 lets the server choose
}

// NewTimeAxis builds an interval from a duration in hours and optional
// ISO-8601 endpoints. The duration is ignored when both endpoints are
// given; a missing end defaults to now (when start is also missing) or to
// start plus the duration.
func NewTimeAxis(dtHours float64, start, end string, nbins int) (TimeAxis, error) {
	ta := TimeAxis{NBins: nbins}
	var err error
	if ta.Start, err = parseISO(start); err != nil {
		return TimeAxis{}, err
	}
	if ta.End, err = parseISO(end); err != nil {
		return TimeAxis{}, err
	}
	dt := time.Duration(dtHours * float64(time.Hour))
	switch {
	case ta.Start.IsZero() && ta.End.IsZero():
		ta.End = time.Now()
		ta.Start = ta.End.Add(-dt)
	case ta.Start.IsZero():
		ta.Start = ta.End.Add(-dt)
	case ta.End.IsZero():
		ta.End = ta.Start.Add(dt)
	}
	return ta, nil
}

// appendAxisInfo adds the interval parameters to a data URL, continuing an
// existing query string when one is present.
func (ta TimeAxis) appendAxisInfo(url string) string {
	tokens := []string{
		fmt.Sprintf("t1=%d", ta.Start.UnixMilli()),
		fmt.Sprintf("t2=%d", ta.End.UnixMilli()),
	}
	if ta.NBins > 0 {
		tokens = append(tokens, fmt.Sprintf("n=%d", ta.NBins))
	}
	sep := "?"
	if strings.Contains(url, "?") {
		sep = "&"
	}
	return url + sep + strings.Join(tokens, "&")
}

func parseISO(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(isoFormat, raw, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("trending: parse time %q: %w", raw, err)
	}
	return t, nil
}
