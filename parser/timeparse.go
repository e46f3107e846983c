package parser

import (
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/ncruces/go-strftime"
)

// defaultTimeFormat is the strftime format assumed when a time step carries
// no value.
const defaultTimeFormat = "%Y-%m-%d %H:%M:%S"

// TimeCapability converts between formatted timestamps and unix seconds.
// The param selects the direction:
//
//	encode  formatted string -> unix seconds (int64)
//	decode  unix seconds -> formatted string
//
// The value is a strftime format, defaulting to "%Y-%m-%d %H:%M:%S". For
// encode, the special value "auto" detects the format heuristically.
// Timestamps without zone information are interpreted in the capability's
// location.
type TimeCapability struct {
	loc *time.Location
}

// NewTimeCapability returns a time capability bound to loc; nil means the
// process-local zone.
func NewTimeCapability(loc *time.Location) *TimeCapability {
	if loc == nil {
		loc = time.Local
	}
	return &TimeCapability{loc: loc}
}

func (t *TimeCapability) Name() string { return "time" }

func (t *TimeCapability) AcceptsList() bool { return false }

func (t *TimeCapability) Evaluate(input any, param string, value any) (any, error) {
	format, err := stringValue("time", value)
	if err != nil {
		return nil, err
	}
	if format == "" {
		format = defaultTimeFormat
	}

	switch param {
	case "encode":
		s, err := inputText("time", input)
		if err != nil {
			return nil, err
		}
		ts, err := t.parse(strings.TrimSpace(s), format)
		if err != nil {
			return nil, err
		}
		return ts.Unix(), nil
	case "decode":
		secs, err := toFloat(input)
		if err != nil {
			return nil, fmt.Errorf("time: decode: %w", err)
		}
		return strftime.Format(format, time.Unix(int64(secs), 0).In(t.loc)), nil
	}
	return nil, fmt.Errorf(`time: unknown operation %q: expected "encode" or "decode"`, param)
}

func (t *TimeCapability) parse(s, format string) (time.Time, error) {
	if format == "auto" {
		ts, err := dateparse.ParseIn(s, t.loc)
		if err != nil {
			return time.Time{}, fmt.Errorf("time: detect format of %q: %w", s, err)
		}
		return ts, nil
	}
	layout, err := strftime.Layout(format)
	if err != nil {
		return time.Time{}, fmt.Errorf("time: format %q: %w", format, err)
	}
	ts, err := time.ParseInLocation(layout, s, t.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("time: parse %q: %w", s, err)
	}
	return ts, nil
}
