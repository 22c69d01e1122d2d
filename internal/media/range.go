package media

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrRangeParse          = errors.New("malformed range")
	ErrRangeNotSatisfiable = errors.New("range not satisfiable")
)

const rangeUnitPrefix = "bytes="

// Decision tells the stream server what to send. When Partial is false the
// whole resource is sent; otherwise the inclusive window [Start, End].
type Decision struct {
	Partial bool
	Start   int64
	End     int64
}

// Length is the number of bytes the decision covers for a resource of size.
func (d Decision) Length(size int64) int64 {
	if !d.Partial {
		return size
	}
	return d.End - d.Start + 1
}

// Negotiate parses a single "bytes=<start>-[<end>]" range against size.
// Suffix ranges are not supported. Ranges reaching past the end of the
// resource are unsatisfiable rather than clamped. A multi-range request
// falls back to the full body.
func Negotiate(header string, size int64) (Decision, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return Decision{}, nil
	}

	if len(header) < len(rangeUnitPrefix) || !strings.EqualFold(header[:len(rangeUnitPrefix)], rangeUnitPrefix) {
		return Decision{}, fmt.Errorf("%w: unsupported unit", ErrRangeParse)
	}
	ranges := header[len(rangeUnitPrefix):]
	if strings.Contains(ranges, ",") {
		return Decision{}, nil
	}

	startStr, endStr, ok := strings.Cut(ranges, "-")
	if !ok {
		return Decision{}, fmt.Errorf("%w: missing separator", ErrRangeParse)
	}
	startStr = strings.TrimSpace(startStr)
	endStr = strings.TrimSpace(endStr)

	start, err := parseOffset(startStr)
	if err != nil {
		return Decision{}, fmt.Errorf("%w: start: %v", ErrRangeParse, err)
	}

	end := size - 1
	if endStr != "" {
		if end, err = parseOffset(endStr); err != nil {
			return Decision{}, fmt.Errorf("%w: end: %v", ErrRangeParse, err)
		}
		if end < start {
			return Decision{}, fmt.Errorf("%w: end before start", ErrRangeParse)
		}
	}

	if start >= size || end >= size {
		return Decision{}, fmt.Errorf("%w: bytes %d-%d of %d", ErrRangeNotSatisfiable, start, end, size)
	}

	return Decision{Partial: true, Start: start, End: end}, nil
}

func parseOffset(s string) (int64, error) {
	if s == "" {
		return 0, errors.New("empty")
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, fmt.Errorf("invalid offset %q", s)
		}
	}
	return strconv.ParseInt(s, 10, 64)
}

// ContentRange formats the Content-Range header of a partial response.
func ContentRange(d Decision, size int64) string {
	return fmt.Sprintf("bytes %d-%d/%d", d.Start, d.End, size)
}

// UnsatisfiedRange formats the Content-Range header of a 416 response.
func UnsatisfiedRange(size int64) string {
	return fmt.Sprintf("bytes */%d", size)
}
