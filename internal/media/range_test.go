package media

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNegotiate(t *testing.T) {
	const size = 1000

	tests := []struct {
		name    string
		header  string
		want    Decision
		wantErr error
	}{
		{name: "absent", header: "", want: Decision{}},
		{name: "first hundred", header: "bytes=0-99", want: Decision{Partial: true, Start: 0, End: 99}},
		{name: "single byte", header: "bytes=0-0", want: Decision{Partial: true, Start: 0, End: 0}},
		{name: "last byte", header: "bytes=999-999", want: Decision{Partial: true, Start: 999, End: 999}},
		{name: "open ended", header: "bytes=900-", want: Decision{Partial: true, Start: 900, End: 999}},
		{name: "whitespace and unit case", header: " Bytes= 10 - 20 ", want: Decision{Partial: true, Start: 10, End: 20}},
		{name: "multi range falls back", header: "bytes=0-1,5-6", want: Decision{}},
		{name: "beyond end", header: "bytes=2000-2500", wantErr: ErrRangeNotSatisfiable},
		{name: "end past size", header: "bytes=0-1000", wantErr: ErrRangeNotSatisfiable},
		{name: "open ended past size", header: "bytes=1000-", wantErr: ErrRangeNotSatisfiable},
		{name: "suffix unsupported", header: "bytes=-100", wantErr: ErrRangeParse},
		{name: "non numeric start", header: "bytes=abc-10", wantErr: ErrRangeParse},
		{name: "non numeric end", header: "bytes=0-xyz", wantErr: ErrRangeParse},
		{name: "negative-looking start", header: "bytes=+5-10", wantErr: ErrRangeParse},
		{name: "end before start", header: "bytes=50-10", wantErr: ErrRangeParse},
		{name: "wrong unit", header: "items=0-10", wantErr: ErrRangeParse},
		{name: "no separator", header: "bytes=10", wantErr: ErrRangeParse},
		{name: "overflow", header: "bytes=99999999999999999999-", wantErr: ErrRangeParse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Negotiate(tt.header, size)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNegotiateNeverClamps(t *testing.T) {
	for size := int64(1); size < 32; size++ {
		for start := int64(0); start < size+4; start++ {
			for end := start; end < size+4; end++ {
				d, err := Negotiate(fmt.Sprintf("bytes=%d-%d", start, end), size)
				if end >= size {
					require.ErrorIs(t, err, ErrRangeNotSatisfiable, "size %d range %d-%d", size, start, end)
					continue
				}
				require.NoError(t, err)
				assert.Equal(t, end-start+1, d.Length(size))
			}
		}
	}
}

func TestNegotiateEmptyResource(t *testing.T) {
	_, err := Negotiate("bytes=0-", 0)
	assert.ErrorIs(t, err, ErrRangeNotSatisfiable)

	d, err := Negotiate("", 0)
	require.NoError(t, err)
	assert.Equal(t, int64(0), d.Length(0))
}

func TestContentRangeFormats(t *testing.T) {
	assert.Equal(t, "bytes 0-99/1000", ContentRange(Decision{Partial: true, Start: 0, End: 99}, 1000))
	assert.Equal(t, "bytes */1000", UnsatisfiedRange(1000))
}
