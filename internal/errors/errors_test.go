package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDataError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *DataError
		want string
	}{
		{
			name: "structural with file",
			err:  NewStructural("plot.csv", "not a monitoring data file"),
			want: "plot.csv: not a monitoring data file",
		},
		{
			name: "decode wraps cause",
			err:  NewDecode("broken.xlsx", fmt.Errorf("zip: not a valid zip file")),
			want: "broken.xlsx: cannot read file: zip: not a valid zip file",
		},
		{
			name: "configuration without file",
			err:  NewConfiguration("trap list missing plot", nil),
			want: "trap list missing plot",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestKindPredicates(t *testing.T) {
	structural := NewStructural("a.csv", "bad")
	decode := NewDecode("a.csv", fmt.Errorf("eof"))
	conf := NewConfiguration("bad key", nil)

	assert.True(t, IsStructural(structural))
	assert.False(t, IsStructural(decode))
	assert.True(t, IsDecode(decode))
	assert.True(t, IsConfiguration(conf))

	// Wrapped errors keep their kind.
	wrapped := fmt.Errorf("check file: %w", structural)
	assert.True(t, IsStructural(wrapped))
	assert.Equal(t, KindStructural, KindOf(wrapped))

	assert.Equal(t, Kind(""), KindOf(fmt.Errorf("plain")))
}

func TestDataError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("root cause")
	err := NewDecode("f.csv", cause)
	assert.Equal(t, cause, err.Unwrap())
}
