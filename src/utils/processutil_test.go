package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTime(t *testing.T) {
	want := time.Date(2021, 3, 4, 0, 0, 0, 0, time.UTC)
	for _, s := range []string{"2021-03-04", "2021/03/04", "04/03/2021", " 2021-03-04 00:00:00 "} {
		got, err := ParseTime(s)
		require.NoError(t, err, s)
		assert.True(t, want.Equal(got), s)
	}

	_, err := ParseTime("yesterday")
	assert.Error(t, err)
}

func TestExcelSerialToTime(t *testing.T) {
	got, err := ExcelSerialToTime(44197.5)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2021, 1, 1, 12, 0, 0, 0, time.UTC), got)

	got, err = ExcelSerialToTime(1)
	require.NoError(t, err)
	assert.Equal(t, time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC), got)

	_, err = ExcelSerialToTime(-1)
	assert.Error(t, err)
}

func TestParseDecimal(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"45.3", 45.3, true},
		{"45,3", 45.3, true},
		{" 7 ", 7, true},
		{"1,000.5", 0, false},
		{"abc", 0, false},
	}
	for _, tt := range tests {
		got, err := ParseDecimal(tt.in)
		if !tt.ok {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.InDelta(t, tt.want, got, 1e-9)
	}
}

func TestContains(t *testing.T) {
	assert.True(t, Contains([]string{"a", "b"}, "b"))
	assert.False(t, Contains([]int{1, 2}, 3))
}
