package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePeriod(t *testing.T) {
	tests := []struct {
		key     string
		want    Period
		wantErr bool
	}{
		{key: "2024-03", want: Period{Year: 2024, Month: 3}},
		{key: "1999-12", want: Period{Year: 1999, Month: 12}},
		{key: "2024-13", wantErr: true},
		{key: "2024-00", wantErr: true},
		{key: "2024-3", wantErr: true},
		{key: "March 2024", wantErr: true},
		{key: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, err := ParsePeriod(tt.key)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.key, got.Key())
		})
	}
}

func TestPeriodArithmetic(t *testing.T) {
	dec := Period{Year: 2023, Month: 12}

	assert.Equal(t, Period{Year: 2024, Month: 1}, dec.Next())
	assert.Equal(t, Period{Year: 2023, Month: 1}, dec.AddMonths(-11))
	assert.Equal(t, Period{Year: 2022, Month: 12}, dec.AddMonths(-12))
	assert.Equal(t, 14, dec.MonthsUntil(Period{Year: 2025, Month: 2}))
	assert.True(t, dec.Before(dec.Next()))
	assert.False(t, dec.Before(dec))
	assert.Equal(t, time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC), dec.Start())
}

func TestPeriodOf_UsesUTC(t *testing.T) {
	tz := time.FixedZone("UTC-5", -5*3600)
	// 31 Jan 22:00 local is already February in UTC
	ts := time.Date(2024, 1, 31, 22, 0, 0, 0, tz)
	assert.Equal(t, Period{Year: 2024, Month: 2}, PeriodOf(ts))
}
