package domain

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseExperienceRange(t *testing.T) {
	tests := []struct {
		input  string
		want   ExperienceRange
		wantOK bool
	}{
		{"3-5 years", ExperienceRange{Min: 3, Max: 5}, true},
		{"3 to 5 yrs", ExperienceRange{Min: 3, Max: 5}, true},
		{"5-3", ExperienceRange{Min: 3, Max: 5}, true},
		{"6+ years", ExperienceRange{Min: 6, Max: math.Inf(1)}, true},
		{"at least 2 years", ExperienceRange{Min: 2, Max: math.Inf(1)}, true},
		{"4 years or more", ExperienceRange{Min: 4, Max: math.Inf(1)}, true},
		{"up to 2 years", ExperienceRange{Min: 0, Max: 2}, true},
		{"0-1 years", ExperienceRange{Min: 0, Max: 1}, true},
		{"Fresher", ExperienceRange{Min: 0, Max: 1}, true},
		{"3 years", ExperienceRange{Min: 3, Max: math.Inf(1)}, true},
		{"6-18 months", ExperienceRange{Min: 0.5, Max: 1.5}, true},
		{"", ExperienceRange{}, false},
		{"senior", ExperienceRange{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseExperienceRange(tt.input)

			require.Equal(t, tt.wantOK, ok)
			assert.InDelta(t, tt.want.Min, got.Min, 0.001)

			if math.IsInf(tt.want.Max, 1) {
				assert.True(t, math.IsInf(got.Max, 1))
			} else {
				assert.InDelta(t, tt.want.Max, got.Max, 0.001)
			}
		})
	}
}

func TestParseExperienceYears(t *testing.T) {
	tests := []struct {
		input  string
		want   float64
		wantOK bool
	}{
		{"3", 3, true},
		{"3 years", 3, true},
		{"2-3 years", 2, true},
		{"6 months", 0.5, true},
		{"fresher", 0, true},
		{"", 0, false},
		{"n/a", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseExperienceYears(tt.input)

			assert.Equal(t, tt.wantOK, ok)
			assert.InDelta(t, tt.want, got, 0.001)
		})
	}
}

func TestExperienceMatches(t *testing.T) {
	tests := []struct {
		contact string
		job     string
		want    bool
	}{
		{"3", "3-5 years", true},
		{"3", "0-1 years", false},
		{"3", "6+ years", false},
		{"7", "6+ years", true},
		{"3", "", true},
		{"", "6+ years", true},
		{"unknown", "0-1 years", true},
		{"fresher", "0-1 years", true},
	}

	for _, tt := range tests {
		t.Run(tt.contact+"/"+tt.job, func(t *testing.T) {
			assert.Equal(t, tt.want, ExperienceMatches(tt.contact, tt.job))
		})
	}
}

func TestSelectJobsForContact(t *testing.T) {
	jobs := []Job{
		{Source: SourcePrimary, ID: 1, Experience: "0-1 years"},
		{Source: SourcePrimary, ID: 2, Experience: "3-5 years"},
		{Source: SourceSecondary, ID: 1, Experience: "6+ years"},
	}

	t.Run("filters by experience", func(t *testing.T) {
		got := SelectJobsForContact(Contact{Experience: "3"}, jobs)

		require.Len(t, got, 1)
		assert.Equal(t, JobKey{Source: SourcePrimary, ID: 2}, got[0].Key())
	})

	t.Run("no experience receives everything", func(t *testing.T) {
		got := SelectJobsForContact(Contact{}, jobs)

		assert.Len(t, got, 3)
	})
}

func TestSortOldestFirst(t *testing.T) {
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	jobs := []Job{
		{Source: SourceSecondary, ID: 9, CreatedAt: base.Add(time.Hour)},
		{Source: SourceSecondary, ID: 2, CreatedAt: base},
		{Source: SourcePrimary, ID: 5, CreatedAt: base},
	}

	SortOldestFirst(jobs)

	assert.Equal(t, []JobKey{
		{Source: SourcePrimary, ID: 5},
		{Source: SourceSecondary, ID: 2},
		{Source: SourceSecondary, ID: 9},
	}, JobKeys(jobs))
}

func TestGroupKeys(t *testing.T) {
	got := GroupKeys([]JobKey{
		{Source: SourcePrimary, ID: 3},
		{Source: SourcePrimary, ID: 1},
		{Source: SourcePrimary, ID: 3},
		{Source: SourceSecondary, ID: 7},
	})

	assert.Equal(t, JobIDsBySource{
		SourcePrimary:   {1, 3},
		SourceSecondary: {7},
	}, got)
	assert.Equal(t, 3, got.Total())
}
