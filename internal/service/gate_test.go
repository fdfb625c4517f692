package service

import "testing"

func TestSelectJoins(t *testing.T) {
	tests := []struct {
		name     string
		mode     Mode
		expected JoinPlan
	}{
		{
			name:     "donor details only",
			mode:     ModeDonorDetails,
			expected: JoinPlan{Donor: true},
		},
		{
			name:     "type details only",
			mode:     ModeTypeDetails,
			expected: JoinPlan{TypeDetails: true},
		},
		{
			name:     "type and donor details",
			mode:     ModeTypeAndDonorDetails,
			expected: JoinPlan{Donor: true, TypeDetails: true},
		},
		{
			name:     "unset mode means no enrichment",
			mode:     "",
			expected: JoinPlan{},
		},
		{
			name:     "unknown mode means no enrichment",
			mode:     Mode("includeEverything"),
			expected: JoinPlan{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := SelectJoins(tt.mode)
			if plan != tt.expected {
				t.Errorf("Expected plan %+v, got %+v", tt.expected, plan)
			}
		})
	}
}
