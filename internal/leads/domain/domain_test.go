package domain

import "testing"

func TestGradeForScore(t *testing.T) {
	cases := []struct {
		total int
		want  string
	}{
		{100, "A+"},
		{90, "A+"},
		{89, "A"},
		{80, "A"},
		{79, "B+"},
		{70, "B+"},
		{69, "B"},
		{60, "B"},
		{59, "C+"},
		{50, "C+"},
		{49, "C"},
		{40, "C"},
		{39, "D"},
		{0, "D"},
	}
	for _, tc := range cases {
		if got := GradeForScore(tc.total); got != tc.want {
			t.Errorf("GradeForScore(%d) = %q, want %q", tc.total, got, tc.want)
		}
	}
}

func TestTemperatureForScore(t *testing.T) {
	cases := []struct {
		total int
		want  string
	}{
		{100, TemperatureHot},
		{75, TemperatureHot},
		{74, TemperatureWarm},
		{50, TemperatureWarm},
		{49, TemperatureCold},
		{0, TemperatureCold},
	}
	for _, tc := range cases {
		if got := TemperatureForScore(tc.total); got != tc.want {
			t.Errorf("TemperatureForScore(%d) = %q, want %q", tc.total, got, tc.want)
		}
	}
}

func TestGradeRankOrdering(t *testing.T) {
	order := []string{"D", "C", "C+", "B", "B+", "A", "A+"}
	for i := 1; i < len(order); i++ {
		if GradeRank(order[i]) <= GradeRank(order[i-1]) {
			t.Fatalf("expected %s to rank above %s", order[i], order[i-1])
		}
	}
	if GradeRank("F") != 0 {
		t.Fatalf("unknown grade should rank lowest, got %d", GradeRank("F"))
	}
}

func TestStageEngagementFloor(t *testing.T) {
	cases := []struct {
		stage string
		want  int
	}{
		{StageCustomer, 100},
		{StageOpportunity, 80},
		{StageEngaged, 60},
		{StageQualified, 50},
		{StageContacted, 30},
		{StageNew, 15},
		{"trial_signup", 15},
	}
	for _, tc := range cases {
		if got := StageEngagementFloor(tc.stage); got != tc.want {
			t.Errorf("StageEngagementFloor(%q) = %d, want %d", tc.stage, got, tc.want)
		}
	}
}
