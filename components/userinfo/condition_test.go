package userinfo

import "testing"

func TestDoneConditionIgnoresRowCount(t *testing.T) {
	if !DoneCondition(JobProperties{IsDone: true, ResultCount: 0}) {
		t.Fatalf("expected done job with zero rows to be ready")
	}
	if DoneCondition(JobProperties{IsDone: false, ResultCount: 5}) {
		t.Fatalf("expected running job not to satisfy the done condition")
	}
}

func TestSubscriptionShouldNotify(t *testing.T) {
	sub := Subscription{Condition: DoneCondition}
	cases := []struct {
		name   string
		update JobUpdate
		want   bool
	}{
		{"done without rows", JobUpdate{Job: JobProperties{IsDone: true}}, true},
		{"running without rows", JobUpdate{Job: JobProperties{}}, false},
		{"running with rows", JobUpdate{Results: ResultsModel{Rows: []ResultRow{{"a"}}}}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := sub.ShouldNotify(tc.update); got != tc.want {
				t.Fatalf("ShouldNotify() = %v, want %v", got, tc.want)
			}
		})
	}

	bare := Subscription{}
	if bare.ShouldNotify(JobUpdate{Job: JobProperties{IsDone: true}}) {
		t.Fatalf("expected default condition alone to ignore empty done jobs")
	}
}
