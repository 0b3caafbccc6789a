package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestRecorderKeepsOrder(t *testing.T) {
	r := NewRecorder()
	ctx := context.Background()

	for _, k := range []Kind{KindJoined, KindVisitorPickedUp, KindCompleted} {
		if err := r.Deliver(ctx, Outcome{Kind: k, VisitorID: "v1", At: time.Now()}); err != nil {
			t.Fatalf("deliver %s: %v", k, err)
		}
	}
	got := r.Kinds()
	want := []Kind{KindJoined, KindVisitorPickedUp, KindCompleted}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("kinds = %v, want %v", got, want)
		}
	}
}

type failingSink struct{}

func (failingSink) Deliver(ctx context.Context, o Outcome) error {
	return errors.New("sink down")
}

func TestMultiSinkDeliversPastFailures(t *testing.T) {
	r := NewRecorder()
	m := MultiSink{failingSink{}, r}

	err := m.Deliver(context.Background(), Outcome{Kind: KindJoined, VisitorID: "v1"})
	if err == nil {
		t.Fatal("expected aggregated error")
	}
	if len(r.Outcomes()) != 1 {
		t.Fatal("second sink skipped after first failed")
	}
}

func TestOutcomeRoundTripsThroughJSON(t *testing.T) {
	o := Outcome{
		Kind:          KindProviderPickedUp,
		VisitorID:     "v1",
		VisitorName:   "Ada",
		ProviderID:    "p1",
		ExaminationID: "exam-1",
		Position:      3,
		Waited:        2 * time.Minute,
		At:            time.Now().UTC().Truncate(time.Second),
	}
	data, err := json.Marshal(o)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back Outcome
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back != o {
		t.Fatalf("round trip changed outcome:\n got %+v\nwant %+v", back, o)
	}
}
