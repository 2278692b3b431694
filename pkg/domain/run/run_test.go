package run_test

import (
	"testing"

	"github.com/felixgeelhaar/specloop/pkg/domain/run"
	"github.com/felixgeelhaar/specloop/pkg/domain/verdict"
)

func TestRun_AppendOrdering(t *testing.T) {
	r := run.New("SRS", "seed text", 5)
	if r.Last() != nil {
		t.Error("new run should have no iterations")
	}

	if err := r.Append(run.Iteration{Number: 1, Errors: 3}); err != nil {
		t.Fatalf("append first: %v", err)
	}
	if err := r.Append(run.Iteration{Number: 3, Errors: 1}); err == nil {
		t.Error("expected out-of-order append to fail")
	}
	if err := r.Append(run.Iteration{Number: 2, Errors: 1}); err != nil {
		t.Fatalf("append second: %v", err)
	}
	if r.Last().Number != 2 {
		t.Errorf("Last().Number = %d, want 2", r.Last().Number)
	}
	if r.FinalErrors() != 1 {
		t.Errorf("FinalErrors = %d, want 1", r.FinalErrors())
	}
}

func TestRun_FinalizeSeals(t *testing.T) {
	r := run.New("SRS", "seed", 5)
	if err := r.Append(run.Iteration{Number: 1, Errors: 0}); err != nil {
		t.Fatal(err)
	}
	r.Finalize(run.OutcomeAccepted, true)

	if !r.Finalized() {
		t.Error("run should be finalized")
	}
	if err := r.Append(run.Iteration{Number: 2}); err == nil {
		t.Error("append after finalize should fail")
	}
	if r.Outcome != run.OutcomeAccepted || !r.TargetAchieved {
		t.Errorf("outcome = %s/%v, want accepted/true", r.Outcome, r.TargetAchieved)
	}
}

func TestRun_FinalScore(t *testing.T) {
	r := run.New("Auth", "seed", 3)
	if r.FinalScore() != verdict.Unknown {
		t.Errorf("FinalScore before iterations = %d, want Unknown", r.FinalScore())
	}
	err := r.Append(run.Iteration{
		Number: 1,
		Report: &verdict.ScoreReport{OverallScore: 7},
	})
	if err != nil {
		t.Fatal(err)
	}
	if r.FinalScore() != 7 {
		t.Errorf("FinalScore = %d, want 7", r.FinalScore())
	}
}

func TestStateMachine_HappyPath(t *testing.T) {
	sm, err := run.NewStateMachine("r1")
	if err != nil {
		t.Fatal(err)
	}
	if sm.Current() != run.StateGenerating {
		t.Fatalf("initial state = %s, want generating", sm.Current())
	}

	steps := []struct {
		event string
		want  string
	}{
		{run.EventGenerated, run.StateValidating},
		{run.EventRevise, run.StateRevising},
		{run.EventRevised, run.StateValidating},
		{run.EventAccept, run.StateAccepted},
	}
	for _, s := range steps {
		if err := sm.Transition(s.event); err != nil {
			t.Fatalf("transition %s: %v", s.event, err)
		}
		if sm.Current() != s.want {
			t.Fatalf("after %s: state = %s, want %s", s.event, sm.Current(), s.want)
		}
	}
	if !sm.Terminal() {
		t.Error("accepted should be terminal")
	}
}

func TestStateMachine_InvalidTransition(t *testing.T) {
	sm, err := run.NewStateMachine("r2")
	if err != nil {
		t.Fatal(err)
	}
	if err := sm.Transition(run.EventAccept); err == nil {
		t.Error("accept from generating should be rejected")
	}
	if sm.Current() != run.StateGenerating {
		t.Errorf("state = %s, want unchanged generating", sm.Current())
	}
}

func TestStateMachine_CapAndFail(t *testing.T) {
	sm, _ := run.NewStateMachine("r3")
	if err := sm.Transition(run.EventGenerated); err != nil {
		t.Fatal(err)
	}
	if err := sm.Transition(run.EventCap); err != nil {
		t.Fatal(err)
	}
	if sm.Current() != run.StateCapped || !sm.Terminal() {
		t.Errorf("state = %s, want terminal capped", sm.Current())
	}

	sm2, _ := run.NewStateMachine("r4")
	if err := sm2.Transition(run.EventFail); err != nil {
		t.Fatal(err)
	}
	if sm2.Current() != run.StateFailed {
		t.Errorf("state = %s, want failed", sm2.Current())
	}
}
