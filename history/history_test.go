package history

import "testing"

func TestGetFloorsOnFirstValue(t *testing.T) {
	h := NewValueHistoryFrom(Some("A"), nil)
	if v := h.Get(5); !v.Equal(Some("A")) {
		t.Errorf("expected A, got %+v", v)
	}
}

func TestAppendTransitionRoundTrip(t *testing.T) {
	h := NewValueHistory[string]()
	h.SetValueFrom(StartOfTime, Some("A"))

	if err := h.AppendTransition(3, Some("B")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if v := h.Get(3); !v.Equal(Some("B")) {
		t.Errorf("get(3) = %+v, want B", v)
	}
	if v := h.Get(2); !v.Equal(Some("A")) {
		t.Errorf("get(2) = %+v, want A (value before transition unaffected)", v)
	}
	if v := h.Get(100); !v.Equal(Some("B")) {
		t.Errorf("get(100) = %+v, want B", v)
	}
}

func TestAppendTransitionOutOfOrder(t *testing.T) {
	h := NewValueHistory[string]()
	h.SetValueFrom(StartOfTime, Some("A"))
	if err := h.AppendTransition(5, Some("B")); err != nil {
		t.Fatalf("setup: %v", err)
	}
	if err := h.AppendTransition(5, Some("C")); err != ErrOutOfOrderTransition {
		t.Errorf("expected ErrOutOfOrderTransition, got %v", err)
	}
	if err := h.AppendTransition(1, Some("C")); err != ErrOutOfOrderTransition {
		t.Errorf("expected ErrOutOfOrderTransition, got %v", err)
	}
}

func TestAppendTransitionRedundant(t *testing.T) {
	h := NewValueHistory[string]()
	h.SetValueFrom(StartOfTime, Some("A"))
	if err := h.AppendTransition(5, Some("A")); err != ErrRedundantTransition {
		t.Errorf("expected ErrRedundantTransition, got %v", err)
	}
}

func TestSetValueFromRoundTrip(t *testing.T) {
	h := NewValueHistory[string]()
	h.SetValueFrom(StartOfTime, Some("A"))
	_ = h.AppendTransition(3, Some("B"))
	_ = h.AppendTransition(6, Some("C"))

	h.SetValueFrom(4, Some("D"))

	if v := h.Get(2); !v.Equal(Some("A")) {
		t.Errorf("get(2) = %+v, want A (unaffected by set_value_from(4))", v)
	}
	if v := h.Get(3); !v.Equal(Some("B")) {
		t.Errorf("get(3) = %+v, want B (unaffected by set_value_from(4))", v)
	}
	if v := h.Get(4); !v.Equal(Some("D")) {
		t.Errorf("get(4) = %+v, want D", v)
	}
	if v := h.Get(1000); !v.Equal(Some("D")) {
		t.Errorf("get(1000) = %+v, want D (future transitions dropped)", v)
	}
}

func TestSetValueFromAtStartResetsHistory(t *testing.T) {
	h := NewValueHistory[string]()
	h.SetValueFrom(StartOfTime, Some("A"))
	_ = h.AppendTransition(3, Some("B"))

	h.SetValueFrom(StartOfTime, Some("Z"))

	if v := h.Get(-1000); !v.Equal(Some("Z")) {
		t.Errorf("get(-1000) = %+v, want Z", v)
	}
	if v := h.Get(1000); !v.Equal(Some("Z")) {
		t.Errorf("get(1000) = %+v, want Z", v)
	}
	if len(h.Transitions()) != 0 {
		t.Errorf("expected reset history to have no transitions, got %v", h.Transitions())
	}
}

func TestSetValueUntilRestoresFutureValue(t *testing.T) {
	h := NewValueHistory[string]()
	h.SetValueFrom(StartOfTime, Some("A"))
	_ = h.AppendTransition(3, Some("B"))

	h.SetValueUntil(5, Some("Z"))

	if v := h.FirstValue(); !v.Equal(Some("Z")) {
		t.Errorf("first value = %+v, want Z", v)
	}
	if v := h.Get(0); !v.Equal(Some("Z")) {
		t.Errorf("get(0) = %+v, want Z", v)
	}
	if v := h.Get(5); !v.Equal(Some("Z")) {
		t.Errorf("get(5) = %+v, want Z", v)
	}
	if v := h.Get(6); !v.Equal(Some("B")) {
		t.Errorf("get(6) = %+v, want restored B", v)
	}
}

func TestRemoveTransitionsFromKeepsFirstValue(t *testing.T) {
	h := NewValueHistory[string]()
	h.SetValueFrom(StartOfTime, Some("A"))
	_ = h.AppendTransition(3, Some("B"))
	_ = h.AppendTransition(6, Some("C"))

	h.RemoveTransitionsFrom(6)

	if v := h.Get(1000); !v.Equal(Some("B")) {
		t.Errorf("get(1000) = %+v, want B", v)
	}
	if v := h.Get(-1000); !v.Equal(Some("A")) {
		t.Errorf("get(-1000) = %+v, want A", v)
	}
}

func TestGetTimestampedInterval(t *testing.T) {
	h := NewValueHistory[string]()
	h.SetValueFrom(StartOfTime, Some("A"))
	_ = h.AppendTransition(3, Some("B"))
	_ = h.AppendTransition(6, Some("C"))

	start, end, v := h.GetTimestamped(4)
	if start != 3 || end != 5 || !v.Equal(Some("B")) {
		t.Errorf("got (%v,%v,%+v), want (3,5,B)", start, end, v)
	}

	start, end, v = h.GetTimestamped(6)
	if start != 6 || end != EndOfTime || !v.Equal(Some("C")) {
		t.Errorf("got (%v,%v,%+v), want (6,EndOfTime,C)", start, end, v)
	}
}

func TestTransitionAtOrAfter(t *testing.T) {
	h := NewValueHistory[string]()
	h.SetValueFrom(StartOfTime, Some("A"))
	_ = h.AppendTransition(3, Some("B"))
	_ = h.AppendTransition(6, Some("C"))

	tr, ok := h.TransitionAtOrAfter(4)
	if !ok || tr.At != 6 {
		t.Errorf("expected transition at 6, got %+v ok=%v", tr, ok)
	}

	tr, ok = h.TransitionAtOrAfter(3)
	if !ok || tr.At != 3 {
		t.Errorf("expected transition at 3, got %+v ok=%v", tr, ok)
	}

	_, ok = h.TransitionAtOrAfter(7)
	if ok {
		t.Errorf("expected no transition at or after 7")
	}
}
