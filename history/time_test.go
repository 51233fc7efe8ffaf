package history

import (
	"math"
	"testing"
)

func TestTimeSaturatingArithmetic(t *testing.T) {
	if got := EndOfTime.Add(1); got != EndOfTime {
		t.Errorf("EndOfTime+1 = %v, want EndOfTime", got)
	}
	if got := StartOfTime.Add(-1); got != StartOfTime {
		t.Errorf("StartOfTime-1 = %v, want StartOfTime", got)
	}
	if got := Time(10).Add(5); got != 15 {
		t.Errorf("10+5 = %v, want 15", got)
	}
	if got := Time(math.MaxInt64 - 1).Add(Duration(100)); got != EndOfTime {
		t.Errorf("near-max + 100 = %v, want EndOfTime (saturated)", got)
	}
	if got := Time(math.MinInt64 + 1).Add(Duration(-100)); got != StartOfTime {
		t.Errorf("near-min - 100 = %v, want StartOfTime", got)
	}
}

func TestTimeSub(t *testing.T) {
	if got := Time(10).Sub(Time(4)); got != 6 {
		t.Errorf("10-4 = %v, want 6", got)
	}
	if got := EndOfTime.Sub(Time(0)); got != math.MaxInt64 {
		t.Errorf("EndOfTime-0 = %v, want MaxInt64", got)
	}
}

func TestTimeOrdering(t *testing.T) {
	if !Time(1).Before(Time(2)) {
		t.Error("1 should be before 2")
	}
	if !Time(2).After(Time(1)) {
		t.Error("2 should be after 1")
	}
	if !Time(5).Equal(Time(5)) {
		t.Error("5 should equal 5")
	}
}
