package feed

import (
	"fmt"
	"testing"
)

func TestLogEvictsOldest(t *testing.T) {
	l := NewLog(3)
	for i := 0; i < 5; i++ {
		l.Append(Item{Tick: int64(i), Kind: KindFill, Message: fmt.Sprintf("e%d", i)})
	}
	if l.Len() != 3 {
		t.Fatalf("len = %d, want 3", l.Len())
	}
	got := l.Latest(3)
	for i, want := range []int64{4, 3, 2} {
		if got[i].Tick != want {
			t.Errorf("latest[%d].Tick = %d, want %d", i, got[i].Tick, want)
		}
	}
}

func TestLatestClampsToStored(t *testing.T) {
	l := NewLog(10)
	l.Append(Item{Kind: KindTrend, Message: "only"})
	got := l.Latest(5)
	if len(got) != 1 || got[0].Message != "only" {
		t.Fatalf("got %v", got)
	}
	if l.Latest(0) != nil {
		t.Error("Latest(0) should be nil")
	}
}
