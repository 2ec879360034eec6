package clock

import (
	"sync"
	"testing"
	"time"
)

func TestSystem_Now_WhenCalled_ThenReturnsCurrentUTCTime(t *testing.T) {
	// Arrange
	before := time.Now()

	// Act
	result := System{}.Now()

	// Assert
	after := time.Now()
	if result.Before(before) || result.After(after) {
		t.Errorf("expected time between %v and %v, got %v", before, after, result)
	}
	if result.Location() != time.UTC {
		t.Errorf("expected UTC location, got %v", result.Location())
	}
}

func TestManual_Now_WhenNotAdvanced_ThenReturnsStartTime(t *testing.T) {
	// Arrange
	start := time.Date(2025, 11, 6, 10, 30, 0, 0, time.UTC)
	c := NewManual(start)

	// Act
	first := c.Now()
	time.Sleep(5 * time.Millisecond)
	second := c.Now()

	// Assert
	if !first.Equal(start) || !second.Equal(start) {
		t.Errorf("expected %v twice, got %v and %v", start, first, second)
	}
}

func TestManual_Advance_WhenCalled_ThenMovesForward(t *testing.T) {
	// Arrange
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewManual(start)

	// Act
	got := c.Advance(36 * time.Hour)

	// Assert
	want := start.Add(36 * time.Hour)
	if !got.Equal(want) || !c.Now().Equal(want) {
		t.Errorf("expected %v, got %v (Now=%v)", want, got, c.Now())
	}
}

func TestManual_Set_WhenCalled_ThenReplacesTime(t *testing.T) {
	// Arrange
	c := NewManual(time.Time{})
	target := time.Date(2030, 5, 5, 5, 5, 5, 0, time.UTC)

	// Act
	c.Set(target)

	// Assert
	if !c.Now().Equal(target) {
		t.Errorf("expected %v, got %v", target, c.Now())
	}
}

func TestManual_WhenUsedConcurrently_ThenAllAdvancesApply(t *testing.T) {
	// Arrange
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewManual(start)
	var wg sync.WaitGroup

	// Act
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Advance(time.Second)
			_ = c.Now()
		}()
	}
	wg.Wait()

	// Assert
	if want := start.Add(50 * time.Second); !c.Now().Equal(want) {
		t.Errorf("expected %v, got %v", want, c.Now())
	}
}
