package clock

import (
	"testing"
	"time"
)

func TestStamp(t *testing.T) {
	ts := time.Date(2025, time.March, 7, 9, 5, 59, 0, time.UTC)
	if got := Stamp(ts); got != "03070905" {
		t.Errorf("Stamp() = %s, want 03070905", got)
	}
}

func TestFromUnix(t *testing.T) {
	if !FromUnix(0).IsZero() {
		t.Error("FromUnix(0) must be zero")
	}
	if got := FromUnix(1700000000); got.Unix() != 1700000000 {
		t.Errorf("FromUnix() = %v", got)
	}
}

func TestLocalZero(t *testing.T) {
	if Local(time.Time{}) != "" {
		t.Error("Local(zero) must be empty")
	}
}
