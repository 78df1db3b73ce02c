package auction

import (
	"testing"
	"time"

	"github.com/campusbid/stallbid/internal/domain"
)

func TestFormatCountdownActive(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		end     time.Duration // offset from now
		display string
		urgent  bool
		ended   bool
	}{
		{"days and hours", 49*time.Hour + 30*time.Minute, "2d 1h", false, false},
		{"hours and minutes", 3*time.Hour + 12*time.Minute, "3h 12m", false, false},
		{"minutes and seconds", 4*time.Minute + 9*time.Second, "4m 9s", true, false},
		{"seconds only", 42 * time.Second, "42s", true, false},
		{"under an hour is urgent", 59 * time.Minute, "59m 0s", true, false},
		{"exactly an hour is not urgent", time.Hour, "1h 0m", false, false},
		{"just ended", -time.Second, "Ended", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			end := now.Add(tt.end)
			cd := FormatCountdown(domain.StallStatusActive, nil, &end, now)
			if cd.Display != tt.display {
				t.Errorf("Display = %q, want %q", cd.Display, tt.display)
			}
			if cd.Urgent != tt.urgent {
				t.Errorf("Urgent = %v, want %v", cd.Urgent, tt.urgent)
			}
			if cd.Ended != tt.ended {
				t.Errorf("Ended = %v, want %v", cd.Ended, tt.ended)
			}
			if cd.Pending {
				t.Error("Pending = true, want false")
			}
		})
	}
}

func TestFormatCountdownNilDeadlines(t *testing.T) {
	now := time.Now()

	cd := FormatCountdown(domain.StallStatusAvailable, nil, nil, now)
	if cd.Display != "Not Scheduled" || !cd.Pending {
		t.Errorf("AVAILABLE with nil start = %+v, want Not Scheduled pending", cd)
	}
	if cd.Ended {
		t.Error("nil start must not count as ended")
	}

	cd = FormatCountdown(domain.StallStatusActive, nil, nil, now)
	if cd.Display != "No End Time" || !cd.Pending {
		t.Errorf("ACTIVE with nil end = %+v, want No End Time pending", cd)
	}
}

func TestFormatCountdownAvailable(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	start := now.Add(30 * time.Minute)
	cd := FormatCountdown(domain.StallStatusAvailable, &start, nil, now)
	if cd.Display != "30m 0s" || cd.Label != "Starts in" || !cd.Urgent {
		t.Errorf("upcoming start = %+v", cd)
	}

	start = now.Add(-time.Minute)
	cd = FormatCountdown(domain.StallStatusAvailable, &start, nil, now)
	if cd.Display != "Starting soon" || cd.Ended {
		t.Errorf("past start = %+v, want Starting soon", cd)
	}
}

func TestFormatCountdownClosedAndUnknown(t *testing.T) {
	now := time.Now()

	cd := FormatCountdown(domain.StallStatusClosed, nil, nil, now)
	if cd.Display != "Closed" || !cd.Ended {
		t.Errorf("CLOSED = %+v, want Closed ended", cd)
	}

	cd = FormatCountdown(domain.StallStatus("WEIRD"), nil, nil, now)
	if cd.Display != "TBD" || !cd.Pending {
		t.Errorf("unknown status = %+v, want TBD pending", cd)
	}
}
