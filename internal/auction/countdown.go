// Package auction implements the live-auction view core: countdown
// formatting, snapshot/history reconciliation into view state, the polling
// watcher, and the guarded bid submitter. The backend owns all real auction
// state; everything here is a read-model over it plus a thin submission
// path.
package auction

import (
	"fmt"
	"time"

	"github.com/campusbid/stallbid/internal/domain"
)

// urgentWindow marks a countdown as urgent when less time than this remains.
const urgentWindow = time.Hour

// Countdown is the formatted state of a stall's bidding window at a given
// instant.
type Countdown struct {
	// Display is the human string: a duration pair ("2d 5h", "3h 12m",
	// "4m 9s", "42s") or a terminal/pending label.
	Display string
	// Label describes what Display counts toward ("Starts in", "Ends in").
	Label string
	// Urgent is true when less than an hour remains.
	Urgent bool
	// Ended is true once the bidding window is over.
	Ended bool
	// Pending is true when the window cannot be counted down: the deadline
	// is unset or the status is unknown.
	Pending bool
}

// FormatCountdown computes the countdown for a stall's bidding window. Pure
// function of the stall's status, window, and the supplied instant; it never
// reads a clock. A nil deadline yields a pending label rather than an error,
// because windows legitimately stay unset until an admin schedules them.
func FormatCountdown(status domain.StallStatus, start, end *time.Time, now time.Time) Countdown {
	switch status {
	case domain.StallStatusAvailable:
		if start == nil {
			return Countdown{Display: "Not Scheduled", Label: "Schedule", Pending: true}
		}
		left := start.Sub(now)
		if left <= 0 {
			return Countdown{Display: "Starting soon", Label: "Starts in"}
		}
		return Countdown{
			Display: formatDuration(left),
			Label:   "Starts in",
			Urgent:  left < urgentWindow,
		}

	case domain.StallStatusActive:
		if end == nil {
			return Countdown{Display: "No End Time", Label: "Schedule", Pending: true}
		}
		left := end.Sub(now)
		if left <= 0 {
			return Countdown{Display: "Ended", Label: "Auction", Ended: true}
		}
		return Countdown{
			Display: formatDuration(left),
			Label:   "Ends in",
			Urgent:  left < urgentWindow,
		}

	case domain.StallStatusClosed:
		return Countdown{Display: "Closed", Label: "Auction", Ended: true}

	default:
		return Countdown{Display: "TBD", Label: "Status", Pending: true}
	}
}

// formatDuration renders the most significant non-zero unit pair of d.
func formatDuration(d time.Duration) string {
	seconds := int64(d / time.Second)
	minutes := seconds / 60
	hours := minutes / 60
	days := hours / 24

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh", days, hours%24)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes%60)
	case minutes > 0:
		return fmt.Sprintf("%dm %ds", minutes, seconds%60)
	default:
		return fmt.Sprintf("%ds", seconds)
	}
}
