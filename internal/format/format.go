// Package format renders dates for display.
package format

import (
	"fmt"
	"time"

	"github.com/erazemk/najdeno/internal/model"
)

// DisplayLayout is the layout of dates shown to the user.
const DisplayLayout = "Jan 2, 2006"

// Date renders an ISO date (or RFC 3339 timestamp) for display. Empty input
// renders as "Unknown date"; input that does not parse is returned as is.
func Date(iso string) string {
	if iso == "" {
		return "Unknown date"
	}
	for _, layout := range []string{model.DateLayout, time.RFC3339Nano} {
		if t, err := time.Parse(layout, iso); err == nil {
			return t.Format(DisplayLayout)
		}
	}
	return iso
}

// TimeAgo renders the time elapsed from t to now in a compact form such as
// "5m ago" or "2w ago". Times in the future render as "0s ago".
func TimeAgo(t, now time.Time) string {
	sec := int64(now.Sub(t) / time.Second)
	if sec < 0 {
		sec = 0
	}
	if sec < 60 {
		return fmt.Sprintf("%ds ago", sec)
	}
	minutes := sec / 60
	if minutes < 60 {
		return fmt.Sprintf("%dm ago", minutes)
	}
	hours := minutes / 60
	if hours < 24 {
		return fmt.Sprintf("%dh ago", hours)
	}
	days := hours / 24
	if days < 7 {
		return fmt.Sprintf("%dd ago", days)
	}
	if weeks := days / 7; weeks < 4 {
		return fmt.Sprintf("%dw ago", weeks)
	}
	months := max(days/30, 1)
	if months < 12 {
		return fmt.Sprintf("%dmo ago", months)
	}
	return fmt.Sprintf("%dy ago", max(days/365, 1))
}
