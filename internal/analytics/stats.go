package analytics

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"speakai-platform/internal/calls"
)

// callStats aggregates call history. Rates are percentages of all calls; the average
// covers completed calls that reported a duration.
func callStats(rows []calls.Call) CallStatistics {
	var out CallStatistics
	for _, c := range rows {
		out.add(c)
	}
	out.finish()
	return out
}

func (s *CallStatistics) add(c calls.Call) {
	s.TotalCalls++
	switch c.Status {
	case calls.CallStatusCompleted:
		s.CompletedCalls++
		if c.DurationSeconds != nil {
			s.TotalCallDurationSeconds += *c.DurationSeconds
			s.timedCalls++
		}
	case calls.CallStatusFailed:
		s.FailedCalls++
	case calls.CallStatusBusy:
		s.BusyCalls++
	case calls.CallStatusNoAnswer:
		s.NoAnswerCalls++
	case calls.CallStatusCanceled:
		s.CanceledCalls++
	case calls.CallStatusInProgress:
		s.InProgressCalls++
	}
	if c.Status.IsUnsuccessful() {
		s.unsuccessful++
	}
}

func (s *CallStatistics) finish() {
	s.AverageCallDurationSeconds = 0
	s.SuccessRatePercentage = 0
	s.FailureRatePercentage = 0
	if s.timedCalls > 0 {
		s.AverageCallDurationSeconds = round2(float64(s.TotalCallDurationSeconds) / float64(s.timedCalls))
	}
	if s.TotalCalls > 0 {
		s.SuccessRatePercentage = percent(s.CompletedCalls, s.TotalCalls)
		s.FailureRatePercentage = percent(s.unsuccessful, s.TotalCalls)
	}
}

// merge folds o into s and recomputes the derived fields.
func (s *CallStatistics) merge(o CallStatistics) {
	s.TotalCalls += o.TotalCalls
	s.CompletedCalls += o.CompletedCalls
	s.FailedCalls += o.FailedCalls
	s.BusyCalls += o.BusyCalls
	s.NoAnswerCalls += o.NoAnswerCalls
	s.CanceledCalls += o.CanceledCalls
	s.InProgressCalls += o.InProgressCalls
	s.TotalCallDurationSeconds += o.TotalCallDurationSeconds
	s.timedCalls += o.timedCalls
	s.unsuccessful += o.unsuccessful
	s.finish()
}

func messageStats(rows []calls.Message) MessageStatistics {
	out := MessageStatistics{TotalMessages: len(rows)}
	for _, m := range rows {
		switch m.Status {
		case calls.MessageStatusDelivered:
			out.DeliveredMessages++
		case calls.MessageStatusFailed, calls.MessageStatusUndelivered:
			out.FailedMessages++
		case calls.MessageStatusSent:
			out.SentMessages++
		case calls.MessageStatusReceived:
			out.ReceivedMessages++
		}
	}
	return out
}

func newBuckets() Buckets {
	b := Buckets{ByWeekday: make(map[string]int, 7), ByHour: make(map[string]int, 24)}
	for d := time.Sunday; d <= time.Saturday; d++ {
		b.ByWeekday[d.String()] = 0
	}
	for h := 0; h < 24; h++ {
		b.ByHour[fmt.Sprintf("%02d", h)] = 0
	}
	return b
}

func (b Buckets) add(rows []calls.Call) {
	for _, c := range rows {
		if c.DateCreated.IsZero() {
			continue
		}
		t := c.DateCreated.UTC()
		b.ByWeekday[t.Weekday().String()]++
		b.ByHour[fmt.Sprintf("%02d", t.Hour())]++
	}
}

func recentCalls(rows []calls.Call) []RecentCall {
	out := make([]RecentCall, 0, RecentItems)
	for _, c := range newestCalls(rows, RecentItems) {
		from := c.FromFormatted
		if from == "" {
			from = c.From
		}
		out = append(out, RecentCall{
			To:                c.To,
			From:              from,
			Status:            string(c.Status),
			DurationSeconds:   c.Duration(),
			DurationFormatted: formatMinSec(c.Duration()),
			DateCreated:       isoTime(c.DateCreated),
			Direction:         c.Direction,
		})
	}
	return out
}

func recentMessages(rows []calls.Message) []RecentMessage {
	sorted := append([]calls.Message(nil), rows...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].DateCreated.After(sorted[j].DateCreated) })
	if len(sorted) > RecentItems {
		sorted = sorted[:RecentItems]
	}
	out := make([]RecentMessage, 0, len(sorted))
	for _, m := range sorted {
		out = append(out, RecentMessage{
			To:          m.To,
			From:        m.From,
			Status:      string(m.Status),
			Direction:   m.Direction,
			DateCreated: isoTime(m.DateCreated),
		})
	}
	return out
}

func newestCalls(rows []calls.Call, n int) []calls.Call {
	sorted := append([]calls.Call(nil), rows...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].DateCreated.After(sorted[j].DateCreated) })
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// dedupeCalls drops repeated SIDs; a call between two watched numbers is listed twice.
func dedupeCalls(rows []calls.Call) []calls.Call {
	seen := make(map[string]struct{}, len(rows))
	out := rows[:0:0]
	for _, c := range rows {
		if c.SID != "" {
			if _, ok := seen[c.SID]; ok {
				continue
			}
			seen[c.SID] = struct{}{}
		}
		out = append(out, c)
	}
	return out
}

func formatMinSec(secs int) string {
	if secs <= 0 {
		return "0s"
	}
	return fmt.Sprintf("%dm %ds", secs/60, secs%60)
}

func formatHMS(secs int) string {
	return fmt.Sprintf("%dh %dm %ds", secs/3600, (secs%3600)/60, secs%60)
}

func isoTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func percent(part, total int) float64 {
	return round2(float64(part) / float64(total) * 100)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// normalizeNumber adds the leading + the provider expects.
func normalizeNumber(n string) string {
	n = strings.TrimSpace(n)
	if n != "" && !strings.HasPrefix(n, "+") {
		n = "+" + n
	}
	return n
}
