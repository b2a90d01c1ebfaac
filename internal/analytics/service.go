package analytics

import (
	"context"
	"time"

	"speakai-platform/internal/agents"
	"speakai-platform/internal/apperr"
	"speakai-platform/internal/auth"
	"speakai-platform/internal/calls"
	"speakai-platform/internal/telephony"
	"speakai-platform/pkg/logger"

	"golang.org/x/sync/errgroup"
)

// HistorySource is the read side of the telephony provider.
type HistorySource interface {
	ListIncomingNumbers(ctx context.Context, phoneNumber string) ([]telephony.IncomingNumber, error)
	ListCalls(ctx context.Context, f telephony.HistoryFilter) ([]calls.Call, error)
	ListMessages(ctx context.Context, f telephony.HistoryFilter) ([]calls.Message, error)
}

// AgentSource lists agents visible to a caller.
type AgentSource interface {
	List(ctx context.Context, caller auth.Identity) ([]agents.Agent, error)
	Get(ctx context.Context, caller auth.Identity, id int64) (agents.Agent, error)
}

// fanout bounds concurrent per-number fetches.
const fanout = 4

// Service aggregates telephony history on demand. Nothing is cached; every call re-fetches.
type Service struct {
	src    HistorySource
	agents AgentSource
	clock  func() time.Time
}

func NewService(src HistorySource, agentSource AgentSource) *Service {
	return &Service{src: src, agents: agentSource, clock: time.Now}
}

type history struct {
	calls    []calls.Call
	messages []calls.Message
}

type fetchOpts struct {
	since    time.Time
	messages bool
}

// fetch pulls outbound and inbound history for number concurrently.
// Calls come back outbound first, then inbound.
func (s *Service) fetch(ctx context.Context, number string, o fetchOpts) (history, error) {
	var out, in []calls.Call
	var mOut, mIn []calls.Message

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		out, err = s.src.ListCalls(gctx, telephony.HistoryFilter{From: number, PageSize: CallPageSize, Since: o.since})
		return err
	})
	g.Go(func() (err error) {
		in, err = s.src.ListCalls(gctx, telephony.HistoryFilter{To: number, PageSize: CallPageSize, Since: o.since})
		return err
	})
	if o.messages {
		g.Go(func() (err error) {
			mOut, err = s.src.ListMessages(gctx, telephony.HistoryFilter{From: number, PageSize: MessagePageSize, Since: o.since})
			return err
		})
		g.Go(func() (err error) {
			mIn, err = s.src.ListMessages(gctx, telephony.HistoryFilter{To: number, PageSize: MessagePageSize, Since: o.since})
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return history{}, err
	}
	return history{
		calls:    append(out, in...),
		messages: append(mOut, mIn...),
	}, nil
}

// PhoneDetails returns the provider record of an owned number.
func (s *Service) PhoneDetails(ctx context.Context, number string) (telephony.IncomingNumber, error) {
	number = normalizeNumber(number)
	if number == "" {
		return telephony.IncomingNumber{}, apperr.Validation("phone_number is required")
	}
	rows, err := s.src.ListIncomingNumbers(ctx, number)
	if err != nil {
		return telephony.IncomingNumber{}, err
	}
	if len(rows) == 0 {
		return telephony.IncomingNumber{}, apperr.NotFound("Phone number %s not found in the telephony account", number)
	}
	return rows[0], nil
}

// NumberUsage returns call and message activity for one number.
func (s *Service) NumberUsage(ctx context.Context, number string) (UsageReport, error) {
	number = normalizeNumber(number)
	if number == "" {
		return UsageReport{}, apperr.Validation("phone_number is required")
	}
	h, err := s.fetch(ctx, number, fetchOpts{messages: true})
	if err != nil {
		return UsageReport{}, err
	}
	return UsageReport{
		PhoneNumber:       number,
		CallStatistics:    callStats(h.calls),
		MessageStatistics: messageStats(h.messages),
		RecentCalls:       recentCalls(h.calls),
		RecentMessages:    recentMessages(h.messages),
	}, nil
}

// MultipleNumbers reports on each number independently; one failing number does not fail the rest.
func (s *Service) MultipleNumbers(ctx context.Context, req MultipleNumbersRequest) (MultipleNumbersReport, error) {
	if len(req.PhoneNumbers) == 0 {
		return MultipleNumbersReport{}, apperr.Validation("phone_numbers must not be empty")
	}

	results := make([]NumberResult, len(req.PhoneNumbers))
	totals := make([]CallStatistics, len(req.PhoneNumbers))
	messageCounts := make([]int, len(req.PhoneNumbers))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fanout)
	for i, raw := range req.PhoneNumbers {
		i, raw := i, raw
		g.Go(func() error {
			h, err := s.fetch(gctx, normalizeNumber(raw), fetchOpts{messages: req.IncludeRecentMessages})
			if err != nil {
				logger.From(ctx).Warn("number analytics failed", "phone_number", raw, "err", err)
				results[i] = NumberResult{PhoneNumber: raw, Status: "error", Error: err.Error()}
				return nil
			}
			cs, ms := callStats(h.calls), messageStats(h.messages)
			r := NumberResult{PhoneNumber: raw, Status: "success", CallStatistics: &cs, MessageStatistics: &ms}
			if req.IncludeRecentCalls {
				r.RecentCalls = recentCalls(h.calls)
			}
			if req.IncludeRecentMessages {
				r.RecentMessages = recentMessages(h.messages)
			}
			results[i] = r
			totals[i] = cs
			messageCounts[i] = ms.TotalMessages
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return MultipleNumbersReport{}, err
	}

	rep := MultipleNumbersReport{
		RequestSummary: RequestSummary{
			TotalNumbersRequested: len(req.PhoneNumbers),
			IncludeRecentCalls:    req.IncludeRecentCalls,
			IncludeRecentMessages: req.IncludeRecentMessages,
		},
		IndividualResults: results,
	}
	var all CallStatistics
	for i, r := range results {
		if r.Status != "success" {
			rep.RequestSummary.FailedNumbers++
			continue
		}
		rep.RequestSummary.SuccessfulNumbers++
		all.merge(totals[i])
		rep.CombinedSummary.TotalMessages += messageCounts[i]
	}
	c := &rep.CombinedSummary
	c.TotalCalls = all.TotalCalls
	c.TotalDurationSeconds = all.TotalCallDurationSeconds
	c.TotalDurationFormatted = formatHMS(all.TotalCallDurationSeconds)
	c.SuccessfulCalls = all.CompletedCalls
	c.FailedCalls = all.unsuccessful
	c.SuccessRatePercentage = all.SuccessRatePercentage
	c.FailureRatePercentage = all.FailureRatePercentage
	c.AverageDurationSeconds = all.AverageCallDurationSeconds
	c.AverageDurationFormatted = formatMinSec(int(all.AverageCallDurationSeconds))
	return rep, nil
}

// CallAnalytics aggregates the calls of several numbers over the last req.Days days.
func (s *Service) CallAnalytics(ctx context.Context, req CallAnalyticsRequest) (CallAnalytics, error) {
	if len(req.PhoneNumbers) == 0 {
		return CallAnalytics{}, apperr.Validation("phone_numbers must not be empty")
	}
	days := req.Days
	if days == 0 {
		days = DefaultWindowDays
	}
	if days < 0 || days > MaxWindowDays {
		return CallAnalytics{}, apperr.Validation("days must be between 1 and %d", MaxWindowDays)
	}

	now := s.clock().UTC()
	since := now.AddDate(0, 0, -days)
	numbers := make([]string, len(req.PhoneNumbers))
	perNumber := make([][]calls.Call, len(req.PhoneNumbers))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fanout)
	for i, raw := range req.PhoneNumbers {
		i := i
		numbers[i] = normalizeNumber(raw)
		g.Go(func() error {
			h, err := s.fetch(gctx, numbers[i], fetchOpts{since: since})
			perNumber[i] = h.calls
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return CallAnalytics{}, err
	}

	var all []calls.Call
	for _, rows := range perNumber {
		all = append(all, rows...)
	}
	all = dedupeCalls(all)

	out := CallAnalytics{
		PhoneNumbers:   numbers,
		PeriodDays:     days,
		From:           since,
		To:             now,
		CallStatistics: callStats(all),
		Buckets:        newBuckets(),
	}
	out.Buckets.add(all)
	return out, nil
}

// Dashboard summarizes the last 30 days for every agent the caller can see.
// An agent whose history cannot be fetched is reported with Error and left out of the totals.
func (s *Service) Dashboard(ctx context.Context, caller auth.Identity) (Dashboard, error) {
	list, err := s.agents.List(ctx, caller)
	if err != nil {
		return Dashboard{}, err
	}
	since := s.clock().UTC().AddDate(0, 0, -DashboardWindowDays)

	stats := make([]AgentStats, len(list))
	rows := make([][]calls.Call, len(list))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fanout)
	for i, a := range list {
		i, a := i, a
		stats[i] = agentStats(a)
		if a.TwilioNumber == "" {
			continue
		}
		g.Go(func() error {
			h, err := s.fetch(gctx, a.TwilioNumber, fetchOpts{since: since})
			if err != nil {
				logger.From(ctx).Warn("agent analytics failed", "agent_id", a.AgentID, "err", err)
				stats[i].Error = err.Error()
				return nil
			}
			rows[i] = h.calls
			stats[i].CallStatistics = callStats(h.calls)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}

	out := Dashboard{
		PeriodDays:  DashboardWindowDays,
		TotalAgents: len(list),
		Agents:      stats,
		Buckets:     newBuckets(),
	}
	for i := range stats {
		if stats[i].Error != "" {
			continue
		}
		out.CallStatistics.merge(stats[i].CallStatistics)
		out.Buckets.add(rows[i])
	}
	return out, nil
}

// AgentAnalytics covers one agent over the last 7 days.
func (s *Service) AgentAnalytics(ctx context.Context, caller auth.Identity, id int64) (AgentAnalytics, error) {
	a, err := s.agents.Get(ctx, caller, id)
	if err != nil {
		return AgentAnalytics{}, err
	}
	out := AgentAnalytics{
		Agent:       agentStats(a),
		PeriodDays:  AgentWindowDays,
		RecentCalls: []RecentCall{},
		Buckets:     newBuckets(),
	}
	if a.TwilioNumber == "" {
		return out, nil
	}

	since := s.clock().UTC().AddDate(0, 0, -AgentWindowDays)
	h, err := s.fetch(ctx, a.TwilioNumber, fetchOpts{since: since, messages: true})
	if err != nil {
		return AgentAnalytics{}, err
	}
	out.Agent.CallStatistics = callStats(h.calls)
	out.MessageStatistics = messageStats(h.messages)
	out.RecentCalls = recentCalls(h.calls)
	out.Buckets.add(h.calls)
	return out, nil
}

func agentStats(a agents.Agent) AgentStats {
	st := AgentStats{
		AgentRowID:   a.ID,
		AgentID:      a.AgentID,
		AgentName:    a.AgentName,
		TwilioNumber: a.TwilioNumber,
	}
	if a.AgentType != nil {
		st.AgentType = *a.AgentType
	}
	return st
}
