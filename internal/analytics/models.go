package analytics

import "time"

// History bounds per number and direction.
const (
	CallPageSize    = 100
	MessagePageSize = 50
	RecentItems     = 5

	DashboardWindowDays = 30
	AgentWindowDays     = 7
	DefaultWindowDays   = 30
	MaxWindowDays       = 365
)

type CallStatistics struct {
	TotalCalls                 int     `json:"total_calls"`
	CompletedCalls             int     `json:"completed_calls"`
	FailedCalls                int     `json:"failed_calls"`
	BusyCalls                  int     `json:"busy_calls"`
	NoAnswerCalls              int     `json:"no_answer_calls"`
	CanceledCalls              int     `json:"canceled_calls"`
	InProgressCalls            int     `json:"in_progress_calls"`
	AverageCallDurationSeconds float64 `json:"average_call_duration_seconds"`
	TotalCallDurationSeconds   int     `json:"total_call_duration_seconds"`
	SuccessRatePercentage      float64 `json:"success_rate_percentage"`
	FailureRatePercentage      float64 `json:"failure_rate_percentage"`

	// timedCalls counts completed calls with a reported duration.
	timedCalls int
	// unsuccessful counts failed, busy, no-answer and canceled calls.
	unsuccessful int
}

type MessageStatistics struct {
	TotalMessages     int `json:"total_messages"`
	DeliveredMessages int `json:"delivered_messages"`
	FailedMessages    int `json:"failed_messages"`
	SentMessages      int `json:"sent_messages"`
	ReceivedMessages  int `json:"received_messages"`
}

type RecentCall struct {
	To                string `json:"to"`
	From              string `json:"from"`
	Status            string `json:"status"`
	DurationSeconds   int    `json:"duration_seconds"`
	DurationFormatted string `json:"duration_formatted"`
	DateCreated       string `json:"date_created"`
	Direction         string `json:"direction"`
}

type RecentMessage struct {
	To          string `json:"to"`
	From        string `json:"from"`
	Status      string `json:"status"`
	Direction   string `json:"direction"`
	DateCreated string `json:"date_created"`
}

type MultipleNumbersRequest struct {
	PhoneNumbers          []string `json:"phone_numbers"`
	IncludeRecentCalls    bool     `json:"include_recent_calls"`
	IncludeRecentMessages bool     `json:"include_recent_messages"`
}

// NumberResult is one entry of a multi-number report. Status is "success" or "error".
type NumberResult struct {
	PhoneNumber       string             `json:"phone_number"`
	Status            string             `json:"status"`
	Error             string             `json:"error,omitempty"`
	CallStatistics    *CallStatistics    `json:"call_statistics"`
	MessageStatistics *MessageStatistics `json:"message_statistics"`
	RecentCalls       []RecentCall       `json:"recent_calls,omitempty"`
	RecentMessages    []RecentMessage    `json:"recent_messages,omitempty"`
}

type RequestSummary struct {
	TotalNumbersRequested int  `json:"total_numbers_requested"`
	SuccessfulNumbers     int  `json:"successful_numbers"`
	FailedNumbers         int  `json:"failed_numbers"`
	IncludeRecentCalls    bool `json:"include_recent_calls"`
	IncludeRecentMessages bool `json:"include_recent_messages"`
}

type CombinedSummary struct {
	TotalCalls               int     `json:"total_calls_across_all_numbers"`
	TotalMessages            int     `json:"total_messages_across_all_numbers"`
	TotalDurationSeconds     int     `json:"total_duration_seconds"`
	TotalDurationFormatted   string  `json:"total_duration_formatted"`
	SuccessfulCalls          int     `json:"successful_calls_across_all_numbers"`
	FailedCalls              int     `json:"failed_calls_across_all_numbers"`
	SuccessRatePercentage    float64 `json:"combined_success_rate_percentage"`
	FailureRatePercentage    float64 `json:"combined_failure_rate_percentage"`
	AverageDurationSeconds   float64 `json:"combined_average_duration_seconds"`
	AverageDurationFormatted string  `json:"combined_average_duration_formatted"`
}

type MultipleNumbersReport struct {
	RequestSummary    RequestSummary  `json:"request_summary"`
	CombinedSummary   CombinedSummary `json:"combined_summary"`
	IndividualResults []NumberResult  `json:"individual_results"`
}

// UsageReport is the call and message activity of one number.
type UsageReport struct {
	PhoneNumber       string            `json:"phone_number"`
	CallStatistics    CallStatistics    `json:"call_statistics"`
	MessageStatistics MessageStatistics `json:"message_statistics"`
	RecentCalls       []RecentCall      `json:"recent_calls"`
	RecentMessages    []RecentMessage   `json:"recent_messages"`
}

type CallAnalyticsRequest struct {
	PhoneNumbers []string `json:"phone_numbers"`
	Days         int      `json:"days"`
}

// Buckets count calls per weekday name and per hour "00".."23", in UTC.
type Buckets struct {
	ByWeekday map[string]int `json:"calls_by_weekday"`
	ByHour    map[string]int `json:"calls_by_hour"`
}

type CallAnalytics struct {
	PhoneNumbers   []string       `json:"phone_numbers"`
	PeriodDays     int            `json:"period_days"`
	From           time.Time      `json:"from"`
	To             time.Time      `json:"to"`
	CallStatistics CallStatistics `json:"call_statistics"`
	Buckets
}

type AgentStats struct {
	AgentRowID     int64          `json:"id"`
	AgentID        string         `json:"agent_id"`
	AgentName      string         `json:"agent_name"`
	AgentType      string         `json:"agent_type,omitempty"`
	TwilioNumber   string         `json:"twilio_number"`
	CallStatistics CallStatistics `json:"call_statistics"`
	// Error is set when the number's history could not be fetched.
	Error string `json:"error,omitempty"`
}

type Dashboard struct {
	PeriodDays     int            `json:"period_days"`
	TotalAgents    int            `json:"total_agents"`
	CallStatistics CallStatistics `json:"call_statistics"`
	Agents         []AgentStats   `json:"agents"`
	Buckets
}

type AgentAnalytics struct {
	Agent             AgentStats        `json:"agent"`
	PeriodDays        int               `json:"period_days"`
	MessageStatistics MessageStatistics `json:"message_statistics"`
	RecentCalls       []RecentCall      `json:"recent_calls"`
	Buckets
}
