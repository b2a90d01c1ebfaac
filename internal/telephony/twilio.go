package telephony

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"speakai-platform/internal/apperr"
	"speakai-platform/internal/calls"
	"speakai-platform/internal/config"

	"github.com/go-resty/resty/v2"
)

// ErrNoNumbersAvailable is returned when the inventory search comes back empty.
var ErrNoNumbersAvailable = errors.New("telephony: no phone numbers available for purchase")

// twilioTimeLayout is the RFC 2822 form used in Twilio JSON payloads.
const twilioTimeLayout = time.RFC1123Z

// TwilioProvider talks to the Twilio REST API (2010-04-01) with basic auth.
type TwilioProvider struct {
	http  *resty.Client
	creds Credentials

	// country and numberType are the inventory searched when no number is requested.
	country    string
	numberType string
}

func NewTwilioProvider(cfg config.TwilioConfig, timeout time.Duration) (*TwilioProvider, error) {
	if cfg.AccountSID == "" || cfg.AuthToken == "" {
		return nil, errors.New("telephony: twilio credentials not configured")
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = config.DefaultTwilioBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	h := resty.New().
		SetBaseURL(base+"/Accounts/"+cfg.AccountSID).
		SetBasicAuth(cfg.AccountSID, cfg.AuthToken).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	p := &TwilioProvider{
		http:       h,
		creds:      Credentials{AccountSID: cfg.AccountSID, AuthToken: cfg.AuthToken},
		country:    strings.ToUpper(strings.TrimSpace(cfg.NumberCountry)),
		numberType: strings.TrimSpace(cfg.NumberType),
	}
	if p.country == "" {
		p.country = "US"
	}
	if p.numberType == "" {
		p.numberType = "Local"
	}
	return p, nil
}

func (p *TwilioProvider) Name() string { return "twilio" }

func (p *TwilioProvider) Credentials() Credentials { return p.creds }

func (p *TwilioProvider) do(ctx context.Context, op, method, path string, req *resty.Request) (*resty.Response, error) {
	resp, err := req.SetContext(ctx).Execute(method, path)
	if err != nil {
		return nil, fmt.Errorf("twilio %s: %w", op, err)
	}
	if resp.IsError() || resp.StatusCode() >= 300 {
		return nil, &apperr.UpstreamError{Provider: p.Name(), Op: op, Status: resp.StatusCode(), Body: resp.String()}
	}
	return resp, nil
}

type availableNumbersPage struct {
	AvailablePhoneNumbers []AvailableNumber `json:"available_phone_numbers"`
}

func (p *TwilioProvider) SearchAvailableNumbers(ctx context.Context, in SearchNumbersRequest) ([]AvailableNumber, error) {
	country := in.CountryISO2
	if country == "" {
		country = p.country
	}
	kind := in.NumberType
	if kind == "" {
		kind = p.numberType
	}
	limit := in.Limit
	if limit <= 0 {
		limit = 1
	}

	var out availableNumbersPage
	req := p.http.R().
		SetPathParams(map[string]string{"country": country, "type": kind}).
		SetQueryParam("PageSize", strconv.Itoa(limit)).
		SetResult(&out)
	if _, err := p.do(ctx, "search available numbers", http.MethodGet, "/AvailablePhoneNumbers/{country}/{type}.json", req); err != nil {
		return nil, err
	}
	return out.AvailablePhoneNumbers, nil
}

// BuyNumber purchases req.PhoneNumber, or the first available number of the configured
// country and type when it is empty.
// Purchases cost money and are never retried.
func (p *TwilioProvider) BuyNumber(ctx context.Context, in BuyNumberRequest) (BuyNumberResult, error) {
	number := in.PhoneNumber
	if number == "" {
		avail, err := p.SearchAvailableNumbers(ctx, SearchNumbersRequest{Limit: 1})
		if err != nil {
			return BuyNumberResult{}, err
		}
		if len(avail) == 0 {
			return BuyNumberResult{}, ErrNoNumbersAvailable
		}
		number = avail[0].PhoneNumber
	}

	var out IncomingNumber
	form := map[string]string{"PhoneNumber": number}
	if in.FriendlyName != "" {
		form["FriendlyName"] = in.FriendlyName
	}
	req := p.http.R().SetFormData(form).SetResult(&out)
	if _, err := p.do(ctx, "buy number", http.MethodPost, "/IncomingPhoneNumbers.json", req); err != nil {
		return BuyNumberResult{}, err
	}
	return BuyNumberResult{Number: out.PhoneNumber, ProviderNumberID: out.SID}, nil
}

type incomingNumbersPage struct {
	IncomingPhoneNumbers []IncomingNumber `json:"incoming_phone_numbers"`
}

// ListIncomingNumbers returns owned numbers, filtered to phoneNumber when it is set.
func (p *TwilioProvider) ListIncomingNumbers(ctx context.Context, phoneNumber string) ([]IncomingNumber, error) {
	var out incomingNumbersPage
	req := p.http.R().SetQueryParam("PageSize", "1000").SetResult(&out)
	if phoneNumber != "" {
		req.SetQueryParam("PhoneNumber", phoneNumber)
	}
	if _, err := p.do(ctx, "list incoming numbers", http.MethodGet, "/IncomingPhoneNumbers.json", req); err != nil {
		return nil, err
	}
	return out.IncomingPhoneNumbers, nil
}

// ReleaseNumber releases by provider id, or by scanning owned numbers for an exact match.
func (p *TwilioProvider) ReleaseNumber(ctx context.Context, in ReleaseNumberRequest) (ReleaseNumberResult, error) {
	sid := in.ProviderNumberID
	if sid == "" {
		if in.Number == "" {
			return ReleaseNumberResult{}, errors.New("telephony: number or provider id required")
		}
		owned, err := p.ListIncomingNumbers(ctx, "")
		if err != nil {
			return ReleaseNumberResult{}, err
		}
		for _, n := range owned {
			if n.PhoneNumber == in.Number {
				sid = n.SID
				break
			}
		}
		if sid == "" {
			return ReleaseNumberResult{NotFound: true}, nil
		}
	}

	req := p.http.R().SetPathParam("sid", sid)
	if _, err := p.do(ctx, "release number", http.MethodDelete, "/IncomingPhoneNumbers/{sid}.json", req); err != nil {
		if apperr.IsUpstreamNotFound(err) {
			return ReleaseNumberResult{NotFound: true}, nil
		}
		return ReleaseNumberResult{}, err
	}
	return ReleaseNumberResult{Released: true}, nil
}

type twilioCall struct {
	SID           string `json:"sid"`
	From          string `json:"from"`
	FromFormatted string `json:"from_formatted"`
	To            string `json:"to"`
	Status        string `json:"status"`
	Direction     string `json:"direction"`
	Duration      string `json:"duration"`
	DateCreated   string `json:"date_created"`
}

type callsPage struct {
	Calls []twilioCall `json:"calls"`
}

func (p *TwilioProvider) ListCalls(ctx context.Context, f HistoryFilter) ([]calls.Call, error) {
	var out callsPage
	req := p.historyRequest(f, "StartTime>=").SetResult(&out)
	if _, err := p.do(ctx, "list calls", http.MethodGet, "/Calls.json", req); err != nil {
		return nil, err
	}

	res := make([]calls.Call, 0, len(out.Calls))
	for _, c := range out.Calls {
		created := parseTwilioTime(c.DateCreated)
		if !f.Since.IsZero() && created.Before(f.Since) {
			continue
		}
		res = append(res, calls.Call{
			SID:             c.SID,
			From:            c.From,
			FromFormatted:   c.FromFormatted,
			To:              c.To,
			Status:          calls.CallStatus(c.Status),
			Direction:       c.Direction,
			DurationSeconds: parseDuration(c.Duration),
			DateCreated:     created,
		})
	}
	return res, nil
}

type twilioMessage struct {
	SID         string `json:"sid"`
	From        string `json:"from"`
	To          string `json:"to"`
	Status      string `json:"status"`
	Direction   string `json:"direction"`
	DateCreated string `json:"date_created"`
}

type messagesPage struct {
	Messages []twilioMessage `json:"messages"`
}

func (p *TwilioProvider) ListMessages(ctx context.Context, f HistoryFilter) ([]calls.Message, error) {
	var out messagesPage
	req := p.historyRequest(f, "DateSent>=").SetResult(&out)
	if _, err := p.do(ctx, "list messages", http.MethodGet, "/Messages.json", req); err != nil {
		return nil, err
	}

	res := make([]calls.Message, 0, len(out.Messages))
	for _, m := range out.Messages {
		created := parseTwilioTime(m.DateCreated)
		if !f.Since.IsZero() && created.Before(f.Since) {
			continue
		}
		res = append(res, calls.Message{
			SID:         m.SID,
			From:        m.From,
			To:          m.To,
			Status:      calls.MessageStatus(m.Status),
			Direction:   m.Direction,
			DateCreated: created,
		})
	}
	return res, nil
}

func (p *TwilioProvider) historyRequest(f HistoryFilter, sinceParam string) *resty.Request {
	size := f.PageSize
	if size <= 0 {
		size = 50
	}
	req := p.http.R().SetQueryParam("PageSize", strconv.Itoa(size))
	if f.From != "" {
		req.SetQueryParam("From", f.From)
	}
	if f.To != "" {
		req.SetQueryParam("To", f.To)
	}
	if !f.Since.IsZero() {
		req.SetQueryParam(sinceParam, f.Since.UTC().Format("2006-01-02"))
	}
	return req
}

func parseTwilioTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(twilioTimeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}

func parseDuration(s string) *int {
	if s == "" {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &n
}
