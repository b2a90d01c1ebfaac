package telephony

import (
	"context"
	"time"

	"speakai-platform/internal/calls"
)

// Provider is the telephony surface used by agent provisioning and analytics.
// No provider HTTP calls happen outside this package.
type Provider interface {
	Name() string

	SearchAvailableNumbers(ctx context.Context, req SearchNumbersRequest) ([]AvailableNumber, error)
	BuyNumber(ctx context.Context, req BuyNumberRequest) (BuyNumberResult, error)
	ListIncomingNumbers(ctx context.Context, phoneNumber string) ([]IncomingNumber, error)
	ReleaseNumber(ctx context.Context, req ReleaseNumberRequest) (ReleaseNumberResult, error)

	ListCalls(ctx context.Context, f HistoryFilter) ([]calls.Call, error)
	ListMessages(ctx context.Context, f HistoryFilter) ([]calls.Message, error)

	// Credentials are handed to the agent provider when importing a purchased number.
	Credentials() Credentials
}

type Credentials struct {
	AccountSID string
	AuthToken  string
}

type SearchNumbersRequest struct {
	CountryISO2 string
	NumberType  string
	Limit       int
}

type AvailableNumber struct {
	PhoneNumber  string `json:"phone_number"`
	FriendlyName string `json:"friendly_name"`
	Locality     string `json:"locality"`
	Region       string `json:"region"`
}

type BuyNumberRequest struct {
	PhoneNumber  string
	FriendlyName string
}

type BuyNumberResult struct {
	// Number is the purchased number (E.164).
	Number           string `json:"number"`
	ProviderNumberID string `json:"provider_number_id"`
}

type ReleaseNumberRequest struct {
	Number           string
	ProviderNumberID string
}

type ReleaseNumberResult struct {
	Released bool `json:"released"`
	// NotFound is set when no owned number matched; callers treat it as already released.
	NotFound bool `json:"not_found"`
}

// IncomingNumber is an owned number as the provider reports it.
type IncomingNumber struct {
	SID                 string          `json:"sid"`
	AccountSID          string          `json:"account_sid"`
	PhoneNumber         string          `json:"phone_number"`
	FriendlyName        string          `json:"friendly_name"`
	Status              string          `json:"status"`
	Capabilities        map[string]bool `json:"capabilities"`
	AddressRequirements string          `json:"address_requirements"`
	Beta                bool            `json:"beta"`
	Origin              string          `json:"origin"`
	TrunkSID            *string         `json:"trunk_sid"`
	EmergencyStatus     *string         `json:"emergency_status"`
	EmergencyAddressSID *string         `json:"emergency_address_sid"`
	DateCreated         string          `json:"date_created"`
	DateUpdated         string          `json:"date_updated"`
	URI                 string          `json:"uri"`
}

// HistoryFilter selects call or message history. Exactly one of From and To is normally set.
type HistoryFilter struct {
	From     string
	To       string
	PageSize int
	// Since drops records created before it. Zero means no lower bound.
	Since time.Time
}
