// ABOUTME: Data models for the deal pipeline engine
// ABOUTME: Defines Deal, Pipeline, Stage, StageHistoryEntry and their enums
package models

import (
	"sort"
	"time"
)

type Deal struct {
	ID         string `json:"id"`
	DealNumber string `json:"deal_number"`
	Name       string `json:"name" validate:"required"`

	AccountID string `json:"account_id,omitempty"`
	ContactID string `json:"contact_id,omitempty"`
	OwnerID   string `json:"owner_id" validate:"required"`

	PipelineID string `json:"pipeline_id" validate:"required"`
	StageID    string `json:"stage_id" validate:"required"`

	Amount            float64    `json:"amount" validate:"gte=0"`
	Currency          string     `json:"currency" validate:"oneof=USD EUR GBP CAD AUD"`
	Probability       int        `json:"probability" validate:"gte=0,lte=100"`
	ExpectedCloseDate *time.Time `json:"expected_close_date,omitempty"`
	ActualCloseDate   *time.Time `json:"actual_close_date,omitempty"`

	DealType   string `json:"deal_type" validate:"oneof=new-business existing-business upsell renewal"`
	LeadSource string `json:"lead_source,omitempty"`
	CampaignID string `json:"campaign_id,omitempty"`

	Description string `json:"description,omitempty"`
	NextSteps   string `json:"next_steps,omitempty"`
	Notes       string `json:"notes,omitempty"`

	Tags         []string          `json:"tags"`
	CustomFields map[string]string `json:"custom_fields,omitempty"`
	Priority     string            `json:"priority" validate:"oneof=low medium high urgent"`
	Health       string            `json:"health" validate:"oneof=healthy at-risk stalled archived"`

	Activities  []Activity   `json:"activities,omitempty"`
	Emails      []Email      `json:"emails,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`

	StageHistory []StageHistoryEntry `json:"stage_history" validate:"min=1"`

	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	CreatedBy      string     `json:"created_by,omitempty"`
	LastActivityAt *time.Time `json:"last_activity_at,omitempty"`
}

// StageHistoryEntry records one stay of a deal in a stage.
// DurationHours is derived from EnteredAt and ExitedAt and is not authoritative.
type StageHistoryEntry struct {
	ID            string     `json:"id"`
	FromStageID   string     `json:"from_stage_id,omitempty"`
	ToStageID     string     `json:"to_stage_id"`
	EnteredAt     time.Time  `json:"entered_at"`
	ExitedAt      *time.Time `json:"exited_at,omitempty"`
	DurationHours *float64   `json:"duration_hours,omitempty"`
	ChangedBy     string     `json:"changed_by"`
	Reason        string     `json:"reason,omitempty"`
}

type Activity struct {
	ID          string     `json:"id"`
	Type        string     `json:"type"`
	Subject     string     `json:"subject"`
	Description string     `json:"description,omitempty"`
	Status      string     `json:"status"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedBy   string     `json:"created_by"`
	CreatedAt   time.Time  `json:"created_at"`
}

type Email struct {
	ID        string     `json:"id"`
	Subject   string     `json:"subject"`
	Direction string     `json:"direction"`
	Status    string     `json:"status"`
	FromEmail string     `json:"from_email"`
	ToEmails  []string   `json:"to_emails"`
	SentAt    *time.Time `json:"sent_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

type Attachment struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Type       string    `json:"type"`
	Size       int64     `json:"size"`
	URL        string    `json:"url"`
	UploadedBy string    `json:"uploaded_by"`
	UploadedAt time.Time `json:"uploaded_at"`
}

type Pipeline struct {
	ID          string   `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	IsDefault   bool     `json:"is_default" yaml:"default"`
	IsActive    bool     `json:"is_active" yaml:"active"`
	DealTypes   []string `json:"deal_types,omitempty" yaml:"deal_types,omitempty"`
	Stages      []Stage  `json:"stages" yaml:"stages"`
}

type Stage struct {
	ID           string   `json:"id" yaml:"id"`
	Name         string   `json:"name" yaml:"name"`
	Description  string   `json:"description,omitempty" yaml:"description,omitempty"`
	Color        string   `json:"color" yaml:"color"`
	Position     int      `json:"position" yaml:"position"`
	Probability  int      `json:"probability" yaml:"probability"`
	IsClosedWon  bool     `json:"is_closed_won" yaml:"closed_won"`
	IsClosedLost bool     `json:"is_closed_lost" yaml:"closed_lost"`
	Requirements []string `json:"requirements,omitempty" yaml:"requirements,omitempty"`
}

// IsClosed reports whether the stage ends a deal's lifecycle.
func (s Stage) IsClosed() bool {
	return s.IsClosedWon || s.IsClosedLost
}

// Stage looks up a stage by id within the pipeline.
func (p Pipeline) Stage(id string) (Stage, bool) {
	for _, s := range p.Stages {
		if s.ID == id {
			return s, true
		}
	}
	return Stage{}, false
}

// Currency constants.
const (
	CurrencyUSD = "USD"
	CurrencyEUR = "EUR"
	CurrencyGBP = "GBP"
	CurrencyCAD = "CAD"
	CurrencyAUD = "AUD"
)

// DealType constants.
const (
	DealTypeNewBusiness      = "new-business"
	DealTypeExistingBusiness = "existing-business"
	DealTypeUpsell           = "upsell"
	DealTypeRenewal          = "renewal"
)

// Priority constants.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// Health constants.
const (
	HealthHealthy  = "healthy"
	HealthAtRisk   = "at-risk"
	HealthStalled  = "stalled"
	HealthArchived = "archived"
)

// Activity type constants.
const (
	ActivityCall    = "call"
	ActivityEmail   = "email"
	ActivityMeeting = "meeting"
	ActivityTask    = "task"
	ActivityNote    = "note"
)

// Activity status constants.
const (
	ActivityPlanned   = "planned"
	ActivityCompleted = "completed"
	ActivityCancelled = "cancelled"
)

// CurrentEntry returns the open history entry, the one without ExitedAt.
func (d *Deal) CurrentEntry() (*StageHistoryEntry, bool) {
	for i := len(d.StageHistory) - 1; i >= 0; i-- {
		if d.StageHistory[i].ExitedAt == nil {
			return &d.StageHistory[i], true
		}
	}
	return nil, false
}

// WeightedValue is the amount scaled by the deal's win probability.
func (d Deal) WeightedValue() float64 {
	return d.Amount * float64(d.Probability) / 100
}

// HasTag reports whether the deal carries tag.
func (d Deal) HasTag(tag string) bool {
	for _, t := range d.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so callers never share slices or maps with a stored deal.
func (d Deal) Clone() Deal {
	c := d
	c.ExpectedCloseDate = cloneTime(d.ExpectedCloseDate)
	c.ActualCloseDate = cloneTime(d.ActualCloseDate)
	c.LastActivityAt = cloneTime(d.LastActivityAt)

	if d.Tags != nil {
		c.Tags = append([]string(nil), d.Tags...)
	}
	if d.CustomFields != nil {
		c.CustomFields = make(map[string]string, len(d.CustomFields))
		for k, v := range d.CustomFields {
			c.CustomFields[k] = v
		}
	}
	if d.Activities != nil {
		c.Activities = make([]Activity, len(d.Activities))
		for i, a := range d.Activities {
			a.ScheduledAt = cloneTime(a.ScheduledAt)
			a.CompletedAt = cloneTime(a.CompletedAt)
			c.Activities[i] = a
		}
	}
	if d.Emails != nil {
		c.Emails = make([]Email, len(d.Emails))
		for i, e := range d.Emails {
			e.ToEmails = append([]string(nil), e.ToEmails...)
			e.SentAt = cloneTime(e.SentAt)
			c.Emails[i] = e
		}
	}
	if d.Attachments != nil {
		c.Attachments = append([]Attachment(nil), d.Attachments...)
	}
	if d.StageHistory != nil {
		c.StageHistory = make([]StageHistoryEntry, len(d.StageHistory))
		for i, h := range d.StageHistory {
			h.ExitedAt = cloneTime(h.ExitedAt)
			if h.DurationHours != nil {
				v := *h.DurationHours
				h.DurationHours = &v
			}
			c.StageHistory[i] = h
		}
	}
	return c
}

// NormalizeTags sorts and deduplicates tags, dropping empty strings.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
