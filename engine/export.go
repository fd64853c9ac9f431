// ABOUTME: Flattens deals into fixed-column export records
// ABOUTME: Names for accounts, contacts and owners come from a Directory
package engine

import (
	"strconv"
	"time"

	"github.com/harperreed/dealflow/models"
)

// Directory resolves related entity ids to display names. Unknown ids
// should be returned unchanged.
type Directory interface {
	AccountName(id string) string
	ContactName(id string) string
	OwnerName(id string) string
}

type identityDirectory struct{}

func (identityDirectory) AccountName(id string) string { return id }
func (identityDirectory) ContactName(id string) string { return id }
func (identityDirectory) OwnerName(id string) string   { return id }

// ExportColumns is the header row matching ExportRecord.Row.
var ExportColumns = []string{
	"Deal Number", "Name", "Account", "Contact", "Owner", "Pipeline", "Stage",
	"Amount", "Currency", "Probability", "Expected Close", "Deal Type",
	"Priority", "Health", "Created", "Last Activity",
}

type ExportRecord struct {
	DealNumber    string  `json:"deal_number"`
	Name          string  `json:"name"`
	Account       string  `json:"account"`
	Contact       string  `json:"contact"`
	Owner         string  `json:"owner"`
	Pipeline      string  `json:"pipeline"`
	Stage         string  `json:"stage"`
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
	Probability   int     `json:"probability"`
	ExpectedClose string  `json:"expected_close"`
	DealType      string  `json:"deal_type"`
	Priority      string  `json:"priority"`
	Health        string  `json:"health"`
	Created       string  `json:"created"`
	LastActivity  string  `json:"last_activity"`
}

func (r ExportRecord) Row() []string {
	return []string{
		r.DealNumber, r.Name, r.Account, r.Contact, r.Owner, r.Pipeline, r.Stage,
		strconv.FormatFloat(r.Amount, 'f', 2, 64), r.Currency, strconv.Itoa(r.Probability),
		r.ExpectedClose, r.DealType, r.Priority, r.Health, r.Created, r.LastActivity,
	}
}

// ExportRecords builds one record per deal in the given order. Pipeline and
// stage ids are replaced by their catalog names when known.
func (e *Engine) ExportRecords(dir Directory, deals []models.Deal) []ExportRecord {
	if dir == nil {
		dir = identityDirectory{}
	}

	out := make([]ExportRecord, 0, len(deals))
	for _, d := range deals {
		pipelineName, stageName := d.PipelineID, d.StageID
		if p, err := e.catalog.Pipeline(d.PipelineID); err == nil {
			pipelineName = p.Name
			if s, ok := p.Stage(d.StageID); ok {
				stageName = s.Name
			}
		}

		out = append(out, ExportRecord{
			DealNumber:    d.DealNumber,
			Name:          d.Name,
			Account:       nameOrEmpty(d.AccountID, dir.AccountName),
			Contact:       nameOrEmpty(d.ContactID, dir.ContactName),
			Owner:         nameOrEmpty(d.OwnerID, dir.OwnerName),
			Pipeline:      pipelineName,
			Stage:         stageName,
			Amount:        d.Amount,
			Currency:      d.Currency,
			Probability:   d.Probability,
			ExpectedClose: formatDate(d.ExpectedCloseDate),
			DealType:      d.DealType,
			Priority:      d.Priority,
			Health:        d.Health,
			Created:       formatDate(&d.CreatedAt),
			LastActivity:  formatDate(d.LastActivityAt),
		})
	}
	return out
}

func nameOrEmpty(id string, lookup func(string) string) string {
	if id == "" {
		return ""
	}
	return lookup(id)
}

func formatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02")
}
