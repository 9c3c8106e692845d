package notice

import (
	"bytes"
	"strings"
	"text/template"
	"time"

	"github.com/xraph/dues/types"
)

// GracePeriodDays is the time a resident has to settle before legal action.
const GracePeriodDays = 7

// AmountPlaceholder stands in for the amount when no invoice is linked.
const AmountPlaceholder = "[Amount]"

// Society identifies the issuer printed at the top of a letter.
type Society struct {
	Name         string `json:"name"`
	Address      string `json:"address,omitempty"`
	Registration string `json:"registration,omitempty"`
}

type DemandLetterInput struct {
	Society      Society
	ResidentName string
	Flat         string
	Amount       *types.Money
	Date         time.Time
}

// Letter is a suggested subject and body. Operators may edit both freely.
type Letter struct {
	Subject string `json:"subject"`
	Content string `json:"content"`
}

var letterTmpl = template.Must(template.New("demand").Parse(`{{.Society.Name}}
{{- with .Society.Address}}
{{.}}{{end}}
{{- with .Society.Registration}}
Registration No. {{.}}{{end}}

Date: {{.Date}}

To,
{{.ResidentName}}
Flat {{.Flat}}

Subject: {{.Subject}}

Dear {{.ResidentName}},

Our records show that maintenance dues of {{.Amount}} against Flat {{.Flat}} remain unpaid despite earlier reminders.

You are hereby called upon to clear the full outstanding amount of {{.Amount}} within {{.GraceDays}} days of the date of this notice. If the dues are not cleared within this period, the society will initiate legal proceedings for recovery, including interest and costs, without further notice.

If you have already made the payment, please share the payment reference with the society office so that our records can be updated.

Sincerely,
Management Committee
{{.Society.Name}}
`))

// ComposeDemandLetter fills the fixed demand-letter template.
func ComposeDemandLetter(in DemandLetterInput) Letter {
	amount := AmountPlaceholder
	if in.Amount != nil {
		amount = in.Amount.String()
	}
	subject := "Legal notice for non-payment of maintenance dues, Flat " + in.Flat

	var buf bytes.Buffer
	_ = letterTmpl.Execute(&buf, struct { //nolint:errcheck // bytes.Buffer writes do not fail
		Society      Society
		Date         string
		ResidentName string
		Flat         string
		Subject      string
		Amount       string
		GraceDays    int
	}{
		Society:      in.Society,
		Date:         in.Date.Format("02 January 2006"),
		ResidentName: in.ResidentName,
		Flat:         in.Flat,
		Subject:      subject,
		Amount:       amount,
		GraceDays:    GracePeriodDays,
	})

	return Letter{Subject: subject, Content: strings.TrimSpace(buf.String()) + "\n"}
}
