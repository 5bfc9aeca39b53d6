package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/finflow/backend/internal/application/treasury"
	"github.com/finflow/backend/internal/domain/finance"
)

// MailReportNotifier delivers the monthly treasury report as mail
type MailReportNotifier struct {
	mailer Mailer
	inbox  string
}

// NewMailReportNotifier creates a MailReportNotifier addressed to the
// finance inbox.
func NewMailReportNotifier(mailer Mailer, inbox string) *MailReportNotifier {
	return &MailReportNotifier{mailer: mailer, inbox: inbox}
}

// SendTreasuryReport implements treasury.ReportNotifier
func (n *MailReportNotifier) SendTreasuryReport(ctx context.Context, report *treasury.MonthlyReport) error {
	f := report.Forecast

	var body strings.Builder
	fmt.Fprintf(&body, "Treasury report %s\n\n", report.Period)
	fmt.Fprintf(&body, "Current balance: %s\n", f.CurrentBalance)
	fmt.Fprintf(&body, "Monthly burn:    %s\n", f.BurnRateMonthly)
	fmt.Fprintf(&body, "Runway (months): %s\n\n", f.RunwayMonths)
	for _, h := range []finance.HorizonProjection{f.Horizon30, f.Horizon60, f.Horizon90} {
		fmt.Fprintf(&body, "%d days: inflow %s, outflow %s, projected balance %s\n",
			h.Days, h.ExpectedInflow, h.ExpectedOutflow, h.ProjectedBalance)
	}

	return n.mailer.Send(ctx, Mail{
		To:      n.inbox,
		Subject: "Treasury report " + report.Period,
		Body:    body.String(),
	})
}

var _ treasury.ReportNotifier = (*MailReportNotifier)(nil)
