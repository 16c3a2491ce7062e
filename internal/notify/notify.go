package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"webcat-submit/internal/components/assert"
	"webcat-submit/internal/components/telemetry"
	"webcat-submit/internal/render"
	"webcat-submit/internal/scrapers/webcat"

	"github.com/jordan-wright/email"
	"go.opentelemetry.io/otel/codes"
)

var tracer = telemetry.Tracer("webcat-submit.internal.notify")

const report_mailer_send = "mailer.send"

type SmtpConfig struct {
	Server       string `json:"server"`
	Port         int    `json:"port"`
	EmailAddress string `json:"email_address"`
	Password     string `json:"password"`
}

type Config struct {
	Smtp SmtpConfig `json:"smtp"`
	To   []string   `json:"to"`
}

// Enabled is true when there is a server and someone to send to.
func (c Config) Enabled() bool {
	return c.Smtp.Server != "" && len(c.To) > 0
}

// Mailer emails a summary of graded submissions.
type Mailer struct {
	config Config
	tel    telemetry.API
}

func NewMailer(config Config, tel telemetry.API) Mailer {
	assert.NotEmptyStr(config.Smtp.Server)
	assert.NotEmpty(config.To)
	assert.NotNil(tel)

	return Mailer{
		config: config,
		tel:    telemetry.NewScopedAPI("notify", tel),
	}
}

// Summary is the plain text body sent for a record.
func Summary(record *webcat.ResultRecord, view render.View) string {
	var out strings.Builder
	if record == nil {
		out.WriteString("No summary information available\n")
	} else {
		fmt.Fprintf(&out, "Assignment: %s\n", record.AssignmentName)
		fmt.Fprintf(&out, "Student: %s\n", record.StudentName)
		fmt.Fprintf(&out, "Submitted: %s\n", record.SubmittedAt)
		fmt.Fprintf(&out, "Score: %s (%.1f%%)\n", record.TotalScore, render.ScorePercent(record.TotalScore))
		if record.CoveragePercentText != "" {
			_, value := render.SplitCoverage(record.CoveragePercentText)
			fmt.Fprintf(&out, "Problem coverage: %s\n", value)
		}
		if len(record.DiagnosticMessages) > 0 {
			out.WriteString("\nFix These Issues:\n")
			for _, msg := range record.DiagnosticMessages {
				fmt.Fprintf(&out, "- %s\n", msg)
			}
		}
	}
	if view.Queued || (record != nil && record.IsQueued) {
		out.WriteString("\nThe submission is still queued for grading.\n")
	}
	if view.ResultsUrl != "" {
		fmt.Fprintf(&out, "\n%s\n", view.ResultsUrl)
	}
	return out.String()
}

func (m Mailer) Send(ctx context.Context, subject string, record *webcat.ResultRecord, view render.View) error {
	_, span := tracer.Start(ctx, "Send")
	defer span.End()

	mail := email.NewEmail()
	mail.From = fmt.Sprintf("Web-CAT Submit <%s>", m.config.Smtp.EmailAddress)
	mail.To = m.config.To
	mail.Subject = subject
	mail.Text = []byte(Summary(record, view))

	addr := fmt.Sprintf("%s:%d", m.config.Smtp.Server, m.config.Smtp.Port)
	err := mail.Send(
		addr,
		smtp.PlainAuth("", m.config.Smtp.EmailAddress, m.config.Smtp.Password, m.config.Smtp.Server),
	)
	if err != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		err = mail.Send(addr, nil)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to send email")
		m.tel.ReportBroken(report_mailer_send, err, addr)
		return fmt.Errorf("notify: send: %w", err)
	}

	return nil
}
