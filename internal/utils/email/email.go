package email

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"

	"github.com/Dan9191/credit-analytics/internal/config"
	"github.com/Dan9191/credit-analytics/internal/models"
)

// Sender handles sending emails via SMTP
type Sender struct {
	cfg    *config.Config
	logger *logrus.Logger
	send   func(e *email.Email, addr string, auth smtp.Auth) error
}

// NewSender creates a new email sender
func NewSender(cfg *config.Config, logger *logrus.Logger) *Sender {
	return &Sender{
		cfg:    cfg,
		logger: logger,
		send: func(e *email.Email, addr string, auth smtp.Auth) error {
			return e.Send(addr, auth)
		},
	}
}

// SendPortfolioDigest emails the headline KPIs of a freshly loaded dataset
func (s *Sender) SendPortfolioDigest(info models.DatasetInfo, k models.KPISummary) error {
	if len(s.cfg.ReportRecipients) == 0 {
		return fmt.Errorf("no report recipients configured")
	}

	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = s.cfg.ReportRecipients
	e.Subject = fmt.Sprintf("Portfolio digest: %d applications, %.2f%% default rate", k.TotalApplications, k.DefaultRate)
	e.Text = []byte(digestBody(info, k))

	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	auth := smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	if err := s.send(e, addr, auth); err != nil {
		s.logger.Errorf("Failed to send digest to %s: %v", strings.Join(e.To, ", "), err)
		return fmt.Errorf("failed to send digest: %w", err)
	}

	s.logger.Infof("Digest sent to %s: %s", strings.Join(e.To, ", "), e.Subject)
	return nil
}

func digestBody(info models.DatasetInfo, k models.KPISummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Dataset %s (%s), loaded %s\n\n", info.BatchID, info.Source, info.LoadedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Applications:        %d\n", k.TotalApplications)
	fmt.Fprintf(&b, "Defaults:            %d (%.2f%%)\n", k.Defaults, k.DefaultRate)
	fmt.Fprintf(&b, "Median age:          %.1f\n", k.MedianAge)
	fmt.Fprintf(&b, "Median income:       %.0f\n", k.MedianIncome)
	fmt.Fprintf(&b, "Mean credit:         %.0f\n", k.MeanCredit)
	fmt.Fprintf(&b, "Mean DTI:            %.3f\n", k.MeanDTI)
	fmt.Fprintf(&b, "Mean LTI:            %.2f\n", k.MeanLTI)
	fmt.Fprintf(&b, "Income gap:          %.0f\n", k.IncomeGap)
	fmt.Fprintf(&b, "Large loans (>1M):   %.1f%%\n", k.LargeLoanPct)
	b.WriteString("\nBest regards,\nCredit Analytics")
	return b.String()
}
