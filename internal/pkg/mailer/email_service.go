package mailer

import (
	"fmt"
	"html"

	"metrocare-be/internal/pkg/logger"

	"gopkg.in/gomail.v2"
)

type IEmailService interface {
	SendStatusUpdate(toEmail string, update StatusUpdateMail) error
}

// StatusUpdateMail is the content of the reporter notification on a status change.
type StatusUpdateMail struct {
	ReportId    string
	ReportTitle string
	OldStatus   string
	NewStatus   string
	Message     string
}

type emailService struct {
	dialer      *gomail.Dialer
	senderEmail string
	senderName  string
	clientURL   string
	logger      logger.ILogger
}

func NewEmailService(host string, port int, username, password, senderEmail, senderName, clientURL string, log logger.ILogger) IEmailService {
	d := gomail.NewDialer(host, port, username, password)

	return &emailService{
		dialer:      d,
		senderEmail: senderEmail,
		senderName:  senderName,
		clientURL:   clientURL,
		logger:      log,
	}
}

func (s *emailService) SendStatusUpdate(toEmail string, update StatusUpdateMail) error {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.senderEmail, s.senderName)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", fmt.Sprintf("Your report is now %s", update.NewStatus))

	reportLink := fmt.Sprintf("%s/reports/%s", s.clientURL, update.ReportId)

	message := ""
	if update.Message != "" {
		message = fmt.Sprintf(`<p style="padding: 10px; background: #f4f4f4;">%s</p>`, html.EscapeString(update.Message))
	}

	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>%s</h2>
			<p>Status changed from <b>%s</b> to <b>%s</b>.</p>
			%s
			<a href="%s" style="background-color: #007BFF; color: white; padding: 10px 20px; text-decoration: none; border-radius: 5px; display: inline-block;">View report</a>
		</div>
	`, html.EscapeString(update.ReportTitle), update.OldStatus, update.NewStatus, message, reportLink)

	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		s.logger.Error("MAILER", "Failed to send status update", map[string]interface{}{
			"report_id": update.ReportId,
			"error":     err.Error(),
		})
		return err
	}

	s.logger.Info("MAILER", "Status update sent", map[string]interface{}{"report_id": update.ReportId})
	return nil
}
