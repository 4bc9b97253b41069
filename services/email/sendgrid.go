package emailsvc

import (
	"context"
	"fmt"
	"net/http"
	"net/mail"
	"time"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/orbitaplataforma/orbita/core"
)

const sendTimeout = 15 * time.Second

type sendgridService struct {
	conf   *core.Config
	from   *sgmail.Email
	logger core.Logger

	// deliver posts one prepared mail; swapped in tests
	deliver func(ctx context.Context, m *sgmail.SGMailV3) (*rest.Response, error)
}

var _ core.EmailService = (*sendgridService)(nil)

func NewSendgridService(conf *core.Config, logger core.Logger) core.EmailService {
	from := conf.DefaultFromEmail()
	return &sendgridService{
		conf:   conf,
		from:   sgmail.NewEmail(from.Name, from.Address),
		logger: logger,
		deliver: func(ctx context.Context, m *sgmail.SGMailV3) (*rest.Response, error) {
			// a Client keeps the request body, so one per send
			return sendgrid.NewSendClient(conf.SendgridApiKey).SendWithContext(ctx, m)
		},
	}
}

// SendMessages renders and posts each message in its own goroutine. Failures are only logged.
func (svc *sendgridService) SendMessages(messages ...*core.EmailMessage) {
	for _, msg := range messages {
		go svc.sendMessage(msg)
	}
}

func (svc *sendgridService) sendMessage(msg *core.EmailMessage) {
	if err := msg.Render(svc.conf); err != nil {
		svc.logger.Error(fmt.Sprintf("rendering email %q: %v", msg.TemplateName, err), err)
		return
	}
	if !msg.HasRecipients() || !(msg.HasContent() || msg.HasAttachments()) {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()

	res, err := svc.deliver(ctx, svc.prepare(*msg))
	switch {
	case err != nil:
		svc.logger.Error(fmt.Sprintf("sending email %q: %v", msg.TemplateName, err), err)
	case res.StatusCode >= http.StatusBadRequest:
		svc.logger.Error(fmt.Sprintf("sending email %q: status %d", msg.TemplateName, res.StatusCode),
			map[string]interface{}{"status": res.StatusCode, "body": res.Body})
	}
}

func (svc *sendgridService) prepare(msg core.EmailMessage) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = "[" + svc.conf.AppName + "] " + msg.Subject
	p.AddTos(sgEmails(msg.To)...)
	if len(msg.Cc) > 0 {
		p.AddCCs(sgEmails(msg.Cc)...)
	}
	if len(msg.Bcc) > 0 {
		p.AddBCCs(sgEmails(msg.Bcc)...)
	}

	m := sgmail.NewV3Mail().SetFrom(svc.from).AddPersonalizations(p)
	m.AddContent(sgmail.NewContent("text/plain", msg.TextContent))
	if msg.HTMLContent != "" {
		m.AddContent(sgmail.NewContent("text/html", msg.HTMLContent))
	}
	if msg.TemplateName != "" {
		m.AddCategories(msg.TemplateName)
	}

	// invite and reset links carry single-use tokens and must reach the user unrewritten
	m.SetTrackingSettings(sgmail.NewTrackingSettings().SetClickTracking(
		sgmail.NewClickTrackingSetting().SetEnable(false).SetEnableText(false),
	))

	for _, at := range msg.Attachments {
		m.AddAttachment(&sgmail.Attachment{
			Content:     at.Content.String(), // already base64
			Type:        at.ContentType,
			Filename:    at.Filename,
			Disposition: "attachment",
		})
	}
	return m
}

func sgEmails(addrs []mail.Address) []*sgmail.Email {
	out := make([]*sgmail.Email, 0, len(addrs))
	for _, addr := range addrs {
		out = append(out, sgmail.NewEmail(addr.Name, addr.Address))
	}
	return out
}
