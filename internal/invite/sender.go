// Package invite sends signup invitations to newly created shadow
// publishers. The email body is a Liquid template rendered with the
// publisher's contact details and invitation token; delivery goes through
// AWS SESv2. Failures are the caller's to log — an invitation never blocks
// email processing.
package invite

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/osteele/liquid"

	"github.com/ignite/publisher-inbox/internal/config"
	"github.com/ignite/publisher-inbox/internal/domain"
)

const defaultTemplate = `<p>Hi {{ contact_name | default: "there" }},</p>
<p>Thanks for reaching out{% if company_name != "" %} from {{ company_name }}{% endif %}.
We received your placement offer and created a draft profile for you.</p>
<p><a href="{{ signup_url }}?token={{ token }}">Claim your publisher account</a>
to confirm your websites and manage your offerings. The link expires on {{ expires }}.</p>
<p>— The publisher team</p>`

// mailer is the slice of the SESv2 client the sender uses.
type mailer interface {
	SendEmail(ctx context.Context, in *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// Sender renders and delivers invitation emails.
type Sender struct {
	client   mailer
	cfg      config.InvitationConfig
	template *liquid.Template
}

// NewSender builds an invitation sender from configuration. The template is
// compiled once; a template file path overrides the built-in default.
func NewSender(ctx context.Context, cfg config.InvitationConfig) (*Sender, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return newSender(sesv2.NewFromConfig(awsCfg), cfg)
}

func newSender(client mailer, cfg config.InvitationConfig) (*Sender, error) {
	source := defaultTemplate
	if cfg.TemplatePath != "" {
		data, err := os.ReadFile(cfg.TemplatePath)
		if err != nil {
			return nil, fmt.Errorf("read invitation template: %w", err)
		}
		source = string(data)
	}

	engine := liquid.NewEngine()
	engine.RegisterFilter("default", func(value interface{}, fallback string) interface{} {
		if value == nil || fmt.Sprintf("%v", value) == "" {
			return fallback
		}
		return value
	})

	tmpl, err := engine.ParseString(source)
	if err != nil {
		return nil, fmt.Errorf("parse invitation template: %w", err)
	}
	return &Sender{client: client, cfg: cfg, template: tmpl}, nil
}

// SendInvitation renders and sends the invitation for one shadow publisher.
func (s *Sender) SendInvitation(ctx context.Context, pub *domain.Publisher) error {
	if pub.InvitationToken == "" {
		return fmt.Errorf("publisher %s has no invitation token", pub.ID)
	}

	expires := ""
	if pub.InvitationExpires != nil {
		expires = pub.InvitationExpires.Format(time.RFC1123)
	}
	html, err := s.template.RenderString(map[string]interface{}{
		"contact_name": pub.ContactName,
		"company_name": pub.CompanyName,
		"signup_url":   s.cfg.SignupURL,
		"token":        pub.InvitationToken,
		"expires":      expires,
	})
	if err != nil {
		return fmt.Errorf("render invitation: %w", err)
	}

	from := s.cfg.FromAddress
	if s.cfg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", s.cfg.FromName, s.cfg.FromAddress)
	}

	_, sendErr := s.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(from),
		Destination:      &types.Destination{ToAddresses: []string{pub.Email}},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String("Claim your publisher account"),
					Charset: aws.String("UTF-8"),
				},
				Body: &types.Body{
					Html: &types.Content{Data: aws.String(html), Charset: aws.String("UTF-8")},
				},
			},
		},
	})
	if sendErr != nil {
		return fmt.Errorf("send invitation to %s: %w", pub.Email, sendErr)
	}
	return nil
}
