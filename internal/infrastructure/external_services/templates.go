package external_services

import (
	"bytes"
	"html/template"

	"github.com/mikiasgoitom/gatekeeper/internal/domain/contract"
)

// EmailTemplates renders the transactional emails with html/template.
type EmailTemplates struct{}

var _ contract.IEmailComposer = EmailTemplates{}

func (EmailTemplates) ActivationEmail(data contract.LinkEmail) (string, string, error) {
	return BuildActivationEmail(data)
}

func (EmailTemplates) PasswordResetEmail(data contract.LinkEmail) (string, string, error) {
	return BuildPasswordResetEmail(data)
}

var (
	activationTemplate = template.Must(template.New("activation").Parse(activationHTMLTemplate))
	resetTemplate      = template.Must(template.New("reset").Parse(resetHTMLTemplate))
)

// BuildActivationEmail renders the set-password email sent to pre-provisioned accounts.
func BuildActivationEmail(data contract.LinkEmail) (subject, body string, err error) {
	var buf bytes.Buffer
	if err := activationTemplate.Execute(&buf, data); err != nil {
		return "", "", err
	}
	return "Set your password", buf.String(), nil
}

// BuildPasswordResetEmail renders the forgot-password email.
func BuildPasswordResetEmail(data contract.LinkEmail) (subject, body string, err error) {
	var buf bytes.Buffer
	if err := resetTemplate.Execute(&buf, data); err != nil {
		return "", "", err
	}
	return "Reset your password", buf.String(), nil
}

const activationHTMLTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>Set your password</title>
</head>
<body style="margin: 0; padding: 0; font-family: Arial, sans-serif; background-color: #f3f4f6;">
  <table role="presentation" width="100%" cellspacing="0" cellpadding="0">
    <tr>
      <td align="center" style="padding: 40px 20px;">
        <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="max-width: 480px; background-color: #ffffff; border-radius: 8px;">
          <tr>
            <td style="padding: 32px;">
              <p style="font-size: 16px; color: #374151;">Hello {{.Name}},</p>
              <p style="font-size: 16px; color: #374151;">Your account is ready. Click the button below to set your password.</p>
              <p style="text-align: center; margin: 32px 0;">
                <a href="{{.Link}}" style="display: inline-block; padding: 12px 32px; background-color: #4f46e5; color: #ffffff; text-decoration: none; border-radius: 6px;">Set password</a>
              </p>
              <p style="font-size: 14px; color: #6b7280;">This link expires in {{.ExpiresIn}}. If you did not request it, you can ignore this email.</p>
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`

const resetHTMLTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>Reset your password</title>
</head>
<body style="margin: 0; padding: 0; font-family: Arial, sans-serif; background-color: #f3f4f6;">
  <table role="presentation" width="100%" cellspacing="0" cellpadding="0">
    <tr>
      <td align="center" style="padding: 40px 20px;">
        <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="max-width: 480px; background-color: #ffffff; border-radius: 8px;">
          <tr>
            <td style="padding: 32px;">
              <p style="font-size: 16px; color: #374151;">Hello {{.Name}},</p>
              <p style="font-size: 16px; color: #374151;">We received a request to reset your password.</p>
              <p style="text-align: center; margin: 32px 0;">
                <a href="{{.Link}}" style="display: inline-block; padding: 12px 32px; background-color: #4f46e5; color: #ffffff; text-decoration: none; border-radius: 6px;">Reset password</a>
              </p>
              <p style="font-size: 14px; color: #6b7280;">This link expires in {{.ExpiresIn}}. If you did not ask for a reset, no action is needed.</p>
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`
