// internal/app/system/mailer/emails.go
package mailer

import (
	"bytes"
	"html/template"
	"strconv"
)

// PasswordResetEmailData contains the data for a password reset email.
type PasswordResetEmailData struct {
	AppName   string
	UserName  string
	ResetURL  string
	ExpiryMin int
}

// PasswordResetEmail generates both plain text and HTML versions of a password reset email.
func PasswordResetEmail(data PasswordResetEmailData) (textBody, htmlBody string) {
	greeting := "Hello,"
	if data.UserName != "" {
		greeting = "Hello " + data.UserName + ","
	}
	textBody = greeting + "\n\n" +
		"You requested a password reset for your " + data.AppName + " account.\n\n" +
		"Open the link below to choose a new password:\n\n" +
		data.ResetURL + "\n\n" +
		"This link will expire in " + strconv.Itoa(data.ExpiryMin) + " minutes.\n\n" +
		"If you did not request this, you can safely ignore this email."

	var buf bytes.Buffer
	_ = resetHTMLTmpl.Execute(&buf, data)
	return textBody, buf.String()
}

// PasswordChangedEmailData contains the data for a password changed notice.
type PasswordChangedEmailData struct {
	AppName  string
	UserName string
	ResetURL string // where to start a new reset if the change was not theirs
}

// PasswordChangedEmail generates both plain text and HTML versions of a password changed confirmation email.
func PasswordChangedEmail(data PasswordChangedEmailData) (textBody, htmlBody string) {
	textBody = "Your " + data.AppName + " password has been changed.\n\n" +
		"If you made this change, you can safely ignore this email.\n\n" +
		"If you did NOT make this change, reset your password immediately:\n" +
		data.ResetURL

	var buf bytes.Buffer
	_ = changedHTMLTmpl.Execute(&buf, data)
	return textBody, buf.String()
}

const layoutHTML = `{{define "layout"}}<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>{{.AppName}}</title>
</head>
<body style="margin: 0; padding: 0; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Arial, sans-serif; background-color: #f4f4f5;">
  <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="background-color: #f4f4f5;">
    <tr>
      <td align="center" style="padding: 40px 20px;">
        <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="max-width: 480px; background-color: #ffffff; border-radius: 8px;">
          <tr>
            <td style="padding: 32px 32px 24px 32px; text-align: center; border-bottom: 1px solid #e4e4e7;">
              <h1 style="margin: 0; font-size: 24px; font-weight: 600; color: #18181b;">{{.AppName}}</h1>
            </td>
          </tr>
          <tr>
            <td style="padding: 32px; font-size: 15px; line-height: 1.6; color: #52525b;">
              {{template "content" .}}
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>{{end}}`

func mustEmail(name, content string) *template.Template {
	t := template.Must(template.New(name).Parse(layoutHTML))
	template.Must(t.New("content").Parse(content))
	return t.Lookup("layout")
}

var resetHTMLTmpl = mustEmail("password_reset", `
<h2 style="margin: 0 0 16px 0; font-size: 20px; color: #18181b;">Reset Your Password</h2>
<p style="margin: 0 0 24px 0;">{{if .UserName}}Hello {{.UserName}}, y{{else}}Y{{end}}ou requested a password reset for your account.</p>
<p style="margin: 0 0 24px 0; text-align: center;">
  <a href="{{.ResetURL}}" style="display: inline-block; padding: 12px 24px; background-color: #2563eb; color: #ffffff; text-decoration: none; border-radius: 6px;">Reset Password</a>
</p>
<p style="margin: 0; font-size: 13px; color: #71717a;">This link will expire in {{.ExpiryMin}} minutes. If you did not request this, you can safely ignore this email.</p>`)

var changedHTMLTmpl = mustEmail("password_changed", `
<h2 style="margin: 0 0 16px 0; font-size: 20px; color: #18181b;">Password Changed</h2>
<p style="margin: 0 0 16px 0;">Your password has been changed.</p>
<p style="margin: 0;">If you did NOT make this change, <a href="{{.ResetURL}}">reset your password</a> immediately.</p>`)
