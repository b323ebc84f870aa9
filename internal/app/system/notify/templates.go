package notify

import (
	"bytes"
	"fmt"
	"html/template"
)

// RecoveryData fills the recovery messages.
type RecoveryData struct {
	SiteName  string
	Code      string
	ExpiresIn string // e.g. "10 minutes"
}

// RecoveryEmail builds the password recovery email. To is left for the caller.
func RecoveryEmail(data RecoveryData) Email {
	var text bytes.Buffer
	fmt.Fprintf(&text, "Your %s recovery code is: %s\n\n", data.SiteName, data.Code)
	fmt.Fprintf(&text, "This code expires in %s.\n\n", data.ExpiresIn)
	text.WriteString("If you did not ask to reset your password, you can ignore this email.\n")

	var html bytes.Buffer
	_ = recoveryHTML.Execute(&html, data)

	return Email{
		Subject:  fmt.Sprintf("Your %s recovery code", data.SiteName),
		TextBody: text.String(),
		HTMLBody: html.String(),
	}
}

// RecoverySMS builds the SMS body. To is left for the caller.
func RecoverySMS(data RecoveryData) SMS {
	return SMS{Body: fmt.Sprintf("%s: your recovery code is %s (expires in %s)", data.SiteName, data.Code, data.ExpiresIn)}
}

var recoveryHTML = template.Must(template.New("recovery").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"><title>Recovery Code</title></head>
<body style="margin:0;padding:0;font-family:Arial,sans-serif;background-color:#f3f4f6;">
  <table role="presentation" width="100%" cellspacing="0" cellpadding="0">
    <tr><td align="center" style="padding:40px 20px;">
      <table role="presentation" width="100%" style="max-width:480px;background-color:#ffffff;border-radius:8px;">
        <tr><td style="padding:32px;text-align:center;">
          <h1 style="margin:0 0 24px;font-size:22px;color:#4f46e5;">{{.SiteName}}</h1>
          <p style="margin:0 0 16px;font-size:16px;color:#374151;">Your recovery code is:</p>
          <div style="background-color:#f3f4f6;border-radius:8px;padding:20px;margin-bottom:16px;">
            <span style="font-size:32px;font-weight:700;letter-spacing:8px;font-family:'Courier New',monospace;">{{.Code}}</span>
          </div>
          <p style="margin:0;font-size:13px;color:#6b7280;">This code expires in {{.ExpiresIn}}.</p>
        </td></tr>
      </table>
    </td></tr>
  </table>
</body>
</html>
`))
