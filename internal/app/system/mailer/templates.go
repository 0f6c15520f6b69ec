// internal/app/system/mailer/templates.go
package mailer

import (
	"bytes"
	"fmt"
	"html/template"
)

// VisitEmailData holds data for visitor notification emails.
type VisitEmailData struct {
	SiteName     string
	VisitorName  string
	VisitingDate string // already formatted for the visitor's zone
	Host         string
	Reason       string // cancellation only
	BadgeURL     string // approval only; links to the QR token
}

// BuildApprovalEmail tells a visitor their visit was approved.
func BuildApprovalEmail(data VisitEmailData) Email {
	var text bytes.Buffer
	fmt.Fprintf(&text, "Hello %s,\n\n", data.VisitorName)
	fmt.Fprintf(&text, "Your visit on %s has been approved.\n", data.VisitingDate)
	if data.Host != "" {
		fmt.Fprintf(&text, "You will be meeting %s.\n", data.Host)
	}
	if data.BadgeURL != "" {
		fmt.Fprintf(&text, "\nShow this badge at reception:\n%s\n", data.BadgeURL)
	}
	fmt.Fprintf(&text, "\n%s\n", data.SiteName)

	return Email{
		Subject:  fmt.Sprintf("Your %s visit is approved", data.SiteName),
		TextBody: text.String(),
		HTMLBody: render(approvalTmpl, data),
	}
}

// BuildCancellationEmail tells a visitor their visit was cancelled and why.
func BuildCancellationEmail(data VisitEmailData) Email {
	var text bytes.Buffer
	fmt.Fprintf(&text, "Hello %s,\n\n", data.VisitorName)
	fmt.Fprintf(&text, "Your visit on %s has been cancelled.\n", data.VisitingDate)
	if data.Reason != "" {
		fmt.Fprintf(&text, "Reason: %s\n", data.Reason)
	}
	fmt.Fprintf(&text, "\n%s\n", data.SiteName)

	return Email{
		Subject:  fmt.Sprintf("Your %s visit was cancelled", data.SiteName),
		TextBody: text.String(),
		HTMLBody: render(cancellationTmpl, data),
	}
}

func render(t *template.Template, data VisitEmailData) string {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return ""
	}
	return buf.String()
}

const layoutHTML = `{{define "layout"}}<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"><title>{{.SiteName}}</title></head>
<body style="margin:0;padding:0;font-family:-apple-system,BlinkMacSystemFont,'Segoe UI',Roboto,Arial,sans-serif;background-color:#f3f4f6;">
  <table role="presentation" width="100%" cellspacing="0" cellpadding="0">
    <tr><td align="center" style="padding:40px 20px;">
      <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="max-width:480px;background:#ffffff;border-radius:8px;">
        <tr><td style="padding:24px 32px;border-bottom:1px solid #e5e7eb;text-align:center;">
          <h1 style="margin:0;font-size:22px;color:#4f46e5;">{{.SiteName}}</h1>
        </td></tr>
        <tr><td style="padding:32px;font-size:16px;color:#374151;line-height:1.5;">
          <p style="margin:0 0 16px;">Hello {{.VisitorName}},</p>
          {{template "content" .}}
        </td></tr>
      </table>
    </td></tr>
  </table>
</body>
</html>{{end}}`

var approvalTmpl = template.Must(template.Must(template.New("approval").Parse(layoutHTML)).Parse(`
{{define "content"}}
<p style="margin:0 0 16px;">Your visit on <strong>{{.VisitingDate}}</strong> has been approved.</p>
{{if .Host}}<p style="margin:0 0 16px;">You will be meeting {{.Host}}.</p>{{end}}
{{if .BadgeURL}}<p style="margin:0;"><a href="{{.BadgeURL}}" style="color:#4f46e5;">Open your visitor badge</a></p>{{end}}
{{end}}{{template "layout" .}}`))

var cancellationTmpl = template.Must(template.Must(template.New("cancellation").Parse(layoutHTML)).Parse(`
{{define "content"}}
<p style="margin:0 0 16px;">Your visit on <strong>{{.VisitingDate}}</strong> has been cancelled.</p>
{{if .Reason}}<p style="margin:0;">Reason: {{.Reason}}</p>{{end}}
{{end}}{{template "layout" .}}`))
