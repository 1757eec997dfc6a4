package render

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/lueurxax/job-digest-notifier/internal/core/domain"
)

// Email is a rendered digest email.
type Email struct {
	Subject string
	HTML    string
	Text    string
}

type emailJob struct {
	Number  int
	Title   string
	Details string
	Link    string
}

type emailView struct {
	Greeting string
	Brand    string
	Intro    string
	Jobs     []emailJob
	SiteURL  string
	Empty    bool
}

// html/template escapes every interpolated value for its context, which
// covers employer-supplied titles and links.
var emailHTML = template.Must(template.New("email").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #1f2933;">
<p>{{.Greeting}},</p>
<p>{{.Intro}}</p>
{{- if .Empty}}
<p>We will write again as soon as new roles are posted.</p>
{{- else}}
<ol>
{{- range .Jobs}}
<li style="margin-bottom: 16px;">
<strong>{{.Title}}</strong><br>
<span>{{.Details}}</span>
{{- if .Link}}<br>
<a href="{{.Link}}">View and apply</a>
{{- end}}
</li>
{{- end}}
</ol>
{{- end}}
{{- if .SiteURL}}
<p><a href="{{.SiteURL}}">Browse all roles on {{.Brand}}</a></p>
{{- end}}
<p style="font-size: 12px; color: #7b8794;">You are receiving this because you subscribed to job alerts from {{.Brand}}. Reply with "unsubscribe" to stop these emails.</p>
</body>
</html>
`))

// BuildEmail renders the digest email for contact listing jobs in order.
func (b *Builder) BuildEmail(contact domain.Contact, jobs []domain.Job) (Email, error) {
	view := emailView{
		Greeting: greeting(contact),
		Brand:    b.brand,
		SiteURL:  b.siteBaseURL,
		Empty:    len(jobs) == 0,
		Intro:    fmt.Sprintf("Here are %d new roles picked for you.", len(jobs)),
	}

	if len(jobs) == 1 {
		view.Intro = "Here is a new role picked for you."
	}

	if view.Empty {
		view.Intro = "There are no new roles matching your profile right now."
	}

	for i, j := range jobs {
		view.Jobs = append(view.Jobs, emailJob{
			Number:  i + 1,
			Title:   jobTitle(j),
			Details: detailsLine(j),
			Link:    b.applyLink(j),
		})
	}

	var buf bytes.Buffer
	if err := emailHTML.Execute(&buf, view); err != nil {
		return Email{}, fmt.Errorf("render email html: %w", err)
	}

	return Email{
		Subject: b.subject(jobs),
		HTML:    buf.String(),
		Text:    b.emailText(view),
	}, nil
}

func (b *Builder) emailText(view emailView) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "%s,\n\n%s\n", view.Greeting, view.Intro)

	for _, j := range view.Jobs {
		fmt.Fprintf(&sb, "\n%d. %s\n   %s\n", j.Number, j.Title, j.Details)

		if j.Link != "" {
			fmt.Fprintf(&sb, "   Apply: %s\n", j.Link)
		}
	}

	if view.SiteURL != "" {
		fmt.Fprintf(&sb, "\nBrowse all roles: %s\n", view.SiteURL)
	}

	fmt.Fprintf(&sb, "\nYou are receiving this because you subscribed to job alerts from %s. Reply with \"unsubscribe\" to stop these emails.\n", view.Brand)

	return sb.String()
}
