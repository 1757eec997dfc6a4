// Package render builds the email and Telegram digest bodies. Everything here
// is pure: no I/O, no clock, no randomness.
package render

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/lueurxax/job-digest-notifier/internal/core/domain"
)

const (
	defaultBrand    = "Job Board"
	genericGreeting = "Hi there"
	jobsPath        = "/jobs"
	labelRemote     = "Remote"
	labelOnSite     = "On-site"
	labelSeparator  = " · "
)

// Builder renders digests for one site.
type Builder struct {
	siteBaseURL string
	brand       string
}

// NewBuilder creates a Builder. siteBaseURL is used for the fallback
// call-to-action and the footer; brand names the sender.
func NewBuilder(siteBaseURL, brand string) *Builder {
	if strings.TrimSpace(brand) == "" {
		brand = defaultBrand
	}

	return &Builder{
		siteBaseURL: strings.TrimRight(strings.TrimSpace(siteBaseURL), "/"),
		brand:       brand,
	}
}

// Brand returns the sender name used in greetings.
func (b *Builder) Brand() string {
	return b.brand
}

// greeting returns "Hi <first name>" or a generic greeting.
func greeting(c domain.Contact) string {
	first := c.FirstName()
	if first == "" || !hasLetter(first) {
		return genericGreeting
	}

	return "Hi " + first
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}

	return false
}

// workplaceLabel renders the remote or on-site marker of a job.
func workplaceLabel(j domain.Job) string {
	if j.IsRemote {
		return labelRemote
	}

	if lt := strings.TrimSpace(j.LocationType); lt != "" {
		return lt
	}

	return labelOnSite
}

// detailsLine joins employer, location and workplace label, skipping the
// parts the job does not have.
func detailsLine(j domain.Job) string {
	parts := make([]string, 0, 3)

	if j.CompanyName != "" {
		parts = append(parts, j.CompanyName)
	}

	if j.Location != "" {
		parts = append(parts, j.Location)
	}

	parts = append(parts, workplaceLabel(j))

	return strings.Join(parts, labelSeparator)
}

// jobTitle returns the title or a neutral placeholder.
func jobTitle(j domain.Job) string {
	if t := strings.TrimSpace(j.Title); t != "" {
		return t
	}

	return "New role"
}

// applyLink picks the job's own link, else the site listing page.
func (b *Builder) applyLink(j domain.Job) string {
	if j.ApplyURL != "" {
		return j.ApplyURL
	}

	if b.siteBaseURL != "" {
		return b.siteBaseURL + jobsPath
	}

	return ""
}

// subject builds the email subject from the first job.
func (b *Builder) subject(jobs []domain.Job) string {
	if len(jobs) == 0 {
		return "Latest roles from " + b.brand
	}

	first := jobs[0]
	s := "New role: " + jobTitle(first)

	if first.CompanyName != "" {
		s += " at " + first.CompanyName
	}

	if more := len(jobs) - 1; more > 0 {
		s += fmt.Sprintf(" (+%d more)", more)
	}

	return s
}
