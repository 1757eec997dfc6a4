package render

import (
	"fmt"
	"strings"

	"github.com/lueurxax/job-digest-notifier/internal/core/domain"
	"github.com/lueurxax/job-digest-notifier/internal/platform/textutil"
)

const telegramOptOut = "To stop these messages, block this bot."

// TelegramMessage is a rendered Telegram digest. Jobs lists the jobs the
// text actually carries, in order.
type TelegramMessage struct {
	Text string
	Jobs []domain.Job
}

// BuildTelegramMessage renders the plain-text Telegram digest. Jobs that do
// not fit in one Telegram message are dropped at a job boundary and replaced
// by a pointer to the site. The first job is always kept.
func (b *Builder) BuildTelegramMessage(contact domain.Contact, jobs []domain.Job) TelegramMessage {
	return b.buildTelegramMessage(contact, jobs, textutil.TelegramMessageLimit)
}

func (b *Builder) buildTelegramMessage(contact domain.Contact, jobs []domain.Job, limit int) TelegramMessage {
	footer := "\n" + telegramOptOut

	if len(jobs) == 0 {
		msg := fmt.Sprintf("%s! No new roles matching your profile were found this time. We'll message you when something turns up.\n", greeting(contact))
		if b.siteBaseURL != "" {
			msg += "\nBrowse all roles: " + b.siteBaseURL + jobsPath + "\n"
		}

		return TelegramMessage{Text: msg + footer}
	}

	header := fmt.Sprintf("%s! New roles on %s:\n", greeting(contact), b.brand)

	blocks := make([]string, 0, len(jobs))
	for i, j := range jobs {
		blocks = append(blocks, telegramJobBlock(i+1, j, b.applyLink(j)))
	}

	body := header + strings.Join(blocks, "")
	if textutil.UTF16Len(body+footer) <= limit {
		return TelegramMessage{Text: body + footer, Jobs: append([]domain.Job(nil), jobs...)}
	}

	var sb strings.Builder

	sb.WriteString(header)

	shown := 0

	for i, block := range blocks {
		rest := moreRolesLine(len(blocks)-i-1, b.siteBaseURL)
		if i > 0 && textutil.UTF16Len(sb.String()+block+rest+footer) > limit {
			sb.WriteString(moreRolesLine(len(blocks)-i, b.siteBaseURL))

			break
		}

		sb.WriteString(block)
		shown++
	}

	return TelegramMessage{
		Text: textutil.UTF16Slice(sb.String()+footer, limit),
		Jobs: append([]domain.Job(nil), jobs[:shown]...),
	}
}

func telegramJobBlock(n int, j domain.Job, link string) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "\n%d. %s\n", n, jobTitle(j))
	fmt.Fprintf(&sb, "   %s\n", detailsLine(j))

	if link != "" {
		fmt.Fprintf(&sb, "   Apply: %s\n", link)
	}

	return sb.String()
}

func moreRolesLine(remaining int, siteBaseURL string) string {
	if remaining <= 0 {
		return ""
	}

	line := fmt.Sprintf("\n…and %d more roles", remaining)
	if siteBaseURL != "" {
		line += " on " + siteBaseURL + jobsPath
	}

	return line + "\n"
}
