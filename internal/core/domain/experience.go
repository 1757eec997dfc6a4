package domain

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// ExperienceRange is an inclusive years-of-experience interval. Max is +Inf
// for open-ended requirements such as "6+ years".
type ExperienceRange struct {
	Min float64
	Max float64
}

// Contains reports whether years falls inside the range.
func (r ExperienceRange) Contains(years float64) bool {
	return years >= r.Min && years <= r.Max
}

const monthsPerYear = 12

var (
	numberPattern = `(\d+(?:\.\d+)?)`
	rangeRe       = regexp.MustCompile(numberPattern + `\s*(?:-|–|—|to)\s*` + numberPattern)
	plusRe        = regexp.MustCompile(numberPattern + `\s*\+`)
	atLeastRe     = regexp.MustCompile(`(?:at\s*least|min(?:imum)?\.?|over|more\s+than)\s*` + numberPattern)
	orMoreRe      = regexp.MustCompile(numberPattern + `\s*(?:years?|yrs?)?\s*(?:or|and)\s*(?:more|above)`)
	upToRe        = regexp.MustCompile(`(?:up\s*to|upto|max(?:imum)?\.?|less\s+than|under|below)\s*` + numberPattern)
	singleRe      = regexp.MustCompile(numberPattern)
)

var entryLevelWords = []string{"fresher", "freshers", "entry", "intern", "graduate", "no experience", "beginner"}

// ParseExperienceRange interprets a job's free-text experience requirement.
// Single figures ("3 years") are read as a minimum. ok is false when the text
// carries no usable figure; callers treat that as "matches everyone".
func ParseExperienceRange(s string) (ExperienceRange, bool) {
	text := strings.ToLower(strings.TrimSpace(s))
	if text == "" {
		return ExperienceRange{}, false
	}

	scale := unitScale(text)

	if m := rangeRe.FindStringSubmatch(text); m != nil {
		lo, hi := parseFloat(m[1])*scale, parseFloat(m[2])*scale
		if lo > hi {
			lo, hi = hi, lo
		}

		return ExperienceRange{Min: lo, Max: hi}, true
	}

	for _, re := range []*regexp.Regexp{plusRe, atLeastRe, orMoreRe} {
		if m := re.FindStringSubmatch(text); m != nil {
			return ExperienceRange{Min: parseFloat(m[1]) * scale, Max: math.Inf(1)}, true
		}
	}

	if m := upToRe.FindStringSubmatch(text); m != nil {
		return ExperienceRange{Min: 0, Max: parseFloat(m[1]) * scale}, true
	}

	if m := singleRe.FindStringSubmatch(text); m != nil {
		return ExperienceRange{Min: parseFloat(m[1]) * scale, Max: math.Inf(1)}, true
	}

	if isEntryLevel(text) {
		return ExperienceRange{Min: 0, Max: 1}, true
	}

	return ExperienceRange{}, false
}

// ParseExperienceYears interprets a contact's stated experience. A range
// such as "2-3 years" yields its lower bound.
func ParseExperienceYears(s string) (float64, bool) {
	text := strings.ToLower(strings.TrimSpace(s))
	if text == "" {
		return 0, false
	}

	if m := singleRe.FindStringSubmatch(text); m != nil {
		return parseFloat(m[1]) * unitScale(text), true
	}

	if isEntryLevel(text) {
		return 0, true
	}

	return 0, false
}

// ExperienceMatches reports whether a contact with the given experience text
// should receive a job with the given requirement. Anything unparseable on
// either side matches.
func ExperienceMatches(contactExperience, jobExperience string) bool {
	years, ok := ParseExperienceYears(contactExperience)
	if !ok {
		return true
	}

	r, ok := ParseExperienceRange(jobExperience)
	if !ok {
		return true
	}

	return r.Contains(years)
}

// SelectJobsForContact filters jobs for a contact by experience, preserving
// order. Contacts without a parseable experience get every job.
func SelectJobsForContact(c Contact, jobs []Job) []Job {
	if _, ok := ParseExperienceYears(c.Experience); !ok {
		out := make([]Job, len(jobs))
		copy(out, jobs)

		return out
	}

	out := make([]Job, 0, len(jobs))

	for _, j := range jobs {
		if ExperienceMatches(c.Experience, j.Experience) {
			out = append(out, j)
		}
	}

	return out
}

func unitScale(text string) float64 {
	if strings.Contains(text, "month") && !strings.Contains(text, "year") {
		return 1.0 / monthsPerYear
	}

	return 1
}

func isEntryLevel(text string) bool {
	for _, w := range entryLevelWords {
		if strings.Contains(text, w) {
			return true
		}
	}

	return false
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}

	return v
}
