package service

import (
	"regexp"
	"strings"

	"github.com/cloo-solutions/folio/internal/domain"
)

// Template placeholders substituted by ComposePrompt.
const (
	ProfileNamePlaceholder = "{{PROFILE_NAME}}"
	ContextInfoPlaceholder = "{{CONTEXT_INFO}}"
)

// DefaultProfileName is used when the document has no "# Profile:" line and
// no fallback name is configured.
const DefaultProfileName = "Assistant"

var (
	profileNameRe     = regexp.MustCompile(`(?m)^# Profile:\s*(.*)`)
	profileHeadlineRe = regexp.MustCompile(`- Headline:\s*(.*)`)
)

// ProfileDefaults are the placeholders used when extraction finds nothing.
type ProfileDefaults struct {
	Name     string
	Headline string
}

// ExtractProfile pulls the profile name and headline out of the document.
func ExtractProfile(document string, defaults ProfileDefaults) domain.Profile {
	profile := domain.Profile{
		Name:     defaults.Name,
		Headline: defaults.Headline,
	}
	if profile.Name == "" {
		profile.Name = DefaultProfileName
	}

	if m := profileNameRe.FindStringSubmatch(document); m != nil {
		profile.Name = strings.TrimSpace(m[1])
	}
	if m := profileHeadlineRe.FindStringSubmatch(document); m != nil {
		profile.Headline = strings.TrimSpace(m[1])
	}

	return profile
}

// BuildContextBlock renders the retrieved chunks, or a minimal identity block
// when nothing was retrieved.
func BuildContextBlock(profile domain.Profile, results []domain.RankedResult) string {
	var b strings.Builder

	if len(results) == 0 {
		b.WriteString("PROFILE INFORMATION:\n")
		b.WriteString("• Name: ")
		b.WriteString(profile.Name)
		b.WriteString("\n• ")
		b.WriteString(profile.Headline)
		return b.String()
	}

	b.WriteString("RELEVANT PROFILE INFORMATION:\n")
	for _, r := range results {
		b.WriteString("--- BLOCK: ")
		b.WriteString(r.Type)
		b.WriteString(" ---\n")
		b.WriteString(r.Text)
		b.WriteString("\n\n")
	}
	return b.String()
}

// ComposePrompt substitutes the profile name and the context block into
// template. Only the first occurrence of each placeholder is replaced; a
// missing placeholder leaves the template unchanged.
func ComposePrompt(profile domain.Profile, results []domain.RankedResult, template string) string {
	prompt := strings.Replace(template, ProfileNamePlaceholder, profile.Name, 1)
	return strings.Replace(prompt, ContextInfoPlaceholder, BuildContextBlock(profile, results), 1)
}
