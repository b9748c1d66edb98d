package service

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/cloo-solutions/folio/internal/domain"
)

const (
	// ProfileMarker introduces the profile preamble or the level-1 profile heading.
	ProfileMarker = "Profile:"
	// ProfileLabel labels a headingless section that starts with ProfileMarker.
	ProfileLabel = "Profile"
	// GeneralLabel labels any other headingless section.
	GeneralLabel = "General"

	subHeadingMarker = "\n### "
)

var (
	sectionHeadingRe = regexp.MustCompile(`^(#{1,6})\s+(.*)`)
	subHeadingRe     = regexp.MustCompile(`^(#{3,6})\s+(.*)`)
)

// ChunkKnowledge splits a Markdown knowledge document into titled chunks.
//
// Sections start at level-1 and level-2 headings. A section containing
// level-3 headings is split again at each of them, and those sub-chunks are
// labelled "<section> - <sub-heading>". Empty sections are dropped and the
// output keeps document order. The result depends only on text.
func ChunkKnowledge(text string) []domain.KnowledgeChunk {
	chunks := make([]domain.KnowledgeChunk, 0, 16)
	if text == "" {
		return chunks
	}

	text = strings.ReplaceAll(text, "\r\n", "\n")

	for _, section := range splitTopLevelSections(text) {
		trimmed := strings.TrimSpace(section)
		if trimmed == "" {
			continue
		}

		title := sectionTitle(trimmed)

		if !strings.Contains(trimmed, subHeadingMarker) {
			chunks = append(chunks, domain.KnowledgeChunk{Type: title, Text: trimmed})
			continue
		}

		for _, sub := range splitSubSections(trimmed) {
			subTrimmed := strings.TrimSpace(sub)
			if subTrimmed == "" {
				continue
			}
			subTitle := title
			if m := subHeadingRe.FindStringSubmatch(subTrimmed); m != nil {
				subTitle = title + " - " + strings.TrimSpace(m[2])
			}
			chunks = append(chunks, domain.KnowledgeChunk{Type: subTitle, Text: subTrimmed})
		}
	}

	return chunks
}

func sectionTitle(section string) string {
	if m := sectionHeadingRe.FindStringSubmatch(section); m != nil {
		title := strings.TrimSpace(m[2])
		if rest, ok := strings.CutPrefix(title, ProfileMarker); ok && strings.TrimSpace(rest) != "" {
			title = strings.TrimSpace(rest)
		}
		return title
	}
	if strings.HasPrefix(section, ProfileMarker) {
		return ProfileLabel
	}
	return GeneralLabel
}

// splitTopLevelSections cuts text at every newline that is directly followed
// by one or two '#' and a whitespace character. The newline itself is dropped.
func splitTopLevelSections(text string) []string {
	var sections []string
	start := 0
	for i := 0; i < len(text); i++ {
		if text[i] != '\n' || !startsTopLevelHeading(text[i+1:]) {
			continue
		}
		sections = append(sections, text[start:i])
		start = i + 1
	}
	return append(sections, text[start:])
}

func startsTopLevelHeading(s string) bool {
	if strings.HasPrefix(s, "##") && spaceAt(s, 2) {
		return true
	}
	return strings.HasPrefix(s, "#") && spaceAt(s, 1)
}

func spaceAt(s string, i int) bool {
	if i >= len(s) {
		return false
	}
	r, _ := utf8.DecodeRuneInString(s[i:])
	return unicode.IsSpace(r)
}

// splitSubSections cuts a section at every newline followed by "### ",
// keeping the heading marker on each piece.
func splitSubSections(section string) []string {
	parts := strings.Split(section, subHeadingMarker)
	for i := 1; i < len(parts); i++ {
		parts[i] = "### " + parts[i]
	}
	return parts
}
