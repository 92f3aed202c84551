package mirror

import (
	"strings"
)

// Characters that break paths or upset common filesystems.  Replaced by a
// space before whitespace collapsing.
const reservedFilenameChars = `/\:*?"<>|`

const maxFilenameRunes = 150

// SanitizeTitle turns a page title into a filesystem-safe name.  Path
// separators and reserved characters are stripped, whitespace is collapsed,
// trailing dots and spaces are trimmed, and overly long titles are cut.  If
// nothing survives, the page id is used so the result is never empty.
//
// Unlike a slug we keep the title's case and spacing intact, so the mirrored
// tree reads like the wiki does.
func SanitizeTitle(title string, id string) string {
	mapped := strings.Map(func(r rune) rune {
		if r < 0x20 || strings.ContainsRune(reservedFilenameChars, r) {
			return ' '
		}
		return r
	}, title)

	cleaned := strings.Join(strings.Fields(mapped), " ")
	cleaned = strings.TrimRight(cleaned, ". ")

	if runes := []rune(cleaned); len(runes) > maxFilenameRunes {
		cleaned = strings.TrimRight(string(runes[:maxFilenameRunes]), ". ")
	}

	if cleaned == "" {
		return id
	}

	return cleaned
}

// FallbackTitle is the deterministic placeholder used when a page's title
// cannot be resolved: "Untitled-" plus the first 8 characters of the id.
func FallbackTitle(id string) string {
	short := id
	if len(short) > 8 {
		short = short[:8]
	}
	return "Untitled-" + short
}
