package provider

import (
	"regexp"
	"strings"
)

var (
	vttHeaderRe    = regexp.MustCompile(`^WEBVTT\b.*$`)
	vttTimingRe    = regexp.MustCompile(`^\d{2}:\d{2}:\d{2}\.\d{3}\s*-->\s*\d{2}:\d{2}:\d{2}\.\d{3}`)
	vttTagRe       = regexp.MustCompile(`<[^>]+>`)
	vttCueIDRe     = regexp.MustCompile(`^\d+$`)
	vttMetadataRe  = regexp.MustCompile(`^(Kind|Language|NOTE)\b`)
	vttEntityRules = strings.NewReplacer("&amp;", "&", "&lt;", "<", "&gt;", ">", "&nbsp;", " ")
)

// CleanVTT reduces WebVTT captions to a single line of spoken text.
// Auto-generated captions repeat each line across overlapping cues; consecutive
// duplicates are dropped.
func CleanVTT(raw string) string {
	if raw == "" {
		return ""
	}

	var cleaned []string
	prev := ""
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimRight(line, "\r")
		if vttHeaderRe.MatchString(line) || vttMetadataRe.MatchString(line) || vttTimingRe.MatchString(line) {
			continue
		}
		if vttCueIDRe.MatchString(strings.TrimSpace(line)) {
			continue
		}
		line = vttTagRe.ReplaceAllString(line, "")
		line = strings.TrimSpace(vttEntityRules.Replace(line))
		if line == "" || line == prev {
			continue
		}
		cleaned = append(cleaned, line)
		prev = line
	}
	return strings.TrimSpace(strings.Join(cleaned, " "))
}
