package expense

import (
	"fmt"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

var (
	slugDisallowed = regexp.MustCompile(`[^a-zA-Z0-9\-_ ]`)
	whitespaceRuns = regexp.MustCompile(`\s+`)
)

// ProviderSlug makes a merchant name safe for use as a path segment:
// restricted character set, bounded length, whitespace runs collapsed to
// underscores.
func ProviderSlug(provider string) string {
	s := slugDisallowed.ReplaceAllString(provider, "")
	if len(s) > 40 {
		s = s[:40]
	}
	s = whitespaceRuns.ReplaceAllString(strings.TrimSpace(s), "_")
	if s == "" {
		s = "ticket"
	}
	return s
}

// FileExt returns the lowercase file-name suffix of a capture, or "jpg"
// when the name carries none.
func FileExt(filename string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	if ext == "" {
		ext = "jpg"
	}
	return ext
}

// StoragePath builds the deterministic evidence-image path:
// tickets/{owner}/{yyyy-mm}/{yyyy-mm-dd}_{providerSlug}_{captureMillis}.{ext}.
// The capture timestamp keeps two scans of the same receipt on the same day
// from colliding.
func StoragePath(ownerID string, date time.Time, provider, filename string, capturedAt time.Time) string {
	name := fmt.Sprintf("%s_%s_%d.%s",
		date.Format("2006-01-02"),
		ProviderSlug(provider),
		capturedAt.UnixMilli(),
		FileExt(filename),
	)
	return path.Join("tickets", ownerID, date.Format("2006-01"), name)
}
