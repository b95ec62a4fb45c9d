package utils

import (
	"regexp"
	"strings"
)

var (
	// Characters invalid in filenames on most filesystems
	invalidFilenameChars = regexp.MustCompile(`[<>:"/\\|?*]`)
	// Control characters, including newlines and tabs
	controlChars = regexp.MustCompile(`[\x00-\x1f\x7f]`)
	// Multiple spaces to collapse
	multipleSpaces = regexp.MustCompile(`\s+`)
)

// maxFilenameBytes leaves room for an extension within the usual 255 limit.
const maxFilenameBytes = 200

// SanitizeFilename turns a book title into a name that is safe to offer as a
// download on any filesystem.
func SanitizeFilename(filename string) string {
	filename = invalidFilenameChars.ReplaceAllString(filename, "")
	filename = controlChars.ReplaceAllString(filename, " ")
	filename = multipleSpaces.ReplaceAllString(filename, " ")
	filename = strings.Trim(filename, " .")

	if len(filename) > maxFilenameBytes {
		filename = truncateUTF8(filename, maxFilenameBytes)
		filename = strings.TrimSpace(filename)
	}

	if filename == "" {
		filename = "book"
	}
	return filename
}

// DownloadFilename sanitizes title and appends ext.
func DownloadFilename(title, ext string) string {
	return SanitizeFilename(title) + ext
}

func truncateUTF8(s string, n int) string {
	for n > 0 && n < len(s) && !utf8RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func utf8RuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
