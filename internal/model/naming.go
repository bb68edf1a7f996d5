package model

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// TempPrefix marks files in phase-1 (temporary) state. Files carrying it
// belong to the engine, never to the user.
const TempPrefix = "TEMP_"

var imageExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
}

// IsImageExt reports whether name has one of the watched image
// extensions (case-insensitive).
func IsImageExt(name string) bool {
	return imageExts[strings.ToLower(filepath.Ext(name))]
}

// FinalName returns the canonical name for the file at 0-based position
// index: <prefix>_<NN>.<ext>. The number is zero-padded to two digits
// and grows without truncation past 99. The extension is lowercased but
// otherwise preserved.
func FinalName(prefix string, index int, ext string) string {
	return fmt.Sprintf("%s_%02d%s", prefix, index+1, strings.ToLower(ext))
}

// TempName returns the phase-1 name for position index. The TempPrefix
// marker keeps it disjoint from every final name, and the index keeps
// temporaries of one pass disjoint from each other.
func TempName(prefix string, index int, ext string) string {
	return fmt.Sprintf("%s%02d_%s%s", TempPrefix, index+1, prefix, strings.ToLower(ext))
}

// IsTempName reports whether name carries the temporary marker.
func IsTempName(name string) bool {
	return strings.HasPrefix(name, TempPrefix)
}

// IsCanonicalName reports whether name already matches the canonical
// pattern <prefix>_<NN+>.<ext> for the given prefix, case-insensitive on
// the extension.
func IsCanonicalName(prefix, name string) bool {
	pattern := fmt.Sprintf(`^%s_\d{2,}\.(?i:png|jpg|jpeg)$`, regexp.QuoteMeta(prefix))
	ok, err := regexp.MatchString(pattern, name)
	return err == nil && ok
}
