package constants

import "strings"

// AllowedExtensions holds the document extensions picked up from the documents folder.
var AllowedExtensions = map[string]struct{}{
	"pdf": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// IsDocumentExt reports whether ext (with or without the dot) is a supported document extension.
func IsDocumentExt(ext string) bool {
	_, ok := AllowedExtensions[NormalizeExt(ext)]
	return ok
}

// MaxSheetNameLength is the XLSX limit on worksheet names.
const MaxSheetNameLength = 31
