package blob

import (
	"path"
	"regexp"
	"strings"
)

// allowedExtensions lists the filename extensions accepted for upload,
// lowercase and without the leading dot.
var allowedExtensions = map[string]bool{
	"txt": true, "pdf": true, "png": true, "jpg": true, "jpeg": true,
	"gif": true, "zip": true, "doc": true, "docx": true, "xls": true,
	"xlsx": true, "ppt": true, "pptx": true, "mp3": true, "mp4": true,
	"avi": true, "mov": true, "webp": true, "exe": true, "odt": true,
	"ods": true, "iso": true, "ovpn": true, "msi": true,
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_. -]`)

// AllowedExtension reports whether the filename carries one of the accepted
// extensions. Names without any extension are rejected.
func AllowedExtension(name string) bool {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(name), "."))
	if ext == "" {
		return false
	}
	return allowedExtensions[ext]
}

// SanitizeFilename strips directory components and characters that could be
// used for path traversal, leaving a plain filename safe to hand to the
// naming resolver. Returns an empty string if nothing usable remains.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(name)
	name = unsafeChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, ". ")

	if name == "" || name == "/" {
		return ""
	}
	return name
}
