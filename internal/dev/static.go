package dev

import (
	"mime"
	"net/http"
	"path"
	"path/filepath"
	"strings"
)

// requestRelPath returns the sanitized root-relative file path for a request
// path. Directory requests resolve to their index.html. Traversal, NUL bytes,
// backslashes and absolute-path tricks are rejected.
func requestRelPath(urlPath string) (string, bool) {
	if !strings.HasPrefix(urlPath, "/") {
		return "", false
	}
	rel := strings.TrimPrefix(urlPath, "/")
	if rel == "" || strings.HasSuffix(rel, "/") {
		rel += "index.html"
	}

	// Reject NUL early (can appear via %00).
	if strings.IndexByte(rel, 0) != -1 {
		return "", false
	}

	// Reject platform-dependent separators.
	if strings.Contains(rel, "\\") {
		return "", false
	}

	// "//etc/passwd" leaves a leading slash after trimming one.
	if strings.HasPrefix(rel, "/") {
		return "", false
	}

	// Reject dot-segments before cleaning so traversal cannot be cleaned away.
	for _, seg := range strings.Split(rel, "/") {
		if seg == "." || seg == ".." {
			return "", false
		}
	}

	clean := path.Clean(rel)
	if clean == "." || clean == "" || strings.HasPrefix(clean, "../") {
		return "", false
	}

	osPath := filepath.FromSlash(clean)
	if filepath.IsAbs(osPath) || filepath.VolumeName(osPath) != "" {
		return "", false
	}
	return clean, true
}

// contentTypeFor guesses a file's type from its extension, falling back to
// sniffing its content.
func contentTypeFor(name string, content []byte) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".vue", ".ts", ".tsx", ".jsx":
		return "text/javascript; charset=utf-8"
	}
	if t := mime.TypeByExtension(filepath.Ext(name)); t != "" {
		return t
	}
	return http.DetectContentType(content)
}
