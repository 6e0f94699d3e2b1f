// File: mimetype/mimetype.go
// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT
//
// Package mimetype maps file extensions to MIME types for the file
// download path. The table covers what the embedded server actually
// serves; anything unknown falls back to application/octet-stream so a
// download is never mislabeled as text.

package mimetype

import "strings"

var mappings = map[string]string{
	"gif":  "image/gif",
	"htm":  "text/html",
	"html": "text/html",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"ico":  "image/x-icon",
	"css":  "text/css",
	"js":   "application/javascript",
	"json": "application/json",
	"txt":  "text/plain",
	"xml":  "text/xml",
	"svg":  "image/svg+xml",
	"webp": "image/webp",
	"pdf":  "application/pdf",
	"zip":  "application/zip",
	"gz":   "application/gzip",
	"csv":  "text/csv",
	"db":   "application/octet-stream",
	"bin":  "application/octet-stream",
	"wav":  "audio/wav",
	"mp3":  "audio/mpeg",
	"mp4":  "video/mp4",
	"woff": "font/woff",
	"woff2": "font/woff2",
}

const fallback = "application/octet-stream"

// ExtensionToType returns the MIME type for a bare extension ("html", not
// ".html"). Lookup is case-insensitive.
func ExtensionToType(ext string) string {
	if t, ok := mappings[strings.ToLower(ext)]; ok {
		return t
	}
	return fallback
}

// ForPath returns the MIME type for a file path, keyed on the substring
// after the last dot. A path with no extension maps to the fallback.
func ForPath(path string) string {
	dot := strings.LastIndexByte(path, '.')
	if dot < 0 || dot == len(path)-1 {
		return fallback
	}
	return ExtensionToType(path[dot+1:])
}
