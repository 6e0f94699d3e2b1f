// File: httpproto/date.go
// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT

package httpproto

import "time"

// httpDateLayout is RFC 7231's IMF-fixdate, always rendered in GMT.
const httpDateLayout = "Mon, 02 Jan 2006 15:04:05 GMT"

// MakeWebTime formats t as an HTTP-date for Date/Last-Modified headers.
func MakeWebTime(t time.Time) string {
	return t.UTC().Format(httpDateLayout)
}

// ParseWebTime parses an HTTP-date previously produced by MakeWebTime.
// ParseWebTime(MakeWebTime(t)) equals t truncated to whole seconds.
func ParseWebTime(s string) (time.Time, error) {
	return time.Parse(httpDateLayout, s)
}
