// File: httpproto/aclf.go
// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT

package httpproto

import (
	"fmt"
	"strings"
)

// AccessLogLine renders one Apache Combined Log Format line for a handled
// request:
//
//	%h %l %u [%d/%b/%Y:%H:%M:%S.%ms %z] "METHOD URI HTTP/maj[.min]" status bytes "Referer" "User-Agent"
//
// The host defaults to the request's remote address unless the reply set
// OriginHost; the local user is always "-". ts is the wall-clock captured
// before dispatch so the logged time reflects request arrival, not
// response completion.
func AccessLogLine(req *Request, rep *Reply, ts ACLFTimestamp) string {
	host := req.RemoteAddress
	if rep.OriginHost != "" {
		host = rep.OriginHost
	}

	var reqLine strings.Builder
	reqLine.WriteString(req.Method)
	reqLine.WriteByte(' ')
	reqLine.WriteString(req.URI)
	reqLine.WriteString(fmt.Sprintf(" HTTP/%d", req.HTTPVersionMajor))
	if req.HTTPVersionMinor != 0 {
		reqLine.WriteString(fmt.Sprintf(".%d", req.HTTPVersionMinor))
	}

	referer := "-"
	if v, ok := req.Header("Referer"); ok {
		referer = "\"" + v + "\""
	}
	userAgent := "-"
	if v, ok := req.Header("User-Agent"); ok {
		userAgent = "\"" + v + "\""
	}

	return fmt.Sprintf("%s - %s [%s.%03d %s] \"%s\" %d %d %s %s",
		host, "-", ts.Time.Format("02/Jan/2006:15:04:05"), ts.Millis,
		ts.Time.Format("-0700"), reqLine.String(), int(rep.Status),
		len(rep.Content), referer, userAgent)
}
