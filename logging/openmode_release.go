//go:build !logdebug

// File: logging/openmode_release.go
// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT

package logging

import "os"

// Release builds append so restarts never lose history.
const outputFileFlags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
