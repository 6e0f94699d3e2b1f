//go:build logdebug

// File: logging/openmode_debug.go
// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT

package logging

import "os"

// Debug builds truncate so each run starts with a clean file.
const outputFileFlags = os.O_CREATE | os.O_WRONLY | os.O_TRUNC
