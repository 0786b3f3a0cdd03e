/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package crash turns panics into a logged error, a local crash report file
// and a clean release of the project database connection.
package crash

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"time"

	applog "preworkbench/internal/log"
	"preworkbench/internal/storage"
	"preworkbench/internal/version"
)

// exitFn is used to allow testing of Recover without terminating the test process.
var exitFn = os.Exit

// Recover captures a panic, logs an error with stacktrace, writes an error
// report file and closes the project handle so the database file is released.
//
// Usage: defer func(){ crash.Recover(p) }()
func Recover(p *storage.Project) {
	if r := recover(); r != nil {
		l := applog.WithComponent("crash")
		stack := debug.Stack()
		l.Error("panic recovered", slog.Any("panic", r), slog.String("stack", string(stack)))

		reportPath, _ := writeReport(p, r, stack)
		if p != nil {
			if err := p.Close(); err != nil {
				l.Error("close project after panic failed", slog.Any("err", err))
			}
		}

		fmt.Fprintf(os.Stderr, "A fatal error occurred. A crash report was saved to: %s\n", reportPath)
		fmt.Fprintf(os.Stderr, "Version: %s\nOS/Arch: %s/%s\n", version.String(), runtime.GOOS, runtime.GOARCH)
		exitFn(2)
	}
}

func writeReport(p *storage.Project, panicVal any, stack []byte) (string, error) {
	dir := os.TempDir()
	if p != nil && p.Dir != "" {
		dir = p.Dir
	}
	stamp := time.Now().Format("20060102-150405")
	path := filepath.Join(dir, fmt.Sprintf("prewb-crash-%s.log", stamp))

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "PRE Workbench Crash Report\n")
	fmt.Fprintf(&buf, "Timestamp: %s\n", time.Now().Format(time.RFC3339))
	fmt.Fprintf(&buf, "Version: %s\n", version.String())
	fmt.Fprintf(&buf, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	if p != nil {
		fmt.Fprintf(&buf, "ProjectDir: %s\n", p.Dir)
		fmt.Fprintf(&buf, "Database: %s\n", p.DBPath)
	}
	fmt.Fprintf(&buf, "\nPanic: %v\n\n", panicVal)
	fmt.Fprintf(&buf, "Stack:\n%s\n", string(stack))

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		applog.WithComponent("crash").Error("failed to write crash report", slog.Any("err", err), slog.String("path", path))
		return path, err
	}
	return path, nil
}
