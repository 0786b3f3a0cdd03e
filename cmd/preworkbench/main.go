/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"preworkbench/internal/config"
	"preworkbench/internal/crash"
	applog "preworkbench/internal/log"
	"preworkbench/internal/storage"
	"preworkbench/internal/version"
	"preworkbench/internal/watch"
)

func usage() {
	fmt.Println("PRE Workbench project tool")
	fmt.Printf("Version: %s\n", version.String())
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  preworkbench version|-v|--version          Show version")
	fmt.Println("  preworkbench open <dir>                    Open (creating if needed) the project at <dir> and print a summary")
	fmt.Println("  preworkbench get <dir> <key>               Print a project option value")
	fmt.Println("  preworkbench set <dir> <key> <value>       Store a project option (string value)")
	fmt.Println("  preworkbench sets <dir>                    List annotation set names")
	fmt.Println("  preworkbench annotations <dir> <set>       Dump annotations of a set")
	fmt.Println("  preworkbench delset <dir> <set>            Delete an annotation set")
	fmt.Println("  preworkbench export <dir> <set> <file>     Export an annotation set to a JSON file")
	fmt.Println("  preworkbench import <dir> <file>           Import an annotation set from a JSON file")
	fmt.Println("  preworkbench watch <dir>                   Re-list annotation sets whenever the project database changes")
}

func main() {
	applog.Init(applog.FromEnv())
	l := applog.WithComponent("cli")
	var p *storage.Project
	defer func() { crash.Recover(p) }()

	args := os.Args
	if len(args) < 2 {
		usage()
		return
	}
	ctx := context.Background()

	switch args[1] {
	case "version", "--version", "-v":
		fmt.Println(version.String())

	case "open":
		if len(args) < 3 {
			usage()
			os.Exit(1)
		}
		p = mustOpen(l, args[2])
		rememberProject(l, p.Dir)
		created, _ := p.CreatedAt(ctx)
		names, err := p.AnnotationSetNames(ctx)
		if err != nil {
			fail(l, err)
		}
		fmt.Printf("Project:    %s\n", p.Dir)
		fmt.Printf("Database:   %s\n", p.DBPath)
		if !created.IsZero() {
			fmt.Printf("Created:    %s\n", created.Format(time.RFC3339))
		}
		fmt.Printf("Annotation sets (%d):\n", len(names))
		for _, n := range names {
			fmt.Printf("  %s\n", n)
		}

	case "get":
		if len(args) < 4 {
			usage()
			os.Exit(1)
		}
		p = mustOpen(l, args[2])
		v, err := p.GetValue(ctx, args[3], nil)
		if err != nil {
			fail(l, err)
		}
		if v == nil {
			fmt.Println("(not set)")
		} else {
			fmt.Printf("%v\n", v)
		}

	case "set":
		if len(args) < 5 {
			usage()
			os.Exit(1)
		}
		p = mustOpen(l, args[2])
		if err := p.SetValue(ctx, args[3], args[4]); err != nil {
			fail(l, err)
		}

	case "sets":
		if len(args) < 3 {
			usage()
			os.Exit(1)
		}
		p = mustOpen(l, args[2])
		printSets(ctx, p)

	case "annotations":
		if len(args) < 4 {
			usage()
			os.Exit(1)
		}
		p = mustOpen(l, args[2])
		anns, err := p.Annotations(ctx, args[3])
		if err != nil {
			fail(l, err)
		}
		for _, a := range anns {
			show, _ := a.Meta["show"].(string)
			fmt.Printf("%6d  [%d, %d)  %s\n", a.ID, a.Start, a.End, show)
		}

	case "delset":
		if len(args) < 4 {
			usage()
			os.Exit(1)
		}
		p = mustOpen(l, args[2])
		n, err := p.DeleteAnnotationSet(ctx, args[3])
		if err != nil {
			fail(l, err)
		}
		fmt.Printf("deleted %d annotations\n", n)

	case "export":
		if len(args) < 5 {
			usage()
			os.Exit(1)
		}
		p = mustOpen(l, args[2])
		if err := p.ExportAnnotationSet(ctx, args[3], args[4]); err != nil {
			fail(l, err)
		}
		fmt.Printf("exported %q to %s\n", args[3], args[4])

	case "import":
		if len(args) < 4 {
			usage()
			os.Exit(1)
		}
		p = mustOpen(l, args[2])
		setName, n, err := p.ImportAnnotationSet(ctx, args[3])
		if err != nil {
			fail(l, err)
		}
		fmt.Printf("imported %d annotations into %q\n", n, setName)

	case "watch":
		if len(args) < 3 {
			usage()
			os.Exit(1)
		}
		p = mustOpen(l, args[2])
		printSets(ctx, p)
		wctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()
		err := watch.File(wctx, p.DBPath, 250*time.Millisecond, func() {
			fmt.Println("--- project database changed ---")
			printSets(ctx, p)
		})
		if err != nil && wctx.Err() == nil {
			fail(l, err)
		}

	default:
		usage()
		os.Exit(1)
	}

	if p != nil {
		if err := p.Close(); err != nil {
			l.Warn("close project failed", slog.Any("err", err))
		}
	}
}

func mustOpen(l *slog.Logger, dir string) *storage.Project {
	p, err := storage.Open(dir)
	if err != nil {
		fail(l, err)
	}
	return p
}

func printSets(ctx context.Context, p *storage.Project) {
	names, err := p.AnnotationSetNames(ctx)
	if err != nil {
		fail(applog.WithComponent("cli"), err)
	}
	if len(names) == 0 {
		fmt.Println("(no annotation sets)")
		return
	}
	for _, n := range names {
		fmt.Println(n)
	}
}

func rememberProject(l *slog.Logger, dir string) {
	cfg, err := config.Load()
	if err != nil {
		l.Debug("load config failed", slog.Any("err", err))
		return
	}
	cfg.RememberProject(dir)
	if err := config.Save(cfg); err != nil {
		l.Debug("save config failed", slog.Any("err", err))
	}
}

func fail(l *slog.Logger, err error) {
	l.Error("command failed", slog.Any("err", err))
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
