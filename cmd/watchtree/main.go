// Copyright (c) 2014-2015 The Notify Authors. All rights reserved.
// Use of this source code is governed by the MIT license that can be
// found in the LICENSE file.

// Command watchtree watches a directory tree for filesystem changes and
// prints one line per event to stdout.
//
// Usage
//
//	watchtree <root> [ignored-basename...]
//
// The root argument is the directory to watch recursively. Any further
// positional arguments name directory basenames to exclude from
// watching anywhere in the tree, such as .git.
//
// watchtree runs until interrupted (SIGINT or SIGTERM) or until the
// root directory itself is deleted or moved, at which point it exits
// with status 0. Initialization failures and unrecoverable runtime
// errors exit non-zero.
package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/watchtree/watchtree"
)

const usage = `usage: watchtree <root> [ignored-basename...]

Watches root and every descendant directory recursively, printing one
line per filesystem change to stdout. Press Ctrl+C to stop.`

// logSink formats each Event as a single timestamped line and writes
// it through a *log.Logger.
type logSink struct {
	out *log.Logger
}

func (s logSink) Emit(e watchtree.Event) {
	ts := e.Time.Format("2006-01-02 15:04:05")
	if e.NewPath != "" {
		s.out.Printf("[%s] %s: %s -> %s", ts, e.Kind, e.Path, e.NewPath)
		return
	}
	if e.Path == "" {
		s.out.Printf("[%s] %s", ts, e.Kind)
		return
	}
	s.out.Printf("[%s] %s: %s", ts, e.Kind, e.Path)
}

func die(v interface{}) {
	fmt.Fprintln(os.Stderr, v)
	os.Exit(1)
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(1)
	}
	root := os.Args[1]
	ignored := os.Args[2:]

	info, err := os.Stat(root)
	if err != nil {
		die(err)
	}
	if !info.IsDir() {
		die(fmt.Sprintf("%s: not a directory", root))
	}

	out := log.New(os.Stdout, "", 0)
	warn := log.New(os.Stderr, "watchtree: ", log.LstdFlags)

	w := watchtree.New(root, ignored, logSink{out: out}, warn)
	if err := w.Start(); err != nil {
		die(err)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	done := make(chan error, 1)
	go func() { done <- w.Run() }()

	warn.Printf("watching %s", root)

	select {
	case <-sig:
		w.Stop()
		<-done
	case err := <-done:
		if err != nil {
			die(err)
		}
	}
}
