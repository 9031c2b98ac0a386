// Copyright 2026 The Efinet Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package logger

import (
	"bytes"
	"context"
	goLog "log"
	"os"
	"strings"
	"testing"

	"github.com/uefi-go/efinet/color"
)

func TestWithContext(t *testing.T) {
	logger := NewLogger(DebugLevel, color.NewColor(color.ColorAuto), os.Stdout, os.Stderr, "")
	ctx := context.Background()
	if v, ok := ctx.Value(globalLoggerKeyType{}).(*Logger); ok || v != nil {
		t.Fatalf("Default context should not have globalLoggerKeyType. Expected: \nnil\n but got: \n%+v ", v)
	}
	ctx = WithLogger(ctx, logger)
	if v, ok := ctx.Value(globalLoggerKeyType{}).(*Logger); !ok || v == nil {
		t.Fatalf("Updated context should have globalLoggerKeyType, but got nil")
	}
}

func TestNewLogger(t *testing.T) {
	prefix := "testprefix "

	logger := NewLogger(InfoLevel, color.NewColor(color.ColorAuto), nil, nil, prefix)
	logFlags, errFlags := logger.goLogger.Flags(), logger.goErrorLogger.Flags()

	if logFlags != goLog.LstdFlags || errFlags != goLog.LstdFlags {
		t.Fatalf("New loggers should have the proper flags set for both standard and error logging. Expected: \n%+v and %+v\n but got: \n%+v and %+v", goLog.LstdFlags, goLog.LstdFlags, logFlags, errFlags)
	}

	logPrefix := logger.prefix
	if logPrefix != prefix {
		t.Fatalf("New loggers should use the specified prefix on creation. Expected: \n%+v\n but got: \n%+v", prefix, logPrefix)
	}
}

func TestLevelFiltering(t *testing.T) {
	var out, errOut bytes.Buffer
	logger := NewLogger(InfoLevel, color.NewColor(color.ColorNever), &out, &errOut, "")
	logger.Debugf("hidden %d", 1)
	logger.Infof("shown %d", 2)
	if strings.Contains(out.String(), "hidden") {
		t.Errorf("debug line logged at info level: %q", out.String())
	}
	if !strings.Contains(out.String(), "shown 2") {
		t.Errorf("info line missing: %q", out.String())
	}
}

func TestLogLevelFlag(t *testing.T) {
	var l LogLevel
	if err := l.Set("debug"); err != nil {
		t.Fatal(err)
	}
	if l != DebugLevel {
		t.Errorf("got %v, want %v", l, DebugLevel)
	}
	if err := l.Set("bogus"); err == nil {
		t.Error("bogus level accepted")
	}
}
