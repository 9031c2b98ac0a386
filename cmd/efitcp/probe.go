// Copyright 2026 The Efinet Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/google/subcommands"
	"golang.org/x/sync/errgroup"

	"github.com/uefi-go/efinet/emunet"
	"github.com/uefi-go/efinet/logger"
	"github.com/uefi-go/efinet/retry"
	"github.com/uefi-go/efinet/tcp4"
)

// ProbeCommand exercises the whole client path against an emulated
// environment: connect, echo -count payloads of -size bytes, close, and
// verify that no environment resource is left allocated.
type ProbeCommand struct {
	port     uint
	size     int
	count    int
	timeout  time.Duration
	attempts uint64
}

func (*ProbeCommand) Name() string {
	return "probe"
}

func (*ProbeCommand) Usage() string {
	return "probe [flags...]\n\nflags:\n"
}

func (*ProbeCommand) Synopsis() string {
	return "runs an echo self-test through the TCP client on an emulated environment"
}

func (cmd *ProbeCommand) SetFlags(f *flag.FlagSet) {
	f.UintVar(&cmd.port, "port", 7, "echo port inside the emulated stack")
	f.IntVar(&cmd.size, "size", 1024, "payload size in bytes")
	f.IntVar(&cmd.count, "count", 8, "number of payloads to echo")
	f.DurationVar(&cmd.timeout, "timeout", 30*time.Second, "overall probe deadline")
	f.Uint64Var(&cmd.attempts, "attempts", 3, "connect attempts before giving up")
}

func (cmd *ProbeCommand) execute(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, cmd.timeout)
	defer cancel()

	env, err := emunet.New()
	if err != nil {
		return fmt.Errorf("bring up environment: %w", err)
	}
	defer env.Close()

	ln, err := env.ListenTCP(uint16(cmd.port))
	if err != nil {
		return fmt.Errorf("listen on port %d: %w", cmd.port, err)
	}
	var g errgroup.Group
	g.Go(func() error {
		conn, err := ln.Accept()
		if err != nil {
			return err
		}
		defer conn.Close()
		_, err = io.Copy(conn, conn)
		return err
	})

	addr := tcp4.NewSocketAddrV4(tcp4.IPv4(127, 0, 0, 1), uint16(cmd.port))
	d := tcp4.Dialer{BS: env, Image: env.ImageHandle()}
	var conn *tcp4.Conn
	err = retry.Retry(ctx, retry.WithMaxRetries(retry.NewConstantBackoff(100*time.Millisecond), cmd.attempts), func() error {
		var err error
		conn, err = d.Dial(ctx, addr)
		return err
	})
	if err != nil {
		return fmt.Errorf("connect to %s: %w", addr, err)
	}
	logger.Infof(ctx, "connected to %s", addr)

	payload := make([]byte, cmd.size)
	for i := range payload {
		payload[i] = byte(i)
	}
	echo := make([]byte, cmd.size)
	for i := 0; i < cmd.count; i++ {
		for sent := 0; sent < len(payload); {
			n, err := conn.Send(ctx, payload[sent:])
			if err != nil {
				return fmt.Errorf("payload %d: send after %d bytes: %w", i, sent, err)
			}
			sent += n
		}
		for got := 0; got < len(echo); {
			n, err := conn.Receive(ctx, echo[got:])
			if err != nil {
				return fmt.Errorf("payload %d: receive after %d bytes: %w", i, got, err)
			}
			got += n
		}
		if !bytes.Equal(payload, echo) {
			return fmt.Errorf("payload %d: echo mismatch", i)
		}
		logger.Debugf(ctx, "payload %d of %d echoed (%d bytes)", i+1, cmd.count, cmd.size)
	}

	if err := conn.Close(ctx); err != nil {
		return fmt.Errorf("close: %w", err)
	}
	ln.Close()
	g.Wait()

	if n := env.OpenEvents(); n != 0 {
		return fmt.Errorf("%d events leaked", n)
	}
	if n := env.LiveChildren(); n != 0 {
		return fmt.Errorf("%d children leaked", n)
	}
	logger.Infof(ctx, "probe passed: %d x %d bytes echoed, no resources leaked", cmd.count, cmd.size)
	return nil
}

func (cmd *ProbeCommand) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if err := cmd.execute(ctx); err != nil {
		logger.Errorf(ctx, "probe failed: %v", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
