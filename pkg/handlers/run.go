package handlers

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"time"

	"github.com/joeydtaylor/webhook-handler/pkg/core"
	"github.com/joeydtaylor/webhook-handler/pkg/format"
	"github.com/joeydtaylor/webhook-handler/pkg/manifest"
	"go.uber.org/zap"
)

// runWaitDelay bounds how long a timed-out command may keep its output pipes open
// through child processes after the command itself is killed.
const runWaitDelay = time.Second

// Run executes "command" with the rendered "args". With "json_in" the JSON body
// is written to the command's stdin. The request waits for the command; there
// is no deadline unless "timeout_ms" is set.
type Run struct {
	Log *zap.Logger
}

func (h Run) Handle(ctx context.Context, opts manifest.Options, rc *core.RequestContext) error {
	cmdTmpl, err := opts.String("command", manifest.DefaultRunCommand)
	if err != nil {
		return err
	}
	argTmpls, err := opts.Strings("args", manifest.DefaultRunArgs())
	if err != nil {
		return err
	}
	jsonIn, err := opts.Bool("json_in", manifest.DefaultRunJSONIn)
	if err != nil {
		return err
	}
	timeoutMS, err := opts.Int("timeout_ms", 0)
	if err != nil {
		return err
	}

	vars := rc.Vars()
	name, err := format.Format(cmdTmpl, vars)
	if err != nil {
		return err
	}
	args, err := format.FormatAll(argTmpls, vars)
	if err != nil {
		return err
	}

	if timeoutMS > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(timeoutMS)*time.Millisecond)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, name, args...)
	if timeoutMS > 0 {
		cmd.WaitDelay = runWaitDelay
	}
	if jsonIn {
		in, err := rc.Body()
		if err != nil {
			return fmt.Errorf("run: encode body: %w", err)
		}
		cmd.Stdin = bytes.NewReader(in)
	}
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	start := time.Now()
	err = cmd.Run()
	h.Log.Debug("command finished",
		zap.String("handler", string(manifest.HandlerRun)),
		zap.String("command", name),
		zap.Strings("args", args),
		zap.Duration("took", time.Since(start)),
		zap.ByteString("output", out.Bytes()),
		zap.Error(err),
	)
	if err != nil {
		return fmt.Errorf("run %s: %w", name, err)
	}
	return nil
}
