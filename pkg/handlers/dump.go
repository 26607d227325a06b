package handlers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joeydtaylor/webhook-handler/pkg/core"
	"github.com/joeydtaylor/webhook-handler/pkg/format"
	"github.com/joeydtaylor/webhook-handler/pkg/manifest"
)

// Dump writes the JSON body to the file named by the "fnfmt" template,
// appending unless "append" is false. Concurrent writes to one file are not
// coordinated.
type Dump struct{}

func (Dump) Handle(_ context.Context, opts manifest.Options, rc *core.RequestContext) error {
	tmpl, err := opts.String("fnfmt", manifest.DefaultDumpFnFmt)
	if err != nil {
		return err
	}
	appendMode, err := opts.Bool("append", manifest.DefaultDumpAppend)
	if err != nil {
		return err
	}
	name, err := format.Format(tmpl, rc.Vars())
	if err != nil {
		return err
	}
	name, err = expandUser(name)
	if err != nil {
		return err
	}

	data, err := rc.Body()
	if err != nil {
		return fmt.Errorf("dump: encode body: %w", err)
	}

	flag := os.O_CREATE | os.O_WRONLY
	if appendMode {
		flag |= os.O_APPEND
	} else {
		flag |= os.O_TRUNC
	}
	f, err := os.OpenFile(name, flag, 0o644)
	if err != nil {
		return fmt.Errorf("dump: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("dump: write %s: %w", name, err)
	}
	return f.Close()
}

// expandUser replaces a leading "~" or "~/" with the current user's home.
func expandUser(p string) (string, error) {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("expand %q: %w", p, err)
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~")), nil
}
