package handlers

import (
	"context"

	"github.com/joeydtaylor/webhook-handler/pkg/core"
	"github.com/joeydtaylor/webhook-handler/pkg/format"
	"github.com/joeydtaylor/webhook-handler/pkg/manifest"
	"go.uber.org/zap"
)

// Print logs the "fmt" template rendered against the request.
type Print struct {
	Log *zap.Logger
}

func (p Print) Handle(_ context.Context, opts manifest.Options, rc *core.RequestContext) error {
	tmpl, err := opts.String("fmt", manifest.DefaultPrintFmt)
	if err != nil {
		return err
	}
	msg, err := format.Format(tmpl, rc.Vars())
	if err != nil {
		return err
	}
	p.Log.Info(msg, zap.String("handler", string(manifest.HandlerPrint)))
	return nil
}
