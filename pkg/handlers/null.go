package handlers

import "github.com/joeydtaylor/webhook-handler/pkg/core"

// Null silences a handler name; it is core.Nop under its config name.
var Null = core.Nop
