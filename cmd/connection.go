// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/jlbarriere/k150prog/pkg/programmer"
	"github.com/jlbarriere/k150prog/pkg/transport"
	"github.com/jlbarriere/k150prog/pkg/workflow"
	"golang.org/x/term"
)

// commandContext returns a context canceled on the first interrupt
// signal, so a Workflow scenario can stop cleanly between discrete
// device commands instead of leaving the session half-configured.
func commandContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

// openWorkflow resolves the target chip against the configured
// database and binds a workflow to a serial transport on port, without
// opening the port yet (Workflow.Connect does that).
func openWorkflow(port, chip string) (*workflow.Workflow, error) {
	if chip == "" {
		return nil, fmt.Errorf("-t/--chip is required")
	}

	tr := transport.NewSerial(port)
	opts := []programmer.Option{programmer.WithDebug(debug)}
	if term.IsTerminal(int(os.Stdout.Fd())) {
		opts = append(opts, programmer.WithProgressCallback(printProgress))
	}
	return workflow.New(tr, dbPath, chip, icsp, opts...)
}

// printProgress renders streaming memory-command progress as a single
// overwritten line, only installed when stdout is an interactive
// terminal.
func printProgress(done, total int) {
	if total == 0 {
		return
	}
	pct := done * 100 / total
	fmt.Printf("\r  %3d%% (%d/%d bytes)", pct, done, total)
	if done >= total {
		fmt.Println()
	}
}
