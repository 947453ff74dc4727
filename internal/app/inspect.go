// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package app

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/specialistvlad/riggraph/internal/rig"
)

// ErrRoundtripMismatch is returned by Roundtrip in check mode when the
// re-encoded document differs from the file.
var ErrRoundtripMismatch = errors.New("re-encoded document differs from the input")

// ListLibraries writes every discovered library with its targets and types.
func (a *App) ListLibraries(w io.Writer) error {
	reg := a.Libraries()
	names := reg.Libraries()
	if len(names) == 0 {
		_, err := fmt.Fprintln(w, "no libraries found")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "LIBRARY\tTARGET\tTYPES\tROOT")
	for _, name := range names {
		lib, err := reg.Library(name)
		if err != nil {
			return err
		}
		for _, target := range lib.Targets() {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", lib.Name, target, strings.Join(lib.Types(target), ","), lib.Root)
		}
	}
	return tw.Flush()
}

// Inspect imports the document at path and writes its node tree.
func (a *App) Inspect(path string, w io.Writer) error {
	sess := a.NewSession()
	n, err := sess.Import(path)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if err := describe(tw, n, 0); err != nil {
		return err
	}
	return tw.Flush()
}

func describe(w io.Writer, n *rig.Node, depth int) error {
	indent := strings.Repeat("  ", depth)
	lib := n.Library()
	if lib == "" {
		lib = "-"
	}
	fmt.Fprintf(w, "%s%s\t%s\t%s\t\n", indent, n.Path(), n.Type(), lib)

	for _, p := range n.Ports() {
		value, err := p.Type().Marshal(p.Get())
		if err != nil {
			return fmt.Errorf("inspect %s: %w", p.Path(), err)
		}
		name := strings.Join(p.NamePath(), ".")
		fmt.Fprintf(w, "%s  .%s\t%s\t%s\t%s\n", indent, name, p.Direction(), p.Type(), value)
	}
	for _, c := range n.ChildGraph().Connections() {
		fmt.Fprintf(w, "%s  %s -> %s\t\t\t\n", indent, c.Source().Path(), c.Target().Path())
	}
	for _, child := range n.Children() {
		if err := describe(w, child, depth+1); err != nil {
			return err
		}
	}
	return nil
}

// Roundtrip imports the document at path and writes it re-encoded. With
// check set it fails when the output is not byte-identical to the file.
func (a *App) Roundtrip(path string, check bool, w io.Writer) error {
	original, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("roundtrip %s: %w", path, err)
	}
	sess := a.NewSession()
	n, err := sess.Import(path)
	if err != nil {
		return err
	}
	out, err := sess.Encode(n)
	if err != nil {
		return err
	}
	if _, err := w.Write(out); err != nil {
		return err
	}
	if check && !bytes.Equal(original, out) {
		return fmt.Errorf("roundtrip %s: %w", path, ErrRoundtripMismatch)
	}
	return nil
}
