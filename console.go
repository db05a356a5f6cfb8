// Copyright 2026 by the Isaac Physics authors
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not
// use this file except in compliance with the License. You may obtain a copy
// of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS, WITHOUT
// WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the
// License for the specific language governing permissions and limitations
// under the License.

package runbook

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/juju/ansiterm"
	"github.com/mattn/go-isatty"
)

var (
	headingStyle = &ansiterm.Context{
		Foreground: ansiterm.BrightBlue,
		Styles:     []ansiterm.Style{ansiterm.Bold},
	}
	warningStyle = ansiterm.Foreground(ansiterm.Yellow)
)

// Console writes operator-facing text, colouring headings and warnings when
// writing to a terminal.
type Console struct {
	w *ansiterm.Writer
}

// NewConsole returns a Console writing to w.
func NewConsole(w io.Writer) *Console {
	return &Console{w: ansiterm.NewWriter(w)}
}

// Heading writes a section heading, such as “[DEPLOY ADA LIVE]”, preceded by
// an empty line.
func (c *Console) Heading(format string, a ...any) {
	fmt.Fprintln(c.w)
	headingStyle.Fprintf(c.w, format, a...)
	fmt.Fprintln(c.w)
}

// Warning writes a highlighted line.
func (c *Console) Warning(format string, a ...any) {
	warningStyle.Fprintf(c.w, format, a...)
	fmt.Fprintln(c.w)
}

// Step writes a step instruction.
func (c *Console) Step(format string, a ...any) {
	fmt.Fprintf(c.w, "# "+format+"\n", a...)
}

// Println writes a plain line.
func (c *Console) Println(a ...any) {
	fmt.Fprintln(c.w, a...)
}

// AssertTTY returns an error unless f is a terminal, hinting at winpty for the
// (Windows) command line args.
func AssertTTY(f *os.File, args []string) error {
	fd := f.Fd()
	if isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd) {
		return nil
	}
	return fmt.Errorf("must run this method with a tty. If you're using windows try:\nwinpty %s",
		strings.Join(args, " "))
}
