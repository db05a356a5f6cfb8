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
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"golang.org/x/exp/slices"
)

// ErrAborted signals that the operator aborted the procedure, or that there is
// no operator input anymore.
var ErrAborted = errors.New("aborted by operator")

// LineReader reads single lines of operator input, showing a prompt first. A
// *readline.Instance is a LineReader.
type LineReader interface {
	SetPrompt(prompt string)
	Readline() (string, error)
}

var _ LineReader = (*readline.Instance)(nil)

// LineScanner is a LineReader for non-interactive input, such as pipes and
// scripted operator answers.
type LineScanner struct {
	scanner *bufio.Scanner
	out     io.Writer
	prompt  string
}

// NewLineScanner returns a LineReader reading lines from r and writing prompts
// to w.
func NewLineScanner(r io.Reader, w io.Writer) *LineScanner {
	return &LineScanner{
		scanner: bufio.NewScanner(r),
		out:     w,
	}
}

// SetPrompt sets the prompt to show before reading the next line.
func (s *LineScanner) SetPrompt(prompt string) { s.prompt = prompt }

// Readline shows the prompt and then returns the next line of input, without
// its line terminator. At the end of input it returns io.EOF.
func (s *LineScanner) Readline() (string, error) {
	if _, err := io.WriteString(s.out, s.prompt); err != nil {
		return "", err
	}
	if !s.scanner.Scan() {
		if err := s.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return s.scanner.Text(), nil
}

// Prompter asks the operator questions and waits for the answers.
type Prompter struct {
	in  LineReader
	out io.Writer
}

// NewPrompter returns a Prompter reading answers from the specified LineReader
// and writing any multi-line prompt text to the specified writer.
func NewPrompter(in LineReader, out io.Writer) *Prompter {
	return &Prompter{in: in, out: out}
}

// Out returns the writer the prompter writes to.
func (p *Prompter) Out() io.Writer { return p.out }

// Printf writes formatted operator information.
func (p *Prompter) Printf(format string, a ...any) {
	fmt.Fprintf(p.out, format, a...)
}

// Println writes a line of operator information.
func (p *Prompter) Println(a ...any) {
	fmt.Fprintln(p.out, a...)
}

// Ask shows the prompt and returns the operator's answer. Any text of the
// prompt up to and including its final newline is written as-is, only the
// remainder becomes the line editor's prompt. Both the end of operator input
// and an interrupt are reported as ErrAborted.
func (p *Prompter) Ask(prompt string) (string, error) {
	if idx := strings.LastIndexByte(prompt, '\n'); idx >= 0 {
		if _, err := io.WriteString(p.out, prompt[:idx+1]); err != nil {
			return "", err
		}
		prompt = prompt[idx+1:]
	}
	p.in.SetPrompt(prompt)
	line, err := p.in.Readline()
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, readline.ErrInterrupt) {
			return "", ErrAborted
		}
		return "", fmt.Errorf("cannot read operator input, reason: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// YesNo asks a question and returns true only if the answer is "y" (in any
// case). Every other answer counts as "no".
func (p *Prompter) YesNo(prompt string) (bool, error) {
	answer, err := p.Ask(prompt)
	if err != nil {
		return false, err
	}
	return strings.ToLower(answer) == "y", nil
}

// Choose asks the question until the operator answers with one of the
// choices, re-prompting otherwise. The answer is compared in lower case and
// returned in lower case.
func (p *Prompter) Choose(prompt string, reprompt string, choices ...string) (string, error) {
	answer, err := p.Ask(prompt)
	for {
		if err != nil {
			return "", err
		}
		answer = strings.ToLower(strings.TrimSpace(answer))
		if slices.Contains(choices, answer) {
			return answer, nil
		}
		answer, err = p.Ask(reprompt)
	}
}

// Acknowledge shows the (optional) warning and then insists on the operator
// either continuing with "y" or aborting with "n", in which case ErrAborted is
// returned.
func (p *Prompter) Acknowledge(prompt string, warning bool, continuePrompt string) error {
	if warning {
		p.Printf("Warning: %s\n", prompt)
	} else {
		p.Println(prompt)
	}
	if continuePrompt == "" {
		continuePrompt = "Continue anyway?"
	}
	for {
		answer, err := p.Ask(continuePrompt + " [y/n]\n")
		if err != nil {
			return err
		}
		switch strings.ToLower(answer) {
		case "y":
			return nil
		case "n":
			return ErrAborted
		}
	}
}
