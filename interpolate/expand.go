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

package interpolate

import (
	"errors"
	"strings"
)

// Expand returns s with all variable references replaced.
func Expand(s string, vars map[string]string) (string, error) {
	segs, err := parse(s)
	if err != nil {
		return "", err
	}
	return segs.text(vars)
}

// segment produces its text upon request, with variable references replaced.
type segment interface {
	text(vars map[string]string) (string, error)
}

type segments []segment

func (segs segments) text(vars map[string]string) (string, error) {
	var b strings.Builder
	for _, seg := range segs {
		text, err := seg.text(vars)
		if err != nil {
			return "", err
		}
		b.WriteString(text)
	}
	return b.String(), nil
}

type plainText string

func (pt plainText) text(map[string]string) (string, error) { return string(pt), nil }

// substitution of a variable reference. The alternative text only gets
// expanded when the operation actually uses it.
type substitution struct {
	name string
	op   string // "", or one of "-", ":-", "?", ":?", "+", ":+"
	alt  segments
}

func (subst substitution) text(vars map[string]string) (string, error) {
	value, set := vars[subst.name]
	if subst.op == "" {
		return value, nil
	}
	present := set
	if subst.op[0] == ':' {
		present = set && value != ""
	}
	switch subst.op[len(subst.op)-1] {
	case '-':
		if present {
			return value, nil
		}
		return subst.alt.text(vars)
	case '?':
		if present {
			return value, nil
		}
		msg, err := subst.alt.text(vars)
		if err != nil {
			return "", err
		}
		if msg == "" {
			msg = subst.name + " must be set"
		}
		return "", errors.New(msg)
	default: // '+'
		if present {
			return subst.alt.text(vars)
		}
		return "", nil
	}
}

// parse s into segments, reporting syntax errors even inside alternative
// texts that might never get expanded.
func parse(s string) (segments, error) {
	sc := &scanner{src: s}
	return sc.segments(false)
}

type scanner struct {
	src string
	pos int
}

// segments scans up to the end of the source or, when braced, up to and
// including the closing brace.
func (sc *scanner) segments(braced bool) (segments, error) {
	var segs segments
	var b strings.Builder
	flush := func() {
		if b.Len() > 0 {
			segs = append(segs, plainText(b.String()))
			b.Reset()
		}
	}
	for sc.pos < len(sc.src) {
		ch := sc.src[sc.pos]
		switch {
		case ch == '}' && braced:
			sc.pos++
			flush()
			return segs, nil
		case ch == '$':
			subst, literal, err := sc.reference()
			if err != nil {
				return nil, err
			}
			if subst == nil {
				b.WriteString(literal)
				continue
			}
			flush()
			segs = append(segs, *subst)
		default:
			b.WriteByte(ch)
			sc.pos++
		}
	}
	if braced {
		return nil, errors.New("unterminated ${")
	}
	flush()
	return segs, nil
}

// reference scans the reference starting at the current “$”. Anything that
// isn't a reference is returned as literal text instead.
func (sc *scanner) reference() (*substitution, string, error) {
	sc.pos++ // skip $
	if sc.pos >= len(sc.src) {
		return nil, "$", nil
	}
	switch ch := sc.src[sc.pos]; {
	case ch == '$':
		sc.pos++
		return nil, "$", nil
	case ch == '{':
		sc.pos++
		subst, err := sc.braced()
		return subst, "", err
	case isNameStart(ch):
		return &substitution{name: sc.name()}, "", nil
	}
	return nil, "$", nil
}

// braced scans a ${...} reference, with the opening brace already consumed.
func (sc *scanner) braced() (*substitution, error) {
	name := sc.name()
	if name == "" {
		return nil, errors.New("missing variable name after ${")
	}
	if sc.pos >= len(sc.src) {
		return nil, errors.New("unterminated ${")
	}
	op := ""
	switch ch := sc.src[sc.pos]; ch {
	case '}':
		sc.pos++
		return &substitution{name: name}, nil
	case ':':
		op = ":"
		sc.pos++
		if sc.pos >= len(sc.src) {
			return nil, errors.New("unterminated ${")
		}
	}
	switch ch := sc.src[sc.pos]; ch {
	case '-', '?', '+':
		op += string(ch)
		sc.pos++
	default:
		return nil, errors.New("invalid substitution operation in ${" + name)
	}
	alt, err := sc.segments(true)
	if err != nil {
		return nil, err
	}
	return &substitution{name: name, op: op, alt: alt}, nil
}

// name consumes and returns the variable name at the current position, if
// any.
func (sc *scanner) name() string {
	start := sc.pos
	for sc.pos < len(sc.src) {
		ch := sc.src[sc.pos]
		if !isNameStart(ch) && !(sc.pos > start && ch >= '0' && ch <= '9') {
			break
		}
		sc.pos++
	}
	return sc.src[start:sc.pos]
}

func isNameStart(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}
