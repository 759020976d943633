// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package log

import (
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// colorProfile defines escape sequences which provide color in
// terminals. Some terminals support 8 colors, some 256, others
// none at all.
type colorProfile struct {
	infoPrefix  []byte
	warnPrefix  []byte
	errorPrefix []byte
	timePrefix  []byte
}

func (c *colorProfile) prefix(s Severity) []byte {
	switch s {
	case SeverityInfo:
		return c.infoPrefix
	case SeverityWarning:
		return c.warnPrefix
	default:
		return c.errorPrefix
	}
}

var colorReset = []byte("\033[0m")

// For terms with 8-color support.
var colorProfile8 = &colorProfile{
	infoPrefix:  []byte("\033[0;36;49m"),
	warnPrefix:  []byte("\033[0;33;49m"),
	errorPrefix: []byte("\033[0;31;49m"),
	timePrefix:  []byte("\033[2;37;49m"),
}

// For terms with 256-color support.
var colorProfile256 = &colorProfile{
	infoPrefix:  []byte("\033[38;5;33m"),
	warnPrefix:  []byte("\033[38;5;214m"),
	errorPrefix: []byte("\033[38;5;160m"),
	timePrefix:  []byte("\033[38;5;246m"),
}

// stderrColorProfile determines whether stderr is a terminal and if so,
// which color profile the terminal supports.
func stderrColorProfile() *colorProfile {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return nil
	}
	if !isatty.IsTerminal(os.Stderr.Fd()) {
		return nil
	}
	term := os.Getenv("TERM")
	switch term {
	case "ansi", "tmux":
		return colorProfile8
	case "st":
		return colorProfile256
	default:
		if strings.HasSuffix(term, "256color") {
			return colorProfile256
		}
		if strings.HasSuffix(term, "color") || strings.HasPrefix(term, "screen") {
			return colorProfile8
		}
	}
	return nil
}
