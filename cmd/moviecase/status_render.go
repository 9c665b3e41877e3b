package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/mattn/go-isatty"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusFail
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

type statusStyle struct {
	label string
	color string
}

var statusStyles = map[statusKind]statusStyle{
	statusInfo: {label: "INFO", color: ansiBlue},
	statusOK:   {label: "OK", color: ansiGreen},
	statusWarn: {label: "WARN", color: ansiYellow},
	statusFail: {label: "FAIL", color: ansiRed},
}

// Check names are short ("TMDB key", "Library database"); the column fits the
// longest of them.
const (
	checkLabelWidth = 18
	checkIndent     = "  "
)

// renderStatusLine formats one check as "  Label:  [KIND] message".
func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	style, ok := statusStyles[kind]
	if !ok {
		style = statusStyles[statusInfo]
	}
	badge := "[" + style.label + "]"
	if message != "" {
		badge += " " + message
	}
	line := fmt.Sprintf("%s%-*s %s", checkIndent, checkLabelWidth, label+":", badge)
	if colorize {
		return style.color + line + ansiReset
	}
	return line
}

func checkKind(passed bool) statusKind {
	if passed {
		return statusOK
	}
	return statusFail
}

// keyStatusKind maps config.APIKeyStatus results onto status kinds. A missing
// key is a warning because the features that need it fail at call time.
func keyStatusKind(status string) statusKind {
	switch status {
	case "ok":
		return statusOK
	case "missing", "suspect":
		return statusWarn
	default:
		return statusInfo
	}
}

// renderSectionHeader returns the title underlined to its own width.
func renderSectionHeader(title string, colorize bool) []string {
	title = strings.TrimSpace(title)
	rule := strings.Repeat("=", utf8.RuneCountInString(title))
	if colorize {
		return []string{ansiBlue + title + ansiReset, ansiBlue + rule + ansiReset}
	}
	return []string{title, rule}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
