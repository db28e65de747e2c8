package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"mpd2mp4/internal/convert"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusSuccess
	statusWarn
	statusError
	statusTip
)

var statusStyles = map[statusKind]lipgloss.Style{
	statusInfo:    lipgloss.NewStyle().Foreground(lipgloss.Color("4")),
	statusSuccess: lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true),
	statusWarn:    lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
	statusError:   lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
	statusTip:     lipgloss.NewStyle().Faint(true),
}

func statusKindLabel(kind statusKind) string {
	switch kind {
	case statusSuccess:
		return "Success"
	case statusWarn:
		return "Warning"
	case statusError:
		return "Error"
	case statusTip:
		return "Tip"
	default:
		return "Info"
	}
}

// renderStatusLine formats "[Label] message", coloring the tag when asked.
func renderStatusLine(kind statusKind, message string, colorize bool) string {
	tag := "[" + statusKindLabel(kind) + "]"
	if colorize {
		tag = statusStyles[kind].Render(tag)
	}
	if message = strings.TrimSpace(message); message == "" {
		return tag
	}
	return tag + " " + message
}

func renderBanner(title string, colorize bool) string {
	line := fmt.Sprintf("=== %s ===", strings.TrimSpace(title))
	if colorize {
		return lipgloss.NewStyle().Bold(true).Render(line)
	}
	return line
}

type statusPrinter struct {
	w        io.Writer
	colorize bool
}

func newStatusPrinter(w io.Writer) *statusPrinter {
	return &statusPrinter{w: w, colorize: shouldColorize(w)}
}

func (p *statusPrinter) print(kind statusKind, message string) {
	fmt.Fprintln(p.w, renderStatusLine(kind, message, p.colorize))
}

func (p *statusPrinter) printf(kind statusKind, format string, args ...any) {
	p.print(kind, fmt.Sprintf(format, args...))
}

// convertStatus adapts the printer to the converter's status callback.
func (p *statusPrinter) convertStatus(level convert.StatusLevel, message string) {
	if level == convert.StatusWarning {
		p.print(statusWarn, message)
		return
	}
	p.print(statusInfo, message)
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
