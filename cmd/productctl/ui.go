package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"productdesk/internal/controller"
)

// terminalNotifier prints toasts as single lines.
type terminalNotifier struct {
	out io.Writer
}

func (n terminalNotifier) Toast(t controller.Toast) {
	fmt.Fprintf(n.out, "[%s] %s\n", t.Title, t.Message)
}

// terminalConfirmer asks on out and reads the answer from in. Only "y" or "yes" confirm.
type terminalConfirmer struct {
	in  *bufio.Reader
	out io.Writer
}

func (c terminalConfirmer) Confirm(title, message string) bool {
	fmt.Fprintf(c.out, "%s: %s [y/N] ", title, message)
	answer, _ := c.in.ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

// autoConfirmer answers every question with yes. Used by delete --yes.
type autoConfirmer struct{}

func (autoConfirmer) Confirm(string, string) bool { return true }
