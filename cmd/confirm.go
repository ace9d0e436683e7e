package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

type (
	confirmAction interface {
		action() string
	}
	command string
)

func (a command) action() string {
	return strings.Join([]string{string(a), "command"}, " ")
}

// stdin is replaced in tests.
var stdin io.Reader = os.Stdin

func confirm(c confirmAction, force ...bool) bool {
	if len(force) != 0 && force[0] {
		return true
	}
	fmt.Fprintf(stdout, "Are you sure you want to proceed with the %s? (yes/no): ", c.action())
	line, _ := bufio.NewReader(stdin).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "yes", "y", "true", "1":
		return true
	default:
		fmt.Fprintf(stdout, "Cancelled %s operation!\n", c.action())
		return false
	}
}
