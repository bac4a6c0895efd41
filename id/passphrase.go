package id

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"golang.org/x/term"
)

// PassphraseCommandEnv is the environment variable consumed by the core
// (spec.md §6): when set, it names a command whose stdout is the
// passphrase, used instead of an interactive prompt.
const PassphraseCommandEnv = "CREV_PASSPHRASE_COMMAND"

// ReadPassphrase obtains a passphrase either by running the command named
// in CREV_PASSPHRASE_COMMAND, or by prompting interactively on a terminal.
// prompt is the message shown for the interactive case; in is used when the
// terminal is not a TTY (tests, pipes).
func ReadPassphrase(prompt string, in io.Reader) (string, error) {
	if cmdline := os.Getenv(PassphraseCommandEnv); cmdline != "" {
		return runPassphraseCommand(cmdline)
	}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(os.Stderr, prompt)
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("id: reading passphrase: %w", err)
		}
		return string(b), nil
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("id: reading passphrase: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func runPassphraseCommand(cmdline string) (string, error) {
	cmd := exec.Command("sh", "-c", cmdline)
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("id: running %s=%q: %w", PassphraseCommandEnv, cmdline, err)
	}
	return strings.TrimRight(string(out), "\r\n"), nil
}
