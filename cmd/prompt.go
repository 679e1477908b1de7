package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/Wilson-Creek-Communications/sonar-utilities/internal/sonar"
)

// passwordReader reads a password without echoing it.
type passwordReader func() ([]byte, error)

// terminalPassword reads from the terminal attached to f, or returns nil
// when f is not a terminal (piped input).
func terminalPassword(f *os.File) passwordReader {
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return nil
	}
	return func() ([]byte, error) {
		return term.ReadPassword(fd)
	}
}

// promptCredentials asks for whichever of username and password is empty.
// The password is read through readPassword when available, otherwise as a
// plain line from in.
func promptCredentials(in io.Reader, out io.Writer, readPassword passwordReader, username, password string) (sonar.Credentials, error) {
	reader := bufio.NewReader(in)

	if username == "" {
		fmt.Fprint(out, "Username: ")
		line, err := reader.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			return sonar.Credentials{}, fmt.Errorf("read username: %w", err)
		}
		username = strings.TrimSpace(line)
	}
	if username == "" {
		return sonar.Credentials{}, errors.New("username is required")
	}

	if password == "" {
		fmt.Fprint(out, "Password: ")
		if readPassword != nil {
			b, err := readPassword()
			fmt.Fprintln(out)
			if err != nil {
				return sonar.Credentials{}, fmt.Errorf("read password: %w", err)
			}
			password = string(b)
		} else {
			line, err := reader.ReadString('\n')
			if err != nil && !(errors.Is(err, io.EOF) && line != "") {
				return sonar.Credentials{}, fmt.Errorf("read password: %w", err)
			}
			password = strings.TrimRight(line, "\r\n")
		}
	}

	return sonar.Credentials{Username: username, Password: password}, nil
}
