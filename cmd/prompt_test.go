package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestPromptCredentialsBothFromInput(t *testing.T) {
	var out bytes.Buffer
	creds, err := promptCredentials(strings.NewReader("ops\n s3cret \n"), &out, nil, "", "")
	if err != nil {
		t.Fatalf("promptCredentials: %v", err)
	}
	if creds.Username != "ops" || creds.Password != " s3cret " {
		t.Fatalf("creds = %+v", creds)
	}
	if got := out.String(); got != "Username: Password: " {
		t.Fatalf("prompts = %q", got)
	}
}

func TestPromptCredentialsUsesPasswordReader(t *testing.T) {
	var out bytes.Buffer
	read := func() ([]byte, error) { return []byte("hidden"), nil }

	creds, err := promptCredentials(strings.NewReader(""), &out, read, "ops", "")
	if err != nil {
		t.Fatalf("promptCredentials: %v", err)
	}
	if creds.Password != "hidden" {
		t.Fatalf("Password = %q, want hidden", creds.Password)
	}
	if strings.Contains(out.String(), "Username") {
		t.Fatalf("prompted for a username that was already set: %q", out.String())
	}
}

func TestPromptCredentialsSkipsWhenConfigured(t *testing.T) {
	var out bytes.Buffer
	creds, err := promptCredentials(strings.NewReader(""), &out, nil, "ops", "pw")
	if err != nil {
		t.Fatalf("promptCredentials: %v", err)
	}
	if creds.Username != "ops" || creds.Password != "pw" || out.Len() != 0 {
		t.Fatalf("creds = %+v, prompts = %q", creds, out.String())
	}
}

func TestPromptCredentialsErrors(t *testing.T) {
	if _, err := promptCredentials(strings.NewReader("\n"), &bytes.Buffer{}, nil, "", ""); err == nil {
		t.Fatalf("empty username accepted")
	}
	boom := errors.New("tty gone")
	read := func() ([]byte, error) { return nil, boom }
	if _, err := promptCredentials(strings.NewReader(""), &bytes.Buffer{}, read, "ops", ""); !errors.Is(err, boom) {
		t.Fatalf("password error = %v, want %v", err, boom)
	}
}
