package main

import (
	"strings"
	"testing"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/chapterly/internal/constants"
)

func TestKeyringHelpNamesSecrets(t *testing.T) {
	parser, err := kong.New(&CLI, kong.Name(constants.AppName), kong.Vars{"version": constants.Version})
	if err != nil {
		t.Fatalf("kong.New() error = %v", err)
	}

	var keyring *kong.Node
	for _, child := range parser.Model.Children {
		if child.Name == "keyring" {
			keyring = child
		}
	}
	if keyring == nil {
		t.Fatal("keyring command not registered")
	}

	want := map[string]bool{"set": true, "get": true, "delete": true}
	for _, cmd := range keyring.Children {
		if !want[cmd.Name] {
			continue
		}
		delete(want, cmd.Name)
		if !strings.Contains(cmd.Help, "db") || !strings.Contains(cmd.Help, "aladin") {
			t.Errorf("keyring %s help = %q, want both secrets named", cmd.Name, cmd.Help)
		}
	}
	if len(want) != 0 {
		t.Errorf("missing keyring commands: %v", want)
	}
}
