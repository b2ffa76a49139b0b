package e2e

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const (
	TEST_SERVER_TIMEOUT = 15 * time.Second
)

type env struct {
	cli  string
	vars []string
	dir  string
}

func setupEnv(t *testing.T) env {
	t.Helper()
	// Allow overriding bin dir via env var, default to ../../bin (relative to tests/e2e)
	binDir := os.Getenv("CHAPTERLY_BIN_DIR")
	if binDir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			t.Fatalf("Failed to get cwd: %v", err)
		}
		binDir = filepath.Join(cwd, "..", "..", "bin")
	}
	binDir, _ = filepath.Abs(binDir)

	cliPath := filepath.Join(binDir, "chapterly")
	if _, err := os.Stat(cliPath); os.IsNotExist(err) {
		t.Skipf("CLI binary not found at %s. Build it with 'go build -o bin/chapterly ./cmd/chapterly'.", cliPath)
	}

	tempDir := t.TempDir()
	t.Logf("Running test in temp dir: %s", tempDir)

	var vars []string
	for _, e := range os.Environ() {
		if strings.HasPrefix(e, "HOME=") || strings.HasPrefix(e, "CHAPTERLY_") {
			continue
		}
		vars = append(vars, e)
	}
	vars = append(vars,
		fmt.Sprintf("HOME=%s", tempDir),
		fmt.Sprintf("CHAPTERLY_DB=%s", filepath.Join(tempDir, "chapterly", "chapterly.db")),
		fmt.Sprintf("CHAPTERLY_LOCAL=%s", filepath.Join(tempDir, "chapterly", "local.json")),
	)
	return env{cli: cliPath, vars: vars, dir: tempDir}
}

func TestPersonalWorkflow(t *testing.T) {
	e := setupEnv(t)

	runCmd(t, e, "init")
	runCmd(t, e, "book", "add", "Dune", "--pages", "600", "--chapters", "Book One\nBook Two\nBook Three")
	runCmd(t, e, "chapter", "done", "Dune", "1")
	out := runCmd(t, e, "plan", "set", "Dune", "--daily-chapters", "1", "--from-here")
	if !strings.Contains(out, "1 chapter(s) a day") {
		t.Errorf("plan output missing quota: %s", out)
	}
	runCmd(t, e, "note", "write", "Dune", "2", "--content", "The spice must flow")

	out = runCmd(t, e, "book", "show", "Dune")
	if !strings.Contains(out, "67%") {
		t.Errorf("expected 2 of 3 chapters read: %s", out)
	}
	out = runCmd(t, e, "note", "history", "--search", "spice")
	if !strings.Contains(out, "Dune") {
		t.Errorf("note history missing the note: %s", out)
	}
	runCmd(t, e, "stats")
	runCmd(t, e, "validate")

	out = runCmd(t, e, "backup", "create")
	if !strings.Contains(out, "Backup created") {
		t.Errorf("unexpected backup output: %s", out)
	}
}

func TestSharedWorkflow(t *testing.T) {
	e := setupEnv(t)
	runCmd(t, e, "init")

	out := runCmd(t, e, "--user", "alice", "shared", "create", "SICP", "--chapters", "Procedures\nData\nState")
	bookID := field(t, out, "ID:")
	code := field(t, out, "Invite code:")

	runCmd(t, e, "--user", "bob", "shared", "join", code)
	runCmd(t, e, "--user", "bob", "shared", "done", bookID, "1", "2")

	out = runCmd(t, e, "--user", "alice", "shared", "progress", bookID)
	if !strings.Contains(out, "67%") {
		t.Errorf("bob's progress missing: %s", out)
	}

	cmd := exec.Command(e.cli, "--user", "mallory", "shared", "done", bookID, "1")
	cmd.Env = e.vars
	if out, err := cmd.CombinedOutput(); err == nil {
		t.Errorf("non-member was allowed to mark progress: %s", out)
	}
}

func TestServeWorkflow(t *testing.T) {
	e := setupEnv(t)
	runCmd(t, e, "init")

	addr := freeAddr(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	serveCmd := exec.CommandContext(ctx, e.cli, "serve", "--addr", addr)
	serveCmd.Env = e.vars
	serveCmd.Dir = e.dir
	var stderrBuf bytes.Buffer
	serveCmd.Stdout = &stderrBuf
	serveCmd.Stderr = &stderrBuf
	if err := serveCmd.Start(); err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}
	defer func() {
		cancel()
		if err := serveCmd.Wait(); err != nil {
			t.Logf("Server exited with error: %v", err)
		}
		if t.Failed() {
			t.Logf("Server output: %s", stderrBuf.String())
		}
	}()

	base := "http://" + addr
	waitForHealthy(t, base+"/healthz", TEST_SERVER_TIMEOUT)

	body := `{"title":"Refactoring","chapters":"Principles\nSmells"}`
	req, _ := http.NewRequest(http.MethodPost, base+"/api/shared-books", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "alice")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("create shared book: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create shared book status = %d", resp.StatusCode)
	}
	var book struct {
		ID         string `json:"id"`
		InviteCode string `json:"invite_code"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&book); err != nil {
		t.Fatalf("decode: %v", err)
	}

	// the CLI sees what the API wrote
	out := runCmd(t, e, "--user", "alice", "shared", "list")
	if !strings.Contains(out, "Refactoring") {
		t.Errorf("shared list missing the API-created book: %s", out)
	}
}

func runCmd(t *testing.T, e env, args ...string) string {
	t.Helper()
	cmd := exec.Command(e.cli, args...)
	cmd.Env = e.vars
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("Command %s %v failed: %v\nOutput: %s", e.cli, args, err, out)
	}
	return string(out)
}

// field returns the value printed after label on its own line.
func field(t *testing.T, out, label string) string {
	t.Helper()
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if v, ok := strings.CutPrefix(line, label); ok {
			return strings.TrimSpace(v)
		}
	}
	t.Fatalf("%q not found in output: %s", label, out)
	return ""
}

func freeAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to reserve a port: %v", err)
	}
	defer l.Close()
	return l.Addr().String()
}

func waitForHealthy(t *testing.T, url string, timeout time.Duration) {
	t.Helper()
	start := time.Now()
	for {
		resp, err := http.Get(url)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		if time.Since(start) > timeout {
			t.Fatalf("Timed out waiting for %s", url)
		}
		time.Sleep(100 * time.Millisecond)
	}
}
