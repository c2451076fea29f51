package tools

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeWorkspace(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("Failed to create dir: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
	}
	return root
}

func TestReadFileTool_Execute(t *testing.T) {
	root := writeWorkspace(t, map[string]string{"notes.txt": "line 1\nline 2\nline 3\nline 4\nline 5\n"})
	tool := NewReadFileTool(root, 1)

	result, err := tool.Execute(context.Background(), map[string]interface{}{
		"file_path":   "notes.txt",
		"line_number": float64(2),
		"line_count":  float64(2),
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	m := result.(map[string]interface{})
	lines := m["content"].([]string)
	if len(lines) != 2 || lines[0] != "line 2" || lines[1] != "line 3" {
		t.Errorf("Expected lines 2-3, got %v", lines)
	}
	if m["start_line"] != 2 || m["end_line"] != 3 {
		t.Errorf("Unexpected range %v-%v", m["start_line"], m["end_line"])
	}
}

func TestReadFileTool_Defaults(t *testing.T) {
	root := writeWorkspace(t, map[string]string{"a.txt": "only\n"})
	tool := NewReadFileTool(root, 1)

	result, err := tool.Execute(context.Background(), map[string]interface{}{"file_path": "a.txt"})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if got := result.(map[string]interface{})["lines_read"]; got != 1 {
		t.Errorf("Expected 1 line read, got %v", got)
	}
}

func TestReadFileTool_Errors(t *testing.T) {
	root := writeWorkspace(t, map[string]string{"a.txt": "x"})
	tool := NewReadFileTool(root, 2)

	if _, err := tool.Execute(context.Background(), map[string]interface{}{"file_path": "missing.txt"}); err == nil || !strings.Contains(err.Error(), "does not exist") {
		t.Errorf("Expected missing file error, got %v", err)
	}
	if _, err := tool.Execute(context.Background(), map[string]interface{}{"file_path": "../outside.txt"}); err == nil || !strings.Contains(err.Error(), "outside the workspace") {
		t.Errorf("Expected escape to be rejected, got %v", err)
	}
	if _, err := tool.Execute(context.Background(), map[string]interface{}{"file_path": "/etc/passwd"}); err == nil {
		t.Error("Expected absolute path outside root to be rejected")
	}
}

func TestListFilesTool_Execute(t *testing.T) {
	root := writeWorkspace(t, map[string]string{
		"main.go":                 "package main",
		"docs/guide.md":           "# Guide",
		"node_modules/x/index.js": "ignored",
		".git/HEAD":               "ref",
		"logo.png":                "binary",
		"debug.log":               "noise",
	})
	tool := NewListFilesTool(root, 1)

	result, err := tool.Execute(context.Background(), map[string]interface{}{"directory": "."})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	m := result.(map[string]interface{})
	files := m["files"].([]string)
	joined := strings.Join(files, ",")
	if len(files) != 2 || !strings.Contains(joined, "main.go") || !strings.Contains(joined, "docs/guide.md") {
		t.Errorf("Expected main.go and docs/guide.md, got %v", files)
	}
	if m["skipped"].(int) < 4 {
		t.Errorf("Expected ignored entries to be counted, got %v", m["skipped"])
	}
}

func TestListFilesTool_Errors(t *testing.T) {
	root := writeWorkspace(t, map[string]string{"a.txt": "x"})
	tool := NewListFilesTool(root, 1)

	for _, dir := range []string{"nope", "a.txt", "../.."} {
		if _, err := tool.Execute(context.Background(), map[string]interface{}{"directory": dir}); err == nil {
			t.Errorf("Expected error for %q", dir)
		}
	}
}

func TestWorkspaceTools_ThroughRegistry(t *testing.T) {
	root := writeWorkspace(t, map[string]string{"hello.txt": "hi there\n"})
	r := mustRegistry(t, WorkspaceTools(root, 1)...)

	names := r.Names()
	if len(names) != 2 || names[0] != "Workspace__read_file" || names[1] != "Workspace__list_files" {
		t.Fatalf("Unexpected names %v", names)
	}

	res := r.Execute(context.Background(), call("c1", "Workspace__read_file", `{"file_path":"hello.txt"}`))
	if res.Failed {
		t.Fatalf("Expected success, got %v", res.Err)
	}
	var out map[string]interface{}
	if err := json.Unmarshal([]byte(res.Output), &out); err != nil {
		t.Fatalf("Expected JSON output, got %q", res.Output)
	}
	if out["content"].([]interface{})[0] != "hi there" {
		t.Errorf("Unexpected content %v", out["content"])
	}

	res = r.Execute(context.Background(), call("c2", "Workspace__read_file", `{"file_path":"hello.txt","line_count":"all"}`))
	if !res.Failed || !strings.HasPrefix(res.Output, "Error executing tool: Invalid parameters") {
		t.Errorf("Expected schema validation failure, got %+v", res)
	}
}

func symlinkOrSkip(t *testing.T, target, link string) {
	t.Helper()
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("Symlinks not supported: %v", err)
	}
}

func TestReadFileTool_SymlinkOutsideWorkspace(t *testing.T) {
	outside := writeWorkspace(t, map[string]string{"secret.txt": "TOP-SECRET\n"})
	root := writeWorkspace(t, map[string]string{"a.txt": "x"})
	symlinkOrSkip(t, outside, filepath.Join(root, "link"))
	symlinkOrSkip(t, filepath.Join(outside, "secret.txt"), filepath.Join(root, "secret.txt"))
	tool := NewReadFileTool(root, 3)

	for _, p := range []string{"link/secret.txt", "secret.txt"} {
		result, err := tool.Execute(context.Background(), map[string]interface{}{"file_path": p})
		if err == nil {
			t.Errorf("Expected %q to be rejected, got %v", p, result)
			continue
		}
		if strings.Contains(err.Error(), "attempts") {
			t.Errorf("Expected no retries for %q, got %v", p, err)
		}
	}
}

func TestReadFileTool_SymlinkInsideWorkspace(t *testing.T) {
	root := writeWorkspace(t, map[string]string{"docs/real.txt": "inside\n"})
	symlinkOrSkip(t, filepath.Join("docs", "real.txt"), filepath.Join(root, "alias.txt"))
	tool := NewReadFileTool(root, 1)

	result, err := tool.Execute(context.Background(), map[string]interface{}{"file_path": "alias.txt"})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if lines := result.(map[string]interface{})["content"].([]string); len(lines) != 1 || lines[0] != "inside" {
		t.Errorf("Expected content of the link target, got %v", lines)
	}
}

func TestListFilesTool_SymlinkOutsideWorkspace(t *testing.T) {
	outside := writeWorkspace(t, map[string]string{"secret.txt": "TOP-SECRET\n"})
	root := writeWorkspace(t, map[string]string{"main.go": "package main"})
	symlinkOrSkip(t, outside, filepath.Join(root, "link"))
	tool := NewListFilesTool(root, 1)

	if _, err := tool.Execute(context.Background(), map[string]interface{}{"directory": "link"}); err == nil {
		t.Error("Expected symlinked directory outside the workspace to be rejected")
	}

	result, err := tool.Execute(context.Background(), map[string]interface{}{"directory": "."})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	for _, f := range result.(map[string]interface{})["files"].([]string) {
		if strings.Contains(f, "secret.txt") {
			t.Errorf("Expected files behind the link to stay hidden, got %v", f)
		}
	}
}

func TestReadFileTool_LongLines(t *testing.T) {
	long := strings.Repeat("a", 100*1024)
	root := writeWorkspace(t, map[string]string{
		"long.txt": long + "\nsecond\n",
		"huge.txt": strings.Repeat("b", MaxLineLength+1) + "\n",
	})
	tool := NewReadFileTool(root, 3)

	result, err := tool.Execute(context.Background(), map[string]interface{}{"file_path": "long.txt"})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if lines := result.(map[string]interface{})["content"].([]string); len(lines) != 2 || len(lines[0]) != len(long) {
		t.Errorf("Expected the long line to be read whole, got %d lines", len(lines))
	}

	_, err = tool.Execute(context.Background(), map[string]interface{}{"file_path": "huge.txt"})
	if err == nil || !strings.Contains(err.Error(), "longer than") {
		t.Fatalf("Expected line length error, got %v", err)
	}
	if strings.Contains(err.Error(), "attempts") {
		t.Errorf("Expected no retries, got %v", err)
	}
}
