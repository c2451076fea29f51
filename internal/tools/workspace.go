package tools

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const (
	// MaxFilesToList caps the entries returned by list_files
	MaxFilesToList = 500
	// DefaultLineCount is how many lines read_file returns when not asked otherwise
	DefaultLineCount = 200
	// MaxLineLength is the longest line read_file accepts
	MaxLineLength = 1024 * 1024
)

// defaultIgnorePatterns are always skipped when listing a workspace
var defaultIgnorePatterns = []string{
	".git", ".svn", ".hg",
	"node_modules", "vendor", ".venv", "venv", "__pycache__",
	"dist", "build", "target", "bin",
	".idea", ".vscode",
	"*.log", "*.tmp", "*.swp",
}

// binaryExtensions mark files list_files leaves out
var binaryExtensions = map[string]bool{
	".exe": true, ".dll": true, ".so": true, ".dylib": true, ".o": true, ".a": true,
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".ico": true, ".webp": true,
	".mp3": true, ".mp4": true, ".mov": true, ".wav": true,
	".zip": true, ".tar": true, ".gz": true, ".7z": true,
	".pdf": true, ".woff": true, ".woff2": true, ".ttf": true,
	".db": true, ".sqlite": true, ".class": true, ".pyc": true, ".wasm": true,
}

// WorkspaceTools returns read-only file tools confined to root, namespaced
// as Workspace__read_file and Workspace__list_files
func WorkspaceTools(root string, maxRetries int) []Tool {
	return Namespace("WorkspaceTool",
		NewReadFileTool(root, maxRetries),
		NewListFilesTool(root, maxRetries),
	)
}

// resolvePath maps a model-supplied path onto root and returns it relative
// to root. It rejects paths whose text leaves root; symlinks are contained
// by opening through an *os.Root.
func resolvePath(root, p string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	full := p
	if !filepath.IsAbs(full) {
		full = filepath.Join(absRoot, p)
	}
	full = filepath.Clean(full)

	rel, err := filepath.Rel(absRoot, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q is outside the workspace", p)
	}
	return rel, nil
}

func openWorkspace(root string) (*os.Root, error) {
	r, err := os.OpenRoot(root)
	if err != nil {
		return nil, fmt.Errorf("failed to open workspace %q: %w", root, err)
	}
	return r, nil
}

// ReadFileTool reads a window of lines from a file in the workspace
type ReadFileTool struct {
	BaseTool
	root string
}

// NewReadFileTool creates a read_file tool rooted at root
func NewReadFileTool(root string, maxRetries int) *ReadFileTool {
	return &ReadFileTool{BaseTool: NewBaseTool(maxRetries), root: root}
}

func (t *ReadFileTool) Name() string {
	return "read_file"
}

func (t *ReadFileTool) Description() string {
	return fmt.Sprintf("Read lines of a text file in the workspace. Returns %d lines from line_number unless line_count says otherwise.", DefaultLineCount)
}

func (t *ReadFileTool) Parameters() map[string]interface{} {
	return MustBuildSchema(
		Property{Name: "file_path", Type: "string", Description: "Path relative to the workspace root", Required: true},
		Property{Name: "line_number", Type: "integer", Description: "First line to read, 1-indexed", Default: 1},
		Property{Name: "line_count", Type: "integer", Description: "Number of lines to read", Default: DefaultLineCount},
	)
}

func (t *ReadFileTool) Execute(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	filePath, _ := args["file_path"].(string)
	rel, err := resolvePath(t.root, filePath)
	if err != nil {
		return nil, err
	}

	lineNumber := intArg(args, "line_number", 1)
	if lineNumber < 1 {
		lineNumber = 1
	}
	lineCount := intArg(args, "line_count", DefaultLineCount)
	if lineCount < 1 {
		lineCount = DefaultLineCount
	}

	return t.RetryableExecute(ctx, func() (interface{}, error) {
		workspace, err := openWorkspace(t.root)
		if err != nil {
			return nil, err
		}
		defer workspace.Close()

		file, err := workspace.Open(rel)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("file %q does not exist", filePath)
			}
			// also covers symlinks resolving outside the workspace
			return nil, fmt.Errorf("cannot open %q inside the workspace: %w", filePath, err)
		}
		defer file.Close()

		scanner := bufio.NewScanner(file)
		scanner.Buffer(make([]byte, 0, 64*1024), MaxLineLength)
		var lines []string
		current := 1
		for scanner.Scan() {
			if current >= lineNumber {
				lines = append(lines, scanner.Text())
				if len(lines) == lineCount {
					break
				}
			}
			current++
		}
		if err := scanner.Err(); err != nil {
			if errors.Is(err, bufio.ErrTooLong) {
				return nil, fmt.Errorf("file %q has a line longer than %d bytes", filePath, MaxLineLength)
			}
			return nil, &ModelRetryError{Message: fmt.Sprintf("Error reading file: %v", err)}
		}

		return map[string]interface{}{
			"content":    lines,
			"start_line": lineNumber,
			"end_line":   lineNumber + len(lines) - 1,
			"lines_read": len(lines),
		}, nil
	})
}

func intArg(args map[string]interface{}, key string, def int) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return def
}

// ListFilesTool lists text files below a workspace directory
type ListFilesTool struct {
	BaseTool
	root string
}

// NewListFilesTool creates a list_files tool rooted at root
func NewListFilesTool(root string, maxRetries int) *ListFilesTool {
	return &ListFilesTool{BaseTool: NewBaseTool(maxRetries), root: root}
}

func (t *ListFilesTool) Name() string {
	return "list_files"
}

func (t *ListFilesTool) Description() string {
	return fmt.Sprintf("List text files below a workspace directory, skipping VCS metadata, dependencies, build output and binaries. Returns up to %d paths.", MaxFilesToList)
}

func (t *ListFilesTool) Parameters() map[string]interface{} {
	return MustBuildSchema(
		Property{Name: "directory", Type: "string", Description: "Directory relative to the workspace root, \".\" for the root", Required: true},
	)
}

func (t *ListFilesTool) Execute(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	directory, _ := args["directory"].(string)
	rel, err := resolvePath(t.root, directory)
	if err != nil {
		return nil, err
	}

	workspace, err := openWorkspace(t.root)
	if err != nil {
		return nil, err
	}
	defer workspace.Close()

	info, err := workspace.Stat(rel)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("directory %q does not exist", directory)
		}
		return nil, fmt.Errorf("cannot open %q inside the workspace: %w", directory, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("path %q is a file, use read_file to read it", directory)
	}

	start := filepath.ToSlash(rel)
	fsys := workspace.FS()

	return t.RetryableExecute(ctx, func() (interface{}, error) {
		files := []string{}
		skipped := 0
		truncated := false

		// WalkDir does not descend into symlinked directories
		err := fs.WalkDir(fsys, start, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if errors.Is(err, fs.ErrPermission) {
					return nil
				}
				return err
			}
			if path == start {
				return nil
			}

			name, relErr := filepath.Rel(filepath.FromSlash(start), filepath.FromSlash(path))
			if relErr != nil {
				name = path
			}

			if shouldIgnore(d.Name()) {
				skipped++
				if d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				return nil
			}
			if binaryExtensions[strings.ToLower(filepath.Ext(path))] {
				skipped++
				return nil
			}

			if len(files) >= MaxFilesToList {
				truncated = true
				return fs.SkipAll
			}
			files = append(files, filepath.ToSlash(name))
			return nil
		})
		if err != nil {
			return nil, &ModelRetryError{Message: fmt.Sprintf("Failed to list files: %v", err)}
		}

		result := map[string]interface{}{
			"files":   files,
			"count":   len(files),
			"skipped": skipped,
		}
		if truncated {
			result["truncated"] = true
		}
		return result, nil
	})
}

func shouldIgnore(name string) bool {
	for _, pattern := range defaultIgnorePatterns {
		if matched, _ := filepath.Match(pattern, name); matched {
			return true
		}
	}
	return false
}
