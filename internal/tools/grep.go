// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package tools

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/sourcegraph/conc/pool"

	"github.com/petar-djukic/photon/pkg/types"
)

const defaultMaxResults = 200

// Grep searches the tree for a literal or regex pattern, delegating to
// the host's git grep/rg/grep/findstr when available and falling back
// to a built-in parallel scan otherwise.
type Grep struct {
	Root        string
	ExtraIgnore map[string]bool
}

// NewGrep constructs the grep tool rooted at root.
func NewGrep(root string) *Grep {
	return &Grep{Root: root}
}

func (t *Grep) Name() string { return "grep" }

func (t *Grep) Description() string {
	return "Search the project tree for a literal or regex pattern, returning file/line/content triples, so the model can locate a file before a scoped read_code_block."
}

func (t *Grep) ParametersSchema() Schema {
	return Schema{
		"type": "object",
		"properties": Schema{
			"pattern":     Schema{"type": "string"},
			"max_results": Schema{"type": "integer"},
		},
		"required": []string{"pattern"},
	}
}

// Match is one grep hit.
type Match struct {
	File    string `json:"file"`
	Line    int    `json:"line"`
	Content string `json:"content"`
}

type grepArgs struct {
	Pattern    string `json:"pattern"`
	MaxResults int    `json:"max_results"`
}

type grepResult struct {
	Matches []Match `json:"matches"`
	Count   int     `json:"count"`
}

func (t *Grep) Execute(rawArgs string) types.ToolResult {
	var args grepArgs
	if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
		return types.ErrorText("invalid arguments: " + err.Error())
	}
	if args.Pattern == "" {
		return types.ErrorText("pattern is required")
	}
	maxResults := args.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	matches, err := t.search(args.Pattern, maxResults)
	if err != nil {
		return types.ErrorText(err.Error())
	}
	if len(matches) > maxResults {
		matches = matches[:maxResults]
	}

	out, err := json.Marshal(grepResult{Matches: matches, Count: len(matches)})
	if err != nil {
		return types.ErrorText(err.Error())
	}
	return types.ToolResult{
		Content: []types.ContentBlock{{Type: "text", Text: string(out)}},
		Extra:   map[string]any{"matches": matches, "count": len(matches)},
	}
}

// search tries the host's external grep tools in order, falling back to
// the built-in parallel scan if none are present.
func (t *Grep) search(pattern string, maxResults int) ([]Match, error) {
	if _, err := exec.LookPath("git"); err == nil && isGitRepo(t.Root) {
		if m, err := t.runExternal("git", []string{"grep", "-n", "-I", "-e", pattern}, maxResults); err == nil {
			return m, nil
		}
	}
	if _, err := exec.LookPath("rg"); err == nil {
		if m, err := t.runExternal("rg", []string{"-n", "--no-heading", pattern, "."}, maxResults); err == nil {
			return m, nil
		}
	}
	if _, err := exec.LookPath("grep"); err == nil {
		if m, err := t.runExternal("grep", []string{"-rn", "-I", pattern, "."}, maxResults); err == nil {
			return m, nil
		}
	}
	if _, err := exec.LookPath("findstr"); err == nil {
		if m, err := t.runExternal("findstr", []string{"/S", "/N", pattern, "*"}, maxResults); err == nil {
			return m, nil
		}
	}
	return t.builtinScan(pattern, maxResults)
}

func isGitRepo(root string) bool {
	_, err := os.Stat(filepath.Join(root, ".git"))
	return err == nil
}

// runExternal runs an external search tool and parses its "path:line:content" output.
func (t *Grep) runExternal(name string, args []string, maxResults int) ([]Match, error) {
	cmd := exec.Command(name, args...)
	cmd.Dir = t.Root
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &bytes.Buffer{}
	runErr := cmd.Run()
	if runErr != nil {
		// grep/rg/findstr exit 1 on "no matches"; that's still valid output.
		if out.Len() == 0 {
			return nil, runErr
		}
	}

	var matches []Match
	scanner := bufio.NewScanner(&out)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() && len(matches) < maxResults {
		m, ok := parseGrepLine(scanner.Text())
		if ok {
			matches = append(matches, m)
		}
	}
	return matches, nil
}

// parseGrepLine parses a "path:lineno:content" line as emitted by git
// grep/rg/grep -n, dropping a leading "./" from the path.
func parseGrepLine(line string) (Match, bool) {
	first := strings.IndexByte(line, ':')
	if first < 0 {
		return Match{}, false
	}
	second := strings.IndexByte(line[first+1:], ':')
	if second < 0 {
		return Match{}, false
	}
	second += first + 1

	file := line[:first]
	lineNoStr := line[first+1 : second]
	content := line[second+1:]

	lineNo, err := strconv.Atoi(lineNoStr)
	if err != nil {
		return Match{}, false
	}
	return Match{File: strings.TrimPrefix(filepath.ToSlash(file), "./"), Line: lineNo, Content: content}, true
}

// builtinScan performs the built-in parallel text scan, one pooled task
// per file with at most one worker per hardware thread, used when none
// of the host's search tools are available.
func (t *Grep) builtinScan(pattern string, maxResults int) ([]Match, error) {
	re, err := regexp.Compile(pattern)
	literal := false
	if err != nil {
		// Fall back to literal substring search for patterns that aren't
		// valid regexes.
		literal = true
	}

	var files []string
	_ = filepath.Walk(t.Root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			name := info.Name()
			if defaultListIgnore[name] || t.ExtraIgnore[name] {
				return filepath.SkipDir
			}
			return nil
		}
		files = append(files, path)
		return nil
	})
	sort.Strings(files)

	var mu sync.Mutex
	var matches []Match

	p := pool.New().WithMaxGoroutines(maxParallelism())
	for _, f := range files {
		f := f
		p.Go(func() {
			mu.Lock()
			full := len(matches) >= maxResults
			mu.Unlock()
			if full {
				return
			}
			fileMatches := scanFileForPattern(t.Root, f, pattern, re, literal)
			if len(fileMatches) == 0 {
				return
			}
			mu.Lock()
			matches = append(matches, fileMatches...)
			mu.Unlock()
		})
	}
	p.Wait()

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].File != matches[j].File {
			return matches[i].File < matches[j].File
		}
		return matches[i].Line < matches[j].Line
	})
	return matches, nil
}

func scanFileForPattern(root, absPath, pattern string, re *regexp.Regexp, literal bool) []Match {
	f, err := os.Open(absPath)
	if err != nil {
		return nil
	}
	defer f.Close()

	rel, err := filepath.Rel(root, absPath)
	if err != nil {
		rel = absPath
	}
	rel = filepath.ToSlash(rel)

	var out []Match
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		hit := false
		if literal {
			hit = strings.Contains(line, pattern)
		} else {
			hit = re.MatchString(line)
		}
		if hit {
			out = append(out, Match{File: rel, Line: lineNo, Content: line})
		}
	}
	return out
}

// maxParallelism returns the worker pool size for the built-in scan
// fallback: one task per hardware thread, default 2.
func maxParallelism() int {
	if n := runtime.GOMAXPROCS(0); n > 0 {
		return n
	}
	return 2
}
