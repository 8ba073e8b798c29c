// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package lsp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/petar-djukic/photon/pkg/types"
)

// ServerConfig names the command that launches a language server for a
// set of file extensions, e.g. {Command: "gopls", Args: ["serve"]} for
// ".go".
type ServerConfig struct {
	Command string
	Args    []string
}

const initTimeout = 10 * time.Second
const callTimeout = 10 * time.Second

// FallbackExt is the servers-map key for the designated fallback
// server, consulted for any extension without its own entry.
const FallbackExt = "*"

// Bridge manages one JSON-RPC connection per configured language
// server, launching it lazily on first use and keeping it alive for
// the lifetime of the process. It implements internal/index.LSPSource;
// every method swallows errors and returns the zero value rather than
// surfacing a failure to the Symbol Index.
type Bridge struct {
	root    string
	servers map[string]ServerConfig // keyed by file extension, e.g. ".go"

	mu    sync.Mutex
	conns map[string]*serverConn // keyed by extension
}

// NewBridge constructs a Bridge rooted at root, launching servers
// configured in servers on demand.
func NewBridge(root string, servers map[string]ServerConfig) *Bridge {
	return &Bridge{root: root, servers: servers, conns: make(map[string]*serverConn)}
}

// DocumentSymbols returns the symbols the language server configured for
// path's extension reports, or nil if no server is configured or the
// call fails.
func (b *Bridge) DocumentSymbols(path string) []types.Symbol {
	var raw json.RawMessage
	err := b.request(path, "textDocument/documentSymbol", documentSymbolParams{
		TextDocument: textDocumentIdentifier{URI: fileURI(b.root, path)},
	}, &raw)
	if err != nil {
		return nil
	}
	return parseDocumentSymbols(raw, path)
}

// Definition resolves the symbol at (path, line, column) — 1-based, as
// the rest of the index represents positions — to a candidate identity
// string "path:line:name", or "" if unresolved.
func (b *Bridge) Definition(path string, line, column int) string {
	var raw json.RawMessage
	err := b.request(path, "textDocument/definition", definitionParams{
		TextDocument: textDocumentIdentifier{URI: fileURI(b.root, path)},
		Position:     position{Line: line - 1, Character: column - 1},
	}, &raw)
	if err != nil {
		return ""
	}
	return parseDefinition(raw)
}

// Reference is one find-references hit, with 1-based line and column.
type Reference struct {
	Path   string
	Line   int
	Column int
}

// FindReferences returns every location the server reports referencing
// the symbol at (path, line, column), 1-based. Empty on any failure.
func (b *Bridge) FindReferences(path string, line, column int) []Reference {
	params := map[string]any{
		"textDocument": textDocumentIdentifier{URI: fileURI(b.root, path)},
		"position":     position{Line: line - 1, Character: column - 1},
		"context":      map[string]any{"includeDeclaration": false},
	}
	var raw json.RawMessage
	if err := b.request(path, "textDocument/references", params, &raw); err != nil {
		return nil
	}

	var locs []location
	if err := json.Unmarshal(raw, &locs); err != nil {
		return nil
	}
	out := make([]Reference, 0, len(locs))
	for _, l := range locs {
		p := pathFromURI(l.URI)
		if p == "" {
			continue
		}
		out = append(out, Reference{Path: p, Line: l.Range.Start.Line + 1, Column: l.Range.Start.Character + 1})
	}
	return out
}

// request performs one per-document query against the server for path's
// extension: it ensures the document is opened first, blocks up to
// callTimeout, and on timeout discards the stale server, relaunches it,
// and retries once.
func (b *Bridge) request(path, method string, params any, result *json.RawMessage) error {
	conn, ext, ok := b.connFor(path)
	if !ok {
		return fmt.Errorf("no server configured for %s", path)
	}

	do := func(c *serverConn) error {
		if err := c.ensureOpen(b.root, path, fileURI(b.root, path)); err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
		defer cancel()
		return c.call(ctx, method, params, result)
	}

	err := do(conn)
	if err == nil {
		return nil
	}

	// Stale server: drop the connection and retry once against a fresh
	// launch. Any further failure is the caller's empty result.
	b.dropConn(ext, conn)
	conn, _, ok = b.connFor(path)
	if !ok {
		return err
	}
	return do(conn)
}

// dropConn closes and forgets the connection registered under ext, if
// it is still the one the caller observed failing.
func (b *Bridge) dropConn(ext string, stale *serverConn) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.conns[ext] == stale {
		delete(b.conns, ext)
	}
	_ = stale.close()
}

// Shutdown closes every launched server connection.
func (b *Bridge) Shutdown() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, c := range b.conns {
		_ = c.close()
	}
}

// connFor returns (launching if necessary) the server connection for
// path's extension, falling back to the designated FallbackExt server
// when the extension has no entry of its own.
func (b *Bridge) connFor(path string) (*serverConn, string, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	cfg, ok := b.servers[ext]
	if !ok {
		ext = FallbackExt
		cfg, ok = b.servers[ext]
		if !ok {
			return nil, "", false
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if conn, ok := b.conns[ext]; ok {
		return conn, ext, true
	}

	conn, err := newServerConn(b.root, cfg)
	if err != nil {
		return nil, "", false
	}
	b.conns[ext] = conn
	return conn, ext, true
}

// serverConn is one running language server subprocess: a single reader
// goroutine demultiplexes framed JSON-RPC responses to the caller
// awaiting each request ID, grounded on the MCP stdio caller's
// pending-map design.
type serverConn struct {
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	writeMu sync.Mutex

	pendingMu sync.Mutex
	pending   map[uint64]chan rpcResponse
	nextID    uint64

	openMu sync.Mutex
	opened map[string]bool

	closed    chan struct{}
	closeOnce sync.Once
}

// ensureOpen sends textDocument/didOpen for path before its first
// per-document query on this connection; subsequent queries for the
// same document skip it.
func (c *serverConn) ensureOpen(root, path, uri string) error {
	c.openMu.Lock()
	defer c.openMu.Unlock()
	if c.opened[path] {
		return nil
	}

	content, err := os.ReadFile(filepath.Join(root, path))
	if err != nil {
		return err
	}
	err = c.notify("textDocument/didOpen", map[string]any{
		"textDocument": map[string]any{
			"uri":        uri,
			"languageId": languageIDFor(path),
			"version":    1,
			"text":       string(content),
		},
	})
	if err != nil {
		return err
	}
	c.opened[path] = true
	return nil
}

// languageIDFor maps a file extension to the LSP languageId servers
// expect on didOpen.
func languageIDFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".go":
		return "go"
	case ".py":
		return "python"
	case ".ts", ".tsx":
		return "typescript"
	case ".js", ".jsx":
		return "javascript"
	case ".cpp", ".cc", ".h", ".hpp":
		return "cpp"
	case ".rs":
		return "rust"
	default:
		return "plaintext"
	}
}

func newServerConn(root string, cfg ServerConfig) (*serverConn, error) {
	ctx := context.Background()
	cmd := exec.CommandContext(ctx, cfg.Command, cfg.Args...)
	cmd.Dir = root

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	stderr, _ := cmd.StderrPipe()

	if err := cmd.Start(); err != nil {
		return nil, err
	}

	conn := &serverConn{
		cmd:     cmd,
		stdin:   stdin,
		pending: make(map[uint64]chan rpcResponse),
		opened:  make(map[string]bool),
		closed:  make(chan struct{}),
	}
	go conn.readLoop(stdout)
	if stderr != nil {
		go io.Copy(io.Discard, stderr)
	}

	initCtx, cancel := context.WithTimeout(ctx, initTimeout)
	defer cancel()
	if err := conn.initialize(initCtx, root); err != nil {
		_ = conn.close()
		return nil, err
	}
	return conn, nil
}

func (c *serverConn) initialize(ctx context.Context, root string) error {
	params := map[string]any{
		"processId": os.Getpid(),
		"rootUri":   fileURI(root, "."),
		"capabilities": map[string]any{
			"textDocument": map[string]any{
				"documentSymbol": map[string]any{"hierarchicalDocumentSymbolSupport": true},
				"definition":     map[string]any{},
				"references":     map[string]any{},
			},
		},
	}
	var raw json.RawMessage
	if err := c.call(ctx, "initialize", params, &raw); err != nil {
		return err
	}
	return c.notify("initialized", map[string]any{})
}

func (c *serverConn) close() error {
	c.closeOnce.Do(func() {
		_ = c.notify("exit", nil)
		if c.stdin != nil {
			_ = c.stdin.Close()
		}
		if c.cmd != nil && c.cmd.Process != nil {
			_ = c.cmd.Process.Kill()
		}
		if c.cmd != nil {
			_ = c.cmd.Wait()
		}
		close(c.closed)
	})
	return nil
}

func (c *serverConn) call(ctx context.Context, method string, params, result any) error {
	id := c.next()
	ch := make(chan rpcResponse, 1)
	c.pendingMu.Lock()
	c.pending[id] = ch
	c.pendingMu.Unlock()

	req := rpcRequest{JSONRPC: "2.0", ID: id, Method: method, Params: params}
	data, err := json.Marshal(req)
	if err != nil {
		c.removePending(id)
		return err
	}
	c.writeMu.Lock()
	werr := writeFrame(c.stdin, data)
	c.writeMu.Unlock()
	if werr != nil {
		c.removePending(id)
		return werr
	}

	select {
	case resp := <-ch:
		if resp.Error != nil {
			return resp.Error
		}
		if result != nil && resp.Result != nil {
			return json.Unmarshal(resp.Result, result)
		}
		return nil
	case <-ctx.Done():
		c.removePending(id)
		return ctx.Err()
	case <-c.closed:
		return fmt.Errorf("lsp server closed")
	}
}

func (c *serverConn) notify(method string, params any) error {
	data, err := json.Marshal(rpcNotification{JSONRPC: "2.0", Method: method, Params: params})
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return writeFrame(c.stdin, data)
}

func (c *serverConn) readLoop(stdout io.Reader) {
	reader := bufio.NewReader(stdout)
	for {
		frame, err := readFrame(reader)
		if err != nil {
			c.failPending()
			return
		}
		var resp rpcResponse
		if err := json.Unmarshal(frame, &resp); err != nil {
			continue
		}
		if resp.ID == 0 {
			continue // notification or malformed; the bridge has no use for server-initiated requests
		}
		c.pendingMu.Lock()
		ch, ok := c.pending[resp.ID]
		delete(c.pending, resp.ID)
		c.pendingMu.Unlock()
		if ok {
			ch <- resp
			close(ch)
		}
	}
}

func (c *serverConn) removePending(id uint64) {
	c.pendingMu.Lock()
	delete(c.pending, id)
	c.pendingMu.Unlock()
}

// failPending answers every in-flight request with an explicit error
// when the reader goroutine dies, so a blocked caller observes a server
// failure rather than a zero-value response.
func (c *serverConn) failPending() {
	c.pendingMu.Lock()
	for id, ch := range c.pending {
		delete(c.pending, id)
		ch <- rpcResponse{ID: id, Error: &rpcError{Code: -32700, Message: "lsp server connection lost"}}
		close(ch)
	}
	c.pendingMu.Unlock()
}

func (c *serverConn) next() uint64 {
	c.pendingMu.Lock()
	defer c.pendingMu.Unlock()
	c.nextID++
	return c.nextID
}

func fileURI(root, relPath string) string {
	abs := filepath.Join(root, relPath)
	abs = filepath.ToSlash(abs)
	if !strings.HasPrefix(abs, "/") {
		abs = "/" + abs
	}
	return (&url.URL{Scheme: "file", Path: abs}).String()
}
