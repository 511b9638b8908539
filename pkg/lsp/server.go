// Package lsp provides a Language Server Protocol server that re-audits
// Python documents as they are edited and publishes the findings as live
// diagnostics, so policy violations surface before any commit.
package lsp

import (
	"fmt"
	"log/slog"
	"net/url"
	"sync"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	"github.com/Sumatoshi-tech/archgate/pkg/policy"
	"github.com/Sumatoshi-tech/archgate/pkg/version"
)

const serverName = "archgate"

// DocumentStore is a thread-safe store for document contents keyed by URI.
type DocumentStore struct {
	documents map[string]string // URI -> content.
	mu        sync.RWMutex
}

// NewDocumentStore creates a new empty DocumentStore.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		documents: make(map[string]string),
	}
}

// Set stores document content for the given URI.
func (ds *DocumentStore) Set(uri, content string) {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	ds.documents[uri] = content
}

// Get retrieves document content by URI.
func (ds *DocumentStore) Get(uri string) (string, bool) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()

	content, ok := ds.documents[uri]

	return content, ok
}

// Delete removes document content by URI.
func (ds *DocumentStore) Delete(uri string) {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	delete(ds.documents, uri)
}

// Server implements the audit LSP server.
type Server struct {
	store    *DocumentStore
	handler  protocol.Handler
	logger   *slog.Logger
	policyMu sync.Mutex
	policies map[string]*policy.Policy // URI -> effective policy.
}

// NewServer creates a new audit LSP server with default handlers.
func NewServer(logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	srv := &Server{
		store:    NewDocumentStore(),
		logger:   logger,
		policies: make(map[string]*policy.Policy),
	}

	srv.handler = protocol.Handler{
		Initialize:            srv.initialize,
		Initialized:           srv.initialized,
		Shutdown:              srv.shutdown,
		SetTrace:              srv.setTrace,
		TextDocumentDidOpen:   srv.didOpen,
		TextDocumentDidChange: srv.didChange,
		TextDocumentDidSave:   srv.didSave,
		TextDocumentDidClose:  srv.didClose,
		TextDocumentHover:     srv.hover,
	}

	return srv
}

// Run starts the LSP server on stdio. It blocks until the client disconnects.
func (srv *Server) Run() {
	lspServer := server.NewServer(&srv.handler, serverName, false)

	err := lspServer.RunStdio()
	if err != nil {
		srv.logger.Error("lsp server stopped", "error", err)
	}
}

func (srv *Server) initialize(_ *glsp.Context, _ *protocol.InitializeParams) (any, error) {
	capabilities := srv.handler.CreateServerCapabilities()
	serverVersion := version.Version

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    serverName,
			Version: &serverVersion,
		},
	}, nil
}

func (srv *Server) initialized(_ *glsp.Context, _ *protocol.InitializedParams) error {
	return nil
}

func (srv *Server) shutdown(_ *glsp.Context) error {
	protocol.SetTraceValue(protocol.TraceValueOff)

	return nil
}

func (srv *Server) setTrace(_ *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)

	return nil
}

func (srv *Server) didOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	uri := params.TextDocument.URI

	srv.store.Set(uri, params.TextDocument.Text)
	srv.publishDiagnostics(ctx, uri)

	return nil
}

func (srv *Server) didChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	uri := params.TextDocument.URI

	if len(params.ContentChanges) > 0 {
		if change, changeOK := params.ContentChanges[0].(map[string]any); changeOK {
			if text, textOK := change["text"].(string); textOK {
				srv.store.Set(uri, text)
				srv.publishDiagnostics(ctx, uri)
			}
		}
	}

	return nil
}

func (srv *Server) didSave(ctx *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	uri := params.TextDocument.URI

	// The policy file may have changed on disk; rediscover on save.
	srv.forgetPolicy(uri)

	if _, ok := srv.store.Get(uri); ok {
		srv.publishDiagnostics(ctx, uri)
	}

	return nil
}

func (srv *Server) didClose(_ *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	uri := params.TextDocument.URI

	srv.store.Delete(uri)
	srv.forgetPolicy(uri)

	return nil
}

// policyFor resolves the effective policy for the document, walking up from
// its filesystem location. Resolution failures degrade to the built-in
// defaults instead of silencing diagnostics entirely.
func (srv *Server) policyFor(uri string) *policy.Policy {
	srv.policyMu.Lock()
	defer srv.policyMu.Unlock()

	if pol, ok := srv.policies[uri]; ok {
		return pol
	}

	pol, err := policy.Load("", uriToPath(uri), srv.logger)
	if err != nil {
		srv.logger.Warn("policy resolution failed, using defaults", "uri", uri, "error", err)

		pol = policy.Default()
	}

	srv.policies[uri] = pol

	return pol
}

func (srv *Server) forgetPolicy(uri string) {
	srv.policyMu.Lock()
	defer srv.policyMu.Unlock()

	delete(srv.policies, uri)
}

func (srv *Server) publishDiagnostics(ctx *glsp.Context, uri string) {
	content, ok := srv.store.Get(uri)
	if !ok {
		return
	}

	diagnostics := Diagnose(srv.policyFor(uri), []byte(content))

	// Always publish, an empty set clears stale findings in the editor.
	ctx.Notify("textDocument/publishDiagnostics", &protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	})
}

func (srv *Server) hover(_ *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	uri := params.TextDocument.URI

	content, ok := srv.store.Get(uri)
	if !ok {
		return nil, nil // LSP protocol expects nil hover when no document found.
	}

	pol := srv.policyFor(uri)

	unit, found := unitAtLine([]byte(content), int(params.Position.Line)+1)
	if !found {
		return nil, nil // LSP protocol expects nil hover outside function units.
	}

	value := fmt.Sprintf("**%s**: cyclomatic complexity %d (max_cc %d)",
		unit.Name, unit.Complexity, pol.MaxCC)

	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: value,
		},
	}, nil
}

// uriToPath converts a file URI to a filesystem path. Anything that does not
// parse as a file URI is treated as a raw path.
func uriToPath(uri string) string {
	parsed, err := url.Parse(uri)
	if err != nil || parsed.Scheme != "file" {
		return uri
	}

	path, err := url.PathUnescape(parsed.Path)
	if err != nil {
		return parsed.Path
	}

	return path
}
