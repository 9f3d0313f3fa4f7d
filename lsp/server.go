// Package lsp is a language server that checks the doc references of Java
// sources against the class index and javadoc sites used for plugin
// descriptors.
package lsp

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	"github.com/dhamidi/plugintools/docsite"
)

var log = commonlog.GetLogger("plugintools.lsp")

const lsName = "plugintools"

type Options struct {
	SourceRoots []string
	ClassPath   []string
	// ClassesDirs are watched for recompiled classes.
	ClassesDirs []string
	Links       *docsite.LinkGenerator
	Debounce    time.Duration
}

type Server struct {
	opts      Options
	version   string
	workspace *Workspace
	watcher   *ClassesWatcher
	handler   protocol.Handler
	server    *server.Server

	mu     sync.Mutex
	notify glsp.NotifyFunc
}

func NewServer(version string, opts Options) *Server {
	if opts.Debounce == 0 {
		opts.Debounce = 500 * time.Millisecond
	}
	s := &Server{
		opts:    opts,
		version: version,
		workspace: NewWorkspace(WorkspaceOptions{
			SourceRoots: opts.SourceRoots,
			ClassPath:   opts.ClassPath,
			Links:       opts.Links,
		}),
	}
	s.handler = protocol.Handler{
		Initialize:            s.initialize,
		Initialized:           s.initialized,
		Shutdown:              s.shutdown,
		SetTrace:              s.setTrace,
		TextDocumentDidOpen:   s.textDocumentDidOpen,
		TextDocumentDidChange: s.textDocumentDidChange,
		TextDocumentDidClose:  s.textDocumentDidClose,
		TextDocumentDidSave:   s.textDocumentDidSave,
		TextDocumentHover:     s.textDocumentHover,
	}
	s.server = server.NewServer(&s.handler, lsName, false)
	return s
}

func (s *Server) Workspace() *Workspace {
	return s.workspace
}

func (s *Server) RunStdio() error {
	return s.server.RunStdio()
}

func (s *Server) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	s.setNotify(ctx.Notify)
	capabilities := s.handler.CreateServerCapabilities()
	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: boolPtr(true),
		Change:    syncKindPtr(protocol.TextDocumentSyncKindFull),
		Save: &protocol.SaveOptions{
			IncludeText: boolPtr(true),
		},
	}
	capabilities.HoverProvider = true

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    lsName,
			Version: &s.version,
		},
	}, nil
}

func (s *Server) initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	if err := s.workspace.Reload(context.Background()); err != nil {
		log.Errorf("index workspace: %s", err)
	}
	watcher, err := NewClassesWatcher(s.opts.Debounce, s.classesChanged)
	if err != nil {
		log.Errorf("watch classes: %s", err)
		return nil
	}
	if err := watcher.Watch(s.opts.ClassesDirs); err != nil {
		log.Errorf("watch classes: %s", err)
		watcher.Close()
		return nil
	}
	s.watcher = watcher
	return nil
}

// classesChanged reindexes after a compile and refreshes the diagnostics
// of every open document.
func (s *Server) classesChanged() {
	log.Infof("classes changed, reindexing")
	if err := s.workspace.Reload(context.Background()); err != nil {
		log.Errorf("reindex workspace: %s", err)
		return
	}
	for _, path := range s.workspace.OpenDocuments() {
		s.publishDiagnostics(path)
	}
}

func (s *Server) shutdown(ctx *glsp.Context) error {
	if s.watcher != nil {
		s.watcher.Close()
	}
	return s.workspace.Close()
}

func (s *Server) setTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}

func (s *Server) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	s.setNotify(ctx.Notify)
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return nil
	}
	s.workspace.Update(context.Background(), path, []byte(params.TextDocument.Text))
	s.publishDiagnostics(path)
	return nil
}

func (s *Server) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return nil
	}
	if len(params.ContentChanges) > 0 {
		change := params.ContentChanges[len(params.ContentChanges)-1]
		if whole, ok := change.(protocol.TextDocumentContentChangeEventWhole); ok {
			s.workspace.Update(context.Background(), path, []byte(whole.Text))
		}
	}
	return nil
}

func (s *Server) textDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return nil
	}
	s.workspace.CloseDocument(path)
	return nil
}

func (s *Server) textDocumentDidSave(ctx *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return nil
	}
	if params.Text != nil {
		s.workspace.Update(context.Background(), path, []byte(*params.Text))
	}
	s.publishDiagnostics(path)
	return nil
}

func (s *Server) textDocumentHover(ctx *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return nil, nil
	}
	r, ok := s.workspace.ResolveAt(path, int(params.Position.Line), int(params.Position.Character))
	if !ok {
		return nil, nil
	}
	rng := occurrenceRange(r.Occurrence)
	return &protocol.Hover{
		Contents: protocol.MarkupContent{Kind: protocol.MarkupKindMarkdown, Value: HoverText(r)},
		Range:    &rng,
	}, nil
}

// HoverText renders a resolution as markdown.
func HoverText(r Resolution) string {
	if r.Err != nil {
		return fmt.Sprintf("`%s`: %s", r.Text, r.Err)
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "`%s`", r.Resolved)
	if r.Value != "" {
		fmt.Fprintf(&sb, " = `%s`", r.Value)
	}
	if r.URL != "" {
		fmt.Fprintf(&sb, "\n\n%s", r.URL)
	}
	return sb.String()
}

// Diagnostics turns the unresolvable occurrences of an open document into
// LSP diagnostics.
func (s *Server) Diagnostics(path string) []protocol.Diagnostic {
	diagnostics := []protocol.Diagnostic{}
	for _, r := range s.workspace.Resolve(path) {
		if r.Err == nil {
			continue
		}
		severity := protocol.DiagnosticSeverityWarning
		source := lsName
		diagnostics = append(diagnostics, protocol.Diagnostic{
			Range:    occurrenceRange(r.Occurrence),
			Severity: &severity,
			Source:   &source,
			Message:  fmt.Sprintf("@%s %s: %s", r.Tag, r.Text, r.Err),
		})
	}
	return diagnostics
}

func (s *Server) publishDiagnostics(path string) {
	notify := s.getNotify()
	if notify == nil {
		return
	}
	notify(string(protocol.ServerTextDocumentPublishDiagnostics), protocol.PublishDiagnosticsParams{
		URI:         pathToURI(path),
		Diagnostics: s.Diagnostics(path),
	})
}

func (s *Server) setNotify(notify glsp.NotifyFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notify = notify
}

func (s *Server) getNotify() glsp.NotifyFunc {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.notify
}

func occurrenceRange(o Occurrence) protocol.Range {
	return protocol.Range{
		Start: protocol.Position{Line: protocol.UInteger(o.Line), Character: protocol.UInteger(o.StartCol)},
		End:   protocol.Position{Line: protocol.UInteger(o.Line), Character: protocol.UInteger(o.EndCol)},
	}
}

func uriToPath(uri string) (string, error) {
	if strings.HasPrefix(uri, "file://") {
		parsed, err := url.Parse(uri)
		if err != nil {
			return "", err
		}
		return filepath.Clean(parsed.Path), nil
	}
	return uri, nil
}

func pathToURI(path string) protocol.DocumentUri {
	return protocol.DocumentUri((&url.URL{Scheme: "file", Path: filepath.ToSlash(path)}).String())
}

func boolPtr(b bool) *bool {
	return &b
}

func syncKindPtr(k protocol.TextDocumentSyncKind) *protocol.TextDocumentSyncKind {
	return &k
}
