// Package lsp republishes pipeline errors as LSP diagnostics, following the
// same glsp wiring the original editor integration used: a handler keyed by
// document URI, re-run on open/change, publishing whatever the pipeline
// reports rather than a full solver call (the solver is a blocking external
// process, not something to invoke on every keystroke).
package lsp

import (
	"fmt"
	"net/url"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	verr "boundverify/internal/errors"
	"boundverify/internal/loop"
	"boundverify/internal/normalize"
	"boundverify/internal/ssa"
	"boundverify/internal/stmt"
)

// Handler implements the subset of the LSP protocol needed to give live
// feedback on normalize/unroll/parse/SSA failures while a program is edited.
type Handler struct {
	mu      sync.RWMutex
	content map[string]string
}

func NewHandler() *Handler {
	return &Handler{content: make(map[string]string)}
}

func (h *Handler) Initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	return &protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			TextDocumentSync: &protocol.TextDocumentSyncOptions{
				OpenClose: ptrBool(true),
				Change:    ptrSyncKind(protocol.TextDocumentSyncKindFull),
			},
		},
	}, nil
}

func (h *Handler) Initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	return nil
}

func (h *Handler) Shutdown(ctx *glsp.Context) error {
	return nil
}

func (h *Handler) SetTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	return nil
}

func (h *Handler) TextDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	return h.republish(ctx, params.TextDocument.URI, params.TextDocument.Text)
}

func (h *Handler) TextDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	for _, change := range params.ContentChanges {
		switch c := change.(type) {
		case protocol.TextDocumentContentChangeEventWhole:
			return h.republish(ctx, params.TextDocument.URI, c.Text)
		case protocol.TextDocumentContentChangeEvent:
			return h.republish(ctx, params.TextDocument.URI, c.Text)
		}
	}
	return nil
}

func (h *Handler) TextDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return err
	}
	h.mu.Lock()
	delete(h.content, path)
	h.mu.Unlock()
	return nil
}

func (h *Handler) republish(ctx *glsp.Context, uri protocol.DocumentUri, text string) error {
	path, err := uriToPath(uri)
	if err != nil {
		return fmt.Errorf("converting URI %s: %w", uri, err)
	}

	h.mu.Lock()
	h.content[path] = text
	h.mu.Unlock()

	diagnostics := diagnosticsFor(text)
	ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	})
	return nil
}

// diagnosticsFor runs normalize/unroll/stmt/ssa over text (with an empty
// bound map — loop bounds are a collaborator concern, not something an
// editor integration can answer) and converts the first VerifierError, if
// any, into a diagnostic.
func diagnosticsFor(text string) []protocol.Diagnostic {
	normalized := normalize.Lines(text)
	unrolled := loop.Unroll(normalized, nil)

	stmts, err := stmt.Parse(unrolled)
	if err == nil {
		_, err = ssa.Convert(stmts)
	}
	if err == nil {
		return nil
	}

	ve, ok := err.(*verr.VerifierError)
	if !ok {
		return []protocol.Diagnostic{{
			Range:    protocol.Range{Start: protocol.Position{}, End: protocol.Position{Character: 1}},
			Severity: ptrSeverity(protocol.DiagnosticSeverityError),
			Source:   ptrString("boundverify"),
			Message:  err.Error(),
		}}
	}

	line := uint32(0)
	if ve.Position.Line > 0 {
		line = uint32(ve.Position.Line - 1)
	}
	col := uint32(0)
	if ve.Position.Column > 0 {
		col = uint32(ve.Position.Column - 1)
	}

	return []protocol.Diagnostic{{
		Range: protocol.Range{
			Start: protocol.Position{Line: line, Character: col},
			End:   protocol.Position{Line: line, Character: col + uint32(max(1, len(ve.Fragment)))},
		},
		Severity: ptrSeverity(protocol.DiagnosticSeverityError),
		Source:   ptrString("boundverify"),
		Message:  ve.Message,
	}}
}

func uriToPath(rawURI string) (string, error) {
	u, err := url.Parse(rawURI)
	if err != nil {
		return "", fmt.Errorf("invalid URI %s: %w", rawURI, err)
	}
	path := u.Path
	if runtime.GOOS == "windows" && strings.HasPrefix(path, "/") && len(path) > 3 && path[2] == ':' {
		path = path[1:]
	}
	return filepath.FromSlash(path), nil
}

func ptrBool(b bool) *bool                                           { return &b }
func ptrSyncKind(k protocol.TextDocumentSyncKind) *protocol.TextDocumentSyncKind { return &k }
func ptrSeverity(s protocol.DiagnosticSeverity) *protocol.DiagnosticSeverity     { return &s }
func ptrString(s string) *string                                     { return &s }
