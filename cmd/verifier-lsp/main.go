package main

import (
	"log"
	"os"

	"github.com/tliron/commonlog"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	"boundverify/internal/lsp"
)

const lsName = "boundverify"

var version = "0.0.1"

func main() {
	commonlog.Configure(1, nil)

	h := lsp.NewHandler()

	handler := protocol.Handler{
		Initialize:            h.Initialize,
		Initialized:           h.Initialized,
		Shutdown:              h.Shutdown,
		SetTrace:              h.SetTrace,
		TextDocumentDidOpen:   h.TextDocumentDidOpen,
		TextDocumentDidClose:  h.TextDocumentDidClose,
		TextDocumentDidChange: h.TextDocumentDidChange,
	}

	s := server.NewServer(&handler, lsName, false)

	log.Println("Starting boundverify LSP server...")
	if err := s.RunStdio(); err != nil {
		log.Println("Error starting boundverify LSP server:", err)
		os.Exit(1)
	}
}
