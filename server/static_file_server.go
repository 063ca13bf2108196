package server

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed static/*
var staticFiles embed.FS

// StaticFileHandler serves the embedded stylesheet and assets under /static/.
func StaticFileHandler() http.HandlerFunc {
	subFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic("failed to create static sub filesystem: " + err.Error())
	}
	fileServer := http.StripPrefix("/static/", http.FileServerFS(subFS))
	return fileServer.ServeHTTP
}
