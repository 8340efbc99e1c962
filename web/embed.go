// Package web holds the dashboard templates and stylesheet, compiled into
// the server binary.
package web

import "embed"

// TemplatesFS holds the page and the HTMX partials.
//
//go:embed templates/*.html
var TemplatesFS embed.FS

//go:embed static/*
var StaticFS embed.FS
