package web

import "embed"

// StaticFS holds the embedded panel assets (index page, JS, CSS).
//
//go:embed static/*
var StaticFS embed.FS
