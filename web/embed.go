package web

import "embed"

// StaticFS embeds the static frontend served at the site root.
//
//go:embed static/*
var StaticFS embed.FS
