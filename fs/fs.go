// Package appfs embeds the files the binaries need at runtime:
// SQL migrations, page & email templates, static assets.
package appfs

import "embed"

//go:embed migrations/*.sql templates/*.gohtml templates/email/* static/* assets/*
var FS embed.FS
