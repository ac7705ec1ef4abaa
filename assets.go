package formbind

import (
	"io/fs"

	"github.com/goliatone/go-formbind/pkg/renderers/vanilla"
)

// EmbeddedTemplates exposes the built-in HTML renderer templates so callers
// can reuse or extend them without importing the renderer package directly.
func EmbeddedTemplates() fs.FS {
	return vanilla.TemplatesFS()
}

// StylesheetFS exposes the default stylesheet. Typical mount:
//
//	mux.Handle("/formbind/",
//	  http.StripPrefix("/formbind/",
//	    http.FileServerFS(formbind.StylesheetFS()),
//	  ),
//	)
func StylesheetFS() fs.FS {
	return vanilla.AssetsFS()
}
