package render

import (
	"context"

	"github.com/goliatone/go-formbind/pkg/forms"
)

// Renderer converts a bound form into a byte representation (HTML, a
// terminal transcript, etc.).
type Renderer interface {
	Name() string
	ContentType() string
	Render(ctx context.Context, form *forms.Form, options RenderOptions) ([]byte, error)
}
