// Package export holds the built-in document formatters.
package export

import (
	"context"
	"io"

	json "github.com/goccy/go-json"

	"github.com/xraph/dues/plugin"
)

var _ plugin.DocumentFormatter = JSON{}

// JSON renders any document as indented JSON.
type JSON struct{}

func (JSON) Name() string   { return "export-json" }
func (JSON) Format() string { return "json" }

func (JSON) Render(_ context.Context, doc any, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
