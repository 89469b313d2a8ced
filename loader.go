package formengine

import (
	internalLoader "github.com/goliatone/go-formengine/internal/loader"
	"github.com/goliatone/go-formengine/pkg/schema"
)

// NewLoader returns the file, fs.FS and HTTP loader behind LoadCatalog.
func NewLoader(options ...schema.LoaderOption) schema.Loader {
	return internalLoader.New(schema.NewLoaderOptions(options...))
}
