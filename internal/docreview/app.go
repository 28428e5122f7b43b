package docreview

import (
	"context"

	"github.com/creativedesign-blip/document-review/internal/api"
	"github.com/creativedesign-blip/document-review/internal/core/config"
)

// App is the central entry point for all docrev operations.
// Commands and TUI consume App instead of cherry-picking raw dependencies.
type App struct {
	Client  *api.Client
	Config  *config.Config
	Version string
}

// NewApp constructs an App from explicit dependencies.
func NewApp(client *api.Client, cfg *config.Config, version string) *App {
	return &App{
		Client:  client,
		Config:  cfg,
		Version: version,
	}
}

// OpenDocument loads a document's issue collection and builds one card
// controller per issue.
func (a *App) OpenDocument(ctx context.Context, docID string) (*Document, []*Card, error) {
	doc := NewDocument(docID)
	if err := doc.Load(ctx, a.Client); err != nil {
		return nil, nil, err
	}
	return doc, Cards(a.Client, doc), nil
}
