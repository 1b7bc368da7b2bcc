// Package covers turns the day's sports front pages into one collage
// image ready to attach to a chat message.
package covers

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"benficabot/lib/collage"
	"benficabot/lib/scrapers/sapo"
)

var tracer = otel.Tracer("services/covers")

// FileName is the attachment name the collage is posted under.
const FileName = "capas.jpg"

type Service struct {
	client *sapo.Client
	path   string
	width  int
}

type ServiceOptions struct {
	Client *sapo.Client
	// OutputPath is where the composed collage is written. Defaults to
	// capas.jpg under the OS temp directory.
	OutputPath string
	// Width is the collage width in pixels, collage.DefaultWidth when zero.
	Width int
}

func NewService(opts ServiceOptions) *Service {
	if opts.OutputPath == "" {
		opts.OutputPath = filepath.Join(os.TempDir(), FileName)
	}
	if opts.Width == 0 {
		opts.Width = collage.DefaultWidth
	}
	return &Service{
		client: opts.Client,
		path:   opts.OutputPath,
		width:  opts.Width,
	}
}

// Compose fetches all three covers, composes the collage and writes it
// to the service's output path. It returns the path and the encoded
// bytes. Any missing cover fails the whole operation.
func (s *Service) Compose(ctx context.Context) (string, []byte, error) {
	ctx, span := tracer.Start(ctx, "covers.Compose")
	defer span.End()

	images, err := s.client.FetchCovers(ctx)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return "", nil, err
	}

	data, err := collage.Compose(images, s.width)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return "", nil, err
	}

	err = os.WriteFile(s.path, data, 0644)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return "", nil, err
	}

	slog.InfoContext(ctx, "covers collage written",
		"path", s.path, "bytes", len(data))
	return s.path, data, nil
}
