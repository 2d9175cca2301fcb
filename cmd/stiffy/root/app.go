package root

import (
	"context"

	"github.com/i474232898/stiffy-wanderers/internal/app"
	"github.com/i474232898/stiffy-wanderers/internal/config"
)

func openApp(ctx context.Context) (*app.App, *config.AppConfig, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}
	a, err := app.Open(ctx, cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	cleanup := func() {
		_ = a.Close()
	}
	return a, cfg, cleanup, nil
}
