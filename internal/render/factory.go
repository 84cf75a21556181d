package render

import (
	"fmt"
	"log/slog"

	"lapor/internal/config"
)

// FromConfig selects the renderer implementation named by configuration.
func FromConfig(cfg *config.Config, logger *slog.Logger) (Renderer, error) {
	switch cfg.Renderer {
	case config.RendererTypst:
		logger.Info("Initialized typst renderer", "bin", cfg.TypstBin, "root", cfg.TypstRoot)
		return NewTypstRenderer(cfg.TypstBin, cfg.TypstRoot), nil
	case config.RendererGotenberg:
		logger.Info("Initialized gotenberg renderer", "url", cfg.GotenbergURL)
		return NewGotenbergRenderer(cfg.GotenbergURL), nil
	default:
		return nil, fmt.Errorf("unsupported renderer: %s", cfg.Renderer)
	}
}
