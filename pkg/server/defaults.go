package server

import (
	"context"

	"github.com/richard-senior/footytrends/internal/logger"
	"github.com/richard-senior/footytrends/pkg/resources"
	"github.com/richard-senior/footytrends/pkg/tools"
)

// RegisterDefaults registers the footy tools driven by p and the league
// configuration resource. Tool calls run under ctx
func (s *Server) RegisterDefaults(ctx context.Context, p tools.Pipeline) {
	logger.Info("Registering default tools...")
	for _, e := range tools.NewToolbox(ctx, p).Entries() {
		s.RegisterTool(e.Tool, e.Handler)
	}

	logger.Info("Registering default resources...")
	s.RegisterResources(resources.NewReader(p.Config()))
}
