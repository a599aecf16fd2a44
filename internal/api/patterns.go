package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/statusled/internal/api/models"
)

func (s *Server) patternList() *models.PatternListResponse {
	all := s.options.LEDs.Catalog().All()
	patterns := make([]models.PatternData, 0, len(all))
	for _, p := range all {
		patterns = append(patterns, models.PatternData{
			Name:      p.Name,
			Durations: p.Durations,
			PeriodMs:  p.Period().Milliseconds(),
		})
	}
	return &models.PatternListResponse{
		Body: models.PatternListData{Patterns: patterns, Count: len(patterns)},
	}
}

func (s *Server) registerPatternRoutes() {
	if s.options.LEDs == nil {
		return
	}

	huma.Register(s.api, huma.Operation{
		OperationID: "list-patterns",
		Method:      http.MethodGet,
		Path:        "/api/patterns",
		Summary:     "List patterns",
		Description: "List the built-in and configured blink patterns",
		Tags:        []string{"patterns"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(_ context.Context, _ *struct{}) (*models.PatternListResponse, error) {
		return s.patternList(), nil
	})

	if s.options.ReloadHardware == nil {
		return
	}

	huma.Register(s.api, huma.Operation{
		OperationID: "reload-patterns",
		Method:      http.MethodPost,
		Path:        "/api/patterns/reload",
		Summary:     "Reload patterns",
		Description: "Re-read the LED wiring file and apply its patterns and status mapping",
		Tags:        []string{"patterns"},
		Security:    withAuth(),
		Errors:      []int{401, 422},
	}, func(_ context.Context, _ *struct{}) (*models.PatternListResponse, error) {
		if err := s.options.ReloadHardware(); err != nil {
			return nil, huma.Error422UnprocessableEntity("Failed to reload LED configuration", err)
		}
		return s.patternList(), nil
	})
}
