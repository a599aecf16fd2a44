package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/statusled/internal/api/models"
	"github.com/smazurov/statusled/internal/events"
)

func (s *Server) registerStatusRoutes() {
	if s.options.LEDs == nil {
		return
	}

	huma.Register(s.api, huma.Operation{
		OperationID:   "report-status",
		Method:        http.MethodPost,
		Path:          "/api/status",
		Summary:       "Report status",
		Description:   "Report a component status. Mapped statuses drive the indicator LED.",
		Tags:          []string{"status"},
		Security:      withAuth(),
		DefaultStatus: http.StatusAccepted,
		Errors:        []int{401, 404, 422},
	}, func(_ context.Context, input *models.StatusRequest) (*models.StatusResponse, error) {
		source, status := input.Body.Source, input.Body.Status
		indicator, action, mapped := s.options.LEDs.ActionFor(status)

		if s.eventBus != nil {
			s.eventBus.Publish(events.StatusChangedEvent{
				Source:    source,
				Status:    status,
				Timestamp: time.Now().Format(time.RFC3339),
			})
		} else if err := s.options.LEDs.ApplyStatus(source, status); err != nil {
			return nil, ledError(err)
		}

		return &models.StatusResponse{
			Body: models.StatusData{
				Source: source,
				Status: status,
				Mapped: mapped,
				LED:    indicator,
				Action: action,
			},
		}, nil
	})
}
