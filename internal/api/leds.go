package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/statusled/internal/api/models"
	"github.com/smazurov/statusled/internal/led"
)

func toLEDData(s led.Status) models.LEDData {
	return models.LEDData{
		Name:        s.Name,
		Pin:         string(s.Pin),
		Polarity:    s.Polarity.String(),
		Initialized: s.Initialized,
		State:       s.State.String(),
		Pattern:     s.Pattern,
		Index:       s.Index,
	}
}

func (s *Server) ledResponse(name string) (*models.LEDResponse, error) {
	d, err := s.options.LEDs.Get(name)
	if err != nil {
		return nil, ledError(err)
	}
	return &models.LEDResponse{Body: toLEDData(d.Status())}, nil
}

// registerLEDRoutes registers LED control endpoints
func (s *Server) registerLEDRoutes() {
	if s.options.LEDs == nil {
		s.logger.Debug("LED service not available, skipping LED routes")
		return
	}

	huma.Register(s.api, huma.Operation{
		OperationID: "list-leds",
		Method:      http.MethodGet,
		Path:        "/api/leds",
		Summary:     "List LEDs",
		Description: "List every configured LED with its state and active pattern",
		Tags:        []string{"leds"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(_ context.Context, _ *struct{}) (*models.LEDListResponse, error) {
		snapshot := s.options.LEDs.Snapshot()
		leds := make([]models.LEDData, 0, len(snapshot))
		for _, st := range snapshot {
			leds = append(leds, toLEDData(st))
		}
		return &models.LEDListResponse{
			Body: models.LEDListData{LEDs: leds, Count: len(leds)},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-led",
		Method:      http.MethodGet,
		Path:        "/api/leds/{name}",
		Summary:     "Get LED",
		Description: "Get one LED's state and active pattern",
		Tags:        []string{"leds"},
		Security:    withAuth(),
		Errors:      []int{401, 404},
	}, func(_ context.Context, input *models.LEDPathInput) (*models.LEDResponse, error) {
		return s.ledResponse(input.Name)
	})

	commands := []struct {
		action string
		run    func(string) error
		doc    string
	}{
		{led.ActionOn, s.options.LEDs.TurnOn, "Turn the LED on, cancelling any pattern"},
		{led.ActionOff, s.options.LEDs.TurnOff, "Turn the LED off, cancelling any pattern"},
		{led.ActionToggle, s.options.LEDs.Toggle, "Invert the LED state, cancelling any pattern"},
	}
	for _, cmd := range commands {
		huma.Register(s.api, huma.Operation{
			OperationID: "led-" + cmd.action,
			Method:      http.MethodPost,
			Path:        "/api/leds/{name}/" + cmd.action,
			Summary:     "LED " + cmd.action,
			Description: cmd.doc,
			Tags:        []string{"leds"},
			Security:    withAuth(),
			Errors:      []int{401, 404, 409},
		}, func(_ context.Context, input *models.LEDPathInput) (*models.LEDResponse, error) {
			if err := cmd.run(input.Name); err != nil {
				return nil, ledError(err)
			}
			return s.ledResponse(input.Name)
		})
	}

	huma.Register(s.api, huma.Operation{
		OperationID: "set-led-pattern",
		Method:      http.MethodPut,
		Path:        "/api/leds/{name}/pattern",
		Summary:     "Set LED pattern",
		Description: "Play a named pattern in a loop. A null or empty pattern stops playback and turns the LED off.",
		Tags:        []string{"leds"},
		Security:    withAuth(),
		Errors:      []int{401, 404, 409, 422},
	}, func(_ context.Context, input *models.SetPatternRequest) (*models.LEDResponse, error) {
		pattern := ""
		if input.Body.Pattern != nil {
			pattern = *input.Body.Pattern
		}
		if err := s.options.LEDs.SetPattern(input.Name, pattern); err != nil {
			return nil, ledError(err)
		}
		return s.ledResponse(input.Name)
	})
}
