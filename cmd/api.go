package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/desertthunder/spotwidget/internal/shared"
	"github.com/urfave/cli/v3"
)

// APIRequest sends the invoked method (get, put, post, delete) to an endpoint and prints the response.
//
// The response is printed whatever its status; a non-2xx status is returned as an error afterwards.
func (r *Runner) APIRequest(ctx context.Context, cmd *cli.Command) error {
	endpoint := strings.TrimSpace(cmd.StringArg("endpoint"))
	if endpoint == "" {
		return fmt.Errorf("%w: endpoint is required", shared.ErrMissingArgument)
	}
	method := strings.ToUpper(cmd.Name)

	var body any
	if data := cmd.String("data"); data != "" {
		if err := json.Unmarshal([]byte(data), &body); err != nil {
			return fmt.Errorf("%w: data is not valid JSON: %v", shared.ErrInvalidInput, err)
		}
	}

	if err := r.ensureAuth(ctx); err != nil {
		return err
	}

	r.logger.Info("api request", "method", method, "endpoint", endpoint)
	resp, err := r.spotify.Call(ctx, endpoint, method, body)
	if err != nil {
		return err
	}

	if err := r.writeResponse(resp.IsJSON, resp.JSONData, resp.Body, cmd.String("jq"), cmd.Bool("pretty")); err != nil {
		return err
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		if apiErr := resp.Err(); apiErr != nil {
			return apiErr
		}
		return fmt.Errorf("%w: status %d", shared.ErrAPIRequest, resp.StatusCode)
	}
	return nil
}

func (r *Runner) writeResponse(isJSON bool, data any, raw []byte, expr string, pretty bool) error {
	if !isJSON {
		if expr != "" && len(raw) > 0 {
			return fmt.Errorf("%w: --jq needs a JSON response", shared.ErrInvalidFlag)
		}
		if len(raw) == 0 {
			return nil
		}
		return r.writePlain("%s\n", raw)
	}

	if expr == "" {
		return r.writeJSON(data, pretty)
	}

	results, err := shared.Query(data, expr)
	if err != nil {
		return err
	}
	for _, v := range results {
		if s, ok := v.(string); ok {
			if err := r.writePlain("%s\n", s); err != nil {
				return err
			}
			continue
		}
		if err := r.writeJSON(v, pretty); err != nil {
			return err
		}
	}
	return nil
}
