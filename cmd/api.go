package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/cinelist/internal/services"
	"github.com/desertthunder/cinelist/internal/shared"
)

// APIGet makes a direct GET request to the backend
func (r *Runner) APIGet(ctx context.Context, cmd *cli.Command) error {
	path, err := pathArg(cmd)
	if err != nil {
		return err
	}
	r.logger.Info("GET request", "path", path)

	resp, err := r.api.Get(ctx, path)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	return r.writeResponse(resp, path, !cmd.Bool("json"))
}

// APIPost makes a direct POST request with a JSON body
func (r *Runner) APIPost(ctx context.Context, cmd *cli.Command) error {
	return r.apiSend(ctx, cmd, "POST")
}

// APIPut makes a direct PUT request with a JSON body
func (r *Runner) APIPut(ctx context.Context, cmd *cli.Command) error {
	return r.apiSend(ctx, cmd, "PUT")
}

// APIDelete makes a direct DELETE request
func (r *Runner) APIDelete(ctx context.Context, cmd *cli.Command) error {
	path, err := pathArg(cmd)
	if err != nil {
		return err
	}
	r.logger.Info("DELETE request", "path", path)

	resp, err := r.api.Delete(ctx, path)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	return r.writeResponse(resp, path, true)
}

func (r *Runner) apiSend(ctx context.Context, cmd *cli.Command, method string) error {
	path, err := pathArg(cmd)
	if err != nil {
		return err
	}
	data := cmd.String("data")
	if data == "" {
		return fmt.Errorf("%w: --data flag is required", shared.ErrMissingArgument)
	}

	var jsonTest any
	if err := json.Unmarshal([]byte(data), &jsonTest); err != nil {
		return fmt.Errorf("%w: data is not valid JSON: %v", shared.ErrInvalidInput, err)
	}

	r.logger.Info(method+" request", "path", path)

	var resp *services.APIResponse
	if method == "PUT" {
		resp, err = r.api.Put(ctx, path, []byte(data))
	} else {
		resp, err = r.api.Post(ctx, path, []byte(data))
	}
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	return r.writeResponse(resp, path, true)
}

// writeResponse prints a raw response body, pretty-printing JSON when asked.
//
// Non-2xx responses become an [*shared.APIError] so the exit code reflects the failure.
func (r *Runner) writeResponse(resp *services.APIResponse, path string, pretty bool) error {
	if !resp.OK() {
		return &shared.APIError{StatusCode: resp.StatusCode, Path: path, Detail: strings.TrimSpace(string(resp.Body))}
	}
	if resp.IsJSON {
		return r.writeJSON(resp.JSONData, pretty)
	}
	if len(resp.Body) == 0 {
		return nil
	}
	r.output.Write(resp.Body)
	r.output.Write([]byte("\n"))
	return nil
}

// dumpEndpoints are fetched by [Runner.APIDump] in order.
var dumpEndpoints = []struct {
	key  string
	path string
}{
	{"lists", "/api/lists"},
	{"filter_settings", "/api/filter-settings"},
	{"homepage_filters", "/api/filter-settings/homepage"},
	{"genres", "/api/movies/genres"},
}

// APIDump fetches the user's lists, filter settings and the genre catalogue in one document.
func (r *Runner) APIDump(ctx context.Context, cmd *cli.Command) error {
	pretty := cmd.Bool("pretty")
	save := cmd.Bool("save")

	r.logger.Info("dumping API state")
	r.writePlain("Fetching backend state...\n\n")

	dump := map[string]any{}
	errs := []map[string]string{}

	for _, ep := range dumpEndpoints {
		r.writePlain("📥 Fetching %s...\n", strings.ReplaceAll(ep.key, "_", " "))
		resp, err := r.api.Get(ctx, ep.path)
		switch {
		case err != nil:
			errs = append(errs, map[string]string{"endpoint": ep.path, "error": err.Error()})
			r.logger.Warn("failed to fetch", "endpoint", ep.path, "error", err)
		case !resp.OK():
			errs = append(errs, map[string]string{"endpoint": ep.path, "error": fmt.Sprintf("status %d", resp.StatusCode)})
			r.logger.Warn("failed to fetch", "endpoint", ep.path, "status", resp.StatusCode)
		default:
			dump[ep.key] = resp.JSONData
		}
	}
	if len(errs) > 0 {
		dump["errors"] = errs
	}

	r.writePlain("\n✓ Dump complete\n\n")

	if save {
		saveFile := "api_dump.json"
		data, err := shared.MarshalJSON(dump, true)
		if err != nil {
			return fmt.Errorf("failed to marshal dump: %w", err)
		}
		if err := os.WriteFile(saveFile, data, 0644); err != nil {
			r.logger.Warn("failed to save dump", "error", err)
		} else {
			r.logger.Info("dump saved", "file", saveFile)
			r.writePlain("✓ Dump saved to %s\n\n", saveFile)
		}
	}

	return r.writeJSON(dump, pretty)
}

func pathArg(cmd *cli.Command) (string, error) {
	path := strings.TrimSpace(cmd.StringArg("path"))
	if path == "" {
		return "", fmt.Errorf("%w: request path", shared.ErrMissingArgument)
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return path, nil
}

// apiCommand handles direct API calls and the state dump
func apiCommand(r *Runner) *cli.Command {
	pathArgs := func() []cli.Argument { return []cli.Argument{&cli.StringArg{Name: "path"}} }
	dataFlag := func() cli.Flag {
		return &cli.StringFlag{
			Name:     "data",
			Aliases:  []string{"d"},
			Usage:    "JSON body to send",
			Required: true,
		}
	}

	return &cli.Command{
		Name:  "api",
		Usage: "Direct API calls to the backend",
		Commands: []*cli.Command{
			{
				Name:      "get",
				Usage:     "Direct GET to the backend, prints raw JSON",
				Arguments: pathArgs(),
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output compact JSON",
					},
				},
				Action: r.APIGet,
			},
			{
				Name:      "post",
				Usage:     "Direct POST with JSON body",
				Arguments: pathArgs(),
				Flags:     []cli.Flag{dataFlag()},
				Action:    r.APIPost,
			},
			{
				Name:      "put",
				Usage:     "Direct PUT with JSON body",
				Arguments: pathArgs(),
				Flags:     []cli.Flag{dataFlag()},
				Action:    r.APIPut,
			},
			{
				Name:      "delete",
				Usage:     "Direct DELETE",
				Arguments: pathArgs(),
				Action:    r.APIDelete,
			},
			{
				Name:  "dump",
				Usage: "Dump lists, filter settings and genres",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
					&cli.BoolFlag{
						Name:  "save",
						Usage: "Save dump to api_dump.json",
						Value: false,
					},
				},
				Action: r.APIDump,
			},
		},
	}
}
