// Package sheets reads the task collection straight from a Google spreadsheet.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"project-tracker/internal/log"
	"project-tracker/internal/normalize"
	"project-tracker/internal/remote"
)

// DefaultRange covers the columns of the import schema on the first sheet.
const DefaultRange = "A:Z"

// SourceConfig is the configuration of Source.
type SourceConfig struct {
	SpreadsheetID string
	Range         string
	// CredentialsFile is a service account key. APIKey is used for public sheets.
	CredentialsFile string
	APIKey          string
	// ClientOptions override the authentication options, tests point them to a
	// fake server.
	ClientOptions []option.ClientOption
	Logger        log.Logger
}

func (c *SourceConfig) defaults() error {
	if c.SpreadsheetID == "" {
		return fmt.Errorf("spreadsheet id is required")
	}
	if c.Range == "" {
		c.Range = DefaultRange
	}
	if len(c.ClientOptions) == 0 && c.CredentialsFile == "" && c.APIKey == "" {
		return fmt.Errorf("credentials file or API key is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "sheets.Source"})
	return nil
}

// Source reads rows of the import schema, header row first.
type Source struct {
	svc    *sheets.Service
	id     string
	rng    string
	logger log.Logger
}

// NewSource returns a Source.
func NewSource(ctx context.Context, cfg SourceConfig) (*Source, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid sheets source config: %w", err)
	}

	opts := cfg.ClientOptions
	if len(opts) == 0 {
		o, err := clientOptions(ctx, cfg)
		if err != nil {
			return nil, err
		}
		opts = o
	}

	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create sheets client: %w", err)
	}
	return &Source{svc: svc, id: cfg.SpreadsheetID, rng: cfg.Range, logger: cfg.Logger}, nil
}

func clientOptions(ctx context.Context, cfg SourceConfig) ([]option.ClientOption, error) {
	if cfg.CredentialsFile == "" {
		return []option.ClientOption{option.WithAPIKey(cfg.APIKey)}, nil
	}
	b, err := os.ReadFile(cfg.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file %s: %w", cfg.CredentialsFile, err)
	}
	creds, err := google.CredentialsFromJSON(ctx, b, sheets.SpreadsheetsReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials file: %w", err)
	}
	return []option.ClientOption{option.WithCredentials(creds)}, nil
}

// Read returns one record per data row keyed by the header row. Dates come back
// as serial numbers and are resolved by the normalizer.
func (s *Source) Read(ctx context.Context) ([]map[string]any, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(s.id, s.rng).
		ValueRenderOption("UNFORMATTED_VALUE").
		DateTimeRenderOption("SERIAL_NUMBER").
		Context(ctx).
		Do()
	if err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) {
			return nil, &remote.NetworkError{Kind: remote.KindStatus, StatusCode: gerr.Code, Err: err}
		}
		if ctx.Err() != nil {
			return nil, &remote.NetworkError{Kind: remote.KindTimeout, Err: err}
		}
		return nil, &remote.NetworkError{Kind: remote.KindConnection, Err: err}
	}

	records := Records(resp.Values)
	s.logger.Debugf("read %d rows from %s", len(records), s.id)
	return records, nil
}

// Records turns a header row plus data rows into records. Blank rows are skipped.
func Records(values [][]interface{}) []map[string]any {
	if len(values) == 0 {
		return []map[string]any{}
	}
	header := make([]string, len(values[0]))
	for i, h := range values[0] {
		header[i] = strings.TrimSpace(normalize.AsString(h))
	}

	out := make([]map[string]any, 0, len(values)-1)
	for _, row := range values[1:] {
		rec := map[string]any{}
		for i, cell := range row {
			if i >= len(header) || header[i] == "" {
				continue
			}
			if s, ok := cell.(string); ok && strings.TrimSpace(s) == "" {
				continue
			}
			rec[header[i]] = cell
		}
		if len(rec) > 0 {
			out = append(out, rec)
		}
	}
	return out
}
