// Package config holds the tracker runtime settings and the lookup tables that are
// injected into the converter, the derived-state engine and the renderers.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"project-tracker/internal/models"
)

// Source kinds the controller can load from.
const (
	SourceAPI    = "api"
	SourceSheets = "sheets"
)

// Runtime are the process settings, set by flags/env.
type Runtime struct {
	ListenAddress     string
	DBPath            string
	RemoteURL         string
	Source            string
	Timezone          string
	RemoteTimeout     time.Duration
	ReconcileDelay    time.Duration
	OutboxInterval    time.Duration
	OutboxMaxAttempts int
	MasterDataTTL     time.Duration
	SettingsFile      string

	SheetsID          string
	SheetsCredentials string
	SheetsAPIKey      string
}

// Palette maps classification values to display colors and labels.
type Palette struct {
	TeamColors    map[string]string `yaml:"team_colors" toml:"team_colors" json:"teamColors"`
	FallbackColor string            `yaml:"fallback_color" toml:"fallback_color" json:"fallbackColor"`
	StatusLabels  map[string]string `yaml:"status_labels" toml:"status_labels" json:"statusLabels"`
	UrgentLabel   string            `yaml:"urgent_label" toml:"urgent_label" json:"urgentLabel"`
}

// TeamColor returns the color of a team or the fallback color.
func (p Palette) TeamColor(team string) string {
	if c, ok := p.TeamColors[team]; ok {
		return c
	}
	return p.FallbackColor
}

// StatusLabel returns the badge label of a status, the raw status when unknown.
func (p Palette) StatusLabel(s models.TaskStatus) string {
	if l, ok := p.StatusLabels[string(s)]; ok {
		return l
	}
	return string(s)
}

// Vocabulary are the fallback master-data lists used when the remote lists are
// unavailable.
type Vocabulary struct {
	Teams      []string `yaml:"teams" toml:"teams" json:"teams"`
	Projects   []string `yaml:"projects" toml:"projects" json:"projects"`
	Owners     []string `yaml:"owners" toml:"owners" json:"owners"`
	Categories []string `yaml:"categories" toml:"categories" json:"categories"`
}

// ConverterDefaults are the values the import conversion falls back to.
type ConverterDefaults struct {
	Team               string   `yaml:"team" toml:"team"`
	Owner              string   `yaml:"owner" toml:"owner"`
	Category           string   `yaml:"category" toml:"category"`
	CheckpointKeywords []string `yaml:"checkpoint_keywords" toml:"checkpoint_keywords"`
}

// Settings is the content of the optional settings file.
type Settings struct {
	Palette    Palette           `yaml:"palette" toml:"palette"`
	Vocabulary Vocabulary        `yaml:"vocabulary" toml:"vocabulary"`
	Converter  ConverterDefaults `yaml:"converter" toml:"converter"`
	// AccessKeys maps an access key (plain or bcrypt hash) to a permission tier.
	AccessKeys map[string]string `yaml:"access_keys" toml:"access_keys"`
}

// Config is the full tracker configuration.
type Config struct {
	Runtime
	Settings
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Runtime: Runtime{
			ListenAddress:     ":8008",
			DBPath:            "project-tracker.db",
			Source:            SourceAPI,
			Timezone:          "Asia/Taipei",
			RemoteTimeout:     8 * time.Second,
			ReconcileDelay:    time.Second,
			OutboxInterval:    5 * time.Second,
			OutboxMaxAttempts: 5,
			MasterDataTTL:     5 * time.Minute,
		},
		Settings: DefaultSettings(),
	}
}

// DefaultSettings returns the built-in lookup tables.
func DefaultSettings() Settings {
	return Settings{
		Palette: Palette{
			TeamColors: map[string]string{
				"晶片":    "#3b82f6",
				"機構":    "#8b5cf6",
				"軟體":    "#10b981",
				"電控":    "#f59e0b",
				"流道":    "#06b6d4",
				"生醫":    "#ec4899",
				"QA":    "#6366f1",
				"管理":    "#84cc16",
				"issue": "#ef4444",
			},
			FallbackColor: "#64748b",
			StatusLabels: map[string]string{
				string(models.StatusTodo):       "Todo",
				string(models.StatusInProgress): "In progress",
				string(models.StatusPending):    "On hold",
				string(models.StatusDone):       "Done",
				string(models.StatusClosed):     "Won't do",
				string(models.StatusDelayed):    "Delayed",
			},
			UrgentLabel: "Urgent",
		},
		Vocabulary: Vocabulary{
			Teams:      []string{"晶片", "機構", "軟體", "電控", "流道", "生醫", "QA", "管理", "issue"},
			Projects:   []string{"CKSX", "Jamstec", "Genentech", "5880 Chip", "Internal", "TBD", "Other"},
			Owners:     []string{"Unassigned"},
			Categories: []string{"Frontend", "Backend", "Database", "DevOps", "Testing", "Design", "Other"},
		},
		Converter: ConverterDefaults{
			Team:               "Other",
			Owner:              "Unassigned",
			Category:           "Unassigned",
			CheckpointKeywords: []string{"milestone", "里程碑", "checkpoint", "release", "發布", "review", "審查"},
		},
		AccessKeys: map[string]string{
			"cytesi-admin-2025-Q1":  "admin",
			"cytesi-editor-2025-Q1": "editor",
			"cytesi-viewer-2025-Q1": "viewer",
		},
	}
}

// LoadSettingsFile decodes a YAML or TOML settings file on top of the defaults.
// Tables present in the file replace the default tables entirely.
func LoadSettingsFile(path string) (Settings, error) {
	def := DefaultSettings()
	if path == "" {
		return def, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return def, fmt.Errorf("could not read settings file: %w", err)
	}

	var file Settings
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &file); err != nil {
			return def, fmt.Errorf("parsing YAML: %w", err)
		}
	case ".toml":
		if _, err := toml.Decode(string(data), &file); err != nil {
			return def, fmt.Errorf("parsing TOML: %w", err)
		}
	default:
		return def, fmt.Errorf("unsupported settings file extension %q", filepath.Ext(path))
	}

	return merge(def, file), nil
}

func merge(base, over Settings) Settings {
	if len(over.Palette.TeamColors) > 0 {
		base.Palette.TeamColors = over.Palette.TeamColors
	}
	if over.Palette.FallbackColor != "" {
		base.Palette.FallbackColor = over.Palette.FallbackColor
	}
	if len(over.Palette.StatusLabels) > 0 {
		for k, v := range over.Palette.StatusLabels {
			base.Palette.StatusLabels[k] = v
		}
	}
	if over.Palette.UrgentLabel != "" {
		base.Palette.UrgentLabel = over.Palette.UrgentLabel
	}
	if len(over.Vocabulary.Teams) > 0 {
		base.Vocabulary.Teams = over.Vocabulary.Teams
	}
	if len(over.Vocabulary.Projects) > 0 {
		base.Vocabulary.Projects = over.Vocabulary.Projects
	}
	if len(over.Vocabulary.Owners) > 0 {
		base.Vocabulary.Owners = over.Vocabulary.Owners
	}
	if len(over.Vocabulary.Categories) > 0 {
		base.Vocabulary.Categories = over.Vocabulary.Categories
	}
	if over.Converter.Team != "" {
		base.Converter.Team = over.Converter.Team
	}
	if over.Converter.Owner != "" {
		base.Converter.Owner = over.Converter.Owner
	}
	if over.Converter.Category != "" {
		base.Converter.Category = over.Converter.Category
	}
	if len(over.Converter.CheckpointKeywords) > 0 {
		base.Converter.CheckpointKeywords = over.Converter.CheckpointKeywords
	}
	if len(over.AccessKeys) > 0 {
		base.AccessKeys = over.AccessKeys
	}
	return base
}

// Location resolves the configured timezone, UTC when it can't be loaded.
func (r Runtime) Location() *time.Location {
	if r.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(r.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Validate checks the runtime settings are usable.
func (r Runtime) Validate() error {
	switch r.Source {
	case SourceAPI:
	case SourceSheets:
		if r.SheetsID == "" {
			return fmt.Errorf("sheets source requires a spreadsheet id")
		}
	default:
		return fmt.Errorf("unknown source %q", r.Source)
	}
	if r.RemoteTimeout <= 0 {
		return fmt.Errorf("remote timeout must be positive")
	}
	if r.OutboxMaxAttempts < 1 {
		return fmt.Errorf("outbox max attempts must be at least 1")
	}
	return nil
}
