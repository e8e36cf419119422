package remote

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"project-tracker/internal/cache"
	"project-tracker/internal/config"
	"project-tracker/internal/log"
	"project-tracker/internal/normalize"
)

// MasterData are the admin-managed vocabularies.
type MasterData struct {
	Teams      []string `json:"teams"`
	Projects   []string `json:"projects"`
	Owners     []string `json:"owners"`
	Categories []string `json:"categories"`
	// Fallback lists which of the vocabularies came from configuration.
	Fallback []string `json:"fallback,omitempty"`
}

type masterList struct {
	action     string
	nameField  string
	activeOnly bool
}

var (
	teamsList    = masterList{action: "getTeams", nameField: "teamName", activeOnly: true}
	projectsList = masterList{action: "getProjects", nameField: "projectName"}
	ownersList   = masterList{action: "getOwners", nameField: "ownerName", activeOnly: true}
)

// MasterDataServiceConfig is the configuration of MasterDataService.
type MasterDataServiceConfig struct {
	Client   *Client
	Fallback config.Vocabulary
	TTL      time.Duration
	Cache    cache.Cache[string, []string]
	Logger   log.Logger
}

func (c *MasterDataServiceConfig) defaults() error {
	if c.TTL <= 0 {
		c.TTL = 5 * time.Minute
	}
	if c.Cache == nil {
		c.Cache = cache.NewTTLCache[string, []string]()
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "remote.MasterDataService"})
	return nil
}

// MasterDataService fetches the vocabularies, caching them and falling back to
// the configured lists when the remote is unavailable. A nil Client always uses
// the fallback lists.
type MasterDataService struct {
	client   *Client
	fallback config.Vocabulary
	ttl      time.Duration
	cache    cache.Cache[string, []string]
	logger   log.Logger
}

// NewMasterDataService returns a MasterDataService.
func NewMasterDataService(cfg MasterDataServiceConfig) (*MasterDataService, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid master data config: %w", err)
	}
	return &MasterDataService{
		client:   cfg.Client,
		fallback: cfg.Fallback,
		ttl:      cfg.TTL,
		cache:    cfg.Cache,
		logger:   cfg.Logger,
	}, nil
}

// Get returns the vocabularies. It never fails: unavailable lists are replaced
// by their configured fallback.
func (s *MasterDataService) Get(ctx context.Context, offline bool) MasterData {
	md := MasterData{Categories: s.fallback.Categories}
	if s.client == nil || offline {
		md.Teams, md.Projects, md.Owners = s.fallback.Teams, s.fallback.Projects, s.fallback.Owners
		md.Fallback = []string{"teams", "projects", "owners"}
		return md
	}

	var (
		teams, projects, owners []string
		failed                  [3]bool
	)
	g, gctx := errgroup.WithContext(ctx)
	fetch := func(i int, l masterList, dst *[]string) {
		g.Go(func() error {
			v, err := s.cache.GetOrLoad(gctx, l.action, s.ttl, func(ctx context.Context) ([]string, error) {
				return s.list(ctx, l)
			})
			if err != nil {
				s.logger.Warningf("could not fetch %s: %s", l.action, err)
				failed[i] = true
				return nil
			}
			*dst = v
			return nil
		})
	}
	fetch(0, teamsList, &teams)
	fetch(1, projectsList, &projects)
	fetch(2, ownersList, &owners)
	_ = g.Wait()

	pick := func(failedList bool, got, fb []string, name string) []string {
		if failedList || len(got) == 0 {
			md.Fallback = append(md.Fallback, name)
			return fb
		}
		return got
	}
	md.Teams = pick(failed[0], teams, s.fallback.Teams, "teams")
	md.Projects = pick(failed[1], projects, s.fallback.Projects, "projects")
	md.Owners = pick(failed[2], owners, s.fallback.Owners, "owners")
	return md
}

// Invalidate drops the cached lists.
func (s *MasterDataService) Invalidate() {
	for _, l := range []masterList{teamsList, projectsList, ownersList} {
		s.cache.Delete(l.action)
	}
}

func (s *MasterDataService) list(ctx context.Context, l masterList) ([]string, error) {
	doc, err := s.client.get(ctx, l.action)
	if err != nil {
		return nil, err
	}
	records, err := rows(doc)
	if err != nil {
		return nil, err
	}

	out := []string{}
	for _, r := range records {
		if l.activeOnly && !active(r["isActive"]) {
			continue
		}
		name := normalize.AsString(r[l.nameField])
		if name == "" {
			name = normalize.AsString(r["name"])
		}
		if name != "" {
			out = append(out, name)
		}
	}
	return out, nil
}

func active(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return t == "TRUE" || t == "true"
	}
	return false
}
