package seed

import (
	"context"
	"embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/pulsecrm-backend/internal/crm"
	"github.com/yungbote/pulsecrm-backend/internal/pkg/logger"
	"github.com/yungbote/pulsecrm-backend/internal/provider"
	"github.com/yungbote/pulsecrm-backend/internal/types"
)

const seedPathEnv = "SEED_PATH"

//go:embed seed.yaml
var defaultSeedFS embed.FS

type seedSpec struct {
	Resources map[string][]types.Record `yaml:"resources"`
}

// Loader plays starter records through the lifecycle-wrapped provider,
// so seeded data carries the same derived fields, counters and audit
// entries as records created through the API.
type Loader struct {
	log *logger.Logger
	dp  provider.DataProvider
}

func NewLoader(log *logger.Logger, dp provider.DataProvider) *Loader {
	return &Loader{
		log: log.With("service", "SeedLoader"),
		dp:  dp,
	}
}

// Apply creates every seed record in resource dependency order. It is a
// no-op when the store already holds sales, so restarts against a
// persistent backend do not duplicate data.
func (l *Loader) Apply(ctx context.Context) error {
	spec, err := loadSeedSpec()
	if err != nil {
		return fmt.Errorf("load seed: %w", err)
	}

	page, err := l.dp.GetList(ctx, crm.ResourceSales, provider.GetListParams{
		Pagination: provider.Pagination{Page: 1, PerPage: 1},
	})
	if err != nil {
		return fmt.Errorf("probe existing data: %w", err)
	}
	if page.Total > 0 {
		l.log.Info("Store already holds sales, skipping seed", "sales", page.Total)
		return nil
	}

	created := 0
	for _, resource := range crm.Resources() {
		for _, rec := range spec.Resources[resource] {
			if _, err := l.dp.Create(ctx, resource, provider.CreateParams{Data: rec.Clone()}); err != nil {
				return fmt.Errorf("seed %s record %q: %w", resource, rec.ID(), err)
			}
			created++
		}
	}
	l.log.Info("Seed applied", "records", created)
	return nil
}

func loadSeedSpec() (*seedSpec, error) {
	data, err := readSeedBytes()
	if err != nil {
		return nil, err
	}
	var spec seedSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, err
	}
	if err := validateSeedSpec(&spec); err != nil {
		return nil, err
	}
	return &spec, nil
}

func readSeedBytes() ([]byte, error) {
	if path := strings.TrimSpace(os.Getenv(seedPathEnv)); path != "" {
		return os.ReadFile(path)
	}
	return defaultSeedFS.ReadFile("seed.yaml")
}

func validateSeedSpec(spec *seedSpec) error {
	if spec == nil || len(spec.Resources) == 0 {
		return fmt.Errorf("seed defines no resources")
	}
	for resource, records := range spec.Resources {
		if !crm.KnownResource(resource) {
			return fmt.Errorf("unknown resource %q", resource)
		}
		seen := map[string]bool{}
		for i, rec := range records {
			if len(rec) == 0 {
				return fmt.Errorf("%s[%d]: empty record", resource, i)
			}
			if !rec.Has("id") {
				continue
			}
			id, ok := rec["id"].(string)
			if !ok || strings.TrimSpace(id) == "" {
				return fmt.Errorf("%s[%d]: id must be a non-empty string", resource, i)
			}
			if seen[id] {
				return fmt.Errorf("%s[%d]: duplicate id %q", resource, i, id)
			}
			seen[id] = true
		}
	}
	return nil
}
