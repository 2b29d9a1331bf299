package clients

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/AngelCh415/recho/internal/models"
)

var ErrUnknownClient = errors.New("unknown client")

var defaults = []models.Client{
	{ID: "acme-corp", Name: "Acme Corp", Industry: "SaaS", Factor: 1},
	{ID: "globex-inc", Name: "Globex Inc", Industry: "E-Commerce", Factor: 0.72},
}

type Registry struct {
	byID map[string]models.Client
}

func Default() *Registry { return New(defaults) }

func New(list []models.Client) *Registry {
	r := &Registry{byID: make(map[string]models.Client, len(list))}
	for _, c := range list {
		c.ID = strings.TrimSpace(c.ID)
		if c.ID == "" {
			continue
		}
		if c.Factor <= 0 {
			c.Factor = 1
		}
		r.byID[c.ID] = c
	}
	return r
}

type fileFormat struct {
	Clients []models.Client `yaml:"clients"`
}

// LoadFile reads a YAML client list. An empty path returns the defaults.
func LoadFile(path string) (*Registry, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read clients file: %w", err)
	}
	var f fileFormat
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse clients file: %w", err)
	}
	if len(f.Clients) == 0 {
		return nil, errors.New("clients file has no clients")
	}
	return New(f.Clients), nil
}

func (r *Registry) Get(id string) (models.Client, error) {
	c, ok := r.byID[id]
	if !ok {
		return models.Client{}, fmt.Errorf("%w: %q", ErrUnknownClient, id)
	}
	return c, nil
}

// Factor is the per-client scale applied to mock data. Unknown ids scale by 1.
func (r *Registry) Factor(id string) float64 {
	if c, ok := r.byID[id]; ok {
		return c.Factor
	}
	return 1
}

func (r *Registry) List() []models.Client {
	out := make([]models.Client, 0, len(r.byID))
	for _, c := range r.byID {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
