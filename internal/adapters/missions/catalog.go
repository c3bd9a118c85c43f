// Package missions carga el catálogo de misiones del modo carrera desde YAML.
package missions

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/alejandrodnm/tradequest/internal/domain"
	"gopkg.in/yaml.v3"
)

// ErrNotFound se devuelve cuando el ID no está en el catálogo.
var ErrNotFound = errors.New("mission not found")

type conditionYAML struct {
	Type  string  `yaml:"type"`
	Value float64 `yaml:"value"`
}

type rewardYAML struct {
	Type  string  `yaml:"type"`
	Value float64 `yaml:"value"`
	ID    string  `yaml:"id"`
}

type missionYAML struct {
	ID              string          `yaml:"id"`
	Title           string          `yaml:"title"`
	Description     string          `yaml:"description"`
	Symbol          string          `yaml:"symbol"`
	StartingBalance float64         `yaml:"starting_balance"`
	StartIndex      *int            `yaml:"start_index"`
	Conditions      []conditionYAML `yaml:"conditions"`
	Rewards         []rewardYAML    `yaml:"rewards"`
}

type catalogYAML struct {
	Missions []missionYAML `yaml:"missions"`
}

// Catalog implementa ports.MissionProvider sobre un catálogo ya cargado.
type Catalog struct {
	missions []domain.Mission
	byID     map[string]int
}

// Parse decodifica y valida un catálogo YAML. IDs duplicados, condiciones
// desconocidas y recompensas mal formadas son error.
func Parse(data []byte) (*Catalog, error) {
	var doc catalogYAML
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("missions.Parse: %w", err)
	}

	c := &Catalog{byID: make(map[string]int, len(doc.Missions))}
	for _, my := range doc.Missions {
		m, err := my.toDomain()
		if err != nil {
			return nil, fmt.Errorf("missions.Parse: %w", err)
		}
		if err := m.Validate(); err != nil {
			return nil, fmt.Errorf("missions.Parse: %w", err)
		}
		if _, dup := c.byID[m.ID]; dup {
			return nil, fmt.Errorf("missions.Parse: duplicate mission id %q", m.ID)
		}
		c.byID[m.ID] = len(c.missions)
		c.missions = append(c.missions, m)
	}
	return c, nil
}

// Load lee y parsea el catálogo desde disco.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("missions.Load: read %q: %w", path, err)
	}
	return Parse(data)
}

func (my missionYAML) toDomain() (domain.Mission, error) {
	m := domain.Mission{
		ID:              my.ID,
		Title:           my.Title,
		Description:     my.Description,
		Symbol:          my.Symbol,
		StartingBalance: my.StartingBalance,
		StartIndex:      my.StartIndex,
	}
	for _, c := range my.Conditions {
		m.Conditions = append(m.Conditions, domain.MissionWinCondition{Type: domain.ConditionType(c.Type), Value: c.Value})
	}
	for i, r := range my.Rewards {
		rw := domain.MissionReward{Type: domain.RewardType(r.Type), Value: r.Value, ID: r.ID}
		switch rw.Type {
		case domain.RewardXP, domain.RewardCash:
			if rw.Value <= 0 {
				return m, fmt.Errorf("mission %s: reward %d: %s needs a positive value", my.ID, i, r.Type)
			}
		case domain.RewardBadge:
			if rw.ID == "" {
				return m, fmt.Errorf("mission %s: reward %d: badge needs an id", my.ID, i)
			}
		default:
			return m, fmt.Errorf("mission %s: reward %d: unknown type %q", my.ID, i, r.Type)
		}
		m.Rewards = append(m.Rewards, rw)
	}
	return m, nil
}

// Missions devuelve una copia del catálogo en orden de fichero.
func (c *Catalog) Missions(_ context.Context) ([]domain.Mission, error) {
	return append([]domain.Mission(nil), c.missions...), nil
}

// Mission busca una misión por ID.
func (c *Catalog) Mission(_ context.Context, id string) (domain.Mission, error) {
	i, ok := c.byID[id]
	if !ok {
		return domain.Mission{}, fmt.Errorf("missions.Mission: %q: %w", id, ErrNotFound)
	}
	return c.missions[i], nil
}
