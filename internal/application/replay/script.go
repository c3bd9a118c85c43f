package replay

import (
	"errors"
	"fmt"
	"math"
	"os"
	"sort"

	"github.com/alejandrodnm/tradequest/internal/application/session"
	"github.com/alejandrodnm/tradequest/internal/domain"
	"gopkg.in/yaml.v3"
)

// ErrInvalidStep marca un paso de script que no se puede convertir en acción.
var ErrInvalidStep = errors.New("invalid script step")

// Nombres de acción aceptados en un script.
const (
	StepOpenLong  = "open_long"
	StepOpenShort = "open_short"
	StepClose     = "close"
	StepSellHalf  = "sell_half"
	StepCloseAll  = "close_all"
	StepLeverage  = "leverage"
	StepSpeed     = "speed"
	StepPause     = "pause"
	StepResume    = "resume"
	StepToggle    = "toggle"
	StepEnd       = "end"
)

// Step es una acción programada para el beat At del driver.
type Step struct {
	At     int     `yaml:"at"`
	Action string  `yaml:"action"`
	Value  float64 `yaml:"value,omitempty"`
}

// ToAction convierte el paso en la acción de sesión correspondiente.
func (s Step) ToAction() (session.Action, error) {
	switch s.Action {
	case StepOpenLong:
		return session.Open{Side: domain.SideLong}, nil
	case StepOpenShort:
		return session.Open{Side: domain.SideShort}, nil
	case StepClose:
		return session.Close{}, nil
	case StepSellHalf:
		return session.SellHalf{}, nil
	case StepCloseAll:
		return session.CloseAll{}, nil
	case StepLeverage:
		if s.Value != math.Trunc(s.Value) {
			return nil, fmt.Errorf("step at %d: leverage %v: %w", s.At, s.Value, ErrInvalidStep)
		}
		return session.SetLeverage{Leverage: domain.Leverage(s.Value)}, nil
	case StepSpeed:
		return session.SetSpeed{Speed: s.Value}, nil
	case StepPause:
		return session.Pause{}, nil
	case StepResume:
		return session.Resume{}, nil
	case StepToggle:
		return session.TogglePlay{}, nil
	case StepEnd:
		return session.EndGame{}, nil
	}
	return nil, fmt.Errorf("step at %d: action %q: %w", s.At, s.Action, ErrInvalidStep)
}

// Script es una lista de pasos ordenada por At (estable: mismo At, orden del fichero).
type Script struct {
	Steps []Step
}

// ParseScript decodifica un script YAML: una lista de {at, action, value}.
func ParseScript(data []byte) (Script, error) {
	var steps []Step
	if err := yaml.Unmarshal(data, &steps); err != nil {
		return Script{}, fmt.Errorf("replay.ParseScript: %w", err)
	}
	for _, st := range steps {
		if st.At < 0 {
			return Script{}, fmt.Errorf("replay.ParseScript: step at %d: negative beat: %w", st.At, ErrInvalidStep)
		}
		if _, err := st.ToAction(); err != nil {
			return Script{}, fmt.Errorf("replay.ParseScript: %w", err)
		}
	}
	sort.SliceStable(steps, func(i, j int) bool { return steps[i].At < steps[j].At })
	return Script{Steps: steps}, nil
}

// LoadScript lee y parsea un script desde disco.
func LoadScript(path string) (Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Script{}, fmt.Errorf("replay.LoadScript: read %q: %w", path, err)
	}
	return ParseScript(data)
}
