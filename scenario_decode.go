package paneprobe

import (
	"encoding/json"
	"fmt"

	"github.com/paneprobe/paneprobe/scenario"
)

func scenarioDecode(typeName string, config json.RawMessage) (scenario.Scenario, error) {
	switch typeName {
	case scenario.TypeBurst:
		return scenario.NewBurst(config)
	case scenario.TypeConcurrent:
		return scenario.NewConcurrent(config)
	case scenario.TypeOversized:
		return scenario.NewOversized(config)
	case scenario.TypeContended:
		return scenario.NewContended(config)
	case scenario.TypeHostLoad:
		return scenario.NewHostLoad(config)
	case scenario.TypeSweep:
		return scenario.NewSweep(config)
	default:
		return nil, fmt.Errorf(errUnknownScenarioType, typeName)
	}
}
