package trace

import (
	"encoding/json"
	"fmt"

	"github.com/jorgecardleitao/private-jets-go/internal/position"
)

func encodePositions(positions []position.Position) ([]byte, error) {
	data, err := json.Marshal(positions)
	if err != nil {
		return nil, fmt.Errorf("trace: encoding positions: %w", err)
	}
	return data, nil
}

func decodePositions(icao string, data []byte) ([]position.Position, error) {
	var positions []position.Position
	if err := json.Unmarshal(data, &positions); err != nil {
		return nil, fmt.Errorf("trace: decoding positions: %w", err)
	}
	for i := range positions {
		positions[i].ICAO = icao
	}
	return positions, nil
}
