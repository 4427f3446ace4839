package transcript

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/view-avocats/assistant/internal/domain"
	"github.com/view-avocats/assistant/internal/domain/turn"
)

// turnRow is the JSON representation of a turn in the transcript list.
type turnRow struct {
	ID        string `json:"id"`
	Role      string `json:"role"`
	Text      string `json:"text"`
	Status    string `json:"status"`
	CreatedAt int64  `json:"created_at"` // unix millis
}

func turnToJSON(t turn.Turn) ([]byte, error) {
	data, err := json.Marshal(turnRow{
		ID:        t.ID(),
		Role:      string(t.Role()),
		Text:      t.Text(),
		Status:    string(t.Status()),
		CreatedAt: t.CreatedAt().UnixMilli(),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal turn: %w", err)
	}
	return data, nil
}

func turnFromJSON(data []byte) (turn.Turn, error) {
	var r turnRow
	if err := json.Unmarshal(data, &r); err != nil {
		return turn.Turn{}, fmt.Errorf("unmarshal turn: %w", err)
	}
	return turn.Reconstruct(
		r.ID, domain.Role(r.Role), r.Text, turn.Status(r.Status),
		time.UnixMilli(r.CreatedAt).UTC(),
	), nil
}
