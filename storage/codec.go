package storage

import (
	"errors"
	"fmt"

	"github.com/bytedance/sonic"

	"taskboard/domain"
)

// ErrCorruptSnapshot wraps every reason a stored payload is rejected.
var ErrCorruptSnapshot = errors.New("corrupt snapshot")

var codec = sonic.ConfigStd

// Encode serializes b as the snapshot document. Map keys are sorted so equal
// boards encode to equal bytes. Boards Decode would reject are refused.
func Encode(b domain.Board) ([]byte, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return codec.Marshal(b)
}

// Decode parses a snapshot document and checks the board invariants.
func Decode(data []byte) (domain.Board, error) {
	if len(data) == 0 {
		return domain.Board{}, fmt.Errorf("%w: empty payload", ErrCorruptSnapshot)
	}
	var b domain.Board
	if err := codec.Unmarshal(data, &b); err != nil {
		return domain.Board{}, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	if err := b.Validate(); err != nil {
		return domain.Board{}, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	for id, c := range b.Columns {
		if c.Tasks == nil {
			c.Tasks = []domain.Task{}
			b.Columns[id] = c
		}
	}
	return b, nil
}
