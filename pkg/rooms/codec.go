package rooms

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/duelist-dev/duelcore/pkg/battle"
	"github.com/klauspost/compress/zstd"
)

// encodeRoom serializes a room aggregate to a zstd-compressed JSON blob for
// storage.
func encodeRoom(room *battle.Room) ([]byte, error) {
	b, err := json.Marshal(room)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal room: %v", err)
	}

	compressed := bytes.NewBuffer(nil)
	compWriter, err := zstd.NewWriter(compressed, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd writer: %v", err)
	}
	if _, err := compWriter.Write(b); err != nil {
		return nil, fmt.Errorf("failed to compress room: %v", err)
	}
	if err := compWriter.Close(); err != nil {
		return nil, fmt.Errorf("failed to close zstd writer: %v", err)
	}

	return compressed.Bytes(), nil
}

// decodeRoom deserializes a stored room blob.
func decodeRoom(data []byte) (*battle.Room, error) {
	compReader, err := zstd.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd reader: %v", err)
	}
	defer compReader.Close()

	b, err := io.ReadAll(compReader)
	if err != nil {
		return nil, fmt.Errorf("failed to read decompressed room: %v", err)
	}

	room := &battle.Room{}
	if err := json.Unmarshal(b, room); err != nil {
		return nil, fmt.Errorf("failed to unmarshal room: %v", err)
	}

	return room, nil
}
