package archive

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

func encodePayload(r Record) ([]byte, error) {
	b, err := json.Marshal(payload{Round: r.Round, Log: r.Log, Tricks: r.Tricks})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %v", err)
	}

	compressed := bytes.NewBuffer(nil)
	w, err := zstd.NewWriter(compressed, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd writer: %v", err)
	}
	if _, err := w.Write(b); err != nil {
		return nil, fmt.Errorf("failed to compress payload: %v", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to close zstd writer: %v", err)
	}
	return compressed.Bytes(), nil
}

func decodePayload(data []byte, r *Record) error {
	zr, err := zstd.NewReader(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create zstd reader: %v", err)
	}
	defer zr.Close()
	b, err := io.ReadAll(zr)
	if err != nil {
		return fmt.Errorf("failed to read decompressed payload: %v", err)
	}

	var p payload
	if err := json.Unmarshal(b, &p); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %v", err)
	}
	r.Round = p.Round
	r.Log = p.Log
	r.Tricks = p.Tricks
	return nil
}
