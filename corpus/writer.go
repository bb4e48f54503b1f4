// Copyright 2025 The shapefuzz Authors
// This file is part of the shapefuzz library.
//
// The shapefuzz library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The shapefuzz library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the shapefuzz library. If not, see <http://www.gnu.org/licenses/>.

// Package corpus persists generated values as content-addressed files.
package corpus

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/log"
	"github.com/natefinch/atomic"
	"golang.org/x/crypto/sha3"

	"shapefuzz/metrics"
	"shapefuzz/shape"
)

// Entry is the JSON sidecar stored next to each raw corpus file.
type Entry struct {
	Type   string        `json:"type"`
	Size   int           `json:"size"`
	Endian string        `json:"endian"`
	Data   hexutil.Bytes `json:"data"`
}

// Writer persists encoded values into one directory. One Writer serves one
// output directory and byte order; it is safe to share across workers since
// entries are content-addressed and writes are atomic.
type Writer struct {
	dir   string
	order binary.ByteOrder
	log   log.Logger
}

// NewWriter creates the output directory if needed.
func NewWriter(dir string, order binary.ByteOrder, logger log.Logger) (*Writer, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create corpus directory %s: %v", dir, err)
	}
	if logger == nil {
		logger = log.Root()
	}
	return &Writer{dir: dir, order: order, log: logger}, nil
}

// Save encodes the value, names the entry after its content hash, and
// atomically writes the raw bytes plus a JSON sidecar. It returns the entry
// name.
func (w *Writer) Save(typeName string, v shape.Value) (string, error) {
	return w.SaveWithOrder(typeName, v, w.order)
}

// SaveWithOrder is Save with the byte order chosen per entry, for runs
// that randomize endianness.
func (w *Writer) SaveWithOrder(typeName string, v shape.Value, order binary.ByteOrder) (string, error) {
	data := shape.EncodeToBytes(v, order)
	name := entryName(typeName, data)

	if err := atomic.WriteFile(filepath.Join(w.dir, name+".bin"), bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("failed to write corpus entry %s: %v", name, err)
	}

	entry := Entry{
		Type:   typeName,
		Size:   len(data),
		Endian: endianName(order),
		Data:   data,
	}
	meta, err := json.MarshalIndent(&entry, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode corpus metadata for %s: %v", name, err)
	}
	if err := atomic.WriteFile(filepath.Join(w.dir, name+".json"), bytes.NewReader(meta)); err != nil {
		return "", fmt.Errorf("failed to write corpus metadata %s: %v", name, err)
	}

	metrics.CorpusEntries.Inc()
	metrics.EncodedBytes.Add(float64(len(data)))
	w.log.Debug("Saved corpus entry", "name", name, "size", len(data))
	return name, nil
}

// Dir returns the output directory.
func (w *Writer) Dir() string {
	return w.dir
}

// entryName content-addresses an entry: the type name plus the sha3-256 of
// its encoded bytes.
func entryName(typeName string, data []byte) string {
	h := sha3.New256()
	h.Write(data)
	return fmt.Sprintf("shapefuzz-%s-%x", typeName, h.Sum(nil)[:8])
}

func endianName(order binary.ByteOrder) string {
	if order == binary.LittleEndian {
		return "little"
	}
	return "big"
}
