// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package store

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
)

// RecordData is the on-disk schema of one record. Both codecs encode the
// same logical value: an ordered sequence of these.
type RecordData struct {
	ID               uint64  `json:"id"`
	URL              *string `json:"url"`
	LatestCommitDate *int64  `json:"latest_commit_date"`
	CommitCount      *uint64 `json:"number_of_commits"`
	CommitterCount   *uint64 `json:"number_of_commiters"`
}

// ErrChecksumMismatch indicates a binary cache whose payload does not match
// its checksum.
var ErrChecksumMismatch = errors.New("cache checksum mismatch")

// Codec encodes and decodes a whole record sequence. The codec is a
// construction-time choice of the Store; it affects only on-disk bytes,
// never in-memory behavior. Any decode failure is treated uniformly by the
// caller: the file is considered corrupt and rebuilt from scratch.
type Codec interface {
	Encode(w io.Writer, records []RecordData) error
	Decode(r io.Reader) ([]RecordData, error)

	// Ext returns the file extension for this codec, without the dot.
	Ext() string
}

// CodecFor maps a format name ("json", "binary") to a codec.
// Unknown names return nil.
func CodecFor(name string) Codec {
	switch name {
	case "json":
		return JSONCodec{}
	case "binary":
		return BinaryCodec{}
	default:
		return nil
	}
}

// JSONCodec is the self-describing text format: an indented JSON array of
// record objects with explicit nulls for uncomputed fields.
type JSONCodec struct{}

// Encode writes the records as indented JSON.
func (JSONCodec) Encode(w io.Writer, records []RecordData) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("encode json cache: %w", err)
	}
	return nil
}

// Decode reads a JSON record array.
func (JSONCodec) Decode(r io.Reader) ([]RecordData, error) {
	var records []RecordData
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode json cache: %w", err)
	}
	return records, nil
}

// Ext returns "json".
func (JSONCodec) Ext() string { return "json" }

// BinaryCodec is the compact binary format: a gob-encoded record slice
// framed with a CRC32 checksum.
//
// Frame layout: [4-byte big-endian CRC32 of the gob bytes][gob bytes].
// A truncated file, a flipped bit, or a schema mismatch all surface as a
// decode error, which the store treats as corruption.
type BinaryCodec struct{}

// Encode writes the CRC-framed gob encoding of the records.
func (BinaryCodec) Encode(w io.Writer, records []RecordData) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(records); err != nil {
		return fmt.Errorf("encode binary cache: %w", err)
	}

	var crc [4]byte
	binary.BigEndian.PutUint32(crc[:], crc32.ChecksumIEEE(buf.Bytes()))
	if _, err := w.Write(crc[:]); err != nil {
		return fmt.Errorf("write cache checksum: %w", err)
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write cache payload: %w", err)
	}
	return nil
}

// Decode verifies the checksum and decodes the gob payload.
func (BinaryCodec) Decode(r io.Reader) ([]RecordData, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read binary cache: %w", err)
	}
	if len(data) < 4 {
		return nil, fmt.Errorf("binary cache truncated: %d bytes", len(data))
	}

	want := binary.BigEndian.Uint32(data[:4])
	payload := data[4:]
	if got := crc32.ChecksumIEEE(payload); got != want {
		return nil, fmt.Errorf("%w: got %08x, want %08x", ErrChecksumMismatch, got, want)
	}

	var records []RecordData
	if err := gob.NewDecoder(bytes.NewReader(payload)).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode binary cache: %w", err)
	}
	return records, nil
}

// Ext returns "bin".
func (BinaryCodec) Ext() string { return "bin" }
