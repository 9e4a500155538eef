package main

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"os"

	"github.com/natefinch/atomic"

	"github.com/tty-sync/cellsync/pkg/syrup"
)

// Dump file layout: a CRC32C-checked wrapper around one encoded cell-frame
// record (§6.1). The trailer-CRC placement (checksum after the payload
// rather than embedded mid-header) avoids the zero-then-checksum dance a
// mid-header CRC field would need.
//
//	magic[4] "CSD1" | version uint32 | payload_len uint32 | payload | crc32c uint32
const (
	dumpMagic      = "CSD1"
	dumpVersion    = 1
	dumpHeaderSize = 4 + 4 + 4
)

var crc32cTable = crc32.MakeTable(crc32.Castagnoli)

// dumpSnapshot atomically writes frame (a syrup cell-frame record) to path,
// wrapped in the CRC32C-checked dump format.
func dumpSnapshot(path string, frame syrup.Value) error {
	frameBytes, err := syrup.Encode(frame)
	if err != nil {
		return fmt.Errorf("encoding frame: %w", err)
	}

	return atomic.WriteFile(path, bytes.NewReader(buildDump(frameBytes)))
}

// loadDump reads and integrity-checks a dump file, returning the decoded
// cell-frame record.
func loadDump(path string) (syrup.Value, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return syrup.Value{}, err
	}

	frameBytes, err := parseDump(data)
	if err != nil {
		return syrup.Value{}, err
	}

	return syrup.Decode(frameBytes)
}

func buildDump(payload []byte) []byte {
	header := make([]byte, 0, dumpHeaderSize)
	header = append(header, dumpMagic...)
	header = binary.BigEndian.AppendUint32(header, dumpVersion)
	header = binary.BigEndian.AppendUint32(header, uint32(len(payload)))

	body := append(header, payload...)
	sum := crc32.Checksum(body, crc32cTable)

	return binary.BigEndian.AppendUint32(body, sum)
}

func parseDump(data []byte) ([]byte, error) {
	if len(data) < dumpHeaderSize+4 {
		return nil, errDumpTooShort
	}

	if string(data[0:4]) != dumpMagic {
		return nil, fmt.Errorf("%w: bad magic", errDumpCorrupt)
	}

	payloadLen := int(binary.BigEndian.Uint32(data[8:12]))
	if dumpHeaderSize+payloadLen+4 != len(data) {
		return nil, fmt.Errorf("%w: length mismatch", errDumpCorrupt)
	}

	body := data[:dumpHeaderSize+payloadLen]
	storedCRC := binary.BigEndian.Uint32(data[len(data)-4:])

	if crc32.Checksum(body, crc32cTable) != storedCRC {
		return nil, errDumpCorrupt
	}

	return data[dumpHeaderSize : dumpHeaderSize+payloadLen], nil
}
