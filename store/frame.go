package store

import (
	"encoding/binary"
	"hash/crc32"
	"io"
)

const (
	// MagicByte marks the start of a frame.
	MagicByte = 0xA5
	// HeaderSize is the size of the frame header: magic byte, format version,
	// payload length and payload CRC32.
	HeaderSize = 10

	formatVersion = 0x01
)

// Error is the type of the errors of the package.
type Error string

func (e Error) Error() string {
	return string(e)
}

const (
	// ErrInvalidMagic is returned when data does not start with a frame.
	ErrInvalidMagic = Error("invalid magic byte")
	// ErrUnknownFormat is returned for frames of an unknown format version.
	ErrUnknownFormat = Error("unknown frame format")
	// ErrChecksumMismatch is returned when a payload does not match its checksum.
	ErrChecksumMismatch = Error("crc32 checksum mismatch")
	// ErrIncompleteFrame is returned when data ends before its frame does.
	ErrIncompleteFrame = Error("incomplete frame")
)

/*
WriteFrame writes the payload to w as a frame:
[magic(1)][version(1)][length(4)][crc32(4)][payload(length)],
with little endian integers.
*/
func WriteFrame(w io.Writer, payload []byte) error {
	header := make([]byte, HeaderSize)
	header[0] = MagicByte
	header[1] = formatVersion
	binary.LittleEndian.PutUint32(header[2:6], uint32(len(payload)))
	binary.LittleEndian.PutUint32(header[6:10], crc32.ChecksumIEEE(payload))
	if _, err := w.Write(header); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}

/*
ReadFrame reads a frame from r and returns its payload. It returns io.EOF if
r is exhausted before the frame starts.
*/
func ReadFrame(r io.Reader) ([]byte, error) {
	header := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, header); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, ErrIncompleteFrame
	}
	if header[0] != MagicByte {
		return nil, ErrInvalidMagic
	}
	if header[1] != formatVersion {
		return nil, ErrUnknownFormat
	}
	length := binary.LittleEndian.Uint32(header[2:6])
	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, ErrIncompleteFrame
	}
	if crc32.ChecksumIEEE(payload) != binary.LittleEndian.Uint32(header[6:10]) {
		return nil, ErrChecksumMismatch
	}
	return payload, nil
}
