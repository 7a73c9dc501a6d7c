// Package packet implements the application-layer packet format carried
// inside each hdlc I-frame payload: START (file metadata), DATA (a
// payload chunk), and END. See spec.md §3 and §4.4.
package packet

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Type tags the first byte of every packet.
type Type byte

const (
	TypeData  Type = 0x01
	TypeStart Type = 0x02
	TypeEnd   Type = 0x03
)

func (t Type) String() string {
	switch t {
	case TypeData:
		return "DATA"
	case TypeStart:
		return "START"
	case TypeEnd:
		return "END"
	default:
		return fmt.Sprintf("UNKNOWN(0x%02x)", byte(t))
	}
}

// TLV tags used in a START packet's body.
const (
	tagFileSize = 0x00
	tagFileName = 0x01
)

// MaxChunkSize is the largest payload a single DATA packet can carry:
// the 3-byte DATA header (type + 2-byte length) plus the chunk must fit
// inside hdlc.MaxPayload (255).
const MaxChunkSize = 252

var (
	// ErrShortPacket is returned when a packet is too short to contain
	// its fixed-size header.
	ErrShortPacket = errors.New("packet: too short")
	// ErrWrongType is returned by a Decode* function given a packet with
	// a different leading type byte.
	ErrWrongType = errors.New("packet: wrong type")
	// ErrMalformed is returned for a structurally invalid TLV or length
	// field.
	ErrMalformed = errors.New("packet: malformed body")
	// ErrChunkTooLarge is returned by EncodeData given a chunk over
	// MaxChunkSize bytes.
	ErrChunkTooLarge = errors.New("packet: chunk exceeds MaxChunkSize")
)

// EncodeStart builds a START packet: type 0x02, then a FILE_SIZE TLV
// (8-byte big-endian size) followed by a FILE_NAME TLV (NUL-terminated
// name), per spec.md §3/§4.4 ("Order: size then name").
func EncodeStart(size uint64, name string) []byte {
	out := make([]byte, 0, 1+2+8+2+len(name)+1)
	out = append(out, byte(TypeStart))

	out = append(out, tagFileSize, 8)
	var sz [8]byte
	binary.BigEndian.PutUint64(sz[:], size)
	out = append(out, sz[:]...)

	nameLen := len(name) + 1 // + NUL terminator
	out = append(out, tagFileName, byte(nameLen))
	out = append(out, name...)
	out = append(out, 0x00)

	return out
}

// DecodeStart parses a START packet built by EncodeStart.
func DecodeStart(data []byte) (size uint64, name string, err error) {
	if len(data) < 1 {
		return 0, "", ErrShortPacket
	}
	if Type(data[0]) != TypeStart {
		return 0, "", ErrWrongType
	}
	body := data[1:]

	var sawSize, sawName bool
	for len(body) > 0 {
		if len(body) < 2 {
			return 0, "", ErrMalformed
		}
		tag, length := body[0], int(body[1])
		body = body[2:]
		if len(body) < length {
			return 0, "", ErrMalformed
		}
		value := body[:length]
		body = body[length:]

		switch tag {
		case tagFileSize:
			if length != 8 {
				return 0, "", ErrMalformed
			}
			size = binary.BigEndian.Uint64(value)
			sawSize = true
		case tagFileName:
			if length == 0 || value[length-1] != 0x00 {
				return 0, "", ErrMalformed
			}
			name = string(value[:length-1])
			sawName = true
		default:
			// Unknown TLV: skip, forward-compatible.
		}
	}
	if !sawSize || !sawName {
		return 0, "", ErrMalformed
	}
	return size, name, nil
}

// EncodeData builds a DATA packet: type 0x01, a big-endian 16-bit
// length, then chunk verbatim.
func EncodeData(chunk []byte) ([]byte, error) {
	if len(chunk) > MaxChunkSize {
		return nil, ErrChunkTooLarge
	}
	out := make([]byte, 0, 3+len(chunk))
	out = append(out, byte(TypeData))
	out = append(out, byte(len(chunk)>>8), byte(len(chunk)))
	out = append(out, chunk...)
	return out, nil
}

// DecodeData parses a DATA packet built by EncodeData.
func DecodeData(data []byte) ([]byte, error) {
	if len(data) < 3 {
		return nil, ErrShortPacket
	}
	if Type(data[0]) != TypeData {
		return nil, ErrWrongType
	}
	length := int(data[1])<<8 | int(data[2])
	if len(data)-3 != length {
		return nil, ErrMalformed
	}
	chunk := make([]byte, length)
	copy(chunk, data[3:])
	return chunk, nil
}

// EncodeEnd builds the 1-byte END packet.
func EncodeEnd() []byte {
	return []byte{byte(TypeEnd)}
}

// DecodeType returns the type tag of any packet without validating its
// body, for routing in Receiver's main loop.
func DecodeType(data []byte) (Type, error) {
	if len(data) < 1 {
		return 0, ErrShortPacket
	}
	return Type(data[0]), nil
}
