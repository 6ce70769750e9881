package docdb

import (
	"encoding/hex"
	"encoding/binary"
	"fmt"
	"strings"
)

// Tuple is an index key. Components are strings, integers or Inf.
type Tuple []any

type infinity struct{}

// Inf sorts above every other component.
var Inf = infinity{}

// T builds a tuple.
func T(parts ...any) Tuple { return Tuple(parts) }

const (
	tagInt    byte = 0x02
	tagString byte = 0x03
	tagInf    byte = 0xff
	term      byte = 0x00
	escape    byte = 0x01
)

// Encode returns an order-preserving byte string for the tuple: comparing
// two encodings bytewise gives the same result as comparing the tuples
// component by component. A tuple sorts before any of its extensions.
func (t Tuple) Encode() string {
	var b strings.Builder
	for _, p := range t {
		switch v := p.(type) {
		case string:
			b.WriteByte(tagString)
			for i := 0; i < len(v); i++ {
				switch c := v[i]; c {
				case 0x00:
					b.WriteByte(escape)
					b.WriteByte(0x01)
				case 0x01:
					b.WriteByte(escape)
					b.WriteByte(0x02)
				default:
					b.WriteByte(c)
				}
			}
		case int64:
			writeInt(&b, v)
		case int:
			writeInt(&b, int64(v))
		case infinity:
			b.WriteByte(tagInf)
		default:
			b.WriteByte(tagString)
			b.WriteString(fmt.Sprint(v))
		}
		b.WriteByte(term)
	}
	return b.String()
}

func writeInt(b *strings.Builder, v int64) {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(v)^(1<<63))
	b.WriteByte(tagInt)
	b.WriteString(hex.EncodeToString(buf[:]))
}

// DecodeTuple reverses Encode.
func DecodeTuple(s string) (Tuple, error) {
	var out Tuple
	for i := 0; i < len(s); {
		tag := s[i]
		i++
		switch tag {
		case tagString:
			var b strings.Builder
			for ; i < len(s) && s[i] != term; i++ {
				if s[i] == escape {
					if i+1 >= len(s) {
						return nil, fmt.Errorf("truncated escape at %d", i)
					}
					i++
					b.WriteByte(s[i] - 1)
					continue
				}
				b.WriteByte(s[i])
			}
			out = append(out, b.String())
		case tagInt:
			if i+16 > len(s) {
				return nil, fmt.Errorf("truncated integer at %d", i)
			}
			raw, err := hex.DecodeString(s[i : i+16])
			if err != nil {
				return nil, fmt.Errorf("bad integer at %d: %w", i, err)
			}
			out = append(out, int64(binary.BigEndian.Uint64(raw)^(1<<63)))
			i += 16
		case tagInf:
			out = append(out, Inf)
		default:
			return nil, fmt.Errorf("unknown tag 0x%02x at %d", tag, i-1)
		}
		if i >= len(s) || s[i] != term {
			return nil, fmt.Errorf("missing terminator at %d", i)
		}
		i++
	}
	return out, nil
}
