package embcache

import (
	"encoding/binary"
	"fmt"
	"math"
)

// encode packs vec as little-endian float32s, the layout Redis vector fields use.
func encode(vec []float32) []byte {
	out := make([]byte, 0, len(vec)*4)
	for _, f := range vec {
		out = binary.LittleEndian.AppendUint32(out, math.Float32bits(f))
	}
	return out
}

func decode(raw []byte) ([]float32, error) {
	if len(raw)%4 != 0 {
		return nil, fmt.Errorf("cached embedding is %d bytes, not a float32 multiple", len(raw))
	}
	vec := make([]float32, 0, len(raw)/4)
	for off := 0; off < len(raw); off += 4 {
		vec = append(vec, math.Float32frombits(binary.LittleEndian.Uint32(raw[off:])))
	}
	return vec, nil
}
