package fingerprint

import (
	"encoding/binary"
	"fmt"
)

// EncodedLen is the byte length of a marshaled fingerprint.
const EncodedLen = Words * 8

// #region binary-codec
// MarshalBinary encodes the packed words little-endian.
func (f Fingerprint) MarshalBinary() ([]byte, error) {
	buf := make([]byte, EncodedLen)
	for i, w := range f.data {
		binary.LittleEndian.PutUint64(buf[i*8:], w)
	}
	return buf, nil
}

// UnmarshalBinary decodes the output of MarshalBinary. Blobs of the wrong
// length or with bits set beyond Bits are rejected.
func (f *Fingerprint) UnmarshalBinary(b []byte) error {
	if len(b) != EncodedLen {
		return fmt.Errorf("fingerprint: want %d bytes, got %d", EncodedLen, len(b))
	}
	var data [Words]uint64
	for i := range data {
		data[i] = binary.LittleEndian.Uint64(b[i*8:])
	}
	if data[Words-1]&^tailMask != 0 {
		return fmt.Errorf("fingerprint: bits set beyond width %d", Bits)
	}
	f.data = data
	return nil
}

// #endregion binary-codec
