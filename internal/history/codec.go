// Package history provides the CBOR codec used for the persisted blob.
package history

import (
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Codec errors.
var (
	// ErrInvalidBlob is returned when a persisted history blob cannot be decoded.
	ErrInvalidBlob = errors.New("invalid history blob")
)

// Encode serializes a history into its compact CBOR wire form. Integer keys
// keep the blob small; the history blob is rewritten on every append so size
// matters more than readability here.
func Encode(h History) ([]byte, error) {
	data, err := cbor.Marshal(h)
	if err != nil {
		return nil, fmt.Errorf("encode history: %w", err)
	}
	return data, nil
}

// Decode deserializes a persisted history blob.
// Returns ErrInvalidBlob (wrapped) if the data is empty or malformed.
func Decode(data []byte) (History, error) {
	if len(data) == 0 {
		return History{}, ErrInvalidBlob
	}

	var h History
	if err := cbor.Unmarshal(data, &h); err != nil {
		return History{}, fmt.Errorf("%w: %v", ErrInvalidBlob, err)
	}
	return h, nil
}
