// Copyright 2026 The Jenkdo Authors
// SPDX-License-Identifier: Apache-2.0

package jobconfig

import (
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// Digest returns the first 16 hex characters of the blake3 hash of a
// rendered config. Equal digests mean an overwrite left the job
// unchanged.
func Digest(configXML []byte) string {
	sum := blake3.Sum256(configXML)
	return hex.EncodeToString(sum[:8])
}
