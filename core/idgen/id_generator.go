// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

// Package idgen makes short identifiers that tie together the log lines of one build.
package idgen

import (
	"crypto/rand"
	"encoding/base64"
	"time"
)

const (
	clockLayout  = "150405"
	entropyBytes = 3
)

// Make returns a 10 character build ID: the time of day followed by 4 random characters.
// IDs sort by time of day and still tell concurrent builds apart.
func Make() string {
	return makeAt(time.Now())
}

func makeAt(now time.Time) string {
	var entropy [entropyBytes]byte

	// crypto/rand.Read never fails on supported platforms.
	_, _ = rand.Read(entropy[:])

	id := make([]byte, 0, len(clockLayout)+base64.RawURLEncoding.EncodedLen(entropyBytes))
	id = now.AppendFormat(id, clockLayout)

	return string(base64.RawURLEncoding.AppendEncode(id, entropy[:]))
}
