// Package cos provides common low-level types and utilities shared by the
// routing core's packages.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package cos

import (
	"strconv"
	"sync"

	"github.com/OneOfOne/xxhash"
	"github.com/teris-io/shortid"
)

// Alphabet for generating short ids, same shape as shortid.DEFAULT_ABC.
const uuidABC = "-5nZJDft6LuzsjGNpPwY7rQa39vehq4i1cV2FROo8yHSlC0BUEdWbIxMmTgKXAk_"

const LenShortID = 9 // as per https://github.com/teris-io/shortid#id-length

var (
	sidOnce sync.Once
	sid     *shortid.Shortid
)

func initSID() {
	sid = shortid.MustNew(4 /*worker*/, uuidABC, 1)
}

// GenUUID mints a short, sortable-enough generation id. Used to label each
// compiled routing snapshot so refresh cycles are distinguishable in logs.
func GenUUID() string {
	sidOnce.Do(initSID)
	return sid.MustGenerate()
}

// HashHost deterministically maps an endpoint host (station-cache key, see
// spec.md §4.4 "index by endpoint host") onto a uint64 bucket id.
func HashHost(host string) uint64 {
	return xxhash.Checksum64S(UnsafeB(host), 0)
}

// HashHostStr is HashHost rendered as a stable base36 string, used as the
// station cache's per-host bucket key.
func HashHostStr(host string) string {
	return strconv.FormatUint(HashHost(host), 36)
}
