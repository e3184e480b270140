// Package sgs derives speedgolf display fields from raw stroke and
// second counts. A Speedgolf Score (SGS) counts every stroke as one
// minute and adds the elapsed time on top, rendered as "min:sec".
//
// All functions are pure. Inputs are expected to be non-negative;
// enforcing that is the caller's job.
// Copyright 2025 The SpeedScore Authors
// SPDX-License-Identifier: Apache-2.0

package sgs

import "fmt"

// Score computes the Speedgolf Score for a round as a "min:sec" string.
// Each stroke contributes 60 seconds to the total.
func Score(strokes, seconds int) string {
	return clock(strokes*60 + seconds)
}

// Time renders elapsed seconds as a "min:sec" string.
func Time(seconds int) string {
	return clock(seconds)
}

// Minutes returns the whole minutes in the given elapsed seconds.
func Minutes(seconds int) int {
	return seconds / 60
}

// Seconds returns the seconds remaining after whole minutes are removed.
func Seconds(seconds int) int {
	return seconds % 60
}

func clock(totalSeconds int) string {
	return fmt.Sprintf("%d:%02d", totalSeconds/60, totalSeconds%60)
}
