// Copyright 2025 The SpeedScore Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
)

func main() {
	fmt.Println("go-speedscore - Offline Mutation Queue & Reconciliation")
	fmt.Println("=======================================================")
	fmt.Println()
	fmt.Println("go-speedscore lets SpeedScore clients keep recording rounds while offline")
	fmt.Println("and replays the queued mutations in order once connectivity returns,")
	fmt.Println("reconciling temporary round IDs with server-assigned ones.")
	fmt.Println()

	fmt.Println("Packages:")
	fmt.Println()
	fmt.Println("1. offline/ - the client: mutation facade, pending queue store,")
	fmt.Println("   reconciliation engine, HTTP transport, anti-CSRF token provider")
	fmt.Println()
	fmt.Println("2. sgs/ - pure speedgolf score and time derivations")
	fmt.Println()

	fmt.Println("Examples:")
	fmt.Println()
	fmt.Println("1. Devserver (examples/devserver/)")
	fmt.Println("   A SpeedScore-style API server (auth, anti-CSRF tokens, user and")
	fmt.Println("   round CRUD) backed by Postgres, for running the client end to end")
	fmt.Println("   Run: cd examples/devserver && go run .")
	fmt.Println()
}
