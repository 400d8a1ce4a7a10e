// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of shamir-secret-sharing-app.
//
// shamir-secret-sharing-app is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

// Command shamir splits secrets into shares and recovers them, either
// directly from the command line or through the REST API started by
// "shamir serve".
package main

import (
	"os"

	"github.com/virgill-e/shamir-secret-sharing-app/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
