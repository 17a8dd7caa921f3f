// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of gpg-alias

package main

import "github.com/jkcclemens/gpg-alias/cmd"

func main() {
	cmd.Execute()
}
