// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of gpg-alias

//go:build e2e

package test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/gbytes"
	"github.com/onsi/gomega/gexec"
)

var _ = Describe("Anchor path command", func() {
	var env *Env

	BeforeEach(func() {
		env = testFixtures.NewEnv()
		env.WriteConfig(false, "", map[string]string{"work": "1111AAAA2222BBBB"})
	})

	It("should print the anchor path for an alias", func() {
		session := ExecuteGpgAlias(env, "anchor", "path", "work")
		Eventually(session).Should(gexec.Exit(0))
		Expect(string(session.Out.Contents())).To(Equal(env.AnchorPath("work") + "\n"))
	})

	It("should print the path even when no anchor exists", func() {
		Expect(env.AnchorExists("work")).To(BeFalse())

		session := ExecuteGpgAlias(env, "anchor", "path", "work")
		Eventually(session).Should(gexec.Exit(0))
		Expect(string(session.Out.Contents())).To(Equal(env.AnchorPath("work") + "\n"))
	})

	It("should reject an alias with path separators", func() {
		session := ExecuteGpgAlias(env, "anchor", "path", "../evil")
		Eventually(session).Should(gexec.Exit(1))
		Expect(session.Err).To(gbytes.Say("invalid alias"))
	})

	It("should require exactly one alias", func() {
		session := ExecuteGpgAlias(env, "anchor", "path")
		Eventually(session).Should(gexec.Exit(1))
	})
})
