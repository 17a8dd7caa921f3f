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

var _ = Describe("Anchor delete command", func() {
	var env *Env

	BeforeEach(func() {
		env = testFixtures.NewEnv()
		env.WriteConfig(true, "signer@example.com", map[string]string{
			"work": "1111AAAA2222BBBB",
		})
		env.WriteAnchor("work", env.ClearSign(env.Signer, "1111AAAA2222BBBB"))
	})

	It("should delete the anchor with --force", func() {
		session := ExecuteGpgAlias(env, "anchor", "delete", "work", "--force")
		Eventually(session).Should(gexec.Exit(0))

		Expect(session.Out).To(gbytes.Say(`Deleted trust anchor for "work"`))
		Expect(env.AnchorExists("work")).To(BeFalse())
	})

	It("should ask for confirmation without --force", func() {
		session := ExecuteGpgAliasStdin(env, "y\n", "anchor", "delete", "work")
		Eventually(session).Should(gexec.Exit(0))

		Expect(session.Err).To(gbytes.Say(`Delete trust anchor for "work"`))
		Expect(env.AnchorExists("work")).To(BeFalse())
	})

	It("should cancel deletion on a negative answer", func() {
		session := ExecuteGpgAliasStdin(env, "n\n", "anchor", "delete", "work")
		Eventually(session).Should(gexec.Exit(0))

		Expect(session.Out).To(gbytes.Say("Deletion cancelled"))
		Expect(env.AnchorExists("work")).To(BeTrue())
	})

	It("should fail when no anchor exists", func() {
		session := ExecuteGpgAlias(env, "anchor", "delete", "missing", "--force")
		Eventually(session).Should(gexec.Exit(1))
		Expect(session.Err).To(gbytes.Say(`no anchor found for "missing"`))
	})

	It("should re-prompt on the next resolution after deletion", func() {
		session := ExecuteGpgAlias(env, "anchor", "delete", "work", "--force")
		Eventually(session).Should(gexec.Exit(0))

		session = ExecuteGpgAliasStdin(env, "y\n", "work")
		Eventually(session).Should(gexec.Exit(0))
		Expect(session.Err).To(gbytes.Say("No trust anchor found"))
		Expect(env.AnchorExists("work")).To(BeTrue())
	})
})
