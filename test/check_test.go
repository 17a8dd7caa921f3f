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

var _ = Describe("Check command", func() {
	var env *Env

	BeforeEach(func() {
		env = testFixtures.NewEnv()
		env.WriteConfig(true, "signer@example.com", map[string]string{
			"work":   "1111AAAA2222BBBB",
			"backup": "FFFF0000EEEE1111",
		})
	})

	It("should report ok for every verified alias", func() {
		env.WriteAnchor("work", env.ClearSign(env.Signer, "1111AAAA2222BBBB"))
		env.WriteAnchor("backup", env.ClearSign(env.Signer, "FFFF0000EEEE1111"))

		session := ExecuteGpgAlias(env, "check")
		Eventually(session).Should(gexec.Exit(0))
		Expect(session.Out).To(gbytes.Say("backup: ok"))
		Expect(session.Out).To(gbytes.Say("work: ok"))
	})

	It("should fail for an alias without an anchor and never prompt", func() {
		env.WriteAnchor("work", env.ClearSign(env.Signer, "1111AAAA2222BBBB"))

		session := ExecuteGpgAlias(env, "check")
		Eventually(session).Should(gexec.Exit(1))

		Expect(session.Err).NotTo(gbytes.Say("Is this correct"))
		Expect(session.Out).To(gbytes.Say(`backup: no trust anchor found for "backup"`))
		Expect(session.Out).To(gbytes.Say("work: ok"))
		Expect(session.Err).To(gbytes.Say("1 of 2 aliases failed verification"))
		Expect(env.AnchorExists("backup")).To(BeFalse())
	})

	It("should keep checking after a failure", func() {
		env.WriteAnchor("backup", []byte("garbage\n"))
		env.WriteAnchor("work", env.ClearSign(env.Other, "1111AAAA2222BBBB"))

		session := ExecuteGpgAlias(env, "check")
		Eventually(session).Should(gexec.Exit(1))

		Expect(session.Out).To(gbytes.Say("backup: alias \"backup\" rejected: verification error"))
		Expect(session.Out).To(gbytes.Say("work: alias \"work\" rejected: wrong signer"))
		Expect(session.Err).To(gbytes.Say("2 of 2 aliases failed verification"))
	})

	It("should check only the named aliases", func() {
		env.WriteAnchor("work", env.ClearSign(env.Signer, "1111AAAA2222BBBB"))

		session := ExecuteGpgAlias(env, "check", "work")
		Eventually(session).Should(gexec.Exit(0))

		output := string(session.Out.Contents())
		Expect(output).To(Equal("work: ok\n"))
	})

	It("should fail on an unknown alias", func() {
		session := ExecuteGpgAlias(env, "check", "nothere")
		Eventually(session).Should(gexec.Exit(1))
		Expect(session.Out).To(gbytes.Say(`nothere: no alias "nothere" configured`))
	})

	It("should refuse to run with signing disabled", func() {
		env.WriteConfig(false, "", map[string]string{"work": "1111AAAA2222BBBB"})

		session := ExecuteGpgAlias(env, "check")
		Eventually(session).Should(gexec.Exit(1))
		Expect(session.Err).To(gbytes.Say("signing is disabled; nothing to check"))
	})
})
