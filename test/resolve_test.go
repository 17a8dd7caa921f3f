// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of gpg-alias

//go:build e2e

package test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/gbytes"
	"github.com/onsi/gomega/gexec"
)

var _ = Describe("Alias resolution", func() {
	var env *Env

	BeforeEach(func() {
		env = testFixtures.NewEnv()
	})

	Describe("With signing disabled", func() {
		BeforeEach(func() {
			env.WriteConfig(false, "", map[string]string{
				"work":   "1111AAAA2222BBBB",
				"backup": "FFFF0000EEEE1111",
			})
		})

		It("should print one key id per line", func() {
			session := ExecuteGpgAlias(env, "work", "backup")
			Eventually(session).Should(gexec.Exit(0))
			Expect(string(session.Out.Contents())).To(Equal("1111AAAA2222BBBB\nFFFF0000EEEE1111\n"))
		})

		It("should print recipient arguments without a trailing newline", func() {
			session := ExecuteGpgAlias(env, "-r", "work", "backup")
			Eventually(session).Should(gexec.Exit(0))
			Expect(string(session.Out.Contents())).To(Equal("-r 1111AAAA2222BBBB -r FFFF0000EEEE1111"))
		})

		It("should resolve the same alias twice", func() {
			session := ExecuteGpgAlias(env, "work", "work")
			Eventually(session).Should(gexec.Exit(0))
			Expect(string(session.Out.Contents())).To(Equal("1111AAAA2222BBBB\n1111AAAA2222BBBB\n"))
		})

		It("should not touch the data directory", func() {
			session := ExecuteGpgAlias(env, "work")
			Eventually(session).Should(gexec.Exit(0))

			entries, err := os.ReadDir(env.DataDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(BeEmpty())
		})

		It("should fail on an unknown alias", func() {
			session := ExecuteGpgAlias(env, "nothere")
			Eventually(session).Should(gexec.Exit(1))
			Expect(session.Err).To(gbytes.Say(`no alias "nothere" configured`))
		})

		It("should fail without any alias argument", func() {
			session := ExecuteGpgAlias(env)
			Eventually(session).Should(gexec.Exit(1))
			Expect(session.Err).To(gbytes.Say("requires at least one alias argument"))
		})
	})

	Describe("Without a config file", func() {
		It("should write the default config and report it on stderr", func() {
			session := ExecuteGpgAlias(env, "work")
			Eventually(session).Should(gexec.Exit(1))
			Expect(session.Err).To(gbytes.Say("Wrote default config to"))
			Expect(session.Err).To(gbytes.Say(`no alias "work" configured`))

			_, err := os.Stat(filepath.Join(env.ConfigDir, "gpg-alias.yaml"))
			Expect(err).NotTo(HaveOccurred())
		})

		It("should keep an existing config on later runs", func() {
			session := ExecuteGpgAlias(env, "work")
			Eventually(session).Should(gexec.Exit(1))

			env.WriteConfig(false, "", map[string]string{"work": "1111AAAA2222BBBB"})

			session = ExecuteGpgAlias(env, "work")
			Eventually(session).Should(gexec.Exit(0))
			Expect(session.Err).NotTo(gbytes.Say("Wrote default config"))
			Expect(string(session.Out.Contents())).To(Equal("1111AAAA2222BBBB\n"))
		})
	})

	Describe("With a broken config file", func() {
		It("should reject unknown config fields", func() {
			path := filepath.Join(env.ConfigDir, "gpg-alias.yaml")
			Expect(os.WriteFile(path, []byte("signing:\n  enabled: false\nalias:\n  work: X\n"), 0o600)).To(Succeed())

			session := ExecuteGpgAlias(env, "work")
			Eventually(session).Should(gexec.Exit(1))
			Expect(session.Err).To(gbytes.Say("failed to parse"))
		})

		It("should reject enabled signing without a key", func() {
			path := filepath.Join(env.ConfigDir, "gpg-alias.yaml")
			Expect(os.WriteFile(path, []byte("signing:\n  enabled: true\naliases:\n  work: X\n"), 0o600)).To(Succeed())

			session := ExecuteGpgAlias(env, "work")
			Eventually(session).Should(gexec.Exit(1))
			Expect(session.Err).To(gbytes.Say("signing is enabled but signing.key is not set"))
		})
	})

	Describe("Version output", func() {
		It("should print the version template", func() {
			session := ExecuteGpgAlias(env, "--version")
			Eventually(session).Should(gexec.Exit(0))
			Expect(session.Out).To(gbytes.Say(`gpg-alias version dev \(commit: none\)`))
		})

		It("should support the short flag", func() {
			session := ExecuteGpgAlias(env, "-v")
			Eventually(session).Should(gexec.Exit(0))
			Expect(session.Out).To(gbytes.Say("gpg-alias version"))
		})
	})
})
