package batch_test

import (
	"errors"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/lisanmuaddib/base-minter/pkg/batch"
)

var _ = Describe("Pair", func() {
	It("pairs proxies by position", func() {
		entries, err := batch.Pair([]string{"k1", "k2"}, []string{"p1", "p2"})
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(Equal([]batch.Entry{
			{Credential: "k1", Proxy: "p1"},
			{Credential: "k2", Proxy: "p2"},
		}))
	})

	It("runs every wallet without a proxy when none are given", func() {
		entries, err := batch.Pair([]string{"k1", "k2", "k3"}, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(HaveLen(3))
		for _, e := range entries {
			Expect(e.Proxy).To(BeEmpty())
		}
	})

	It("rejects a proxy count that does not match", func() {
		_, err := batch.Pair(
			[]string{"k1", "k2", "k3", "k4", "k5"},
			[]string{"p1", "p2", "p3"},
		)
		Expect(errors.Is(err, batch.ErrProxyCountMismatch)).To(BeTrue())
	})
})

var _ = Describe("LoadEntries", func() {
	var dir string

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
	})

	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		Expect(os.WriteFile(path, []byte(content), 0o600)).To(Succeed())
		return path
	}

	It("skips blank lines and trims whitespace", func() {
		wallets := write("wallets.txt", "a;k1\n\n  k2  \r\n")
		proxies := write("proxies.txt", "1.1.1.1:80\n2.2.2.2:80\n")

		entries, err := batch.LoadEntries(wallets, proxies)
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(Equal([]batch.Entry{
			{Credential: "a;k1", Proxy: "1.1.1.1:80"},
			{Credential: "k2", Proxy: "2.2.2.2:80"},
		}))
	})

	It("keeps a blank proxy line as no proxy for that wallet", func() {
		wallets := write("wallets.txt", "k1\nk2\nk3\n")
		proxies := write("proxies.txt", "1.1.1.1:80\n\n3.3.3.3:80\n\n\n")

		entries, err := batch.LoadEntries(wallets, proxies)
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(Equal([]batch.Entry{
			{Credential: "k1", Proxy: "1.1.1.1:80"},
			{Credential: "k2", Proxy: ""},
			{Credential: "k3", Proxy: "3.3.3.3:80"},
		}))
	})

	It("treats a proxies file of blank lines as no proxies", func() {
		wallets := write("wallets.txt", "k1\nk2\n")
		proxies := write("proxies.txt", "\n\n  \n")

		entries, err := batch.LoadEntries(wallets, proxies)
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(HaveLen(2))
		Expect(entries[0].Proxy).To(BeEmpty())
	})

	It("treats a missing proxies file as no proxies", func() {
		wallets := write("wallets.txt", "k1\n")

		entries, err := batch.LoadEntries(wallets, filepath.Join(dir, "absent.txt"))
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(HaveLen(1))
	})

	It("requires the wallets file", func() {
		_, err := batch.LoadEntries(filepath.Join(dir, "absent.txt"), "")
		Expect(err).To(HaveOccurred())
	})
})
