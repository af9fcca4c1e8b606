package auth_test

import (
	"context"
	"time"

	"github.com/Kauel-Chile/MERN-Boilerplate/internal/auth"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
)

var _ = ginkgo.Describe("BcryptHasher", func() {
	var hasher *auth.BcryptHasher

	ginkgo.BeforeEach(func() {
		hasher = auth.NewBcryptHasher(bcrypt.MinCost, 2, time.Second)
	})

	ginkgo.It("verifies the original password and rejects others", func() {
		ctx := context.Background()
		hash, err := hasher.Hash(ctx, "s3cret")
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		gomega.Expect(hash).NotTo(gomega.Equal("s3cret"))

		ok, err := hasher.Verify(ctx, "s3cret", hash)
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		gomega.Expect(ok).To(gomega.BeTrue())

		ok, err = hasher.Verify(ctx, "other", hash)
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		gomega.Expect(ok).To(gomega.BeFalse())
	})

	ginkgo.It("salts every hash", func() {
		ctx := context.Background()
		first, err := hasher.Hash(ctx, "s3cret")
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		second, err := hasher.Hash(ctx, "s3cret")
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		gomega.Expect(first).NotTo(gomega.Equal(second))
	})

	ginkgo.It("fails on a malformed hash", func() {
		_, err := hasher.Verify(context.Background(), "s3cret", "not-a-bcrypt-hash")
		gomega.Expect(err).To(gomega.HaveOccurred())
	})

	ginkgo.It("gives up when the caller's context is already done", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := hasher.Hash(ctx, "s3cret")
		gomega.Expect(err).To(gomega.MatchError(context.Canceled))
	})
})
