package receipt

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("LocalImageStore", func() {
	var (
		tmpDir string
		store  ImageStore
	)

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
		var err error
		store, err = NewLocalImageStore(tmpDir)
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("Upload", func() {
		var (
			data    []byte
			ownerID string
			key     string
			err     error
		)

		BeforeEach(func() {
			data = []byte("jpeg bytes")
			ownerID = "user-1"
		})

		JustBeforeEach(func() {
			key, err = store.Upload(context.Background(), data, ownerID)
		})

		When("the owner is authenticated", func() {
			It("should not return an error", func() {
				Expect(err).NotTo(HaveOccurred())
			})

			It("returns a key naming the owner", func() {
				Expect(key).To(HavePrefix("user-1_"))
			})

			It("writes the file to disk", func() {
				Expect(filepath.Join(tmpDir, key)).To(BeAnExistingFile())
			})

			It("generates a distinct key per upload", func() {
				second, err := store.Upload(context.Background(), data, ownerID)
				Expect(err).NotTo(HaveOccurred())
				Expect(second).NotTo(Equal(key))
			})
		})

		When("no owner is identified", func() {
			BeforeEach(func() {
				ownerID = ""
			})

			It("returns the unauthenticated sentinel", func() {
				Expect(errors.Is(err, ErrUnauthenticated)).To(BeTrue())
			})

			It("writes nothing", func() {
				entries, readErr := os.ReadDir(tmpDir)
				Expect(readErr).NotTo(HaveOccurred())
				Expect(entries).To(BeEmpty())
			})
		})

		When("the context is already cancelled", func() {
			It("returns the context error", func() {
				ctx, cancel := context.WithCancel(context.Background())
				cancel()
				_, err := store.Upload(ctx, data, ownerID)
				Expect(errors.Is(err, context.Canceled)).To(BeTrue())
			})
		})
	})

	Describe("Get", func() {
		It("returns the stored bytes", func() {
			key, err := store.Upload(context.Background(), []byte("original photo"), "user-1")
			Expect(err).NotTo(HaveOccurred())

			data, err := store.Get(key)
			Expect(err).NotTo(HaveOccurred())
			Expect(data).To(Equal([]byte("original photo")))
		})

		It("errors for an unknown key", func() {
			_, err := store.Get("missing")
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Delete", func() {
		It("removes the stored file", func() {
			key, err := store.Upload(context.Background(), []byte("photo"), "user-1")
			Expect(err).NotTo(HaveOccurred())

			Expect(store.Delete(key)).To(Succeed())
			Expect(filepath.Join(tmpDir, key)).NotTo(BeAnExistingFile())
		})

		It("errors for an unknown key", func() {
			Expect(store.Delete("missing")).NotTo(Succeed())
		})
	})
})
