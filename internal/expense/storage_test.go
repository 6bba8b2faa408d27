package expense_test

import (
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/Deividgaston/gastos-app/internal/expense"
)

var _ = Describe("LocalStorage", func() {
	var (
		tmpDir  string
		storage expense.Storage
	)

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
		var err error
		storage, err = expense.NewLocalStorage(tmpDir)
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("Save", func() {
		var (
			path string
			data []byte
			ref  string
			err  error
		)

		BeforeEach(func() {
			path = "tickets/user-1/2024-03/2024-03-01_Caf_Luna_1709632200000.jpg"
			data = []byte("evidence image")
		})

		JustBeforeEach(func() {
			ref, err = storage.Save(path, data)
		})

		When("saving succeeds", func() {
			It("should not return an error", func() {
				Expect(err).NotTo(HaveOccurred())
			})

			It("returns the path as the durable reference", func() {
				Expect(ref).To(Equal(path))
			})

			It("creates the nested directories", func() {
				Expect(filepath.Join(tmpDir, "tickets", "user-1", "2024-03")).To(BeADirectory())
			})

			It("writes the blob to disk", func() {
				Expect(filepath.Join(tmpDir, filepath.FromSlash(path))).To(BeAnExistingFile())
			})
		})
	})

	Describe("Get", func() {
		var (
			ref  string
			data []byte
			err  error
		)

		JustBeforeEach(func() {
			data, err = storage.Get(ref)
		})

		When("the blob exists", func() {
			BeforeEach(func() {
				ref = "tickets/user-1/2024-03/test.jpg"
				_, saveErr := storage.Save(ref, []byte("evidence image"))
				Expect(saveErr).NotTo(HaveOccurred())
			})

			It("should not return an error", func() {
				Expect(err).NotTo(HaveOccurred())
			})

			It("returns the blob data", func() {
				Expect(string(data)).To(Equal("evidence image"))
			})
		})

		When("the blob does not exist", func() {
			BeforeEach(func() {
				ref = "tickets/user-1/2024-03/nope.jpg"
			})

			It("returns the error", func() {
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("reading file"))
			})
		})
	})

	Describe("Delete", func() {
		var (
			ref string
			err error
		)

		JustBeforeEach(func() {
			err = storage.Delete(ref)
		})

		When("the blob exists", func() {
			BeforeEach(func() {
				ref = "tickets/user-1/2024-03/test.jpg"
				_, saveErr := storage.Save(ref, []byte("evidence image"))
				Expect(saveErr).NotTo(HaveOccurred())
			})

			It("should not return an error", func() {
				Expect(err).NotTo(HaveOccurred())
			})

			It("removes the blob", func() {
				_, getErr := storage.Get(ref)
				Expect(getErr).To(HaveOccurred())
			})
		})

		When("the blob does not exist", func() {
			BeforeEach(func() {
				ref = "tickets/user-1/2024-03/nope.jpg"
			})

			It("returns the error", func() {
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("deleting file"))
			})
		})
	})

	Describe("NewLocalStorage", func() {
		When("the base directory does not exist", func() {
			It("creates it", func() {
				base := filepath.Join(GinkgoT().TempDir(), "tickets")
				_, err := expense.NewLocalStorage(base)
				Expect(err).NotTo(HaveOccurred())
				Expect(base).To(BeADirectory())
			})
		})
	})
})
