package expense_test

import (
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/Deividgaston/gastos-app/internal/expense"
)

var _ = Describe("BoltDB", func() {
	var (
		tmpDir string
		db     *expense.BoltDB
	)

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
		var err error
		db, err = expense.NewBoltDB(filepath.Join(tmpDir, "test.db"))
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		if db != nil {
			db.Close()
		}
	})

	newEntry := func(id string, createdAt time.Time) *expense.Entry {
		return &expense.Entry{
			ID:        id,
			OwnerID:   "user-1",
			Date:      time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			Category:  expense.DefaultCategory,
			Provider:  "Café Luna",
			Amount:    4.5,
			PhotoURL:  "tickets/user-1/2024-03/x.jpg",
			IsExpense: true,
			CreatedAt: createdAt,
			UpdatedAt: createdAt,
		}
	}

	Describe("SaveEntry", func() {
		var (
			entry *expense.Entry
			err   error
		)

		BeforeEach(func() {
			entry = newEntry("entry-1", time.Now())
		})

		JustBeforeEach(func() {
			err = db.SaveEntry(entry)
		})

		When("saving succeeds", func() {
			It("should not return an error", func() {
				Expect(err).NotTo(HaveOccurred())
			})

			It("round-trips the entry", func() {
				saved, getErr := db.GetEntry("entry-1")
				Expect(getErr).NotTo(HaveOccurred())
				Expect(saved.Provider).To(Equal("Café Luna"))
				Expect(saved.Amount).To(Equal(4.5))
				Expect(saved.IsExpense).To(BeTrue())
			})
		})
	})

	Describe("GetEntry", func() {
		When("the entry does not exist", func() {
			It("returns the error", func() {
				_, err := db.GetEntry("nope")
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("entry not found"))
			})
		})
	})

	Describe("ListEntries", func() {
		When("entries exist", func() {
			BeforeEach(func() {
				base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
				Expect(db.SaveEntry(newEntry("older", base))).To(Succeed())
				Expect(db.SaveEntry(newEntry("newest", base.Add(2*time.Hour)))).To(Succeed())
				Expect(db.SaveEntry(newEntry("middle", base.Add(time.Hour)))).To(Succeed())
			})

			It("returns them newest first", func() {
				entries, err := db.ListEntries()
				Expect(err).NotTo(HaveOccurred())
				Expect(entries).To(HaveLen(3))
				Expect(entries[0].ID).To(Equal("newest"))
				Expect(entries[1].ID).To(Equal("middle"))
				Expect(entries[2].ID).To(Equal("older"))
			})
		})

		When("the database is empty", func() {
			It("returns an empty slice", func() {
				entries, err := db.ListEntries()
				Expect(err).NotTo(HaveOccurred())
				Expect(entries).To(BeEmpty())
			})
		})
	})

	Describe("DeleteEntry", func() {
		BeforeEach(func() {
			Expect(db.SaveEntry(newEntry("entry-1", time.Now()))).To(Succeed())
		})

		It("removes the entry", func() {
			Expect(db.DeleteEntry("entry-1")).To(Succeed())
			_, err := db.GetEntry("entry-1")
			Expect(err).To(HaveOccurred())
		})
	})
})
