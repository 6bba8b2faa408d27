package expense_test

import (
	"fmt"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/Deividgaston/gastos-app/internal/expense"
)

var _ = Describe("ProviderSlug", func() {
	DescribeTable("slugs provider names",
		func(provider, expected string) {
			Expect(expense.ProviderSlug(provider)).To(Equal(expected))
		},
		Entry("plain name", "Mercadona", "Mercadona"),
		Entry("spaces collapse to underscores", "Café  Luna", "Caf_Luna"),
		Entry("special characters are removed", "Bar&Grill #1!", "BarGrill_1"),
		Entry("empty input defaults", "", "ticket"),
		Entry("input that cleans to nothing defaults", "€€€", "ticket"),
	)

	It("bounds the length at 40 characters", func() {
		long := ""
		for i := 0; i < 10; i++ {
			long += "abcdefghij"
		}
		Expect(len(expense.ProviderSlug(long))).To(BeNumerically("<=", 40))
	})
})

var _ = Describe("FileExt", func() {
	DescribeTable("extracts extensions",
		func(filename, expected string) {
			Expect(expense.FileExt(filename)).To(Equal(expected))
		},
		Entry("lowercase extension", "receipt.jpg", "jpg"),
		Entry("uppercase extension", "IMG_0042.HEIC", "heic"),
		Entry("no extension", "capture", "jpg"),
		Entry("empty filename", "", "jpg"),
	)
})

var _ = Describe("StoragePath", func() {
	var (
		date       time.Time
		capturedAt time.Time
		result     string
	)

	BeforeEach(func() {
		date = time.Date(2024, 3, 1, 0, 0, 0, 0, time.Local)
		capturedAt = time.Date(2024, 3, 5, 10, 30, 0, 0, time.UTC)
	})

	JustBeforeEach(func() {
		result = expense.StoragePath("user-1", date, "Café Luna", "photo.JPG", capturedAt)
	})

	It("nests under owner and month", func() {
		Expect(result).To(HavePrefix("tickets/user-1/2024-03/"))
	})

	It("embeds the normalized date, slug, timestamp and extension", func() {
		Expect(result).To(Equal(fmt.Sprintf("tickets/user-1/2024-03/2024-03-01_Caf_Luna_%d.jpg", capturedAt.UnixMilli())))
	})

	It("differs for captures taken at different instants", func() {
		other := expense.StoragePath("user-1", date, "Café Luna", "photo.JPG", capturedAt.Add(time.Millisecond))
		Expect(other).NotTo(Equal(result))
	})
})
