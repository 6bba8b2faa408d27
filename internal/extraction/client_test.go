package extraction

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"

	"github.com/Deividgaston/gastos-app/internal/capture"
)

// candidateResponse wraps an extraction payload in the nested
// candidates/content/parts envelope the API returns on success.
func candidateResponse(payload string) string {
	resp := map[string]any{
		"candidates": []any{
			map[string]any{
				"content": map[string]any{
					"parts": []any{map[string]any{"text": payload}},
				},
			},
		},
	}
	data, err := json.Marshal(resp)
	Expect(err).NotTo(HaveOccurred())
	return string(data)
}

var _ = Describe("Client", func() {
	var (
		ghServer *ghttp.Server
		client   *Client
		img      *capture.EncodedImage
		targets  []ModelTarget
		raw      *RawExtraction
		err      error
	)

	BeforeEach(func() {
		ghServer = ghttp.NewServer()

		var newErr error
		client, newErr = NewClient("test-key")
		Expect(newErr).NotTo(HaveOccurred())

		img = &capture.EncodedImage{Data: "aW1hZ2U=", MimeType: "image/jpeg"}
	})

	AfterEach(func() {
		ghServer.Close()
	})

	target := func(model string) ModelTarget {
		return ModelTarget{EndpointBase: ghServer.URL(), ModelID: model}
	}

	JustBeforeEach(func() {
		raw, err = client.Extract(context.Background(), img, targets)
	})

	When("the first target answers with a valid extraction", func() {
		BeforeEach(func() {
			targets = []ModelTarget{target("m1"), target("m2")}
			ghServer.AppendHandlers(
				ghttp.CombineHandlers(
					ghttp.VerifyRequest("POST", "/models/m1:generateContent", "key=test-key"),
					ghttp.VerifyContentType("application/json"),
					ghttp.RespondWith(http.StatusOK, candidateResponse(`{"date":"2024-01-05","provider":"CVS","amount":12.5}`)),
				),
			)
		})

		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("returns the parsed extraction", func() {
			Expect(raw.Date).To(Equal("2024-01-05"))
			Expect(raw.Provider).To(Equal("CVS"))
			Expect(raw.AmountText()).To(Equal("12.5"))
		})

		It("never contacts the remaining targets", func() {
			Expect(ghServer.ReceivedRequests()).To(HaveLen(1))
		})
	})

	When("earlier targets fail and a later one succeeds", func() {
		BeforeEach(func() {
			targets = []ModelTarget{target("m1"), target("m2"), target("m3")}
			ghServer.AppendHandlers(
				ghttp.CombineHandlers(
					ghttp.VerifyRequest("POST", "/models/m1:generateContent", "key=test-key"),
					ghttp.RespondWith(http.StatusInternalServerError, `{"error":{"message":"model overloaded"}}`),
				),
				ghttp.CombineHandlers(
					ghttp.VerifyRequest("POST", "/models/m2:generateContent", "key=test-key"),
					ghttp.RespondWith(http.StatusOK, candidateResponse("no json here at all")),
				),
				ghttp.CombineHandlers(
					ghttp.VerifyRequest("POST", "/models/m3:generateContent", "key=test-key"),
					ghttp.RespondWith(http.StatusOK, candidateResponse(`{"date":"2024-03-01","provider":"Café Luna","amount":"4,50 €"}`)),
				),
			)
		})

		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("attempts every target in priority order", func() {
			Expect(ghServer.ReceivedRequests()).To(HaveLen(3))
		})

		It("returns the third target's extraction", func() {
			Expect(raw.Provider).To(Equal("Café Luna"))
			Expect(raw.AmountText()).To(Equal("4,50 €"))
		})
	})

	When("every target fails", func() {
		BeforeEach(func() {
			targets = []ModelTarget{target("m1"), target("m2"), target("m3")}
			ghServer.AppendHandlers(
				ghttp.RespondWith(http.StatusInternalServerError, `{"error":{"message":"model overloaded"}}`),
				ghttp.RespondWith(http.StatusOK, "not even close to json"),
				ghttp.RespondWith(http.StatusServiceUnavailable, `{"error":{"message":"quota exhausted"}}`),
			)
		})

		It("returns an aggregated ExtractionError", func() {
			var extractionErr *ExtractionError
			Expect(err).To(HaveOccurred())
			Expect(errors.As(err, &extractionErr)).To(BeTrue())
			Expect(extractionErr.Attempts).To(HaveLen(3))
		})

		It("carries the last target's failure reason", func() {
			var extractionErr *ExtractionError
			Expect(errors.As(err, &extractionErr)).To(BeTrue())
			Expect(extractionErr.Reason()).To(Equal("quota exhausted"))
		})
	})

	When("a failure body has no structured error", func() {
		BeforeEach(func() {
			targets = []ModelTarget{target("m1")}
			ghServer.AppendHandlers(
				ghttp.RespondWith(http.StatusBadGateway, "upstream exploded"),
			)
		})

		It("falls back to an HTTP status reason", func() {
			var extractionErr *ExtractionError
			Expect(errors.As(err, &extractionErr)).To(BeTrue())
			Expect(extractionErr.Reason()).To(Equal("HTTP 502"))
		})
	})

	When("a success response has a top-level text field", func() {
		BeforeEach(func() {
			targets = []ModelTarget{target("m1")}
			ghServer.AppendHandlers(
				ghttp.RespondWith(http.StatusOK, `{"text":"{\"date\":\"2024-01-05\",\"provider\":\"x\",\"amount\":1}"}`),
			)
		})

		It("resolves the payload from it", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(raw.Date).To(Equal("2024-01-05"))
		})
	})

	When("no targets are configured", func() {
		BeforeEach(func() {
			targets = nil
		})

		It("returns the error", func() {
			Expect(err).To(HaveOccurred())
			Expect(ghServer.ReceivedRequests()).To(BeEmpty())
		})
	})
})

var _ = Describe("NewClient", func() {
	When("the api key is empty", func() {
		It("returns the error", func() {
			_, err := NewClient("")
			Expect(err).To(HaveOccurred())
		})
	})
})
