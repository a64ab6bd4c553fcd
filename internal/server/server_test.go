package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/costkeep/costkeep/internal/extraction"
	"github.com/costkeep/costkeep/internal/receipt"
)

func multipartBody(field, filename string, data []byte) (*bytes.Buffer, string) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile(field, filename)
	Expect(err).NotTo(HaveOccurred())
	_, err = part.Write(data)
	Expect(err).NotTo(HaveOccurred())
	Expect(writer.Close()).To(Succeed())
	return body, writer.FormDataContentType()
}

var _ = Describe("Server", func() {
	var (
		store     *mockStore
		images    *mockImages
		extractor *mockExtractor
		srv       *Server
		recorder  *httptest.ResponseRecorder
	)

	BeforeEach(func() {
		store = newMockStore()
		images = newMockImages()
		extractor = &mockExtractor{result: extractedReceipt()}
		srv = NewServer(NewService(store, images, extractor), BasicAuth{})
		recorder = httptest.NewRecorder()
	})

	Describe("POST /api/receipts", func() {
		var request *http.Request

		BeforeEach(func() {
			body, contentType := multipartBody("file", "receipt.jpg", []byte("jpeg bytes"))
			request = httptest.NewRequest("POST", "/api/receipts", body)
			request.Header.Set("Content-Type", contentType)
		})

		JustBeforeEach(func() {
			srv.ServeHTTP(recorder, request)
		})

		When("the scan succeeds", func() {
			It("returns 201 with the receipt", func() {
				Expect(recorder.Code).To(Equal(http.StatusCreated))

				var got receipt.Receipt
				Expect(json.Unmarshal(recorder.Body.Bytes(), &got)).To(Succeed())
				Expect(got.StoreName).To(Equal("Walmart"))
				Expect(got.Items).To(Equal([]string{"Milk: $4.50", "Bread: $3.25"}))
			})
		})

		When("no file is provided", func() {
			BeforeEach(func() {
				body, contentType := multipartBody("wrong-field", "receipt.jpg", []byte("jpeg bytes"))
				request = httptest.NewRequest("POST", "/api/receipts", body)
				request.Header.Set("Content-Type", contentType)
			})

			It("returns 400", func() {
				Expect(recorder.Code).To(Equal(http.StatusBadRequest))
			})
		})

		When("the model response is malformed", func() {
			BeforeEach(func() {
				extractor.extractErr = &extraction.MalformedResponseError{
					CleanedText: "Sorry, I cannot read this receipt.",
					Err:         errors.New("no JSON object found in response"),
				}
			})

			It("returns 422 with the diagnostic text", func() {
				Expect(recorder.Code).To(Equal(http.StatusUnprocessableEntity))

				var body scanErrorBody
				Expect(json.Unmarshal(recorder.Body.Bytes(), &body)).To(Succeed())
				Expect(body.Kind).To(Equal("malformed_response"))
				Expect(body.Detail).To(ContainSubstring("Sorry"))
			})
		})

		When("the date cannot be resolved", func() {
			BeforeEach(func() {
				extractor.extractErr = &extraction.InvalidDateError{Value: "not-a-date"}
			})

			It("returns 422 with the offending string", func() {
				Expect(recorder.Code).To(Equal(http.StatusUnprocessableEntity))

				var body scanErrorBody
				Expect(json.Unmarshal(recorder.Body.Bytes(), &body)).To(Succeed())
				Expect(body.Kind).To(Equal("invalid_date_format"))
				Expect(body.Detail).To(Equal("not-a-date"))
			})
		})

		When("the model call fails", func() {
			BeforeEach(func() {
				extractor.extractErr = &extraction.ModelError{Err: errors.New("quota exceeded")}
			})

			It("returns 502", func() {
				Expect(recorder.Code).To(Equal(http.StatusBadGateway))

				var body scanErrorBody
				Expect(json.Unmarshal(recorder.Body.Bytes(), &body)).To(Succeed())
				Expect(body.Kind).To(Equal("model_invocation_failed"))
			})
		})

		When("the upload is unauthenticated", func() {
			BeforeEach(func() {
				extractor.extractErr = &extraction.UploadError{Err: receipt.ErrUnauthenticated}
			})

			It("returns 401", func() {
				Expect(recorder.Code).To(Equal(http.StatusUnauthorized))
			})
		})
	})

	Describe("GET /api/receipts", func() {
		BeforeEach(func() {
			Expect(store.SaveReceipt(defaultUserID, extractedReceipt())).To(Succeed())
		})

		It("lists receipts", func() {
			request := httptest.NewRequest("GET", "/api/receipts", nil)
			srv.ServeHTTP(recorder, request)

			Expect(recorder.Code).To(Equal(http.StatusOK))
			var got []*receipt.Receipt
			Expect(json.Unmarshal(recorder.Body.Bytes(), &got)).To(Succeed())
			Expect(got).To(HaveLen(1))
		})

		It("filters by date range", func() {
			request := httptest.NewRequest("GET", "/api/receipts?from=2024-03-01&to=2024-03-31", nil)
			srv.ServeHTTP(recorder, request)

			Expect(recorder.Code).To(Equal(http.StatusOK))
			var got []*receipt.Receipt
			Expect(json.Unmarshal(recorder.Body.Bytes(), &got)).To(Succeed())
			Expect(got).To(HaveLen(1))
		})

		It("excludes receipts outside the range", func() {
			request := httptest.NewRequest("GET", "/api/receipts?from=2024-06-01&to=2024-06-30", nil)
			srv.ServeHTTP(recorder, request)

			Expect(recorder.Code).To(Equal(http.StatusOK))
			Expect(recorder.Body.String()).To(MatchJSON(`[]`))
		})

		It("includes receipts dated late on the 'to' day", func() {
			late := extractedReceipt()
			late.ID = "late"
			late.Date = time.Date(2024, 3, 31, 23, 45, 0, 0, time.UTC)
			Expect(store.SaveReceipt(defaultUserID, late)).To(Succeed())

			request := httptest.NewRequest("GET", "/api/receipts?from=2024-03-01&to=2024-03-31", nil)
			srv.ServeHTTP(recorder, request)

			var got []*receipt.Receipt
			Expect(json.Unmarshal(recorder.Body.Bytes(), &got)).To(Succeed())
			Expect(got).To(HaveLen(2))
		})

		It("rejects a malformed date", func() {
			request := httptest.NewRequest("GET", "/api/receipts?from=march", nil)
			srv.ServeHTTP(recorder, request)

			Expect(recorder.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("GET /api/receipts/{id}", func() {
		BeforeEach(func() {
			Expect(store.SaveReceipt(defaultUserID, extractedReceipt())).To(Succeed())
		})

		It("returns the receipt", func() {
			request := httptest.NewRequest("GET", "/api/receipts/r1", nil)
			srv.ServeHTTP(recorder, request)

			Expect(recorder.Code).To(Equal(http.StatusOK))
		})

		It("returns 404 for an unknown id", func() {
			request := httptest.NewRequest("GET", "/api/receipts/missing", nil)
			srv.ServeHTTP(recorder, request)

			Expect(recorder.Code).To(Equal(http.StatusNotFound))
		})
	})

	Describe("GET /api/receipts/{id}/image", func() {
		BeforeEach(func() {
			rec := extractedReceipt()
			rec.ImageURL = "local_image"
			Expect(store.SaveReceipt(defaultUserID, rec)).To(Succeed())
			images.files["local_image"] = []byte("photo bytes")
		})

		It("serves the stored photograph", func() {
			request := httptest.NewRequest("GET", "/api/receipts/r1/image", nil)
			srv.ServeHTTP(recorder, request)

			Expect(recorder.Code).To(Equal(http.StatusOK))
			Expect(recorder.Body.Bytes()).To(Equal([]byte("photo bytes")))
		})
	})

	Describe("DELETE /api/receipts/{id}", func() {
		BeforeEach(func() {
			Expect(store.SaveReceipt(defaultUserID, extractedReceipt())).To(Succeed())
		})

		It("returns 204 and removes the record", func() {
			request := httptest.NewRequest("DELETE", "/api/receipts/r1", nil)
			srv.ServeHTTP(recorder, request)

			Expect(recorder.Code).To(Equal(http.StatusNoContent))
			Expect(store.receipts[defaultUserID]).To(BeEmpty())
		})
	})

	Describe("basic auth", func() {
		BeforeEach(func() {
			srv = NewServer(NewService(store, images, extractor), BasicAuth{
				Username: "alice",
				Password: "secret",
			})
		})

		It("rejects requests without credentials", func() {
			request := httptest.NewRequest("GET", "/api/receipts", nil)
			srv.ServeHTTP(recorder, request)

			Expect(recorder.Code).To(Equal(http.StatusUnauthorized))
		})

		It("accepts valid credentials and scopes records to the user", func() {
			Expect(store.SaveReceipt("alice", extractedReceipt())).To(Succeed())

			request := httptest.NewRequest("GET", "/api/receipts", nil)
			request.SetBasicAuth("alice", "secret")
			srv.ServeHTTP(recorder, request)

			Expect(recorder.Code).To(Equal(http.StatusOK))
			var got []*receipt.Receipt
			Expect(json.Unmarshal(recorder.Body.Bytes(), &got)).To(Succeed())
			Expect(got).To(HaveLen(1))
		})

		It("rejects wrong credentials", func() {
			request := httptest.NewRequest("GET", "/api/receipts", nil)
			request.SetBasicAuth("alice", "wrong")
			srv.ServeHTTP(recorder, request)

			Expect(recorder.Code).To(Equal(http.StatusUnauthorized))
		})
	})
})
