package handlers

import (
	"bytes"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/Code-minner/symbolStores-sub001/internal/models"
)

func TestCustomerMatchesOrder(t *testing.T) {
	order := &models.Order{
		Customer: models.OrderCustomer{
			Email: "ada@example.com",
			Phone: "+2348012345678",
		},
	}

	if !customerMatchesOrder(order, "ADA@example.com", "") {
		t.Fatal("email match should be case-insensitive")
	}
	if !customerMatchesOrder(order, "", "+2348012345678") {
		t.Fatal("phone match should pass")
	}
	if customerMatchesOrder(order, "other@example.com", "") {
		t.Fatal("wrong email must not match")
	}
	if customerMatchesOrder(order, "", "") {
		t.Fatal("no contact info must not match")
	}
}

func TestParsePaginationParams(t *testing.T) {
	page, limit, err := parsePaginationParams("", "")
	if err != nil || page != 1 || limit != 20 {
		t.Fatalf("expected defaults 1/20, got %d/%d err=%v", page, limit, err)
	}

	page, limit, err = parsePaginationParams("3", "50")
	if err != nil || page != 3 || limit != 50 {
		t.Fatalf("expected 3/50, got %d/%d err=%v", page, limit, err)
	}

	if _, _, err := parsePaginationParams("0", "10"); err == nil {
		t.Fatal("page 0 must be rejected")
	}
	if _, _, err := parsePaginationParams("1", "500"); err == nil {
		t.Fatal("oversized limit must be rejected")
	}
	if _, _, err := parsePaginationParams("abc", "10"); err == nil {
		t.Fatal("non-numeric page must be rejected")
	}
}

func multipartProof(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("proof", filename)
	if err != nil {
		t.Fatal(err)
	}
	part.Write(content)
	writer.Close()

	req := httptest.NewRequest("POST", "/", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if err := req.ParseMultipartForm(32 << 20); err != nil {
		t.Fatal(err)
	}
	return req.MultipartForm.File["proof"][0]
}

func TestSaveProofFileRejectsBadExtension(t *testing.T) {
	file := multipartProof(t, "receipt.exe", []byte("payload"))
	if _, err := saveProofFile(file, t.TempDir(), "ORD-1"); err == nil {
		t.Fatal("executable upload must be rejected")
	}
}

func TestSaveProofFileStoresUnderOrderID(t *testing.T) {
	dir := t.TempDir()
	file := multipartProof(t, "../../../etc/receipt.png", []byte("imagedata"))

	path, err := saveProofFile(file, dir, "ORD-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filepath.Dir(path) != dir {
		t.Fatalf("proof stored outside upload dir: %s", path)
	}
	name := filepath.Base(path)
	if name[:6] != "ORD-1-" {
		t.Fatalf("filename must derive from order id, got %s", name)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("stored file missing: %v", err)
	}
}
