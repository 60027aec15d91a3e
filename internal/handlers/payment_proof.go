package handlers

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Code-minner/symbolStores-sub001/internal/orders"
)

const maxProofSize = 5 << 20

var allowedProofExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".pdf":  true,
}

func saveProofFile(file *multipart.FileHeader, dir, orderID string) (string, error) {
	if file.Size > maxProofSize {
		return "", fmt.Errorf("file exceeds %d bytes", int64(maxProofSize))
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedProofExtensions[ext] {
		return "", fmt.Errorf("unsupported file type %q", ext)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	// Name derives from the order id, never from the client filename.
	name := fmt.Sprintf("%s-%d%s", orderID, time.Now().Unix(), ext)
	target := filepath.Join(dir, name)

	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	dst, err := os.Create(target)
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, io.LimitReader(src, maxProofSize)); err != nil {
		os.Remove(target)
		return "", err
	}
	return target, nil
}

// UploadPaymentProof stores a proof-of-payment file for a bank-transfer
// order and moves it into the verification queue.
func UploadPaymentProof(svc *orders.Service, uploadDir string) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /orders/:orderId/proof"
		defer handlePanic(c, route)

		orderID := c.Param("orderId")

		file, err := c.FormFile("proof")
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "a proof file is required")
			return
		}

		path, err := saveProofFile(file, uploadDir, orderID)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		order, err := svc.MarkProofSubmitted(c.Request.Context(), orderID, path)
		if err != nil {
			os.Remove(path)
			respondOrderError(c, route, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"orderId": order.OrderID,
			"status":  order.Status,
			"message": "proof received, payment is awaiting verification",
		})
	}
}
