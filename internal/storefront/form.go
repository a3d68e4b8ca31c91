package storefront

import (
	"errors"
	"math"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"PartsShop/internal/catalog"
	"PartsShop/internal/upload"
)

const (
	formOverhead     = 1 << 20
	multipartMemory  = 8 << 20
	noticeBadImage   = "Image skipped: only png, jpg, jpeg, webp and gif files are accepted"
	noticeBigImage   = "Image skipped: file is too large"
	noticeImageError = "Image skipped: upload failed"
)

func (s *Server) parseProductForm(w http.ResponseWriter, r *http.Request) error {
	limit := int64(upload.DefaultMaxBytes)
	if s.Uploads != nil {
		limit = s.Uploads.MaxBytes
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit+formOverhead)

	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct == "multipart/form-data" {
		return r.ParseMultipartForm(multipartMemory)
	}
	return r.ParseForm()
}

func productFromForm(r *http.Request) catalog.Product {
	category := field(r, "category")
	if custom := field(r, "new_category"); custom != "" {
		category = custom
	}

	return catalog.Product{
		Name:        field(r, "name"),
		Description: field(r, "description"),
		Price:       parsePrice(r.PostFormValue("price")),
		Category:    category,
		Year:        parseYear(r.PostFormValue("year")),
		Make:        field(r, "make"),
		Model:       field(r, "model"),
		Phone:       field(r, "phone"),
	}
}

func field(r *http.Request, name string) string {
	return strings.TrimSpace(r.PostFormValue(name))
}

// parsePrice falls back to zero for anything that is not a finite number.
func parsePrice(raw string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func parseYear(raw string) catalog.Year {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return catalog.Year{}
	}
	return catalog.YearFromInt(n)
}

// storeImage saves the optional "image" file. A rejected upload does not fail
// the request; the returned notice explains why the image was skipped.
func (s *Server) storeImage(r *http.Request) (string, string) {
	if s.Uploads == nil || r.MultipartForm == nil {
		return "", ""
	}

	files := r.MultipartForm.File["image"]
	if len(files) == 0 {
		return "", ""
	}

	url, err := s.Uploads.Save(files[0])
	switch {
	case err == nil:
		return url, ""
	case errors.Is(err, upload.ErrNoFile):
		return "", ""
	case errors.Is(err, upload.ErrExtensionNotAllowed):
		s.Log.Warn("image rejected", zap.String("filename", files[0].Filename))
		return "", noticeBadImage
	case errors.Is(err, upload.ErrFileTooLarge):
		s.Log.Warn("image too large", zap.String("filename", files[0].Filename), zap.Int64("size", files[0].Size))
		return "", noticeBigImage
	default:
		s.Log.Error("image upload failed", zap.Error(err))
		return "", noticeImageError
	}
}

// editedImage picks the image for an edited record: a fresh upload, else the
// submitted image URL, else the current one. "remove_image" clears it.
func editedImage(r *http.Request, current, uploaded string) string {
	if uploaded != "" {
		return uploaded
	}
	if r.PostFormValue("remove_image") != "" {
		return ""
	}
	if v := field(r, "image"); v != "" {
		return v
	}
	return current
}
