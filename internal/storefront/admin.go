package storefront

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"PartsShop/internal/catalog"
	"PartsShop/internal/session"
	"PartsShop/pkg/kit"
)

const (
	noticeInvalidIndex = "Invalid product index"
	noticeNotFound     = "Product not found"
	noticeSaveFailed   = "Could not save the catalog"
	noticeBadForm      = "Invalid form data"
	noticeAdded        = "Product added"
	noticeUpdated      = "Product updated"
	noticeDeleted      = "Product deleted"
	errBadCredentials  = "Invalid username or password"
)

func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := s.Sessions.Load(r)
		next.ServeHTTP(w, r.WithContext(session.WithSession(r.Context(), sess)))
	})
}

func (s *Server) saveSession(w http.ResponseWriter, sess *session.Session) {
	if err := s.Sessions.Save(w, sess); err != nil {
		s.Log.Error("session save failed", zap.Error(err))
	}
}

// requireAdmin lets valid sessions through with their activity refreshed and
// sends everything else back to the login page with a cleared session.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := session.FromContext(r.Context())

		if !session.LoginOK(sess, s.now(), s.ttl()) {
			sess.Clear()
			s.saveSession(w, sess)
			kit.SeeOther(w, r, routeLogin)
			return
		}

		s.saveSession(w, sess)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) loginForm(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())

	if session.LoginOK(sess, s.now(), s.ttl()) {
		s.saveSession(w, sess)
		kit.SeeOther(w, r, routePanel)
		return
	}

	sess.Clear()
	s.saveSession(w, sess)
	s.Render.Render(w, r, http.StatusOK, PageLogin, LoginPage{})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())

	if err := r.ParseForm(); err != nil {
		s.Render.Render(w, r, http.StatusBadRequest, PageLogin, LoginPage{Error: noticeBadForm})
		return
	}

	if !s.Admin.Verify(r.PostFormValue("username"), r.PostFormValue("password")) {
		s.Metrics.ObserveLogin("rejected")
		s.Log.Warn("admin login rejected", zap.String("remote", r.RemoteAddr))
		s.Render.Render(w, r, http.StatusUnauthorized, PageLogin, LoginPage{Error: errBadCredentials})
		return
	}

	sess.Clear()
	sess.Login(s.now())
	s.saveSession(w, sess)
	s.Metrics.ObserveLogin("ok")
	s.Log.Info("admin logged in", zap.String("remote", r.RemoteAddr))

	kit.SeeOther(w, r, routePanel)
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	sess.Clear()
	s.saveSession(w, sess)
	kit.SeeOther(w, r, routeLogin)
}

func (s *Server) panel(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	products := s.Catalog.List(r.Context())

	indexed := make([]IndexedProduct, 0, len(products))
	for i, p := range products {
		indexed = append(indexed, IndexedProduct{Index: i, Product: p})
	}

	flash := sess.PopFlash()
	s.saveSession(w, sess)

	s.Render.Render(w, r, http.StatusOK, PagePanel, PanelPage{
		Products:   indexed,
		Categories: catalog.Categories(products, s.presets()),
		Flash:      flash,
	})
}

// backToPanel stores notice (if any) in the session and redirects to the panel.
func (s *Server) backToPanel(w http.ResponseWriter, r *http.Request, notice string) {
	sess := session.FromContext(r.Context())
	if notice != "" {
		sess.SetFlash(notice)
	}
	s.saveSession(w, sess)
	kit.SeeOther(w, r, routePanel)
}

func (s *Server) add(w http.ResponseWriter, r *http.Request) {
	if err := s.parseProductForm(w, r); err != nil {
		s.Log.Warn("add product: bad form", zap.Error(err))
		s.backToPanel(w, r, noticeBadForm)
		return
	}

	p := productFromForm(r)
	img, notice := s.storeImage(r)
	p.Image = img

	created, err := s.Catalog.Append(r.Context(), p)
	if err != nil {
		s.discardUpload(img)
		s.Metrics.ObserveMutation("add", "error")
		s.Log.Error("add product failed", zap.Error(err))
		s.backToPanel(w, r, noticeSaveFailed)
		return
	}

	s.Metrics.ObserveMutation("add", "ok")
	s.Log.Info("product added", zap.String("id", created.ID), zap.String("name", created.Name))
	s.backToPanel(w, r, firstNonEmpty(notice, noticeAdded))
}

func (s *Server) deleteAt(w http.ResponseWriter, r *http.Request) {
	index, ok := indexParam(r)
	if !ok {
		s.Metrics.ObserveMutation("delete", "invalid_index")
		s.backToPanel(w, r, noticeInvalidIndex)
		return
	}

	removed, err := s.Catalog.RemoveAt(r.Context(), index)
	s.afterDelete(w, r, removed, err, zap.Int("index", index))
}

func (s *Server) deleteByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	removed, err := s.Catalog.RemoveByID(r.Context(), id)
	s.afterDelete(w, r, removed, err, zap.String("id", id))
}

func (s *Server) afterDelete(w http.ResponseWriter, r *http.Request, removed catalog.Product, err error, key zap.Field) {
	switch {
	case errors.Is(err, catalog.ErrIndexOutOfRange):
		s.Metrics.ObserveMutation("delete", "invalid_index")
		s.backToPanel(w, r, noticeInvalidIndex)
	case errors.Is(err, catalog.ErrProductNotFound):
		s.Metrics.ObserveMutation("delete", "not_found")
		s.backToPanel(w, r, noticeNotFound)
	case err != nil:
		s.Metrics.ObserveMutation("delete", "error")
		s.Log.Error("delete product failed", zap.Error(err), key)
		s.backToPanel(w, r, noticeSaveFailed)
	default:
		s.Metrics.ObserveMutation("delete", "ok")
		s.Log.Info("product deleted", key, zap.String("name", removed.Name))
		s.backToPanel(w, r, noticeDeleted)
	}
}

func (s *Server) editAt(w http.ResponseWriter, r *http.Request) {
	index, ok := indexParam(r)
	if !ok {
		s.Metrics.ObserveMutation("edit", "invalid_index")
		s.backToPanel(w, r, noticeInvalidIndex)
		return
	}

	products := s.Catalog.List(r.Context())
	if index >= len(products) {
		s.Metrics.ObserveMutation("edit", "invalid_index")
		s.backToPanel(w, r, noticeInvalidIndex)
		return
	}

	p, uploaded, notice, err := s.editedProduct(w, r, products[index])
	if err != nil {
		s.backToPanel(w, r, noticeBadForm)
		return
	}

	err = s.Catalog.ReplaceAt(r.Context(), index, p)
	s.afterEdit(w, r, err, uploaded, notice, zap.Int("index", index))
}

func (s *Server) editByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	current, _, found := s.Catalog.Get(r.Context(), id)
	if !found {
		s.Metrics.ObserveMutation("edit", "not_found")
		s.backToPanel(w, r, noticeNotFound)
		return
	}

	p, uploaded, notice, err := s.editedProduct(w, r, current)
	if err != nil {
		s.backToPanel(w, r, noticeBadForm)
		return
	}

	err = s.Catalog.ReplaceByID(r.Context(), id, p)
	s.afterEdit(w, r, err, uploaded, notice, zap.String("id", id))
}

// editedProduct builds the replacement record. uploaded is the URL of an image
// stored for this request, if any.
func (s *Server) editedProduct(w http.ResponseWriter, r *http.Request, current catalog.Product) (p catalog.Product, uploaded, notice string, err error) {
	if err := s.parseProductForm(w, r); err != nil {
		s.Log.Warn("edit product: bad form", zap.Error(err))
		return catalog.Product{}, "", "", err
	}

	p = productFromForm(r)
	uploaded, notice = s.storeImage(r)
	p.Image = editedImage(r, current.Image, uploaded)
	return p, uploaded, notice, nil
}

func (s *Server) afterEdit(w http.ResponseWriter, r *http.Request, err error, uploaded, notice string, key zap.Field) {
	if err != nil {
		s.discardUpload(uploaded)
	}

	switch {
	case errors.Is(err, catalog.ErrIndexOutOfRange):
		s.Metrics.ObserveMutation("edit", "invalid_index")
		s.backToPanel(w, r, noticeInvalidIndex)
	case errors.Is(err, catalog.ErrProductNotFound):
		s.Metrics.ObserveMutation("edit", "not_found")
		s.backToPanel(w, r, noticeNotFound)
	case err != nil:
		s.Metrics.ObserveMutation("edit", "error")
		s.Log.Error("edit product failed", zap.Error(err), key)
		s.backToPanel(w, r, noticeSaveFailed)
	default:
		s.Metrics.ObserveMutation("edit", "ok")
		s.Log.Info("product updated", key)
		s.backToPanel(w, r, firstNonEmpty(notice, noticeUpdated))
	}
}

func (s *Server) discardUpload(url string) {
	if url == "" || s.Uploads == nil {
		return
	}
	if err := s.Uploads.Remove(url); err != nil {
		s.Log.Warn("remove orphaned upload failed", zap.String("url", url), zap.Error(err))
	}
}

func indexParam(r *http.Request) (int, bool) {
	i, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || i < 0 {
		return 0, false
	}
	return i, true
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
