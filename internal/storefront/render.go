package storefront

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"

	"PartsShop/internal/catalog"
	"PartsShop/pkg/kit"
)

const (
	PageIndex = "index"
	PageAlt   = "alt"
	PageLogin = "admin_login"
	PagePanel = "admin_panel"
)

// Renderer turns a named page and its data into a response. HTML templates
// live outside this package and plug in here.
type Renderer interface {
	Render(w http.ResponseWriter, r *http.Request, status int, page string, data any)
}

// JSONRenderer emits {"page": ..., "data": ...} documents.
type JSONRenderer struct{}

type document struct {
	Page string `json:"page"`
	Data any    `json:"data"`
}

func (JSONRenderer) Render(w http.ResponseWriter, _ *http.Request, status int, page string, data any) {
	kit.WriteJSON(w, status, document{Page: page, Data: data})
}

type StorefrontPage struct {
	Products         []catalog.Product `json:"products"`
	Categories       []string          `json:"categories"`
	Search           string            `json:"search"`
	SelectedCategory string            `json:"selected_category"`
	Year             string            `json:"year"`
	Make             string            `json:"make"`
	Model            string            `json:"model"`
	Filtered         bool              `json:"filtered"`
}

type LoginPage struct {
	Error string `json:"error,omitempty"`
}

// IndexedProduct is a record plus its current position, encoded as the
// record's own object with an extra "index" key.
type IndexedProduct struct {
	Index int
	catalog.Product
}

func (ip IndexedProduct) MarshalJSON() ([]byte, error) {
	raw, err := ip.Product.MarshalJSON()
	if err != nil {
		return nil, err
	}

	out := []byte(`{"index":` + strconv.Itoa(ip.Index))
	raw = bytes.TrimSpace(raw)
	if len(raw) > 2 && raw[0] == '{' {
		out = append(out, ',')
		return append(out, raw[1:]...), nil
	}
	return append(out, '}'), nil
}

func (ip *IndexedProduct) UnmarshalJSON(b []byte) error {
	var pos struct {
		Index int `json:"index"`
	}
	if err := json.Unmarshal(b, &pos); err != nil {
		return err
	}
	if err := ip.Product.UnmarshalJSON(b); err != nil {
		return err
	}
	ip.Index = pos.Index
	return nil
}

type PanelPage struct {
	Products   []IndexedProduct `json:"products"`
	Categories []string         `json:"categories"`
	Flash      string           `json:"flash,omitempty"`
}
