package server

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/apm/internal/catalog"
)

type productsView struct {
	Products                      []catalog.Product `json:"products"`
	Filter                        string            `json:"listFilter"`
	ShowProductCode               bool              `json:"showProductCode"`
	CurrentProduct                *catalog.Product  `json:"currentProduct"`
	CurrentProductDescriptionHTML string            `json:"currentProductDescriptionHtml"`
	Error                         string            `json:"error"`
}

func (s *Server) productsView(r *http.Request) productsView {
	st := s.store.GetState()
	v := productsView{
		Products:                      s.catalog.VisibleProducts.Select(st),
		Filter:                        s.catalog.Filter.Select(st),
		ShowProductCode:               s.catalog.ShowProductCode.Select(st),
		CurrentProduct:                s.catalog.CurrentProduct.Select(st),
		CurrentProductDescriptionHTML: s.catalog.CurrentProductDescriptionHTML.Select(st),
		Error:                         s.catalog.Error.Select(st),
	}
	if r.URL.Query().Get("all") == "true" {
		v.Products = s.catalog.Products.Select(st)
	}
	return v
}

func (s *Server) getProducts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.productsView(r))
}

func (s *Server) loadProducts(w http.ResponseWriter, r *http.Request) {
	s.dispatch(w, r, catalog.Load{})
}

func (s *Server) createProduct(w http.ResponseWriter, r *http.Request) {
	var p catalog.Product
	if err := decode(r, &p); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	p.ID = catalog.NewProductID
	s.dispatch(w, r, catalog.CreateProduct{Product: p})
}

func (s *Server) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var p catalog.Product
	if err := decode(r, &p); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	p.ID = id
	s.dispatch(w, r, catalog.UpdateProduct{Product: p})
}

func (s *Server) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	s.dispatch(w, r, catalog.DeleteProduct{ID: id})
}

func (s *Server) setCurrentProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	p := s.catalog.ProductByID.Select(s.store.GetState(), id)
	if p == nil {
		writeError(w, http.StatusNotFound, catalog.ErrNotFound.Error())
		return
	}
	s.dispatch(w, r, catalog.SetCurrentProduct{Product: *p})
}

func (s *Server) initializeCurrentProduct(w http.ResponseWriter, r *http.Request) {
	s.dispatch(w, r, catalog.InitializeCurrentProduct{})
}

func (s *Server) clearCurrentProduct(w http.ResponseWriter, r *http.Request) {
	s.dispatch(w, r, catalog.ClearCurrentProduct{})
}

func (s *Server) toggleProductCode(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Show bool `json:"show"`
	}
	if err := decode(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.dispatch(w, r, catalog.ToggleProductCode{Show: body.Show})
}

func (s *Server) setListFilter(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Filter string `json:"filter"`
	}
	if err := decode(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.dispatch(w, r, catalog.SetListFilter{Filter: body.Filter})
}

func pathID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid product id")
		return 0, false
	}
	return id, true
}
