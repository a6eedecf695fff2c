package handlers

import (
	"encoding/json"
	"net/http"

	"points-mall/internal/ledger"
	"points-mall/internal/model"
	"points-mall/internal/storage"
)

func (s *Server) ListProducts(w http.ResponseWriter, r *http.Request) {
	f := storage.ProductFilter{
		Page:    queryInt(r, "page", "1"),
		PerPage: queryInt(r, "per_page", "20"),
		Status:  model.ProductStatus(r.URL.Query().Get("status")),
		Keyword: r.URL.Query().Get("keyword"),
	}
	products, total, err := s.Store.ListProducts(r.Context(), f)
	if err != nil {
		s.httpError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, listResponse{List: products, Total: total, Page: f.Page, PerPage: f.PerPage})
}

func (s *Server) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		http.Error(w, "bad product id", http.StatusBadRequest)
		return
	}
	product, err := s.Store.ProductByID(r.Context(), id)
	if err != nil {
		s.httpError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, product)
}

func (s *Server) requireAdmin(w http.ResponseWriter, r *http.Request) *model.User {
	caller, err := s.currentUser(r)
	if err != nil {
		s.httpError(w, err)
		return nil
	}
	if caller.Role != model.RoleAdmin {
		s.httpError(w, ledger.ErrForbidden)
		return nil
	}
	return caller
}

type productBody struct {
	Name           *string              `json:"name"`
	Description    *string              `json:"description"`
	ImageURL       *string              `json:"image_url"`
	PointsRequired *int                 `json:"points_required"`
	Stock          *int                 `json:"stock"`
	Status         *model.ProductStatus `json:"status"`
	SortOrder      *int                 `json:"sort_order"`
}

func (b *productBody) apply(p *model.Product) {
	if b.Name != nil {
		p.Name = *b.Name
	}
	if b.Description != nil {
		p.Description = *b.Description
	}
	if b.ImageURL != nil {
		p.ImageURL = *b.ImageURL
	}
	if b.PointsRequired != nil {
		p.PointsRequired = *b.PointsRequired
	}
	if b.Stock != nil {
		p.Stock = *b.Stock
	}
	if b.Status != nil {
		p.Status = *b.Status
	}
	if b.SortOrder != nil {
		p.SortOrder = *b.SortOrder
	}
}

func validProduct(p *model.Product) string {
	if p.Name == "" {
		return "name is required"
	}
	if p.PointsRequired < 1 {
		return "points_required must be positive"
	}
	if p.Stock < 0 {
		return "stock must not be negative"
	}
	if p.Status != model.ProductListed && p.Status != model.ProductUnlisted {
		return "unknown status"
	}
	return ""
}

func (s *Server) CreateProduct(w http.ResponseWriter, r *http.Request) {
	if s.requireAdmin(w, r) == nil {
		return
	}

	var body productBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Bad request format", http.StatusBadRequest)
		return
	}
	product := &model.Product{Status: model.ProductUnlisted}
	body.apply(product)
	if msg := validProduct(product); msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}

	if err := s.Store.CreateProduct(r.Context(), product); err != nil {
		s.httpError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, product)
}

func (s *Server) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	if s.requireAdmin(w, r) == nil {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		http.Error(w, "bad product id", http.StatusBadRequest)
		return
	}

	product, err := s.Store.ProductByID(r.Context(), id)
	if err != nil {
		s.httpError(w, err)
		return
	}

	var body productBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Bad request format", http.StatusBadRequest)
		return
	}
	body.apply(product)
	if msg := validProduct(product); msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}

	if err := s.Store.UpdateProduct(r.Context(), product); err != nil {
		s.httpError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, product)
}

// ToggleProductStatus flips a product between listed and unlisted.
func (s *Server) ToggleProductStatus(w http.ResponseWriter, r *http.Request) {
	if s.requireAdmin(w, r) == nil {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		http.Error(w, "bad product id", http.StatusBadRequest)
		return
	}

	product, err := s.Store.ProductByID(r.Context(), id)
	if err != nil {
		s.httpError(w, err)
		return
	}
	if product.Status == model.ProductListed {
		product.Status = model.ProductUnlisted
	} else {
		product.Status = model.ProductListed
	}
	if err := s.Store.UpdateProduct(r.Context(), product); err != nil {
		s.httpError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, product)
}

func (s *Server) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	if s.requireAdmin(w, r) == nil {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		http.Error(w, "bad product id", http.StatusBadRequest)
		return
	}

	if err := s.Store.DeleteProduct(r.Context(), id); err != nil {
		s.httpError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}
