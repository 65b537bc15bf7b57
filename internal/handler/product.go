package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/venue-admin/internal/model"
	"github.com/iliyamo/venue-admin/internal/service"
	"github.com/iliyamo/venue-admin/internal/storage"
)

// ProductStore is the catalog persistence the product endpoints use.
type ProductStore interface {
	List(ctx context.Context) ([]*model.Product, error)
	GetByID(ctx context.Context, id uint64) (*model.Product, error)
	Create(ctx context.Context, p *model.Product) error
	Update(ctx context.Context, p *model.Product) error
	Delete(ctx context.Context, id uint64) error
}

// ProductHandler manages the services catalog.
type ProductHandler struct {
	base
	Products ProductStore
	Files    service.FileStore
}

func NewProductHandler(products ProductStore, files service.FileStore, log logrus.FieldLogger) *ProductHandler {
	if products == nil || files == nil {
		panic("nil dependency passed to NewProductHandler")
	}
	return &ProductHandler{base: base{Log: log}, Products: products, Files: files}
}

type productReq struct {
	Type     *string `json:"type" validate:"omitempty,min=1,max=255"`
	Name     *string `json:"name" validate:"omitempty,min=1,max=255"`
	Price    *string `json:"price" validate:"omitempty,money"`
	Stock    *string `json:"stock" validate:"omitempty,number,max=9"`
	Category *string `json:"category" validate:"omitempty,min=1,max=255"`
}

func (h *ProductHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	ps, err := h.Products.List(ctx)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": ps, "count": len(ps)})
}

func (h *ProductHandler) Get(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid product id")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	p, err := h.Products.GetByID(ctx, id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

// Create: POST /v1/products; every field but the image is required.
func (h *ProductHandler) Create(c echo.Context) error {
	req, err := h.bind(c)
	if err != nil || req == nil {
		return err
	}
	missing := map[string]string{}
	for name, v := range map[string]*string{"type": req.Type, "name": req.Name, "price": req.Price, "stock": req.Stock, "category": req.Category} {
		if v == nil || *v == "" {
			missing[name] = "required"
		}
	}
	if len(missing) > 0 {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "validation failed", "fields": missing})
	}
	p := &model.Product{}
	fillProduct(p, req)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if fh := formFile(c, "image"); fh != nil {
		rel, err := h.Files.Save(fh, storage.DirProducts)
		if err != nil {
			return h.fail(c, err)
		}
		p.Image = &rel
	}
	if err := h.Products.Create(ctx, p); err != nil {
		if p.Image != nil {
			_ = h.Files.Delete(*p.Image)
		}
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": msgCreated, "product": p})
}

// Update: PUT|PATCH /v1/products/:id; absent fields are left unchanged.
func (h *ProductHandler) Update(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid product id")
	}
	req, err := h.bind(c)
	if err != nil || req == nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	p, err := h.Products.GetByID(ctx, id)
	if err != nil {
		return h.fail(c, err)
	}
	old := p.Image
	fillProduct(p, req)
	if fh := formFile(c, "image"); fh != nil {
		rel, err := h.Files.Save(fh, storage.DirProducts)
		if err != nil {
			return h.fail(c, err)
		}
		p.Image = &rel
	}
	if err := h.Products.Update(ctx, p); err != nil {
		if p.Image != old {
			_ = h.Files.Delete(*p.Image)
		}
		return h.fail(c, err)
	}
	if old != nil && p.Image != old {
		if err := h.Files.Delete(*old); err != nil {
			h.Log.WithError(err).WithField("path", *old).Warn("remove product image failed")
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"message": msgUpdated, "product": p})
}

func (h *ProductHandler) Delete(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid product id")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	p, err := h.Products.GetByID(ctx, id)
	if err != nil {
		return h.fail(c, err)
	}
	if err := h.Products.Delete(ctx, id); err != nil {
		return h.fail(c, err)
	}
	if p.Image != nil {
		_ = h.Files.Delete(*p.Image)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": msgDeleted})
}

func (h *ProductHandler) bind(c echo.Context) (*productReq, error) {
	v, err := formValues(c)
	if err != nil {
		return nil, badRequest(c, "invalid body")
	}
	req := &productReq{
		Type: field(v, "type"), Name: field(v, "name"), Price: field(v, "price"),
		Stock: field(v, "stock"), Category: field(v, "category"),
	}
	if err := c.Validate(req); err != nil {
		return nil, h.fail(c, err)
	}
	return req, nil
}

func fillProduct(p *model.Product, req *productReq) {
	set := func(dst *string, src *string) {
		if src != nil && *src != "" {
			*dst = *src
		}
	}
	set(&p.Type, req.Type)
	set(&p.Name, req.Name)
	set(&p.Category, req.Category)
	if req.Price != nil && *req.Price != "" {
		p.Price = decimal.RequireFromString(*req.Price)
	}
	if req.Stock != nil && *req.Stock != "" {
		n, _ := strconv.Atoi(*req.Stock)
		p.Stock = n
	}
}
