package httpserver

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/shop_api/internal/models"
	"github.com/Skotchmaster/shop_api/internal/repo"
	"github.com/Skotchmaster/shop_api/internal/service"
	"github.com/Skotchmaster/shop_api/pkg/logging"
)

const uploadField = "my_file"

type ProductHTTP struct {
	Svc *service.CatalogService
}

type productRequest struct {
	Image       string  `json:"image"`
	Title       string  `json:"title"       validate:"required"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Brand       string  `json:"brand"`
	Price       float64 `json:"price"       validate:"gte=0"`
	SalePrice   float64 `json:"salePrice"   validate:"gte=0"`
	TotalStock  int     `json:"totalStock"  validate:"gte=0"`
}

type productPatchRequest struct {
	Image       *string  `json:"image"`
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Category    *string  `json:"category"`
	Brand       *string  `json:"brand"`
	Price       *float64 `json:"price"`
	SalePrice   *float64 `json:"salePrice"`
	TotalStock  *int     `json:"totalStock"`
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// GetFiltered serves the storefront listing: ?category=a,b&brand=x&sortBy=price-lowtohigh.
func (h *ProductHTTP) GetFiltered(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "shop.products.list")

	items, err := h.Svc.ListProducts(ctx, repo.ProductFilter{
		Categories: splitList(c.QueryParam("category")),
		Brands:     splitList(c.QueryParam("brand")),
		SortBy:     c.QueryParam("sortBy"),
	})
	if err != nil {
		return respondErr(c, l, "list_products", err)
	}
	return ok(c, http.StatusOK, items)
}

func (h *ProductHTTP) GetDetails(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "shop.products.get")

	id, err := uuidParam(c, "id")
	if err != nil {
		return respondErr(c, l, "get_product", err)
	}
	p, err := h.Svc.GetProduct(ctx, id)
	if err != nil {
		return respondErr(c, l, "get_product", err)
	}
	return ok(c, http.StatusOK, p)
}

func (h *ProductHTTP) UploadImage(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.products.upload")

	fh, err := c.FormFile(uploadField)
	if err != nil {
		return respondErr(c, l, "upload_image", echo.NewHTTPError(http.StatusBadRequest, "File is required"))
	}
	f, err := fh.Open()
	if err != nil {
		return respondErr(c, l, "upload_image", err)
	}
	defer f.Close()

	url, err := h.Svc.UploadImage(ctx, fh.Filename, fh.Header.Get(echo.HeaderContentType), f)
	if err != nil {
		return respondErr(c, l, "upload_image", err)
	}
	l.Info("image uploaded", "url", url, "size", fh.Size)
	return c.JSON(http.StatusOK, echo.Map{"success": true, "result": echo.Map{"url": url}})
}

func (h *ProductHTTP) Add(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.products.add")

	var req productRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondErr(c, l, "add_product", err)
	}
	p := models.Product{
		Image:       req.Image,
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Brand:       req.Brand,
		Price:       req.Price,
		SalePrice:   req.SalePrice,
		TotalStock:  req.TotalStock,
	}
	if err := h.Svc.CreateProduct(ctx, &p); err != nil {
		return respondErr(c, l, "add_product", err)
	}

	l.Info("product created", "product_id", p.ID)
	return ok(c, http.StatusCreated, p)
}

func (h *ProductHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.products.list")

	items, err := h.Svc.ListProducts(ctx, repo.ProductFilter{SortBy: c.QueryParam("sortBy")})
	if err != nil {
		return respondErr(c, l, "list_products", err)
	}
	return ok(c, http.StatusOK, items)
}

func (h *ProductHTTP) Edit(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.products.edit")

	id, err := uuidParam(c, "id")
	if err != nil {
		return respondErr(c, l, "edit_product", err)
	}
	var req productPatchRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondErr(c, l, "edit_product", err)
	}

	p, err := h.Svc.UpdateProduct(ctx, id, service.ProductPatch{
		Image:       req.Image,
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Brand:       req.Brand,
		Price:       req.Price,
		SalePrice:   req.SalePrice,
		TotalStock:  req.TotalStock,
	})
	if err != nil {
		return respondErr(c, l, "edit_product", err)
	}

	l.Info("product updated", "product_id", p.ID)
	return ok(c, http.StatusOK, p)
}

func (h *ProductHTTP) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.products.delete")

	id, err := uuidParam(c, "id")
	if err != nil {
		return respondErr(c, l, "delete_product", err)
	}
	if err := h.Svc.DeleteProduct(ctx, id); err != nil {
		return respondErr(c, l, "delete_product", err)
	}

	l.Info("product deleted", "product_id", id)
	return okMsg(c, http.StatusOK, "Product deleted successfully", nil)
}
