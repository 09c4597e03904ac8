package storeapi

import (
	"errors"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	jsoniter "github.com/json-iterator/go"
	"github.com/labstack/echo/v4"
	"github.com/spf13/cast"
	"gorm.io/gorm"

	"github.com/mallkit/mallkit/internal/catalog"
	"github.com/mallkit/mallkit/internal/domain"
	"github.com/mallkit/mallkit/internal/webserver"
	"github.com/mallkit/mallkit/pkg/common"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type productPayload struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       *float64 `json:"price"`
	Category    string   `json:"category"`
	Brand       string   `json:"brand"`
	Stock       *int     `json:"stock"`
	Image       string   `json:"image"`
}

// registerProductRoutes registers the catalog endpoints. Reads are public,
// mutations and the export are admin only.
func registerProductRoutes() {
	webserver.PubGET("/products", listProducts)
	webserver.PubGET("/products/:id", getProduct)
	webserver.AdminGET("/products/export", exportProducts)
	webserver.AdminPOST("/products", createProducts)
	webserver.AdminPUT("/products/:id", updateProduct)
	webserver.AdminDELETE("/products/:id", deleteProduct)
}

// listProducts runs the catalog query pipeline: search, category filters,
// comparison filters, sort, pagination. Empty results are a success.
func listProducts(c echo.Context) error {
	query := catalog.ParseQuery(c.QueryParams())
	products, pagination, err := query.Find(GetDB(c))
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query products", err.Error())
	}

	message := "List of all products"
	if len(products) == 0 {
		message = "No products found"
	}
	return paged(c, message, products, len(products), pagination)
}

func getProduct(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID format", nil)
	}
	var p domain.Product
	if err := GetDB(c).Where("id = ?", id).First(&p).Error; errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Product not found", nil)
	} else if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query product", err.Error())
	}
	return ok(c, "Product found", p)
}

func roundPrice(v float64) float64 {
	return math.Round(v*100) / 100
}

// validateProductPayload checks the required fields and builds the record
func validateProductPayload(payload productPayload) (domain.Product, string) {
	payload.Name = strings.TrimSpace(payload.Name)
	payload.Description = strings.TrimSpace(payload.Description)
	payload.Category = strings.TrimSpace(payload.Category)
	payload.Brand = strings.TrimSpace(payload.Brand)
	payload.Image = strings.TrimSpace(payload.Image)

	if payload.Name == "" || payload.Description == "" || payload.Category == "" ||
		payload.Image == "" || payload.Price == nil || payload.Stock == nil {
		return domain.Product{}, "Please provide all required fields: name, description, price, category, brand, stock, image"
	}
	if *payload.Price < 0 || math.IsNaN(*payload.Price) {
		return domain.Product{}, "Price must be a valid positive number"
	}
	if *payload.Stock < 0 {
		return domain.Product{}, "Stock must be a valid positive number"
	}
	if payload.Brand == "" {
		payload.Brand = "Generic"
	}

	now := time.Now()
	return domain.Product{
		ID:          common.UUIDint64(),
		Name:        payload.Name,
		Description: payload.Description,
		Price:       roundPrice(*payload.Price),
		Category:    payload.Category,
		Brand:       payload.Brand,
		Stock:       *payload.Stock,
		Image:       payload.Image,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, ""
}

func nameExists(db *gorm.DB, name string, excludeID int64) bool {
	var count int64
	db.Model(&domain.Product{}).
		Where("LOWER(name) = ?", strings.ToLower(strings.TrimSpace(name))).
		Where("id != ?", excludeID).
		Count(&count)
	return count > 0
}

// createProducts accepts a single product payload or an array of them.
// Names must be unique case-insensitively, both against the store and
// within the batch.
func createProducts(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to read request body", nil)
	}

	var payloads []productPayload
	if err := json.Unmarshal(body, &payloads); err != nil {
		var single productPayload
		if err := json.Unmarshal(body, &single); err != nil {
			return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse product payload", err.Error())
		}
		payloads = []productPayload{single}
	}
	if len(payloads) == 0 {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "No products provided", nil)
	}

	db := GetDB(c)
	seen := make(map[string]bool, len(payloads))
	records := make([]domain.Product, 0, len(payloads))
	for _, payload := range payloads {
		record, message := validateProductPayload(payload)
		if message != "" {
			return fail(c, http.StatusBadRequest, "INVALID_REQUEST", message, nil)
		}
		lower := strings.ToLower(record.Name)
		if seen[lower] || nameExists(db, record.Name, 0) {
			return fail(c, http.StatusBadRequest, "DUPLICATE_NAME", "Product with this name already exists", nil)
		}
		seen[lower] = true
		records = append(records, record)
	}

	if err := db.Create(&records).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create product", err.Error())
	}

	if len(records) == 1 {
		return created(c, "Product created successfully", records[0])
	}
	return created(c, "Products created successfully", records)
}

// product fields accepted by update, everything else is dropped
var productUpdateFields = map[string]bool{
	"name":        true,
	"description": true,
	"price":       true,
	"category":    true,
	"brand":       true,
	"stock":       true,
	"image":       true,
}

func updateProduct(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID format", nil)
	}

	var payload map[string]interface{}
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse product payload", err.Error())
	}

	updates := map[string]interface{}{}
	for key, value := range payload {
		if !productUpdateFields[key] {
			continue
		}
		switch key {
		case "price":
			price, err := cast.ToFloat64E(value)
			if err != nil || price < 0 {
				return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Price must be a valid positive number", nil)
			}
			updates[key] = roundPrice(price)
		case "stock":
			stock, err := cast.ToIntE(value)
			if err != nil || stock < 0 {
				return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Stock must be a valid positive number", nil)
			}
			updates[key] = stock
		default:
			text := strings.TrimSpace(cast.ToString(value))
			if text == "" {
				continue
			}
			updates[key] = text
		}
	}
	if len(updates) == 0 {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "No valid fields to update", nil)
	}

	db := GetDB(c)
	var p domain.Product
	if err := db.Where("id = ?", id).First(&p).Error; errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Product not found", nil)
	} else if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query product", err.Error())
	}

	if name, found := updates["name"]; found {
		if nameExists(db, name.(string), id) {
			return fail(c, http.StatusBadRequest, "DUPLICATE_NAME", "Product with this name already exists", nil)
		}
	}

	updates["updated_at"] = time.Now()
	if err := db.Model(&p).Updates(updates).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update product", err.Error())
	}
	db.Where("id = ?", id).First(&p)
	return ok(c, "Product updated successfully", p)
}

func deleteProduct(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID format", nil)
	}
	var p domain.Product
	if err := GetDB(c).Where("id = ?", id).First(&p).Error; errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Product not found", nil)
	} else if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query product", err.Error())
	}
	if err := GetDB(c).Delete(&domain.Product{}, id).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to delete product", err.Error())
	}
	return ok(c, "Product deleted successfully", p)
}

type productCSVRow struct {
	ID        int64   `csv:"id"`
	Name      string  `csv:"name"`
	Category  string  `csv:"category"`
	Brand     string  `csv:"brand"`
	Price     float64 `csv:"price"`
	Stock     int     `csv:"stock"`
	CreatedAt string  `csv:"created_at"`
}

// exportProducts streams the full catalog as CSV
func exportProducts(c echo.Context) error {
	var products []domain.Product
	if err := GetDB(c).Order("created_at DESC").Find(&products).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query products", err.Error())
	}

	rows := make([]productCSVRow, 0, len(products))
	for _, p := range products {
		rows = append(rows, productCSVRow{
			ID:        p.ID,
			Name:      p.Name,
			Category:  p.Category,
			Brand:     p.Brand,
			Price:     p.Price,
			Stock:     p.Stock,
			CreatedAt: p.CreatedAt.Format(time.RFC3339),
		})
	}

	data, err := gocsv.MarshalString(&rows)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "EXPORT_ERROR", "Failed to export products", err.Error())
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="products.csv"`)
	return c.Blob(http.StatusOK, "text/csv", []byte(data))
}
