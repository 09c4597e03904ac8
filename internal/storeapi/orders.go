package storeapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/mallkit/mallkit/internal/cart"
	"github.com/mallkit/mallkit/internal/catalog"
	"github.com/mallkit/mallkit/internal/domain"
	"github.com/mallkit/mallkit/internal/order"
	"github.com/mallkit/mallkit/internal/session"
	"github.com/mallkit/mallkit/internal/webserver"
)

type checkoutPayload struct {
	ShippingAddress domain.ShippingAddress `json:"shippingAddress"`
}

type checkoutResponse struct {
	Order  domain.Order `json:"order"`
	Totals order.Totals `json:"totals"`
}

type statusPayload struct {
	Status string `json:"status"`
}

func registerOrderRoutes() {
	webserver.ApiPOST("/orders", checkout)
	webserver.ApiGET("/orders", listOrders)
	webserver.ApiGET("/orders/:id", getOrder)
	webserver.AdminPUT("/orders/:id/status", updateOrderStatus)
	webserver.AdminGET("/orders/export", exportOrders)
}

// checkout turns the session's cart into a persisted order. The order insert
// and the cart clear commit together: the row goes in first, then the session
// state drops the cart and appends the order in one commit.
func checkout(c echo.Context) error {
	var payload checkoutPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse checkout payload", err.Error())
	}

	appctx := GetApp(c)
	user := GetUser(c)
	sess := getSession(c)

	record, totals, err := order.Checkout(
		sess.Snapshot().Cart, payload.ShippingAddress, user.ID, appctx.Pricing(), time.Now())
	switch {
	case errors.Is(err, order.ErrEmptyCart):
		return fail(c, http.StatusBadRequest, "EMPTY_CART", "Cart is empty", nil)
	case errors.Is(err, order.ErrMissingAddress):
		return fail(c, http.StatusBadRequest, "INVALID_ADDRESS",
			"Please provide a complete shipping address", nil)
	case err != nil:
		return fail(c, http.StatusInternalServerError, "CHECKOUT_ERROR", "Checkout failed", err.Error())
	}

	err = GetDB(c).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&record).Error
	})
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create order", err.Error())
	}

	appctx.Sessions().Apply(sess, func(s *session.State) {
		s.Order = append(s.Order, record)
		s.Cart = cart.Reduce(s.Cart, cart.Clear{})
	})

	return created(c, "Order placed successfully", checkoutResponse{Order: record, Totals: totals})
}

// listOrders returns the caller's own orders; admins see everyone's with
// pagination.
func listOrders(c echo.Context) error {
	db := GetDB(c)
	user := GetUser(c)

	if !user.IsAdmin() {
		var orders []domain.Order
		if err := db.Preload("Items").Where("user_id = ?", user.ID).
			Order("created_at DESC").Find(&orders).Error; err != nil {
			return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query orders", err.Error())
		}
		message := "List of your orders"
		if len(orders) == 0 {
			message = "No orders found"
		}
		return ok(c, message, orders)
	}

	page, limit := parsePagination(c)
	var total int64
	if err := db.Model(&domain.Order{}).Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to count orders", err.Error())
	}
	var orders []domain.Order
	if err := db.Preload("Items").Order("created_at DESC").
		Offset((page - 1) * limit).Limit(limit).Find(&orders).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query orders", err.Error())
	}

	message := "List of all orders"
	if len(orders) == 0 {
		message = "No orders found"
	}
	return paged(c, message, orders, len(orders), catalog.Paginate(total, page, limit))
}

func getOrder(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid order ID format", nil)
	}

	var record domain.Order
	if err := GetDB(c).Preload("Items").Where("id = ?", id).First(&record).Error; errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Order not found", nil)
	} else if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query order", err.Error())
	}

	user := GetUser(c)
	if record.UserID != user.ID && !user.IsAdmin() {
		return fail(c, http.StatusForbidden, "FORBIDDEN", "You do not have access to this order", nil)
	}
	return ok(c, "Order found", record)
}

// updateOrderStatus moves an order forward through the lifecycle. Backward
// moves and moves out of a terminal status are rejected.
func updateOrderStatus(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid order ID format", nil)
	}
	var payload statusPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse status payload", err.Error())
	}
	target := strings.ToLower(strings.TrimSpace(payload.Status))

	db := GetDB(c)
	var record domain.Order
	if err := db.Preload("Items").Where("id = ?", id).First(&record).Error; errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Order not found", nil)
	} else if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query order", err.Error())
	}

	if err := order.Transition(&record, target, time.Now()); err != nil {
		switch {
		case errors.Is(err, order.ErrUnknownStatus):
			return fail(c, http.StatusBadRequest, "UNKNOWN_STATUS", "Unknown order status: "+target, nil)
		case errors.Is(err, order.ErrInvalidTransition):
			return fail(c, http.StatusBadRequest, "INVALID_TRANSITION",
				"Cannot change order status from "+record.Status+" to "+target, nil)
		default:
			return fail(c, http.StatusInternalServerError, "STATUS_ERROR", "Failed to update order status", err.Error())
		}
	}

	if err := db.Model(&domain.Order{}).Where("id = ?", id).
		Updates(map[string]interface{}{"status": record.Status, "updated_at": record.UpdatedAt}).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update order status", err.Error())
	}
	return ok(c, "Order status updated", record)
}

type orderCSVRow struct {
	ID          int64   `csv:"id"`
	UserID      int64   `csv:"user_id"`
	Status      string  `csv:"status"`
	TotalAmount float64 `csv:"total_amount"`
	Items       int     `csv:"items"`
	City        string  `csv:"city"`
	CreatedAt   string  `csv:"created_at"`
}

func exportOrders(c echo.Context) error {
	var orders []domain.Order
	if err := GetDB(c).Preload("Items").Order("created_at DESC").Find(&orders).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query orders", err.Error())
	}

	rows := make([]orderCSVRow, 0, len(orders))
	for _, o := range orders {
		rows = append(rows, orderCSVRow{
			ID:          o.ID,
			UserID:      o.UserID,
			Status:      o.Status,
			TotalAmount: o.TotalAmount,
			Items:       len(o.Items),
			City:        o.ShippingAddress.City,
			CreatedAt:   o.CreatedAt.Format(time.RFC3339),
		})
	}

	data, err := gocsv.MarshalString(&rows)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "EXPORT_ERROR", "Failed to export orders", err.Error())
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="orders.csv"`)
	return c.Blob(http.StatusOK, "text/csv", []byte(data))
}
