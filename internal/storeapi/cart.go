package storeapi

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cast"
	"gorm.io/gorm"

	"github.com/mallkit/mallkit/internal/cart"
	"github.com/mallkit/mallkit/internal/domain"
	"github.com/mallkit/mallkit/internal/webserver"
)

type addItemPayload struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

func registerCartRoutes() {
	webserver.ApiGET("/cart", getCart)
	webserver.ApiPOST("/cart/items", addCartItem)
	webserver.ApiPOST("/cart/items/:id/increase", increaseCartItem)
	webserver.ApiPOST("/cart/items/:id/decrease", decreaseCartItem)
	webserver.ApiPUT("/cart/items/:id", updateCartItem)
	webserver.ApiDELETE("/cart/items/:id", removeCartItem)
	webserver.ApiDELETE("/cart", clearCart)
}

func getCart(c echo.Context) error {
	sess := getSession(c)
	return ok(c, "Cart contents", sess.Snapshot().Cart)
}

// addCartItem snapshots the product into a cart line. Price, name, image
// and the stock ceiling are frozen at add time.
func addCartItem(c echo.Context) error {
	var payload addItemPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse cart payload", err.Error())
	}
	productID := cast.ToInt64(payload.ProductID)
	if productID == 0 {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID format", nil)
	}

	var p domain.Product
	if err := GetDB(c).Where("id = ?", productID).First(&p).Error; errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Product not found", nil)
	} else if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query product", err.Error())
	}
	if p.Stock < 1 {
		return fail(c, http.StatusBadRequest, "OUT_OF_STOCK", "Product is out of stock", nil)
	}

	sess := getSession(c)
	state := GetApp(c).Sessions().Dispatch(sess, cart.Add{
		Line: cart.Line{
			ProductID: p.ID,
			Name:      p.Name,
			Price:     p.Price,
			Image:     p.Image,
			Stock:     p.Stock,
		},
		Quantity: payload.Quantity,
	})
	return ok(c, "Item added to cart", state)
}

func increaseCartItem(c echo.Context) error {
	return stepCartItem(c, true)
}

func decreaseCartItem(c echo.Context) error {
	return stepCartItem(c, false)
}

func stepCartItem(c echo.Context, up bool) error {
	productID, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID format", nil)
	}
	sess := getSession(c)
	if _, found := sess.Snapshot().Cart.Find(productID); !found {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Item not found in cart", nil)
	}

	var action cart.Action = cart.Increase{ProductID: productID}
	message := "Item quantity increased"
	if !up {
		action = cart.Decrease{ProductID: productID}
		message = "Item quantity decreased"
	}
	state := GetApp(c).Sessions().Dispatch(sess, action)
	return ok(c, message, state)
}

// updateCartItem field-merges the payload onto an existing line. Quantity is
// clamped to the line's stock ceiling, zero or below removes the line.
func updateCartItem(c echo.Context) error {
	productID, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID format", nil)
	}

	var fields map[string]interface{}
	if err := c.Bind(&fields); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse cart payload", err.Error())
	}
	if len(fields) == 0 {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "No fields to update", nil)
	}

	sess := getSession(c)
	if _, found := sess.Snapshot().Cart.Find(productID); !found {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Item not found in cart", nil)
	}

	state := GetApp(c).Sessions().Dispatch(sess, cart.Update{ProductID: productID, Fields: fields})
	return ok(c, "Cart item updated", state)
}

func removeCartItem(c echo.Context) error {
	productID, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID format", nil)
	}
	sess := getSession(c)
	if _, found := sess.Snapshot().Cart.Find(productID); !found {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Item not found in cart", nil)
	}
	state := GetApp(c).Sessions().Dispatch(sess, cart.Remove{ProductID: productID})
	return ok(c, "Item removed from cart", state)
}

func clearCart(c echo.Context) error {
	sess := getSession(c)
	state := GetApp(c).Sessions().Dispatch(sess, cart.Clear{})
	return ok(c, "Cart cleared", state)
}
