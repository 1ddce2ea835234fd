package httpserver

import (
	"errors"
	"log"
	"net/http"

	"eato/internal/domain"
	authsvc "eato/internal/service/auth"
	cartsvc "eato/internal/service/cart"
	"github.com/gin-gonic/gin"
)

type handlers struct {
	auth   AuthService
	menu   MenuService
	cart   CartService
	logger *log.Logger
}

type signInRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type addItemRequest struct {
	MenuItemID string `json:"menuItemId" binding:"required"`
	Quantity   int    `json:"quantity"`
}

type reconcileRequest struct {
	Entries []domain.CartEntry `json:"entries"`
}

func (h *handlers) signUp(c *gin.Context) {
	var req authsvc.SignUpInput
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithStatus(c, http.StatusBadRequest, "invalid request body")
		return
	}
	u, token, err := h.auth.SignUp(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sessionResponse{User: *u, Token: token, ExpiresIn: h.auth.SessionTTLSeconds()})
}

func (h *handlers) signIn(c *gin.Context) {
	var req signInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithStatus(c, http.StatusBadRequest, "email and password are required")
		return
	}
	u, token, err := h.auth.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sessionResponse{User: *u, Token: token, ExpiresIn: h.auth.SessionTTLSeconds()})
}

func (h *handlers) signOut(c *gin.Context) {
	if err := h.auth.SignOut(c.Request.Context(), c.GetString(sessionTokenKey)); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) me(c *gin.Context) {
	u, ok := authsvc.FromContext(c.Request.Context())
	if !ok {
		writeError(c, domain.ErrAuthenticationRequired)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u})
}

func (h *handlers) listMenu(c *gin.Context) {
	items, err := h.menu.List(c.Request.Context())
	if err != nil {
		h.logger.Printf("menu list error=%v", err)
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newListResponse(items))
}

func (h *handlers) getMenuItem(c *gin.Context) {
	item, err := h.menu.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *handlers) getCart(c *gin.Context) {
	entries, err := h.cart.Load(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCartResponse(entries))
}

func (h *handlers) addCartItem(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithStatus(c, http.StatusBadRequest, "menuItemId is required")
		return
	}
	line, err := h.cart.AddItem(c.Request.Context(), req.MenuItemID, req.Quantity)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"line": line})
}

// reconcileCart applies the client's quantities and answers with the fresh cart.
func (h *handlers) reconcileCart(c *gin.Context) {
	var req reconcileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithStatus(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.cart.Reconcile(c.Request.Context(), req.Entries); err != nil {
		writeError(c, err)
		return
	}
	h.getCart(c)
}

func (h *handlers) removeCartEntry(c *gin.Context) {
	var entry domain.CartEntry
	if err := c.ShouldBindJSON(&entry); err != nil || len(entry.SourceLineIDs) == 0 {
		abortWithStatus(c, http.StatusBadRequest, "sourceLineIds are required")
		return
	}
	err := h.cart.RemoveEntry(c.Request.Context(), entry)
	var partial *cartsvc.PartialDeleteFailure
	switch {
	case err == nil:
		c.JSON(http.StatusOK, removeResponse{Removed: true})
	case errors.As(err, &partial):
		c.JSON(http.StatusMultiStatus, removeResponse{Removed: true, FailedLineIDs: partial.FailedLineIDs})
	default:
		writeError(c, err)
	}
}

func (h *handlers) checkout(c *gin.Context) {
	id, err := h.cart.Checkout(c.Request.Context())
	var incomplete *cartsvc.CheckoutIncomplete
	switch {
	case err == nil:
		c.Header("Location", orderPath(id))
		c.JSON(http.StatusCreated, checkoutResponse{OrderID: id, Next: orderPath(id)})
	case errors.As(err, &incomplete):
		h.logger.Printf("checkout incomplete order=%s unplaced=%d", incomplete.OrderID, len(incomplete.UnplacedLineIDs))
		c.Header("Location", orderPath(incomplete.OrderID))
		c.JSON(http.StatusMultiStatus, checkoutResponse{
			OrderID:         incomplete.OrderID,
			Next:            orderPath(incomplete.OrderID),
			UnplacedLineIDs: incomplete.UnplacedLineIDs,
		})
	default:
		writeError(c, err)
	}
}

func (h *handlers) listOrders(c *gin.Context) {
	orders, err := h.cart.Orders(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newListResponse(orders))
}

func (h *handlers) getOrder(c *gin.Context) {
	o, err := h.cart.Order(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}
