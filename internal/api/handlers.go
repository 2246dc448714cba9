package api

import (
	"net/http"
	"slices"
	"strconv"

	"github.com/gin-gonic/gin"

	"mealdesk/internal/models"
	"mealdesk/internal/panel"
)

// StatusRequest is the body of PUT /orders/:id/status
type StatusRequest struct {
	Status models.Status `json:"status" binding:"required"`
}

// LoginRequest is the body of POST /auth/login
type LoginRequest struct {
	Name     string `json:"name" form:"name" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

func paramID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		problem(c, http.StatusBadRequest, "invalid-id", "id must be an integer")
		return 0, false
	}
	return id, true
}

func bindJSON(c *gin.Context, v interface{}) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		problem(c, http.StatusBadRequest, "invalid-body", err.Error())
		return false
	}
	return true
}

// Catalog handlers

func (s *Server) listItems(kind models.CatalogKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, s.panel.Items(kind))
	}
}

func (s *Server) addItem(kind models.CatalogKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		var form panel.CatalogForm
		if !bindJSON(c, &form) {
			return
		}
		item, err := s.panel.AddItem(c.Request.Context(), kind, form)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, item)
	}
}

func (s *Server) deleteItem(kind models.CatalogKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c)
		if !ok {
			return
		}
		if err := s.panel.DeleteItem(c.Request.Context(), kind, id); err != nil {
			writeError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func (s *Server) itemDetail(kind models.CatalogKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c)
		if !ok {
			return
		}
		stats, found := panel.ItemDetail(s.panel.State(), kind, id)
		if !found {
			problem(c, http.StatusNotFound, "not-found", string(kind)+" not found")
			return
		}
		c.JSON(http.StatusOK, stats)
	}
}

// User handlers

func (s *Server) listUsers(c *gin.Context) {
	c.JSON(http.StatusOK, s.panel.Users())
}

func (s *Server) registerUser(c *gin.Context) {
	var form panel.UserForm
	if !bindJSON(c, &form) {
		return
	}
	user, err := s.auth.Register(c.Request.Context(), form)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (s *Server) deleteUser(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if err := s.panel.DeleteUser(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Order handlers

func (s *Server) listOrders(c *gin.Context) {
	c.JSON(http.StatusOK, s.panel.Orders())
}

func (s *Server) addOrder(c *gin.Context) {
	var form panel.OrderForm
	if !bindJSON(c, &form) {
		return
	}
	order, err := s.panel.AddOrder(c.Request.Context(), form)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

func (s *Server) pendingOrders(c *gin.Context) {
	c.JSON(http.StatusOK, panel.PendingOrderView(s.panel.State()))
}

func (s *Server) deleteOrder(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if err := s.panel.DeleteOrder(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) updateOrderStatus(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var req StatusRequest
	if !bindJSON(c, &req) {
		return
	}
	order, err := s.panel.UpdateOrderStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (s *Server) advanceOrder(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	order, err := s.panel.AdvanceOrder(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// Report handlers

func (s *Server) officeReports(c *gin.Context) {
	c.JSON(http.StatusOK, panel.AllOfficeTotals(s.panel.State(), s.panel.Offices()))
}

func (s *Server) officeReport(c *gin.Context) {
	office := c.Param("office")
	if !slices.Contains(s.panel.Offices(), office) {
		problem(c, http.StatusNotFound, "not-found", "unknown office "+office)
		return
	}
	c.JSON(http.StatusOK, panel.OfficeOrderTotals(s.panel.State(), office))
}

// Auth and monitoring

func (s *Server) login(c *gin.Context) {
	var req LoginRequest
	if !bindJSON(c, &req) {
		return
	}
	token, err := s.auth.Login(c.Request.Context(), req.Name, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (s *Server) metrics(c *gin.Context) {
	if s.monitor == nil {
		c.JSON(http.StatusOK, gin.H{})
		return
	}
	data := s.monitor.GetMetrics()
	if s.hub != nil {
		data["live_clients"] = s.hub.Count()
	}
	c.JSON(http.StatusOK, data)
}
