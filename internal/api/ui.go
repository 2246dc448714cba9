package api

import (
	"errors"
	"net/http"
	"net/url"
	"sort"
	"strconv"

	"github.com/gin-gonic/gin"

	"mealdesk/internal/auth"
	"mealdesk/internal/models"
	"mealdesk/internal/panel"
)

type nameCount struct {
	Name  string
	Count int
}

type officeTotals struct {
	Office string
	Totals []nameCount
}

type pageData struct {
	Meals       []models.CatalogItem
	Drinks      []models.CatalogItem
	Users       []models.User
	Offices     []string
	Totals      []officeTotals
	Pending     []panel.PendingOrder
	Detail      *panel.ItemStats
	Alert       string
	AuthEnabled bool
	UserName    string
}

func sortedTotals(totals map[string]int) []nameCount {
	out := make([]nameCount, 0, len(totals))
	for name, n := range totals {
		out = append(out, nameCount{Name: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// indexPage renders every section of the panel from one state snapshot
func (s *Server) indexPage(c *gin.Context) {
	state := s.panel.State()
	offices := s.panel.Offices()
	data := pageData{
		Meals:       state.Foods,
		Drinks:      state.Drinks,
		Users:       state.Users,
		Offices:     offices,
		Pending:     panel.PendingOrderView(state),
		Alert:       c.Query("alert"),
		AuthEnabled: s.authEnabled,
	}
	for _, office := range offices {
		data.Totals = append(data.Totals, officeTotals{
			Office: office,
			Totals: sortedTotals(panel.OfficeOrderTotals(state, office)),
		})
	}
	if v, ok := c.Get(auth.ContextClaims); ok {
		data.UserName = v.(*auth.Claims).Name
	}

	for _, kind := range []models.CatalogKind{models.KindMeal, models.KindDrink} {
		raw := c.Query(string(kind))
		if raw == "" {
			continue
		}
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			if stats, ok := panel.ItemDetail(state, kind, id); ok {
				data.Detail = &stats
			}
		}
		break
	}

	c.HTML(http.StatusOK, "index.html", data)
}

func (s *Server) back(c *gin.Context) {
	c.Redirect(http.StatusSeeOther, "/")
}

// formError keeps incomplete forms silent and logs the rest. Store failures
// while placing an order come back to the page as an alert.
func (s *Server) formError(c *gin.Context, err error, alert bool) {
	if errors.Is(err, panel.ErrIncomplete) || errors.Is(err, panel.ErrNotFound) {
		s.back(c)
		return
	}
	s.log.Printf("form %s: %v", c.Request.URL.Path, err)
	if alert {
		c.Redirect(http.StatusSeeOther, "/?alert="+url.QueryEscape(err.Error()))
		return
	}
	s.back(c)
}

func formID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	return id, err == nil
}

func (s *Server) addItemForm(kind models.CatalogKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		var form panel.CatalogForm
		if err := c.ShouldBind(&form); err != nil {
			s.back(c)
			return
		}
		if _, err := s.panel.AddItem(c.Request.Context(), kind, form); err != nil {
			s.formError(c, err, false)
			return
		}
		s.back(c)
	}
}

func (s *Server) deleteItemForm(kind models.CatalogKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		if id, ok := formID(c); ok {
			if err := s.panel.DeleteItem(c.Request.Context(), kind, id); err != nil {
				s.formError(c, err, false)
				return
			}
		}
		s.back(c)
	}
}

func (s *Server) addUserForm(c *gin.Context) {
	var form panel.UserForm
	if err := c.ShouldBind(&form); err != nil {
		s.back(c)
		return
	}
	if _, err := s.auth.Register(c.Request.Context(), form); err != nil {
		s.formError(c, err, false)
		return
	}
	s.back(c)
}

func (s *Server) deleteUserForm(c *gin.Context) {
	if id, ok := formID(c); ok {
		if err := s.panel.DeleteUser(c.Request.Context(), id); err != nil {
			s.formError(c, err, false)
			return
		}
	}
	s.back(c)
}

func (s *Server) addOrderForm(c *gin.Context) {
	var form panel.OrderForm
	if err := c.ShouldBind(&form); err != nil {
		s.back(c)
		return
	}
	if _, err := s.panel.AddOrder(c.Request.Context(), form); err != nil {
		s.formError(c, err, true)
		return
	}
	s.back(c)
}

func (s *Server) advanceOrderForm(c *gin.Context) {
	if id, ok := formID(c); ok {
		if _, err := s.panel.AdvanceOrder(c.Request.Context(), id); err != nil {
			s.formError(c, err, false)
			return
		}
	}
	s.back(c)
}

func (s *Server) deleteOrderForm(c *gin.Context) {
	if id, ok := formID(c); ok {
		if err := s.panel.DeleteOrder(c.Request.Context(), id); err != nil {
			s.formError(c, err, false)
			return
		}
	}
	s.back(c)
}

func (s *Server) loginPage(c *gin.Context) {
	c.HTML(http.StatusOK, "login.html", gin.H{"Failed": c.Query("failed") != ""})
}

func (s *Server) loginSubmit(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		c.Redirect(http.StatusSeeOther, "/ui/login?failed=1")
		return
	}
	token, err := s.auth.Login(c.Request.Context(), req.Name, req.Password)
	if err != nil {
		if !errors.Is(err, auth.ErrInvalidCredentials) {
			s.log.Printf("login %q: %v", req.Name, err)
		}
		c.Redirect(http.StatusSeeOther, "/ui/login?failed=1")
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(auth.CookieName, token, 0, "/", "", false, true)
	s.back(c)
}

func (s *Server) logoutSubmit(c *gin.Context) {
	c.SetCookie(auth.CookieName, "", -1, "/", "", false, true)
	c.Redirect(http.StatusSeeOther, "/ui/login")
}
