package main

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Styling
var (
	docStyle = lipgloss.NewStyle().Margin(1, 2)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#0a84ff")).
			Padding(0, 1)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#30d158")).
			Padding(0, 1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#ff453a")).
			Padding(0, 1)
)

const (
	viewMain    = "main"
	viewOrders  = "orders"
	viewOffices = "offices"
	viewMenu    = "menu"
)

// Model defines the application state
type Model struct {
	mainMenu    list.Model
	orderTable  table.Model
	officeTable table.Model
	menuTable   table.Model
	spinner     spinner.Model
	client      *ApiClient
	orders      []PendingOrder
	loading     bool
	currentView string
	status      string
	error       string
}

// item represents a list item
type item struct {
	title, desc string
}

func (i item) FilterValue() string { return i.title }
func (i item) Title() string       { return i.title }
func (i item) Description() string { return i.desc }

func newTable(columns []table.Column) table.Model {
	return table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(12),
	)
}

func initialModel(client *ApiClient) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	items := []list.Item{
		item{title: "Pending Orders", desc: "Advance or remove orders that are not delivered yet"},
		item{title: "Office Totals", desc: "Item counts per office"},
		item{title: "Menu", desc: "Meals and drinks on offer"},
		item{title: "Exit", desc: "Exit the application"},
	}
	mainMenu := list.New(items, list.NewDefaultDelegate(), 60, 14)
	mainMenu.Title = "mealdesk"

	return Model{
		mainMenu: mainMenu,
		orderTable: newTable([]table.Column{
			{Title: "ID", Width: 14},
			{Title: "User", Width: 16},
			{Title: "Meal", Width: 22},
			{Title: "Drink", Width: 16},
			{Title: "When", Width: 17},
			{Title: "Status", Width: 10},
		}),
		officeTable: newTable([]table.Column{
			{Title: "Office", Width: 12},
			{Title: "Item", Width: 28},
			{Title: "Count", Width: 8},
		}),
		menuTable: newTable([]table.Column{
			{Title: "Kind", Width: 8},
			{Title: "Name", Width: 24},
			{Title: "Description", Width: 40},
		}),
		spinner:     s,
		client:      client,
		currentView: viewMain,
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tea.EnterAltScreen)
}

// Update handles UI updates
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "esc":
			m.currentView = viewMain
			m.error = ""
			m.status = ""
			return m, nil
		case "enter":
			switch m.currentView {
			case viewMain:
				selected, ok := m.mainMenu.SelectedItem().(item)
				if !ok {
					return m, nil
				}
				switch selected.title {
				case "Exit":
					return m, tea.Quit
				case "Pending Orders":
					m.currentView = viewOrders
					m.loading = true
					return m, fetchOrders(m.client)
				case "Office Totals":
					m.currentView = viewOffices
					m.loading = true
					return m, fetchOffices(m.client)
				case "Menu":
					m.currentView = viewMenu
					m.loading = true
					return m, fetchMenu(m.client)
				}
			case viewOrders:
				if id, ok := m.selectedOrder(); ok {
					return m, advanceOrder(m.client, id)
				}
			}
		case "d":
			if m.currentView == viewOrders {
				if id, ok := m.selectedOrder(); ok {
					return m, deleteOrder(m.client, id)
				}
			}
		case "r":
			switch m.currentView {
			case viewOrders:
				return m, fetchOrders(m.client)
			case viewOffices:
				return m, fetchOffices(m.client)
			case viewMenu:
				return m, fetchMenu(m.client)
			}
		case "tab":
			if m.currentView == viewOrders {
				m.currentView = viewOffices
				return m, fetchOffices(m.client)
			}
			if m.currentView == viewOffices {
				m.currentView = viewOrders
				return m, fetchOrders(m.client)
			}
		}
	case ordersMsg:
		m.loading = false
		m.error = ""
		m.orders = msg.orders
		m.orderTable.SetRows(orderRows(msg.orders))
		return m, nil
	case rowsMsg:
		m.loading = false
		m.error = ""
		if msg.view == viewOffices {
			m.officeTable.SetRows(msg.rows)
		} else {
			m.menuTable.SetRows(msg.rows)
		}
		return m, nil
	case errorMsg:
		m.loading = false
		m.error = msg.err
		return m, nil
	case confirmMsg:
		m.error = ""
		m.status = msg.message
		return m, fetchOrders(m.client)
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	switch m.currentView {
	case viewMain:
		m.mainMenu, cmd = m.mainMenu.Update(msg)
	case viewOrders:
		m.orderTable, cmd = m.orderTable.Update(msg)
	case viewOffices:
		m.officeTable, cmd = m.officeTable.Update(msg)
	case viewMenu:
		m.menuTable, cmd = m.menuTable.Update(msg)
	}
	return m, cmd
}

func (m Model) selectedOrder() (int64, bool) {
	row := m.orderTable.SelectedRow()
	if row == nil {
		return 0, false
	}
	id, err := strconv.ParseInt(row[0], 10, 64)
	return id, err == nil
}

// View renders the UI
func (m Model) View() string {
	var body, help string
	switch m.currentView {
	case viewMain:
		return docStyle.Render(m.mainMenu.View())
	case viewOrders:
		body = titleStyle.Render("Pending Orders") + "\n\n" + m.orderTable.View()
		help = "'enter' advance status, 'd' delete, 'r' refresh, 'tab' office totals, 'esc' back"
	case viewOffices:
		body = titleStyle.Render("Office Totals") + "\n\n" + m.officeTable.View()
		help = "'r' refresh, 'tab' pending orders, 'esc' back"
	case viewMenu:
		body = titleStyle.Render("Menu") + "\n\n" + m.menuTable.View()
		help = "'r' refresh, 'esc' back"
	default:
		return "Loading..."
	}

	if m.loading {
		body += "\n" + m.spinner.View() + " loading"
	}
	body += "\n" + infoStyle.Render(m.client.BaseURL) + " " + help + "\n"
	if m.status != "" {
		body += successStyle.Render(m.status) + "\n"
	}
	if m.error != "" {
		body += errorStyle.Render(m.error) + "\n"
	}
	return docStyle.Render(body)
}

// Custom message types for the tea.Model
type ordersMsg struct {
	orders []PendingOrder
}

type rowsMsg struct {
	view string
	rows []table.Row
}

type errorMsg struct {
	err string
}

type confirmMsg struct {
	message string
}

func fetchOrders(client *ApiClient) tea.Cmd {
	return func() tea.Msg {
		orders, err := client.GetPendingOrders()
		if err != nil {
			return errorMsg{err: fmt.Sprintf("Error fetching orders: %v", err)}
		}
		return ordersMsg{orders: orders}
	}
}

func fetchOffices(client *ApiClient) tea.Cmd {
	return func() tea.Msg {
		totals, err := client.GetOfficeTotals()
		if err != nil {
			return errorMsg{err: fmt.Sprintf("Error fetching office totals: %v", err)}
		}
		return rowsMsg{view: viewOffices, rows: officeRows(totals)}
	}
}

func fetchMenu(client *ApiClient) tea.Cmd {
	return func() tea.Msg {
		var rows []table.Row
		for _, kind := range []string{"meals", "drinks"} {
			items, err := client.GetCatalog(kind)
			if err != nil {
				return errorMsg{err: fmt.Sprintf("Error fetching %s: %v", kind, err)}
			}
			for _, it := range items {
				rows = append(rows, table.Row{kind, it.Name, it.Description})
			}
		}
		return rowsMsg{view: viewMenu, rows: rows}
	}
}

func advanceOrder(client *ApiClient, id int64) tea.Cmd {
	return func() tea.Msg {
		if err := client.AdvanceOrder(id); err != nil {
			return errorMsg{err: fmt.Sprintf("Error advancing order: %v", err)}
		}
		return confirmMsg{message: fmt.Sprintf("Order %d advanced", id)}
	}
}

func deleteOrder(client *ApiClient, id int64) tea.Cmd {
	return func() tea.Msg {
		if err := client.DeleteOrder(id); err != nil {
			return errorMsg{err: fmt.Sprintf("Error deleting order: %v", err)}
		}
		return confirmMsg{message: fmt.Sprintf("Order %d deleted", id)}
	}
}

func orderRows(orders []PendingOrder) []table.Row {
	rows := make([]table.Row, len(orders))
	for i, o := range orders {
		drink := "-"
		if o.DrinkName != "" {
			drink = fmt.Sprintf("%s x%d", o.DrinkName, o.DrinkQuantity)
		}
		rows[i] = table.Row{
			strconv.FormatInt(o.ID, 10),
			o.UserName,
			fmt.Sprintf("%s x%d", o.MealName, o.MealQuantity),
			drink,
			o.Date + " " + o.Time,
			o.Status,
		}
	}
	return rows
}

func officeRows(totals map[string]map[string]int) []table.Row {
	offices := make([]string, 0, len(totals))
	for office := range totals {
		offices = append(offices, office)
	}
	sort.Strings(offices)

	var rows []table.Row
	for _, office := range offices {
		names := make([]string, 0, len(totals[office]))
		for name := range totals[office] {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			rows = append(rows, table.Row{office, name, strconv.Itoa(totals[office][name])})
		}
	}
	return rows
}

func main() {
	user := flag.String("user", "", "Log in as this user before starting")
	password := flag.String("password", os.Getenv("MEALDESK_PASSWORD"), "Password for -user")
	flag.Parse()

	client := NewApiClient()
	if ok, err := client.CheckHealth(); !ok {
		fmt.Printf("Warning: API server at %s is not available: %v\n", client.BaseURL, err)
	}
	if *user != "" {
		if err := client.Login(*user, *password); err != nil {
			fmt.Printf("Login failed: %v\n", err)
			os.Exit(1)
		}
	}

	p := tea.NewProgram(initialModel(client))
	if _, err := p.Run(); err != nil {
		fmt.Printf("Error running program: %v", err)
		os.Exit(1)
	}
}
