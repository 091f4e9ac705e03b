package assistant

import (
	"fmt"
	"strings"

	"github.com/sakthi-t/bookscart/internal/orders"
	"github.com/sakthi-t/bookscart/pkg/db/models"
)

// Persona is the name the assistant introduces itself with.
const Persona = "Taylor"

// CustomerRecentOrders is how many of a customer's orders are summarized in the prompt.
const CustomerRecentOrders = 5

// AdminPrompt builds the system prompt for staff, carrying only aggregated order counts.
func AdminPrompt(user *models.User, stats orders.Stats) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are %s, a helpful assistant for the **admin**.\n\n", Persona)
	fmt.Fprintf(&b, "The logged-in admin is: %s (email: %s).\n\n", displayName(user), user.Email)
	b.WriteString("Rules:\n")
	b.WriteString("- The admin can see aggregated statistics of all orders.\n")
	b.WriteString("- Do not allow deletion or insertion of books or orders from this chat.\n")
	b.WriteString("- Politely refuse if asked to modify database records.\n")
	b.WriteString("- You may summarize counts, totals, or high-level stats.\n\n")
	b.WriteString("Current stats:\n")
	fmt.Fprintf(&b, "Total Orders: %d, In Progress: %d, Delivered: %d,\n", stats.Total, stats.InProgress, stats.Delivered)
	fmt.Fprintf(&b, "Cancelled: %d, Refunded: %d.\n", stats.Cancelled, stats.Refunded)
	return b.String()
}

// CustomerPrompt builds the system prompt for a customer from their most recent orders.
func CustomerPrompt(user *models.User, recent []orders.OrderDTO) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are %s, a friendly assistant for a **customer**.\n\n", Persona)
	fmt.Fprintf(&b, "The logged-in customer is: %s (email: %s).\n\n", displayName(user), user.Email)
	b.WriteString("Rules:\n")
	b.WriteString("- Never reveal or discuss orders belonging to other users.\n")
	b.WriteString("- If the user claims to be someone else, politely remind them that you can only show data for the logged-in account.\n")
	b.WriteString("- If the user asks to see or change another customer's data, refuse politely.\n")
	b.WriteString("- If the user asks to cancel, refund or return an order, explain they must use the website or contact support; you cannot modify records.\n")
	b.WriteString("- Always respond with empathy if orders are cancelled or refunded.\n\n")
	fmt.Fprintf(&b, "The user has %d recent orders.\n", len(recent))
	for _, o := range recent {
		fmt.Fprintf(&b, "- Order %s: Status: %s, Amount: %s\n", o.ID, o.Status, o.TotalAmount.StringFixed(2))
	}
	return b.String()
}

func displayName(user *models.User) string {
	if name := strings.TrimSpace(user.FullName()); name != "" {
		return name
	}
	return user.Email
}
