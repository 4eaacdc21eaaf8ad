package email

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	sent []*Email
	err  error
}

func (r *recordingSender) Send(ctx context.Context, email *Email) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	r.sent = append(r.sent, email)
	return "id-1", nil
}

func TestGeneratePlainText(t *testing.T) {
	tests := []struct {
		name     string
		html     string
		contains []string
		excludes []string
	}{
		{
			name:     "simple paragraph",
			html:     "<p>Hello, World!</p>",
			contains: []string{"Hello, World!"},
			excludes: []string{"<p>", "</p>"},
		},
		{
			name:     "line breaks",
			html:     "Line 1<br>Line 2<br/>Line 3<br />Line 4",
			contains: []string{"Line 1", "Line 2", "Line 3", "Line 4"},
			excludes: []string{"<br>", "<br/>", "<br />"},
		},
		{
			name:     "table rows",
			html:     "<table><tr><td>Dress (M)</td><td>3</td></tr></table>",
			contains: []string{"Dress (M) 3"},
			excludes: []string{"<td>", "<tr>"},
		},
		{
			name:     "HTML entities",
			html:     "Price: 10 &amp; shipping &lt;5&gt; &quot;free&quot; &#39;now&#39;",
			contains: []string{"Price: 10 & shipping", "<5>", "\"free\"", "'now'"},
			excludes: []string{"&amp;", "&lt;", "&gt;", "&quot;", "&#39;"},
		},
		{
			name:     "links stripped",
			html:     `<a href="https://example.com">Click here</a>`,
			contains: []string{"Click here"},
			excludes: []string{"<a", "href", "</a>"},
		},
		{
			name: "empty content",
			html: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := generatePlainText(tt.html)

			for _, want := range tt.contains {
				assert.Contains(t, result, want)
			}
			for _, exclude := range tt.excludes {
				assert.NotContains(t, result, exclude)
			}
		})
	}
}

func TestGeneratePlainText_DropsBlankLines(t *testing.T) {
	result := generatePlainText(`
		<p>   Line with spaces   </p>
		<p></p>
		<p>Another line</p>
	`)

	assert.Equal(t, "Line with spaces\nAnother line", result)
}

func TestService_SendOrderConfirmation(t *testing.T) {
	sender := &recordingSender{}
	svc, err := NewService(sender, "shop@example.com", "La Rose")
	require.NoError(t, err)

	err = svc.SendOrderConfirmation(context.Background(), OrderConfirmationEmail{
		OrderID:      42,
		Email:        "amani@example.com",
		CustomerName: "Amani",
		OrderDate:    time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		Items:        []OrderItem{{Name: "Dress (M)", Quantity: 3, Price: "25.00", Total: "75.00"}},
		Subtotal:     "75.00",
		Shipping:     "10.00",
		Tax:          "12.00",
		Total:        "97.00",
		Address:      "12 Avenue du Commerce",
		City:         "Kinshasa",
		Country:      "RDC",
		Payment:      "Cash",
	})
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)

	msg := sender.sent[0]
	assert.Equal(t, []string{"amani@example.com"}, msg.To)
	assert.Equal(t, "La Rose <shop@example.com>", msg.From)
	assert.Equal(t, "Order Confirmation #42", msg.Subject)
	assert.Contains(t, msg.HTMLBody, "Dress (M)")
	assert.Contains(t, msg.HTMLBody, "97.00")
	assert.Contains(t, msg.TextBody, "Total: 97.00")
	assert.False(t, strings.Contains(msg.TextBody, "<strong>"))
}

func TestService_SendOrderConfirmation_SenderError(t *testing.T) {
	sender := &recordingSender{err: errors.New("connection refused")}
	svc, err := NewService(sender, "shop@example.com", "")
	require.NoError(t, err)

	err = svc.SendOrderConfirmation(context.Background(), OrderConfirmationEmail{OrderID: 1, Email: "a@example.com"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}
