package notionsync

import (
	"time"

	"github.com/dvloznov/tally-ledger/internal/domain"
	"github.com/jomei/notionapi"
)

// Property names of the outstanding-items database.
const (
	PropReference     = "Reference"
	PropTransactionID = "Transaction ID"
	PropDate          = "Date"
	PropYear          = "Year"
	PropPartner       = "Partner"
	PropDebitAccount  = "Debit Account"
	PropCreditAccount = "Credit Account"
	PropDebitStack    = "Debit Stack"
	PropCreditStack   = "Credit Stack"
	PropCurrency      = "Currency"
	PropComment       = "Comment"
)

func richText(content string) []notionapi.RichText {
	return []notionapi.RichText{{
		Type: notionapi.ObjectTypeText,
		Text: &notionapi.Text{Content: content},
	}}
}

// OutstandingToNotionProperties maps an outstanding booking to a page of the
// outstanding-items database. partnerName may be empty.
func OutstandingToNotionProperties(tx *domain.Transaction, partnerName string) notionapi.Properties {
	title := tx.Reference
	if title == "" {
		title = tx.ID
	}
	date := notionapi.Date(tx.Date.In(time.UTC))
	debitStack, _ := tx.DebitStack.Float64()
	creditStack, _ := tx.CreditStack.Float64()

	props := notionapi.Properties{
		PropReference:     notionapi.TitleProperty{Title: richText(title)},
		PropTransactionID: notionapi.RichTextProperty{RichText: richText(tx.ID)},
		PropDate:          notionapi.DateProperty{Date: &notionapi.DateObject{Start: &date}},
		PropYear:          notionapi.NumberProperty{Number: float64(tx.Date.Year)},
		PropDebitStack:    notionapi.NumberProperty{Number: debitStack},
		PropCreditStack:   notionapi.NumberProperty{Number: creditStack},
	}

	if partnerName != "" {
		props[PropPartner] = notionapi.SelectProperty{Select: notionapi.Option{Name: partnerName}}
	}
	if tx.Debit != 0 {
		props[PropDebitAccount] = notionapi.NumberProperty{Number: float64(tx.Debit)}
	}
	if tx.Credit != 0 {
		props[PropCreditAccount] = notionapi.NumberProperty{Number: float64(tx.Credit)}
	}
	if tx.DebitCurrency != "" {
		props[PropCurrency] = notionapi.SelectProperty{Select: notionapi.Option{Name: tx.DebitCurrency}}
	}
	if tx.Comment != "" {
		props[PropComment] = notionapi.RichTextProperty{RichText: richText(tx.Comment)}
	}
	return props
}

// extractTransactionID returns the Transaction ID of a page, "" when unset.
func extractTransactionID(page notionapi.Page) string {
	if prop, ok := page.Properties[PropTransactionID].(*notionapi.RichTextProperty); ok && len(prop.RichText) > 0 {
		return prop.RichText[0].PlainText
	}
	return ""
}

// extractYear returns the Year of a page, 0 when unset.
func extractYear(page notionapi.Page) int {
	if prop, ok := page.Properties[PropYear].(*notionapi.NumberProperty); ok {
		return int(prop.Number)
	}
	return 0
}
