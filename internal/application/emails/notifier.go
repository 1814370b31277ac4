package emails

import (
	"context"
	"fmt"
)

// Kind identifies which lifecycle email to send.
type Kind string

const (
	KindBookingReceived  Kind = "booking-received"
	KindApproved         Kind = "approved"
	KindDeclined         Kind = "declined"
	KindPaymentConfirmed Kind = "payment-confirmed"
	KindAdminAlert       Kind = "admin-alert"
)

// BookingDetails is the data every lifecycle email is rendered from.
type BookingDetails struct {
	ProjectID      string
	ClientName     string
	ClientEmail    string
	ProjectType    string
	BookingMonth   string
	Specifications string
	TotalPrice     string
	AmountPaid     string
	Currency       string
}

// Notifier delivers one lifecycle notification. Callers treat it as best effort.
type Notifier interface {
	Notify(ctx context.Context, kind Kind, recipient string, details BookingDetails) error
}

// Sender delivers a rendered HTML email.
type Sender interface {
	Send(ctx context.Context, toEmail, subject, html string) error
}

// TemplateNotifier renders the template for each kind and hands it to a Sender.
type TemplateNotifier struct {
	Sender     Sender
	StudioName string
	SiteURL    string
}

func (n *TemplateNotifier) Notify(ctx context.Context, kind Kind, recipient string, details BookingDetails) error {
	if n.Sender == nil {
		return nil
	}
	subject, content, err := render(kind, details, n.siteURL())
	if err != nil {
		return err
	}
	return n.Sender.Send(ctx, recipient, subject, EmailLayout(n.studioName(), n.siteURL(), content))
}

func (n *TemplateNotifier) studioName() string {
	if n.StudioName != "" {
		return n.StudioName
	}
	return "Studio"
}

func (n *TemplateNotifier) siteURL() string {
	if n.SiteURL != "" {
		return n.SiteURL
	}
	return "https://example.com"
}

// UnknownKindError is returned for a kind without a template.
type UnknownKindError struct {
	Kind Kind
}

func (e *UnknownKindError) Error() string {
	return fmt.Sprintf("no email template for %q", string(e.Kind))
}
