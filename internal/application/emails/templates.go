package emails

import (
	"fmt"
	"html"
)

func render(kind Kind, d BookingDetails, siteURL string) (subject, content string, err error) {
	switch kind {
	case KindBookingReceived:
		return "We received your booking request", bookingReceivedContent(d), nil
	case KindApproved:
		return "Your project has been approved", approvedContent(d, siteURL), nil
	case KindDeclined:
		return "An update on your booking request", declinedContent(d), nil
	case KindPaymentConfirmed:
		return "Payment received, your project is underway", paymentConfirmedContent(d), nil
	case KindAdminAlert:
		return fmt.Sprintf("New booking: %s (%s)", d.ClientName, d.ProjectType), adminAlertContent(d), nil
	}
	return "", "", &UnknownKindError{Kind: kind}
}

func monthOrTBD(m string) string {
	if m == "" {
		return "to be scheduled"
	}
	return m
}

func bookingReceivedContent(d BookingDetails) string {
	return fmt.Sprintf(`
    <h1>Thanks, %s!</h1>
    <p>Your <strong>%s</strong> project request has been received and is waiting for review.</p>
    <p>Requested month: <strong>%s</strong><br>Quoted total: <strong>%s</strong></p>
    <p>We review every booking personally and will email you once it has been approved.</p>
    <p style="font-size:13px;color:#666;">Booking reference: %s</p>
`, html.EscapeString(d.ClientName), html.EscapeString(d.ProjectType), html.EscapeString(monthOrTBD(d.BookingMonth)),
		html.EscapeString(d.TotalPrice), html.EscapeString(d.ProjectID))
}

func approvedContent(d BookingDetails, siteURL string) string {
	return fmt.Sprintf(`
    <h1>Good news, %s</h1>
    <p>Your <strong>%s</strong> project for <strong>%s</strong> has been approved.</p>
    <p>To secure your slot, please complete the payment of <strong>%s</strong>.</p>
    <center>
      <a href="%s/checkout/%s" class="studio-button">Complete payment</a>
    </center>
`, html.EscapeString(d.ClientName), html.EscapeString(d.ProjectType), html.EscapeString(monthOrTBD(d.BookingMonth)),
		html.EscapeString(d.TotalPrice), siteURL, html.EscapeString(d.ProjectID))
}

func declinedContent(d BookingDetails) string {
	return fmt.Sprintf(`
    <h1>Hi %s,</h1>
    <p>Unfortunately we are unable to take on your <strong>%s</strong> project for <strong>%s</strong>.</p>
    <p>No payment has been taken. Feel free to reply to this email if you would like to discuss another month.</p>
`, html.EscapeString(d.ClientName), html.EscapeString(d.ProjectType), html.EscapeString(monthOrTBD(d.BookingMonth)))
}

func paymentConfirmedContent(d BookingDetails) string {
	return fmt.Sprintf(`
    <h1>Payment received</h1>
    <p>Hi %s, we received your payment of <strong>%s %s</strong>.</p>
    <p>Your <strong>%s</strong> project is now in progress. We will be in touch shortly with next steps.</p>
    <p style="font-size:13px;color:#666;">Booking reference: %s</p>
`, html.EscapeString(d.ClientName), html.EscapeString(d.AmountPaid), html.EscapeString(d.Currency),
		html.EscapeString(d.ProjectType), html.EscapeString(d.ProjectID))
}

func adminAlertContent(d BookingDetails) string {
	return fmt.Sprintf(`
    <h1>New booking request</h1>
    <p><strong>Client:</strong> %s &lt;%s&gt;<br>
    <strong>Type:</strong> %s<br>
    <strong>Month:</strong> %s<br>
    <strong>Total:</strong> %s</p>
    <h2>Specifications</h2>
    <p>%s</p>
    <p style="font-size:13px;color:#666;">Project id: %s</p>
`, html.EscapeString(d.ClientName), html.EscapeString(d.ClientEmail), html.EscapeString(d.ProjectType),
		html.EscapeString(monthOrTBD(d.BookingMonth)), html.EscapeString(d.TotalPrice),
		html.EscapeString(d.Specifications), html.EscapeString(d.ProjectID))
}
