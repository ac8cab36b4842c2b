package api

import (
	"context"
	"net/http"

	"github.com/muurk/lmsadmin/internal/apiclient"
)

// PaymentsAPI covers the payment gateway and site configuration.
type PaymentsAPI struct {
	c *apiclient.Client
}

// PaymentConfig returns the payment gateway configuration.
func (p *PaymentsAPI) PaymentConfig(ctx context.Context) (Record, error) {
	return get[Record](ctx, p.c, "/payments/payment-config/", nil)
}

// UpdatePaymentConfig replaces the payment gateway configuration.
func (p *PaymentsAPI) UpdatePaymentConfig(ctx context.Context, body any) (Record, error) {
	return send[Record](ctx, p.c, http.MethodPut, "/payments/payment-config/update/", body, false)
}

// DeletePaymentConfig removes the payment gateway configuration.
func (p *PaymentsAPI) DeletePaymentConfig(ctx context.Context) error {
	return del(ctx, p.c, "/payments/payment-config/delete/", false)
}

// SiteConfig returns the site configuration.
func (p *PaymentsAPI) SiteConfig(ctx context.Context) (Record, error) {
	return get[Record](ctx, p.c, "/payments/site-config/", nil)
}

// UpdateSiteConfig replaces the site configuration.
func (p *PaymentsAPI) UpdateSiteConfig(ctx context.Context, body any) (Record, error) {
	return send[Record](ctx, p.c, http.MethodPut, "/payments/site-config/update/", body, false)
}
