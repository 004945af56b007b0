package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/diviso/diviso/internal/apperr"
	"github.com/diviso/diviso/internal/models"
	"github.com/diviso/diviso/internal/payment"
	"github.com/diviso/diviso/internal/storage"
	"github.com/diviso/diviso/pkg/api"
)

// CreditService implements the Connect CreditService. Purchases are
// completed by the payment webhook, not here.
type CreditService struct {
	store  storage.BillingStore
	logger *slog.Logger
}

// NewCreditService creates a CreditService.
func NewCreditService(store storage.BillingStore, logger *slog.Logger) *CreditService {
	return &CreditService{store: store, logger: orDefault(logger)}
}

// ListPackages returns the credit catalogue.
func (s *CreditService) ListPackages(ctx context.Context, req *connect.Request[api.Empty]) (*connect.Response[api.ListPackagesResponse], error) {
	resp := &api.ListPackagesResponse{Packages: make([]*api.CreditPackage, len(payment.Packages))}
	for i, p := range payment.Packages {
		resp.Packages[i] = &api.CreditPackage{Code: p.Code, Credits: p.Credits, AmountMinor: p.AmountMinor, Currency: p.Currency}
	}
	return connect.NewResponse(resp), nil
}

// CreatePurchase opens a pending purchase. The client pays for it through
// Moyasar with metadata.purchase_id set to the returned ID.
func (s *CreditService) CreatePurchase(ctx context.Context, req *connect.Request[api.CreatePurchaseRequest]) (*connect.Response[api.PurchaseResponse], error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	pkg, ok := payment.LookupPackage(req.Msg.PackageCode)
	if !ok {
		return nil, apperr.InvalidArgument("unknown package %q", req.Msg.PackageCode)
	}

	purchase := &models.CreditPurchase{
		UserID:      userID,
		PackageCode: pkg.Code,
		Credits:     pkg.Credits,
		AmountMinor: pkg.AmountMinor,
		Currency:    pkg.Currency,
		Status:      models.PurchasePending,
	}
	if err := s.store.CreatePurchase(ctx, purchase); err != nil {
		return nil, err
	}

	s.logger.Info("Purchase created", "purchase_id", purchase.ID, "package", pkg.Code)
	return connect.NewResponse(&api.PurchaseResponse{Purchase: toAPIPurchase(purchase)}), nil
}

// GetPurchase returns one of the caller's purchases.
func (s *CreditService) GetPurchase(ctx context.Context, req *connect.Request[api.PurchaseRequest]) (*connect.Response[api.PurchaseResponse], error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	purchase, err := s.store.GetPurchase(ctx, req.Msg.PurchaseID)
	if err != nil {
		return nil, err
	}
	if purchase.UserID != userID {
		return nil, apperr.NotFound("purchase not found: %s", req.Msg.PurchaseID)
	}
	return connect.NewResponse(&api.PurchaseResponse{Purchase: toAPIPurchase(purchase)}), nil
}
