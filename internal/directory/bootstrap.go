package directory

import (
	"context"
	"fmt"
)

// SeedAdmin is an admin created at startup.
type SeedAdmin struct {
	ID             string
	CredentialHash []byte
}

// Seed is the data recreated on every process start.
type Seed struct {
	Admins []SeedAdmin
	Items  []NewItem
	Sales  []PurchaseRequest
}

// Bootstrap loads the seed into an empty directory. Seed sales go through the
// normal purchase path so they get sequential sale ids.
func (d *Directory) Bootstrap(ctx context.Context, seed Seed) error {
	for _, a := range seed.Admins {
		if err := d.AddAdmin(a.ID, a.CredentialHash); err != nil {
			return fmt.Errorf("seeding admin %s: %w", a.ID, err)
		}
	}
	for _, n := range seed.Items {
		if err := n.validate(); err != nil {
			return fmt.Errorf("seeding item %s: %w", n.ID, err)
		}
		if err := d.ledger.AddItem(n.item()); err != nil {
			return fmt.Errorf("seeding item %s: %w", n.ID, err)
		}
	}
	for _, s := range seed.Sales {
		if _, err := d.Purchase(ctx, s); err != nil {
			return fmt.Errorf("seeding sale of %s: %w", s.ItemID, err)
		}
	}
	return nil
}
