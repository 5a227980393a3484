package model

import "time"

// EquipmentListing represents a rentable piece of gear offered by a
// renter.  Each listing carries a finite total stock that is shared by
// all shoppers; temporary cart holds and permanent booking
// reservations are both counted against it.  Total stock only changes
// through explicit renter edits or implicitly when a booking is
// completed.  This struct corresponds to a row in the
// `equipment_listings` table.
//
// Fields:
//  ID             – primary key identifier.
//  RenterID       – user ID of the renter who owns the listing.
//  Name           – display name of the equipment.
//  Description    – optional free-form description.
//  PricePerDayCents – rental price per day in cents.
//  TotalStock     – total number of units the renter owns.
//  Status         – ACTIVE or ARCHIVED.
//  CreatedAt      – timestamp when the listing was created.
//  UpdatedAt      – timestamp of last update.
type EquipmentListing struct {
    ID               uint64    // equipment_listings.id
    RenterID         uint64    // equipment_listings.renter_id
    Name             string    // equipment_listings.name
    Description      *string   // equipment_listings.description (nullable)
    PricePerDayCents uint32    // equipment_listings.price_per_day_cents
    TotalStock       uint32    // equipment_listings.total_stock
    Status           string    // equipment_listings.status
    CreatedAt        time.Time // equipment_listings.created_at
    UpdatedAt        time.Time // equipment_listings.updated_at
}
